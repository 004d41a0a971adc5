package service

import (
	"strings"

	"github.com/stockledger/internal/constants"
	"github.com/stockledger/internal/models"

	"github.com/shopspring/decimal"
)

// AttributeValue 属性值的带标签变体，Kind 取自属性定义的类型
type AttributeValue struct {
	Kind    string           `json:"kind"`
	Number  *decimal.Decimal `json:"number,omitempty"`
	Unit    string           `json:"unit,omitempty"`
	Text    string           `json:"text,omitempty"`
	Boolean *bool            `json:"boolean,omitempty"`
}

// IsNumber 是否为数值
func (v AttributeValue) IsNumber() bool {
	return v.Kind == constants.AttributeTypeNumber
}

// IsTextual 是否按文本规则（正则）校验
func (v AttributeValue) IsTextual() bool {
	return v.Kind == constants.AttributeTypeText || v.Kind == constants.AttributeTypeEnum
}

var booleanTrueTokens = map[string]struct{}{
	"1":    {},
	"true": {},
	"sí":   {},
	"si":   {},
	"yes":  {},
	"on":   {},
}

// parseBooleanToken 真值集合以外的输入一律为 false
func parseBooleanToken(raw string) bool {
	_, ok := booleanTrueTokens[strings.ToLower(strings.TrimSpace(raw))]
	return ok
}

func isSupportedAttributeType(attrType string) bool {
	switch attrType {
	case constants.AttributeTypeNumber,
		constants.AttributeTypeText,
		constants.AttributeTypeEnum,
		constants.AttributeTypeBoolean,
		constants.AttributeTypeDate:
		return true
	default:
		return false
	}
}

// coerceAttributeValue 按定义类型解析原始输入，unit 已完成校验
func coerceAttributeValue(def *models.AttributeDefinition, raw string, unit string) (AttributeValue, error) {
	value := AttributeValue{Kind: def.Type}
	switch def.Type {
	case constants.AttributeTypeNumber:
		num, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return AttributeValue{}, ErrTypeMismatch
		}
		value.Number = &num
		value.Unit = unit
	case constants.AttributeTypeText:
		value.Text = strings.TrimSpace(raw)
	case constants.AttributeTypeEnum:
		text := strings.TrimSpace(raw)
		if len(def.EnumOptions) > 0 && !containsString(def.EnumOptions, text) {
			return AttributeValue{}, ErrInvalidEnumValue
		}
		value.Text = text
	case constants.AttributeTypeBoolean:
		flag := parseBooleanToken(raw)
		value.Boolean = &flag
	case constants.AttributeTypeDate:
		value.Text = raw
	default:
		return AttributeValue{}, ErrUnsupportedAttributeType
	}
	return value, nil
}

// applyToRow 将变体写入存储行（数值列或文本列）
func (v AttributeValue) applyToRow(row *models.SKUAttributeValue) {
	row.ValueNum = decimal.NullDecimal{}
	row.ValueText = nil
	switch v.Kind {
	case constants.AttributeTypeNumber:
		if v.Number != nil {
			row.ValueNum = decimal.NewNullDecimal(*v.Number)
		}
	case constants.AttributeTypeBoolean:
		text := "0"
		if v.Boolean != nil && *v.Boolean {
			text = "1"
		}
		row.ValueText = &text
	default:
		text := v.Text
		row.ValueText = &text
	}
}

// attributeValueFromRow 从存储行还原变体
func attributeValueFromRow(row models.SKUAttributeValue) AttributeValue {
	kind := ""
	if row.Attribute != nil {
		kind = row.Attribute.Type
	}
	value := AttributeValue{Kind: kind}
	switch kind {
	case constants.AttributeTypeNumber:
		if row.ValueNum.Valid {
			num := row.ValueNum.Decimal
			value.Number = &num
		}
		if row.Unit != nil {
			value.Unit = row.Unit.Code
		}
	case constants.AttributeTypeBoolean:
		flag := row.ValueText != nil && *row.ValueText == "1"
		value.Boolean = &flag
	default:
		if row.ValueText != nil {
			value.Text = *row.ValueText
		}
	}
	return value
}

func containsString(options []string, target string) bool {
	for _, option := range options {
		if option == target {
			return true
		}
	}
	return false
}
