package service

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/stockledger/internal/constants"
	"github.com/stockledger/internal/logger"
	"github.com/stockledger/internal/models"
	"github.com/stockledger/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AttributeService 动态属性登记、赋值与规则校验
type AttributeService struct {
	attributeRepo repository.AttributeRepository
	catalogRepo   repository.CatalogRepository
}

// NewAttributeService 创建属性服务
func NewAttributeService(attributeRepo repository.AttributeRepository, catalogRepo repository.CatalogRepository) *AttributeService {
	return &AttributeService{
		attributeRepo: attributeRepo,
		catalogRepo:   catalogRepo,
	}
}

// AttributeSpec 属性定义参数
type AttributeSpec struct {
	Code           string   `json:"code"`
	Label          string   `json:"label"`
	Type           string   `json:"type"`
	UnitConstraint string   `json:"unit_constraint"`
	EnumOptions    []string `json:"enum_options"`
	IsIndexed      bool     `json:"is_indexed"`
}

// EnsureAttribute 按编码获取或创建属性定义，已存在时保留原定义
func (s *AttributeService) EnsureAttribute(tx *gorm.DB, spec AttributeSpec) (uint, error) {
	code := strings.TrimSpace(spec.Code)
	if code == "" {
		return 0, ErrInvalidAttributeCode
	}
	repo := s.attributeRepo.WithTx(tx)
	existing, err := repo.GetDefinitionByCode(code)
	if err != nil {
		return 0, storageError("get attribute definition", err)
	}
	if existing != nil {
		return existing.ID, nil
	}

	attrType := strings.ToLower(strings.TrimSpace(spec.Type))
	if !isSupportedAttributeType(attrType) {
		return 0, ErrUnsupportedAttributeType
	}
	label := strings.TrimSpace(spec.Label)
	if label == "" {
		label = code
	}
	item := &models.AttributeDefinition{
		Code:           code,
		Label:          label,
		Type:           attrType,
		UnitConstraint: strings.TrimSpace(spec.UnitConstraint),
		IsIndexed:      spec.IsIndexed,
	}
	if spec.EnumOptions != nil {
		item.EnumOptions = datatypes.JSONSlice[string](spec.EnumOptions)
	}
	saved, err := repo.CreateDefinitionIfAbsent(item)
	if err != nil {
		return 0, storageError("create attribute definition", err)
	}
	logger.Debugw("attribute_definition_ensured", "code", saved.Code, "attr_id", saved.ID)
	return saved.ID, nil
}

// AttributeRuleSpec 属性规则参数
type AttributeRuleSpec struct {
	AttrCode  string
	AppliesTo string
	TargetID  *uint
	Required  bool
	MinNum    *decimal.Decimal
	MaxNum    *decimal.Decimal
	Regex     string
}

// AddRule 为已登记属性追加校验规则
func (s *AttributeService) AddRule(tx *gorm.DB, spec AttributeRuleSpec) (*models.AttributeRule, error) {
	def, err := s.attributeRepo.WithTx(tx).GetDefinitionByCode(strings.TrimSpace(spec.AttrCode))
	if err != nil {
		return nil, storageError("get attribute definition", err)
	}
	if def == nil {
		return nil, ErrUnknownAttribute
	}
	scope := strings.ToLower(strings.TrimSpace(spec.AppliesTo))
	if scope == "" {
		scope = constants.AttributeRuleScopeAlways
	}
	switch scope {
	case constants.AttributeRuleScopeAlways:
	case constants.AttributeRuleScopeCategory, constants.AttributeRuleScopeTag:
		if spec.TargetID == nil || *spec.TargetID == 0 {
			return nil, ErrInvalidRule
		}
	default:
		return nil, ErrInvalidRule
	}
	if spec.MinNum != nil && spec.MaxNum != nil && spec.MinNum.GreaterThan(*spec.MaxNum) {
		return nil, ErrInvalidRule
	}
	if spec.Regex != "" {
		if _, err := regexp.Compile(spec.Regex); err != nil {
			return nil, ErrInvalidRule
		}
	}
	rule := &models.AttributeRule{
		AttrID:    def.ID,
		AppliesTo: scope,
		TargetID:  spec.TargetID,
		Required:  spec.Required,
		Regex:     spec.Regex,
	}
	if spec.MinNum != nil {
		rule.MinNum = decimal.NewNullDecimal(*spec.MinNum)
	}
	if spec.MaxNum != nil {
		rule.MaxNum = decimal.NewNullDecimal(*spec.MaxNum)
	}
	if err := s.attributeRepo.WithTx(tx).CreateRule(rule); err != nil {
		return nil, storageError("create attribute rule", err)
	}
	return rule, nil
}

// SetAttributeValue 按属性类型解析并写入 SKU 属性值，(sku, attr) 已存在时覆盖
func (s *AttributeService) SetAttributeValue(tx *gorm.DB, skuID uint, code string, raw string, unitCode string) error {
	sku, err := s.catalogRepo.WithTx(tx).GetSKU(skuID)
	if err != nil {
		return storageError("get sku", err)
	}
	if sku == nil {
		return ErrSKUNotFound
	}
	def, err := s.attributeRepo.WithTx(tx).GetDefinitionByCode(strings.TrimSpace(code))
	if err != nil {
		return storageError("get attribute definition", err)
	}
	if def == nil {
		return ErrUnknownAttribute
	}

	unit, err := s.resolveUnit(tx, def, unitCode)
	if err != nil {
		return err
	}
	unitLabel := ""
	if unit != nil {
		unitLabel = unit.Code
	}
	value, err := coerceAttributeValue(def, raw, unitLabel)
	if err != nil {
		return err
	}

	row := &models.SKUAttributeValue{
		SKUID:  skuID,
		AttrID: def.ID,
	}
	value.applyToRow(row)
	if unit != nil && value.IsNumber() {
		row.UnitID = &unit.ID
	}
	if err := s.attributeRepo.WithTx(tx).UpsertValue(row); err != nil {
		return storageError("upsert attribute value", err)
	}
	return nil
}

// resolveUnit 未传单位时沿用属性限定单位；传入单位必须已登记且与限定一致
func (s *AttributeService) resolveUnit(tx *gorm.DB, def *models.AttributeDefinition, unitCode string) (*models.UnitOfMeasure, error) {
	unitCode = strings.TrimSpace(unitCode)
	constraint := strings.TrimSpace(def.UnitConstraint)
	if unitCode == "" {
		if constraint == "" || def.Type != constants.AttributeTypeNumber {
			return nil, nil
		}
		unitCode = constraint
	}
	unit, err := s.catalogRepo.WithTx(tx).GetUOMByCode(unitCode)
	if err != nil {
		return nil, storageError("get uom", err)
	}
	if unit == nil {
		return nil, ErrUnknownUnit
	}
	if constraint != "" && unit.Code != constraint {
		return nil, ErrUnitMismatch
	}
	return unit, nil
}

// GetSKUAttributes 返回 SKU 全部属性值，键为属性编码
func (s *AttributeService) GetSKUAttributes(tx *gorm.DB, skuID uint) (map[string]AttributeValue, error) {
	rows, err := s.attributeRepo.WithTx(tx).ListValuesBySKU(skuID)
	if err != nil {
		return nil, storageError("list attribute values", err)
	}
	result := make(map[string]AttributeValue, len(rows))
	for _, row := range rows {
		if row.Attribute == nil {
			continue
		}
		result[row.Attribute.Code] = attributeValueFromRow(row)
	}
	return result, nil
}

// SetSKUTags 整体替换 SKU 标签，不存在的标签按名称创建
func (s *AttributeService) SetSKUTags(tx *gorm.DB, skuID uint, names []string) error {
	repo := s.catalogRepo.WithTx(tx)
	sku, err := repo.GetSKU(skuID)
	if err != nil {
		return storageError("get sku", err)
	}
	if sku == nil {
		return ErrSKUNotFound
	}
	tagIDs := make([]uint, 0, len(names))
	seen := make(map[uint]struct{}, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		tag, err := repo.EnsureTag(name)
		if err != nil {
			return storageError("ensure tag", err)
		}
		if _, ok := seen[tag.ID]; ok {
			continue
		}
		seen[tag.ID] = struct{}{}
		tagIDs = append(tagIDs, tag.ID)
	}
	if err := repo.ReplaceSKUTags(skuID, tagIDs); err != nil {
		return storageError("replace sku tags", err)
	}
	return nil
}

// ValidateSKU 按分类与标签匹配规则，逐条校验（规则按 ID 顺序，首个违规即返回）
func (s *AttributeService) ValidateSKU(tx *gorm.DB, skuID uint) error {
	catalog := s.catalogRepo.WithTx(tx)
	sku, err := catalog.GetSKUWithProduct(skuID)
	if err != nil {
		return storageError("get sku", err)
	}
	if sku == nil || sku.Product == nil {
		return nil
	}
	tagIDs, err := catalog.ListTagIDsBySKU(skuID)
	if err != nil {
		return storageError("list sku tags", err)
	}
	rules, err := s.attributeRepo.WithTx(tx).ListRulesForScope(sku.Product.CategoryID, tagIDs)
	if err != nil {
		return storageError("list attribute rules", err)
	}
	values, err := s.GetSKUAttributes(tx, skuID)
	if err != nil {
		return err
	}

	for _, rule := range rules {
		if rule.Attribute == nil {
			continue
		}
		if err := checkRule(skuID, rule, values); err != nil {
			return err
		}
	}
	return nil
}

func checkRule(skuID uint, rule models.AttributeRule, values map[string]AttributeValue) error {
	def := rule.Attribute
	violation := func(err error, detail string) error {
		return &AttributeViolation{SKUID: skuID, Code: def.Code, Label: def.Label, Detail: detail, Err: err}
	}

	value, present := values[def.Code]
	if !present {
		if rule.Required {
			return violation(ErrMissingRequiredAttribute, "")
		}
		return nil
	}

	switch {
	case def.Type == constants.AttributeTypeNumber:
		if value.Number == nil {
			return nil
		}
		if rule.MinNum.Valid && value.Number.LessThan(rule.MinNum.Decimal) {
			return violation(ErrOutOfRange, fmt.Sprintf("must be >= %s", rule.MinNum.Decimal.String()))
		}
		if rule.MaxNum.Valid && value.Number.GreaterThan(rule.MaxNum.Decimal) {
			return violation(ErrOutOfRange, fmt.Sprintf("must be <= %s", rule.MaxNum.Decimal.String()))
		}
	case value.IsTextual() && rule.Regex != "":
		if value.Text == "" {
			return nil
		}
		pattern, err := regexp.Compile("^(?:" + rule.Regex + ")$")
		if err != nil {
			return violation(ErrFormatViolation, "invalid pattern")
		}
		if !pattern.MatchString(value.Text) {
			return violation(ErrFormatViolation, "")
		}
	}
	return nil
}
