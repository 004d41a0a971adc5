package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// AttributeDefinition 动态属性定义表
type AttributeDefinition struct {
	ID             uint                        `gorm:"primarykey" json:"id"`                                        // 主键
	Code           string                      `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`           // 属性编码
	Label          string                      `gorm:"type:varchar(120);not null;default:''" json:"label"`          // 显示名称
	Type           string                      `gorm:"type:varchar(16);not null" json:"type"`                       // number/text/enum/boolean/date
	UnitConstraint string                      `gorm:"type:varchar(16);not null;default:''" json:"unit_constraint"` // 限定单位编码，空表示不限
	EnumOptions    datatypes.JSONSlice[string] `gorm:"type:json" json:"enum_options"`                               // 枚举可选值
	IsIndexed      bool                        `gorm:"not null" json:"is_indexed"`                                  // 是否用于检索
	CreatedAt      time.Time                   `json:"created_at"`                                                  // 创建时间
}

// TableName 指定表名
func (AttributeDefinition) TableName() string {
	return "attribute_defs"
}

// SKUAttributeValue SKU 属性值表，(sku_id, attr_id) 唯一
type SKUAttributeValue struct {
	ID        uint                `gorm:"primarykey" json:"id"`                                          // 主键
	SKUID     uint                `gorm:"column:sku_id;not null;uniqueIndex:idx_sku_attr" json:"sku_id"` // SKU ID
	AttrID    uint                `gorm:"not null;uniqueIndex:idx_sku_attr;index" json:"attr_id"`        // 属性定义ID
	ValueNum  decimal.NullDecimal `gorm:"type:decimal(20,6)" json:"value_num"`                           // 数值
	UnitID    *uint               `json:"unit_id"`                                                       // 数值单位
	ValueText *string             `gorm:"type:text" json:"value_text"`                                   // 文本值（text/enum/boolean/date）
	UpdatedAt time.Time           `json:"updated_at"`                                                    // 更新时间

	Attribute *AttributeDefinition `gorm:"foreignKey:AttrID" json:"attribute,omitempty"` // 关联定义
	Unit      *UnitOfMeasure       `gorm:"foreignKey:UnitID" json:"unit,omitempty"`      // 关联单位
}

// TableName 指定表名
func (SKUAttributeValue) TableName() string {
	return "sku_attr_values"
}

// AttributeRule 属性校验规则表
type AttributeRule struct {
	ID        uint                `gorm:"primarykey" json:"id"`                                         // 主键
	AttrID    uint                `gorm:"not null;index" json:"attr_id"`                                // 属性定义ID
	AppliesTo string              `gorm:"type:varchar(16);not null;default:'always'" json:"applies_to"` // always/category/tag
	TargetID  *uint               `json:"target_id"`                                                    // 分类或标签ID
	Required  bool                `gorm:"not null" json:"required"`                                     // 是否必填
	MinNum    decimal.NullDecimal `gorm:"type:decimal(20,6)" json:"min_num"`                            // 数值下限
	MaxNum    decimal.NullDecimal `gorm:"type:decimal(20,6)" json:"max_num"`                            // 数值上限
	Regex     string              `gorm:"type:varchar(255);not null;default:''" json:"regex"`           // 文本/枚举正则（整串匹配）

	Attribute *AttributeDefinition `gorm:"foreignKey:AttrID" json:"attribute,omitempty"` // 关联定义
}

// TableName 指定表名
func (AttributeRule) TableName() string {
	return "attribute_rules"
}
