package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Packaging SKU 包装层级表（UNIT/PACK/CASE/BUNDLE）
type Packaging struct {
	ID              uint                `gorm:"primarykey" json:"id"`                                                 // 主键
	SKUID           uint                `gorm:"column:sku_id;not null;index:idx_packaging_sku_level" json:"sku_id"`   // SKU ID
	Level           string              `gorm:"type:varchar(16);not null;index:idx_packaging_sku_level" json:"level"` // 包装层级
	Label           string              `gorm:"type:varchar(120);not null;default:''" json:"label"`                   // 显示名称（如 "Caja x24"）
	UnitsPerParent  decimal.NullDecimal `gorm:"type:decimal(20,6)" json:"units_per_parent"`                           // 每个该层级包含的基础单位数，为空按 1 处理
	IsSellable      bool                `gorm:"not null" json:"is_sellable"`                                          // 是否可售
	IsPurchasable   bool                `gorm:"not null" json:"is_purchasable"`                                       // 是否可采购
	MinSellMultiple int64               `gorm:"not null;default:1" json:"min_sell_multiple"`                          // 最小销售倍数
	ExceptionType   string              `gorm:"type:varchar(32);not null;default:''" json:"exception_type"`           // 例外类型（如 BUNDLE_ONLY）
	CreatedAt       time.Time           `json:"created_at"`                                                           // 创建时间
	UpdatedAt       time.Time           `json:"updated_at"`                                                           // 更新时间
}

// TableName 指定表名
func (Packaging) TableName() string {
	return "packaging"
}

// PackagingComposition 组合包装（捆绑/混装箱）成分表
type PackagingComposition struct {
	ID                uint            `gorm:"primarykey" json:"id"`                                   // 主键
	ParentPackagingID uint            `gorm:"not null;index" json:"parent_packaging_id"`              // 父包装ID
	ChildSKUID        uint            `gorm:"column:child_sku_id;not null;index" json:"child_sku_id"` // 成分 SKU ID
	QtyUnits          decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"qty_units"`           // 每个父包装包含的成分基础单位数
}

// TableName 指定表名
func (PackagingComposition) TableName() string {
	return "packaging_compositions"
}
