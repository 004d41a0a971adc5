package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Purchase 采购单头
type Purchase struct {
	ID         uint      `gorm:"primarykey" json:"id"`                                    // 主键
	Ts         time.Time `gorm:"not null;index" json:"ts"`                                // 业务时间
	Supplier   string    `gorm:"type:varchar(200);not null;default:''" json:"supplier"`   // 供应商
	Note       string    `gorm:"type:text" json:"note"`                                   // 备注
	MovementID uint      `gorm:"not null;index" json:"movement_id"`                       // 对应库存流水
	TotalCost  Money     `gorm:"type:decimal(20,2);not null;default:0" json:"total_cost"` // 合计成本
	CreatedAt  time.Time `json:"created_at"`                                              // 创建时间

	Lines []PurchaseLine `gorm:"foreignKey:PurchaseID" json:"lines,omitempty"` // 采购明细
}

// TableName 指定表名
func (Purchase) TableName() string {
	return "purchases"
}

// PurchaseLine 采购明细
type PurchaseLine struct {
	ID             uint                `gorm:"primarykey" json:"id"`                                        // 主键
	PurchaseID     uint                `gorm:"not null;index" json:"purchase_id"`                           // 采购单ID
	SKUID          uint                `gorm:"column:sku_id;not null;index" json:"sku_id"`                  // SKU ID
	QtyUnits       int64               `gorm:"not null" json:"qty_units"`                                   // 基础单位数量
	UnitCost       Amount              `gorm:"type:decimal(20,6);not null" json:"unit_cost"`                // 单位成本
	PackagingLevel string              `gorm:"type:varchar(16);not null;default:''" json:"packaging_level"` // 包装层级
	QtyPacks       decimal.NullDecimal `gorm:"type:decimal(20,6)" json:"qty_packs"`                         // 包装数量
}

// TableName 指定表名
func (PurchaseLine) TableName() string {
	return "purchase_lines"
}

// Sale 销售单头
type Sale struct {
	ID          uint      `gorm:"primarykey" json:"id"`                                      // 主键
	Ts          time.Time `gorm:"not null;index" json:"ts"`                                  // 业务时间
	Customer    string    `gorm:"type:varchar(200);not null;default:''" json:"customer"`     // 客户
	MovementID  uint      `gorm:"not null;index" json:"movement_id"`                         // 对应库存流水
	TotalAmount Money     `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"` // 合计金额
	CreatedAt   time.Time `json:"created_at"`                                                // 创建时间

	Lines []SaleLine `gorm:"foreignKey:SaleID" json:"lines,omitempty"` // 销售明细
}

// TableName 指定表名
func (Sale) TableName() string {
	return "sales"
}

// SaleLine 销售明细，COGS 在记账时快照
type SaleLine struct {
	ID             uint                `gorm:"primarykey" json:"id"`                                        // 主键
	SaleID         uint                `gorm:"not null;index" json:"sale_id"`                               // 销售单ID
	SKUID          uint                `gorm:"column:sku_id;not null;index" json:"sku_id"`                  // SKU ID
	QtyUnits       int64               `gorm:"not null" json:"qty_units"`                                   // 基础单位数量
	UnitPrice      Amount              `gorm:"type:decimal(20,6);not null" json:"unit_price"`               // 单位售价
	PackagingLevel string              `gorm:"type:varchar(16);not null;default:''" json:"packaging_level"` // 包装层级
	QtyPacks       decimal.NullDecimal `gorm:"type:decimal(20,6)" json:"qty_packs"`                         // 包装数量
	CogsUnit       Amount              `gorm:"type:decimal(20,6);not null;default:0" json:"cogs_unit"`      // 单位销售成本
	CogsTotal      Money               `gorm:"type:decimal(20,2);not null;default:0" json:"cogs_total"`     // 销售成本合计
}

// TableName 指定表名
func (SaleLine) TableName() string {
	return "sale_lines"
}
