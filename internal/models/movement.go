package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Movement 库存流水单头（仅追加）
type Movement struct {
	ID        uint      `gorm:"primarykey" json:"id"`                                  // 主键
	Ts        time.Time `gorm:"not null;index" json:"ts"`                              // 业务时间
	Type      string    `gorm:"type:varchar(16);not null;index" json:"type"`           // PURCHASE/SALE/ADJUST/TRANSFER
	Reference string    `gorm:"type:varchar(64);not null;default:''" json:"reference"` // 来源引用
	Note      string    `gorm:"type:text" json:"note"`                                 // 备注
	CreatedAt time.Time `json:"created_at"`                                            // 创建时间

	Lines []MovementLine `gorm:"foreignKey:MovementID" json:"lines,omitempty"` // 流水明细
}

// TableName 指定表名
func (Movement) TableName() string {
	return "movements"
}

// MovementLine 库存流水明细，QtyUnits 为带符号的基础单位数量
type MovementLine struct {
	ID             uint                `gorm:"primarykey" json:"id"`                                        // 主键
	MovementID     uint                `gorm:"not null;index" json:"movement_id"`                           // 单头ID
	SKUID          uint                `gorm:"column:sku_id;not null;index" json:"sku_id"`                  // SKU ID
	QtyUnits       int64               `gorm:"not null" json:"qty_units"`                                   // 入库为正，出库为负
	PackagingLevel string              `gorm:"type:varchar(16);not null;default:''" json:"packaging_level"` // 展示用包装层级
	QtyPacks       decimal.NullDecimal `gorm:"type:decimal(20,6)" json:"qty_packs"`                         // 展示用包装数量
	UnitPrice      Amount              `gorm:"type:decimal(20,6);not null;default:0" json:"unit_price"`     // 单位成本或售价
}

// TableName 指定表名
func (MovementLine) TableName() string {
	return "movement_lines"
}
