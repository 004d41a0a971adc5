package models

import "time"

// SKUCost SKU 加权平均成本表，唯一会被更新的库存核心表
type SKUCost struct {
	SKUID     uint      `gorm:"column:sku_id;primaryKey;autoIncrement:false" json:"sku_id"` // SKU ID
	AvgCost   Amount    `gorm:"type:decimal(20,6);not null;default:0" json:"avg_cost"`      // 加权平均单位成本
	UpdatedAt time.Time `json:"updated_at"`                                                 // 最近更新时间
}

// TableName 指定表名
func (SKUCost) TableName() string {
	return "sku_costs"
}

// SKUThreshold SKU 低库存阈值
type SKUThreshold struct {
	SKUID    uint  `gorm:"column:sku_id;primaryKey;autoIncrement:false" json:"sku_id"` // SKU ID
	MinUnits int64 `gorm:"not null;default:0" json:"min_units"`                        // 低库存线（基础单位）
}

// TableName 指定表名
func (SKUThreshold) TableName() string {
	return "sku_thresholds"
}

// LowStockAlert 低库存告警记录（仅追加）
type LowStockAlert struct {
	ID        uint      `gorm:"primarykey" json:"id"`                               // 主键
	SKUID     uint      `gorm:"column:sku_id;not null;index" json:"sku_id"`         // SKU ID
	OnHand    int64     `gorm:"not null" json:"on_hand"`                            // 触发时库存
	MinUnits  int64     `gorm:"not null" json:"min_units"`                          // 触发时阈值
	Source    string    `gorm:"type:varchar(32);not null;default:''" json:"source"` // sale / scan
	CreatedAt time.Time `gorm:"index" json:"created_at"`                            // 创建时间
}

// TableName 指定表名
func (LowStockAlert) TableName() string {
	return "low_stock_alerts"
}
