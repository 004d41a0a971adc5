package models

import (
	"time"
)

// UnitOfMeasure 计量单位表
type UnitOfMeasure struct {
	ID    uint   `gorm:"primarykey" json:"id"`                              // 主键
	Code  string `gorm:"type:varchar(16);uniqueIndex;not null" json:"code"` // 单位编码（如 un、ml、g）
	Label string `gorm:"type:varchar(64);not null;default:''" json:"label"` // 显示名称
}

// TableName 指定表名
func (UnitOfMeasure) TableName() string {
	return "uoms"
}

// Category 商品分类表
type Category struct {
	ID        uint      `gorm:"primarykey" json:"id"`                               // 主键
	Name      string    `gorm:"type:varchar(120);uniqueIndex;not null" json:"name"` // 分类名称
	CreatedAt time.Time `gorm:"index" json:"created_at"`                            // 创建时间
}

// TableName 指定表名
func (Category) TableName() string {
	return "categories"
}

// Brand 品牌表
type Brand struct {
	ID   uint   `gorm:"primarykey" json:"id"`                               // 主键
	Name string `gorm:"type:varchar(120);uniqueIndex;not null" json:"name"` // 品牌名称
}

// TableName 指定表名
func (Brand) TableName() string {
	return "brands"
}

// Product 商品表（多个 SKU 共享的抽象商品）
type Product struct {
	ID         uint      `gorm:"primarykey" json:"id"`                   // 主键
	Name       string    `gorm:"type:varchar(200);not null" json:"name"` // 商品名称
	CategoryID *uint     `gorm:"index" json:"category_id"`               // 分类ID
	BrandID    *uint     `gorm:"index" json:"brand_id"`                  // 品牌ID
	CreatedAt  time.Time `gorm:"index" json:"created_at"`                // 创建时间

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"` // 关联分类
	Brand    *Brand    `gorm:"foreignKey:BrandID" json:"brand,omitempty"`       // 关联品牌
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}

// SKU 库存单元表，所有库存流水均以 SKU 的基础单位计量
type SKU struct {
	ID        uint      `gorm:"primarykey" json:"id"`                                 // 主键
	ProductID uint      `gorm:"not null;index" json:"product_id"`                     // 商品ID
	Code      string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`    // SKU 编码
	Variant   string    `gorm:"type:varchar(200);not null;default:''" json:"variant"` // 规格描述（颜色、尺寸等）
	IsActive  bool      `gorm:"default:true;index" json:"is_active"`                  // 是否启用
	CreatedAt time.Time `gorm:"index" json:"created_at"`                              // 创建时间
	UpdatedAt time.Time `json:"updated_at"`                                           // 更新时间

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"` // 关联商品
}

// TableName 指定表名
func (SKU) TableName() string {
	return "skus"
}

// Tag 标签表
type Tag struct {
	ID   uint   `gorm:"primarykey" json:"id"`                              // 主键
	Name string `gorm:"type:varchar(80);uniqueIndex;not null" json:"name"` // 标签名
}

// TableName 指定表名
func (Tag) TableName() string {
	return "tags"
}

// SKUTag SKU 与标签关联表
type SKUTag struct {
	SKUID uint `gorm:"column:sku_id;primaryKey" json:"sku_id"` // SKU ID
	TagID uint `gorm:"primaryKey;index" json:"tag_id"`         // 标签ID
}

// TableName 指定表名
func (SKUTag) TableName() string {
	return "sku_tags"
}
