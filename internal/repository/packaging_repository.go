package repository

import (
	"errors"
	"strings"

	"github.com/stockledger/internal/models"

	"gorm.io/gorm"
)

// PackagingRepository 包装层级与组合数据访问接口
type PackagingRepository interface {
	GetByID(id uint) (*models.Packaging, error)
	ListBySKU(skuID uint) ([]models.Packaging, error)
	ListBySKUAndLevel(skuID uint, level string) ([]models.Packaging, error)
	ListCompositions(parentPackagingID uint) ([]models.PackagingComposition, error)
	Upsert(item *models.Packaging) error
	CreateComposition(item *models.PackagingComposition) error
	WithTx(tx *gorm.DB) PackagingRepository
}

// GormPackagingRepository GORM 实现
type GormPackagingRepository struct {
	db *gorm.DB
}

// NewPackagingRepository 创建包装仓库
func NewPackagingRepository(db *gorm.DB) *GormPackagingRepository {
	return &GormPackagingRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPackagingRepository) WithTx(tx *gorm.DB) PackagingRepository {
	if tx == nil {
		return r
	}
	return &GormPackagingRepository{db: tx}
}

// GetByID 根据 ID 获取包装
func (r *GormPackagingRepository) GetByID(id uint) (*models.Packaging, error) {
	if id == 0 {
		return nil, nil
	}
	var item models.Packaging
	if err := r.db.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// ListBySKU 获取 SKU 的全部包装行
func (r *GormPackagingRepository) ListBySKU(skuID uint) ([]models.Packaging, error) {
	if skuID == 0 {
		return []models.Packaging{}, nil
	}
	var items []models.Packaging
	if err := r.db.Where("sku_id = ?", skuID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ListBySKUAndLevel 获取 SKU 指定层级的包装行（历史数据可能存在多行）
func (r *GormPackagingRepository) ListBySKUAndLevel(skuID uint, level string) ([]models.Packaging, error) {
	level = strings.ToUpper(strings.TrimSpace(level))
	if skuID == 0 || level == "" {
		return []models.Packaging{}, nil
	}
	var items []models.Packaging
	if err := r.db.Where("sku_id = ? AND level = ?", skuID, level).
		Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ListCompositions 获取组合包装的成分行
func (r *GormPackagingRepository) ListCompositions(parentPackagingID uint) ([]models.PackagingComposition, error) {
	if parentPackagingID == 0 {
		return []models.PackagingComposition{}, nil
	}
	var items []models.PackagingComposition
	if err := r.db.Where("parent_packaging_id = ?", parentPackagingID).
		Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Upsert 按 (sku_id, level) 写入包装：已存在则更新最新一行，否则新建
func (r *GormPackagingRepository) Upsert(item *models.Packaging) error {
	if item == nil {
		return errors.New("packaging is nil")
	}
	if item.SKUID == 0 {
		return errors.New("invalid sku id")
	}
	item.Level = strings.ToUpper(strings.TrimSpace(item.Level))
	if item.MinSellMultiple <= 0 {
		item.MinSellMultiple = 1
	}
	var existing models.Packaging
	err := r.db.Where("sku_id = ? AND level = ?", item.SKUID, item.Level).
		Order("id DESC").
		First(&existing).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if err == nil {
		item.ID = existing.ID
		item.CreatedAt = existing.CreatedAt
		return r.db.Save(item).Error
	}
	return r.db.Create(item).Error
}

// CreateComposition 创建组合成分
func (r *GormPackagingRepository) CreateComposition(item *models.PackagingComposition) error {
	if item == nil {
		return errors.New("composition is nil")
	}
	return r.db.Create(item).Error
}
