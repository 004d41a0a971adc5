package repository

import (
	"errors"
	"sort"
	"strings"

	"github.com/stockledger/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CatalogRepository 商品目录数据访问接口
// 说明：库存核心只读目录数据，创建接口供种子数据与测试使用。
type CatalogRepository interface {
	GetSKU(id uint) (*models.SKU, error)
	GetSKUWithProduct(id uint) (*models.SKU, error)
	GetSKUByCode(code string) (*models.SKU, error)
	ListSKUsByIDs(ids []uint) ([]models.SKU, error)
	ListActiveSKUIDs() ([]uint, error)
	LockSKUs(ids []uint) ([]models.SKU, error)
	GetUOMByCode(code string) (*models.UnitOfMeasure, error)
	GetUOMByID(id uint) (*models.UnitOfMeasure, error)
	GetTagByName(name string) (*models.Tag, error)
	ListTagIDsBySKU(skuID uint) ([]uint, error)
	ListTagNamesBySKU(skuID uint) ([]string, error)
	EnsureTag(name string) (*models.Tag, error)
	ReplaceSKUTags(skuID uint, tagIDs []uint) error
	CreateUOM(item *models.UnitOfMeasure) error
	CreateCategory(item *models.Category) error
	CreateBrand(item *models.Brand) error
	CreateProduct(item *models.Product) error
	CreateSKU(item *models.SKU) error
	WithTx(tx *gorm.DB) CatalogRepository
}

// GormCatalogRepository GORM 实现
type GormCatalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository 创建目录仓库
func NewCatalogRepository(db *gorm.DB) *GormCatalogRepository {
	return &GormCatalogRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCatalogRepository) WithTx(tx *gorm.DB) CatalogRepository {
	if tx == nil {
		return r
	}
	return &GormCatalogRepository{db: tx}
}

// GetSKU 根据 ID 获取 SKU
func (r *GormCatalogRepository) GetSKU(id uint) (*models.SKU, error) {
	if id == 0 {
		return nil, errors.New("invalid sku id")
	}
	var item models.SKU
	if err := r.db.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// GetSKUWithProduct 获取 SKU 并预加载商品
func (r *GormCatalogRepository) GetSKUWithProduct(id uint) (*models.SKU, error) {
	if id == 0 {
		return nil, errors.New("invalid sku id")
	}
	var item models.SKU
	if err := r.db.Preload("Product").First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// GetSKUByCode 根据编码获取 SKU
func (r *GormCatalogRepository) GetSKUByCode(code string) (*models.SKU, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, errors.New("invalid sku code")
	}
	var item models.SKU
	if err := r.db.Where("code = ?", code).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// ListSKUsByIDs 批量获取 SKU
func (r *GormCatalogRepository) ListSKUsByIDs(ids []uint) ([]models.SKU, error) {
	if len(ids) == 0 {
		return []models.SKU{}, nil
	}
	var items []models.SKU
	if err := r.db.Where("id IN ?", ids).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ListActiveSKUIDs 获取全部启用 SKU 的 ID
func (r *GormCatalogRepository) ListActiveSKUIDs() ([]uint, error) {
	var ids []uint
	if err := r.db.Model(&models.SKU{}).
		Where("is_active = ?", true).
		Order("id ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// LockSKUs 按 ID 升序对 SKU 行加锁，返回实际存在的行
func (r *GormCatalogRepository) LockSKUs(ids []uint) ([]models.SKU, error) {
	unique := uniqueSortedIDs(ids)
	if len(unique) == 0 {
		return []models.SKU{}, nil
	}
	var items []models.SKU
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", unique).
		Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// GetUOMByCode 根据编码获取计量单位
func (r *GormCatalogRepository) GetUOMByCode(code string) (*models.UnitOfMeasure, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	var item models.UnitOfMeasure
	if err := r.db.Where("code = ?", code).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// GetUOMByID 根据 ID 获取计量单位
func (r *GormCatalogRepository) GetUOMByID(id uint) (*models.UnitOfMeasure, error) {
	if id == 0 {
		return nil, nil
	}
	var item models.UnitOfMeasure
	if err := r.db.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// GetTagByName 根据名称获取标签
func (r *GormCatalogRepository) GetTagByName(name string) (*models.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	var item models.Tag
	if err := r.db.Where("name = ?", name).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// ListTagIDsBySKU 获取 SKU 的标签 ID
func (r *GormCatalogRepository) ListTagIDsBySKU(skuID uint) ([]uint, error) {
	if skuID == 0 {
		return []uint{}, nil
	}
	var ids []uint
	if err := r.db.Model(&models.SKUTag{}).
		Where("sku_id = ?", skuID).
		Order("tag_id ASC").
		Pluck("tag_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// ListTagNamesBySKU 获取 SKU 的标签名
func (r *GormCatalogRepository) ListTagNamesBySKU(skuID uint) ([]string, error) {
	if skuID == 0 {
		return []string{}, nil
	}
	var names []string
	if err := r.db.Model(&models.Tag{}).
		Joins("JOIN sku_tags ON sku_tags.tag_id = tags.id").
		Where("sku_tags.sku_id = ?", skuID).
		Order("tags.name ASC").
		Pluck("tags.name", &names).Error; err != nil {
		return nil, err
	}
	return names, nil
}

// EnsureTag 按名称获取标签，不存在时创建
func (r *GormCatalogRepository) EnsureTag(name string) (*models.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("invalid tag name")
	}
	if err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&models.Tag{Name: name}).Error; err != nil {
		return nil, err
	}
	return r.GetTagByName(name)
}

// ReplaceSKUTags 整体替换 SKU 的标签集合
func (r *GormCatalogRepository) ReplaceSKUTags(skuID uint, tagIDs []uint) error {
	if skuID == 0 {
		return errors.New("invalid sku id")
	}
	if err := r.db.Where("sku_id = ?", skuID).Delete(&models.SKUTag{}).Error; err != nil {
		return err
	}
	unique := uniqueSortedIDs(tagIDs)
	if len(unique) == 0 {
		return nil
	}
	rows := make([]models.SKUTag, 0, len(unique))
	for _, tagID := range unique {
		rows = append(rows, models.SKUTag{SKUID: skuID, TagID: tagID})
	}
	return r.db.Create(&rows).Error
}

// CreateUOM 创建计量单位
func (r *GormCatalogRepository) CreateUOM(item *models.UnitOfMeasure) error {
	if item == nil {
		return errors.New("uom is nil")
	}
	return r.db.Create(item).Error
}

// CreateCategory 创建分类
func (r *GormCatalogRepository) CreateCategory(item *models.Category) error {
	if item == nil {
		return errors.New("category is nil")
	}
	return r.db.Create(item).Error
}

// CreateBrand 创建品牌
func (r *GormCatalogRepository) CreateBrand(item *models.Brand) error {
	if item == nil {
		return errors.New("brand is nil")
	}
	return r.db.Create(item).Error
}

// CreateProduct 创建商品
func (r *GormCatalogRepository) CreateProduct(item *models.Product) error {
	if item == nil {
		return errors.New("product is nil")
	}
	return r.db.Create(item).Error
}

// CreateSKU 创建 SKU
func (r *GormCatalogRepository) CreateSKU(item *models.SKU) error {
	if item == nil {
		return errors.New("sku is nil")
	}
	return r.db.Create(item).Error
}

func uniqueSortedIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	result := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}
