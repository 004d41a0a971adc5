package repository

import (
	"errors"

	"github.com/stockledger/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CostRepository 成本、阈值与低库存告警数据访问接口
type CostRepository interface {
	GetBySKU(skuID uint) (*models.SKUCost, error)
	GetBySKUForUpdate(skuID uint) (*models.SKUCost, error)
	Upsert(item *models.SKUCost) error
	GetThreshold(skuID uint) (*models.SKUThreshold, error)
	UpsertThreshold(item *models.SKUThreshold) error
	CreateAlert(item *models.LowStockAlert) error
	GetLatestAlert(skuID uint) (*models.LowStockAlert, error)
	ListAlerts(filter LowStockAlertFilter) ([]models.LowStockAlert, int64, error)
	WithTx(tx *gorm.DB) CostRepository
}

// GormCostRepository GORM 实现
type GormCostRepository struct {
	db *gorm.DB
}

// NewCostRepository 创建成本仓库
func NewCostRepository(db *gorm.DB) *GormCostRepository {
	return &GormCostRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCostRepository) WithTx(tx *gorm.DB) CostRepository {
	if tx == nil {
		return r
	}
	return &GormCostRepository{db: tx}
}

// GetBySKU 获取 SKU 成本行
func (r *GormCostRepository) GetBySKU(skuID uint) (*models.SKUCost, error) {
	if skuID == 0 {
		return nil, nil
	}
	var item models.SKUCost
	if err := r.db.Where("sku_id = ?", skuID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// GetBySKUForUpdate 加锁获取 SKU 成本行
func (r *GormCostRepository) GetBySKUForUpdate(skuID uint) (*models.SKUCost, error) {
	if skuID == 0 {
		return nil, nil
	}
	var item models.SKUCost
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("sku_id = ?", skuID).
		First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// Upsert 写入 SKU 成本
func (r *GormCostRepository) Upsert(item *models.SKUCost) error {
	if item == nil || item.SKUID == 0 {
		return errors.New("invalid sku cost")
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "sku_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"avg_cost", "updated_at"}),
	}).Create(item).Error
}

// GetThreshold 获取 SKU 低库存阈值
func (r *GormCostRepository) GetThreshold(skuID uint) (*models.SKUThreshold, error) {
	if skuID == 0 {
		return nil, nil
	}
	var item models.SKUThreshold
	if err := r.db.Where("sku_id = ?", skuID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// UpsertThreshold 写入 SKU 低库存阈值
func (r *GormCostRepository) UpsertThreshold(item *models.SKUThreshold) error {
	if item == nil || item.SKUID == 0 {
		return errors.New("invalid sku threshold")
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "sku_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"min_units"}),
	}).Create(item).Error
}

// CreateAlert 追加低库存告警
func (r *GormCostRepository) CreateAlert(item *models.LowStockAlert) error {
	if item == nil {
		return errors.New("alert is nil")
	}
	return r.db.Create(item).Error
}

// GetLatestAlert 获取 SKU 最近一条告警
func (r *GormCostRepository) GetLatestAlert(skuID uint) (*models.LowStockAlert, error) {
	if skuID == 0 {
		return nil, nil
	}
	var item models.LowStockAlert
	if err := r.db.Where("sku_id = ?", skuID).Order("id DESC").First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// ListAlerts 分页获取低库存告警，按时间倒序
func (r *GormCostRepository) ListAlerts(filter LowStockAlertFilter) ([]models.LowStockAlert, int64, error) {
	query := r.db.Model(&models.LowStockAlert{})
	if filter.SKUID != 0 {
		query = query.Where("sku_id = ?", filter.SKUID)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []models.LowStockAlert
	if err := applyPagination(query, filter.Page, filter.PageSize).
		Order("id DESC").
		Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
