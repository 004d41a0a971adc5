package repository

import (
	"errors"

	"github.com/stockledger/internal/models"

	"gorm.io/gorm"
)

// MovementRepository 库存流水数据访问接口（仅追加）
type MovementRepository interface {
	CreateMovement(item *models.Movement) error
	CreateLine(item *models.MovementLine) error
	GetByID(id uint) (*models.Movement, error)
	SumQtyBySKU(skuID uint) (int64, error)
	SumQtyBySKUs(skuIDs []uint) (map[uint]int64, error)
	WithTx(tx *gorm.DB) MovementRepository
}

// GormMovementRepository GORM 实现
type GormMovementRepository struct {
	db *gorm.DB
}

// NewMovementRepository 创建流水仓库
func NewMovementRepository(db *gorm.DB) *GormMovementRepository {
	return &GormMovementRepository{db: db}
}

// WithTx 绑定事务
func (r *GormMovementRepository) WithTx(tx *gorm.DB) MovementRepository {
	if tx == nil {
		return r
	}
	return &GormMovementRepository{db: tx}
}

// CreateMovement 创建流水单头（不含明细）
func (r *GormMovementRepository) CreateMovement(item *models.Movement) error {
	if item == nil {
		return errors.New("movement is nil")
	}
	return r.db.Omit("Lines").Create(item).Error
}

// CreateLine 创建流水明细
func (r *GormMovementRepository) CreateLine(item *models.MovementLine) error {
	if item == nil {
		return errors.New("movement line is nil")
	}
	if item.MovementID == 0 {
		return errors.New("invalid movement id")
	}
	return r.db.Create(item).Error
}

// GetByID 获取流水及明细
func (r *GormMovementRepository) GetByID(id uint) (*models.Movement, error) {
	if id == 0 {
		return nil, nil
	}
	var item models.Movement
	if err := r.db.Preload("Lines", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	}).First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// SumQtyBySKU 汇总 SKU 的带符号流水数量
func (r *GormMovementRepository) SumQtyBySKU(skuID uint) (int64, error) {
	if skuID == 0 {
		return 0, nil
	}
	var total int64
	if err := r.db.Model(&models.MovementLine{}).
		Where("sku_id = ?", skuID).
		Select("COALESCE(SUM(qty_units), 0)").
		Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// SumQtyBySKUs 批量汇总，skuIDs 为空时汇总全部 SKU
func (r *GormMovementRepository) SumQtyBySKUs(skuIDs []uint) (map[uint]int64, error) {
	type sumRow struct {
		SKUID uint `gorm:"column:sku_id"`
		Total int64
	}
	query := r.db.Model(&models.MovementLine{}).
		Select("sku_id AS sku_id, COALESCE(SUM(qty_units), 0) AS total")
	if len(skuIDs) > 0 {
		query = query.Where("sku_id IN ?", skuIDs)
	}
	var rows []sumRow
	if err := query.Group("sku_id").Scan(&rows).Error; err != nil {
		return nil, err
	}
	result := make(map[uint]int64, len(rows))
	for _, row := range rows {
		result[row.SKUID] = row.Total
	}
	return result, nil
}
