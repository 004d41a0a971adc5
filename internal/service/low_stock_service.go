package service

import (
	"github.com/stockledger/internal/constants"
	"github.com/stockledger/internal/logger"
	"github.com/stockledger/internal/models"
	"github.com/stockledger/internal/repository"

	"gorm.io/gorm"
)

// LowStockService 低库存阈值与告警
type LowStockService struct {
	catalogRepo repository.CatalogRepository
	costRepo    repository.CostRepository
	costingSvc  *CostingService
	defaultMin  int64
}

// NewLowStockService 创建低库存服务
func NewLowStockService(catalogRepo repository.CatalogRepository, costRepo repository.CostRepository, costingSvc *CostingService, defaultMin int64) *LowStockService {
	if defaultMin < 0 {
		defaultMin = constants.DefaultLowStockMinUnits
	}
	return &LowStockService{
		catalogRepo: catalogRepo,
		costRepo:    costRepo,
		costingSvc:  costingSvc,
		defaultMin:  defaultMin,
	}
}

// SetThreshold 设置 SKU 低库存阈值
func (s *LowStockService) SetThreshold(tx *gorm.DB, skuID uint, minUnits int64) error {
	if minUnits < 0 {
		return ErrInvalidQuantity
	}
	sku, err := s.catalogRepo.WithTx(tx).GetSKU(skuID)
	if err != nil {
		return storageError("get sku", err)
	}
	if sku == nil {
		return ErrSKUNotFound
	}
	if err := s.costRepo.WithTx(tx).UpsertThreshold(&models.SKUThreshold{SKUID: skuID, MinUnits: minUnits}); err != nil {
		return storageError("upsert threshold", err)
	}
	return nil
}

// Threshold 返回 SKU 生效的阈值
func (s *LowStockService) Threshold(tx *gorm.DB, skuID uint) (int64, error) {
	row, err := s.costRepo.WithTx(tx).GetThreshold(skuID)
	if err != nil {
		return 0, storageError("get threshold", err)
	}
	if row == nil {
		return s.defaultMin, nil
	}
	return row.MinUnits, nil
}

// Evaluate 检查指定 SKU，低于阈值时追加告警；与最近一条告警状态相同则跳过
func (s *LowStockService) Evaluate(tx *gorm.DB, skuIDs []uint, source string) ([]models.LowStockAlert, error) {
	if len(skuIDs) == 0 {
		return nil, nil
	}
	onHand, err := s.costingSvc.OnHandBySKUs(tx, skuIDs)
	if err != nil {
		return nil, err
	}
	repo := s.costRepo.WithTx(tx)
	created := make([]models.LowStockAlert, 0)
	for _, skuID := range skuIDs {
		minUnits, err := s.Threshold(tx, skuID)
		if err != nil {
			return nil, err
		}
		current := onHand[skuID]
		if !isLowStock(current, minUnits) {
			continue
		}
		latest, err := repo.GetLatestAlert(skuID)
		if err != nil {
			return nil, storageError("get latest alert", err)
		}
		if latest != nil && latest.OnHand == current && latest.MinUnits == minUnits {
			continue
		}
		alert := models.LowStockAlert{
			SKUID:    skuID,
			OnHand:   current,
			MinUnits: minUnits,
			Source:   source,
		}
		if err := repo.CreateAlert(&alert); err != nil {
			return nil, storageError("create alert", err)
		}
		created = append(created, alert)
	}
	if len(created) > 0 {
		logger.Infow("low_stock_alerts_created", "source", source, "count", len(created))
	}
	return created, nil
}

// ScanAll 检查全部启用 SKU
func (s *LowStockService) ScanAll(tx *gorm.DB) ([]models.LowStockAlert, error) {
	ids, err := s.catalogRepo.WithTx(tx).ListActiveSKUIDs()
	if err != nil {
		return nil, storageError("list active skus", err)
	}
	return s.Evaluate(tx, ids, constants.LowStockSourceScan)
}

// ListAlerts 分页查询告警
func (s *LowStockService) ListAlerts(tx *gorm.DB, filter repository.LowStockAlertFilter) ([]models.LowStockAlert, int64, error) {
	items, total, err := s.costRepo.WithTx(tx).ListAlerts(filter)
	if err != nil {
		return nil, 0, storageError("list alerts", err)
	}
	return items, total, nil
}
