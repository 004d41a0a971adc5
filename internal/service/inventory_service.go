package service

import (
	"context"

	"github.com/stockledger/internal/cache"
	"github.com/stockledger/internal/constants"
	"github.com/stockledger/internal/logger"
	"github.com/stockledger/internal/models"
	"github.com/stockledger/internal/queue"
	"github.com/stockledger/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InventoryService 库存核心的事务边界
// 说明：每次调用开启一个事务，提交后再执行缓存失效与低库存任务投递。
type InventoryService struct {
	db           *gorm.DB
	catalogRepo  repository.CatalogRepository
	documentRepo repository.DocumentRepository
	packagingSvc *PackagingService
	attributeSvc *AttributeService
	costingSvc   *CostingService
	movementSvc  *MovementService
	lowStockSvc  *LowStockService
	queueClient  *queue.Client
	checkOnSale  bool
}

// InventoryServiceOptions 事务边界依赖
type InventoryServiceOptions struct {
	DB                  *gorm.DB
	CatalogRepo         repository.CatalogRepository
	DocumentRepo        repository.DocumentRepository
	PackagingService    *PackagingService
	AttributeService    *AttributeService
	CostingService      *CostingService
	MovementService     *MovementService
	LowStockService     *LowStockService
	QueueClient         *queue.Client
	LowStockCheckOnSale bool
}

// NewInventoryService 创建库存事务边界
func NewInventoryService(opts InventoryServiceOptions) *InventoryService {
	return &InventoryService{
		db:           opts.DB,
		catalogRepo:  opts.CatalogRepo,
		documentRepo: opts.DocumentRepo,
		packagingSvc: opts.PackagingService,
		attributeSvc: opts.AttributeService,
		costingSvc:   opts.CostingService,
		movementSvc:  opts.MovementService,
		lowStockSvc:  opts.LowStockService,
		queueClient:  opts.QueueClient,
		checkOnSale:  opts.LowStockCheckOnSale,
	}
}

// SKUStock SKU 库存概览
type SKUStock struct {
	SKUID      uint                      `json:"sku_id"`
	Code       string                    `json:"code"`
	Variant    string                    `json:"variant"`
	IsActive   bool                      `json:"is_active"`
	OnHand     int64                     `json:"on_hand"`
	AvgCost    models.Amount             `json:"avg_cost"`
	Value      models.Money              `json:"value"`
	MinUnits   int64                     `json:"min_units"`
	Tags       []string                  `json:"tags"`
	Attributes map[string]AttributeValue `json:"attributes"`
}

// RecordPurchase 记录采购
func (s *InventoryService) RecordPurchase(ctx context.Context, input PurchaseInput) (*models.Purchase, error) {
	var purchase *models.Purchase
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		purchase, err = s.movementSvc.RecordPurchase(tx, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.afterStockWrite(ctx)
	return purchase, nil
}

// RecordMixedPurchase 记录混装箱采购
func (s *InventoryService) RecordMixedPurchase(ctx context.Context, input MixedPurchaseInput) (*models.Purchase, error) {
	var purchase *models.Purchase
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		purchase, err = s.movementSvc.RecordMixedPurchase(tx, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.afterStockWrite(ctx)
	return purchase, nil
}

// RecordSale 记录销售
func (s *InventoryService) RecordSale(ctx context.Context, input SaleInput) (*models.Sale, error) {
	var sale *models.Sale
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		sale, err = s.movementSvc.RecordSale(tx, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.afterStockWrite(ctx)
	s.afterSale(ctx, sale)
	return sale, nil
}

// RecordBundleSale 记录组合包装销售
func (s *InventoryService) RecordBundleSale(ctx context.Context, input BundleSaleInput) (*models.Sale, error) {
	var sale *models.Sale
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		sale, err = s.movementSvc.RecordBundleSale(tx, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.afterStockWrite(ctx)
	s.afterSale(ctx, sale)
	return sale, nil
}

// GetPurchase 获取采购单
func (s *InventoryService) GetPurchase(ctx context.Context, id uint) (*models.Purchase, error) {
	item, err := s.documentRepo.WithTx(s.db.WithContext(ctx)).GetPurchaseByID(id)
	if err != nil {
		return nil, storageError("get purchase", err)
	}
	if item == nil {
		return nil, ErrDocumentNotFound
	}
	return item, nil
}

// GetSale 获取销售单
func (s *InventoryService) GetSale(ctx context.Context, id uint) (*models.Sale, error) {
	item, err := s.documentRepo.WithTx(s.db.WithContext(ctx)).GetSaleByID(id)
	if err != nil {
		return nil, storageError("get sale", err)
	}
	if item == nil {
		return nil, ErrDocumentNotFound
	}
	return item, nil
}

// SKUStock 查询 SKU 现存量、成本、标签与属性
func (s *InventoryService) SKUStock(ctx context.Context, skuID uint) (*SKUStock, error) {
	tx := s.db.WithContext(ctx)
	catalog := s.catalogRepo.WithTx(tx)
	sku, err := catalog.GetSKU(skuID)
	if err != nil {
		return nil, storageError("get sku", err)
	}
	if sku == nil {
		return nil, ErrSKUNotFound
	}
	onHand, err := s.costingSvc.OnHand(tx, skuID)
	if err != nil {
		return nil, err
	}
	avg, err := s.costingSvc.AverageCost(tx, skuID)
	if err != nil {
		return nil, err
	}
	minUnits, err := s.lowStockSvc.Threshold(tx, skuID)
	if err != nil {
		return nil, err
	}
	tags, err := catalog.ListTagNamesBySKU(skuID)
	if err != nil {
		return nil, storageError("list sku tags", err)
	}
	attrs, err := s.attributeSvc.GetSKUAttributes(tx, skuID)
	if err != nil {
		return nil, err
	}
	return &SKUStock{
		SKUID:      sku.ID,
		Code:       sku.Code,
		Variant:    sku.Variant,
		IsActive:   sku.IsActive,
		OnHand:     onHand,
		AvgCost:    models.NewAmount(avg),
		Value:      models.NewMoneyFromDecimal(avg.Mul(decimal.NewFromInt(onHand))),
		MinUnits:   minUnits,
		Tags:       tags,
		Attributes: attrs,
	}, nil
}

// EnsureAttribute 登记属性定义
func (s *InventoryService) EnsureAttribute(ctx context.Context, spec AttributeSpec) (uint, error) {
	var id uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		id, err = s.attributeSvc.EnsureAttribute(tx, spec)
		return err
	})
	return id, err
}

// AddAttributeRule 追加属性规则
func (s *InventoryService) AddAttributeRule(ctx context.Context, spec AttributeRuleSpec) (*models.AttributeRule, error) {
	var rule *models.AttributeRule
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		rule, err = s.attributeSvc.AddRule(tx, spec)
		return err
	})
	return rule, err
}

// SetAttributeValue 写入 SKU 属性值
func (s *InventoryService) SetAttributeValue(ctx context.Context, skuID uint, code, raw, unitCode string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.attributeSvc.SetAttributeValue(tx, skuID, code, raw, unitCode)
	})
}

// SetSKUTags 替换 SKU 标签
func (s *InventoryService) SetSKUTags(ctx context.Context, skuID uint, names []string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.attributeSvc.SetSKUTags(tx, skuID, names)
	})
}

// ValidateSKU 校验包装规则与属性规则，只读
func (s *InventoryService) ValidateSKU(ctx context.Context, skuID uint) error {
	tx := s.db.WithContext(ctx)
	sku, err := s.catalogRepo.WithTx(tx).GetSKU(skuID)
	if err != nil {
		return storageError("get sku", err)
	}
	if sku == nil {
		return ErrSKUNotFound
	}
	if err := s.packagingSvc.ValidatePackagingRules(tx, skuID); err != nil {
		return err
	}
	return s.attributeSvc.ValidateSKU(tx, skuID)
}

// RegisterPackaging 写入包装层级
func (s *InventoryService) RegisterPackaging(ctx context.Context, item *models.Packaging) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.packagingSvc.RegisterPackaging(tx, item)
	})
}

// AddComposition 追加组合成分
func (s *InventoryService) AddComposition(ctx context.Context, parentPackagingID, childSKUID uint, qtyUnits decimal.Decimal) (*models.PackagingComposition, error) {
	var item *models.PackagingComposition
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		item, err = s.packagingSvc.AddComposition(tx, parentPackagingID, childSKUID, qtyUnits)
		return err
	})
	return item, err
}

// CompositionSKUIDs 返回组合包装包含的成分 SKU
func (s *InventoryService) CompositionSKUIDs(ctx context.Context, parentPackagingID uint) ([]uint, error) {
	components, err := s.packagingSvc.ExpandComposition(s.db.WithContext(ctx), parentPackagingID, decimal.NewFromInt(1))
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(components))
	for _, component := range components {
		ids = append(ids, component.SKUID)
	}
	return ids, nil
}

// SetThreshold 设置低库存阈值
func (s *InventoryService) SetThreshold(ctx context.Context, skuID uint, minUnits int64) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.lowStockSvc.SetThreshold(tx, skuID, minUnits)
	})
	if err != nil {
		return err
	}
	s.invalidateReports(ctx)
	return nil
}

// CheckLowStock 检查指定 SKU 并追加告警
func (s *InventoryService) CheckLowStock(ctx context.Context, skuIDs []uint, source string) ([]models.LowStockAlert, error) {
	var alerts []models.LowStockAlert
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		alerts, err = s.lowStockSvc.Evaluate(tx, skuIDs, source)
		return err
	})
	return alerts, err
}

// ScanLowStock 全量检查
func (s *InventoryService) ScanLowStock(ctx context.Context) ([]models.LowStockAlert, error) {
	var alerts []models.LowStockAlert
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		alerts, err = s.lowStockSvc.ScanAll(tx)
		return err
	})
	return alerts, err
}

// ListLowStockAlerts 分页查询低库存告警
func (s *InventoryService) ListLowStockAlerts(ctx context.Context, filter repository.LowStockAlertFilter) ([]models.LowStockAlert, int64, error) {
	return s.lowStockSvc.ListAlerts(s.db.WithContext(ctx), filter)
}

func (s *InventoryService) afterStockWrite(ctx context.Context) {
	s.invalidateReports(ctx)
}

func (s *InventoryService) invalidateReports(ctx context.Context) {
	if err := cache.Del(ctx, cache.StockWriteKeys()...); err != nil {
		logger.Warnw("inventory_report_cache_invalidate_failed", "error", err)
	}
}

// afterSale 投递低库存检查；队列未启用时同步检查，失败只记录日志
func (s *InventoryService) afterSale(ctx context.Context, sale *models.Sale) {
	if !s.checkOnSale || sale == nil || s.lowStockSvc == nil {
		return
	}
	skuIDs := saleSKUIDs(sale)
	if s.queueClient.Enabled() {
		if err := s.queueClient.EnqueueLowStockCheck(queue.LowStockCheckPayload{SKUIDs: skuIDs, SaleID: sale.ID}); err != nil {
			logger.Warnw("inventory_low_stock_enqueue_failed", "sale_id", sale.ID, "error", err)
		}
		return
	}
	if _, err := s.CheckLowStock(ctx, skuIDs, constants.LowStockSourceSale); err != nil {
		logger.Warnw("inventory_low_stock_check_failed", "sale_id", sale.ID, "error", err)
	}
}

func saleSKUIDs(sale *models.Sale) []uint {
	seen := make(map[uint]struct{}, len(sale.Lines))
	ids := make([]uint, 0, len(sale.Lines))
	for _, line := range sale.Lines {
		if _, ok := seen[line.SKUID]; ok {
			continue
		}
		seen[line.SKUID] = struct{}{}
		ids = append(ids, line.SKUID)
	}
	return ids
}
