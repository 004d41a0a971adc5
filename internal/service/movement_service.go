package service

import (
	"time"

	"github.com/stockledger/internal/constants"
	"github.com/stockledger/internal/logger"
	"github.com/stockledger/internal/models"
	"github.com/stockledger/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MovementService 采购/销售记账，所有写入在调用方提供的事务内完成
type MovementService struct {
	catalogRepo  repository.CatalogRepository
	movementRepo repository.MovementRepository
	documentRepo repository.DocumentRepository
	packagingSvc *PackagingService
	costingSvc   *CostingService
	clock        Clock
}

// NewMovementService 创建记账服务
func NewMovementService(
	catalogRepo repository.CatalogRepository,
	movementRepo repository.MovementRepository,
	documentRepo repository.DocumentRepository,
	packagingSvc *PackagingService,
	costingSvc *CostingService,
	clock Clock,
) *MovementService {
	if clock == nil {
		clock = SystemClock{}
	}
	return &MovementService{
		catalogRepo:  catalogRepo,
		movementRepo: movementRepo,
		documentRepo: documentRepo,
		packagingSvc: packagingSvc,
		costingSvc:   costingSvc,
		clock:        clock,
	}
}

// PurchaseLineInput 采购行，Qty 为包装层级数量，UnitCost 为基础单位成本
type PurchaseLineInput struct {
	SKUID          uint
	PackagingLevel string
	Qty            decimal.Decimal
	Units          *int64 // 已换算的基础单位数量，非空时跳过换算
	UnitCost       decimal.Decimal
}

// PurchaseInput 采购单参数
type PurchaseInput struct {
	Ts       time.Time
	Supplier string
	Note     string
	Lines    []PurchaseLineInput
}

// SaleLineInput 销售行，UnitPrice 为基础单位售价
type SaleLineInput struct {
	SKUID          uint
	PackagingLevel string
	Qty            decimal.Decimal
	Units          *int64
	UnitPrice      decimal.Decimal
}

// SaleInput 销售单参数
type SaleInput struct {
	Ts       time.Time
	Customer string
	Lines    []SaleLineInput
}

// BundleSaleInput 组合包装销售参数，TotalPrice 为整单总价
type BundleSaleInput struct {
	Ts                time.Time
	Customer          string
	BundlePackagingID uint
	QtyBundles        decimal.Decimal
	TotalPrice        decimal.Decimal
}

// MixedPurchaseInput 混装箱采购参数，UnitCost 为每个基础单位的成本
type MixedPurchaseInput struct {
	Ts                time.Time
	Supplier          string
	ParentPackagingID uint
	QtyPacks          decimal.Decimal
	UnitCost          decimal.Decimal
}

// resolvedLine 换算完成的单据行
type resolvedLine struct {
	skuID    uint
	level    string
	qtyPacks decimal.NullDecimal
	units    int64
	price    decimal.Decimal
}

// RecordPurchase 记录采购：单头 + PURCHASE 流水 + 每行先更新平均成本再写明细
func (s *MovementService) RecordPurchase(tx *gorm.DB, input PurchaseInput) (*models.Purchase, error) {
	if len(input.Lines) == 0 {
		return nil, ErrEmptyLines
	}
	for i, line := range input.Lines {
		if line.Qty.IsNegative() || (line.Units != nil && *line.Units < 0) {
			return nil, lineError(i, line.SKUID, ErrInvalidQuantity)
		}
		if line.UnitCost.IsNegative() {
			return nil, lineError(i, line.SKUID, ErrInvalidCost)
		}
	}
	skuIDs := make([]uint, 0, len(input.Lines))
	for _, line := range input.Lines {
		skuIDs = append(skuIDs, line.SKUID)
	}
	if err := s.lockSKUs(tx, skuIDs); err != nil {
		return nil, err
	}

	lines := make([]resolvedLine, 0, len(input.Lines))
	incoming := make(map[uint]int64, len(input.Lines))
	total := decimal.Zero
	for i, line := range input.Lines {
		resolved, err := s.resolveLine(tx, line.SKUID, line.PackagingLevel, line.Qty, line.Units, line.UnitCost)
		if err != nil {
			return nil, lineError(i, line.SKUID, err)
		}
		if incoming[resolved.skuID], err = addUnits(incoming[resolved.skuID], resolved.units); err != nil {
			return nil, lineError(i, line.SKUID, err)
		}
		lines = append(lines, resolved)
		total = total.Add(resolved.price.Mul(decimal.NewFromInt(resolved.units)))
	}
	if err := s.checkStockCapacity(tx, incoming); err != nil {
		return nil, err
	}

	ts := resolveTimestamp(s.clock, input.Ts)
	movement, err := s.createMovement(tx, ts, constants.MovementTypePurchase, input.Note)
	if err != nil {
		return nil, err
	}
	docs := s.documentRepo.WithTx(tx)
	purchase := &models.Purchase{
		Ts:         ts,
		Supplier:   input.Supplier,
		Note:       input.Note,
		MovementID: movement.ID,
		TotalCost:  models.NewMoneyFromDecimal(total),
	}
	if err := docs.CreatePurchase(purchase); err != nil {
		return nil, storageError("create purchase", err)
	}

	for _, line := range lines {
		if err := s.costingSvc.ApplyPurchase(tx, line.skuID, line.units, line.price); err != nil {
			return nil, err
		}
		item := models.PurchaseLine{
			PurchaseID:     purchase.ID,
			SKUID:          line.skuID,
			QtyUnits:       line.units,
			UnitCost:       models.NewAmount(line.price),
			PackagingLevel: line.level,
			QtyPacks:       line.qtyPacks,
		}
		if err := docs.CreatePurchaseLine(&item); err != nil {
			return nil, storageError("create purchase line", err)
		}
		if err := s.createMovementLine(tx, movement.ID, line, line.units); err != nil {
			return nil, err
		}
		purchase.Lines = append(purchase.Lines, item)
	}

	logger.Infow("movement_purchase_recorded",
		"purchase_id", purchase.ID,
		"movement_id", movement.ID,
		"reference", movement.Reference,
		"lines", len(lines),
		"total_cost", purchase.TotalCost.String(),
	)
	return purchase, nil
}

// RecordSale 记录销售：先按 SKU 汇总需求并校验全部库存，任何不足整单拒绝，再写单据与流水
func (s *MovementService) RecordSale(tx *gorm.DB, input SaleInput) (*models.Sale, error) {
	if len(input.Lines) == 0 {
		return nil, ErrEmptyLines
	}
	for i, line := range input.Lines {
		if line.Qty.IsNegative() || (line.Units != nil && *line.Units < 0) {
			return nil, lineError(i, line.SKUID, ErrInvalidQuantity)
		}
		if line.UnitPrice.IsNegative() {
			return nil, lineError(i, line.SKUID, ErrInvalidPrice)
		}
	}
	skuIDs := make([]uint, 0, len(input.Lines))
	for _, line := range input.Lines {
		skuIDs = append(skuIDs, line.SKUID)
	}
	if err := s.lockSKUs(tx, skuIDs); err != nil {
		return nil, err
	}

	lines := make([]resolvedLine, 0, len(input.Lines))
	demand := make(map[uint]int64, len(input.Lines))
	order := make([]uint, 0, len(input.Lines))
	total := decimal.Zero
	for i, line := range input.Lines {
		resolved, err := s.resolveLine(tx, line.SKUID, line.PackagingLevel, line.Qty, line.Units, line.UnitPrice)
		if err != nil {
			return nil, lineError(i, line.SKUID, err)
		}
		lines = append(lines, resolved)
		if _, ok := demand[resolved.skuID]; !ok {
			order = append(order, resolved.skuID)
		}
		if demand[resolved.skuID], err = addUnits(demand[resolved.skuID], resolved.units); err != nil {
			return nil, lineError(i, line.SKUID, err)
		}
		total = total.Add(resolved.price.Mul(decimal.NewFromInt(resolved.units)))
	}

	onHand, err := s.costingSvc.OnHandBySKUs(tx, order)
	if err != nil {
		return nil, err
	}
	for _, skuID := range order {
		if demand[skuID] > onHand[skuID] {
			return nil, &InsufficientStockError{
				SKUID:     skuID,
				Available: onHand[skuID],
				Requested: demand[skuID],
			}
		}
	}

	avgCosts := make(map[uint]decimal.Decimal, len(order))
	for _, skuID := range order {
		avg, err := s.costingSvc.AverageCost(tx, skuID)
		if err != nil {
			return nil, err
		}
		avgCosts[skuID] = avg
	}

	ts := resolveTimestamp(s.clock, input.Ts)
	movement, err := s.createMovement(tx, ts, constants.MovementTypeSale, "")
	if err != nil {
		return nil, err
	}
	docs := s.documentRepo.WithTx(tx)
	sale := &models.Sale{
		Ts:          ts,
		Customer:    input.Customer,
		MovementID:  movement.ID,
		TotalAmount: models.NewMoneyFromDecimal(total),
	}
	if err := docs.CreateSale(sale); err != nil {
		return nil, storageError("create sale", err)
	}

	for _, line := range lines {
		cogsUnit, cogsTotal := cogsSnapshot(avgCosts[line.skuID], line.units)
		item := models.SaleLine{
			SaleID:         sale.ID,
			SKUID:          line.skuID,
			QtyUnits:       line.units,
			UnitPrice:      models.NewAmount(line.price),
			PackagingLevel: line.level,
			QtyPacks:       line.qtyPacks,
			CogsUnit:       cogsUnit,
			CogsTotal:      cogsTotal,
		}
		if err := docs.CreateSaleLine(&item); err != nil {
			return nil, storageError("create sale line", err)
		}
		if err := s.createMovementLine(tx, movement.ID, line, -line.units); err != nil {
			return nil, err
		}
		sale.Lines = append(sale.Lines, item)
	}

	logger.Infow("movement_sale_recorded",
		"sale_id", sale.ID,
		"movement_id", movement.ID,
		"reference", movement.Reference,
		"lines", len(lines),
		"total_amount", sale.TotalAmount.String(),
	)
	return sale, nil
}

// BuildBundleSaleLines 展开组合包装为销售行，每行使用相同的基础单位价格
func (s *MovementService) BuildBundleSaleLines(tx *gorm.DB, bundlePackagingID uint, qtyBundles decimal.Decimal, totalPrice decimal.Decimal) ([]SaleLineInput, error) {
	if qtyBundles.IsNegative() {
		return nil, ErrInvalidQuantity
	}
	if totalPrice.IsNegative() {
		return nil, ErrInvalidPrice
	}
	if _, err := s.packagingSvc.GetPackaging(tx, bundlePackagingID); err != nil {
		return nil, err
	}
	components, err := s.packagingSvc.ExpandComposition(tx, bundlePackagingID, qtyBundles)
	if err != nil {
		return nil, err
	}
	if len(components) == 0 {
		return nil, ErrNotABundle
	}
	var totalUnits int64
	for _, component := range components {
		if totalUnits, err = addUnits(totalUnits, component.QtyUnits); err != nil {
			return nil, err
		}
	}
	unitPrice := perUnitPrice(totalPrice, totalUnits)

	lines := make([]SaleLineInput, 0, len(components))
	for _, component := range components {
		units := component.QtyUnits
		lines = append(lines, SaleLineInput{
			SKUID:          component.SKUID,
			PackagingLevel: constants.PackagingLevelBundle,
			Qty:            qtyBundles,
			Units:          &units,
			UnitPrice:      unitPrice,
		})
	}
	return lines, nil
}

// RecordBundleSale 组合包装销售，展开后按普通销售记账
func (s *MovementService) RecordBundleSale(tx *gorm.DB, input BundleSaleInput) (*models.Sale, error) {
	lines, err := s.BuildBundleSaleLines(tx, input.BundlePackagingID, input.QtyBundles, input.TotalPrice)
	if err != nil {
		return nil, err
	}
	return s.RecordSale(tx, SaleInput{
		Ts:       input.Ts,
		Customer: input.Customer,
		Lines:    lines,
	})
}

// BuildMixedPurchaseLines 展开混装箱为成分 SKU 的采购行，成本按基础单位计
func (s *MovementService) BuildMixedPurchaseLines(tx *gorm.DB, parentPackagingID uint, qtyPacks decimal.Decimal, unitCost decimal.Decimal) ([]PurchaseLineInput, error) {
	if qtyPacks.IsNegative() {
		return nil, ErrInvalidQuantity
	}
	if unitCost.IsNegative() {
		return nil, ErrInvalidCost
	}
	parent, err := s.packagingSvc.GetPackaging(tx, parentPackagingID)
	if err != nil {
		return nil, err
	}
	components, err := s.packagingSvc.ExpandComposition(tx, parentPackagingID, qtyPacks)
	if err != nil {
		return nil, err
	}
	if len(components) == 0 {
		return nil, ErrNotABundle
	}
	level := normalizeLevel(parent.Level)
	lines := make([]PurchaseLineInput, 0, len(components))
	for _, component := range components {
		units := component.QtyUnits
		lines = append(lines, PurchaseLineInput{
			SKUID:          component.SKUID,
			PackagingLevel: level,
			Qty:            qtyPacks,
			Units:          &units,
			UnitCost:       unitCost,
		})
	}
	return lines, nil
}

// RecordMixedPurchase 混装箱采购
func (s *MovementService) RecordMixedPurchase(tx *gorm.DB, input MixedPurchaseInput) (*models.Purchase, error) {
	lines, err := s.BuildMixedPurchaseLines(tx, input.ParentPackagingID, input.QtyPacks, input.UnitCost)
	if err != nil {
		return nil, err
	}
	return s.RecordPurchase(tx, PurchaseInput{
		Ts:       input.Ts,
		Supplier: input.Supplier,
		Note:     constants.MixedPurchaseNote,
		Lines:    lines,
	})
}

// lockSKUs 按 ID 顺序锁定参与的 SKU 行，并确认全部存在
func (s *MovementService) lockSKUs(tx *gorm.DB, skuIDs []uint) error {
	locked, err := s.catalogRepo.WithTx(tx).LockSKUs(skuIDs)
	if err != nil {
		return storageError("lock skus", err)
	}
	found := make(map[uint]struct{}, len(locked))
	for _, sku := range locked {
		found[sku.ID] = struct{}{}
	}
	for i, skuID := range skuIDs {
		if _, ok := found[skuID]; !ok {
			return lineError(i, skuID, ErrSKUNotFound)
		}
	}
	return nil
}

// checkStockCapacity 入库后库存不得超出 int64 范围
func (s *MovementService) checkStockCapacity(tx *gorm.DB, incoming map[uint]int64) error {
	skuIDs := make([]uint, 0, len(incoming))
	for skuID := range incoming {
		skuIDs = append(skuIDs, skuID)
	}
	onHand, err := s.costingSvc.OnHandBySKUs(tx, skuIDs)
	if err != nil {
		return err
	}
	for _, skuID := range skuIDs {
		if _, err := addUnits(max(onHand[skuID], 0), incoming[skuID]); err != nil {
			return err
		}
	}
	return nil
}

func (s *MovementService) resolveLine(tx *gorm.DB, skuID uint, level string, qty decimal.Decimal, units *int64, price decimal.Decimal) (resolvedLine, error) {
	line := resolvedLine{
		skuID:    skuID,
		level:    normalizeLevel(level),
		qtyPacks: decimal.NewNullDecimal(qty),
		price:    price.Round(constants.CostScale),
	}
	if units != nil {
		line.units = *units
		return line, nil
	}
	converted, err := s.packagingSvc.ToBaseUnits(tx, skuID, line.level, qty)
	if err != nil {
		return resolvedLine{}, err
	}
	line.units = converted
	return line, nil
}

func (s *MovementService) createMovement(tx *gorm.DB, ts time.Time, movementType string, note string) (*models.Movement, error) {
	movement := &models.Movement{
		Ts:        ts,
		Type:      movementType,
		Reference: constants.MovementReferenceApp + ":" + uuid.NewString(),
		Note:      note,
	}
	if err := s.movementRepo.WithTx(tx).CreateMovement(movement); err != nil {
		return nil, storageError("create movement", err)
	}
	return movement, nil
}

func (s *MovementService) createMovementLine(tx *gorm.DB, movementID uint, line resolvedLine, signedUnits int64) error {
	item := &models.MovementLine{
		MovementID:     movementID,
		SKUID:          line.skuID,
		QtyUnits:       signedUnits,
		PackagingLevel: line.level,
		QtyPacks:       line.qtyPacks,
		UnitPrice:      models.NewAmount(line.price),
	}
	if err := s.movementRepo.WithTx(tx).CreateLine(item); err != nil {
		return storageError("create movement line", err)
	}
	return nil
}

// perUnitPrice 总价 / max(总单位数, 1)，保留 CostScale 位
func perUnitPrice(totalPrice decimal.Decimal, totalUnits int64) decimal.Decimal {
	if totalUnits < 1 {
		totalUnits = 1
	}
	return totalPrice.DivRound(decimal.NewFromInt(totalUnits), constants.CostScale)
}
