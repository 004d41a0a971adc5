package service

import (
	"github.com/stockledger/internal/constants"
	"github.com/stockledger/internal/logger"
	"github.com/stockledger/internal/models"
	"github.com/stockledger/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CostingService 加权平均成本与现存量
type CostingService struct {
	costRepo     repository.CostRepository
	movementRepo repository.MovementRepository
	clock        Clock
}

// NewCostingService 创建成本服务
func NewCostingService(costRepo repository.CostRepository, movementRepo repository.MovementRepository, clock Clock) *CostingService {
	if clock == nil {
		clock = SystemClock{}
	}
	return &CostingService{
		costRepo:     costRepo,
		movementRepo: movementRepo,
		clock:        clock,
	}
}

// OnHand 现存量 = 流水明细带符号数量之和
func (s *CostingService) OnHand(tx *gorm.DB, skuID uint) (int64, error) {
	qty, err := s.movementRepo.WithTx(tx).SumQtyBySKU(skuID)
	if err != nil {
		return 0, storageError("sum on hand", err)
	}
	return qty, nil
}

// OnHandBySKUs 批量计算现存量，未出现的 SKU 为 0
func (s *CostingService) OnHandBySKUs(tx *gorm.DB, skuIDs []uint) (map[uint]int64, error) {
	if len(skuIDs) == 0 {
		return map[uint]int64{}, nil
	}
	sums, err := s.movementRepo.WithTx(tx).SumQtyBySKUs(skuIDs)
	if err != nil {
		return nil, storageError("sum on hand", err)
	}
	return sums, nil
}

// AverageCost 当前平均成本，无成本行时为 0
func (s *CostingService) AverageCost(tx *gorm.DB, skuID uint) (decimal.Decimal, error) {
	row, err := s.costRepo.WithTx(tx).GetBySKU(skuID)
	if err != nil {
		return decimal.Zero, storageError("get sku cost", err)
	}
	if row == nil {
		return decimal.Zero, nil
	}
	return row.AvgCost.Decimal, nil
}

// ApplyPurchase 以入库前库存加权更新平均成本，需在本次入库流水写入之前调用
func (s *CostingService) ApplyPurchase(tx *gorm.DB, skuID uint, qty int64, unitCost decimal.Decimal) error {
	if qty <= 0 {
		return nil
	}
	if unitCost.IsNegative() {
		return ErrInvalidCost
	}
	repo := s.costRepo.WithTx(tx)
	row, err := repo.GetBySKUForUpdate(skuID)
	if err != nil {
		return storageError("lock sku cost", err)
	}
	currentAvg := decimal.Zero
	if row != nil {
		currentAvg = row.AvgCost.Decimal
	}

	stockBefore, err := s.OnHand(tx, skuID)
	if err != nil {
		return err
	}
	if stockBefore < 0 {
		stockBefore = 0
	}
	newAvg := weightedAverage(stockBefore, currentAvg, qty, unitCost)

	if err := repo.Upsert(&models.SKUCost{
		SKUID:     skuID,
		AvgCost:   models.NewAmount(newAvg),
		UpdatedAt: s.clock.Now(),
	}); err != nil {
		return storageError("upsert sku cost", err)
	}
	logger.Debugw("costing_avg_updated",
		"sku_id", skuID,
		"stock_before", stockBefore,
		"qty", qty,
		"old_avg", currentAvg.String(),
		"new_avg", newAvg.String(),
	)
	return nil
}

// weightedAverage (stockBefore*avg + qty*cost) / max(stockBefore+qty, 1)，保留 CostScale 位
func weightedAverage(stockBefore int64, avg decimal.Decimal, qty int64, unitCost decimal.Decimal) decimal.Decimal {
	before := decimal.NewFromInt(stockBefore)
	incoming := decimal.NewFromInt(qty)
	denominator := before.Add(incoming)
	if denominator.LessThan(decimal.NewFromInt(1)) {
		denominator = decimal.NewFromInt(1)
	}
	total := before.Mul(avg).Add(incoming.Mul(unitCost))
	return total.DivRound(denominator, constants.CostScale+4).Round(constants.CostScale)
}

// cogsSnapshot 销售时点的单位成本与行成本（行成本保留 2 位）
func cogsSnapshot(avgCost decimal.Decimal, qty int64) (models.Amount, models.Money) {
	unit := models.NewAmount(avgCost)
	return unit, models.NewMoneyFromDecimal(unit.Decimal.Mul(decimal.NewFromInt(qty)))
}
