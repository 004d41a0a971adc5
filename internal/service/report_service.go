package service

import (
	"context"
	"time"

	"github.com/stockledger/internal/cache"
	"github.com/stockledger/internal/constants"
	"github.com/stockledger/internal/models"
	"github.com/stockledger/internal/repository"

	"github.com/shopspring/decimal"
)

// ReportService 库存报表
// 说明：只读聚合，结果按配置写入 Redis 缓存，库存写入后由 InventoryService 失效。
type ReportService struct {
	repo       repository.ReportRepository
	defaultMin int64
	cacheTTL   time.Duration
	clock      Clock
}

// NewReportService 创建报表服务
func NewReportService(repo repository.ReportRepository, defaultMin int64, cacheTTL time.Duration, clock Clock) *ReportService {
	if defaultMin < 0 {
		defaultMin = constants.DefaultLowStockMinUnits
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &ReportService{
		repo:       repo,
		defaultMin: defaultMin,
		cacheTTL:   cacheTTL,
		clock:      clock,
	}
}

// ReportQueryInput 报表查询输入
type ReportQueryInput struct {
	From         *time.Time
	To           *time.Time
	Granularity  string
	Limit        int
	ForceRefresh bool
}

// ValuationItem 单个 SKU 估值
type ValuationItem struct {
	SKUID   uint          `json:"sku_id"`
	Code    string        `json:"code"`
	OnHand  int64         `json:"on_hand"`
	AvgCost models.Amount `json:"avg_cost"`
	Value   models.Money  `json:"value"`
}

// ValuationReport 库存估值报表
type ValuationReport struct {
	Items       []ValuationItem `json:"items"`
	TotalValue  models.Money    `json:"total_value"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// SalesSummaryPoint 销售汇总时间桶
type SalesSummaryPoint struct {
	Period     string       `json:"period"`
	SalesCount int64        `json:"sales_count"`
	Units      int64        `json:"units"`
	Revenue    models.Money `json:"revenue"`
	Cogs       models.Money `json:"cogs"`
	Margin     models.Money `json:"margin"`
}

// SalesSummaryReport 销售汇总报表
type SalesSummaryReport struct {
	Granularity string              `json:"granularity"`
	Points      []SalesSummaryPoint `json:"points"`
	Revenue     models.Money        `json:"revenue"`
	Cogs        models.Money        `json:"cogs"`
	Margin      models.Money        `json:"margin"`
}

// TopProductItem 热销排行项
type TopProductItem struct {
	SKUID   uint         `json:"sku_id"`
	Code    string       `json:"code"`
	Units   int64        `json:"units"`
	Revenue models.Money `json:"revenue"`
	Cogs    models.Money `json:"cogs"`
	Margin  models.Money `json:"margin"`
}

// LowStockItem 低库存项
type LowStockItem struct {
	SKUID    uint   `json:"sku_id"`
	Code     string `json:"code"`
	OnHand   int64  `json:"on_hand"`
	MinUnits int64  `json:"min_units"`
	Shortage int64  `json:"shortage"`
}

// Valuation 库存估值 = 现存量 × 平均成本
func (s *ReportService) Valuation(ctx context.Context, input ReportQueryInput) (*ValuationReport, error) {
	if !input.ForceRefresh {
		var cached ValuationReport
		hit, cacheErr := cache.GetJSON(ctx, cache.ReportValuationKey, &cached)
		if cacheErr == nil && hit {
			return &cached, nil
		}
	}
	rows, err := s.repo.GetValuationRows()
	if err != nil {
		return nil, storageError("valuation rows", err)
	}
	report := &ValuationReport{
		Items:       make([]ValuationItem, 0, len(rows)),
		GeneratedAt: s.clock.Now(),
	}
	total := decimal.Zero
	for _, row := range rows {
		value := row.AvgCost.Decimal.Mul(decimal.NewFromInt(row.OnHand))
		total = total.Add(value)
		report.Items = append(report.Items, ValuationItem{
			SKUID:   row.SKUID,
			Code:    row.Code,
			OnHand:  row.OnHand,
			AvgCost: row.AvgCost,
			Value:   models.NewMoneyFromDecimal(value),
		})
	}
	report.TotalValue = models.NewMoneyFromDecimal(total)
	s.store(ctx, cache.ReportValuationKey, report)
	return report, nil
}

// SalesSummary 按日/周/月汇总销售额、成本与毛利
func (s *ReportService) SalesSummary(ctx context.Context, input ReportQueryInput) (*SalesSummaryReport, error) {
	granularity := normalizeReportGranularity(input.Granularity)
	key := cache.ReportSalesKey(granularity, input.From, input.To)
	if !input.ForceRefresh {
		var cached SalesSummaryReport
		hit, cacheErr := cache.GetJSON(ctx, key, &cached)
		if cacheErr == nil && hit {
			return &cached, nil
		}
	}
	rows, err := s.repo.GetSalesSummary(repository.SalesReportFilter{
		From:        input.From,
		To:          input.To,
		Granularity: granularity,
	})
	if err != nil {
		return nil, storageError("sales summary", err)
	}
	report := &SalesSummaryReport{
		Granularity: granularity,
		Points:      make([]SalesSummaryPoint, 0, len(rows)),
	}
	revenue, cogs := decimal.Zero, decimal.Zero
	for _, row := range rows {
		revenue = revenue.Add(row.Revenue.Decimal)
		cogs = cogs.Add(row.Cogs.Decimal)
		report.Points = append(report.Points, SalesSummaryPoint{
			Period:     row.Period,
			SalesCount: row.SalesCount,
			Units:      row.Units,
			Revenue:    row.Revenue,
			Cogs:       row.Cogs,
			Margin:     models.NewMoneyFromDecimal(row.Revenue.Decimal.Sub(row.Cogs.Decimal)),
		})
	}
	report.Revenue = models.NewMoneyFromDecimal(revenue)
	report.Cogs = models.NewMoneyFromDecimal(cogs)
	report.Margin = models.NewMoneyFromDecimal(revenue.Sub(cogs))
	s.store(ctx, key, report)
	return report, nil
}

// TopProducts 按销售额排序的 SKU 排行
func (s *ReportService) TopProducts(ctx context.Context, input ReportQueryInput) ([]TopProductItem, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	key := cache.ReportTopProductsKey(limit, input.From, input.To)
	if !input.ForceRefresh {
		var cached []TopProductItem
		hit, cacheErr := cache.GetJSON(ctx, key, &cached)
		if cacheErr == nil && hit {
			return cached, nil
		}
	}
	rows, err := s.repo.GetTopProducts(repository.TopProductsFilter{
		From:  input.From,
		To:    input.To,
		Limit: limit,
	})
	if err != nil {
		return nil, storageError("top products", err)
	}
	items := make([]TopProductItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, TopProductItem{
			SKUID:   row.SKUID,
			Code:    row.Code,
			Units:   row.Units,
			Revenue: row.Revenue,
			Cogs:    row.Cogs,
			Margin:  models.NewMoneyFromDecimal(row.Revenue.Decimal.Sub(row.Cogs.Decimal)),
		})
	}
	s.store(ctx, key, items)
	return items, nil
}

// LowStock 现存量不高于阈值的 SKU，未设置阈值时使用默认值
func (s *ReportService) LowStock(ctx context.Context, input ReportQueryInput) ([]LowStockItem, error) {
	if !input.ForceRefresh {
		var cached []LowStockItem
		hit, cacheErr := cache.GetJSON(ctx, cache.ReportLowStockKey, &cached)
		if cacheErr == nil && hit {
			return cached, nil
		}
	}
	rows, err := s.repo.GetStockLevels()
	if err != nil {
		return nil, storageError("stock levels", err)
	}
	items := make([]LowStockItem, 0)
	for _, row := range rows {
		minUnits := s.defaultMin
		if row.MinUnits != nil {
			minUnits = *row.MinUnits
		}
		if !isLowStock(row.OnHand, minUnits) {
			continue
		}
		items = append(items, LowStockItem{
			SKUID:    row.SKUID,
			Code:     row.Code,
			OnHand:   row.OnHand,
			MinUnits: minUnits,
			Shortage: minUnits - row.OnHand,
		})
	}
	s.store(ctx, cache.ReportLowStockKey, items)
	return items, nil
}

func (s *ReportService) store(ctx context.Context, key string, value interface{}) {
	if s.cacheTTL <= 0 {
		return
	}
	_ = cache.SetJSON(ctx, key, value, s.cacheTTL)
}

func isLowStock(onHand, minUnits int64) bool {
	return onHand <= minUnits
}

func normalizeReportGranularity(value string) string {
	switch value {
	case constants.ReportGranularityWeek, constants.ReportGranularityMonth:
		return value
	default:
		return constants.ReportGranularityDay
	}
}
