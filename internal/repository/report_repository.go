package repository

import (
	"fmt"

	"github.com/stockledger/internal/models"

	"gorm.io/gorm"
)

// ReportRepository 库存报表聚合查询接口
// 说明：仅聚合统计数据，不承载业务规则。
type ReportRepository interface {
	GetValuationRows() ([]ValuationRow, error)
	GetStockLevels() ([]StockLevelRow, error)
	GetSalesSummary(filter SalesReportFilter) ([]SalesSummaryRow, error)
	GetTopProducts(filter TopProductsFilter) ([]TopProductRow, error)
	WithTx(tx *gorm.DB) ReportRepository
}

// ValuationRow 单个 SKU 的库存估值原始行
type ValuationRow struct {
	SKUID   uint `gorm:"column:sku_id"`
	Code    string
	OnHand  int64
	AvgCost models.Amount
}

// StockLevelRow 单个 SKU 的库存与阈值，MinUnits 为空表示未设置
type StockLevelRow struct {
	SKUID    uint `gorm:"column:sku_id"`
	Code     string
	OnHand   int64
	MinUnits *int64
}

// SalesSummaryRow 按时间桶汇总的销售数据
type SalesSummaryRow struct {
	Period     string
	SalesCount int64
	Units      int64
	Revenue    models.Money
	Cogs       models.Money
}

// TopProductRow 热销 SKU 原始行
type TopProductRow struct {
	SKUID   uint `gorm:"column:sku_id"`
	Code    string
	Units   int64
	Revenue models.Money
	Cogs    models.Money
}

// GormReportRepository GORM 报表聚合实现
type GormReportRepository struct {
	db *gorm.DB
}

// NewReportRepository 创建报表仓库
func NewReportRepository(db *gorm.DB) *GormReportRepository {
	return &GormReportRepository{db: db}
}

// WithTx 绑定事务
func (r *GormReportRepository) WithTx(tx *gorm.DB) ReportRepository {
	if tx == nil {
		return r
	}
	return &GormReportRepository{db: tx}
}

func (r *GormReportRepository) onHandSubquery() *gorm.DB {
	return r.db.Model(&models.MovementLine{}).
		Select("sku_id, SUM(qty_units) AS on_hand").
		Group("sku_id")
}

// GetValuationRows 获取全部启用 SKU 的库存与平均成本
func (r *GormReportRepository) GetValuationRows() ([]ValuationRow, error) {
	rows := make([]ValuationRow, 0)
	if err := r.db.Table("skus").
		Select("skus.id AS sku_id, skus.code AS code, COALESCE(stock.on_hand, 0) AS on_hand, COALESCE(sku_costs.avg_cost, 0) AS avg_cost").
		Joins("LEFT JOIN (?) AS stock ON stock.sku_id = skus.id", r.onHandSubquery()).
		Joins("LEFT JOIN sku_costs ON sku_costs.sku_id = skus.id").
		Where("skus.is_active = ?", true).
		Order("skus.id ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetStockLevels 获取全部启用 SKU 的库存与阈值
func (r *GormReportRepository) GetStockLevels() ([]StockLevelRow, error) {
	rows := make([]StockLevelRow, 0)
	if err := r.db.Table("skus").
		Select("skus.id AS sku_id, skus.code AS code, COALESCE(stock.on_hand, 0) AS on_hand, sku_thresholds.min_units AS min_units").
		Joins("LEFT JOIN (?) AS stock ON stock.sku_id = skus.id", r.onHandSubquery()).
		Joins("LEFT JOIN sku_thresholds ON sku_thresholds.sku_id = skus.id").
		Where("skus.is_active = ?", true).
		Order("skus.id ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetSalesSummary 按日/周/月汇总销售额、成本
func (r *GormReportRepository) GetSalesSummary(filter SalesReportFilter) ([]SalesSummaryRow, error) {
	bucket := periodExpr(r.db, "sales.ts", filter.Granularity)
	query := r.db.Table("sale_lines").
		Joins("JOIN sales ON sales.id = sale_lines.sale_id").
		Select(fmt.Sprintf("%s AS period, COUNT(DISTINCT sales.id) AS sales_count, COALESCE(SUM(sale_lines.qty_units), 0) AS units, "+
			"COALESCE(SUM(sale_lines.qty_units * sale_lines.unit_price), 0) AS revenue, COALESCE(SUM(sale_lines.cogs_total), 0) AS cogs", bucket))
	if filter.From != nil {
		query = query.Where("sales.ts >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("sales.ts < ?", *filter.To)
	}
	rows := make([]SalesSummaryRow, 0)
	if err := query.Group(bucket).Order("period ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetTopProducts 获取按销售额排序的 SKU 排行
func (r *GormReportRepository) GetTopProducts(filter TopProductsFilter) ([]TopProductRow, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	query := r.db.Table("sale_lines").
		Joins("JOIN sales ON sales.id = sale_lines.sale_id").
		Joins("JOIN skus ON skus.id = sale_lines.sku_id").
		Select("sale_lines.sku_id AS sku_id, skus.code AS code, COALESCE(SUM(sale_lines.qty_units), 0) AS units, " +
			"COALESCE(SUM(sale_lines.qty_units * sale_lines.unit_price), 0) AS revenue, COALESCE(SUM(sale_lines.cogs_total), 0) AS cogs")
	if filter.From != nil {
		query = query.Where("sales.ts >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("sales.ts < ?", *filter.To)
	}
	rows := make([]TopProductRow, 0)
	if err := query.Group("sale_lines.sku_id, skus.code").
		Order("revenue DESC, sku_id ASC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
