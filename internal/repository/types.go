package repository

import "time"

// SalesReportFilter 销售汇总查询条件
type SalesReportFilter struct {
	From        *time.Time
	To          *time.Time
	Granularity string
}

// TopProductsFilter 热销排行查询条件
type TopProductsFilter struct {
	From  *time.Time
	To    *time.Time
	Limit int
}

// LowStockAlertFilter 低库存告警列表查询条件
type LowStockAlertFilter struct {
	Page     int
	PageSize int
	SKUID    uint
}
