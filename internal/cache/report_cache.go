package cache

import (
	"fmt"
	"strings"
	"time"
)

// 报表缓存 key
const (
	ReportValuationKey = "report:valuation"
	ReportLowStockKey  = "report:low_stock"
)

// ReportSalesKey 销售汇总缓存 key
func ReportSalesKey(granularity string, from, to *time.Time) string {
	return fmt.Sprintf("report:sales:%s:%s:%s", strings.ToLower(strings.TrimSpace(granularity)), timeKeyPart(from), timeKeyPart(to))
}

// ReportTopProductsKey 热销排行缓存 key
func ReportTopProductsKey(limit int, from, to *time.Time) string {
	return fmt.Sprintf("report:top:%d:%s:%s", limit, timeKeyPart(from), timeKeyPart(to))
}

// StockWriteKeys 库存写入后需要失效的报表 key，销售/热销按时间范围缓存，依赖 TTL 过期
func StockWriteKeys() []string {
	return []string{ReportValuationKey, ReportLowStockKey}
}

func timeKeyPart(value *time.Time) string {
	if value == nil || value.IsZero() {
		return "-"
	}
	return value.UTC().Format("20060102T150405")
}
