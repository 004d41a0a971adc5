package repository

import (
	"fmt"
	"strings"

	"github.com/stockledger/internal/constants"

	"gorm.io/gorm"
)

// dbDialectName 获取数据库方言名称，默认按 sqlite 处理。
func dbDialectName(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return "sqlite"
	}
	name := strings.ToLower(strings.TrimSpace(db.Dialector.Name()))
	if name == "" {
		return "sqlite"
	}
	return name
}

// periodExpr 构建按日/周/月分组的时间桶表达式，兼容 sqlite、postgres 与 mysql。
func periodExpr(db *gorm.DB, column, granularity string) string {
	return periodExprByDialect(dbDialectName(db), column, granularity)
}

func periodExprByDialect(dialect, column, granularity string) string {
	granularity = normalizeGranularity(granularity)
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case "postgres", "postgresql":
		layouts := map[string]string{
			constants.ReportGranularityDay:   "YYYY-MM-DD",
			constants.ReportGranularityWeek:  `IYYY-"W"IW`,
			constants.ReportGranularityMonth: "YYYY-MM",
		}
		return fmt.Sprintf("to_char(%s, '%s')", column, layouts[granularity])
	case "mysql":
		layouts := map[string]string{
			constants.ReportGranularityDay:   "%Y-%m-%d",
			constants.ReportGranularityWeek:  "%x-W%v",
			constants.ReportGranularityMonth: "%Y-%m",
		}
		return fmt.Sprintf("DATE_FORMAT(%s, '%s')", column, layouts[granularity])
	default:
		// sqlite 的 %W 为周一起算的年内周序号
		layouts := map[string]string{
			constants.ReportGranularityDay:   "%Y-%m-%d",
			constants.ReportGranularityWeek:  "%Y-W%W",
			constants.ReportGranularityMonth: "%Y-%m",
		}
		return fmt.Sprintf("strftime('%s', %s)", layouts[granularity], column)
	}
}

func normalizeGranularity(granularity string) string {
	switch strings.ToLower(strings.TrimSpace(granularity)) {
	case constants.ReportGranularityWeek:
		return constants.ReportGranularityWeek
	case constants.ReportGranularityMonth:
		return constants.ReportGranularityMonth
	default:
		return constants.ReportGranularityDay
	}
}
