package constants

// 库存流水类型常量
const (
	MovementTypePurchase = "PURCHASE"
	MovementTypeSale     = "SALE"
	MovementTypeAdjust   = "ADJUST"
	MovementTypeTransfer = "TRANSFER"
)

// 包装层级常量
const (
	PackagingLevelUnit   = "UNIT"
	PackagingLevelPack   = "PACK"
	PackagingLevelCase   = "CASE"
	PackagingLevelBundle = "BUNDLE"
)

// 属性类型常量
const (
	AttributeTypeNumber  = "number"
	AttributeTypeText    = "text"
	AttributeTypeEnum    = "enum"
	AttributeTypeBoolean = "boolean"
	AttributeTypeDate    = "date"
)

// 属性规则作用范围常量
const (
	AttributeRuleScopeAlways   = "always"
	AttributeRuleScopeCategory = "category"
	AttributeRuleScopeTag      = "tag"
)

// 单据引用来源
const (
	MovementReferenceApp = "app"
)

// MixedPurchaseNote 混装箱采购备注
const MixedPurchaseNote = "mixed case"

// DefaultLowStockMinUnits 未配置阈值时的低库存线
const DefaultLowStockMinUnits = 10

// 报表统计粒度
const (
	ReportGranularityDay   = "day"
	ReportGranularityWeek  = "week"
	ReportGranularityMonth = "month"
)

// 异步队列常量
const (
	QueueDefault = "default"

	TaskLowStockCheck = "inventory:low_stock_check"
	TaskLowStockScan  = "inventory:low_stock_scan"
)

// 低库存告警来源
const (
	LowStockSourceSale = "sale"
	LowStockSourceScan = "scan"
)

// CostScale 平均成本、单价保留的小数位
const CostScale = 6
