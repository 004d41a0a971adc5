package ledger

import (
	"strconv"

	handlershared "github.com/stockledger/internal/http/handlers/shared"
	"github.com/stockledger/internal/http/response"
	"github.com/stockledger/internal/repository"
	"github.com/stockledger/internal/service"

	"github.com/gin-gonic/gin"
)

func reportQuery(c *gin.Context) (service.ReportQueryInput, bool) {
	from, err := parseTimeQuery(c, "from")
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid from", nil)
		return service.ReportQueryInput{}, false
	}
	to, err := parseTimeQuery(c, "to")
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid to", nil)
		return service.ReportQueryInput{}, false
	}
	forceRefresh, _ := strconv.ParseBool(c.DefaultQuery("force_refresh", "false"))
	return service.ReportQueryInput{
		From:         from,
		To:           to,
		Granularity:  c.Query("granularity"),
		Limit:        handlershared.QueryInt(c, "limit", 10),
		ForceRefresh: forceRefresh,
	}, true
}

// GetValuationReport 库存估值
func (h *Handler) GetValuationReport(c *gin.Context) {
	input, ok := reportQuery(c)
	if !ok {
		return
	}
	report, err := h.ReportService.Valuation(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, report)
}

// GetSalesReport 销售汇总
func (h *Handler) GetSalesReport(c *gin.Context) {
	input, ok := reportQuery(c)
	if !ok {
		return
	}
	report, err := h.ReportService.SalesSummary(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, report)
}

// GetTopProductsReport 热销排行
func (h *Handler) GetTopProductsReport(c *gin.Context) {
	input, ok := reportQuery(c)
	if !ok {
		return
	}
	items, err := h.ReportService.TopProducts(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, items)
}

// GetLowStockReport 低库存列表
func (h *Handler) GetLowStockReport(c *gin.Context) {
	input, ok := reportQuery(c)
	if !ok {
		return
	}
	items, err := h.ReportService.LowStock(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, items)
}

// GetLowStockAlerts 低库存告警分页
func (h *Handler) GetLowStockAlerts(c *gin.Context) {
	page, pageSize := handlershared.PaginationFromQuery(c)
	skuID := handlershared.QueryInt(c, "sku_id", 0)
	if skuID < 0 {
		skuID = 0
	}
	alerts, total, err := h.InventoryService.ListLowStockAlerts(c.Request.Context(), repository.LowStockAlertFilter{
		Page:     page,
		PageSize: pageSize,
		SKUID:    uint(skuID),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, alerts, response.NewPagination(page, pageSize, total))
}

// ScanLowStock 立即执行全量低库存扫描
func (h *Handler) ScanLowStock(c *gin.Context) {
	alerts, err := h.InventoryService.ScanLowStock(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"created": len(alerts), "alerts": alerts})
}
