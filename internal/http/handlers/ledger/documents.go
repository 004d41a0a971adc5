package ledger

import (
	"context"

	handlershared "github.com/stockledger/internal/http/handlers/shared"
	"github.com/stockledger/internal/http/response"
	"github.com/stockledger/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// PurchaseLineRequest 采购行
type PurchaseLineRequest struct {
	SKUID          uint            `json:"sku_id" binding:"required"`
	PackagingLevel string          `json:"packaging_level" binding:"omitempty,packaging_level"`
	Qty            decimal.Decimal `json:"qty"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
}

// PurchaseRequest 采购单请求
type PurchaseRequest struct {
	Ts       string                `json:"ts"`
	Supplier string                `json:"supplier"`
	Note     string                `json:"note"`
	Lines    []PurchaseLineRequest `json:"lines" binding:"dive"`
}

// MixedPurchaseRequest 混装箱采购请求
type MixedPurchaseRequest struct {
	Ts                string          `json:"ts"`
	Supplier          string          `json:"supplier"`
	ParentPackagingID uint            `json:"parent_packaging_id" binding:"required"`
	QtyPacks          decimal.Decimal `json:"qty_packs"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
}

// SaleLineRequest 销售行
type SaleLineRequest struct {
	SKUID          uint            `json:"sku_id" binding:"required"`
	PackagingLevel string          `json:"packaging_level" binding:"omitempty,packaging_level"`
	Qty            decimal.Decimal `json:"qty"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
}

// SaleRequest 销售单请求
type SaleRequest struct {
	Ts       string            `json:"ts"`
	Customer string            `json:"customer"`
	Lines    []SaleLineRequest `json:"lines" binding:"dive"`
}

// BundleSaleRequest 组合包装销售请求
type BundleSaleRequest struct {
	Ts                string          `json:"ts"`
	Customer          string          `json:"customer"`
	BundlePackagingID uint            `json:"bundle_packaging_id" binding:"required"`
	QtyBundles        decimal.Decimal `json:"qty_bundles"`
	TotalPrice        decimal.Decimal `json:"total_price"`
}

// CreatePurchase 记录采购
func (h *Handler) CreatePurchase(c *gin.Context) {
	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondBindError(c, err)
		return
	}
	ts, err := parseTimeNullable(req.Ts)
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid ts", nil)
		return
	}
	input := service.PurchaseInput{Ts: ts, Supplier: req.Supplier, Note: req.Note}
	skuIDs := make([]uint, 0, len(req.Lines))
	for _, line := range req.Lines {
		input.Lines = append(input.Lines, service.PurchaseLineInput{
			SKUID:          line.SKUID,
			PackagingLevel: line.PackagingLevel,
			Qty:            line.Qty,
			UnitCost:       line.UnitCost,
		})
		skuIDs = append(skuIDs, line.SKUID)
	}
	h.withSKULocks(c, skuIDs, func(ctx context.Context) error {
		purchase, err := h.InventoryService.RecordPurchase(ctx, input)
		if err != nil {
			return err
		}
		response.Success(c, purchase)
		return nil
	})
}

// CreateMixedPurchase 记录混装箱采购
func (h *Handler) CreateMixedPurchase(c *gin.Context) {
	var req MixedPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondBindError(c, err)
		return
	}
	ts, err := parseTimeNullable(req.Ts)
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid ts", nil)
		return
	}
	skuIDs, err := h.InventoryService.CompositionSKUIDs(c.Request.Context(), req.ParentPackagingID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	h.withSKULocks(c, skuIDs, func(ctx context.Context) error {
		purchase, err := h.InventoryService.RecordMixedPurchase(ctx, service.MixedPurchaseInput{
			Ts:                ts,
			Supplier:          req.Supplier,
			ParentPackagingID: req.ParentPackagingID,
			QtyPacks:          req.QtyPacks,
			UnitCost:          req.UnitCost,
		})
		if err != nil {
			return err
		}
		response.Success(c, purchase)
		return nil
	})
}

// CreateSale 记录销售
func (h *Handler) CreateSale(c *gin.Context) {
	var req SaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondBindError(c, err)
		return
	}
	ts, err := parseTimeNullable(req.Ts)
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid ts", nil)
		return
	}
	input := service.SaleInput{Ts: ts, Customer: req.Customer}
	skuIDs := make([]uint, 0, len(req.Lines))
	for _, line := range req.Lines {
		input.Lines = append(input.Lines, service.SaleLineInput{
			SKUID:          line.SKUID,
			PackagingLevel: line.PackagingLevel,
			Qty:            line.Qty,
			UnitPrice:      line.UnitPrice,
		})
		skuIDs = append(skuIDs, line.SKUID)
	}
	h.withSKULocks(c, skuIDs, func(ctx context.Context) error {
		sale, err := h.InventoryService.RecordSale(ctx, input)
		if err != nil {
			return err
		}
		response.Success(c, sale)
		return nil
	})
}

// CreateBundleSale 记录组合包装销售
func (h *Handler) CreateBundleSale(c *gin.Context) {
	var req BundleSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondBindError(c, err)
		return
	}
	ts, err := parseTimeNullable(req.Ts)
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid ts", nil)
		return
	}
	skuIDs, err := h.InventoryService.CompositionSKUIDs(c.Request.Context(), req.BundlePackagingID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	h.withSKULocks(c, skuIDs, func(ctx context.Context) error {
		sale, err := h.InventoryService.RecordBundleSale(ctx, service.BundleSaleInput{
			Ts:                ts,
			Customer:          req.Customer,
			BundlePackagingID: req.BundlePackagingID,
			QtyBundles:        req.QtyBundles,
			TotalPrice:        req.TotalPrice,
		})
		if err != nil {
			return err
		}
		response.Success(c, sale)
		return nil
	})
}

// GetPurchase 获取采购单
func (h *Handler) GetPurchase(c *gin.Context) {
	id, ok := handlershared.ParamUint(c, "id")
	if !ok {
		return
	}
	purchase, err := h.InventoryService.GetPurchase(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, purchase)
}

// GetSale 获取销售单
func (h *Handler) GetSale(c *gin.Context) {
	id, ok := handlershared.ParamUint(c, "id")
	if !ok {
		return
	}
	sale, err := h.InventoryService.GetSale(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, sale)
}
