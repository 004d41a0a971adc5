package ledger

import (
	handlershared "github.com/stockledger/internal/http/handlers/shared"
	"github.com/stockledger/internal/http/response"
	"github.com/stockledger/internal/models"
	"github.com/stockledger/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// AttributeRequest 属性定义请求
type AttributeRequest struct {
	Code           string   `json:"code" binding:"required"`
	Label          string   `json:"label"`
	Type           string   `json:"type" binding:"required"`
	UnitConstraint string   `json:"unit_constraint"`
	EnumOptions    []string `json:"enum_options"`
	IsIndexed      bool     `json:"is_indexed"`
}

// AttributeRuleRequest 属性规则请求
type AttributeRuleRequest struct {
	AttrCode  string           `json:"attr_code" binding:"required"`
	AppliesTo string           `json:"applies_to"`
	TargetID  *uint            `json:"target_id"`
	Required  bool             `json:"required"`
	MinNum    *decimal.Decimal `json:"min_num"`
	MaxNum    *decimal.Decimal `json:"max_num"`
	Regex     string           `json:"regex"`
}

// AttributeValueRequest 属性值请求
type AttributeValueRequest struct {
	Value string `json:"value"`
	Unit  string `json:"unit"`
}

// TagsRequest 标签替换请求
type TagsRequest struct {
	Tags []string `json:"tags"`
}

// ThresholdRequest 低库存阈值请求
type ThresholdRequest struct {
	MinUnits int64 `json:"min_units"`
}

// PackagingRequest 包装层级请求
type PackagingRequest struct {
	Level           string               `json:"level" binding:"required,packaging_level"`
	Label           string               `json:"label"`
	UnitsPerParent  *decimal.NullDecimal `json:"units_per_parent"`
	IsSellable      bool                 `json:"is_sellable"`
	IsPurchasable   bool                 `json:"is_purchasable"`
	MinSellMultiple int64                `json:"min_sell_multiple"`
	ExceptionType   string               `json:"exception_type"`
}

// CompositionRequest 组合成分请求
type CompositionRequest struct {
	ChildSKUID uint            `json:"child_sku_id" binding:"required"`
	QtyUnits   decimal.Decimal `json:"qty_units"`
}

// CreateAttribute 登记属性定义（已存在时返回原 ID）
func (h *Handler) CreateAttribute(c *gin.Context) {
	var req AttributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondBindError(c, err)
		return
	}
	id, err := h.InventoryService.EnsureAttribute(c.Request.Context(), service.AttributeSpec{
		Code:           req.Code,
		Label:          req.Label,
		Type:           req.Type,
		UnitConstraint: req.UnitConstraint,
		EnumOptions:    req.EnumOptions,
		IsIndexed:      req.IsIndexed,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"id": id})
}

// CreateAttributeRule 追加属性规则
func (h *Handler) CreateAttributeRule(c *gin.Context) {
	var req AttributeRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondBindError(c, err)
		return
	}
	rule, err := h.InventoryService.AddAttributeRule(c.Request.Context(), service.AttributeRuleSpec{
		AttrCode:  req.AttrCode,
		AppliesTo: req.AppliesTo,
		TargetID:  req.TargetID,
		Required:  req.Required,
		MinNum:    req.MinNum,
		MaxNum:    req.MaxNum,
		Regex:     req.Regex,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, rule)
}

// GetSKUStock 查询 SKU 库存概览
func (h *Handler) GetSKUStock(c *gin.Context) {
	skuID, ok := handlershared.ParamUint(c, "id")
	if !ok {
		return
	}
	stock, err := h.InventoryService.SKUStock(c.Request.Context(), skuID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, stock)
}

// SetSKUAttribute 写入 SKU 属性值
func (h *Handler) SetSKUAttribute(c *gin.Context) {
	skuID, ok := handlershared.ParamUint(c, "id")
	if !ok {
		return
	}
	var req AttributeValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondBindError(c, err)
		return
	}
	code := c.Param("code")
	if err := h.InventoryService.SetAttributeValue(c.Request.Context(), skuID, code, req.Value, req.Unit); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"sku_id": skuID, "code": code})
}

// SetSKUTags 替换 SKU 标签
func (h *Handler) SetSKUTags(c *gin.Context) {
	skuID, ok := handlershared.ParamUint(c, "id")
	if !ok {
		return
	}
	var req TagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondBindError(c, err)
		return
	}
	if err := h.InventoryService.SetSKUTags(c.Request.Context(), skuID, req.Tags); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"sku_id": skuID, "tags": req.Tags})
}

// ValidateSKU 校验包装与属性规则
func (h *Handler) ValidateSKU(c *gin.Context) {
	skuID, ok := handlershared.ParamUint(c, "id")
	if !ok {
		return
	}
	if err := h.InventoryService.ValidateSKU(c.Request.Context(), skuID); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"sku_id": skuID, "valid": true})
}

// SetSKUThreshold 设置低库存阈值
func (h *Handler) SetSKUThreshold(c *gin.Context) {
	skuID, ok := handlershared.ParamUint(c, "id")
	if !ok {
		return
	}
	var req ThresholdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondBindError(c, err)
		return
	}
	if err := h.InventoryService.SetThreshold(c.Request.Context(), skuID, req.MinUnits); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"sku_id": skuID, "min_units": req.MinUnits})
}

// CreateSKUPackaging 新增或更新 SKU 包装层级
func (h *Handler) CreateSKUPackaging(c *gin.Context) {
	skuID, ok := handlershared.ParamUint(c, "id")
	if !ok {
		return
	}
	var req PackagingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondBindError(c, err)
		return
	}
	item := &models.Packaging{
		SKUID:           skuID,
		Level:           req.Level,
		Label:           req.Label,
		IsSellable:      req.IsSellable,
		IsPurchasable:   req.IsPurchasable,
		MinSellMultiple: req.MinSellMultiple,
		ExceptionType:   req.ExceptionType,
	}
	if req.UnitsPerParent != nil {
		item.UnitsPerParent = *req.UnitsPerParent
	}
	if err := h.InventoryService.RegisterPackaging(c.Request.Context(), item); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, item)
}

// CreatePackagingComponent 为组合包装追加成分
func (h *Handler) CreatePackagingComponent(c *gin.Context) {
	packagingID, ok := handlershared.ParamUint(c, "id")
	if !ok {
		return
	}
	var req CompositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondBindError(c, err)
		return
	}
	item, err := h.InventoryService.AddComposition(c.Request.Context(), packagingID, req.ChildSKUID, req.QtyUnits)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, item)
}
