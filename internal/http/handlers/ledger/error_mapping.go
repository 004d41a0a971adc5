package ledger

import (
	"errors"

	handlershared "github.com/stockledger/internal/http/handlers/shared"
	"github.com/stockledger/internal/http/response"
	"github.com/stockledger/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 业务错误到接口状态码的映射
type mappedHandlerError struct {
	target error
	code   int
}

// 按顺序匹配，先具体错误再错误分类
var serviceErrorRules = []mappedHandlerError{
	{target: service.ErrSKUNotFound, code: response.CodeNotFound},
	{target: service.ErrPackagingNotFound, code: response.CodeNotFound},
	{target: service.ErrDocumentNotFound, code: response.CodeNotFound},
	{target: service.ErrStorage, code: response.CodeInternal},
	{target: service.ErrInput, code: response.CodeBadRequest},
	{target: service.ErrValidation, code: response.CodeUnprocessable},
	{target: service.ErrState, code: response.CodeConflict},
}

func respondServiceError(c *gin.Context, err error) {
	code := response.CodeInternal
	for _, rule := range serviceErrorRules {
		if errors.Is(err, rule.target) {
			code = rule.code
			break
		}
	}
	if code == response.CodeInternal {
		respondError(c, code, "internal error", err)
		return
	}
	handlershared.RespondErrorWithData(c, code, err.Error(), errorDetail(err), nil)
}

// errorDetail 提取错误编码与结构化字段
func errorDetail(err error) gin.H {
	detail := gin.H{"error_code": service.ErrorCode(err)}
	var lineErr *service.LineError
	if errors.As(err, &lineErr) {
		detail["line"] = lineErr.Index
		detail["sku_id"] = lineErr.SKUID
	}
	var stockErr *service.InsufficientStockError
	if errors.As(err, &stockErr) {
		detail["sku_id"] = stockErr.SKUID
		detail["available"] = stockErr.Available
		detail["requested"] = stockErr.Requested
	}
	var violation *service.AttributeViolation
	if errors.As(err, &violation) {
		detail["sku_id"] = violation.SKUID
		detail["attribute"] = violation.Code
		if violation.Detail != "" {
			detail["detail"] = violation.Detail
		}
	}
	return detail
}
