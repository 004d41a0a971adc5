package service

import (
	"errors"
	"fmt"
)

// 错误分类
var (
	ErrInput      = errors.New("input error")
	ErrValidation = errors.New("validation error")
	ErrState      = errors.New("state error")
	ErrStorage    = errors.New("storage error")
)

// codedError 带编码的业务错误，Unwrap 返回所属分类
type codedError struct {
	code string
	msg  string
	kind error
}

func (e *codedError) Error() string {
	return e.msg
}

func (e *codedError) Unwrap() error {
	return e.kind
}

// Code 返回稳定的错误编码
func (e *codedError) Code() string {
	return e.code
}

func newCodedError(kind error, code, msg string) error {
	return &codedError{code: code, msg: msg, kind: kind}
}

// 输入错误
var (
	ErrInvalidQuantity          = newCodedError(ErrInput, "invalid_quantity", "quantity must not be negative")
	ErrInvalidCost              = newCodedError(ErrInput, "invalid_cost", "unit cost must not be negative")
	ErrInvalidPrice             = newCodedError(ErrInput, "invalid_price", "unit price must not be negative")
	ErrEmptyLines               = newCodedError(ErrInput, "empty_lines", "document has no lines")
	ErrSKUNotFound              = newCodedError(ErrInput, "sku_not_found", "sku not found")
	ErrUnknownAttribute         = newCodedError(ErrInput, "unknown_attribute", "attribute is not registered")
	ErrUnknownUnit              = newCodedError(ErrInput, "unknown_unit", "unit of measure is not registered")
	ErrUnitMismatch             = newCodedError(ErrInput, "unit_mismatch", "unit does not match attribute constraint")
	ErrTypeMismatch             = newCodedError(ErrInput, "type_mismatch", "value does not match attribute type")
	ErrInvalidEnumValue         = newCodedError(ErrInput, "invalid_enum_value", "value is not a declared enum option")
	ErrUnsupportedAttributeType = newCodedError(ErrInput, "unsupported_attribute_type", "unsupported attribute type")
	ErrInvalidAttributeCode     = newCodedError(ErrInput, "invalid_attribute_code", "attribute code is required")
	ErrNotABundle               = newCodedError(ErrInput, "not_a_bundle", "packaging has no composition")
	ErrPackagingNotFound        = newCodedError(ErrInput, "packaging_not_found", "packaging not found")
	ErrDocumentNotFound         = newCodedError(ErrInput, "document_not_found", "document not found")
	ErrInvalidRule              = newCodedError(ErrInput, "invalid_rule", "attribute rule is invalid")
)

// 校验错误
var (
	ErrMissingRequiredAttribute = newCodedError(ErrValidation, "missing_required_attribute", "required attribute is missing")
	ErrOutOfRange               = newCodedError(ErrValidation, "out_of_range", "numeric attribute out of range")
	ErrFormatViolation          = newCodedError(ErrValidation, "format_violation", "attribute does not match required format")
	ErrMissingUnitPackaging     = newCodedError(ErrValidation, "missing_unit_packaging", "pack or case packaging requires a sellable unit packaging")
)

// 状态错误
var (
	ErrInsufficientStock = newCodedError(ErrState, "insufficient_stock", "insufficient stock")
)

// ErrorCode 提取错误编码，非业务错误返回空字符串
func ErrorCode(err error) string {
	var coded *codedError
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return ""
}

// LineError 标识出错的单据行
type LineError struct {
	Index int
	SKUID uint
	Err   error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d (sku %d): %v", e.Index, e.SKUID, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

func lineError(index int, skuID uint, err error) error {
	return &LineError{Index: index, SKUID: skuID, Err: err}
}

// AttributeViolation 属性校验失败，携带属性编码
type AttributeViolation struct {
	SKUID  uint
	Code   string
	Label  string
	Detail string
	Err    error
}

func (e *AttributeViolation) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("sku %d attribute %s: %v", e.SKUID, e.Code, e.Err)
	}
	return fmt.Sprintf("sku %d attribute %s: %v (%s)", e.SKUID, e.Code, e.Err, e.Detail)
}

func (e *AttributeViolation) Unwrap() error {
	return e.Err
}

// InsufficientStockError 库存不足，携带可用量与需求量
type InsufficientStockError struct {
	SKUID     uint
	Available int64
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for sku %d: available %d, requested %d", e.SKUID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// storageError 包装持久化错误，调用方需回滚整个事务
func storageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}
