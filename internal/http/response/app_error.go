package response

// AppError 接口层错误，Detail 原样写入响应 data
type AppError struct {
	Code    int
	Message string
	Detail  map[string]interface{}
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WrapError 包装底层错误
func WrapError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithDetail 附加结构化错误字段
func (e *AppError) WithDetail(detail map[string]interface{}) *AppError {
	if e == nil || len(detail) == 0 {
		return e
	}
	e.Detail = detail
	return e
}

// Internal 是否为服务端错误（仅此类错误需要记录原始错误）
func (e *AppError) Internal() bool {
	return e != nil && e.Code >= CodeInternal
}
