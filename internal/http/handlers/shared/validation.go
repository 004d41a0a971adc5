package shared

import (
	"errors"
	"strings"

	"github.com/stockledger/internal/constants"
	"github.com/stockledger/internal/http/response"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators 向 gin 的校验引擎注册自定义标签
func RegisterValidators() error {
	engine, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected validator engine")
	}
	return engine.RegisterValidation("packaging_level", validatePackagingLevel)
}

func validatePackagingLevel(fl validator.FieldLevel) bool {
	switch strings.ToUpper(strings.TrimSpace(fl.Field().String())) {
	case constants.PackagingLevelUnit, constants.PackagingLevelPack, constants.PackagingLevelCase, constants.PackagingLevelBundle:
		return true
	default:
		return false
	}
}

// ValidationFields 将校验错误展开为 字段 -> 标签
func ValidationFields(err error) map[string]string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}
	fields := make(map[string]string, len(validationErrors))
	for _, fieldErr := range validationErrors {
		fields[fieldErr.Namespace()] = fieldErr.Tag()
	}
	return fields
}

// RespondBindError 请求体解析或校验失败
func RespondBindError(c *gin.Context, err error) {
	data := gin.H{"error_code": "invalid_request"}
	if fields := ValidationFields(err); len(fields) > 0 {
		data["fields"] = fields
	}
	RespondErrorWithData(c, response.CodeBadRequest, "invalid request body", data, err)
}
