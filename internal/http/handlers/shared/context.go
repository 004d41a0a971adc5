package shared

import (
	"strconv"
	"strings"

	"github.com/stockledger/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ParamUint 读取路径中的正整数 ID，失败时直接写入错误响应。
func ParamUint(c *gin.Context, key string) (uint, bool) {
	raw := strings.TrimSpace(c.Param(key))
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || value == 0 {
		RespondError(c, response.CodeBadRequest, "invalid "+key, nil)
		return 0, false
	}
	return uint(value), true
}

// QueryInt 读取整型查询参数，缺失或非法时返回默认值。
func QueryInt(c *gin.Context, key string, fallback int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
