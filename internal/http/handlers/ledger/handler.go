package ledger

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/stockledger/internal/cache"
	handlershared "github.com/stockledger/internal/http/handlers/shared"
	"github.com/stockledger/internal/http/response"
	"github.com/stockledger/internal/provider"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 库存记账接口处理器
type Handler struct {
	*provider.Container
}

// New 创建处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

func (h *Handler) lockTTL() time.Duration {
	if h.Config == nil || h.Config.Inventory.SaleLockTTLSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(h.Config.Inventory.SaleLockTTLSeconds) * time.Second
}

// withSKULocks 在 Redis 启用时持有 SKU 锁执行写入；锁冲突返回 409
func (h *Handler) withSKULocks(c *gin.Context, skuIDs []uint, fn func(ctx context.Context) error) {
	ctx := c.Request.Context()
	locks, err := cache.ObtainSKULocks(ctx, skuIDs, h.lockTTL())
	if err != nil {
		if errors.Is(err, cache.ErrLockNotObtained) {
			respondError(c, response.CodeConflict, "sku is being updated, retry later", nil)
			return
		}
		respondError(c, response.CodeUnavailable, "sku lock unavailable", err)
		return
	}
	defer func() {
		if err := locks.Release(context.WithoutCancel(ctx)); err != nil {
			requestLog(c).Warnw("ledger_sku_lock_release_failed", "error", err)
		}
	}()
	if err := fn(ctx); err != nil {
		respondServiceError(c, err)
	}
}

// parseTimeNullable 支持 RFC3339 与 2006-01-02，空串返回零值
func parseTimeNullable(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func parseTimeQuery(c *gin.Context, key string) (*time.Time, error) {
	t, err := parseTimeNullable(c.Query(key))
	if err != nil || t.IsZero() {
		return nil, err
	}
	return &t, nil
}
