package router

import (
	"fmt"
	"strings"

	"github.com/stockledger/internal/cache"
	"github.com/stockledger/internal/config"
	ledgerhandlers "github.com/stockledger/internal/http/handlers/ledger"
	handlershared "github.com/stockledger/internal/http/handlers/shared"
	"github.com/stockledger/internal/logger"
	"github.com/stockledger/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()
	if err := handlershared.RegisterValidators(); err != nil {
		log.Sugar().Warnw("router_validator_register_failed", "error", err)
	}

	ledgerHandler := ledgerhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "sl"
	}
	writeRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:write", redisPrefix),
		WindowSeconds: cfg.Server.WriteRateLimit.WindowSeconds,
		MaxRequests:   cfg.Server.WriteRateLimit.MaxRequests,
	}
	writeLimit := RateLimitMiddleware(cache.Client(), writeRule, KeyByIP)

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		// 单据
		apiV1.POST("/purchases", writeLimit, ledgerHandler.CreatePurchase)
		apiV1.POST("/purchases/mixed", writeLimit, ledgerHandler.CreateMixedPurchase)
		apiV1.GET("/purchases/:id", ledgerHandler.GetPurchase)
		apiV1.POST("/sales", writeLimit, ledgerHandler.CreateSale)
		apiV1.POST("/sales/bundle", writeLimit, ledgerHandler.CreateBundleSale)
		apiV1.GET("/sales/:id", ledgerHandler.GetSale)

		// SKU
		skus := apiV1.Group("/skus/:id")
		{
			skus.GET("/stock", ledgerHandler.GetSKUStock)
			skus.PUT("/attributes/:code", ledgerHandler.SetSKUAttribute)
			skus.PUT("/tags", ledgerHandler.SetSKUTags)
			skus.POST("/validate", ledgerHandler.ValidateSKU)
			skus.PUT("/threshold", ledgerHandler.SetSKUThreshold)
			skus.POST("/packaging", ledgerHandler.CreateSKUPackaging)
		}
		apiV1.POST("/packaging/:id/components", ledgerHandler.CreatePackagingComponent)

		// 属性
		apiV1.POST("/attributes", ledgerHandler.CreateAttribute)
		apiV1.POST("/attributes/rules", ledgerHandler.CreateAttributeRule)

		// 报表
		reports := apiV1.Group("/reports")
		{
			reports.GET("/valuation", ledgerHandler.GetValuationReport)
			reports.GET("/sales", ledgerHandler.GetSalesReport)
			reports.GET("/top-products", ledgerHandler.GetTopProductsReport)
			reports.GET("/low-stock", ledgerHandler.GetLowStockReport)
			reports.GET("/low-stock/alerts", ledgerHandler.GetLowStockAlerts)
			reports.POST("/low-stock/scan", ledgerHandler.ScanLowStock)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
