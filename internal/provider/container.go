package provider

import (
	"time"

	"github.com/stockledger/internal/cache"
	"github.com/stockledger/internal/config"
	"github.com/stockledger/internal/logger"
	"github.com/stockledger/internal/models"
	"github.com/stockledger/internal/queue"
	"github.com/stockledger/internal/repository"
	"github.com/stockledger/internal/service"

	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	DB          *gorm.DB
	QueueClient *queue.Client

	// Repositories
	CatalogRepo   repository.CatalogRepository
	PackagingRepo repository.PackagingRepository
	AttributeRepo repository.AttributeRepository
	CostRepo      repository.CostRepository
	MovementRepo  repository.MovementRepository
	DocumentRepo  repository.DocumentRepository
	ReportRepo    repository.ReportRepository

	// Services
	PackagingService *service.PackagingService
	AttributeService *service.AttributeService
	CostingService   *service.CostingService
	MovementService  *service.MovementService
	LowStockService  *service.LowStockService
	ReportService    *service.ReportService
	InventoryService *service.InventoryService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}
	return NewContainerWithDB(cfg, models.DB, queueClient)
}

// NewContainerWithDB 使用指定数据库连接组装仓库与服务
func NewContainerWithDB(cfg *config.Config, db *gorm.DB, queueClient *queue.Client) *Container {
	c := &Container{
		Config:      cfg,
		DB:          db,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := c.DB
	c.CatalogRepo = repository.NewCatalogRepository(db)
	c.PackagingRepo = repository.NewPackagingRepository(db)
	c.AttributeRepo = repository.NewAttributeRepository(db)
	c.CostRepo = repository.NewCostRepository(db)
	c.MovementRepo = repository.NewMovementRepository(db)
	c.DocumentRepo = repository.NewDocumentRepository(db)
	c.ReportRepo = repository.NewReportRepository(db)
}

func (c *Container) initServices() {
	inventoryCfg := c.Config.Inventory
	clock := service.SystemClock{}
	cacheTTL := time.Duration(inventoryCfg.ReportCacheTTLSeconds) * time.Second

	c.PackagingService = service.NewPackagingService(c.PackagingRepo, c.CatalogRepo)
	c.AttributeService = service.NewAttributeService(c.AttributeRepo, c.CatalogRepo)
	c.CostingService = service.NewCostingService(c.CostRepo, c.MovementRepo, clock)
	c.MovementService = service.NewMovementService(c.CatalogRepo, c.MovementRepo, c.DocumentRepo, c.PackagingService, c.CostingService, clock)
	c.LowStockService = service.NewLowStockService(c.CatalogRepo, c.CostRepo, c.CostingService, inventoryCfg.LowStockDefaultMin)
	c.ReportService = service.NewReportService(c.ReportRepo, inventoryCfg.LowStockDefaultMin, cacheTTL, clock)
	c.InventoryService = service.NewInventoryService(service.InventoryServiceOptions{
		DB:                  c.DB,
		CatalogRepo:         c.CatalogRepo,
		DocumentRepo:        c.DocumentRepo,
		PackagingService:    c.PackagingService,
		AttributeService:    c.AttributeService,
		CostingService:      c.CostingService,
		MovementService:     c.MovementService,
		LowStockService:     c.LowStockService,
		QueueClient:         c.QueueClient,
		LowStockCheckOnSale: inventoryCfg.LowStockCheckOnSale,
	})
}
