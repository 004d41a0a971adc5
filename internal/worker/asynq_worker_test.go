package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stockledger/internal/config"
	"github.com/stockledger/internal/constants"
	"github.com/stockledger/internal/logger"
	"github.com/stockledger/internal/models"
	"github.com/stockledger/internal/provider"
	"github.com/stockledger/internal/queue"
	"github.com/stockledger/internal/repository"
	"github.com/stockledger/internal/service"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestConsumer(t *testing.T) *Consumer {
	t.Helper()
	dsn := fmt.Sprintf("file:worker_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	cfg := &config.Config{Inventory: config.InventoryConfig{LowStockDefaultMin: 10}}
	return NewConsumer(provider.NewContainerWithDB(cfg, db, nil))
}

func stockSKU(t *testing.T, c *Consumer, code string, units int64) uint {
	t.Helper()
	product := &models.Product{Name: code}
	if err := c.CatalogRepo.CreateProduct(product); err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	sku := &models.SKU{ProductID: product.ID, Code: code, IsActive: true}
	if err := c.CatalogRepo.CreateSKU(sku); err != nil {
		t.Fatalf("create sku failed: %v", err)
	}
	if units > 0 {
		_, err := c.InventoryService.RecordPurchase(context.Background(), service.PurchaseInput{
			Lines: []service.PurchaseLineInput{{SKUID: sku.ID, Qty: decimal.NewFromInt(units), UnitCost: decimal.NewFromInt(1)}},
		})
		if err != nil {
			t.Fatalf("record purchase failed: %v", err)
		}
	}
	return sku.ID
}

func TestHandleLowStockCheckCreatesSaleAlerts(t *testing.T) {
	c := newTestConsumer(t)
	low := stockSKU(t, c, "W-LOW", 3)
	high := stockSKU(t, c, "W-HIGH", 50)

	body, _ := json.Marshal(queue.LowStockCheckPayload{SKUIDs: []uint{low, high}, SaleID: 9})
	if err := c.handleLowStockCheck(context.Background(), asynq.NewTask(queue.TaskLowStockCheck, body)); err != nil {
		t.Fatalf("handle check failed: %v", err)
	}
	alerts, total, err := c.InventoryService.ListLowStockAlerts(context.Background(), repository.LowStockAlertFilter{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list alerts failed: %v", err)
	}
	if total != 1 || alerts[0].SKUID != low || alerts[0].Source != constants.LowStockSourceSale {
		t.Fatalf("unexpected alerts: %+v", alerts)
	}
}

func TestHandleLowStockCheckRejectsBadPayload(t *testing.T) {
	c := newTestConsumer(t)
	if err := c.handleLowStockCheck(context.Background(), asynq.NewTask(queue.TaskLowStockCheck, []byte("{"))); err == nil {
		t.Fatalf("expected unmarshal error")
	}
	if err := c.handleLowStockCheck(context.Background(), asynq.NewTask(queue.TaskLowStockCheck, []byte(`{"sku_ids":[]}`))); err != nil {
		t.Fatalf("empty payload should be skipped: %v", err)
	}
}

func TestHandleLowStockScanAlertsEveryLowSKU(t *testing.T) {
	c := newTestConsumer(t)
	stockSKU(t, c, "S-EMPTY", 0)
	stockSKU(t, c, "S-LOW", 10)
	stockSKU(t, c, "S-FULL", 11)

	body, _ := json.Marshal(queue.LowStockScanPayload{Trigger: "test"})
	if err := c.handleLowStockScan(context.Background(), asynq.NewTask(queue.TaskLowStockScan, body)); err != nil {
		t.Fatalf("handle scan failed: %v", err)
	}
	_, total, err := c.InventoryService.ListLowStockAlerts(context.Background(), repository.LowStockAlertFilter{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list alerts failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected two scan alerts, got %d", total)
	}
}

func TestNilConsumerHandlersAreNoop(t *testing.T) {
	var c *Consumer
	if err := c.handleLowStockCheck(context.Background(), nil); err != nil {
		t.Fatalf("nil consumer should skip: %v", err)
	}
	if err := c.handleLowStockScan(context.Background(), nil); err != nil {
		t.Fatalf("nil consumer should skip: %v", err)
	}
}

func TestNewSchedulerValidatesSpec(t *testing.T) {
	if scheduler, err := newScheduler("", func() {}); err != nil || scheduler != nil {
		t.Fatalf("empty spec should disable scheduler")
	}
	if _, err := newScheduler("not a cron", func() {}); err == nil {
		t.Fatalf("expected invalid spec error")
	}
	if scheduler, err := newScheduler("@every 1h", func() {}); err != nil || scheduler == nil {
		t.Fatalf("expected scheduler, err=%v", err)
	}
}

func TestNewServiceRequiresWork(t *testing.T) {
	c := newTestConsumer(t)
	if _, err := NewService(&config.Config{}, c); err == nil {
		t.Fatalf("expected error without queue or schedule")
	}
	cfg := &config.Config{Worker: config.WorkerConfig{LowStockScanCron: "@every 1h"}}
	svc, err := NewService(cfg, c)
	if err != nil {
		t.Fatalf("new service failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- svc.Start(ctx)
	}()
	cancel()
	if err := <-errCh; err != nil {
		t.Fatalf("start should exit cleanly on cancel: %v", err)
	}
	if err := svc.Stop(context.Background()); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
}

func TestScanJobRunsInlineWithoutQueue(t *testing.T) {
	c := newTestConsumer(t)
	stockSKU(t, c, "J-LOW", 1)
	svc, err := NewService(&config.Config{Worker: config.WorkerConfig{LowStockScanCron: "@every 1h"}}, c)
	if err != nil {
		t.Fatalf("new service failed: %v", err)
	}
	svc.scanJob()
	alerts, _, err := c.InventoryService.ListLowStockAlerts(context.Background(), repository.LowStockAlertFilter{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list alerts failed: %v", err)
	}
	if len(alerts) != 1 || alerts[0].Source != constants.LowStockSourceScan {
		t.Fatalf("unexpected alerts: %+v", alerts)
	}
}

func TestScanJobLogsInlineFailure(t *testing.T) {
	c := newTestConsumer(t)
	svc, err := NewService(&config.Config{Worker: config.WorkerConfig{LowStockScanCron: "@every 1h"}}, c)
	if err != nil {
		t.Fatalf("new service failed: %v", err)
	}
	sqlDB, err := c.DB.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	_ = sqlDB.Close()

	core, logs := observer.New(zapcore.WarnLevel)
	previous := logger.L
	logger.L = zap.New(core)
	t.Cleanup(func() {
		logger.L = previous
	})

	svc.scanJob()
	entries := logs.FilterMessage("worker_low_stock_scan_inline_failed").All()
	if len(entries) != 1 {
		t.Fatalf("expected one inline failure warning, got %d", len(entries))
	}
	if entries[0].ContextMap()["trigger"] != cronTriggerName {
		t.Fatalf("unexpected log fields: %+v", entries[0].ContextMap())
	}
}
