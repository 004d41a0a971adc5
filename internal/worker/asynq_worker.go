package worker

import (
	"context"
	"encoding/json"

	"github.com/stockledger/internal/constants"
	"github.com/stockledger/internal/logger"
	"github.com/stockledger/internal/provider"
	"github.com/stockledger/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskLowStockCheck, c.handleLowStockCheck)
	mux.HandleFunc(queue.TaskLowStockScan, c.handleLowStockScan)
}

func (c *Consumer) handleLowStockCheck(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil || c.Container == nil || c.InventoryService == nil {
		logger.Debugw("worker_low_stock_check_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.LowStockCheckPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_low_stock_check_unmarshal_failed", "error", err)
		return err
	}
	if len(payload.SKUIDs) == 0 {
		logger.Debugw("worker_low_stock_check_skip_empty_payload", "sale_id", payload.SaleID)
		return nil
	}
	alerts, err := c.InventoryService.CheckLowStock(ctx, payload.SKUIDs, constants.LowStockSourceSale)
	if err != nil {
		logger.Warnw("worker_low_stock_check_failed", "sale_id", payload.SaleID, "error", err)
		return err
	}
	logger.Debugw("worker_low_stock_check_done", "sale_id", payload.SaleID, "skus", len(payload.SKUIDs), "alerts", len(alerts))
	return nil
}

func (c *Consumer) handleLowStockScan(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil || c.Container == nil || c.InventoryService == nil {
		logger.Debugw("worker_low_stock_scan_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.LowStockScanPayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			logger.Warnw("worker_low_stock_scan_unmarshal_failed", "error", err)
			return err
		}
	}
	if err := c.runLowStockScan(ctx, payload.Trigger); err != nil {
		logger.Warnw("worker_low_stock_scan_failed", "trigger", payload.Trigger, "error", err)
		return err
	}
	return nil
}

// runLowStockScan 失败时由调用方记录日志
func (c *Consumer) runLowStockScan(ctx context.Context, trigger string) error {
	alerts, err := c.InventoryService.ScanLowStock(ctx)
	if err != nil {
		return err
	}
	logger.Infow("worker_low_stock_scan_done", "trigger", trigger, "alerts", len(alerts))
	return nil
}
