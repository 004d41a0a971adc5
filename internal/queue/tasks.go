package queue

import (
	"encoding/json"

	"github.com/stockledger/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskLowStockCheck 销售后检查指定 SKU 的低库存
	TaskLowStockCheck = constants.TaskLowStockCheck
	// TaskLowStockScan 全量低库存扫描
	TaskLowStockScan = constants.TaskLowStockScan
)

// LowStockCheckPayload 低库存检查任务载荷
type LowStockCheckPayload struct {
	SKUIDs []uint `json:"sku_ids"`
	SaleID uint   `json:"sale_id"`
}

// LowStockScanPayload 全量扫描任务载荷
type LowStockScanPayload struct {
	Trigger string `json:"trigger"`
}

// NewLowStockCheckTask 创建低库存检查任务
func NewLowStockCheckTask(payload LowStockCheckPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLowStockCheck, body), nil
}

// NewLowStockScanTask 创建全量扫描任务
func NewLowStockScanTask(payload LowStockScanPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLowStockScan, body), nil
}
