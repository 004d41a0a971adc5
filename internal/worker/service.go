package worker

import (
	"context"
	"errors"
	"time"

	"github.com/stockledger/internal/config"
	"github.com/stockledger/internal/logger"
	"github.com/stockledger/internal/queue"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
)

const (
	cronTriggerName = "cron"
	scanUniqueTTL   = 10 * time.Minute
)

// Service 后台任务服务：asynq 消费者 + 定时低库存扫描
// 说明：队列未启用时只运行定时器，扫描在进程内同步执行。
type Service struct {
	name      string
	server    *asynq.Server
	mux       *asynq.ServeMux
	consumer  *Consumer
	scheduler *cron.Cron
	done      chan struct{}
}

// NewService 创建后台任务服务
func NewService(cfg *config.Config, consumer *Consumer) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	s := &Service{
		name:     "worker",
		consumer: consumer,
		done:     make(chan struct{}),
	}
	if cfg.Queue.Enabled {
		opt, serverCfg := queue.BuildServerConfig(&cfg.Queue)
		s.server = asynq.NewServer(opt, serverCfg)
		s.mux = asynq.NewServeMux()
		consumer.Register(s.mux)
	}
	scheduler, err := newScheduler(cfg.Worker.LowStockScanCron, s.scanJob)
	if err != nil {
		return nil, err
	}
	s.scheduler = scheduler
	if s.server == nil && s.scheduler == nil {
		return nil, errors.New("worker has nothing to run (queue disabled and no scan schedule)")
	}
	return s, nil
}

// newScheduler 空表达式返回 nil
func newScheduler(spec string, job func()) (*cron.Cron, error) {
	if spec == "" {
		return nil, nil
	}
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(spec, job); err != nil {
		return nil, err
	}
	return scheduler, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || (s.server == nil && s.scheduler == nil) {
		return errors.New("worker not initialized")
	}
	if s.scheduler != nil {
		s.scheduler.Start()
	}
	if s.server != nil {
		return s.server.Run(s.mux)
	}
	select {
	case <-ctx.Done():
	case <-s.done:
	}
	return nil
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil {
		return nil
	}
	if s.scheduler != nil {
		stopped := s.scheduler.Stop()
		select {
		case <-stopped.Done():
		case <-ctx.Done():
		}
	}
	if s.server != nil {
		s.server.Shutdown()
	}
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	return nil
}

// scanJob 队列可用时投递去重的扫描任务，否则直接扫描
func (s *Service) scanJob() {
	if s == nil || s.consumer == nil || s.consumer.Container == nil {
		return
	}
	if s.consumer.QueueClient.Enabled() {
		err := s.consumer.QueueClient.EnqueueLowStockScan(queue.LowStockScanPayload{Trigger: cronTriggerName}, scanUniqueTTL)
		if err != nil {
			logger.Warnw("worker_low_stock_scan_enqueue_failed", "error", err)
		}
		return
	}
	if s.consumer.InventoryService == nil {
		return
	}
	if err := s.consumer.runLowStockScan(context.Background(), cronTriggerName); err != nil {
		logger.Warnw("worker_low_stock_scan_inline_failed", "trigger", cronTriggerName, "error", err)
	}
}
