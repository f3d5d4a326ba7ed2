package worker

import (
	"context"
	"fmt"

	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"agrichain/internal/business"
	"agrichain/internal/domains"
	"agrichain/internal/domains/common"
	"agrichain/internal/framework"
	"agrichain/pkg/config"
	"agrichain/pkg/lmstfy"
	"agrichain/pkg/logger"
)

// Manager 管理进程内所有 Worker
type Manager interface {
	Start() error
	Shutdown()
}

// ManagerInstance 按配置创建 Worker，共享一个 lmstfy 客户端
type ManagerInstance struct {
	ctx     context.Context
	workers []Worker
	closing *atomic.Bool
	stopped chan struct{}
	logger  logger.Logger
}

// NewManagerInstance 创建 Manager
// 每个 Worker 可以单独配置回调队列，未配置时使用 lmstfy.callback_queue
func NewManagerInstance(cfg *config.Config, log logger.Logger) (Manager, error) {
	ctx := context.Background()

	client, err := lmstfy.NewClient(cfg.Lmstfy.Host, cfg.Lmstfy.Port, cfg.Lmstfy.Namespace, cfg.Lmstfy.Token)
	if err != nil {
		return nil, fmt.Errorf("create lmstfy client: %w", err)
	}

	m := &ManagerInstance{
		ctx:     ctx,
		closing: atomic.NewBool(false),
		stopped: make(chan struct{}),
		logger:  log,
	}

	for _, wc := range cfg.Workers {
		w, err := m.buildWorker(cfg.Lmstfy, wc, client)
		if err != nil {
			return nil, err
		}
		m.workers = append(m.workers, w)
	}

	return m, nil
}

func (m *ManagerInstance) buildWorker(lc config.LmstfyConfig, wc config.WorkerConfig, client *lmstfy.Client) (Worker, error) {
	queue := wc.QueueName
	if queue == "" {
		queue = lc.Queue
	}
	callbackQueue := wc.CallbackQueue
	if callbackQueue == "" {
		callbackQueue = lc.CallbackQueue
	}
	if callbackQueue == "" {
		return nil, fmt.Errorf("worker %s: callback_queue is required", wc.Name)
	}

	// 推荐计算无状态，回调发布复用同一个 lmstfy 客户端
	deps := &common.Dependencies{
		Recommendation: business.NewRecommendationService(client, callbackQueue),
		Logger:         m.logger,
	}

	m.logger.Infof(m.ctx, "[Manager] worker %s: %s -> %s", wc.Name, queue, callbackQueue)

	return NewWorkerInstance(
		m.ctx,
		wc.Name,
		&framework.SubscriberConfig{
			QueueName:    queue,
			Concurrency:  wc.Subscriber.Threads,
			Rate:         wc.Subscriber.Rate,
			Timeout:      wc.Subscriber.Timeout,
			TTR:          wc.Subscriber.TTR,
			ErrorBackoff: wc.Subscriber.ErrorBackoff,
		},
		&framework.ProcessorConfig{
			Concurrency: wc.Processor.Threads,
			BufferSize:  wc.Processor.BufferSize,
			Timeout:     wc.Processor.Timeout,
		},
		client,
		domains.GetProcess(m.logger, deps),
		m.logger,
	)
}

// Start 启动全部 Worker，阻塞到 Shutdown 完成
func (m *ManagerInstance) Start() error {
	if len(m.workers) == 0 {
		return fmt.Errorf("no workers configured")
	}

	var g errgroup.Group
	for _, w := range m.workers {
		w := w
		g.Go(func() error {
			w.Start()
			return nil
		})
	}
	m.logger.Infof(m.ctx, "[Manager] %d workers started", len(m.workers))

	err := g.Wait()
	<-m.stopped
	return err
}

// Shutdown 依次关闭 Worker，可重复调用
func (m *ManagerInstance) Shutdown() {
	if !m.closing.CAS(false, true) {
		return
	}
	for _, w := range m.workers {
		w.Shutdown()
	}
	close(m.stopped)
	m.logger.Infof(m.ctx, "[Manager] shutdown complete")
}
