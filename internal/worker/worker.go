package worker

import (
	"context"
	"fmt"
	"sync"

	"agrichain/internal/framework"
	"agrichain/pkg/lmstfyx"
	"agrichain/pkg/logger"
)

// Worker 一条队列对应一个 Worker
type Worker interface {
	Start()
	Shutdown()
	GetName() string
}

// WorkerInstance Subscriber 拉取，Processor 计算并 ACK，两者通过 jobs 缓冲连接
type WorkerInstance struct {
	ctx        context.Context
	name       string
	subscriber *framework.Subscriber
	processor  *framework.Processor
	jobs       chan *framework.Message
	done       chan struct{}
	stopOnce   sync.Once
	logger     logger.Logger
}

// NewWorkerInstance 创建 Worker，配置非法时直接返回错误
func NewWorkerInstance(
	ctx context.Context,
	name string,
	subscriberCfg *framework.SubscriberConfig,
	processorCfg *framework.ProcessorConfig,
	source framework.MessageSource,
	proc lmstfyx.Proc,
	log logger.Logger,
) (Worker, error) {
	if err := subscriberCfg.Validate(); err != nil {
		return nil, fmt.Errorf("worker %s: %w", name, err)
	}
	if err := processorCfg.Validate(); err != nil {
		return nil, fmt.Errorf("worker %s: %w", name, err)
	}

	processor := framework.NewProcessor(processorCfg, proc, source, log)

	return &WorkerInstance{
		ctx:        ctx,
		name:       name,
		subscriber: framework.NewSubscriber(subscriberCfg, source, log),
		processor:  processor,
		jobs:       make(chan *framework.Message, processor.BufferSize()),
		done:       make(chan struct{}),
		logger:     log,
	}, nil
}

// Start 启动 Processor 与 Subscriber，阻塞到 Shutdown 完成
func (w *WorkerInstance) Start() {
	// Processor 先就绪，避免拉到的 Job 无人消费
	if err := w.processor.Start(w.ctx, w.jobs); err != nil {
		w.logger.Errorf(w.ctx, "[Worker] %s: start processor: %v", w.name, err)
		return
	}
	if err := w.subscriber.Start(w.ctx, w.jobs); err != nil {
		w.logger.Errorf(w.ctx, "[Worker] %s: start subscriber: %v", w.name, err)
		return
	}
	w.logger.Infof(w.ctx, "[Worker] %s running", w.name)

	<-w.done
}

// Shutdown 先停拉取，再把缓冲里的 Job 处理完
func (w *WorkerInstance) Shutdown() {
	w.stopOnce.Do(func() {
		w.logger.Infof(w.ctx, "[Worker] %s draining", w.name)

		w.subscriber.Stop()
		w.subscriber.Wait()

		w.processor.SignalShutdown()
		w.processor.Wait()

		close(w.done)
		w.logger.Infof(w.ctx, "[Worker] %s stopped", w.name)
	})
}

// GetName Worker 名称
func (w *WorkerInstance) GetName() string {
	return w.name
}
