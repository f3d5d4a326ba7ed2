package framework

import (
	"context"
	"sync"
	"time"

	"github.com/bitleak/lmstfy/client"

	"agrichain/pkg/lmstfyx"
	"agrichain/pkg/logger"
)

// Processor 从缓冲中取 Job，执行推荐计算，按结果决定是否 ACK
type Processor struct {
	cfg      *ProcessorConfig
	proc     lmstfyx.Proc
	source   MessageSource
	logger   Logger
	draining chan struct{}
	once     sync.Once
	wg       sync.WaitGroup
}

// NewProcessor 创建处理器，cfg 中未设置的项使用默认值
func NewProcessor(cfg *ProcessorConfig, proc lmstfyx.Proc, source MessageSource, logger Logger) *Processor {
	return &Processor{
		cfg:      cfg.withDefaults(),
		proc:     proc,
		source:   source,
		logger:   logger,
		draining: make(chan struct{}),
	}
}

// BufferSize 输入缓冲区大小
func (p *Processor) BufferSize() int {
	return p.cfg.BufferSize
}

// Start 启动计算协程
func (p *Processor) Start(ctx context.Context, in <-chan *Message) error {
	p.logger.Infof(ctx, "[Processor] workers=%d timeout=%s", p.cfg.Concurrency, p.cfg.Timeout)

	for i := 0; i < p.cfg.Concurrency; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			p.run(ctx, id, in)
		}(i)
	}
	return nil
}

// SignalShutdown 进入排空模式：处理完缓冲中已有的 Job 后退出
func (p *Processor) SignalShutdown() {
	p.once.Do(func() { close(p.draining) })
}

// Wait 等待计算协程退出
func (p *Processor) Wait() {
	p.wg.Wait()
	p.logger.Infof(context.Background(), "[Processor] stopped")
}

func (p *Processor) run(ctx context.Context, id int, in <-chan *Message) {
	for {
		select {
		case msg := <-in:
			p.handle(ctx, id, msg)
		case <-p.draining:
			drained := 0
			for {
				select {
				case msg := <-in:
					p.handle(ctx, id, msg)
					drained++
				default:
					if drained > 0 {
						p.logger.Infof(ctx, "[Processor-%d] drained %d jobs", id, drained)
					}
					return
				}
			}
		}
	}
}

func (p *Processor) handle(ctx context.Context, id int, msg *Message) {
	if msg == nil {
		return
	}
	start := time.Now()

	jobCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()
	jobCtx = logger.WithWorkerID(jobCtx, id)

	resp := p.proc(jobCtx, &client.Job{ID: msg.ID, Queue: msg.Queue, Data: msg.Data})
	if resp == nil {
		resp = lmstfyx.Bury(nil)
	}

	switch {
	case resp.Action == lmstfyx.JobRespStatusBury:
		p.logger.Errorf(jobCtx, "[Processor-%d] job %s buried", id, msg.ID)
	case !resp.Action.ShouldAck():
		p.logger.Warnf(jobCtx, "[Processor-%d] job %s released for redelivery", id, msg.ID)
	}

	if resp.Action.ShouldAck() {
		// ACK 不受单条计算超时影响
		if err := p.source.Ack(msg.Queue, msg.ID); err != nil {
			p.logger.Errorf(jobCtx, "[Processor-%d] ack %s: %v", id, msg.ID, err)
		}
	}

	p.logger.Infof(jobCtx, "[Processor-%d] job %s %s in %v", id, msg.ID, resp.Action, time.Since(start))
}
