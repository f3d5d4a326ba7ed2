package framework

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Subscriber 从推荐计算队列拉取 Job，交给 Processor
type Subscriber struct {
	cfg     *SubscriberConfig
	source  MessageSource
	logger  Logger
	limiter *rate.Limiter

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSubscriber 创建订阅者
// Rate 为两次拉取的最小间隔，所有拉取协程共享同一个限速器
func NewSubscriber(cfg *SubscriberConfig, source MessageSource, logger Logger) *Subscriber {
	cfg = cfg.withDefaults()

	limit := rate.Inf
	if cfg.Rate > 0 {
		limit = rate.Every(cfg.Rate)
	}

	return &Subscriber{
		cfg:     cfg,
		source:  source,
		logger:  logger,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Start 启动拉取协程，parentCtx 结束或调用 Stop 后退出
func (s *Subscriber) Start(parentCtx context.Context, out chan<- *Message) error {
	ctx, cancel := context.WithCancel(parentCtx)
	s.cancel = cancel

	s.logger.Infof(ctx, "[Subscriber] queue=%s pullers=%d", s.cfg.QueueName, s.cfg.Concurrency)

	for i := 0; i < s.cfg.Concurrency; i++ {
		s.wg.Add(1)
		go func(id int) {
			defer s.wg.Done()
			s.pull(ctx, id, out)
		}(i)
	}
	return nil
}

// Stop 停止拉取，已拉到但未送出的 Job 等 TTR 到期后重新可见
func (s *Subscriber) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Wait 等待拉取协程全部退出
func (s *Subscriber) Wait() {
	s.wg.Wait()
	s.logger.Infof(context.Background(), "[Subscriber] queue=%s stopped", s.cfg.QueueName)
}

func (s *Subscriber) pull(ctx context.Context, id int, out chan<- *Message) {
	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return
		}

		msg, err := s.source.Consume(s.cfg.QueueName, s.cfg.Timeout, s.cfg.TTR)
		if err != nil {
			s.logger.Warnf(ctx, "[Subscriber-%d] consume %s: %v", id, s.cfg.QueueName, err)
			if !sleepCtx(ctx, s.cfg.ErrorBackoff) {
				return
			}
			continue
		}
		if msg == nil {
			if ctx.Err() != nil {
				return
			}
			continue
		}

		select {
		case out <- msg:
			s.logger.Debugf(ctx, "[Subscriber-%d] job %s dispatched", id, msg.ID)
		case <-ctx.Done():
			s.logger.Warnf(ctx, "[Subscriber-%d] shutting down, job %s left for redelivery", id, msg.ID)
			return
		}
	}
}

// sleepCtx 等待 d，ctx 先结束时返回 false
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
