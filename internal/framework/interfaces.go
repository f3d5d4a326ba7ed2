package framework

import (
	"context"
	"time"
)

// MessageSource 队列抽象，生产环境由 pkg/lmstfy 实现
type MessageSource interface {
	// Consume 阻塞至多 timeout，没有 Job 时返回 (nil, nil)
	// 拉到的 Job 在 ttr 内未 ACK 会被重新投递
	Consume(queue string, timeout time.Duration, ttr time.Duration) (*Message, error)

	Ack(queue string, jobID string) error
}

// Logger 框架只依赖带 ctx 的格式化日志
type Logger interface {
	Debugf(ctx context.Context, format string, args ...interface{})
	Infof(ctx context.Context, format string, args ...interface{})
	Warnf(ctx context.Context, format string, args ...interface{})
	Errorf(ctx context.Context, format string, args ...interface{})
}

// ProcessorFunc PreProcessor 中的一步
type ProcessorFunc func(ctx context.Context) error
