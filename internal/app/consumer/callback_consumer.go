package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"agrichain/common/model"
	"agrichain/internal/framework"
	"agrichain/pkg/logger"
)

// CallbackHandler 回调处理接口（svcallback.CallbackService 实现）
type CallbackHandler interface {
	HandleCallback(ctx context.Context, callback *model.RecommendationCallback) error
}

// CallbackConsumer 回调消费者
// 职责：
// 1. 从 lmstfy 队列消费回调消息
// 2. 解析消息并调用 CallbackService 处理
// 3. 确认消息（ACK）
type CallbackConsumer struct {
	source    framework.MessageSource
	handler   CallbackHandler
	queueName string
	logger    logger.Logger

	// 消费配置
	timeout      time.Duration // 拉取消息超时
	ttr          time.Duration // Time-To-Run
	pollInterval time.Duration
}

// Config 消费者配置
type Config struct {
	QueueName    string        // 队列名称
	Timeout      time.Duration // 拉取消息超时
	TTR          time.Duration // Time-To-Run
	PollInterval time.Duration // 出错后的等待间隔
}

// NewCallbackConsumer 创建回调消费者实例
func NewCallbackConsumer(
	source framework.MessageSource,
	handler CallbackHandler,
	config *Config,
	logger logger.Logger,
) *CallbackConsumer {
	return &CallbackConsumer{
		source:       source,
		handler:      handler,
		queueName:    config.QueueName,
		timeout:      config.Timeout,
		ttr:          config.TTR,
		pollInterval: config.PollInterval,
		logger:       logger,
	}
}

// Start 启动消费循环，ctx 取消后返回 ctx.Err()
func (c *CallbackConsumer) Start(ctx context.Context) error {
	c.logger.Infof(ctx, "[CallbackConsumer] started: queue=%s, timeout=%v, ttr=%v", c.queueName, c.timeout, c.ttr)

	for {
		select {
		case <-ctx.Done():
			c.logger.Infof(ctx, "[CallbackConsumer] stopped")
			return ctx.Err()
		default:
		}

		if err := c.consumeOne(ctx); err != nil {
			c.logger.Errorf(ctx, "[CallbackConsumer] consume failed: %v", err)
			select {
			case <-ctx.Done():
			case <-time.After(c.pollInterval):
			}
		}
	}
}

// consumeOne 消费一条消息
func (c *CallbackConsumer) consumeOne(ctx context.Context) error {
	// 1. 从队列拉取消息
	msg, err := c.source.Consume(c.queueName, c.timeout, c.ttr)
	if err != nil {
		return fmt.Errorf("consume message failed: %w", err)
	}
	if msg == nil {
		return nil
	}

	// 2. 解析回调消息
	callback, err := parseMessage(msg.Data)
	if err != nil {
		// 解析失败，直接 ACK（避免死循环）
		_ = c.source.Ack(c.queueName, msg.ID)
		return fmt.Errorf("job %s: %w", msg.ID, err)
	}

	msgCtx := logger.WithTraceID(ctx, callback.RequestID)

	// 3. 处理回调；失败不 ACK，由 TTR 机制重投
	if err := c.handler.HandleCallback(msgCtx, callback); err != nil {
		return fmt.Errorf("job %s advisory %s: %w", msg.ID, callback.AdvisoryID, err)
	}

	// 4. 确认消息
	if err := c.source.Ack(c.queueName, msg.ID); err != nil {
		return fmt.Errorf("ack job %s failed: %w", msg.ID, err)
	}

	c.logger.Infof(msgCtx, "[CallbackConsumer] job %s processed: advisory_id=%s", msg.ID, callback.AdvisoryID)
	return nil
}

// parseMessage 解析并校验回调消息
func parseMessage(data []byte) (*model.RecommendationCallback, error) {
	var callback model.RecommendationCallback
	if err := json.Unmarshal(data, &callback); err != nil {
		return nil, fmt.Errorf("unmarshal callback failed: %w", err)
	}

	if callback.AdvisoryID == "" {
		return nil, errors.New("advisory_id is required")
	}
	if callback.Status == "" {
		return nil, errors.New("status is required")
	}

	return &callback, nil
}
