package framework

import (
	"errors"
	"time"
)

const (
	defaultConcurrency  = 1
	defaultBufferSize   = 16
	defaultPullTimeout  = 3 * time.Second
	defaultTTR          = 30 * time.Second
	defaultErrorBackoff = time.Second
	defaultProcTimeout  = 10 * time.Second
)

// SubscriberConfig Subscriber 配置
type SubscriberConfig struct {
	QueueName    string        // 推荐计算队列
	Concurrency  int           // 拉取协程数
	Timeout      time.Duration // 单次拉取阻塞时长
	TTR          time.Duration // 未 ACK 的 Job 重新可见的时间
	Rate         time.Duration // 两次拉取之间的间隔，0 表示不限速
	ErrorBackoff time.Duration // 拉取失败后的等待
}

// Validate 校验必填项
func (c *SubscriberConfig) Validate() error {
	if c == nil {
		return errors.New("subscriber config is nil")
	}
	if c.QueueName == "" {
		return errors.New("subscriber queue name is empty")
	}
	return nil
}

// withDefaults 返回补齐默认值后的副本，不修改调用方的配置
func (c SubscriberConfig) withDefaults() *SubscriberConfig {
	if c.Concurrency <= 0 {
		c.Concurrency = defaultConcurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultPullTimeout
	}
	if c.TTR <= 0 {
		c.TTR = defaultTTR
	}
	if c.ErrorBackoff <= 0 {
		c.ErrorBackoff = defaultErrorBackoff
	}
	return &c
}

// ProcessorConfig Processor 配置
type ProcessorConfig struct {
	Concurrency int           // 计算协程数
	BufferSize  int           // Subscriber 与 Processor 之间的缓冲
	Timeout     time.Duration // 单条推荐计算的超时
}

// Validate 校验配置
func (c *ProcessorConfig) Validate() error {
	if c == nil {
		return errors.New("processor config is nil")
	}
	if c.BufferSize < 0 {
		return errors.New("processor buffer size must not be negative")
	}
	return nil
}

func (c ProcessorConfig) withDefaults() *ProcessorConfig {
	if c.Concurrency <= 0 {
		c.Concurrency = defaultConcurrency
	}
	if c.BufferSize == 0 {
		c.BufferSize = defaultBufferSize
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultProcTimeout
	}
	return &c
}
