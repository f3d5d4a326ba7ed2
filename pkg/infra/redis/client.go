package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client Redis 客户端封装
// Pub/Sub 用于 Smart Wait 通知，KV 用于上游数据缓存
type Client struct {
	rdb *redis.Client
}

// NewClient 创建客户端并检查连接，支持密码认证
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Subscription 已确认的频道订阅
type Subscription struct {
	sub *redis.PubSub
}

// Listen 订阅 channel 并等待订阅确认
// 必须在触发发布方之前调用，否则确认前发布的消息会丢失
func (c *Client) Listen(ctx context.Context, channel string) (*Subscription, error) {
	sub := c.rdb.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe %s failed: %w", channel, err)
	}
	return &Subscription{sub: sub}, nil
}

// Wait 等待第一条消息，支持超时控制
func (s *Subscription) Wait(ctx context.Context, timeout time.Duration) (string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case msg, ok := <-s.sub.Channel():
		if !ok {
			return "", errors.New("subscription closed")
		}
		return msg.Payload, nil
	case <-timeoutCtx.Done():
		return "", timeoutCtx.Err()
	}
}

// Close 取消订阅
func (s *Subscription) Close() error {
	return s.sub.Close()
}

// Publish 向指定 channel 发布消息
func (c *Client) Publish(ctx context.Context, channel string, message string) error {
	return c.rdb.Publish(ctx, channel, message).Err()
}

// Get 读取缓存，key 不存在时 ok=false
func (c *Client) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// Set 写入缓存
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// Close 关闭连接
func (c *Client) Close() error {
	return c.rdb.Close()
}
