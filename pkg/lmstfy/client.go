package lmstfy

import (
	"fmt"
	"math"
	"time"

	"github.com/bitleak/lmstfy/client"

	"agrichain/internal/framework"
)

// publishTries 每个 Job 最多被消费的次数
const publishTries = 3

// Client 推荐计算队列与回调队列共用的 lmstfy 客户端
// 同时实现 framework.MessageSource 与各发布方接口
type Client struct {
	cli       *client.LmstfyClient
	namespace string
}

// NewClient 创建客户端，不做连通性检查
func NewClient(host string, port int, namespace string, token string) (*Client, error) {
	if host == "" || namespace == "" {
		return nil, fmt.Errorf("lmstfy host and namespace are required")
	}
	return &Client{
		cli:       client.NewLmstfyClient(host, port, namespace, token),
		namespace: namespace,
	}, nil
}

// Consume 拉取一个 Job，timeout 内没有 Job 时返回 (nil, nil)
func (c *Client) Consume(queue string, timeout time.Duration, ttr time.Duration) (*framework.Message, error) {
	job, err := c.cli.Consume(queue, seconds(ttr), seconds(timeout))
	if err != nil {
		return nil, fmt.Errorf("lmstfy consume %s/%s: %w", c.namespace, queue, err)
	}
	if job == nil {
		return nil, nil
	}
	return &framework.Message{ID: job.ID, Queue: job.Queue, Data: job.Data}, nil
}

// Ack 删除 Job
func (c *Client) Ack(queue string, jobID string) error {
	if err := c.cli.Ack(queue, jobID); err != nil {
		return fmt.Errorf("lmstfy ack %s/%s: %w", queue, jobID, err)
	}
	return nil
}

// Publish 发布 Job，ttl 与 delay 单位为秒
func (c *Client) Publish(queue string, data []byte, ttl, delay uint32) error {
	_, err := c.PublishJob(queue, data, ttl, delay)
	return err
}

// PublishJob 发布 Job 并返回 job ID
func (c *Client) PublishJob(queue string, data []byte, ttl, delay uint32) (string, error) {
	jobID, err := c.cli.Publish(queue, data, ttl, publishTries, delay)
	if err != nil {
		return "", fmt.Errorf("lmstfy publish %s/%s: %w", c.namespace, queue, err)
	}
	return jobID, nil
}

// seconds 向上取整，lmstfy 的时间参数以秒为单位
func seconds(d time.Duration) uint32 {
	if d <= 0 {
		return 0
	}
	return uint32(math.Ceil(d.Seconds()))
}
