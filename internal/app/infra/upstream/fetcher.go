package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

// ErrBadStatus 上游返回非 2xx
var ErrBadStatus = errors.New("upstream returned bad status")

// Options 上游访问参数
type Options struct {
	Timeout       time.Duration
	RatePerSecond float64
	MaxRetries    uint64
	Backoff       time.Duration // 首次重试间隔，指数增长
}

// Fetcher 限流 + 重试的 JSON GET 客户端
// 政府数据接口经常限流或短暂不可用，所有上游共用同一限流器
type Fetcher struct {
	client     *http.Client
	limiter    *rate.Limiter
	maxRetries uint64
	backoff    time.Duration
}

// NewFetcher 创建 Fetcher
func NewFetcher(opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 200 * time.Millisecond
	}

	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}

	return &Fetcher{
		client:     &http.Client{Timeout: opts.Timeout},
		limiter:    rate.NewLimiter(limit, 1),
		maxRetries: opts.MaxRetries,
		backoff:    opts.Backoff,
	}
}

// GetJSON 请求 url 并返回合法 JSON 响应体
// 5xx、429 和网络错误会重试，其余 4xx 直接失败
func (f *Fetcher) GetJSON(ctx context.Context, url string) ([]byte, error) {
	var body []byte

	backoff := retry.WithMaxRetries(f.maxRetries, retry.NewExponential(f.backoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := f.limiter.Wait(ctx); err != nil {
			return err
		}

		b, err := f.get(ctx, url)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	return body, nil
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, retry.RetryableError(err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, retry.RetryableError(err)
	}

	if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
		return nil, retry.RetryableError(fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode))
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}

	if !gjson.ValidBytes(b) {
		return nil, fmt.Errorf("upstream returned invalid json (%d bytes)", len(b))
	}

	return b, nil
}
