package mdrecommend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"agrichain/common/model"
	"agrichain/internal/app/domains/entity/etadvisory"
	"agrichain/internal/app/infra/cache"
	"agrichain/pkg/infra/redis"
)

var (
	// ErrDispatch 计算任务投递失败
	ErrDispatch = errors.New("dispatch recommendation job failed")
	// ErrWaitTimeout Smart Wait 超时，建议仍在计算中
	ErrWaitTimeout = errors.New("wait for recommendation result timed out")
	// ErrListen 订阅结果频道失败，此时任务尚未投递
	ErrListen = errors.New("listen recommendation result failed")
)

// JobPublisher 任务发布接口（lmstfy 客户端实现）
type JobPublisher interface {
	PublishJob(queue string, data []byte, ttl, delay uint32) (string, error)
}

// ResultWaiter 已建立的结果订阅
type ResultWaiter interface {
	Wait(ctx context.Context, timeout time.Duration) (string, error)
	Close() error
}

// ResultListener 结果订阅接口
type ResultListener interface {
	Listen(ctx context.Context, channel string) (ResultWaiter, error)
}

// redisListener 将 redis.Client 适配为 ResultListener
type redisListener struct {
	client *redis.Client
}

// NewRedisListener 基于 Redis PubSub 的结果订阅
func NewRedisListener(client *redis.Client) ResultListener {
	return &redisListener{client: client}
}

func (l *redisListener) Listen(ctx context.Context, channel string) (ResultWaiter, error) {
	sub, err := l.client.Listen(ctx, channel)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// ResultChannel 结果通知频道（业务约定：advisory:result:{id}）
func ResultChannel(advisoryID string) string {
	return fmt.Sprintf("advisory:result:%s", advisoryID)
}

// ResultKey 结果暂存 key，与频道同名
func ResultKey(advisoryID string) string {
	return ResultChannel(advisoryID)
}

// RecommendModule 推荐任务模块
// 职责：
// 1. 构造标准化任务消息并投递到计算队列
// 2. 订阅结果频道，实现 Smart Wait
type RecommendModule struct {
	publisher JobPublisher
	listener  ResultListener
	results   cache.Cache
	queueName string
}

// NewRecommendModule 创建推荐任务模块
// results 可为 nil，此时超时后不再查询暂存结果
func NewRecommendModule(publisher JobPublisher, listener ResultListener, results cache.Cache, queueName string) *RecommendModule {
	return &RecommendModule{
		publisher: publisher,
		listener:  listener,
		results:   results,
		queueName: queueName,
	}
}

// Dispatch 投递推荐计算任务
func (m *RecommendModule) Dispatch(ctx context.Context, advisory *etadvisory.Advisory) error {
	data, err := json.Marshal(buildJob(advisory))
	if err != nil {
		return fmt.Errorf("marshal recommendation job failed: %w", err)
	}

	if _, err := m.publisher.PublishJob(m.queueName, data, 0, 0); err != nil {
		return fmt.Errorf("%w: %v", ErrDispatch, err)
	}
	return nil
}

// DispatchAndWait 先订阅结果频道再投递任务，等待回调结果
// 只有返回 ErrListen 或 ErrDispatch 时任务未投递成功；其余错误（含 ErrWaitTimeout）任务已在队列中
func (m *RecommendModule) DispatchAndWait(ctx context.Context, advisory *etadvisory.Advisory, timeout time.Duration) (*model.RecommendationCallback, error) {
	waiter, err := m.listener.Listen(ctx, ResultChannel(advisory.ID))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrListen, err)
	}
	defer waiter.Close()

	if err := m.Dispatch(ctx, advisory); err != nil {
		return nil, err
	}

	payload, err := waiter.Wait(ctx, timeout)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return m.lookupResult(ctx, advisory.ID)
		}
		return nil, fmt.Errorf("wait result failed: %w", err)
	}

	return decodeCallback([]byte(payload))
}

// lookupResult 超时后查询暂存结果（通知可能在订阅断开期间发出）
func (m *RecommendModule) lookupResult(ctx context.Context, advisoryID string) (*model.RecommendationCallback, error) {
	if m.results == nil {
		return nil, ErrWaitTimeout
	}

	data, ok, err := m.results.Get(ctx, ResultKey(advisoryID))
	if err != nil || !ok {
		return nil, ErrWaitTimeout
	}
	return decodeCallback(data)
}

func decodeCallback(data []byte) (*model.RecommendationCallback, error) {
	var callback model.RecommendationCallback
	if err := json.Unmarshal(data, &callback); err != nil {
		return nil, fmt.Errorf("unmarshal result failed: %w", err)
	}
	return &callback, nil
}

// buildJob 构造标准化任务消息，携带完整计算快照
func buildJob(advisory *etadvisory.Advisory) model.RecommendationJob {
	data := model.RecommendationBusinessData{
		AdvisoryID:       advisory.ID,
		Crop:             advisory.Crop,
		YieldQuintals:    advisory.YieldQuintals,
		BaseSpoilageRate: advisory.BaseSpoilageRate,
	}
	if advisory.Snapshot != nil {
		env := advisory.Snapshot.Environment
		data.Environment = &env
		data.Markets = advisory.Snapshot.Markets
	}

	return model.RecommendationJob{
		Payload: model.RecommendationPayload{
			Data: model.RecommendationJobData{
				RequestID:  advisory.RequestID,
				OrgID:      "0",
				ActionType: model.ActionTypeRecommendationCompute,
				ID:         advisory.ID,
				Data:       data,
			},
		},
	}
}
