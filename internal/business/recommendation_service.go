package business

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"agrichain/common/model"
)

// ErrPublishCallback 回调投递失败（队列不可用），任务可重试
var ErrPublishCallback = errors.New("failed to publish callback")

// CallbackPublisher 回调消息发布接口（由 lmstfy 客户端实现）
type CallbackPublisher interface {
	Publish(queue string, data []byte, ttl, delay uint32) error
}

// RecommendationService 推荐服务（仅负责计算，不涉及 DB 操作）
// 职责：执行推荐计算 → 发送回调到 callback 队列
type RecommendationService struct {
	synthesizer   *Synthesizer
	publisher     CallbackPublisher
	callbackQueue string
	now           func() time.Time
}

// NewRecommendationService 创建推荐服务实例
func NewRecommendationService(publisher CallbackPublisher, callbackQueue string) *RecommendationService {
	return &RecommendationService{
		synthesizer:   NewSynthesizer(),
		publisher:     publisher,
		callbackQueue: callbackQueue,
		now:           time.Now,
	}
}

// ExecuteRecommendation 执行推荐计算并发送回调
// 计算失败也会发送 FAILED 回调，并原样返回计算错误
func (s *RecommendationService) ExecuteRecommendation(ctx context.Context, input *RecommendInput) (*model.Recommendation, error) {
	// 1. 执行计算（不查询外部数据源，使用 payload 传入的快照）
	rec, calcErr := s.synthesizer.Synthesize(ctx, input)

	// 2. 构造回调消息
	callback := model.RecommendationCallback{
		ProcessedAt: s.now().Unix(),
	}
	if input != nil {
		callback.RequestID = input.RequestID
		callback.AdvisoryID = input.AdvisoryID
	}

	if calcErr != nil {
		callback.Status = model.CallbackStatusFailed
		callback.Error = calcErr.Error()
	} else {
		callback.Status = model.CallbackStatusSuccess
		callback.Recommendation = rec
	}

	if err := s.publish(callback); err != nil {
		return nil, err
	}
	return rec, calcErr
}

// PublishFailure 任务无法进入计算（如载荷校验失败）时发送 FAILED 回调
func (s *RecommendationService) PublishFailure(ctx context.Context, requestID, advisoryID string, cause error) error {
	callback := model.RecommendationCallback{
		RequestID:   requestID,
		AdvisoryID:  advisoryID,
		Status:      model.CallbackStatusFailed,
		ProcessedAt: s.now().Unix(),
	}
	if cause != nil {
		callback.Error = cause.Error()
	}
	return s.publish(callback)
}

// publish 序列化并投递回调
// ttl=0 表示永不过期, delay=0 表示立即可用
func (s *RecommendationService) publish(callback model.RecommendationCallback) error {
	callbackJSON, err := json.Marshal(callback)
	if err != nil {
		return fmt.Errorf("failed to marshal callback: %w", err)
	}
	if err := s.publisher.Publish(s.callbackQueue, callbackJSON, 0, 0); err != nil {
		return fmt.Errorf("%w: %v", ErrPublishCallback, err)
	}
	return nil
}
