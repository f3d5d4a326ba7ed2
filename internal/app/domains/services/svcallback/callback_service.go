package svcallback

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"agrichain/common/model"
	"agrichain/internal/app/domains/modules/mdadvisory"
	"agrichain/internal/app/domains/modules/mdrecommend"
	"agrichain/pkg/logger"
)

// ResultNotifier 结果通知接口（Redis 客户端实现）
type ResultNotifier interface {
	Publish(ctx context.Context, channel string, message string) error
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CallbackService 回调处理服务
// 职责：
// 1. 处理 worker 发送的推荐回调
// 2. 更新 DB 建议状态
// 3. 暂存结果并发送 Redis PubSub 通知（Smart Wait）
type CallbackService struct {
	advisoryModule *mdadvisory.AdvisoryModule
	notifier       ResultNotifier
	resultTTL      time.Duration
	logger         logger.Logger
}

// NewCallbackService 创建回调服务实例
func NewCallbackService(
	advisoryModule *mdadvisory.AdvisoryModule,
	notifier ResultNotifier,
	resultTTL time.Duration,
	logger logger.Logger,
) *CallbackService {
	return &CallbackService{
		advisoryModule: advisoryModule,
		notifier:       notifier,
		resultTTL:      resultTTL,
		logger:         logger,
	}
}

// HandleCallback 处理推荐回调
// 返回 error 表示处理失败（需要重试）
func (s *CallbackService) HandleCallback(ctx context.Context, callback *model.RecommendationCallback) error {
	ctx = logger.WithAdvisoryID(ctx, callback.AdvisoryID)
	s.logger.Infof(ctx, "[HandleCallback] status=%s", callback.Status)

	// 1. 根据回调状态更新 DB
	if err := s.advisoryModule.ApplyCallback(ctx, callback); err != nil {
		return fmt.Errorf("update advisory status failed: %w", err)
	}

	// 2. 通知 Smart Wait；失败只记录日志（DB 已更新成功）
	if err := s.notify(ctx, callback); err != nil {
		s.logger.Warnf(ctx, "[HandleCallback] notify failed: advisory_id=%s, error=%v", callback.AdvisoryID, err)
	}

	return nil
}

// notify 暂存回调并发布到建议独立频道
func (s *CallbackService) notify(ctx context.Context, callback *model.RecommendationCallback) error {
	payload, err := json.Marshal(callback)
	if err != nil {
		return fmt.Errorf("marshal notification failed: %w", err)
	}

	if err := s.notifier.Set(ctx, mdrecommend.ResultKey(callback.AdvisoryID), payload, s.resultTTL); err != nil {
		s.logger.Warnf(ctx, "[notify] store result failed: advisory_id=%s, error=%v", callback.AdvisoryID, err)
	}

	channel := mdrecommend.ResultChannel(callback.AdvisoryID)
	if err := s.notifier.Publish(ctx, channel, string(payload)); err != nil {
		return fmt.Errorf("publish to redis failed: %w", err)
	}

	s.logger.Debugf(ctx, "[notify] sent to %s", channel)
	return nil
}
