package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"agrichain/common/model"
	"agrichain/internal/business"
	"agrichain/internal/domains/common"
	"agrichain/internal/domains/common/job"
	"agrichain/internal/domains/common/response"
	"agrichain/internal/framework"
	"agrichain/pkg/errorutil"
)

var validate = validator.New()

// RecommendHandler 卖出/等待推荐 Handler
type RecommendHandler struct {
	ctx     context.Context
	meta    *job.Meta
	bizData *model.RecommendationBusinessData
	deps    *common.Dependencies
}

// NewRecommendHandler 创建推荐 Handler
// 解析标准化 Job 消息中的业务快照
func NewRecommendHandler(ctx context.Context, meta *job.Meta, payload json.RawMessage, deps *common.Dependencies) (common.HandlerServ, error) {
	if deps == nil || deps.Recommendation == nil {
		return nil, fmt.Errorf("recommendation service is not configured")
	}

	var bizData model.RecommendationBusinessData
	if err := json.Unmarshal(payload, &bizData); err != nil {
		return nil, fmt.Errorf("unmarshal business data failed: %w", err)
	}

	// advisory_id 兜底使用 Job 的业务 ID
	if bizData.AdvisoryID == "" {
		bizData.AdvisoryID = meta.ID
	}

	return &RecommendHandler{
		ctx:     ctx,
		meta:    meta,
		bizData: &bizData,
		deps:    deps,
	}, nil
}

// GetProcess 处理推荐请求
func (h *RecommendHandler) GetProcess() *response.Response {
	result := response.NewRecommendationResult()

	chain := framework.NewPreProcessor([]framework.ProcessorFunc{
		h.validate,
		func(ctx context.Context) error { return h.execute(ctx, result) },
	})
	err := chain.Run(h.ctx)

	return response.New(result, h.meta, classify(err))
}

// validate 校验业务数据
// 已知 advisory_id 时先发送 FAILED 回调再返回不可重试错误
func (h *RecommendHandler) validate(ctx context.Context) error {
	err := validate.Struct(h.bizData)
	if err == nil {
		return nil
	}

	if h.bizData.AdvisoryID != "" {
		if pubErr := h.deps.Recommendation.PublishFailure(ctx, h.meta.RequestID, h.bizData.AdvisoryID, err); pubErr != nil {
			return pubErr
		}
	}
	return errorutil.NonRetriableWithCause(errorutil.CodeInvalidPayload, "invalid recommendation payload", err)
}

// execute 调用推荐服务（计算 + 回调）
func (h *RecommendHandler) execute(ctx context.Context, result *response.RecommendationResult) error {
	input := &business.RecommendInput{
		RequestID:        h.meta.RequestID,
		AdvisoryID:       h.bizData.AdvisoryID,
		Crop:             h.bizData.Crop,
		YieldQuintals:    h.bizData.YieldQuintals,
		BaseSpoilageRate: h.bizData.BaseSpoilageRate,
		Environment:      h.bizData.Environment,
		Markets:          h.bizData.Markets,
	}

	rec, err := h.deps.Recommendation.ExecuteRecommendation(ctx, input)
	if err != nil {
		return err
	}

	h.deps.Logger.Infof(ctx, "[RecommendHandler] advisory %s: %s, best market %s, net %.2f/qtl",
		input.AdvisoryID, rec.Status, rec.BestMarket, rec.NetRealizationPerQuintal)

	result.Recommendation = rec
	return nil
}

// classify 将业务错误映射为可重试/不可重试
// 计算失败时 FAILED 回调已经发出，重试没有意义；只有回调投递失败需要重试
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, business.ErrPublishCallback):
		return errorutil.RetriableWithCause("callback queue unavailable", err)
	case errors.Is(err, business.ErrInvalidInput):
		return errorutil.NonRetriableWithCause(errorutil.CodeInvalidPayload, "environment or markets missing", err)
	case errors.Is(err, business.ErrNoCandidateMarkets):
		return errorutil.NonRetriableWithCause(errorutil.CodeNoMarkets, "no candidate markets", err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return errorutil.RetriableWithCause("recommendation timed out", err)
	default:
		return errorutil.Wrap(err)
	}
}
