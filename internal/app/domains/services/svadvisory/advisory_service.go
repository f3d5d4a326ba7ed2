package svadvisory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"agrichain/common/model"
	"agrichain/internal/app/domains/entity/etadvisory"
	"agrichain/internal/app/domains/modules/mdadvisory"
	"agrichain/internal/app/domains/modules/mdmarket"
	"agrichain/internal/app/domains/modules/mdrecommend"
	"agrichain/internal/app/domains/repo/rpadvisory"
	"agrichain/internal/app/infra/upstream/mandi"
	"agrichain/internal/app/pkg/errorx"
	"agrichain/internal/app/pkg/idgen"
	"agrichain/internal/business"
	"agrichain/pkg/logger"
)

// CreateInput 创建建议参数
type CreateInput struct {
	RequestID        string
	Crop             string
	Language         string
	YieldQuintals    float64
	BaseSpoilageRate float64
	Location         *model.Location
	Environment      *model.EnvironmentSnapshot // 非空时跳过天气数据源
	Markets          []model.MarketQuote        // 非空时跳过市场数据源
	Async            bool
	WaitSeconds      int
}

// AdvisoryService 建议服务，负责建议业务编排
type AdvisoryService struct {
	advisoryModule  *mdadvisory.AdvisoryModule
	marketModule    *mdmarket.MarketModule
	recommendModule *mdrecommend.RecommendModule
	synthesizer     *business.Synthesizer
	maxWait         time.Duration
	logger          logger.Logger
	newID           func() string
}

// NewAdvisoryService 创建建议服务实例
func NewAdvisoryService(
	advisoryModule *mdadvisory.AdvisoryModule,
	marketModule *mdmarket.MarketModule,
	recommendModule *mdrecommend.RecommendModule,
	maxWait time.Duration,
	log logger.Logger,
) *AdvisoryService {
	return &AdvisoryService{
		advisoryModule:  advisoryModule,
		marketModule:    marketModule,
		recommendModule: recommendModule,
		synthesizer:     business.NewSynthesizer(),
		maxWait:         maxWait,
		logger:          log,
		newID:           idgen.GenerateID,
	}
}

// CreateAdvisory 创建建议（完整业务流程）
// 1. 确定作物与位置
// 2. 采集计算快照（天气 + 市场）
// 3. 创建建议并落库
// 4. 同步模式：进程内计算并落库
// 5. 异步模式：投递到计算队列，可选 Smart Wait
//
// 同步计算失败时返回已落库的 FAILED 建议和错误
func (s *AdvisoryService) CreateAdvisory(ctx context.Context, in CreateInput) (*etadvisory.Advisory, error) {
	crop := business.ResolveCropName(in.Crop, in.Language)

	loc := model.DefaultLocation()
	if in.Location != nil {
		loc = *in.Location
	}

	snapshot, err := s.marketModule.Gather(ctx, mdmarket.GatherInput{
		Crop:        crop,
		Location:    loc,
		Environment: in.Environment,
		Markets:     in.Markets,
	})
	if err != nil {
		if errors.Is(err, mandi.ErrNoData) {
			return nil, fmt.Errorf("%w: %v", errorx.ErrMarketDataMissing, err)
		}
		return nil, fmt.Errorf("gather snapshot failed: %w", err)
	}

	requestID := in.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}

	advisory, err := etadvisory.NewAdvisory(s.newID(), requestID, crop, in.YieldQuintals, in.BaseSpoilageRate, snapshot)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errorx.ErrRecommendationInput, err)
	}

	if err := s.advisoryModule.CreateAdvisory(ctx, advisory); err != nil {
		return nil, fmt.Errorf("save advisory failed: %w", err)
	}
	ctx = logger.WithAdvisoryID(ctx, advisory.ID)

	s.logger.Infof(ctx, "[CreateAdvisory] advisory %s created: crop=%s, markets=%d, source=%s, async=%v",
		advisory.ID, crop, len(snapshot.Markets), snapshot.MarketSource, in.Async)

	if !in.Async {
		return s.computeNow(ctx, advisory)
	}
	return s.dispatch(ctx, advisory, in.WaitSeconds)
}

// computeNow 进程内计算
func (s *AdvisoryService) computeNow(ctx context.Context, advisory *etadvisory.Advisory) (*etadvisory.Advisory, error) {
	rec, calcErr := s.synthesizer.Synthesize(ctx, &business.RecommendInput{
		RequestID:        advisory.RequestID,
		AdvisoryID:       advisory.ID,
		Crop:             advisory.Crop,
		YieldQuintals:    advisory.YieldQuintals,
		BaseSpoilageRate: advisory.BaseSpoilageRate,
		Environment:      &advisory.Snapshot.Environment,
		Markets:          advisory.Snapshot.Markets,
	})

	if calcErr != nil {
		s.markFailed(ctx, advisory, calcErr.Error())
		if errors.Is(calcErr, business.ErrNoCandidateMarkets) || errors.Is(calcErr, business.ErrInvalidInput) {
			return advisory, fmt.Errorf("%w: %v", errorx.ErrRecommendationInput, calcErr)
		}
		return advisory, fmt.Errorf("compute recommendation failed: %w", calcErr)
	}

	if err := advisory.Complete(rec); err != nil {
		return nil, fmt.Errorf("update advisory entity failed: %w", err)
	}
	if err := s.advisoryModule.SaveResult(ctx, advisory); err != nil {
		s.logger.Errorf(ctx, "[computeNow] persist result failed: advisory_id=%s, error=%v", advisory.ID, err)
		return nil, fmt.Errorf("persist recommendation failed: %w", err)
	}

	return advisory, nil
}

// dispatch 投递计算任务，waitSeconds > 0 时 Smart Wait
// 等待超时返回 PROCESSING 状态的建议
func (s *AdvisoryService) dispatch(ctx context.Context, advisory *etadvisory.Advisory, waitSeconds int) (*etadvisory.Advisory, error) {
	wait := time.Duration(waitSeconds) * time.Second
	if wait > s.maxWait {
		wait = s.maxWait
	}

	if wait <= 0 {
		if err := s.recommendModule.Dispatch(ctx, advisory); err != nil {
			return s.dispatchFailed(ctx, advisory, err)
		}
		return advisory, nil
	}

	callback, err := s.recommendModule.DispatchAndWait(ctx, advisory, wait)
	switch {
	case err == nil:
		s.applyCallback(ctx, advisory, callback)
		return advisory, nil
	case errors.Is(err, mdrecommend.ErrWaitTimeout):
		s.logger.Infof(ctx, "[dispatch] advisory %s still processing after %v", advisory.ID, wait)
		return advisory, nil
	case errors.Is(err, mdrecommend.ErrDispatch):
		return s.dispatchFailed(ctx, advisory, err)
	case errors.Is(err, mdrecommend.ErrListen):
		// 订阅失败时任务尚未投递，退化为不等待
		s.logger.Warnf(ctx, "[dispatch] smart wait unavailable: advisory_id=%s, error=%v", advisory.ID, err)
		if err := s.recommendModule.Dispatch(ctx, advisory); err != nil {
			return s.dispatchFailed(ctx, advisory, err)
		}
		return advisory, nil
	default:
		// 任务已投递，等待或解析结果失败只影响本次响应，由客户端轮询
		s.logger.Warnf(ctx, "[dispatch] advisory %s dispatched, wait failed: %v", advisory.ID, err)
		return advisory, nil
	}
}

// applyCallback 用回调结果更新内存中的建议（DB 已由回调消费者更新）
func (s *AdvisoryService) applyCallback(ctx context.Context, advisory *etadvisory.Advisory, callback *model.RecommendationCallback) {
	var err error
	if callback.Status == model.CallbackStatusSuccess {
		err = advisory.Complete(callback.Recommendation)
	} else {
		err = advisory.Fail(callback.Error)
	}
	if err != nil {
		s.logger.Warnf(ctx, "[applyCallback] advisory %s: %v", advisory.ID, err)
	}
}

func (s *AdvisoryService) dispatchFailed(ctx context.Context, advisory *etadvisory.Advisory, err error) (*etadvisory.Advisory, error) {
	s.logger.Errorf(ctx, "[dispatch] publish job failed: advisory_id=%s, error=%v", advisory.ID, err)
	s.markFailed(ctx, advisory, err.Error())
	return advisory, fmt.Errorf("%w: %v", errorx.ErrQueueUnavailable, err)
}

// markFailed 标记失败并落库，落库失败只记录日志
func (s *AdvisoryService) markFailed(ctx context.Context, advisory *etadvisory.Advisory, message string) {
	if err := advisory.Fail(message); err != nil {
		return
	}
	if err := s.advisoryModule.SaveResult(ctx, advisory); err != nil {
		s.logger.Errorf(ctx, "[markFailed] persist failure failed: advisory_id=%s, error=%v", advisory.ID, err)
	}
}

// GetAdvisory 查询建议
func (s *AdvisoryService) GetAdvisory(ctx context.Context, id string) (*etadvisory.Advisory, error) {
	advisory, err := s.advisoryModule.GetAdvisory(ctx, id)
	if errors.Is(err, rpadvisory.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", errorx.ErrAdvisoryNotFound, id)
	}
	return advisory, err
}

// ListAdvisories 查询某作物最近的建议
func (s *AdvisoryService) ListAdvisories(ctx context.Context, crop string, limit int) ([]*etadvisory.Advisory, error) {
	return s.advisoryModule.ListRecent(ctx, crop, limit)
}

// ListMarkets 查询附近市场报价（地图层），返回实际使用的作物名
func (s *AdvisoryService) ListMarkets(ctx context.Context, crop, language string, loc *model.Location) (string, *mandi.Result, error) {
	from := model.DefaultLocation()
	if loc != nil {
		from = *loc
	}

	resolved := business.ResolveCropName(crop, language)
	res, err := s.marketModule.ListMarkets(ctx, resolved, from)
	if err != nil {
		return resolved, nil, fmt.Errorf("%w: %v", errorx.ErrMarketDataMissing, err)
	}
	return resolved, res, nil
}

// Crops 内置作物衰减参数
func (s *AdvisoryService) Crops() []business.CropProfile {
	return business.KnownCrops()
}
