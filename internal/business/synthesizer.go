package business

import (
	"context"
	"errors"
	"fmt"

	"agrichain/common/model"
)

var (
	// ErrInvalidInput 环境快照或市场列表缺失，或产量不为正
	ErrInvalidInput = errors.New("invalid recommendation input")
	// ErrNoCandidateMarkets 过滤后没有可评估的市场
	ErrNoCandidateMarkets = errors.New("no candidate markets")
)

// 48 小时预测参数
const (
	forecastPriceDrift   = 1.05
	forecastTempDeltaC   = 2.0
	forecastTransitHours = 50.0

	// 收益拆解中的物流成本统一按该费率计算
	LogisticsRatePerKm = 15.0
)

// RecommendInput 推荐计算输入（全部数据由调用方提供）
type RecommendInput struct {
	RequestID        string                     `json:"request_id"`
	AdvisoryID       string                     `json:"advisory_id"`
	Crop             string                     `json:"crop"`
	YieldQuintals    float64                    `json:"yield_quintals"`
	BaseSpoilageRate float64                    `json:"base_spoilage_rate,omitempty"`
	Environment      *model.EnvironmentSnapshot `json:"environment"`
	Markets          []model.MarketQuote        `json:"markets"`
}

// Synthesizer 推荐合成器（组装所有计算结果）
type Synthesizer struct {
	profitCalc   *ProfitCalculator
	optimizer    *SpatialOptimizer
	shockChecker *ShockChecker
}

// NewSynthesizer 创建推荐合成器实例
func NewSynthesizer() *Synthesizer {
	profitCalc := NewProfitCalculator()
	return &Synthesizer{
		profitCalc:   profitCalc,
		optimizer:    NewSpatialOptimizer(profitCalc),
		shockChecker: NewShockChecker(),
	}
}

// Synthesize 执行完整的推荐流程
// 1. 今日市场排序
// 2. 最佳市场 48 小时预测
// 3. 冲击检测（价格 > 到货量 > 天气）
// 4. 状态判定与替代市场
func (s *Synthesizer) Synthesize(ctx context.Context, input *RecommendInput) (*model.Recommendation, error) {
	if input == nil || input.Environment == nil || input.Markets == nil {
		return nil, ErrInvalidInput
	}
	if input.YieldQuintals <= 0 {
		return nil, fmt.Errorf("yield %.2f: %w", input.YieldQuintals, ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	crop := LookupCrop(input.Crop).WithBaseRate(input.BaseSpoilageRate)
	env := *input.Environment

	// 1. 今日排序
	ranked := s.optimizer.rank(crop, input.YieldQuintals, env, input.Markets)
	if len(ranked) == 0 {
		return nil, fmt.Errorf("crop %s: %w", crop.Name, ErrNoCandidateMarkets)
	}
	best := ranked[0]

	// 2. 48 小时预测
	forecastPerUnit := s.forecast(crop, input.YieldQuintals, env, best.quote)

	status := model.RecommendationRed
	if best.eval.NetProfitPerQuintal >= forecastPerUnit {
		status = model.RecommendationGreen
	}

	// 3. 冲击检测
	alert := s.detectShock(best.quote, env)
	if alert.IsShock {
		status = model.RecommendationRed
		s.attachPivot(&alert, ranked)
	}

	// 4. 收益拆解
	lossFraction := crop.QualityLoss(env.TemperatureC, env.HumidityPercent, best.quote.DistanceKm/AvgTransportSpeedKmh)
	gross := best.quote.CurrentPrice * input.YieldQuintals

	evals := make([]model.MarketEvaluation, 0, len(ranked))
	for _, r := range ranked {
		evals = append(evals, r.eval)
	}

	return &model.Recommendation{
		Status:                   status,
		Crop:                     crop.Name,
		YieldQuintals:            input.YieldQuintals,
		BestMarket:               best.eval.MarketName,
		NetRealizationPerQuintal: best.eval.NetProfitPerQuintal,
		TotalNetProfit:           best.eval.TotalNetProfit,
		ForecastPerQuintal48h:    forecastPerUnit,
		ForecastTotalProfit48h:   roundTo2Decimals(forecastPerUnit * input.YieldQuintals),
		Breakdown: model.ProfitBreakdown{
			GrossRevenue:       roundTo2Decimals(gross),
			LogisticsCost:      roundTo2Decimals(best.quote.DistanceKm * LogisticsRatePerKm),
			SpoilagePenalty:    roundTo2Decimals(lossFraction * gross),
			QualityLossPercent: roundTo2Decimals(lossFraction * 100),
		},
		MarketStats: best.quote,
		Markets:     evals,
		ShockAlert:  &alert,
		Environment: env,
	}, nil
}

// forecast 计算最佳市场 48 小时后的每公担净收益
func (s *Synthesizer) forecast(crop CropProfile, yieldQuintals float64, env model.EnvironmentSnapshot, quote model.MarketQuote) float64 {
	rate := quote.TransportRatePerKm
	if rate <= 0 {
		rate = DefaultTransportRatePerKm
	}

	return s.profitCalc.NetRealization(ProfitInput{
		Price:              quote.CurrentPrice * forecastPriceDrift,
		Crop:               crop,
		DistanceKm:         quote.DistanceKm,
		TransportRatePerKm: rate,
		TemperatureC:       env.TemperatureC + forecastTempDeltaC,
		HumidityPercent:    env.HumidityPercent,
		TransitHours:       forecastTransitHours,
		YieldQuintals:      yieldQuintals,
	})
}

// detectShock 按优先级返回第一个生效的冲击，没有则返回价格检测的 NORMAL 结果
func (s *Synthesizer) detectShock(quote model.MarketQuote, env model.EnvironmentSnapshot) model.ShockAlert {
	priceAlert := s.shockChecker.CheckPrice(quote.CurrentPrice, quote.PriceHistory7d)
	if priceAlert.IsShock {
		return priceAlert
	}

	if volumeAlert := s.shockChecker.CheckVolume(quote.CurrentVolume, quote.AverageVolume); volumeAlert.IsShock {
		return volumeAlert
	}

	if weatherAlert := s.shockChecker.CheckWeather(env.RainProbabilityPercent); weatherAlert.IsShock {
		return weatherAlert
	}

	return priceAlert
}

// attachPivot 选择排名中第一个非主市场且非 dead zone 的市场作为替代目的地
func (s *Synthesizer) attachPivot(alert *model.ShockAlert, ranked []rankedMarket) {
	for _, r := range ranked[1:] {
		if r.eval.IsDeadZone {
			continue
		}

		target := r.eval
		alert.PivotTarget = &target
		alert.PivotAdvice = fmt.Sprintf("%s Redirect to %s for a projected total of ₹%.2f.",
			alert.PivotAdvice, target.MarketName, target.TotalNetProfit)
		return
	}
}
