package business

import (
	"sort"

	"agrichain/common/model"
)

// 空间优化参数
const (
	MaxMarketDistanceKm  = 400.0 // 超过该距离的市场不参与比较（唯一候选除外）
	AvgTransportSpeedKmh = 30.0
	DeadZoneLossPercent  = 15.0 // 运输途中质量损失超过该值视为不可达
)

// rankedMarket 评估结果及其对应报价
type rankedMarket struct {
	eval  model.MarketEvaluation
	quote model.MarketQuote
}

// SpatialOptimizer 多市场空间优化器
type SpatialOptimizer struct {
	profitCalc *ProfitCalculator
}

// NewSpatialOptimizer 创建空间优化器实例
func NewSpatialOptimizer(profitCalc *ProfitCalculator) *SpatialOptimizer {
	return &SpatialOptimizer{profitCalc: profitCalc}
}

// RankMarkets 评估所有候选市场并按整批净收益降序排列
// 第一个元素标记为推荐；空输入返回空列表
func (o *SpatialOptimizer) RankMarkets(
	crop CropProfile,
	yieldQuintals float64,
	env model.EnvironmentSnapshot,
	candidates []model.MarketQuote,
) []model.MarketEvaluation {
	ranked := o.rank(crop, yieldQuintals, env, candidates)

	evals := make([]model.MarketEvaluation, 0, len(ranked))
	for _, r := range ranked {
		evals = append(evals, r.eval)
	}
	return evals
}

// rank 执行过滤、评估、排序
func (o *SpatialOptimizer) rank(
	crop CropProfile,
	yieldQuintals float64,
	env model.EnvironmentSnapshot,
	candidates []model.MarketQuote,
) []rankedMarket {
	ranked := make([]rankedMarket, 0, len(candidates))

	for _, quote := range candidates {
		// 只有一个候选时保留远距离市场
		if quote.DistanceKm > MaxMarketDistanceKm && len(candidates) > 1 {
			continue
		}
		ranked = append(ranked, rankedMarket{
			eval:  o.evaluate(crop, yieldQuintals, env, quote),
			quote: quote,
		})
	}

	// 稳定排序，收益相同时保持输入顺序
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].eval.TotalNetProfit > ranked[j].eval.TotalNetProfit
	})

	if len(ranked) > 0 {
		ranked[0].eval.IsRecommended = true
	}

	return ranked
}

// evaluate 评估单个市场
func (o *SpatialOptimizer) evaluate(
	crop CropProfile,
	yieldQuintals float64,
	env model.EnvironmentSnapshot,
	quote model.MarketQuote,
) model.MarketEvaluation {
	rate := quote.TransportRatePerKm
	if rate <= 0 {
		rate = DefaultTransportRatePerKm
	}

	transitHours := quote.DistanceKm / AvgTransportSpeedKmh

	result := o.profitCalc.Calculate(ProfitInput{
		Price:              quote.CurrentPrice,
		Crop:               crop,
		DistanceKm:         quote.DistanceKm,
		TransportRatePerKm: rate,
		TemperatureC:       env.TemperatureC,
		HumidityPercent:    env.HumidityPercent,
		TransitHours:       transitHours,
		YieldQuintals:      yieldQuintals,
	})

	lossPercent := result.QualityLossFraction * 100

	return model.MarketEvaluation{
		MarketName:            quote.Name,
		DistanceKm:            quote.DistanceKm,
		MarketPrice:           quote.CurrentPrice,
		EstimatedTransitHours: roundTo1Decimal(transitHours),
		NetProfitPerQuintal:   result.NetPerUnit,
		TotalNetProfit:        roundTo2Decimals(result.NetPerUnit * yieldQuintals),
		QualityLossPercent:    roundTo2Decimals(lossPercent),
		IsDeadZone:            lossPercent > DeadZoneLossPercent,
		IsColdStorage:         quote.IsColdStorage,
		IsVerifiedReal:        quote.IsVerifiedReal,
	}
}
