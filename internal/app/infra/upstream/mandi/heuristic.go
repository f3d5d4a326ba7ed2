package mandi

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"

	"agrichain/common/model"
	"agrichain/internal/business"
)

// 兜底报价参数（卢比/公担）
const (
	heuristicMinPrice      = 2500.0
	heuristicPriceSpan     = 3000.0
	heuristicHistoryJitter = 100.0
	heuristicRegionJitter  = 200.0
	heuristicRegionalCount = 3
	heuristicAverageVolume = 150.0
)

// Heuristic 预测性兜底数据源，保证任何情况下都有报价
// 同一作物和位置生成的报价固定不变
type Heuristic struct{}

// NewHeuristic 创建兜底数据源
func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

// Name 实现 Source
func (h *Heuristic) Name() string { return "heuristic" }

// Quotes 实现 Source，永不返回错误
func (h *Heuristic) Quotes(ctx context.Context, q Query) ([]model.MarketQuote, error) {
	seed := hashSeed(fmt.Sprintf("%s|%.2f|%.2f", strings.ToLower(q.Crop), q.Location.Lat, q.Location.Lng))
	rng := rand.New(rand.NewSource(seed))

	base := round(heuristicMinPrice+rng.Float64()*heuristicPriceSpan, 2)

	history := make([]float64, historyDays)
	for i := range history {
		history[i] = round(base+jitter(rng, heuristicHistoryJitter), 2)
	}

	quotes := []model.MarketQuote{{
		Name:               "Local District Mandi",
		CurrentPrice:       base,
		PriceHistory7d:     history,
		CurrentVolume:      float64(50 + rng.Intn(150)),
		AverageVolume:      heuristicAverageVolume,
		DistanceKm:         round(5+rng.Float64()*10, 1),
		TransportRatePerKm: business.DefaultTransportRatePerKm,
	}}

	for i := 1; i <= heuristicRegionalCount; i++ {
		quotes = append(quotes, model.MarketQuote{
			Name:               fmt.Sprintf("Regional Mandi #%d", i),
			CurrentPrice:       round(base+jitter(rng, heuristicRegionJitter), 2),
			DistanceKm:         round(20+rng.Float64()*30, 1),
			TransportRatePerKm: business.DefaultTransportRatePerKm,
		})
	}

	return quotes, nil
}

// jitter 返回 [-span, span) 的随机偏移
func jitter(rng *rand.Rand, span float64) float64 {
	return (rng.Float64()*2 - 1) * span
}

// hashSeed 基于字符串生成确定性种子
func hashSeed(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
