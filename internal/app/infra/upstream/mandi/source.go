package mandi

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"agrichain/common/model"
	"agrichain/pkg/logger"
)

// ErrNoData 数据源可用但没有该作物的报价
var ErrNoData = errors.New("no market data")

const earthRadiusKm = 6371.0

// Query 报价查询条件
type Query struct {
	Crop     string
	Location model.Location
}

// Source 市场报价数据源
type Source interface {
	Name() string
	Quotes(ctx context.Context, q Query) ([]model.MarketQuote, error)
}

// Result 报价结果及其来源
type Result struct {
	Source string              `json:"source"`
	Quotes []model.MarketQuote `json:"quotes"`
}

// Chain 按顺序尝试数据源，返回第一个有数据的结果
type Chain struct {
	sources []Source
	log     logger.Logger
}

// NewChain 创建数据源链，最后一个数据源应当总能返回数据
func NewChain(log logger.Logger, sources ...Source) *Chain {
	return &Chain{sources: sources, log: log}
}

// Quotes 依次查询数据源
func (c *Chain) Quotes(ctx context.Context, q Query) (*Result, error) {
	var errs []error
	for _, src := range c.sources {
		quotes, err := src.Quotes(ctx, q)
		if err == nil && len(quotes) == 0 {
			err = ErrNoData
		}
		if err != nil {
			c.log.Warnf(ctx, "[MandiChain] source %s unavailable for %s: %v", src.Name(), q.Crop, err)
			errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
			continue
		}

		// 近的市场在前
		sort.SliceStable(quotes, func(i, j int) bool {
			return quotes[i].DistanceKm < quotes[j].DistanceKm
		})
		c.log.Infof(ctx, "[MandiChain] %d quotes for %s from %s", len(quotes), q.Crop, src.Name())
		return &Result{Source: src.Name(), Quotes: quotes}, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	return nil, errors.Join(errs...)
}

// Haversine 两个坐标之间的球面距离（km）
func Haversine(a, b model.Location) float64 {
	dLat := radians(b.Lat - a.Lat)
	dLng := radians(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(a.Lat))*math.Cos(radians(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func round(f float64, places int32) float64 {
	return decimal.NewFromFloat(f).Round(places).InexactFloat64()
}
