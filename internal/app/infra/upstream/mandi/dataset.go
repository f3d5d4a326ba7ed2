package mandi

import (
	"context"
	"time"

	"agrichain/common/entity"
	"agrichain/common/model"
	"agrichain/internal/business"
)

const (
	historyDays        = 7
	quintalsPerTonne   = 10.0
	datasetLookbackDay = historyDays + 1 // 最新一天 + 7 天历史
)

// PriceStore 本地成交数据（MySQL 实现见 pkg/infra/mysql）
type PriceStore interface {
	RecentPrices(ctx context.Context, crop string, since time.Time) ([]entity.MandiPrice, error)
}

// Dataset 本地市场成交数据源
type Dataset struct {
	store PriceStore
	now   func() time.Time
}

// NewDataset 创建本地数据源
func NewDataset(store PriceStore) *Dataset {
	return &Dataset{store: store, now: time.Now}
}

// Name 实现 Source
func (d *Dataset) Name() string { return "dataset" }

// Quotes 每个市场取最新一天作为当前价，之前最多 7 天作为历史
func (d *Dataset) Quotes(ctx context.Context, q Query) ([]model.MarketQuote, error) {
	since := d.now().AddDate(0, 0, -datasetLookbackDay)
	rows, err := d.store.RecentPrices(ctx, q.Crop, since)
	if err != nil {
		return nil, err
	}

	// rows 按 mandi_id、trade_date 升序
	var (
		quotes []model.MarketQuote
		group  []entity.MandiPrice
	)
	flush := func() {
		if len(group) > 0 {
			quotes = append(quotes, toQuote(group, q.Location))
		}
		group = group[:0]
	}
	for _, row := range rows {
		if len(group) > 0 && group[0].MandiID != row.MandiID {
			flush()
		}
		group = append(group, row)
	}
	flush()

	return quotes, nil
}

func toQuote(days []entity.MandiPrice, from model.Location) model.MarketQuote {
	latest := days[len(days)-1]
	history := days[:len(days)-1]
	if len(history) > historyDays {
		history = history[len(history)-historyDays:]
	}

	prices := make([]float64, 0, len(history))
	var volumeSum float64
	for _, day := range history {
		prices = append(prices, day.ModalPrice)
		volumeSum += day.ArrivalTonnes * quintalsPerTonne
	}

	current := latest.ArrivalTonnes * quintalsPerTonne
	average := current
	if len(history) > 0 {
		average = volumeSum / float64(len(history))
	}

	m := latest.Mandi
	return model.MarketQuote{
		Name:               m.Name,
		CurrentPrice:       latest.ModalPrice,
		PriceHistory7d:     prices,
		CurrentVolume:      current,
		AverageVolume:      round(average, 1),
		DistanceKm:         round(Haversine(from, model.Location{Lat: m.Latitude, Lng: m.Longitude}), 1),
		TransportRatePerKm: business.DefaultTransportRatePerKm,
		IsColdStorage:      m.IsColdStorage,
		IsVerifiedReal:     true,
	}
}
