package mandi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"agrichain/common/model"
	"agrichain/internal/app/infra/cache"
	"agrichain/internal/app/infra/upstream"
	"agrichain/internal/business"
)

// e-NAM 接口（UMANG API Setu）
const (
	enamApmcEndpoint  = "getApmcNew"
	enamPriceEndpoint = "getAgmGpsMinMaxModelPrice"
)

// Enam e-NAM 全国农产品市场数据源
// APMC 目录按长 TTL 缓存，价格按短 TTL 缓存
type Enam struct {
	baseURL string
	token   string
	fetcher *upstream.Fetcher
	loader  *cache.Loader
	policy  cache.Policy
}

// NewEnam 创建 e-NAM 数据源
func NewEnam(baseURL, token string, fetcher *upstream.Fetcher, loader *cache.Loader, policy cache.Policy) *Enam {
	return &Enam{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		fetcher: fetcher,
		loader:  loader,
		policy:  policy,
	}
}

// Name 实现 Source
func (e *Enam) Name() string { return "enam" }

type apmc struct {
	name     string
	location model.Location
}

type enamDay struct {
	date    string
	price   float64
	arrival float64
}

// Quotes 实现 Source
func (e *Enam) Quotes(ctx context.Context, q Query) ([]model.MarketQuote, error) {
	if e.token == "" {
		return nil, errors.New("e-NAM token not configured")
	}

	directory, err := e.directory(ctx)
	if err != nil {
		return nil, err
	}

	body, err := e.load(ctx, "enam:prices", enamPriceEndpoint, e.policy.ShortTTL)
	if err != nil {
		return nil, err
	}

	// 按 APMC 分组
	days := make(map[string][]enamDay)
	gjson.GetBytes(body, "data").ForEach(func(_, rec gjson.Result) bool {
		if !strings.EqualFold(rec.Get("commodity").String(), q.Crop) {
			return true
		}
		id := rec.Get("apmc_id").String()
		days[id] = append(days[id], enamDay{
			date:    rec.Get("created_at").String(),
			price:   rec.Get("modal_price").Float(),
			arrival: rec.Get("commodity_arrivals").Float(),
		})
		return true
	})

	ids := make([]string, 0, len(days))
	for id := range days {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	quotes := make([]model.MarketQuote, 0, len(ids))
	for _, id := range ids {
		market, ok := directory[id]
		if !ok {
			continue
		}
		quotes = append(quotes, e.toQuote(market, days[id], q.Location))
	}

	return quotes, nil
}

func (e *Enam) toQuote(market apmc, days []enamDay, from model.Location) model.MarketQuote {
	// ISO 日期可直接按字符串排序
	sort.SliceStable(days, func(i, j int) bool { return days[i].date < days[j].date })

	latest := days[len(days)-1]
	history := days[:len(days)-1]
	if len(history) > historyDays {
		history = history[len(history)-historyDays:]
	}

	prices := make([]float64, 0, len(history))
	average := latest.arrival
	if len(history) > 0 {
		var sum float64
		for _, d := range history {
			prices = append(prices, d.price)
			sum += d.arrival
		}
		average = sum / float64(len(history))
	}

	return model.MarketQuote{
		Name:               market.name,
		CurrentPrice:       latest.price,
		PriceHistory7d:     prices,
		CurrentVolume:      latest.arrival,
		AverageVolume:      round(average, 1),
		DistanceKm:         round(Haversine(from, market.location), 1),
		TransportRatePerKm: business.DefaultTransportRatePerKm,
		IsVerifiedReal:     true,
	}
}

// directory APMC 目录（apmc_id → 名称与坐标）
func (e *Enam) directory(ctx context.Context) (map[string]apmc, error) {
	body, err := e.load(ctx, "enam:apmc", enamApmcEndpoint, e.policy.LongTTL)
	if err != nil {
		return nil, err
	}

	dir := make(map[string]apmc)
	gjson.GetBytes(body, "data").ForEach(func(_, rec gjson.Result) bool {
		dir[rec.Get("apmc_id").String()] = apmc{
			name: rec.Get("apmc_name").String(),
			location: model.Location{
				Lat: rec.Get("latitude").Float(),
				Lng: rec.Get("longitude").Float(),
			},
		}
		return true
	})
	if len(dir) == 0 {
		return nil, fmt.Errorf("e-NAM apmc directory: %w", ErrNoData)
	}
	return dir, nil
}

func (e *Enam) load(ctx context.Context, key, endpoint string, ttl time.Duration) ([]byte, error) {
	url := fmt.Sprintf("%s/%s/%s", e.baseURL, endpoint, e.token)
	return e.loader.Load(ctx, key, ttl, func(ctx context.Context) ([]byte, error) {
		body, err := e.fetcher.GetJSON(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("e-NAM %s: %w", endpoint, err)
		}
		return body, nil
	})
}
