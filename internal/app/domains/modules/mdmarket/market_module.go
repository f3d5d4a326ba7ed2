package mdmarket

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"agrichain/common/model"
	"agrichain/internal/app/domains/entity/etadvisory"
	"agrichain/internal/app/infra/upstream/mandi"
)

// SourceManual 请求方直接提供市场列表
const SourceManual = "manual"

// WeatherProvider 天气数据接口
type WeatherProvider interface {
	Current(ctx context.Context, loc model.Location) (model.EnvironmentSnapshot, error)
}

// QuoteProvider 市场报价接口（mandi.Chain 实现）
type QuoteProvider interface {
	Quotes(ctx context.Context, q mandi.Query) (*mandi.Result, error)
}

// GatherInput 快照采集参数
// Environment / Markets 非空时跳过对应的外部数据源
type GatherInput struct {
	Crop        string
	Location    model.Location
	Environment *model.EnvironmentSnapshot
	Markets     []model.MarketQuote
}

// MarketModule 计算快照采集模块
type MarketModule struct {
	weather WeatherProvider
	quotes  QuoteProvider
}

// NewMarketModule 创建快照采集模块
func NewMarketModule(weather WeatherProvider, quotes QuoteProvider) *MarketModule {
	return &MarketModule{weather: weather, quotes: quotes}
}

// Gather 并发采集天气与市场报价，组装计算快照
func (m *MarketModule) Gather(ctx context.Context, in GatherInput) (*etadvisory.Snapshot, error) {
	snapshot := &etadvisory.Snapshot{Location: in.Location}

	g, gctx := errgroup.WithContext(ctx)

	if in.Environment != nil {
		snapshot.Environment = *in.Environment
	} else {
		g.Go(func() error {
			env, err := m.weather.Current(gctx, in.Location)
			if err != nil {
				return fmt.Errorf("fetch weather failed: %w", err)
			}
			snapshot.Environment = env
			return nil
		})
	}

	if in.Markets != nil {
		snapshot.Markets = in.Markets
		snapshot.MarketSource = SourceManual
	} else {
		g.Go(func() error {
			res, err := m.quotes.Quotes(gctx, mandi.Query{Crop: in.Crop, Location: in.Location})
			if err != nil {
				return fmt.Errorf("fetch market quotes failed: %w", err)
			}
			snapshot.Markets = res.Quotes
			snapshot.MarketSource = res.Source
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// ListMarkets 查询作物在指定位置附近的市场报价
func (m *MarketModule) ListMarkets(ctx context.Context, crop string, loc model.Location) (*mandi.Result, error) {
	return m.quotes.Quotes(ctx, mandi.Query{Crop: crop, Location: loc})
}
