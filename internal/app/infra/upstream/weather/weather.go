package weather

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"agrichain/common/model"
	"agrichain/internal/app/infra/cache"
	"agrichain/internal/app/infra/upstream"
	"agrichain/pkg/logger"
)

// Provider 环境数据提供方
type Provider interface {
	Current(ctx context.Context, loc model.Location) (model.EnvironmentSnapshot, error)
}

// Open-Meteo 字段缺失时的默认值
const (
	defaultTemperatureC    = 30.0
	defaultHumidityPercent = 60.0
	defaultSoilMoisture    = 0.25 // m³/m³
)

// OpenMeteo Open-Meteo 天气与土壤数据客户端
type OpenMeteo struct {
	baseURL string
	fetcher *upstream.Fetcher
	loader  *cache.Loader
	ttl     time.Duration
}

// NewOpenMeteo 创建客户端，ttl 为实时数据缓存时长
func NewOpenMeteo(baseURL string, fetcher *upstream.Fetcher, loader *cache.Loader, ttl time.Duration) *OpenMeteo {
	return &OpenMeteo{
		baseURL: baseURL,
		fetcher: fetcher,
		loader:  loader,
		ttl:     ttl,
	}
}

// Current 查询坐标处的当前环境
func (c *OpenMeteo) Current(ctx context.Context, loc model.Location) (model.EnvironmentSnapshot, error) {
	key := fmt.Sprintf("weather:%.2f:%.2f", loc.Lat, loc.Lng)

	body, err := c.loader.Load(ctx, key, c.ttl, func(ctx context.Context) ([]byte, error) {
		return c.fetcher.GetJSON(ctx, c.forecastURL(loc))
	})
	if err != nil {
		return model.EnvironmentSnapshot{}, fmt.Errorf("open-meteo: %w", err)
	}

	return parseForecast(body), nil
}

func (c *OpenMeteo) forecastURL(loc model.Location) string {
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.4f", loc.Lat))
	q.Set("longitude", fmt.Sprintf("%.4f", loc.Lng))
	q.Set("current", "temperature_2m,relative_humidity_2m,precipitation")
	q.Set("hourly", "precipitation_probability,soil_moisture_0_to_1cm")
	q.Set("forecast_days", "1")
	return c.baseURL + "?" + q.Encode()
}

// parseForecast 只取当前值和第一个小时的预报
func parseForecast(body []byte) model.EnvironmentSnapshot {
	res := gjson.ParseBytes(body)

	temp := defaultTemperatureC
	if v := res.Get("current.temperature_2m"); v.Exists() {
		temp = v.Float()
	}
	humidity := defaultHumidityPercent
	if v := res.Get("current.relative_humidity_2m"); v.Exists() {
		humidity = v.Float()
	}
	soil := defaultSoilMoisture
	if v := res.Get("hourly.soil_moisture_0_to_1cm.0"); v.Exists() {
		soil = v.Float()
	}
	soilPct := decimal.NewFromFloat(soil * 100).Round(1).InexactFloat64()

	return model.EnvironmentSnapshot{
		TemperatureC:           temp,
		HumidityPercent:        humidity,
		RainProbabilityPercent: res.Get("hourly.precipitation_probability.0").Float(),
		SoilMoisturePercent:    &soilPct,
		IsVerified:             true,
	}
}

// SeasonalSnapshot 上游不可用时的季节性兜底数据
func SeasonalSnapshot() model.EnvironmentSnapshot {
	soil := 22.1
	return model.EnvironmentSnapshot{
		TemperatureC:           32.5,
		HumidityPercent:        65,
		RainProbabilityPercent: 10,
		SoilMoisturePercent:    &soil,
		IsVerified:             false,
	}
}

// Fallback 上游失败时返回季节性兜底数据，永不返回错误
type Fallback struct {
	primary Provider
	log     logger.Logger
}

// NewFallback 包装 Provider
func NewFallback(primary Provider, log logger.Logger) *Fallback {
	return &Fallback{primary: primary, log: log}
}

// Current 实现 Provider
func (f *Fallback) Current(ctx context.Context, loc model.Location) (model.EnvironmentSnapshot, error) {
	env, err := f.primary.Current(ctx, loc)
	if err != nil {
		f.log.Warnf(ctx, "[Weather] %v, falling back to seasonal heuristics", err)
		return SeasonalSnapshot(), nil
	}
	return env, nil
}
