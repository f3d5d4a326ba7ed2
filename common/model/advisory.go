package model

// EnvironmentSnapshot 当前环境快照（天气 + 土壤）
type EnvironmentSnapshot struct {
	TemperatureC           float64  `json:"temperature_c"`
	HumidityPercent        float64  `json:"humidity_percent"`
	RainProbabilityPercent float64  `json:"rain_probability_percent"`
	SoilMoisturePercent    *float64 `json:"soil_moisture_percent,omitempty"`
	IsVerified             bool     `json:"is_verified_env"` // false 表示使用了季节性兜底数据
}

// MarketQuote 单个 mandi 的报价快照
type MarketQuote struct {
	Name               string    `json:"name"`
	CurrentPrice       float64   `json:"current_price"` // 卢比/公担
	PriceHistory7d     []float64 `json:"7_day_history"` // 最近 7 天价格，按时间顺序
	CurrentVolume      float64   `json:"current_volume_quintals"`
	AverageVolume      float64   `json:"average_volume_quintals"`
	DistanceKm         float64   `json:"distance_km"`
	TransportRatePerKm float64   `json:"transport_rate_per_km"` // <= 0 时使用默认运费
	IsColdStorage      bool      `json:"is_cold_storage"`
	IsVerifiedReal     bool      `json:"is_verified_real"`
}

// MarketEvaluation 单个市场的评估结果
type MarketEvaluation struct {
	MarketName            string  `json:"market_name"`
	DistanceKm            float64 `json:"distance_km"`
	MarketPrice           float64 `json:"market_price"`
	EstimatedTransitHours float64 `json:"estimated_transit_hours"`
	NetProfitPerQuintal   float64 `json:"net_profit_per_quintal"`
	TotalNetProfit        float64 `json:"total_net_profit"`
	QualityLossPercent    float64 `json:"quality_loss_pct"`
	IsDeadZone            bool    `json:"is_dead_zone"`
	IsRecommended         bool    `json:"is_recommended"`
	IsColdStorage         bool    `json:"is_cold_storage"`
	IsVerifiedReal        bool    `json:"is_verified_real"`
}

// ShockAlert 市场冲击告警
// 推荐结果中总是存在，没有冲击时 Status 为 NORMAL、IsShock 为 false，调用方应以 IsShock 判断是否告警
type ShockAlert struct {
	Status      string            `json:"status"` // NORMAL/SHOCK_ALERT/GLUT_WARNING/WEATHER_SHOCK
	Message     string            `json:"message"`
	IsShock     bool              `json:"is_shock"`
	PivotAdvice string            `json:"pivot_advice,omitempty"`
	PivotTarget *MarketEvaluation `json:"pivot_target,omitempty"`
}

// 冲击状态常量
const (
	ShockStatusNormal  = "NORMAL"
	ShockStatusPrice   = "SHOCK_ALERT"
	ShockStatusGlut    = "GLUT_WARNING"
	ShockStatusWeather = "WEATHER_SHOCK"
)

// ProfitBreakdown 最佳市场的收益拆解（整批）
type ProfitBreakdown struct {
	GrossRevenue       float64 `json:"gross_revenue"`
	LogisticsCost      float64 `json:"logistics_cost"`
	SpoilagePenalty    float64 `json:"spoilage_penalty"`
	QualityLossPercent float64 `json:"quality_loss_pct"`
}

// Recommendation 最终建议
type Recommendation struct {
	Status                   string              `json:"status"` // GREEN/RED
	Crop                     string              `json:"crop"`
	YieldQuintals            float64             `json:"yield_quintals"`
	BestMarket               string              `json:"best_mandi"`
	NetRealizationPerQuintal float64             `json:"net_realization_inr_per_quintal"`
	TotalNetProfit           float64             `json:"total_net_profit"`
	ForecastPerQuintal48h    float64             `json:"forecast_48h_inr_per_quintal"`
	ForecastTotalProfit48h   float64             `json:"forecast_48h_total_profit"`
	Breakdown                ProfitBreakdown     `json:"breakdown"`
	MarketStats              MarketQuote         `json:"mandi_stats"`
	Markets                  []MarketEvaluation  `json:"regional_options"`
	ShockAlert               *ShockAlert         `json:"shock_alert,omitempty"` // 引擎总是填充，是否告警看 is_shock
	Environment              EnvironmentSnapshot `json:"weather"`
}

// 建议状态常量
const (
	RecommendationGreen = "GREEN" // 立即出售
	RecommendationRed   = "RED"   // 等待或存在风险
)
