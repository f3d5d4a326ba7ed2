package request

// CreateRecommendationRequest 创建卖出建议请求
// environment / markets 由农户手动提供时跳过外部数据源
type CreateRecommendationRequest struct {
	Crop             string       `json:"crop" example:"Onion"`
	Language         string       `json:"language" example:"mr"`
	YieldQuintals    float64      `json:"yield_quintals" binding:"required,gt=0" example:"20"`
	BaseSpoilageRate float64      `json:"base_spoilage_rate" binding:"gte=0" example:"0.001"`
	Location         *Location    `json:"location"`
	Environment      *Environment `json:"environment"`
	Markets          []*Market    `json:"markets" binding:"omitempty,dive,required"`
}

// Location 农户位置
type Location struct {
	Lat float64 `json:"lat" binding:"gte=-90,lte=90" example:"18.5204"`
	Lng float64 `json:"lng" binding:"gte=-180,lte=180" example:"73.8567"`
}

// Environment 环境数据
type Environment struct {
	TemperatureC           float64  `json:"temperature_c" binding:"gte=-50,lte=60" example:"31.5"`
	HumidityPercent        float64  `json:"humidity_percent" binding:"gte=0,lte=100" example:"60"`
	RainProbabilityPercent float64  `json:"rain_probability_percent" binding:"gte=0,lte=100" example:"20"`
	SoilMoisturePercent    *float64 `json:"soil_moisture_percent" binding:"omitempty,gte=0,lte=100"`
}

// Market 市场报价
type Market struct {
	Name               string    `json:"name" binding:"required" example:"Lasalgaon"`
	CurrentPrice       float64   `json:"current_price" binding:"gte=0" example:"2100"`
	PriceHistory7d     []float64 `json:"7_day_history"`
	CurrentVolume      float64   `json:"current_volume_quintals" binding:"gte=0"`
	AverageVolume      float64   `json:"average_volume_quintals" binding:"gte=0"`
	DistanceKm         float64   `json:"distance_km" binding:"gte=0" example:"40"`
	TransportRatePerKm float64   `json:"transport_rate_per_km" example:"15"`
	IsColdStorage      bool      `json:"is_cold_storage"`
}
