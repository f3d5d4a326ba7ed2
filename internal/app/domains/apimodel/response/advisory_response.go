package response

import (
	"time"

	"agrichain/common/model"
)

// AdvisoryResponse 卖出建议响应（DTO）
type AdvisoryResponse struct {
	ID             string                `json:"id"`
	RequestID      string                `json:"request_id"`
	Crop           string                `json:"crop"`
	YieldQuintals  float64               `json:"yield_quintals"`
	Status         string                `json:"status"`
	MarketSource   string                `json:"market_source,omitempty"`
	Location       *model.Location       `json:"location,omitempty"`
	Recommendation *model.Recommendation `json:"recommendation,omitempty"`
	Error          string                `json:"error,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// MarketsResponse 附近市场报价（DTO）
type MarketsResponse struct {
	Crop    string              `json:"crop"`
	Source  string              `json:"source"`
	Markets []model.MarketQuote `json:"markets"`
}

// CropResponse 作物衰减参数（DTO）
type CropResponse struct {
	Name          string  `json:"name"`
	BaseDecayRate float64 `json:"base_decay_rate"`
}
