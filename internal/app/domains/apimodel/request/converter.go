package request

import (
	"agrichain/common/model"
	"agrichain/internal/app/domains/services/svadvisory"
)

// ToCreateInput 将 Request DTO 转换为服务参数
func (r *CreateRecommendationRequest) ToCreateInput(requestID string, async bool, waitSeconds int) svadvisory.CreateInput {
	return svadvisory.CreateInput{
		RequestID:        requestID,
		Crop:             r.Crop,
		Language:         r.Language,
		YieldQuintals:    r.YieldQuintals,
		BaseSpoilageRate: r.BaseSpoilageRate,
		Location:         r.Location.toModel(),
		Environment:      r.Environment.toModel(),
		Markets:          toMarketQuotes(r.Markets),
		Async:            async,
		WaitSeconds:      waitSeconds,
	}
}

func (l *Location) toModel() *model.Location {
	if l == nil {
		return nil
	}
	return &model.Location{Lat: l.Lat, Lng: l.Lng}
}

func (e *Environment) toModel() *model.EnvironmentSnapshot {
	if e == nil {
		return nil
	}
	return &model.EnvironmentSnapshot{
		TemperatureC:           e.TemperatureC,
		HumidityPercent:        e.HumidityPercent,
		RainProbabilityPercent: e.RainProbabilityPercent,
		SoilMoisturePercent:    e.SoilMoisturePercent,
	}
}

// toMarketQuotes 未提供时返回 nil，提供空列表时保留空列表
func toMarketQuotes(dtos []*Market) []model.MarketQuote {
	if dtos == nil {
		return nil
	}
	quotes := make([]model.MarketQuote, 0, len(dtos))
	for _, dto := range dtos {
		quotes = append(quotes, model.MarketQuote{
			Name:               dto.Name,
			CurrentPrice:       dto.CurrentPrice,
			PriceHistory7d:     dto.PriceHistory7d,
			CurrentVolume:      dto.CurrentVolume,
			AverageVolume:      dto.AverageVolume,
			DistanceKm:         dto.DistanceKm,
			TransportRatePerKm: dto.TransportRatePerKm,
			IsColdStorage:      dto.IsColdStorage,
		})
	}
	return quotes
}
