package business

import (
	"math"

	"github.com/shopspring/decimal"
)

// DefaultTransportRatePerKm 报价未给出运费时使用的默认运费（卢比/公里）
const DefaultTransportRatePerKm = 15.0

// ProfitInput 单个市场的收益计算参数
type ProfitInput struct {
	Price              float64 // 卢比/公担
	Crop               CropProfile
	DistanceKm         float64
	TransportRatePerKm float64
	TemperatureC       float64
	HumidityPercent    float64
	TransitHours       float64
	YieldQuintals      float64
}

// ProfitResult 单位（每公担）收益拆解
type ProfitResult struct {
	TransportPerUnit    float64
	QualityLossFraction float64
	QualityLossValue    float64
	NetPerUnit          float64 // 已四舍五入到两位小数，可以为负
}

// ProfitCalculator 净收益计算器
type ProfitCalculator struct{}

// NewProfitCalculator 创建收益计算器实例
func NewProfitCalculator() *ProfitCalculator {
	return &ProfitCalculator{}
}

// Calculate 计算每公担净收益
// 运费按整批分摊，产量小于 1 公担时按 1 公担计
func (c *ProfitCalculator) Calculate(in ProfitInput) ProfitResult {
	units := math.Max(1, in.YieldQuintals)
	transportPerUnit := in.DistanceKm * in.TransportRatePerKm / units

	lossFraction := in.Crop.QualityLoss(in.TemperatureC, in.HumidityPercent, in.TransitHours)
	lossValue := lossFraction * in.Price

	return ProfitResult{
		TransportPerUnit:    transportPerUnit,
		QualityLossFraction: lossFraction,
		QualityLossValue:    lossValue,
		NetPerUnit:          roundTo2Decimals(in.Price - transportPerUnit - lossValue),
	}
}

// NetRealization 只返回每公担净收益
func (c *ProfitCalculator) NetRealization(in ProfitInput) float64 {
	return c.Calculate(in).NetPerUnit
}

// roundTo2Decimals 四舍五入到两位小数
func roundTo2Decimals(f float64) float64 {
	return decimal.NewFromFloat(f).Round(2).InexactFloat64()
}

// roundTo1Decimal 四舍五入到一位小数
func roundTo1Decimal(f float64) float64 {
	return decimal.NewFromFloat(f).Round(1).InexactFloat64()
}
