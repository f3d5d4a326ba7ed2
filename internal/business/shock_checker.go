package business

import (
	"fmt"
	"math"

	"agrichain/common/model"
)

// 冲击检测阈值
const (
	PriceShockZScore        = -2.0
	GlutVolumeMultiplier    = 2.0
	RainShockProbabilityPct = 80.0

	flatStdDevEpsilon = 1e-9
)

// ShockChecker 市场冲击检测器（规则引擎）
type ShockChecker struct{}

// NewShockChecker 创建冲击检测器实例
func NewShockChecker() *ShockChecker {
	return &ShockChecker{}
}

// CheckPrice 基于 7 日价格历史的 Z-Score 检测价格崩盘
// 历史少于 2 个点返回 NORMAL；样本标准差小于 flatStdDevEpsilon 时视为价格无波动，
// 同样返回 NORMAL，不计算 Z-Score
func (c *ShockChecker) CheckPrice(currentPrice float64, history []float64) model.ShockAlert {
	// 规则 1：数据不足
	if len(history) < 2 {
		return model.ShockAlert{
			Status:  model.ShockStatusNormal,
			Message: "Insufficient data for shock analysis.",
		}
	}

	mean, stdDev := sampleStats(history)

	// 规则 2：价格完全无波动，Z-Score 无意义
	if stdDev < flatStdDevEpsilon {
		return model.ShockAlert{
			Status:  model.ShockStatusNormal,
			Message: "Market is perfectly stable.",
		}
	}

	// 规则 3：低于均值 2 个标准差以上
	z := (currentPrice - mean) / stdDev
	if z < PriceShockZScore {
		return model.ShockAlert{
			Status:      model.ShockStatusPrice,
			Message:     fmt.Sprintf("CRITICAL: Price crashed by %.2fσ below the 7-day average.", math.Abs(z)),
			IsShock:     true,
			PivotAdvice: "EMERGENCY: Mandi prices just crashed. ABORT transit. Divert to cold storage or sell to a local processor immediately.",
		}
	}

	return model.ShockAlert{
		Status:  model.ShockStatusNormal,
		Message: "Prices are within normal volatility ranges.",
	}
}

// CheckVolume 到货量超过均值 2 倍视为供给过剩
func (c *ShockChecker) CheckVolume(currentVolume, averageVolume float64) model.ShockAlert {
	if currentVolume > GlutVolumeMultiplier*averageVolume {
		return model.ShockAlert{
			Status:      model.ShockStatusGlut,
			Message:     "High volume detected at neighboring mandis. Price crash imminent.",
			IsShock:     true,
			PivotAdvice: "Sell now or Wait 3 days. Market Glut detected.",
		}
	}

	return model.ShockAlert{
		Status:  model.ShockStatusNormal,
		Message: "Arrival volumes are within normal ranges.",
	}
}

// CheckWeather 降雨概率超过阈值时建议遮盖或推迟运输
func (c *ShockChecker) CheckWeather(rainProbabilityPercent float64) model.ShockAlert {
	if rainProbabilityPercent > RainShockProbabilityPct {
		return model.ShockAlert{
			Status:      model.ShockStatusWeather,
			Message:     fmt.Sprintf("Severe weather: %.0f%% chance of rain on the transport route.", rainProbabilityPercent),
			IsShock:     true,
			PivotAdvice: "Cover the harvest with tarpaulin immediately or delay transport until the rain passes.",
		}
	}

	return model.ShockAlert{
		Status:  model.ShockStatusNormal,
		Message: "No severe weather expected.",
	}
}

// sampleStats 计算均值和样本标准差（n-1）
func sampleStats(values []float64) (float64, float64) {
	n := float64(len(values))

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / n

	sq := 0.0
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}

	return mean, math.Sqrt(sq / (n - 1))
}
