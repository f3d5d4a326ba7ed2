package business

import (
	"math"
	"sort"
	"strings"
)

// 衰减模型参数
const (
	// 温度每升高 10°C，衰减速率翻倍
	q10Coefficient = 2.0
	referenceTempC = 20.0

	// 超过 30°C 后每度额外加速 10%，仅对易腐品生效
	heatStressTempC   = 30.0
	heatStressFactor  = 0.1
	heatStressMinRate = 0.0001

	defaultDecayRate   = 0.005
	defaultCropDisplay = "Unknown"
)

// CropProfile 作物衰减参数
type CropProfile struct {
	Name          string  `json:"name" yaml:"name"`
	BaseDecayRate float64 `json:"base_decay_rate" yaml:"base_decay_rate"` // 基准温度下每小时质量损失比例
}

// 易腐品约 0.1%~0.5%/h，粮食与纤维作物约 0.001%~0.002%/h
var cropProfiles = map[string]CropProfile{
	"tomato": {Name: "Tomato", BaseDecayRate: 0.005},
	"onion":  {Name: "Onion", BaseDecayRate: 0.001},
	"potato": {Name: "Potato", BaseDecayRate: 0.0005},
	"cotton": {Name: "Cotton", BaseDecayRate: 0.00001},
	"wheat":  {Name: "Wheat", BaseDecayRate: 0.00002},
	"rice":   {Name: "Rice", BaseDecayRate: 0.00002},
}

// LookupCrop 按名称查找作物参数（不区分大小写）
// 未知作物返回易腐品默认值
func LookupCrop(name string) CropProfile {
	key := strings.ToLower(strings.TrimSpace(name))
	if profile, ok := cropProfiles[key]; ok {
		return profile
	}

	display := strings.TrimSpace(name)
	if display == "" {
		display = defaultCropDisplay
	}
	return CropProfile{Name: display, BaseDecayRate: defaultDecayRate}
}

// 未指定作物时按界面语言选择当地主要作物
var languageDefaultCrops = map[string]string{
	"te": "Cotton",
	"ta": "Rice",
	"gu": "Groundnut",
	"pa": "Wheat",
	"mr": "Sugarcane",
	"hi": "Mustard",
	"en": "Tomato",
}

// ResolveCropName 返回请求实际使用的作物名
func ResolveCropName(crop, language string) string {
	if c := strings.TrimSpace(crop); c != "" && !strings.EqualFold(c, "default") {
		return c
	}
	if name, ok := languageDefaultCrops[strings.ToLower(language)]; ok {
		return name
	}
	return "Tomato"
}

// KnownCrops 返回所有内置作物参数，按名称排序
func KnownCrops() []CropProfile {
	profiles := make([]CropProfile, 0, len(cropProfiles))
	for _, p := range cropProfiles {
		profiles = append(profiles, p)
	}
	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].Name < profiles[j].Name
	})
	return profiles
}

// WithBaseRate 用请求中指定的基准速率覆盖作物默认值（<= 0 时忽略）
func (p CropProfile) WithBaseRate(rate float64) CropProfile {
	if rate > 0 {
		p.BaseDecayRate = rate
	}
	return p
}

// QualityLoss 计算在给定温度下经过 hours 小时后的质量损失比例，结果在 [0, 1]
// humidity 目前不参与计算
func (p CropProfile) QualityLoss(temperatureC, humidity, hours float64) float64 {
	_ = humidity

	relativeRate := math.Pow(q10Coefficient, (temperatureC-referenceTempC)/10.0)
	if temperatureC > heatStressTempC && p.BaseDecayRate > heatStressMinRate {
		relativeRate *= 1 + (temperatureC-heatStressTempC)*heatStressFactor
	}

	loss := p.BaseDecayRate * relativeRate * hours
	return math.Max(0, math.Min(1, loss))
}

// QualityLoss 按作物名称计算质量损失比例
func QualityLoss(crop string, temperatureC, humidity, hours float64) float64 {
	return LookupCrop(crop).QualityLoss(temperatureC, humidity, hours)
}
