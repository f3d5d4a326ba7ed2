package business

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agrichain/common/model"
)

func calmHistory(price float64) []float64 {
	return []float64{price - 20, price + 10, price - 5, price + 15, price, price - 10, price + 5}
}

func TestSynthesize_InvalidInput(t *testing.T) {
	s := NewSynthesizer()
	env := &model.EnvironmentSnapshot{TemperatureC: 25}

	_, err := s.Synthesize(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.Synthesize(context.Background(), &RecommendInput{Crop: "Onion", YieldQuintals: 10, Markets: []model.MarketQuote{}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.Synthesize(context.Background(), &RecommendInput{Crop: "Onion", YieldQuintals: 10, Environment: env})
	assert.ErrorIs(t, err, ErrInvalidInput)

	markets := []model.MarketQuote{{Name: "A", CurrentPrice: 100}}
	for _, yield := range []float64{0, -3} {
		_, err = s.Synthesize(context.Background(), &RecommendInput{Crop: "Onion", YieldQuintals: yield, Environment: env, Markets: markets})
		assert.ErrorIs(t, err, ErrInvalidInput, "yield %v", yield)
	}
}

func TestSynthesize_EmptyCandidateSet(t *testing.T) {
	_, err := NewSynthesizer().Synthesize(context.Background(), &RecommendInput{
		Crop:          "Onion",
		YieldQuintals: 10,
		Environment:   &model.EnvironmentSnapshot{TemperatureC: 25},
		Markets:       []model.MarketQuote{},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoCandidateMarkets))
}

func TestSynthesize_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSynthesizer().Synthesize(ctx, &RecommendInput{
		Crop:          "Onion",
		YieldQuintals: 1,
		Environment:   &model.EnvironmentSnapshot{},
		Markets:       []model.MarketQuote{{Name: "A", CurrentPrice: 100}},
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSynthesize_EndToEndSingleMarket(t *testing.T) {
	market := model.MarketQuote{
		Name:               "Local APMC",
		CurrentPrice:       2000,
		PriceHistory7d:     calmHistory(2000),
		CurrentVolume:      200,
		AverageVolume:      250,
		DistanceKm:         50,
		TransportRatePerKm: 15,
	}
	env := &model.EnvironmentSnapshot{TemperatureC: 28, HumidityPercent: 50, RainProbabilityPercent: 10, IsVerified: true}

	t.Run("durable crop keeps near full price", func(t *testing.T) {
		rec, err := NewSynthesizer().Synthesize(context.Background(), &RecommendInput{
			Crop: "Wheat", YieldQuintals: 10, Environment: env, Markets: []model.MarketQuote{market},
		})
		require.NoError(t, err)

		assert.InDelta(t, 1925.0, rec.NetRealizationPerQuintal, 0.5)
		assert.Equal(t, "Local APMC", rec.BestMarket)
		assert.False(t, rec.ShockAlert.IsShock)
		// 价格上涨 5% 且粮食几乎不损耗，等待更划算
		assert.Greater(t, rec.ForecastPerQuintal48h, rec.NetRealizationPerQuintal)
		assert.Equal(t, model.RecommendationRed, rec.Status)
	})

	t.Run("perishable crop should sell now", func(t *testing.T) {
		rec, err := NewSynthesizer().Synthesize(context.Background(), &RecommendInput{
			Crop: "tomato", YieldQuintals: 10, Environment: env, Markets: []model.MarketQuote{market},
		})
		require.NoError(t, err)

		assert.Equal(t, "Tomato", rec.Crop)
		assert.Less(t, rec.ForecastPerQuintal48h, rec.NetRealizationPerQuintal)
		assert.Equal(t, model.RecommendationGreen, rec.Status)

		assert.Equal(t, 20000.0, rec.Breakdown.GrossRevenue)
		assert.Equal(t, 750.0, rec.Breakdown.LogisticsCost)
		assert.Greater(t, rec.Breakdown.SpoilagePenalty, 0.0)
		assert.Equal(t, rec.Markets[0].QualityLossPercent, rec.Breakdown.QualityLossPercent)
		assert.Equal(t, market, rec.MarketStats)
		assert.Equal(t, *env, rec.Environment)
	})
}

func TestSynthesize_PriceShockForcesRedAndPivots(t *testing.T) {
	crashed := model.MarketQuote{
		Name:           "Crashed Mandi",
		CurrentPrice:   3000,
		PriceHistory7d: []float64{3400, 3420, 3380, 3410, 3390, 3400, 3430},
		DistanceKm:     10,
	}
	deadZone := model.MarketQuote{Name: "Far Hot Mandi", CurrentPrice: 2950, DistanceKm: 250}
	alternative := model.MarketQuote{Name: "Alternate Mandi", CurrentPrice: 2700, DistanceKm: 40}

	rec, err := NewSynthesizer().Synthesize(context.Background(), &RecommendInput{
		Crop:          "Tomato",
		YieldQuintals: 10,
		Environment:   &model.EnvironmentSnapshot{TemperatureC: 36, HumidityPercent: 70},
		Markets:       []model.MarketQuote{alternative, deadZone, crashed},
	})
	require.NoError(t, err)

	assert.Equal(t, "Crashed Mandi", rec.BestMarket)
	assert.Equal(t, model.RecommendationRed, rec.Status)
	require.NotNil(t, rec.ShockAlert)
	assert.Equal(t, model.ShockStatusPrice, rec.ShockAlert.Status)
	assert.True(t, rec.ShockAlert.IsShock)

	require.NotNil(t, rec.ShockAlert.PivotTarget)
	assert.Equal(t, "Alternate Mandi", rec.ShockAlert.PivotTarget.MarketName)
	assert.False(t, rec.ShockAlert.PivotTarget.IsDeadZone)
	assert.Contains(t, rec.ShockAlert.PivotAdvice, "Alternate Mandi")
}

// 36°C 下番茄每小时损失约 2.4%，200km（约 6.7h）损失约 16%，属于 dead zone
func pivotFixture() (crashed, farDead, alternative model.MarketQuote) {
	crashed = model.MarketQuote{
		Name:           "Crashed Mandi",
		CurrentPrice:   3000,
		PriceHistory7d: []float64{3400, 3420, 3380, 3410, 3390, 3400, 3430},
		DistanceKm:     10,
	}
	farDead = model.MarketQuote{Name: "Far Hot Mandi", CurrentPrice: 3400, DistanceKm: 200}
	alternative = model.MarketQuote{Name: "Alternate Mandi", CurrentPrice: 2700, DistanceKm: 40}
	return
}

func TestSynthesize_PivotSkipsDeadZoneRankedSecond(t *testing.T) {
	crashed, farDead, alternative := pivotFixture()

	rec, err := NewSynthesizer().Synthesize(context.Background(), &RecommendInput{
		Crop:          "Tomato",
		YieldQuintals: 100,
		Environment:   &model.EnvironmentSnapshot{TemperatureC: 36},
		Markets:       []model.MarketQuote{alternative, farDead, crashed},
	})
	require.NoError(t, err)

	require.Len(t, rec.Markets, 3)
	assert.Equal(t, "Crashed Mandi", rec.Markets[0].MarketName)
	assert.Equal(t, "Far Hot Mandi", rec.Markets[1].MarketName)
	assert.True(t, rec.Markets[1].IsDeadZone)
	assert.Equal(t, "Alternate Mandi", rec.Markets[2].MarketName)
	assert.False(t, rec.Markets[2].IsDeadZone)

	require.True(t, rec.ShockAlert.IsShock)
	require.NotNil(t, rec.ShockAlert.PivotTarget)
	assert.Equal(t, "Alternate Mandi", rec.ShockAlert.PivotTarget.MarketName)
	assert.Equal(t, rec.Markets[2].TotalNetProfit, rec.ShockAlert.PivotTarget.TotalNetProfit)
	assert.NotContains(t, rec.ShockAlert.PivotAdvice, "Far Hot Mandi")
}

func TestSynthesize_NoPivotWhenAllAlternativesAreDeadZones(t *testing.T) {
	crashed, farDead, _ := pivotFixture()
	fartherDead := model.MarketQuote{Name: "Farther Hot Mandi", CurrentPrice: 3300, DistanceKm: 250}

	rec, err := NewSynthesizer().Synthesize(context.Background(), &RecommendInput{
		Crop:          "Tomato",
		YieldQuintals: 100,
		Environment:   &model.EnvironmentSnapshot{TemperatureC: 36},
		Markets:       []model.MarketQuote{fartherDead, farDead, crashed},
	})
	require.NoError(t, err)

	require.Len(t, rec.Markets, 3)
	assert.Equal(t, "Crashed Mandi", rec.BestMarket)
	assert.True(t, rec.Markets[1].IsDeadZone)
	assert.True(t, rec.Markets[2].IsDeadZone)

	assert.Equal(t, model.RecommendationRed, rec.Status)
	assert.True(t, rec.ShockAlert.IsShock)
	assert.Nil(t, rec.ShockAlert.PivotTarget)
	assert.NotContains(t, rec.ShockAlert.PivotAdvice, "Redirect")
}

func TestSynthesize_ShockPrecedence(t *testing.T) {
	glutAndCrash := model.MarketQuote{
		Name:           "Busy Mandi",
		CurrentPrice:   90,
		PriceHistory7d: []float64{100, 102, 98, 101, 99, 100, 103},
		CurrentVolume:  900,
		AverageVolume:  250,
		DistanceKm:     5,
	}
	rainy := &model.EnvironmentSnapshot{TemperatureC: 25, RainProbabilityPercent: 95}

	rec, err := NewSynthesizer().Synthesize(context.Background(), &RecommendInput{
		Crop: "Onion", YieldQuintals: 5, Environment: rainy, Markets: []model.MarketQuote{glutAndCrash},
	})
	require.NoError(t, err)
	assert.Equal(t, model.ShockStatusPrice, rec.ShockAlert.Status)

	glutOnly := glutAndCrash
	glutOnly.CurrentPrice = 100
	rec, err = NewSynthesizer().Synthesize(context.Background(), &RecommendInput{
		Crop: "Onion", YieldQuintals: 5, Environment: rainy, Markets: []model.MarketQuote{glutOnly},
	})
	require.NoError(t, err)
	assert.Equal(t, model.ShockStatusGlut, rec.ShockAlert.Status)

	rainOnly := glutOnly
	rainOnly.CurrentVolume = 100
	rec, err = NewSynthesizer().Synthesize(context.Background(), &RecommendInput{
		Crop: "Onion", YieldQuintals: 5, Environment: rainy, Markets: []model.MarketQuote{rainOnly},
	})
	require.NoError(t, err)
	assert.Equal(t, model.ShockStatusWeather, rec.ShockAlert.Status)
	assert.Equal(t, model.RecommendationRed, rec.Status)
	// 只有一个市场，没有替代目的地
	assert.Nil(t, rec.ShockAlert.PivotTarget)
}

func TestSynthesize_NoShockReportsNormal(t *testing.T) {
	rec, err := NewSynthesizer().Synthesize(context.Background(), &RecommendInput{
		Crop:          "Potato",
		YieldQuintals: 25,
		Environment:   &model.EnvironmentSnapshot{TemperatureC: 24, RainProbabilityPercent: 5},
		Markets: []model.MarketQuote{
			{Name: "A", CurrentPrice: 1500, PriceHistory7d: calmHistory(1500), DistanceKm: 20},
			{Name: "B", CurrentPrice: 1550, PriceHistory7d: calmHistory(1550), DistanceKm: 35},
		},
	})
	require.NoError(t, err)

	require.NotNil(t, rec.ShockAlert)
	assert.False(t, rec.ShockAlert.IsShock)
	assert.Equal(t, model.ShockStatusNormal, rec.ShockAlert.Status)
	assert.Nil(t, rec.ShockAlert.PivotTarget)
	require.Len(t, rec.Markets, 2)
	assert.True(t, rec.Markets[0].IsRecommended)
	assert.Equal(t, rec.Markets[0].MarketName, rec.BestMarket)
	assert.Equal(t, rec.Markets[0].TotalNetProfit, rec.TotalNetProfit)
}

func TestSynthesize_BaseSpoilageOverride(t *testing.T) {
	input := func(rate float64) *RecommendInput {
		return &RecommendInput{
			Crop:             "Wheat",
			YieldQuintals:    10,
			BaseSpoilageRate: rate,
			Environment:      &model.EnvironmentSnapshot{TemperatureC: 30},
			Markets:          []model.MarketQuote{{Name: "A", CurrentPrice: 2000, DistanceKm: 60}},
		}
	}

	plain, err := NewSynthesizer().Synthesize(context.Background(), input(0))
	require.NoError(t, err)
	overridden, err := NewSynthesizer().Synthesize(context.Background(), input(0.01))
	require.NoError(t, err)

	assert.Greater(t, overridden.Breakdown.QualityLossPercent, plain.Breakdown.QualityLossPercent)
	assert.Less(t, overridden.NetRealizationPerQuintal, plain.NetRealizationPerQuintal)
}
