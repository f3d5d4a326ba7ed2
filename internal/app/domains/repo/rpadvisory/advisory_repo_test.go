package rpadvisory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agrichain/common/model"
	"agrichain/internal/app/domains/entity/etadvisory"
)

func TestGormModelConversion(t *testing.T) {
	soil := 22.1
	a, err := etadvisory.NewAdvisory("24000100001", "req-1", "Onion", 20, 0.002, &etadvisory.Snapshot{
		Environment:  model.EnvironmentSnapshot{TemperatureC: 31, SoilMoisturePercent: &soil},
		Markets:      []model.MarketQuote{{Name: "Lasalgaon", CurrentPrice: 2100, DistanceKm: 40}},
		Location:     model.DefaultLocation(),
		MarketSource: "heuristic",
	})
	require.NoError(t, err)
	require.NoError(t, a.Complete(&model.Recommendation{Status: model.RecommendationGreen, BestMarket: "Lasalgaon"}))

	po, err := toGormModel(a)
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", po.Status)
	assert.NotEmpty(t, po.Recommendation)

	back, err := toDomainModel(po)
	require.NoError(t, err)
	assert.Equal(t, a.ID, back.ID)
	assert.Equal(t, 0.002, back.BaseSpoilageRate)
	assert.Equal(t, etadvisory.StatusCompleted, back.Status)
	assert.Equal(t, "heuristic", back.Snapshot.MarketSource)
	assert.Equal(t, 22.1, *back.Snapshot.Environment.SoilMoisturePercent)
	require.NotNil(t, back.Recommendation)
	assert.Equal(t, "Lasalgaon", back.Recommendation.BestMarket)
}

func TestDomainModelWithoutRecommendation(t *testing.T) {
	a, err := etadvisory.NewAdvisory("1", "req", "Wheat", 5, 0, &etadvisory.Snapshot{Markets: []model.MarketQuote{}})
	require.NoError(t, err)

	po, err := toGormModel(a)
	require.NoError(t, err)
	assert.Empty(t, po.Recommendation)

	back, err := toDomainModel(po)
	require.NoError(t, err)
	assert.Nil(t, back.Recommendation)
	assert.Equal(t, etadvisory.StatusProcessing, back.Status)
}
