package etadvisory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agrichain/common/model"
)

func snapshot() *Snapshot {
	return &Snapshot{Markets: []model.MarketQuote{{Name: "Lasalgaon", CurrentPrice: 2100}}}
}

func TestNewAdvisoryValidation(t *testing.T) {
	tests := []struct {
		name     string
		id, crop string
		yield    float64
		snap     *Snapshot
		wantErr  error
	}{
		{"missing id", "", "Onion", 10, snapshot(), ErrInvalidAdvisoryID},
		{"missing crop", "1", "", 10, snapshot(), ErrInvalidCrop},
		{"negative yield", "1", "Onion", -1, snapshot(), ErrInvalidYield},
		{"zero yield", "1", "Onion", 0, snapshot(), ErrInvalidYield},
		{"nil snapshot", "1", "Onion", 10, nil, ErrInvalidSnapshot},
		{"nil markets", "1", "Onion", 10, &Snapshot{}, ErrInvalidSnapshot},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAdvisory(tt.id, "req", tt.crop, tt.yield, 0, tt.snap)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAdvisoryLifecycle(t *testing.T) {
	a, err := NewAdvisory("1", "req", "Onion", 10, 0, snapshot())
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, a.Status)
	assert.False(t, a.IsSettled())

	assert.ErrorIs(t, a.Complete(nil), ErrNilRecommendation)

	require.NoError(t, a.Complete(&model.Recommendation{Status: model.RecommendationGreen}))
	assert.Equal(t, StatusCompleted, a.Status)
	assert.True(t, a.IsSettled())

	assert.ErrorIs(t, a.Fail("late failure"), ErrAdvisoryNotInProcess)
}

func TestAdvisoryFail(t *testing.T) {
	a, err := NewAdvisory("2", "req", "Onion", 10, 0, snapshot())
	require.NoError(t, err)

	require.NoError(t, a.Fail("no candidate markets"))
	assert.Equal(t, StatusFailed, a.Status)
	assert.Equal(t, "no candidate markets", a.ErrorMessage)
}
