package mdmarket

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agrichain/common/model"
	"agrichain/internal/app/infra/upstream/mandi"
)

type stubWeather struct {
	env   model.EnvironmentSnapshot
	err   error
	calls int
}

func (s *stubWeather) Current(ctx context.Context, loc model.Location) (model.EnvironmentSnapshot, error) {
	s.calls++
	return s.env, s.err
}

type stubQuotes struct {
	res   *mandi.Result
	err   error
	query mandi.Query
	calls int
}

func (s *stubQuotes) Quotes(ctx context.Context, q mandi.Query) (*mandi.Result, error) {
	s.calls++
	s.query = q
	return s.res, s.err
}

func TestGatherFetchesBothSources(t *testing.T) {
	w := &stubWeather{env: model.EnvironmentSnapshot{TemperatureC: 33, IsVerified: true}}
	q := &stubQuotes{res: &mandi.Result{Source: "enam", Quotes: []model.MarketQuote{{Name: "Pune APMC"}}}}

	snap, err := NewMarketModule(w, q).Gather(context.Background(), GatherInput{
		Crop:     "Onion",
		Location: model.DefaultLocation(),
	})
	require.NoError(t, err)

	assert.Equal(t, 33.0, snap.Environment.TemperatureC)
	assert.Equal(t, "enam", snap.MarketSource)
	assert.Len(t, snap.Markets, 1)
	assert.Equal(t, model.DefaultLocation(), snap.Location)
	assert.Equal(t, "Onion", q.query.Crop)
}

func TestGatherUsesManualOverrides(t *testing.T) {
	w := &stubWeather{}
	q := &stubQuotes{}
	env := model.EnvironmentSnapshot{TemperatureC: 25}

	snap, err := NewMarketModule(w, q).Gather(context.Background(), GatherInput{
		Crop:        "Tomato",
		Environment: &env,
		Markets:     []model.MarketQuote{{Name: "A"}, {Name: "B"}},
	})
	require.NoError(t, err)

	assert.Equal(t, SourceManual, snap.MarketSource)
	assert.Len(t, snap.Markets, 2)
	assert.Equal(t, 25.0, snap.Environment.TemperatureC)
	assert.Zero(t, w.calls)
	assert.Zero(t, q.calls)
}

func TestGatherPropagatesErrors(t *testing.T) {
	w := &stubWeather{}
	q := &stubQuotes{err: mandi.ErrNoData}

	_, err := NewMarketModule(w, q).Gather(context.Background(), GatherInput{Crop: "Onion"})
	assert.ErrorIs(t, err, mandi.ErrNoData)

	_, err = NewMarketModule(&stubWeather{err: errors.New("boom")}, &stubQuotes{res: &mandi.Result{}}).
		Gather(context.Background(), GatherInput{Crop: "Onion"})
	assert.Error(t, err)
}
