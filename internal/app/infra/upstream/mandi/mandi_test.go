package mandi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"agrichain/common/entity"
	"agrichain/common/model"
	"agrichain/internal/app/infra/cache"
	"agrichain/internal/app/infra/upstream"
	"agrichain/pkg/logger"
)

var pune = model.DefaultLocation()

func testDeps() (*upstream.Fetcher, *cache.Loader) {
	return upstream.NewFetcher(upstream.Options{Timeout: time.Second, Backoff: time.Millisecond}),
		cache.NewLoader(cache.NewMemory(), logger.NewNopLogger())
}

type stubSource struct {
	name   string
	quotes []model.MarketQuote
	err    error
	calls  int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Quotes(ctx context.Context, q Query) ([]model.MarketQuote, error) {
	s.calls++
	return s.quotes, s.err
}

func TestChainFallsThroughInOrder(t *testing.T) {
	enam := &stubSource{name: "enam", err: errors.New("401 token expired")}
	dataset := &stubSource{name: "dataset"}
	datagov := &stubSource{name: "data.gov.in", quotes: []model.MarketQuote{
		{Name: "Far", DistanceKm: 40},
		{Name: "Near", DistanceKm: 8},
	}}
	heuristic := &stubSource{name: "heuristic"}

	res, err := NewChain(logger.NewNopLogger(), enam, dataset, datagov, heuristic).
		Quotes(context.Background(), Query{Crop: "Onion", Location: pune})
	require.NoError(t, err)

	assert.Equal(t, "data.gov.in", res.Source)
	assert.Equal(t, "Near", res.Quotes[0].Name)
	assert.Equal(t, 1, enam.calls)
	assert.Equal(t, 1, dataset.calls)
	assert.Zero(t, heuristic.calls)
}

func TestChainAllSourcesFail(t *testing.T) {
	_, err := NewChain(logger.NewNopLogger(),
		&stubSource{name: "a", err: errors.New("down")},
		&stubSource{name: "b"},
	).Quotes(context.Background(), Query{Crop: "Onion"})

	assert.ErrorIs(t, err, ErrNoData)
	assert.Contains(t, err.Error(), "a: down")
}

func TestHaversine(t *testing.T) {
	mumbai := model.Location{Lat: 19.0760, Lng: 72.8777}

	assert.InDelta(t, 120, Haversine(pune, mumbai), 5)
	assert.Zero(t, Haversine(pune, pune))
}

type stubStore struct {
	rows []entity.MandiPrice
}

func (s stubStore) RecentPrices(ctx context.Context, crop string, since time.Time) ([]entity.MandiPrice, error) {
	return s.rows, nil
}

func TestDatasetBuildsHistoryPerMandi(t *testing.T) {
	lasalgaon := entity.Mandi{ID: 1, Name: "Lasalgaon", Latitude: 20.15, Longitude: 74.23, IsColdStorage: true}
	pimpalgaon := entity.Mandi{ID: 2, Name: "Pimpalgaon", Latitude: 20.17, Longitude: 73.99}

	day := func(m entity.Mandi, d int, price, tonnes float64) entity.MandiPrice {
		return entity.MandiPrice{
			MandiID:       m.ID,
			Mandi:         m,
			Crop:          "Onion",
			TradeDate:     datatypes.Date(time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC)),
			ModalPrice:    price,
			ArrivalTonnes: tonnes,
		}
	}

	var rows []entity.MandiPrice
	for d := 1; d <= 9; d++ {
		rows = append(rows, day(lasalgaon, d, 2000+float64(d), 40))
	}
	rows = append(rows, day(pimpalgaon, 9, 1900, 12))

	quotes, err := NewDataset(stubStore{rows: rows}).Quotes(context.Background(), Query{Crop: "Onion", Location: pune})
	require.NoError(t, err)
	require.Len(t, quotes, 2)

	l := quotes[0]
	assert.Equal(t, "Lasalgaon", l.Name)
	assert.Equal(t, 2009.0, l.CurrentPrice)
	assert.Equal(t, []float64{2002, 2003, 2004, 2005, 2006, 2007, 2008}, l.PriceHistory7d)
	assert.Equal(t, 400.0, l.CurrentVolume)
	assert.Equal(t, 400.0, l.AverageVolume)
	assert.True(t, l.IsColdStorage)
	assert.True(t, l.IsVerifiedReal)
	assert.Greater(t, l.DistanceKm, 150.0)

	p := quotes[1]
	assert.Equal(t, "Pimpalgaon", p.Name)
	assert.Empty(t, p.PriceHistory7d)
	assert.Equal(t, p.CurrentVolume, p.AverageVolume)
}

func TestEnamQuotes(t *testing.T) {
	hits := map[string]int{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits[r.URL.Path]++
		switch {
		case strings.HasPrefix(r.URL.Path, "/getApmcNew/"):
			_, _ = w.Write([]byte(`{"data":[
				{"apmc_id":"11","apmc_name":"Pune APMC","latitude":"18.50","longitude":"73.87"},
				{"apmc_id":"12","apmc_name":"Nashik APMC","latitude":"19.99","longitude":"73.79"}]}`))
		case strings.HasPrefix(r.URL.Path, "/getAgmGpsMinMaxModelPrice/"):
			_, _ = w.Write([]byte(`{"data":[
				{"apmc_id":"11","commodity":"ONION","modal_price":"2150","commodity_arrivals":"300","created_at":"2025-03-02"},
				{"apmc_id":"11","commodity":"ONION","modal_price":"2100","commodity_arrivals":"200","created_at":"2025-03-01"},
				{"apmc_id":"12","commodity":"Tomato","modal_price":"900","commodity_arrivals":"80","created_at":"2025-03-02"},
				{"apmc_id":"99","commodity":"Onion","modal_price":"1","commodity_arrivals":"1","created_at":"2025-03-02"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	fetcher, loader := testDeps()
	src := NewEnam(srv.URL, "tkn", fetcher, loader, cache.DefaultPolicy())

	quotes, err := src.Quotes(context.Background(), Query{Crop: "Onion", Location: pune})
	require.NoError(t, err)
	require.Len(t, quotes, 1)

	q := quotes[0]
	assert.Equal(t, "Pune APMC", q.Name)
	assert.Equal(t, 2150.0, q.CurrentPrice)
	assert.Equal(t, []float64{2100}, q.PriceHistory7d)
	assert.Equal(t, 300.0, q.CurrentVolume)
	assert.Equal(t, 200.0, q.AverageVolume)
	assert.Less(t, q.DistanceKm, 5.0)

	// 目录与价格都已缓存
	_, err = src.Quotes(context.Background(), Query{Crop: "Tomato", Location: pune})
	require.NoError(t, err)
	assert.Equal(t, 1, hits["/getApmcNew/tkn"])
	assert.Equal(t, 1, hits["/getAgmGpsMinMaxModelPrice/tkn"])
}

func TestEnamWithoutToken(t *testing.T) {
	fetcher, loader := testDeps()
	_, err := NewEnam("http://127.0.0.1:1", "", fetcher, loader, cache.DefaultPolicy()).
		Quotes(context.Background(), Query{Crop: "Onion"})
	assert.Error(t, err)
}

func TestDataGovQuotes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ONION", r.URL.Query().Get("filters[commodity]"))
		assert.Equal(t, "key", r.URL.Query().Get("api-key"))
		_, _ = w.Write([]byte(`{"records":[
			{"market":"Lasalgaon","state":"Maharashtra","modal_price":"2300"},
			{"market":"Indore","state":"Madhya Pradesh","modal_price":"bad"}]}`))
	}))
	defer srv.Close()

	fetcher, loader := testDeps()
	quotes, err := NewDataGov(srv.URL, "key", fetcher, loader, time.Minute).
		Quotes(context.Background(), Query{Crop: "onion"})
	require.NoError(t, err)
	require.Len(t, quotes, 2)

	assert.Equal(t, "Lasalgaon (Maharashtra)", quotes[0].Name)
	assert.Equal(t, 2300.0, quotes[0].CurrentPrice)
	assert.Len(t, quotes[0].PriceHistory7d, 7)
	assert.GreaterOrEqual(t, quotes[0].DistanceKm, 5.0)
	assert.LessOrEqual(t, quotes[0].DistanceKm, 15.0)

	assert.Equal(t, dataGovFallbackPrice, quotes[1].CurrentPrice)
	assert.GreaterOrEqual(t, quotes[1].DistanceKm, 20.0)
}

func TestHeuristicIsDeterministic(t *testing.T) {
	h := NewHeuristic()
	q := Query{Crop: "Tomato", Location: pune}

	a, err := h.Quotes(context.Background(), q)
	require.NoError(t, err)
	b, _ := h.Quotes(context.Background(), q)

	assert.Equal(t, a, b)
	require.Len(t, a, 1+heuristicRegionalCount)
	assert.Equal(t, "Local District Mandi", a[0].Name)
	assert.Len(t, a[0].PriceHistory7d, 7)
	assert.GreaterOrEqual(t, a[0].CurrentPrice, heuristicMinPrice)
	assert.LessOrEqual(t, a[0].CurrentPrice, heuristicMinPrice+heuristicPriceSpan)
	assert.False(t, a[0].IsVerifiedReal)

	other, _ := h.Quotes(context.Background(), Query{Crop: "Wheat", Location: pune})
	assert.NotEqual(t, a[0].CurrentPrice, other[0].CurrentPrice)
}
