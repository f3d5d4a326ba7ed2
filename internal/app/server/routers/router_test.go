package routers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agrichain/common/model"
	"agrichain/internal/app/domains/entity/etadvisory"
	"agrichain/internal/app/domains/services/svadvisory"
	"agrichain/internal/app/infra/upstream/mandi"
	"agrichain/internal/app/pkg/errorx"
	"agrichain/internal/app/pkg/ginx"
	"agrichain/internal/app/server/handlers/advisory"
	"agrichain/internal/app/server/handlers/market"
	"agrichain/internal/business"
	"agrichain/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeService struct {
	lastInput svadvisory.CreateInput
	createRes *etadvisory.Advisory
	createErr error
	stored    map[string]*etadvisory.Advisory
	listLimit int
	listCrop  string
	marketErr error
	marketLoc *model.Location
}

func (f *fakeService) CreateAdvisory(ctx context.Context, in svadvisory.CreateInput) (*etadvisory.Advisory, error) {
	f.lastInput = in
	return f.createRes, f.createErr
}

func (f *fakeService) GetAdvisory(ctx context.Context, id string) (*etadvisory.Advisory, error) {
	if a, ok := f.stored[id]; ok {
		return a, nil
	}
	return nil, errorx.ErrAdvisoryNotFound
}

func (f *fakeService) ListAdvisories(ctx context.Context, crop string, limit int) ([]*etadvisory.Advisory, error) {
	f.listCrop = crop
	f.listLimit = limit
	return nil, nil
}

func (f *fakeService) ListMarkets(ctx context.Context, crop, language string, loc *model.Location) (string, *mandi.Result, error) {
	f.marketLoc = loc
	if f.marketErr != nil {
		return "", nil, f.marketErr
	}
	return "Onion", &mandi.Result{Source: "heuristic", Quotes: []model.MarketQuote{{Name: "Local District Mandi"}}}, nil
}

func (f *fakeService) Crops() []business.CropProfile {
	return business.KnownCrops()
}

func newAdvisory(status etadvisory.Status) *etadvisory.Advisory {
	return &etadvisory.Advisory{
		ID:        "101",
		RequestID: "req",
		Crop:      "Onion",
		Status:    status,
		Snapshot:  &etadvisory.Snapshot{MarketSource: "dataset", Location: model.DefaultLocation()},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func setup(svc *fakeService) *gin.Engine {
	return SetupRoutes(advisory.NewAdvisoryHandler(svc), market.NewMarketHandler(svc), logger.NewNopLogger())
}

func do(t *testing.T, r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, model.Response) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp model.Response
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func TestHealth(t *testing.T) {
	w, _ := do(t, setup(&fakeService{}), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateRecommendation(t *testing.T) {
	completed := newAdvisory(etadvisory.StatusCompleted)
	completed.Recommendation = &model.Recommendation{Status: model.RecommendationGreen}

	tests := []struct {
		name     string
		query    string
		body     string
		res      *etadvisory.Advisory
		err      error
		wantHTTP int
		wantCode int
		wantType string
	}{
		{
			name:     "sync success",
			body:     `{"crop":"Onion","yield_quintals":20,"location":{"lat":19.99,"lng":73.79}}`,
			res:      completed,
			wantHTTP: http.StatusOK,
			wantCode: http.StatusOK,
			wantType: model.ResponseTypeOK,
		},
		{
			name:     "async still processing",
			query:    "?async=true&wait=5",
			body:     `{"crop":"Onion","yield_quintals":20}`,
			res:      newAdvisory(etadvisory.StatusProcessing),
			wantHTTP: http.StatusOK,
			wantCode: ginx.CodeProcessing,
			wantType: model.ResponseTypeProcessing,
		},
		{
			name:     "negative yield",
			body:     `{"crop":"Onion","yield_quintals":-1}`,
			wantHTTP: http.StatusBadRequest,
			wantCode: http.StatusBadRequest,
			wantType: model.ResponseTypeValidationError,
		},
		{
			name:     "zero yield",
			body:     `{"crop":"Onion","yield_quintals":0}`,
			wantHTTP: http.StatusBadRequest,
			wantCode: http.StatusBadRequest,
			wantType: model.ResponseTypeValidationError,
		},
		{
			name:     "missing yield",
			body:     `{"crop":"Onion"}`,
			wantHTTP: http.StatusBadRequest,
			wantCode: http.StatusBadRequest,
			wantType: model.ResponseTypeValidationError,
		},
		{
			name:     "market without name",
			body:     `{"crop":"Onion","yield_quintals":20,"markets":[{"current_price":2000}]}`,
			wantHTTP: http.StatusBadRequest,
			wantCode: http.StatusBadRequest,
			wantType: model.ResponseTypeValidationError,
		},
		{
			name:     "no candidate markets",
			body:     `{"crop":"Onion","yield_quintals":20,"markets":[]}`,
			res:      newAdvisory(etadvisory.StatusFailed),
			err:      errorx.ErrRecommendationInput,
			wantHTTP: http.StatusUnprocessableEntity,
			wantCode: http.StatusUnprocessableEntity,
			wantType: model.ResponseTypeValidationError,
		},
		{
			name:     "queue unavailable",
			query:    "?async=true",
			body:     `{"crop":"Onion","yield_quintals":20}`,
			err:      errorx.ErrQueueUnavailable,
			wantHTTP: http.StatusServiceUnavailable,
			wantCode: http.StatusServiceUnavailable,
			wantType: model.ResponseTypeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{createRes: tt.res, createErr: tt.err}
			w, resp := do(t, setup(svc), http.MethodPost, "/api/v1/recommendations"+tt.query, tt.body)

			assert.Equal(t, tt.wantHTTP, w.Code)
			assert.Equal(t, tt.wantCode, resp.Meta.Code)
			assert.Equal(t, tt.wantType, resp.Meta.Type)
			assert.Equal(t, tt.wantType == model.ResponseTypeOK, resp.Succeeded())
		})
	}
}

func TestCreateRecommendationBindsInput(t *testing.T) {
	svc := &fakeService{createRes: newAdvisory(etadvisory.StatusProcessing)}
	r := setup(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/recommendations?async=1&wait=7",
		strings.NewReader(`{"crop":"default","language":"mr","yield_quintals":15,"environment":{"temperature_c":35},"markets":[{"name":"A","current_price":100}]}`))
	req.Header.Set("X-Request-ID", "trace-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "trace-1", w.Header().Get("X-Request-ID"))

	in := svc.lastInput
	assert.Equal(t, "trace-1", in.RequestID)
	assert.True(t, in.Async)
	assert.Equal(t, 7, in.WaitSeconds)
	assert.Equal(t, "mr", in.Language)
	assert.Equal(t, 15.0, in.YieldQuintals)
	assert.Nil(t, in.Location)
	require.NotNil(t, in.Environment)
	assert.Equal(t, 35.0, in.Environment.TemperatureC)
	require.Len(t, in.Markets, 1)
	assert.Equal(t, "A", in.Markets[0].Name)
}

func TestGetRecommendation(t *testing.T) {
	svc := &fakeService{stored: map[string]*etadvisory.Advisory{"101": newAdvisory(etadvisory.StatusCompleted)}}
	r := setup(svc)

	w, resp := do(t, r, http.MethodGet, "/api/v1/recommendations/101", "")
	assert.Equal(t, http.StatusOK, w.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "COMPLETED", data["status"])
	assert.Equal(t, "dataset", data["market_source"])

	w, resp = do(t, r, http.MethodGet, "/api/v1/recommendations/404", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, model.ResponseTypeNotFound, resp.Meta.Type)
}

func TestListRecommendations(t *testing.T) {
	svc := &fakeService{}
	r := setup(svc)

	w, _ := do(t, r, http.MethodGet, "/api/v1/recommendations?crop=Onion&limit=500", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Onion", svc.listCrop)
	assert.Equal(t, 100, svc.listLimit)

	w, _ = do(t, r, http.MethodGet, "/api/v1/recommendations?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMarketsAndCrops(t *testing.T) {
	svc := &fakeService{}
	r := setup(svc)

	w, resp := do(t, r, http.MethodGet, "/api/v1/markets?crop=Onion&lat=20&lng=74", "")
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.marketLoc)
	assert.Equal(t, 20.0, svc.marketLoc.Lat)
	assert.Equal(t, "heuristic", resp.Data.(map[string]interface{})["source"])

	w, _ = do(t, r, http.MethodGet, "/api/v1/markets?lat=20", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.marketErr = errors.Join(errorx.ErrMarketDataMissing, mandi.ErrNoData)
	w, _ = do(t, r, http.MethodGet, "/api/v1/markets", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w, resp = do(t, r, http.MethodGet, "/api/v1/crops", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, resp.Data, len(business.KnownCrops()))
}

func TestCORSPreflight(t *testing.T) {
	w, _ := do(t, setup(&fakeService{}), http.MethodOptions, "/api/v1/recommendations", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
