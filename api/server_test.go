package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"carscan/geo"
	"carscan/models"
	"carscan/normalize"
	"carscan/orchestrate"
	"carscan/search"
	"carscan/utils"
)

type stubFetcher struct {
	result *orchestrate.Result
}

func (s *stubFetcher) Run(_ context.Context, _, _ string) *orchestrate.Result {
	return s.result
}

func newTestServer(t *testing.T, fanout *orchestrate.Result) *Server {
	t.Helper()
	registry, err := geo.LoadRegistry()
	require.NoError(t, err)

	logger := utils.NewLogger()
	norm := normalize.New(registry, logger)
	svc := search.New(&stubFetcher{result: fanout}, norm, nil, nil, 50, logger)
	return NewServer(svc, registry, 30*time.Second, logger)
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, &orchestrate.Result{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/vehicles/health", nil)
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestSearchRejectsMalformedBody(t *testing.T) {
	srv := newTestServer(t, &orchestrate.Result{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/vehicles/search", strings.NewReader("{not json"))
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	srv := newTestServer(t, &orchestrate.Result{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/vehicles/search", strings.NewReader(`{"query":"  "}`))
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchRejectsLoneCoordinate(t *testing.T) {
	srv := newTestServer(t, &orchestrate.Result{})

	rec := httptest.NewRecorder()
	body := `{"query":"mazda","user_lat":6.24}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/vehicles/search", strings.NewReader(body))
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchReturnsRankedListings(t *testing.T) {
	fanout := &orchestrate.Result{
		Raw: []*models.RawListing{
			{Source: "MercadoLibre", Title: "Mazda 3 2018", PriceText: "28.500.000",
				MileageText: "85000 km", Location: "Medellín", URL: "https://x.co/b"},
			{Source: "TuCarro", Title: "BMW X5 2020", PriceText: "92.000.000",
				MileageText: "45000 km", Location: "Bogotá", URL: "https://x.co/c"},
		},
		Sources: []models.SourceReport{{Source: "MercadoLibre", Listings: 1}, {Source: "TuCarro", Listings: 1}},
	}
	srv := newTestServer(t, fanout)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/vehicles/search", strings.NewReader(`{"query":"carro"}`))
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result models.SearchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Listings, 2)
	require.Equal(t, "https://x.co/b", result.Listings[0].URL)
	require.NotEmpty(t, result.SearchID)
}

func TestCityResolvesToCentroidOrigin(t *testing.T) {
	srv := newTestServer(t, &orchestrate.Result{})

	criteria, err := srv.toCriteria(searchRequest{Query: "carro", City: "Bogotá"})
	require.NoError(t, err)
	require.NotNil(t, criteria.Origin)
	require.InDelta(t, 4.71, criteria.Origin.Latitude, 0.2)

	criteria, err = srv.toCriteria(searchRequest{Query: "carro", City: "Atlantis"})
	require.NoError(t, err)
	require.Nil(t, criteria.Origin)
}
