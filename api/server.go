// Package api exposes the search engine over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"carscan/geo"
	"carscan/models"
	"carscan/search"
	"carscan/utils"
)

// Server wires the search service behind a chi router.
type Server struct {
	service  *search.Service
	registry *geo.Registry
	logger   *utils.Logger
	timeout  time.Duration
}

// NewServer builds the HTTP surface. timeout bounds a single search request
// end to end and should comfortably exceed the orchestrator's own deadline.
func NewServer(service *search.Service, registry *geo.Registry, timeout time.Duration, logger *utils.Logger) *Server {
	return &Server{service: service, registry: registry, logger: logger, timeout: timeout}
}

// Router assembles the route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1/vehicles", func(r chi.Router) {
		r.Post("/search", s.handleSearch)
		r.Get("/health", s.handleHealth)
	})
	return r
}

// Run serves until ctx is cancelled, then drains with a short grace period.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      s.timeout + 15*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("[api] listening on %s", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("[api] shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

// searchRequest is the JSON body of POST /api/v1/vehicles/search.
type searchRequest struct {
	Query         string   `json:"query"`
	City          string   `json:"city,omitempty"`
	UserLat       *float64 `json:"user_lat,omitempty"`
	UserLon       *float64 `json:"user_lon,omitempty"`
	MaxDistanceKm *float64 `json:"max_distance_km,omitempty"`
	MinPrice      *float64 `json:"min_price,omitempty"`
	MaxPrice      *float64 `json:"max_price,omitempty"`
	MinYear       *int     `json:"min_year,omitempty"`
	MaxYear       *int     `json:"max_year,omitempty"`
	MaxMileage    *int     `json:"max_mileage,omitempty"`
	Sort          string   `json:"sort,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
		return
	}

	criteria, err := s.toCriteria(req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	result, err := s.service.Search(ctx, criteria)
	if err != nil {
		if errors.Is(err, search.ErrEmptyQuery) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		s.logger.Error("[api] search failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "search failed"})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// toCriteria maps the wire request onto search criteria. An explicit user
// position wins; otherwise a recognized city name resolves to its centroid.
func (s *Server) toCriteria(req searchRequest) (models.SearchCriteria, error) {
	criteria := models.SearchCriteria{
		Query:        strings.TrimSpace(req.Query),
		CityHint:     strings.TrimSpace(req.City),
		RadiusKm:     req.MaxDistanceKm,
		MinPrice:     req.MinPrice,
		MaxPrice:     req.MaxPrice,
		MinYear:      req.MinYear,
		MaxYear:      req.MaxYear,
		MaxMileage:   req.MaxMileage,
		DistanceSort: strings.EqualFold(req.Sort, "distance"),
	}

	switch {
	case req.UserLat != nil && req.UserLon != nil:
		criteria.Origin = &models.Coordinates{Latitude: *req.UserLat, Longitude: *req.UserLon}
	case req.UserLat != nil || req.UserLon != nil:
		return criteria, errors.New("user_lat and user_lon must be provided together")
	case criteria.CityHint != "":
		criteria.Origin = s.registry.Centroid(criteria.CityHint)
	}

	if criteria.RadiusKm != nil && *criteria.RadiusKm <= 0 {
		return criteria, errors.New("max_distance_km must be positive")
	}
	if criteria.Origin == nil && req.MaxDistanceKm != nil {
		return criteria, errors.New("max_distance_km requires user coordinates or a known city")
	}

	return criteria, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
