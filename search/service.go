// Package search drives one vehicle search end to end: fan-out across the
// marketplace adapters, normalization, bounds filtering, scoring, distance
// filtering and assembly of the ranked result.
package search

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"carscan/models"
	"carscan/normalize"
	"carscan/orchestrate"
	"carscan/rank"
	"carscan/storage"
	"carscan/utils"
)

// ErrEmptyQuery is returned when the query is blank after trimming.
var ErrEmptyQuery = errors.New("search query must not be empty")

// Fetcher is the fan-out capability the service drives; satisfied by
// orchestrate.Orchestrator.
type Fetcher interface {
	Run(ctx context.Context, query, cityHint string) *orchestrate.Result
}

// Service executes searches. Store and cache are optional; a nil value
// disables that collaborator.
type Service struct {
	fetcher         Fetcher
	normalizer      *normalize.Normalizer
	store           storage.ListingStore
	cache           Cache
	defaultRadiusKm float64
	logger          *utils.Logger
}

// New wires a search Service.
func New(fetcher Fetcher, normalizer *normalize.Normalizer, store storage.ListingStore, cache Cache, defaultRadiusKm float64, logger *utils.Logger) *Service {
	return &Service{
		fetcher:         fetcher,
		normalizer:      normalizer,
		store:           store,
		cache:           cache,
		defaultRadiusKm: defaultRadiusKm,
		logger:          logger,
	}
}

// Search runs one search request and returns the ranked, annotated result.
// Zero usable listings is a valid outcome, not an error; the only error
// conditions are an invalid query and a cancelled context.
func (s *Service) Search(ctx context.Context, criteria models.SearchCriteria) (*models.SearchResult, error) {
	query := strings.TrimSpace(criteria.Query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	criteria.Query = query

	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, cacheKey(criteria)); ok {
			s.logger.Info("[search] cache hit for %q", query)
			// Flag a copy so the stored entry stays pristine.
			hit := *cached
			hit.FromCache = true
			return &hit, nil
		}
	}

	fanout := s.fetcher.Run(ctx, query, criteria.CityHint)
	if err := ctx.Err(); errors.Is(err, context.Canceled) {
		return nil, err
	}

	listings, stats := s.normalizer.Normalize(fanout.Raw, criteria.CityHint)
	listings = applyBounds(listings, criteria)

	rank.Score(listings)

	var radius *float64
	if criteria.Origin != nil {
		radius = criteria.RadiusKm
		if radius == nil && s.defaultRadiusKm > 0 {
			r := s.defaultRadiusKm
			radius = &r
		}
	}
	listings, skippedNoCoords := rank.ApplyGeo(listings, criteria.Origin, radius)

	rank.SortByScore(listings)
	if criteria.DistanceSort && criteria.Origin != nil {
		rank.SortByDistance(listings)
	}

	result := &models.SearchResult{
		SearchID:        uuid.NewString(),
		Query:           query,
		Listings:        listings,
		Sources:         fanout.Sources,
		DroppedNoPrice:  stats.DroppedNoPrice,
		DroppedDupes:    stats.DroppedDupes,
		SkippedNoCoords: skippedNoCoords,
		TimedOut:        fanout.TimedOut,
	}

	s.persist(ctx, criteria, result)

	// Degraded answers are not worth a TTL: a timed-out or fully failed
	// fan-out should be retried, not replayed.
	if s.cache != nil && !result.TimedOut && !allSourcesFailed(result.Sources) {
		s.cache.Set(ctx, cacheKey(criteria), result)
	}

	s.logger.Info("[search] %q returned %d ranked listings (timed out: %v)", query, len(listings), result.TimedOut)
	return result, nil
}

// persist is best-effort: storage trouble never fails a search.
func (s *Service) persist(ctx context.Context, criteria models.SearchCriteria, result *models.SearchResult) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveListings(ctx, result.Listings); err != nil {
		s.logger.Warn("[search] could not persist listings: %v", err)
	}
	if err := s.store.RecordSearch(ctx, criteria.Query, criteria.Origin); err != nil {
		s.logger.Warn("[search] could not record search: %v", err)
	}
}

func allSourcesFailed(sources []models.SourceReport) bool {
	if len(sources) == 0 {
		return true
	}
	for _, src := range sources {
		if !src.Failed {
			return false
		}
	}
	return true
}

// applyBounds filters the candidate set by the caller's optional price, year
// and mileage bounds. Listings missing a bounded attribute fail that bound:
// an unknown year cannot satisfy a min-year request.
func applyBounds(listings []*models.Listing, c models.SearchCriteria) []*models.Listing {
	if c.MinPrice == nil && c.MaxPrice == nil && c.MinYear == nil && c.MaxYear == nil && c.MaxMileage == nil {
		return listings
	}

	out := make([]*models.Listing, 0, len(listings))
	for _, l := range listings {
		if c.MinPrice != nil && l.Price < *c.MinPrice {
			continue
		}
		if c.MaxPrice != nil && l.Price > *c.MaxPrice {
			continue
		}
		if c.MinYear != nil && (l.Year == nil || *l.Year < *c.MinYear) {
			continue
		}
		if c.MaxYear != nil && (l.Year == nil || *l.Year > *c.MaxYear) {
			continue
		}
		if c.MaxMileage != nil && (l.Mileage == nil || *l.Mileage > *c.MaxMileage) {
			continue
		}
		out = append(out, l)
	}
	return out
}
