package models

import "time"

// RawListing holds unprocessed scraped data exactly as one adapter produced it.
// It is discarded after normalization.
type RawListing struct {
	Source      string
	Title       string
	PriceText   string
	YearText    string
	MileageText string
	Location    string
	URL         string
	Latitude    *float64
	Longitude   *float64
	ScrapedAt   time.Time
}

// Listing is the canonical, normalized record. Listings from every marketplace
// share this shape so they can be scored and compared against each other.
type Listing struct {
	ID         int64     `json:"id,omitempty"`
	Source     string    `json:"source"`
	Title      string    `json:"title"`
	Price      float64   `json:"price"`
	Year       *int      `json:"year,omitempty"`
	Mileage    *int      `json:"mileage,omitempty"`
	City       string    `json:"city"`
	Latitude   *float64  `json:"latitude,omitempty"`
	Longitude  *float64  `json:"longitude,omitempty"`
	URL        string    `json:"url"`
	FetchedAt  time.Time `json:"fetched_at"`
	Score      *float64  `json:"score,omitempty"`
	DistanceKm *float64  `json:"distance_km,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}

// HasCoordinates reports whether the listing carries a usable lat/lon pair.
func (l *Listing) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// SearchCriteria describes one vehicle search as received from the caller.
// Origin and RadiusKm are only meaningful together: without an origin no
// distance is ever computed or annotated.
type SearchCriteria struct {
	Query        string
	CityHint     string
	Origin       *Coordinates
	RadiusKm     *float64
	MinPrice     *float64
	MaxPrice     *float64
	MinYear      *int
	MaxYear      *int
	MaxMileage   *int
	DistanceSort bool
}

// Coordinates is a resolved lat/lon pair. The engine never geocodes; callers
// hand it already-resolved coordinates.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SourceReport carries per-adapter diagnostics for one search.
type SourceReport struct {
	Source   string `json:"source"`
	Listings int    `json:"listings"`
	Failed   bool   `json:"failed,omitempty"`
	Err      string `json:"error,omitempty"`
}

// SearchResult is the ranked output of one search plus its diagnostics.
type SearchResult struct {
	SearchID        string         `json:"search_id"`
	Query           string         `json:"query"`
	Listings        []*Listing     `json:"listings"`
	Sources         []SourceReport `json:"sources"`
	DroppedNoPrice  int            `json:"dropped_no_price"`
	DroppedDupes    int            `json:"dropped_dupes"`
	SkippedNoCoords int            `json:"skipped_no_coords"`
	TimedOut        bool           `json:"timed_out"`
	FromCache       bool           `json:"from_cache"`
}
