package storage

import (
	"context"

	"carscan/models"
)

// ListingStore persists finished listings and search records for audit and
// analytics. Ranking never reads persisted state; it is computed fresh over
// the in-memory candidate set of each search.
type ListingStore interface {
	SaveListings(ctx context.Context, listings []*models.Listing) error
	RecordSearch(ctx context.Context, query string, origin *models.Coordinates) error
	Close() error
}

// RawListingWriter is the interface for persisting unprocessed scraped data.
type RawListingWriter interface {
	WriteRaw(listings []*models.RawListing) error
	Close() error
}
