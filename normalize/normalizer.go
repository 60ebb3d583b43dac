// Package normalize converts raw adapter output into canonical Listings that
// are safe to score and compare across sources.
package normalize

import (
	"net/url"
	"strings"
	"unicode"

	"carscan/extract"
	"carscan/geo"
	"carscan/models"
	"carscan/utils"
)

// Normalizer transforms RawListings into clean, validated Listings. It holds
// no mutable state between calls, so normalizing the same input twice yields
// identical output.
type Normalizer struct {
	registry    *geo.Registry
	knownCities []string
	logger      *utils.Logger
}

// Stats counts what normalization dropped, for diagnostics.
type Stats struct {
	DroppedNoPrice int
	DroppedDupes   int
}

// New creates a Normalizer resolving cities against the given registry.
func New(registry *geo.Registry, logger *utils.Logger) *Normalizer {
	return &Normalizer{registry: registry, knownCities: registry.Names(), logger: logger}
}

// Normalize converts raw listings to canonical ones. A listing without a
// parsable price is dropped; out-of-range year or mileage values become
// absent without rejecting the listing. Duplicate URLs collapse to the
// earliest occurrence, with input order (adapter-registration order across
// sources) breaking ties.
func (n *Normalizer) Normalize(raw []*models.RawListing, cityHint string) ([]*models.Listing, Stats) {
	defaultCity := strings.TrimSpace(cityHint)
	if defaultCity == "" {
		defaultCity = n.registry.DefaultCity
	}

	var stats Stats
	seen := make(map[string]struct{})
	result := make([]*models.Listing, 0, len(raw))

	for _, r := range raw {
		if strings.TrimSpace(r.URL) == "" {
			continue
		}

		// Duplicates are defined over surviving listings: a record rejected
		// for its price never claims the URL, so a later priced copy of the
		// same URL still makes it through.
		key := CanonicalURL(r.URL)
		if _, dup := seen[key]; dup {
			stats.DroppedDupes++
			n.logger.Debug("[normalize] Duplicate URL skipped: %s", r.URL)
			continue
		}

		price := extract.ParsePrice(r.PriceText)
		if price == nil {
			stats.DroppedNoPrice++
			n.logger.Debug("[normalize] Dropping listing without price: %s", r.Title)
			continue
		}
		seen[key] = struct{}{}

		listing := &models.Listing{
			Source:    r.Source,
			Title:     collapseWhitespace(r.Title),
			Price:     *price,
			Year:      n.resolveYear(r),
			Mileage:   n.resolveMileage(r),
			City:      extract.ExtractCity(r.Location, n.knownCities, defaultCity),
			URL:       strings.TrimSpace(r.URL),
			FetchedAt: r.ScrapedAt,
		}

		// Coordinates are only meaningful as a pair. Listings without their
		// own pair fall back to the resolved city's centroid so distance
		// filtering has data to work with.
		if r.Latitude != nil && r.Longitude != nil {
			lat, lon := *r.Latitude, *r.Longitude
			listing.Latitude = &lat
			listing.Longitude = &lon
		} else if centroid := n.registry.Centroid(listing.City); centroid != nil {
			lat, lon := centroid.Latitude, centroid.Longitude
			listing.Latitude = &lat
			listing.Longitude = &lon
		}

		result = append(result, listing)
	}

	n.logger.Info("[normalize] %d raw → %d listings (no price: %d, dupes: %d)",
		len(raw), len(result), stats.DroppedNoPrice, stats.DroppedDupes)
	return result, stats
}

// resolveYear prefers the adapter-resolved year text and falls back to the
// title. The extractor enforces the plausible range, so out-of-range values
// come back absent.
func (n *Normalizer) resolveYear(r *models.RawListing) *int {
	if year := extract.ExtractYear(r.YearText); year != nil {
		return year
	}
	return extract.ExtractYear(r.Title)
}

func (n *Normalizer) resolveMileage(r *models.RawListing) *int {
	if km := extract.ExtractMileage(r.MileageText); km != nil {
		return km
	}
	return extract.ExtractMileage(r.Title)
}

// CanonicalURL normalizes scheme and host casing and strips a trailing slash
// so the same listing surfaced by two adapters compares equal.
func CanonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.TrimSuffix(raw, "/")
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String()
}

// collapseWhitespace trims and collapses internal whitespace runs.
func collapseWhitespace(s string) string {
	fields := strings.FieldsFunc(strings.TrimSpace(s), func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}
