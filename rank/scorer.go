// Package rank computes composite best-offer scores over a full candidate set
// and applies distance filtering. Scoring is deliberately a whole-set
// operation: a single listing cannot be ranked in isolation because every
// attribute is min-max normalized against the other candidates.
package rank

import (
	"sort"

	"carscan/models"
)

// Attribute weights of the composite score. Price dominates; lower score is
// a better offer.
const (
	priceWeight   = 0.5
	mileageWeight = 0.3
	yearWeight    = 0.2
)

// Score annotates every listing with its composite score. Listings missing an
// attribute take the worst-case normalized value (1.0) for it, so missing data
// never improves a ranking. When all listings share an attribute value the
// attribute carries no signal and normalizes to 0.0.
func Score(listings []*models.Listing) {
	if len(listings) == 0 {
		return
	}

	priceB := boundsOf(listings, func(l *models.Listing) (float64, bool) {
		return l.Price, true
	})
	mileageB := boundsOf(listings, func(l *models.Listing) (float64, bool) {
		if l.Mileage == nil {
			return 0, false
		}
		return float64(*l.Mileage), true
	})

	// Year is inverted before normalization: newer cars get a lower raw
	// value, hence a lower (better) normalized value.
	maxYear := 0
	for _, l := range listings {
		if l.Year != nil && *l.Year > maxYear {
			maxYear = *l.Year
		}
	}
	yearB := boundsOf(listings, func(l *models.Listing) (float64, bool) {
		if l.Year == nil {
			return 0, false
		}
		return float64(maxYear - *l.Year), true
	})

	for _, l := range listings {
		priceNorm := priceB.normalize(l.Price)

		mileageNorm := 1.0
		if l.Mileage != nil {
			mileageNorm = mileageB.normalize(float64(*l.Mileage))
		}

		yearNorm := 1.0
		if l.Year != nil {
			yearNorm = yearB.normalize(float64(maxYear-*l.Year))
		}

		score := priceWeight*priceNorm + mileageWeight*mileageNorm + yearWeight*yearNorm
		l.Score = &score
	}
}

// SortByScore orders listings by ascending score, breaking ties by ascending
// price and then by URL for determinism.
func SortByScore(listings []*models.Listing) {
	sort.SliceStable(listings, func(i, j int) bool {
		a, b := listings[i], listings[j]
		as, bs := scoreOf(a), scoreOf(b)
		if as != bs {
			return as < bs
		}
		if a.Price != b.Price {
			return a.Price < b.Price
		}
		return a.URL < b.URL
	})
}

// SortByDistance orders listings by ascending annotated distance; listings
// without a distance sort last, by score among themselves.
func SortByDistance(listings []*models.Listing) {
	sort.SliceStable(listings, func(i, j int) bool {
		a, b := listings[i], listings[j]
		switch {
		case a.DistanceKm != nil && b.DistanceKm != nil:
			if *a.DistanceKm != *b.DistanceKm {
				return *a.DistanceKm < *b.DistanceKm
			}
			return scoreOf(a) < scoreOf(b)
		case a.DistanceKm != nil:
			return true
		case b.DistanceKm != nil:
			return false
		default:
			return scoreOf(a) < scoreOf(b)
		}
	})
}

func scoreOf(l *models.Listing) float64 {
	if l.Score == nil {
		return 1
	}
	return *l.Score
}

type bounds struct {
	lo, hi float64
	seen   bool
}

func boundsOf(listings []*models.Listing, value func(*models.Listing) (float64, bool)) bounds {
	var b bounds
	for _, l := range listings {
		v, ok := value(l)
		if !ok {
			continue
		}
		if !b.seen {
			b.lo, b.hi, b.seen = v, v, true
			continue
		}
		if v < b.lo {
			b.lo = v
		}
		if v > b.hi {
			b.hi = v
		}
	}
	return b
}

func (b bounds) normalize(v float64) float64 {
	if !b.seen || b.hi == b.lo {
		return 0
	}
	return (v - b.lo) / (b.hi - b.lo)
}
