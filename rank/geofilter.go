package rank

import (
	"carscan/geo"
	"carscan/models"
)

// ApplyGeo annotates listings with the great-circle distance from origin and,
// when a radius is given, drops listings outside it. A listing without
// coordinates cannot be verified against the radius, so a radius-bounded
// search excludes it; the exclusion count is returned rather than silently
// dropped. Without an origin the input passes through untouched.
func ApplyGeo(listings []*models.Listing, origin *models.Coordinates, radiusKm *float64) ([]*models.Listing, int) {
	if origin == nil {
		return listings, 0
	}

	bounded := radiusKm != nil
	skippedNoCoords := 0
	out := make([]*models.Listing, 0, len(listings))

	for _, l := range listings {
		if !l.HasCoordinates() {
			if bounded {
				skippedNoCoords++
				continue
			}
			out = append(out, l)
			continue
		}

		d := geo.DistanceKm(*origin, *l.Latitude, *l.Longitude)
		l.DistanceKm = &d

		if bounded && d > *radiusKm {
			continue
		}
		out = append(out, l)
	}

	return out, skippedNoCoords
}
