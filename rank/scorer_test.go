package rank

import (
	"testing"

	"github.com/stretchr/testify/require"

	"carscan/models"
)

func intp(v int) *int { return &v }
func floatp(v float64) *float64 { return &v }

func candidateSet() []*models.Listing {
	return []*models.Listing{
		{URL: "https://x.co/a", Price: 35000000, Mileage: intp(120000), Year: intp(2015)},
		{URL: "https://x.co/b", Price: 28500000, Mileage: intp(85000), Year: intp(2018)},
		{URL: "https://x.co/c", Price: 92000000, Mileage: intp(45000), Year: intp(2020)},
	}
}

func TestScoreKnownCandidateSet(t *testing.T) {
	listings := candidateSet()
	Score(listings)

	// Hand-computed from the weighted min-max formula:
	//   a: 0.5*(6.5/63.5) + 0.3*1.0      + 0.2*1.0  = 0.5511811...
	//   b: 0.5*0.0        + 0.3*(40/75)  + 0.2*0.4  = 0.24
	//   c: 0.5*1.0        + 0.3*0.0      + 0.2*0.0  = 0.5
	require.InDelta(t, 0.5511811, *listings[0].Score, 1e-6)
	require.InDelta(t, 0.24, *listings[1].Score, 1e-6)
	require.InDelta(t, 0.5, *listings[2].Score, 1e-6)

	SortByScore(listings)
	require.Equal(t, "https://x.co/b", listings[0].URL, "low price, low mileage, recent year wins")
	require.Equal(t, "https://x.co/c", listings[1].URL)
	require.Equal(t, "https://x.co/a", listings[2].URL)
}

func TestScoreMissingAttributeIsWorstCase(t *testing.T) {
	listings := []*models.Listing{
		{URL: "https://x.co/full", Price: 30000000, Mileage: intp(50000), Year: intp(2019)},
		{URL: "https://x.co/bare", Price: 30000000},
		{URL: "https://x.co/far", Price: 60000000, Mileage: intp(90000), Year: intp(2010)},
	}
	Score(listings)

	// Equal price, but the bare listing pays the worst-case 1.0 on mileage
	// and year, so it must rank below the fully-described one.
	require.Less(t, *listings[0].Score, *listings[1].Score)
}

func TestScoreUniformAttributeCarriesNoSignal(t *testing.T) {
	listings := []*models.Listing{
		{URL: "https://x.co/1", Price: 20000000, Mileage: intp(50000), Year: intp(2019)},
		{URL: "https://x.co/2", Price: 20000000, Mileage: intp(70000), Year: intp(2019)},
	}
	Score(listings)

	// Price and year are uniform; only mileage discriminates.
	require.InDelta(t, 0.0, *listings[0].Score, 1e-9)
	require.InDelta(t, 0.3, *listings[1].Score, 1e-9)
}

func TestScoreEmptySet(t *testing.T) {
	require.NotPanics(t, func() { Score(nil) })
}

func TestSortByScoreTieBreaks(t *testing.T) {
	s := 0.5
	listings := []*models.Listing{
		{URL: "https://x.co/b", Price: 200, Score: &s},
		{URL: "https://x.co/a", Price: 200, Score: &s},
		{URL: "https://x.co/c", Price: 100, Score: &s},
	}
	SortByScore(listings)

	require.Equal(t, "https://x.co/c", listings[0].URL, "price breaks the score tie")
	require.Equal(t, "https://x.co/a", listings[1].URL, "URL breaks the price tie")
	require.Equal(t, "https://x.co/b", listings[2].URL)
}

func TestApplyGeoRadiusBound(t *testing.T) {
	medellin := &models.Coordinates{Latitude: 6.2442, Longitude: -75.5812}
	listings := []*models.Listing{
		{URL: "https://x.co/near", Latitude: floatp(6.17), Longitude: floatp(-75.59)},   // Envigado, ~8 km
		{URL: "https://x.co/far", Latitude: floatp(4.7110), Longitude: floatp(-74.0721)}, // Bogotá, ~240 km
		{URL: "https://x.co/nocoords"},
	}

	radius := 50.0
	kept, skipped := ApplyGeo(listings, medellin, &radius)

	require.Len(t, kept, 1)
	require.Equal(t, "https://x.co/near", kept[0].URL)
	require.NotNil(t, kept[0].DistanceKm)
	require.InDelta(t, 8, *kept[0].DistanceKm, 3)
	require.Equal(t, 1, skipped, "coordinate-less listing is a counted exclusion")
}

func TestApplyGeoWithoutOriginPassesThrough(t *testing.T) {
	listings := []*models.Listing{
		{URL: "https://x.co/nocoords"},
		{URL: "https://x.co/coords", Latitude: floatp(6.2), Longitude: floatp(-75.5)},
	}

	kept, skipped := ApplyGeo(listings, nil, nil)
	require.Len(t, kept, 2)
	require.Zero(t, skipped)
	require.Nil(t, kept[1].DistanceKm, "no origin means no distance annotation")
}

func TestApplyGeoOriginWithoutRadiusAnnotatesOnly(t *testing.T) {
	medellin := &models.Coordinates{Latitude: 6.2442, Longitude: -75.5812}
	listings := []*models.Listing{
		{URL: "https://x.co/bogota", Latitude: floatp(4.7110), Longitude: floatp(-74.0721)},
		{URL: "https://x.co/nocoords"},
	}

	kept, skipped := ApplyGeo(listings, medellin, nil)
	require.Len(t, kept, 2, "unbounded search keeps coordinate-less listings")
	require.Zero(t, skipped)
	require.NotNil(t, kept[0].DistanceKm)
}

func TestSortByDistance(t *testing.T) {
	listings := []*models.Listing{
		{URL: "https://x.co/far", DistanceKm: floatp(120)},
		{URL: "https://x.co/none"},
		{URL: "https://x.co/near", DistanceKm: floatp(5)},
	}
	SortByDistance(listings)

	require.Equal(t, "https://x.co/near", listings[0].URL)
	require.Equal(t, "https://x.co/far", listings[1].URL)
	require.Equal(t, "https://x.co/none", listings[2].URL)
}
