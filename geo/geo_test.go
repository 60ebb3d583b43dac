package geo

import (
	"testing"

	"github.com/stretchr/testify/require"

	"carscan/models"
)

func TestLoadRegistry(t *testing.T) {
	r, err := LoadRegistry()
	require.NoError(t, err)
	require.Equal(t, "Medellín", r.DefaultCity)
	require.NotEmpty(t, r.Cities)
	require.Equal(t, "Bogotá", r.Cities[0].Name)
}

func TestCentroid(t *testing.T) {
	r, err := LoadRegistry()
	require.NoError(t, err)

	c := r.Centroid("medellín")
	require.NotNil(t, c)
	require.InDelta(t, 6.2442, c.Latitude, 0.0001)

	require.Nil(t, r.Centroid("Leticia"))
}

func TestDistanceKm(t *testing.T) {
	bogota := models.Coordinates{Latitude: 4.7110, Longitude: -74.0721}

	// Bogotá to Medellín is roughly 240 km as the crow flies.
	d := DistanceKm(bogota, 6.2442, -75.5812)
	require.InDelta(t, 240, d, 15)

	// Zero distance to itself.
	require.InDelta(t, 0, DistanceKm(bogota, bogota.Latitude, bogota.Longitude), 0.001)
}
