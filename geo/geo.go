// Package geo holds the known-city registry and great-circle distance math.
package geo

import (
	_ "embed"
	"fmt"
	"math"
	"strings"

	"gopkg.in/yaml.v3"

	"carscan/models"
)

//go:embed cities.yaml
var citiesYAML []byte

// City is one registry entry with its centroid coordinates.
type City struct {
	Name string  `yaml:"name"`
	Lat  float64 `yaml:"lat"`
	Lon  float64 `yaml:"lon"`
}

// Registry is an ordered collection of known cities. Iteration order matters:
// the normalizer resolves a location string to the first city whose name it
// contains.
type Registry struct {
	DefaultCity string `yaml:"default"`
	Cities      []City `yaml:"cities"`
}

// LoadRegistry parses the embedded city registry.
func LoadRegistry() (*Registry, error) {
	var r Registry
	if err := yaml.Unmarshal(citiesYAML, &r); err != nil {
		return nil, fmt.Errorf("geo: parse city registry: %w", err)
	}
	if len(r.Cities) == 0 {
		return nil, fmt.Errorf("geo: city registry is empty")
	}
	return &r, nil
}

// Names returns the registry's city names in iteration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.Cities))
	for _, c := range r.Cities {
		names = append(names, c.Name)
	}
	return names
}

// Centroid returns the coordinates of a known city by case-insensitive name
// match, or nil when the city is not in the registry.
func (r *Registry) Centroid(name string) *models.Coordinates {
	for _, c := range r.Cities {
		if strings.EqualFold(c.Name, strings.TrimSpace(name)) {
			return &models.Coordinates{Latitude: c.Lat, Longitude: c.Lon}
		}
	}
	return nil
}

// DistanceKm returns the haversine great-circle distance in kilometers.
func DistanceKm(from models.Coordinates, lat, lon float64) float64 {
	const earthRadiusKm = 6371.0

	dLat := (lat - from.Latitude) * math.Pi / 180
	dLon := (lon - from.Longitude) * math.Pi / 180

	lat1Rad := from.Latitude * math.Pi / 180
	lat2Rad := lat * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1Rad)*math.Cos(lat2Rad)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}
