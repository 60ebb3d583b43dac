// Package extract contains the pure field-extraction routines shared by every
// marketplace adapter and the normalizer. A non-match yields an absent value,
// never an error.
package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const minYear = 1900

var (
	// yearRegexp captures any standalone 4-digit token; range-checking happens after.
	yearRegexp = regexp.MustCompile(`\b(\d{4})\b`)
	// mileageRegexp captures digits with optional thousand separators followed by a km unit.
	mileageRegexp = regexp.MustCompile(`(?i)(\d{1,3}(?:[.,]\d{3})+|\d+)\s*(?:km\b|kilómetros|kilometros)`)
	// priceRegexp captures a numeric price after currency symbols are stripped.
	priceRegexp = regexp.MustCompile(`\d+(?:[.,]\d+)*`)
)

// ExtractYear returns the first 4-digit token within [1900, current_year+1].
// Titles conventionally lead with the model year, so the leftmost in-range
// match wins.
func ExtractYear(text string) *int {
	maxYear := time.Now().Year() + 1
	for _, m := range yearRegexp.FindAllStringSubmatch(text, -1) {
		year, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if year >= minYear && year <= maxYear {
			return &year
		}
	}
	return nil
}

// ExtractMileage returns the kilometer reading from texts like "100.000 km",
// "100,000 km" or "100000 km". Grouping separators are stripped before parsing.
func ExtractMileage(text string) *int {
	m := mileageRegexp.FindStringSubmatch(text)
	if len(m) < 2 {
		return nil
	}
	digits := strings.NewReplacer(".", "", ",", "").Replace(m[1])
	km, err := strconv.Atoi(digits)
	if err != nil || km < 0 {
		return nil
	}
	return &km
}

// ExtractCity matches text case-insensitively against a registry of known city
// names; the first registry entry found as a substring wins. Returns def when
// nothing matches.
func ExtractCity(text string, knownCities []string, def string) string {
	lower := strings.ToLower(text)
	for _, city := range knownCities {
		if strings.Contains(lower, strings.ToLower(city)) {
			return city
		}
	}
	return def
}

// ParsePrice strips currency symbols and grouping separators and returns the
// absolute value in currency units. Returns nil (not zero) on unparsable input.
func ParsePrice(text string) *float64 {
	cleaned := strings.NewReplacer("$", "", "COP", "", "cop", "", " ", "").Replace(strings.TrimSpace(text))
	match := priceRegexp.FindString(cleaned)
	if match == "" {
		return nil
	}

	// Colombian marketplaces use "." and "," interchangeably as thousand
	// separators; prices carry no decimal part.
	digits := strings.NewReplacer(".", "", ",", "").Replace(match)
	value, err := strconv.ParseFloat(digits, 64)
	if err != nil || value <= 0 {
		return nil
	}
	return &value
}
