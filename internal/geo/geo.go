// Package geo resolves free-text job locations to coordinates and answers
// radius questions for the similar-jobs pipeline.
package geo

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Earth radius used for great-circle math, in miles.
const earthRadiusMiles = 3959

// Coordinates is a validated latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Location is a resolved geographic location. City/State/Country may be empty
// when the provider does not report them.
type Location struct {
	Coordinates

	FormattedAddress string `json:"formattedAddress"`
	City             string `json:"city,omitempty"`
	State            string `json:"state,omitempty"`
	Country          string `json:"country,omitempty"`
}

// ParsedLocation is the structural breakdown of a raw location string.
type ParsedLocation struct {
	City     string
	State    string
	Country  string
	IsRemote bool
}

// remoteKeywords marks a posting as location-independent. Checked before any
// geocoding since it is free and common.
var remoteKeywords = []string{
	"remote",
	"work from home",
	"wfh",
	"virtual",
	"telecommute",
}

// Distance returns the haversine great-circle distance between two points in
// miles, rounded to 2 decimal places.
func Distance(a, b Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	d := 2 * earthRadiusMiles * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return math.Round(d*100) / 100
}

// ParseLocation lower-cases and trims the input, classifies remote postings by
// keyword, and otherwise splits on commas into up to three positional parts.
func ParseLocation(s string) ParsedLocation {
	s = strings.ToLower(strings.TrimSpace(s))

	for _, kw := range remoteKeywords {
		if strings.Contains(s, kw) {
			return ParsedLocation{IsRemote: true}
		}
	}

	var parsed ParsedLocation
	parts := strings.SplitN(s, ",", 3)
	for i, part := range parts {
		part = strings.TrimSpace(part)
		switch i {
		case 0:
			parsed.City = part
		case 1:
			parsed.State = part
		case 2:
			parsed.Country = part
		}
	}
	return parsed
}

var coordsPattern = regexp.MustCompile(`^\s*(-?\d+(?:\.\d+)?)\s*,\s*(-?\d+(?:\.\d+)?)\s*$`)

// ExtractCoordinates recognizes a "lat,lon" literal and validates the ranges.
// Used as a fast path before full geocoding.
func ExtractCoordinates(s string) (Coordinates, bool) {
	m := coordsPattern.FindStringSubmatch(s)
	if m == nil {
		return Coordinates{}, false
	}

	lat, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Coordinates{}, false
	}
	lon, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return Coordinates{}, false
	}

	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Coordinates{}, false
	}
	return Coordinates{Lat: lat, Lon: lon}, true
}

// Normalize produces the dedup/display key for a location or any other short
// text field: lower-case, trimmed, internal whitespace collapsed, everything
// outside letters/digits/comma/hyphen stripped.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	var b strings.Builder
	lastSpace := false
	for _, r := range s {
		switch {
		case r == ' ' || r == '\t' || r == '\n':
			if !lastSpace && b.Len() > 0 {
				b.WriteRune(' ')
				lastSpace = true
			}
		case r == ',' || r == '-' || isAlphanumeric(r):
			b.WriteRune(r)
			lastSpace = false
		}
	}
	return strings.TrimRight(b.String(), " ")
}

func isAlphanumeric(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// FormatCoordinates renders the "{lat}, {lon}" fallback address.
func FormatCoordinates(lat, lon float64) string {
	return fmt.Sprintf("%g, %g", lat, lon)
}
