package geo

import (
	"context"
	"math"
	"strings"

	"go.uber.org/zap"
)

// Geocoder is the external provider contract. A nil Location with nil error
// means "no match"; errors are transport-level.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (*Location, error)
	ReverseGeocode(ctx context.Context, lat, lon float64) (*Location, error)
}

// RadiusCheck is the outcome of classifying one posting location against the
// reference point.
type RadiusCheck struct {
	// Distance in miles. Zero for remote postings, +Inf when the location
	// could not be resolved.
	Distance     float64
	WithinRadius bool
	IsRemote     bool
}

// Resolver wraps the geocoding provider with a cache and the best-effort
// semantics the pipeline needs: geocoding never fails a search, it only
// degrades to "not found".
type Resolver struct {
	geocoder Geocoder
	cache    Cache
	logger   *zap.Logger
}

func NewResolver(geocoder Geocoder, cache Cache, logger *zap.Logger) *Resolver {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Resolver{
		geocoder: geocoder,
		cache:    cache,
		logger:   logger,
	}
}

// Geocode resolves an address to a location. The second return is false when
// the address is empty, unresolvable, or the provider failed. Provider errors
// are swallowed here on purpose: geocoding is best-effort.
func (r *Resolver) Geocode(ctx context.Context, address string) (*Location, bool) {
	if strings.TrimSpace(address) == "" {
		return nil, false
	}

	// "lat,lon" literals skip the provider entirely.
	if coords, ok := ExtractCoordinates(address); ok {
		return &Location{
			Coordinates:      coords,
			FormattedAddress: FormatCoordinates(coords.Lat, coords.Lon),
		}, true
	}

	key := Normalize(address)
	if entry, ok := r.cache.Get(ctx, key); ok {
		return entry.Location, entry.Found
	}

	loc, err := r.geocoder.Geocode(ctx, address)
	if err != nil {
		if r.logger != nil {
			r.logger.Debug("geocoding failed", zap.String("address", address), zap.Error(err))
		}
		return nil, false
	}

	// Misses are cached as well; transport errors above are not.
	r.cache.Set(ctx, key, CacheEntry{Location: loc, Found: loc != nil})

	return loc, loc != nil
}

// ReverseGeocode resolves coordinates to an address. When the provider has no
// match (or fails), the formatted address falls back to "{lat}, {lon}" and the
// second return is false.
func (r *Resolver) ReverseGeocode(ctx context.Context, lat, lon float64) (*Location, bool) {
	fallback := &Location{
		Coordinates:      Coordinates{Lat: lat, Lon: lon},
		FormattedAddress: FormatCoordinates(lat, lon),
	}

	loc, err := r.geocoder.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		if r.logger != nil {
			r.logger.Debug("reverse geocoding failed",
				zap.Float64("lat", lat),
				zap.Float64("lon", lon),
				zap.Error(err),
			)
		}
		return fallback, false
	}
	if loc == nil {
		return fallback, false
	}

	return loc, true
}

// IsWithinRadius classifies a posting location against the reference point.
// Remote postings short-circuit before any geocoding. Unresolvable locations
// fail closed: an unverifiable location never counts as nearby.
func (r *Resolver) IsWithinRadius(ctx context.Context, postingLocation string, reference *Location, radiusMiles float64) RadiusCheck {
	if ParseLocation(postingLocation).IsRemote {
		return RadiusCheck{Distance: 0, WithinRadius: true, IsRemote: true}
	}

	if reference == nil {
		// No location constraint on the search.
		return RadiusCheck{Distance: 0, WithinRadius: true}
	}

	loc, ok := r.Geocode(ctx, postingLocation)
	if !ok {
		return RadiusCheck{Distance: math.Inf(1), WithinRadius: false}
	}

	d := Distance(loc.Coordinates, reference.Coordinates)
	return RadiusCheck{Distance: d, WithinRadius: d <= radiusMiles}
}
