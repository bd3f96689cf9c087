package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultNominatimURL is the public OSM endpoint. It allows one request
	// per second, hence the limiter default below.
	DefaultNominatimURL = "https://nominatim.openstreetmap.org"

	defaultUserAgent   = "jobradar/1.0"
	defaultMinInterval = time.Second
	defaultHTTPTimeout = 10 * time.Second
)

// Nominatim is a geocoding provider backed by a Nominatim-compatible HTTP
// endpoint. Requests are paced through a rate limiter; each geocode attempt
// is single-shot with no retry.
type Nominatim struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	limiter    *rate.Limiter
}

type NominatimOption func(*Nominatim)

func WithBaseURL(baseURL string) NominatimOption {
	return func(n *Nominatim) {
		if strings.TrimSpace(baseURL) != "" {
			n.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

func WithHTTPClient(client *http.Client) NominatimOption {
	return func(n *Nominatim) {
		if client != nil {
			n.httpClient = client
		}
	}
}

func WithUserAgent(userAgent string) NominatimOption {
	return func(n *Nominatim) {
		if strings.TrimSpace(userAgent) != "" {
			n.userAgent = userAgent
		}
	}
}

func WithMinInterval(interval time.Duration) NominatimOption {
	return func(n *Nominatim) {
		if interval > 0 {
			n.limiter = rate.NewLimiter(rate.Every(interval), 1)
		}
	}
}

func NewNominatim(opts ...NominatimOption) *Nominatim {
	n := &Nominatim{
		baseURL:    DefaultNominatimURL,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		userAgent:  defaultUserAgent,
		limiter:    rate.NewLimiter(rate.Every(defaultMinInterval), 1),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// nominatimPlace mirrors one entry of a Nominatim response.
type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	Address     struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		State   string `json:"state"`
		Country string `json:"country"`
	} `json:"address"`
}

// Geocode resolves an address string. A nil Location with nil error means the
// provider had no match.
func (n *Nominatim) Geocode(ctx context.Context, query string) (*Location, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("format", "json")
	params.Set("limit", "1")
	params.Set("addressdetails", "1")
	params.Set("q", query)

	var places []nominatimPlace
	if err := n.get(ctx, "/search", params, &places); err != nil {
		return nil, err
	}
	if len(places) == 0 {
		return nil, nil
	}

	return placeToLocation(places[0])
}

// ReverseGeocode resolves coordinates to an address. A nil Location with nil
// error means the provider had no match.
func (n *Nominatim) ReverseGeocode(ctx context.Context, lat, lon float64) (*Location, error) {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))

	var place nominatimPlace
	if err := n.get(ctx, "/reverse", params, &place); err != nil {
		return nil, err
	}
	if place.Lat == "" || place.Lon == "" {
		return nil, nil
	}

	return placeToLocation(place)
}

func (n *Nominatim) get(ctx context.Context, path string, params url.Values, target any) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.URL.RawQuery = params.Encode()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", n.userAgent)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("geocode: bad status: %s", resp.Status)
	}

	return json.NewDecoder(resp.Body).Decode(target)
}

func placeToLocation(place nominatimPlace) (*Location, error) {
	lat, err := strconv.ParseFloat(place.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("geocode: parsing lat %q: %w", place.Lat, err)
	}
	lon, err := strconv.ParseFloat(place.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("geocode: parsing lon %q: %w", place.Lon, err)
	}

	city := place.Address.City
	if city == "" {
		city = place.Address.Town
	}
	if city == "" {
		city = place.Address.Village
	}

	return &Location{
		Coordinates:      Coordinates{Lat: lat, Lon: lon},
		FormattedAddress: place.DisplayName,
		City:             city,
		State:            place.Address.State,
		Country:          place.Address.Country,
	}, nil
}
