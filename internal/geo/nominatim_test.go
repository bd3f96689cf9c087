package geo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNominatimGeocode(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("path = %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("format") != "json" || q.Get("limit") != "1" || q.Get("addressdetails") != "1" {
			t.Errorf("unexpected query: %v", q)
		}
		if q.Get("q") != "Vancouver, BC" {
			t.Errorf("q = %q", q.Get("q"))
		}
		if r.Header.Get("User-Agent") != "test-agent" {
			t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
		}
		fmt.Fprint(w, `[{
			"lat": "49.2827",
			"lon": "-123.1207",
			"display_name": "Vancouver, British Columbia, Canada",
			"address": {"city": "Vancouver", "state": "British Columbia", "country": "Canada"}
		}]`)
	}))
	defer ts.Close()

	n := NewNominatim(
		WithBaseURL(ts.URL),
		WithUserAgent("test-agent"),
		WithMinInterval(time.Microsecond),
	)

	loc, err := n.Geocode(context.Background(), "Vancouver, BC")
	if err != nil {
		t.Fatalf("Geocode: %s", err)
	}
	if loc == nil {
		t.Fatalf("expected a match")
	}
	if loc.Lat != 49.2827 || loc.Lon != -123.1207 {
		t.Fatalf("unexpected coordinates: %+v", loc.Coordinates)
	}
	if loc.City != "Vancouver" || loc.Country != "Canada" {
		t.Fatalf("unexpected address: %+v", loc)
	}
}

func TestNominatimGeocodeNoMatch(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer ts.Close()

	n := NewNominatim(WithBaseURL(ts.URL), WithMinInterval(time.Microsecond))

	loc, err := n.Geocode(context.Background(), "Nowhereville")
	if err != nil {
		t.Fatalf("Geocode: %s", err)
	}
	if loc != nil {
		t.Fatalf("no match must be nil, got %+v", loc)
	}
}

func TestNominatimGeocodeBadStatus(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	n := NewNominatim(WithBaseURL(ts.URL), WithMinInterval(time.Microsecond))

	if _, err := n.Geocode(context.Background(), "Vancouver, BC"); err == nil {
		t.Fatalf("expected an error on a non-200 response")
	}
}

func TestNominatimGeocodeEmptyQuery(t *testing.T) {
	t.Parallel()

	var called bool
	ts := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		called = true
	}))
	defer ts.Close()

	n := NewNominatim(WithBaseURL(ts.URL), WithMinInterval(time.Microsecond))

	loc, err := n.Geocode(context.Background(), "  ")
	if err != nil || loc != nil {
		t.Fatalf("Geocode(blank) = %v, %v", loc, err)
	}
	if called {
		t.Fatalf("blank query reached the provider")
	}
}

func TestNominatimReverseGeocode(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/reverse" {
			t.Errorf("path = %q", r.URL.Path)
		}
		fmt.Fprint(w, `{
			"lat": "49.2827",
			"lon": "-123.1207",
			"display_name": "Vancouver, British Columbia, Canada",
			"address": {"town": "Vancouver", "country": "Canada"}
		}`)
	}))
	defer ts.Close()

	n := NewNominatim(WithBaseURL(ts.URL), WithMinInterval(time.Microsecond))

	loc, err := n.ReverseGeocode(context.Background(), 49.2827, -123.1207)
	if err != nil {
		t.Fatalf("ReverseGeocode: %s", err)
	}
	// Town backfills an absent city field.
	if loc == nil || loc.City != "Vancouver" {
		t.Fatalf("unexpected location: %+v", loc)
	}
}

func TestMemoryCache(t *testing.T) {
	t.Parallel()

	cache := NewMemoryCache()
	ctx := context.Background()

	if _, ok := cache.Get(ctx, "vancouver"); ok {
		t.Fatalf("empty cache reported a hit")
	}

	hit := CacheEntry{Location: &Location{Coordinates: vancouver}, Found: true}
	cache.Set(ctx, "vancouver", hit)
	miss := CacheEntry{Found: false}
	cache.Set(ctx, "nowhereville", miss)

	got, ok := cache.Get(ctx, "vancouver")
	if !ok || !got.Found || got.Location == nil {
		t.Fatalf("cached hit lost: %+v, %v", got, ok)
	}

	got, ok = cache.Get(ctx, "nowhereville")
	if !ok || got.Found {
		t.Fatalf("cached miss lost: %+v, %v", got, ok)
	}
}
