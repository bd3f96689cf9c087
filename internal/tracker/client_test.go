package tracker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestGetJob(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/jobs/42" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("Accept = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"id": "42",
			"title": "Backend Engineer",
			"company": "Acme",
			"location": "Vancouver, BC",
			"skills": ["go", "postgres"]
		}`)
	}))
	defer ts.Close()

	client := New(ts.URL+"/", zap.NewNop())

	job, err := client.GetJob(context.Background(), "42")
	if err != nil {
		t.Fatalf("GetJob: %s", err)
	}
	if job.ID != "42" || job.Title != "Backend Engineer" || job.Company != "Acme" {
		t.Fatalf("unexpected job: %+v", job)
	}
	if len(job.Skills) != 2 {
		t.Fatalf("skills not decoded: %+v", job.Skills)
	}
}

func TestGetJobNotFound(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	client := New(ts.URL, zap.NewNop())

	_, err := client.GetJob(context.Background(), "missing")
	if !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("GetJob = %v, want ErrJobNotFound", err)
	}
}

func TestGetJobBadStatus(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	client := New(ts.URL, zap.NewNop())

	_, err := client.GetJob(context.Background(), "42")
	if err == nil || errors.Is(err, ErrJobNotFound) {
		t.Fatalf("GetJob = %v, want a transport error", err)
	}
}

func TestGetJobEscapesID(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/jobs/a b" {
			t.Errorf("path = %q", r.URL.Path)
		}
		fmt.Fprint(w, `{"title": "x"}`)
	}))
	defer ts.Close()

	client := New(ts.URL, zap.NewNop())
	if _, err := client.GetJob(context.Background(), "a b"); err != nil {
		t.Fatalf("GetJob: %s", err)
	}
}
