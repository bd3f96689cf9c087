package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

const listingPage = `<!DOCTYPE html>
<html><body>
<div class="job-card">
  <h2 class="job-title">Backend Engineer</h2>
  <span class="company">Acme Corp</span>
  <span class="location">Vancouver, BC</span>
  <p class="summary">Build Go services</p>
  <span class="salary">$120k</span>
  <a class="job-link" href="/jobs/123">view</a>
</div>
<div class="job-card">
  <h2 class="job-title">Platform Engineer</h2>
  <span class="company">Globex</span>
  <span class="location">Remote</span>
  <a class="job-link" href="https://other.example/jobs/9">view</a>
</div>
<div class="job-card">
  <span class="company">Ghost Inc</span>
</div>
</body></html>`

func testConfig(baseURL string) Config {
	return Config{
		Name:       "testboard",
		BaseURL:    baseURL,
		SearchPath: "/search?q={query}&page={page}",
		Selectors: Selectors{
			Job:         "div.job-card",
			Title:       "h2.job-title",
			Company:     "span.company",
			Location:    "span.location",
			Description: "p.summary",
			Link:        "a.job-link",
			Salary:      "span.salary",
		},
	}
}

func TestSearchParsesListings(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "backend engineer" {
			t.Errorf("query param = %q, want %q", got, "backend engineer")
		}
		if got := r.Header.Get("User-Agent"); got == "" {
			t.Errorf("missing User-Agent header")
		}
		fmt.Fprint(w, listingPage)
	}))
	defer ts.Close()

	s := New(testConfig(ts.URL), zap.NewNop())

	result, err := s.Search(context.Background(), "backend engineer")
	if err != nil {
		t.Fatalf("Search: %s", err)
	}

	// The third card has no title and must be dropped.
	if len(result.Jobs) != 2 {
		t.Fatalf("got %d postings, want 2", len(result.Jobs))
	}

	first := result.Jobs[0]
	if first.Title != "Backend Engineer" || first.Company != "Acme Corp" {
		t.Fatalf("unexpected first posting: %+v", first)
	}
	if first.Location != "Vancouver, BC" || first.Salary != "$120k" {
		t.Fatalf("unexpected first posting fields: %+v", first)
	}
	if first.Source != "testboard" {
		t.Fatalf("posting source = %q, want testboard", first.Source)
	}
	if first.URL != ts.URL+"/jobs/123" {
		t.Fatalf("relative link not resolved: %q", first.URL)
	}

	if result.Jobs[1].URL != "https://other.example/jobs/9" {
		t.Fatalf("absolute link rewritten: %q", result.Jobs[1].URL)
	}
}

func TestSearchFirstPageErrorFails(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	s := New(testConfig(ts.URL), zap.NewNop())

	if _, err := s.Search(context.Background(), "backend"); err == nil {
		t.Fatalf("expected an error on a failed first page")
	}
}

func TestSearchFollowsPaginationBound(t *testing.T) {
	t.Parallel()

	var pagesServed int
	var ts *httptest.Server
	ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		pagesServed++
		fmt.Fprintf(w, `<html><body>
<div class="job-card"><h2 class="job-title">Job %d</h2><a class="job-link" href="/jobs/%d">v</a></div>
<a class="next" href="%s/search?q=x&page=%d">next</a>
</body></html>`, pagesServed, pagesServed, ts.URL, pagesServed)
	}))
	defer ts.Close()

	cfg := testConfig(ts.URL)
	cfg.Pagination = &Pagination{NextPage: "a.next", MaxPages: 2}
	s := New(cfg, zap.NewNop())

	result, err := s.Search(context.Background(), "x")
	if err != nil {
		t.Fatalf("Search: %s", err)
	}
	if pagesServed != 2 {
		t.Fatalf("served %d pages, want 2", pagesServed)
	}
	if len(result.Jobs) != 2 {
		t.Fatalf("got %d postings, want 2", len(result.Jobs))
	}
	// The bound stopped the walk while the board still advertised more.
	if !result.HasMore || result.NextPageURL == "" {
		t.Fatalf("expected HasMore with a next page URL: %+v", result)
	}
}

func TestSearchLaterPageErrorDegrades(t *testing.T) {
	t.Parallel()

	var pagesServed int
	var ts *httptest.Server
	ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		pagesServed++
		if pagesServed > 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprintf(w, `<html><body>
<div class="job-card"><h2 class="job-title">Only Job</h2></div>
<a class="next" href="%s/search?q=x&page=1">next</a>
</body></html>`, ts.URL)
	}))
	defer ts.Close()

	cfg := testConfig(ts.URL)
	cfg.Pagination = &Pagination{NextPage: "a.next", MaxPages: 3}
	s := New(cfg, zap.NewNop())

	result, err := s.Search(context.Background(), "x")
	if err != nil {
		t.Fatalf("Search should degrade past the first page, got %s", err)
	}
	if len(result.Jobs) != 1 {
		t.Fatalf("got %d postings, want the first page's 1", len(result.Jobs))
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	valid := testConfig("https://example.com")
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid config rejected: %s", err)
	}

	broken := []func(*Config){
		func(c *Config) { c.Name = " " },
		func(c *Config) { c.BaseURL = "not a url" },
		func(c *Config) { c.SearchPath = "" },
		func(c *Config) { c.Selectors.Job = "" },
		func(c *Config) { c.Selectors.Title = "" },
	}
	for i, mutate := range broken {
		cfg := testConfig("https://example.com")
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("mutation %d passed validation", i)
		}
	}
}

func TestSearchURLEscapesQuery(t *testing.T) {
	t.Parallel()

	cfg := testConfig("https://example.com/")
	got := cfg.searchURL("backend engineer", 2)
	want := "https://example.com/search?q=backend+engineer&page=2"
	if got != want {
		t.Fatalf("searchURL = %q, want %q", got, want)
	}
}

func TestScrapeURLPrefersJSONLD(t *testing.T) {
	t.Parallel()

	page := `<!DOCTYPE html>
<html><head>
<title>Ignored Page Title</title>
<script type="application/ld+json">
{
  "@context": "https://schema.org/",
  "@type": "JobPosting",
  "title": "Staff Engineer",
  "description": "<p>Own the platform roadmap.</p>",
  "datePosted": "2026-08-01",
  "employmentType": "FULL_TIME",
  "hiringOrganization": {"@type": "Organization", "name": "Initech"},
  "jobLocation": {
    "@type": "Place",
    "address": {
      "addressLocality": "Vancouver",
      "addressRegion": "BC",
      "addressCountry": {"@type": "Country", "name": "Canada"}
    }
  }
}
</script>
</head><body></body></html>`

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, page)
	}))
	defer ts.Close()

	posting, err := ScrapeURL(context.Background(), ts.Client(), "test-agent", ts.URL+"/jobs/1")
	if err != nil {
		t.Fatalf("ScrapeURL: %s", err)
	}

	if posting.Title != "Staff Engineer" || posting.Company != "Initech" {
		t.Fatalf("unexpected posting: %+v", posting)
	}
	if posting.Description != "Own the platform roadmap." {
		t.Fatalf("description markup not stripped: %q", posting.Description)
	}
	if posting.Location != "Vancouver, BC, Canada" {
		t.Fatalf("unexpected location: %q", posting.Location)
	}
	if posting.JobType != "FULL_TIME" || posting.PostedDate != "2026-08-01" {
		t.Fatalf("unexpected posting fields: %+v", posting)
	}
	if posting.URL != ts.URL+"/jobs/1" {
		t.Fatalf("posting URL = %q", posting.URL)
	}
}

func TestScrapeURLTelecommuteIsRemote(t *testing.T) {
	t.Parallel()

	page := `<html><head><script type="application/ld+json">
{"@type": "JobPosting", "title": "SRE", "jobLocationType": "TELECOMMUTE"}
</script></head></html>`

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, page)
	}))
	defer ts.Close()

	posting, err := ScrapeURL(context.Background(), ts.Client(), "test-agent", ts.URL)
	if err != nil {
		t.Fatalf("ScrapeURL: %s", err)
	}
	if posting.Location != "Remote" {
		t.Fatalf("location = %q, want Remote", posting.Location)
	}
}

func TestScrapeURLGraphAndArrayShapes(t *testing.T) {
	t.Parallel()

	page := `<html><head><script type="application/ld+json">
{"@graph": [
  {"@type": "WebPage", "name": "wrapper"},
  {"@type": "JobPosting", "title": "Data Engineer",
   "hiringOrganization": {"name": "Hooli"}}
]}
</script></head></html>`

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, page)
	}))
	defer ts.Close()

	posting, err := ScrapeURL(context.Background(), ts.Client(), "test-agent", ts.URL)
	if err != nil {
		t.Fatalf("ScrapeURL: %s", err)
	}
	if posting.Title != "Data Engineer" || posting.Company != "Hooli" {
		t.Fatalf("JobPosting not found in @graph: %+v", posting)
	}
}

func TestScrapeURLMetaFallback(t *testing.T) {
	t.Parallel()

	page := `<html><head>
<title>Fallback Title</title>
<meta property="og:title" content="DevOps Engineer at Umbrella">
<meta property="og:site_name" content="Umbrella Careers">
<meta name="description" content="Keep the lab running.">
</head><body></body></html>`

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, page)
	}))
	defer ts.Close()

	posting, err := ScrapeURL(context.Background(), ts.Client(), "test-agent", ts.URL)
	if err != nil {
		t.Fatalf("ScrapeURL: %s", err)
	}
	if posting.Title != "DevOps Engineer at Umbrella" {
		t.Fatalf("og:title not preferred: %q", posting.Title)
	}
	if posting.Company != "Umbrella Careers" || posting.Description != "Keep the lab running." {
		t.Fatalf("unexpected fallback posting: %+v", posting)
	}
}

func TestDefaultSourcesAreValid(t *testing.T) {
	t.Parallel()

	sources := DefaultSources()
	if len(sources) == 0 {
		t.Fatalf("no default sources")
	}
	for _, cfg := range sources {
		if err := cfg.Validate(); err != nil {
			t.Fatalf("default source %s invalid: %s", cfg.Name, err)
		}
	}
}
