package scraper

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Selectors is the per-board CSS selector set used to pull posting fields out
// of a search results page. Job and Title are mandatory; the rest are
// best-effort.
type Selectors struct {
	// Job matches one posting container; the other selectors run inside it.
	Job         string `mapstructure:"job"`
	Title       string `mapstructure:"title"`
	Company     string `mapstructure:"company"`
	Location    string `mapstructure:"location"`
	Description string `mapstructure:"description"`
	// Link matches the anchor whose href is the posting URL. Empty means the
	// first anchor inside the container.
	Link   string `mapstructure:"link"`
	Salary string `mapstructure:"salary"`
	Posted string `mapstructure:"posted"`
}

// Pagination bounds how far a scraper follows result pages.
type Pagination struct {
	// NextPage matches the anchor pointing at the next results page.
	NextPage string `mapstructure:"next-page"`
	MaxPages int    `mapstructure:"max-pages"`
}

// Config is the static descriptor of one external job board. One generic
// scraping routine consumes these; there is no per-board code.
type Config struct {
	Name    string `mapstructure:"name"`
	BaseURL string `mapstructure:"base-url"`
	// SearchPath is a path template with {query} and {page} placeholders.
	SearchPath string      `mapstructure:"search-path"`
	Selectors  Selectors   `mapstructure:"selectors"`
	Pagination *Pagination `mapstructure:"pagination"`
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("source name is required")
	}
	if _, err := url.ParseRequestURI(c.BaseURL); err != nil {
		return fmt.Errorf("source %s: invalid base-url %q: %w", c.Name, c.BaseURL, err)
	}
	if strings.TrimSpace(c.SearchPath) == "" {
		return fmt.Errorf("source %s: search-path is required", c.Name)
	}
	if strings.TrimSpace(c.Selectors.Job) == "" || strings.TrimSpace(c.Selectors.Title) == "" {
		return fmt.Errorf("source %s: job and title selectors are required", c.Name)
	}
	return nil
}

// maxPages returns the configured pagination bound, defaulting to a single
// page when pagination is not configured.
func (c *Config) maxPages() int {
	if c.Pagination == nil || c.Pagination.MaxPages < 1 {
		return 1
	}
	return c.Pagination.MaxPages
}

// searchURL expands the path template for a query and zero-based page index.
func (c *Config) searchURL(query string, page int) string {
	path := strings.ReplaceAll(c.SearchPath, "{query}", url.QueryEscape(query))
	path = strings.ReplaceAll(path, "{page}", strconv.Itoa(page))
	return strings.TrimRight(c.BaseURL, "/") + path
}
