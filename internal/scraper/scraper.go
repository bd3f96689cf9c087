package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/careerpilot/jobradar/internal/jobs"
	"github.com/careerpilot/jobradar/internal/logger"
)

const defaultHTTPTimeout = 15 * time.Second

// Result is one bounded page run of a source: the postings collected, whether
// the board advertised more pages beyond the configured bound, and where they
// start.
type Result struct {
	Jobs        []*jobs.Posting
	HasMore     bool
	NextPageURL string
}

// Scraper runs the generic scraping routine against one board configuration.
type Scraper struct {
	cfg        Config
	httpClient *http.Client
	userAgent  string
	logger     *zap.Logger
}

type Option func(*Scraper)

func WithHTTPClient(client *http.Client) Option {
	return func(s *Scraper) {
		if client != nil {
			s.httpClient = client
		}
	}
}

func WithUserAgent(userAgent string) Option {
	return func(s *Scraper) {
		if strings.TrimSpace(userAgent) != "" {
			s.userAgent = userAgent
		}
	}
}

func New(cfg Config, log *zap.Logger, opts ...Option) *Scraper {
	s := &Scraper{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		userAgent:  "jobradar/1.0 (+https://github.com/careerpilot/jobradar)",
		logger:     logger.WithSource(log, cfg.Name, cfg.BaseURL),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scraper) Name() string {
	return s.cfg.Name
}

// BaseURL returns the configured board base URL.
func (s *Scraper) BaseURL() string {
	return s.cfg.BaseURL
}

// Search fetches result pages for the query up to the configured pagination
// bound and returns normalized postings stamped with this source's name.
// Failures past the first page degrade to whatever was collected so far.
func (s *Scraper) Search(ctx context.Context, query string) (*Result, error) {
	result := &Result{}
	pageURL := s.cfg.searchURL(query, 0)
	maxPages := s.cfg.maxPages()

	for page := 0; page < maxPages; page++ {
		doc, err := s.fetch(ctx, pageURL)
		if err != nil {
			if page == 0 {
				return nil, fmt.Errorf("%s: %w", s.cfg.Name, err)
			}
			s.logger.Warn("pagination aborted",
				zap.Int("page", page),
				zap.Error(err),
			)
			return result, nil
		}

		postings := s.parsePage(doc)
		result.Jobs = append(result.Jobs, postings...)

		next := s.nextPageURL(doc)
		result.HasMore = next != ""
		result.NextPageURL = next

		s.logger.Debug("scraped page",
			zap.Int("page", page),
			zap.Int("postings", len(postings)),
			zap.Bool("has_more", result.HasMore),
		)

		if next == "" || len(postings) == 0 {
			break
		}
		pageURL = next
	}

	return result, nil
}

func (s *Scraper) fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}
	return doc, nil
}

func (s *Scraper) parsePage(doc *goquery.Document) []*jobs.Posting {
	sel := s.cfg.Selectors
	var postings []*jobs.Posting

	doc.Find(sel.Job).Each(func(_ int, job *goquery.Selection) {
		posting := &jobs.Posting{
			Title:       text(job, sel.Title),
			Company:     text(job, sel.Company),
			Location:    text(job, sel.Location),
			Description: text(job, sel.Description),
			Salary:      text(job, sel.Salary),
			PostedDate:  text(job, sel.Posted),
			URL:         s.resolveURL(href(job, sel.Link)),
			Source:      s.cfg.Name,
		}
		if posting.Title == "" {
			return
		}
		postings = append(postings, posting)
	})

	return postings
}

func (s *Scraper) nextPageURL(doc *goquery.Document) string {
	if s.cfg.Pagination == nil || s.cfg.Pagination.NextPage == "" {
		return ""
	}
	link, ok := doc.Find(s.cfg.Pagination.NextPage).First().Attr("href")
	if !ok {
		return ""
	}
	return s.resolveURL(link)
}

// resolveURL makes board-relative links absolute.
func (s *Scraper) resolveURL(link string) string {
	if link == "" {
		return ""
	}
	ref, err := url.Parse(link)
	if err != nil {
		return ""
	}
	base, err := url.Parse(s.cfg.BaseURL)
	if err != nil {
		return link
	}
	return base.ResolveReference(ref).String()
}

func text(sel *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return strings.TrimSpace(sel.Find(selector).First().Text())
}

func href(sel *goquery.Selection, selector string) string {
	if selector == "" {
		selector = "a"
	}
	link, _ := sel.Find(selector).First().Attr("href")
	return link
}
