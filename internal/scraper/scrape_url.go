package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mitchellh/mapstructure"

	"github.com/careerpilot/jobradar/internal/jobs"
)

// jsonLDJobPosting mirrors the schema.org/JobPosting fields the manual-entry
// flow needs. Boards embed these in script[type="application/ld+json"] blocks.
type jsonLDJobPosting struct {
	Type               string `mapstructure:"@type"`
	Title              string `mapstructure:"title"`
	Description        string `mapstructure:"description"`
	DatePosted         string `mapstructure:"datePosted"`
	EmploymentType     string `mapstructure:"employmentType"`
	HiringOrganization struct {
		Name string `mapstructure:"name"`
	} `mapstructure:"hiringOrganization"`
	JobLocationType string `mapstructure:"jobLocationType"`
	JobLocation     any    `mapstructure:"jobLocation"`
}

type jsonLDAddress struct {
	Address struct {
		AddressLocality string `mapstructure:"addressLocality"`
		AddressRegion   string `mapstructure:"addressRegion"`
		AddressCountry  any    `mapstructure:"addressCountry"`
	} `mapstructure:"address"`
}

// ScrapeURL fetches a single posting page and extracts its fields for manual
// entry. The posting is stamped with this scraper's source name.
func (s *Scraper) ScrapeURL(ctx context.Context, postingURL string) (*jobs.Posting, error) {
	posting, err := ScrapeURL(ctx, s.httpClient, s.userAgent, postingURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.cfg.Name, err)
	}
	posting.Source = s.cfg.Name
	return posting, nil
}

// ScrapeURL fetches one posting page and extracts title, company, description
// and location. JSON-LD JobPosting blocks win; title/meta tags are the
// fallback for pages without structured data.
func ScrapeURL(ctx context.Context, client *http.Client, userAgent, postingURL string) (*jobs.Posting, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, postingURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := client.Do(req)
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

	if posting, ok := postingFromJSONLD(doc); ok {
		posting.URL = postingURL
		return posting, nil
	}

	posting := postingFromMeta(doc)
	posting.URL = postingURL
	return posting, nil
}

func postingFromJSONLD(doc *goquery.Document) (*jobs.Posting, bool) {
	var posting *jobs.Posting

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, script *goquery.Selection) bool {
		var raw any
		if err := json.Unmarshal([]byte(script.Text()), &raw); err != nil {
			return true
		}
		for _, candidate := range jsonLDCandidates(raw) {
			var jp jsonLDJobPosting
			if err := mapstructure.Decode(candidate, &jp); err != nil {
				continue
			}
			if jp.Type != "JobPosting" || jp.Title == "" {
				continue
			}
			posting = &jobs.Posting{
				Title:       strings.TrimSpace(jp.Title),
				Company:     strings.TrimSpace(jp.HiringOrganization.Name),
				Description: strings.TrimSpace(stripTags(jp.Description)),
				Location:    jsonLDLocation(jp),
				JobType:     strings.TrimSpace(jp.EmploymentType),
				PostedDate:  strings.TrimSpace(jp.DatePosted),
			}
			return false
		}
		return true
	})

	return posting, posting != nil
}

// jsonLDCandidates flattens the shapes JSON-LD comes in: a single object, an
// array of objects, or an object with an @graph list.
func jsonLDCandidates(raw any) []map[string]any {
	var out []map[string]any
	switch v := raw.(type) {
	case map[string]any:
		out = append(out, v)
		if graph, ok := v["@graph"].([]any); ok {
			for _, item := range graph {
				if m, ok := item.(map[string]any); ok {
					out = append(out, m)
				}
			}
		}
	case []any:
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
	}
	return out
}

func jsonLDLocation(jp jsonLDJobPosting) string {
	if strings.Contains(jp.JobLocationType, "TELECOMMUTE") {
		return "Remote"
	}

	loc := jp.JobLocation
	if list, ok := loc.([]any); ok {
		if len(list) == 0 {
			return ""
		}
		loc = list[0]
	}

	var addr jsonLDAddress
	if err := mapstructure.Decode(loc, &addr); err != nil {
		return ""
	}

	country := ""
	switch c := addr.Address.AddressCountry.(type) {
	case string:
		country = c
	case map[string]any:
		country, _ = c["name"].(string)
	}

	parts := make([]string, 0, 3)
	for _, part := range []string{addr.Address.AddressLocality, addr.Address.AddressRegion, country} {
		if strings.TrimSpace(part) != "" {
			parts = append(parts, strings.TrimSpace(part))
		}
	}
	return strings.Join(parts, ", ")
}

func postingFromMeta(doc *goquery.Document) *jobs.Posting {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if og, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok && og != "" {
		title = strings.TrimSpace(og)
	}

	company, _ := doc.Find(`meta[property="og:site_name"]`).First().Attr("content")
	description, _ := doc.Find(`meta[name="description"]`).First().Attr("content")

	return &jobs.Posting{
		Title:       title,
		Company:     strings.TrimSpace(company),
		Description: strings.TrimSpace(description),
	}
}

// stripTags drops markup from JSON-LD descriptions, which boards usually ship
// as HTML fragments.
func stripTags(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return doc.Text()
}
