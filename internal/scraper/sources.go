package scraper

// DefaultSources is the built-in board set, in priority order. The order is
// part of the ranking contract: score ties fall back to it. Selector sets
// track each board's markup and are overridable from the config file.
func DefaultSources() []Config {
	return []Config{
		{
			Name:       "indeed",
			BaseURL:    "https://www.indeed.com",
			SearchPath: "/jobs?q={query}&start={page}",
			Selectors: Selectors{
				Job:      "div.job_seen_beacon",
				Title:    "h2.jobTitle span",
				Company:  `span[data-testid="company-name"]`,
				Location: `div[data-testid="text-location"]`,
				Link:     "h2.jobTitle a",
				Salary:   `div[data-testid="attribute_snippet_testid"]`,
				Posted:   `span[data-testid="myJobsStateDate"]`,
			},
			Pagination: &Pagination{
				NextPage: `a[data-testid="pagination-page-next"]`,
				MaxPages: 2,
			},
		},
		{
			Name:       "linkedin",
			BaseURL:    "https://www.linkedin.com",
			SearchPath: "/jobs/search?keywords={query}&start={page}",
			Selectors: Selectors{
				Job:      "div.base-card",
				Title:    "h3.base-search-card__title",
				Company:  "h4.base-search-card__subtitle",
				Location: "span.job-search-card__location",
				Link:     "a.base-card__full-link",
				Posted:   "time.job-search-card__listdate",
			},
		},
		{
			Name:       "ziprecruiter",
			BaseURL:    "https://www.ziprecruiter.com",
			SearchPath: "/jobs-search?search={query}&page={page}",
			Selectors: Selectors{
				Job:      "article.job_result",
				Title:    "h2.title",
				Company:  "a.company_name",
				Location: "p.location",
				Link:     "h2.title a",
				Salary:   "p.salary",
			},
			Pagination: &Pagination{
				NextPage: `a[title="Next Page"]`,
				MaxPages: 2,
			},
		},
	}
}
