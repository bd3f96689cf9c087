package search

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	DefaultRadiusMiles = 25.0
	DefaultLimit       = 20

	MinRadiusMiles = 1.0
	MaxRadiusMiles = 100.0
	MinLimit       = 1
	MaxLimit       = 100
)

// Params are the per-request search parameters. Constructed per request,
// never persisted. Zero values for radius and limit mean "use the default".
type Params struct {
	Title            string   `json:"title"`
	Company          string   `json:"company,omitempty"`
	Location         string   `json:"location,omitempty"`
	RadiusMiles      float64  `json:"radius"`
	JobTypes         []string `json:"jobType,omitempty"`
	ExperienceLevels []string `json:"experienceLevel,omitempty"`
	SalaryMin        *int     `json:"salaryMin,omitempty"`
	SalaryMax        *int     `json:"salaryMax,omitempty"`
	Remote           *bool    `json:"remote,omitempty"`
	Limit            int      `json:"limit"`
}

// ValidationError is the only caller-visible failure of the pipeline: a
// malformed parameter, rejected before any network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ApplyDefaults fills unset fields: radius 25, limit 20, remote included.
func (p *Params) ApplyDefaults() {
	if p.RadiusMiles == 0 {
		p.RadiusMiles = DefaultRadiusMiles
	}
	if p.Limit == 0 {
		p.Limit = DefaultLimit
	}
	if p.Remote == nil {
		remote := true
		p.Remote = &remote
	}
}

// IncludeRemote reports whether remote postings are admitted.
func (p *Params) IncludeRemote() bool {
	return p.Remote == nil || *p.Remote
}

func (p *Params) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	if p.RadiusMiles < MinRadiusMiles || p.RadiusMiles > MaxRadiusMiles {
		return &ValidationError{
			Field:   "radius",
			Message: fmt.Sprintf("must be between %g and %g miles", MinRadiusMiles, MaxRadiusMiles),
		}
	}
	if p.Limit < MinLimit || p.Limit > MaxLimit {
		return &ValidationError{
			Field:   "limit",
			Message: fmt.Sprintf("must be between %d and %d", MinLimit, MaxLimit),
		}
	}
	if p.SalaryMin != nil && *p.SalaryMin < 0 {
		return &ValidationError{Field: "salaryMin", Message: "must not be negative"}
	}
	if p.SalaryMin != nil && p.SalaryMax != nil && *p.SalaryMin > *p.SalaryMax {
		return &ValidationError{Field: "salaryMin", Message: "must not exceed salaryMax"}
	}
	return nil
}

// Query is the search string fanned out to every source.
func (p *Params) Query() string {
	query := strings.TrimSpace(p.Title)
	if company := strings.TrimSpace(p.Company); company != "" {
		query += " " + company
	}
	return query
}

var salaryDigits = regexp.MustCompile(`\d[\d,]*`)

// parseSalaryRange extracts the numeric bounds from a free-text salary string
// like "$90,000 - $120,000 a year". ok is false when no number is present.
func parseSalaryRange(s string) (low, high int, ok bool) {
	matches := salaryDigits.FindAllString(s, 2)
	if len(matches) == 0 {
		return 0, 0, false
	}

	parse := func(m string) int {
		n, _ := strconv.Atoi(strings.ReplaceAll(m, ",", ""))
		return n
	}

	low = parse(matches[0])
	high = low
	if len(matches) > 1 {
		high = parse(matches[1])
	}
	// Hourly and "90k" style figures are left alone; bounds comparison only
	// makes sense for annual-looking numbers.
	if low < 1000 {
		return 0, 0, false
	}
	return low, high, true
}
