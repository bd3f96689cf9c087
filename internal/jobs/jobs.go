package jobs

import (
	"encoding/json"
	"fmt"
	"os"
)

// ReferenceJob is the saved job application used as the basis of comparison.
// It is owned by the external job-record store and read-only here.
type ReferenceJob struct {
	ID              string   `json:"id,omitempty" mapstructure:"id"`
	Title           string   `json:"title" mapstructure:"title"`
	Company         string   `json:"company,omitempty" mapstructure:"company"`
	Description     string   `json:"description,omitempty" mapstructure:"description"`
	Location        string   `json:"location,omitempty" mapstructure:"location"`
	Skills          []string `json:"skills,omitempty" mapstructure:"skills"`
	JobType         string   `json:"jobType,omitempty" mapstructure:"job-type"`
	ExperienceLevel string   `json:"experienceLevel,omitempty" mapstructure:"experience-level"`
}

// Posting is a single job listing obtained from an external source. It exists
// only for the lifetime of one search.
type Posting struct {
	Title           string `json:"title"`
	Company         string `json:"company"`
	Description     string `json:"description,omitempty"`
	Location        string `json:"location,omitempty"`
	URL             string `json:"url,omitempty"`
	Salary          string `json:"salary,omitempty"`
	JobType         string `json:"jobType,omitempty"`
	ExperienceLevel string `json:"experienceLevel,omitempty"`
	PostedDate      string `json:"postedDate,omitempty"`

	// Source is the name of the board the posting came from. Stamped by the
	// scraper so scoring and attribution stay traceable.
	Source string `json:"source"`
}

// ScoredPosting is a posting plus its ranking data.
type ScoredPosting struct {
	Posting

	Score   float64  `json:"score"`
	Reasons []string `json:"reasons"`
	// Distance in miles from the reference location. Nil when the search had
	// no location constraint.
	Distance *float64 `json:"distance,omitempty"`
	IsRemote bool     `json:"isRemote"`
}

// ScoredPostings is an ordered result set.
type ScoredPostings []*ScoredPosting

func (s ScoredPostings) Len() int {
	return len(s)
}

// DumpToTmpFile writes the result set to a temp file as indented JSON and
// returns the filename.
func (s ScoredPostings) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "similar_jobs_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// ReportBySource groups the result set by source board for display.
func (s ScoredPostings) ReportBySource() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, p := range s {
		entry := map[string]string{
			"title":   p.Title,
			"company": p.Company,
			"url":     p.URL,
			"score":   fmt.Sprintf("%.1f", p.Score),
		}
		if p.Distance != nil {
			entry["distance_miles"] = fmt.Sprintf("%.2f", *p.Distance)
		}
		if p.IsRemote {
			entry["remote"] = "true"
		}
		report[p.Source] = append(report[p.Source], entry)
	}
	return report
}
