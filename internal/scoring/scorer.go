// Package scoring ranks scraped postings against a reference job. Scoring is
// additive and explainable: every rule that fires appends a human-readable
// reason, and the total is clamped to [0,100] so results stay comparable
// across sources no matter how many rules fired.
package scoring

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/careerpilot/jobradar/internal/jobs"
)

// Rule weights. Title relevance dominates; the skill cap keeps long skill
// lists from outranking a matching title.
const (
	titleOverlapWeight = 40.0
	titleExactBonus    = 15.0
	jobTypeBonus       = 5.0
	experienceBonus    = 5.0
	skillIncrement     = 3.0
	skillCap           = 15.0
	proximityWeight    = 10.0
	remoteTerm         = 5.0
	maxScore           = 100.0
)

// stopWords filters common English words that add noise to title matching.
var stopWords = map[string]bool{
	"and": true, "the": true, "for": true, "with": true, "you": true,
	"are": true, "have": true, "will": true, "this": true, "that": true,
	"from": true, "our": true, "your": true, "who": true, "what": true,
	"can": true, "not": true, "but": true, "all": true, "more": true,
	"than": true, "into": true, "has": true, "its": true, "new": true,
}

type Scorer struct{}

func New() *Scorer {
	return &Scorer{}
}

// Score produces the scored posting for one candidate. distance is nil when
// the search had no location constraint; isRemote short-circuits the
// proximity term into a fixed neutral one.
func (s *Scorer) Score(ref *jobs.ReferenceJob, posting *jobs.Posting, distance *float64, isRemote bool, radiusMiles float64) *jobs.ScoredPosting {
	var score float64
	var reasons []string

	refTokens := tokenize(ref.Title)
	postingTokens := tokenize(posting.Title)

	if len(refTokens) > 0 {
		matched := 0
		for token := range refTokens {
			if postingTokens[token] {
				matched++
			}
		}
		if matched > 0 {
			score += titleOverlapWeight * float64(matched) / float64(len(refTokens))
			reasons = append(reasons, fmt.Sprintf("title matches %d of %d keywords", matched, len(refTokens)))
		}
	}

	refTitle := strings.ToLower(strings.TrimSpace(ref.Title))
	if refTitle != "" && strings.Contains(strings.ToLower(posting.Title), refTitle) {
		score += titleExactBonus
		reasons = append(reasons, "title contains the reference title")
	}

	if ref.JobType != "" && posting.JobType != "" && strings.EqualFold(ref.JobType, posting.JobType) {
		score += jobTypeBonus
		reasons = append(reasons, fmt.Sprintf("same job type (%s)", posting.JobType))
	}

	if ref.ExperienceLevel != "" && posting.ExperienceLevel != "" && strings.EqualFold(ref.ExperienceLevel, posting.ExperienceLevel) {
		score += experienceBonus
		reasons = append(reasons, fmt.Sprintf("same experience level (%s)", posting.ExperienceLevel))
	}

	if matched := matchSkills(ref.Skills, posting); len(matched) > 0 {
		score += math.Min(skillIncrement*float64(len(matched)), skillCap)
		reasons = append(reasons, fmt.Sprintf("matching skills: %s", strings.Join(matched, ", ")))
	}

	switch {
	case isRemote:
		score += remoteTerm
		reasons = append(reasons, "remote position")
	case distance != nil && radiusMiles > 0 && !math.IsInf(*distance, 1):
		proximity := proximityWeight * (1 - *distance/radiusMiles)
		if proximity > 0 {
			score += proximity
			reasons = append(reasons, fmt.Sprintf("%.1f miles away", *distance))
		}
	}

	score = math.Max(0, math.Min(score, maxScore))

	return &jobs.ScoredPosting{
		Posting:  *posting,
		Score:    math.Round(score*10) / 10,
		Reasons:  reasons,
		Distance: distance,
		IsRemote: isRemote,
	}
}

// matchSkills returns the reference skills present in the posting's title or
// description, case-insensitively, in sorted order. Single-word skills match
// whole words only, so "Go" cannot match inside "algorithm".
func matchSkills(skills []string, posting *jobs.Posting) []string {
	if len(skills) == 0 {
		return nil
	}
	haystack := strings.ToLower(posting.Title + " " + posting.Description)
	haystackWords := splitWords(haystack)

	var matched []string
	seen := make(map[string]bool)
	for _, skill := range skills {
		skill = strings.TrimSpace(skill)
		key := strings.ToLower(skill)
		if skill == "" || seen[key] {
			continue
		}
		if containsSkill(haystackWords, haystack, key) {
			matched = append(matched, skill)
			seen[key] = true
		}
	}
	sort.Strings(matched)
	return matched
}

// containsSkill checks single-word skills against the word set; skills that
// do not survive as one word (phrases like "machine learning", hyphenated
// names) fall back to substring matching.
func containsSkill(words map[string]bool, haystack, skill string) bool {
	parts := splitWords(skill)
	if len(parts) == 1 && parts[skill] {
		return words[skill]
	}
	return strings.Contains(haystack, skill)
}

// splitWords lower-cases the text and splits it into whole words, keeping
// tech punctuation ("c++", "c#", "node.js") and trimming trailing dots.
func splitWords(text string) map[string]bool {
	words := make(map[string]bool)
	var word strings.Builder

	flush := func() {
		w := strings.TrimRight(word.String(), ".")
		word.Reset()
		if w != "" {
			words[w] = true
		}
	}

	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#' || r == '.' {
			word.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()

	return words
}

// tokenize reduces text to the keywords used for title overlap: whole words
// of 3+ characters, stop words removed. Short tech names like "c#" survive.
func tokenize(text string) map[string]bool {
	tokens := make(map[string]bool)
	for w := range splitWords(text) {
		if stopWords[w] {
			continue
		}
		if len([]rune(w)) >= 3 || strings.ContainsAny(w, "+#") {
			tokens[w] = true
		}
	}
	return tokens
}
