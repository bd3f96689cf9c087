// Package search orchestrates the similar-jobs pipeline: concurrent source
// fan-out, merge, dedup, geographic filtering, scoring, and deterministic
// ranking. A failing source never fails the search; only invalid parameters
// do.
package search

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/careerpilot/jobradar/internal/geo"
	"github.com/careerpilot/jobradar/internal/jobs"
	"github.com/careerpilot/jobradar/internal/logger"
	"github.com/careerpilot/jobradar/internal/scoring"
	"github.com/careerpilot/jobradar/internal/scraper"
)

const (
	defaultPerSourceTimeout = 10 * time.Second
	defaultOverallDeadline  = 25 * time.Second
)

// Source is one external job board. Declaration order is the ranking
// tie-break of last resort, so the slice passed to NewOrchestrator is part of
// the contract.
type Source interface {
	Name() string
	Search(ctx context.Context, query string) (*scraper.Result, error)
}

// SourceError is a per-source diagnostic attached to an otherwise successful
// result.
type SourceError struct {
	Source  string `json:"source"`
	Message string `json:"message"`
}

// Result is the response of one similarity search. An empty SimilarJobs list
// is success, not an error.
type Result struct {
	SimilarJobs  jobs.ScoredPostings `json:"similarJobs"`
	Total        int                 `json:"total"`
	SearchParams *Params             `json:"searchParams"`
	SourceErrors []SourceError       `json:"sourceErrors,omitempty"`
}

type Orchestrator struct {
	sources          []Source
	resolver         *geo.Resolver
	scorer           *scoring.Scorer
	logger           *zap.Logger
	perSourceTimeout time.Duration
	overallDeadline  time.Duration
}

type OrchestratorOption func(*Orchestrator)

func WithPerSourceTimeout(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if d > 0 {
			o.perSourceTimeout = d
		}
	}
}

func WithOverallDeadline(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if d > 0 {
			o.overallDeadline = d
		}
	}
}

func NewOrchestrator(sources []Source, resolver *geo.Resolver, scorer *scoring.Scorer, logger *zap.Logger, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		sources:          sources,
		resolver:         resolver,
		scorer:           scorer,
		logger:           logger,
		perSourceTimeout: defaultPerSourceTimeout,
		overallDeadline:  defaultOverallDeadline,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// FindSimilarJobs runs the full pipeline for one reference job. Parameter
// fields left empty are filled from the reference job, then defaulted and
// validated. The only error it returns is a *ValidationError.
func (o *Orchestrator) FindSimilarJobs(ctx context.Context, ref *jobs.ReferenceJob, params *Params) (*Result, error) {
	if ref == nil {
		return nil, &ValidationError{Field: "job", Message: "reference job is required"}
	}
	if params == nil {
		params = &Params{}
	}
	if params.Title == "" {
		params.Title = ref.Title
	}
	if params.Company == "" {
		params.Company = ref.Company
	}
	if params.Location == "" {
		params.Location = ref.Location
	}
	params.ApplyDefaults()
	if err := params.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, o.overallDeadline)
	defer cancel()

	// The reference geocode and the source scrapes are independent I/O; run
	// them side by side. A reference location that does not resolve means the
	// search simply has no location constraint.
	refLocCh := make(chan *geo.Location, 1)
	go func() {
		loc, ok := o.resolver.Geocode(ctx, params.Location)
		if !ok {
			loc = nil
		}
		refLocCh <- loc
	}()

	merged, srcErrs := o.fanOut(ctx, params.Query())
	refLoc := <-refLocCh

	if refLoc == nil && params.Location != "" {
		o.logger.Info("reference location did not resolve; searching without a radius constraint",
			zap.String("location", params.Location),
		)
	}

	deduped := dedup(merged)
	o.logStep("dedup", len(merged), len(deduped))

	filtered := o.filterFields(params, deduped)
	o.logStep("field_filters", len(deduped), len(filtered))

	candidates := o.filterByLocation(ctx, params, refLoc, filtered)
	o.logStep("radius_filter", len(filtered), len(candidates))

	ranked := o.rank(ref, params, candidates)
	if len(ranked) > params.Limit {
		ranked = ranked[:params.Limit]
	}

	return &Result{
		SimilarJobs:  ranked,
		Total:        len(ranked),
		SearchParams: params,
		SourceErrors: srcErrs,
	}, nil
}

// fanOut dispatches one concurrent search per source, each under its own
// timeout. Every goroutine writes only its own slot; the merge happens after
// all of them settle, in declaration order, so output is deterministic no
// matter which source finished first.
func (o *Orchestrator) fanOut(ctx context.Context, query string) ([]*jobs.Posting, []SourceError) {
	type slot struct {
		result *scraper.Result
		err    error
	}

	slots := make([]slot, len(o.sources))
	var wg sync.WaitGroup
	for i, src := range o.sources {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			sctx, cancel := context.WithTimeout(ctx, o.perSourceTimeout)
			defer cancel()
			result, err := src.Search(sctx, query)
			slots[i] = slot{result: result, err: err}
		}(i, src)
	}
	wg.Wait()

	var merged []*jobs.Posting
	var srcErrs []SourceError
	for i, sl := range slots {
		name := o.sources[i].Name()
		srcLog := logger.WithSource(o.logger, name, "")
		if sl.err != nil {
			srcLog.Warn("source failed; continuing without it", zap.Error(sl.err))
			srcErrs = append(srcErrs, SourceError{Source: name, Message: sl.err.Error()})
			continue
		}
		if sl.result == nil {
			continue
		}
		srcLog.Debug("source returned postings", zap.Int("count", len(sl.result.Jobs)))
		merged = append(merged, sl.result.Jobs...)
	}

	return merged, srcErrs
}

// dedupKey is (normalized title, normalized company, normalized
// URL-or-location).
func dedupKey(p *jobs.Posting) string {
	urlOrLocation := p.URL
	if urlOrLocation == "" {
		urlOrLocation = p.Location
	}
	return geo.Normalize(p.Title) + "|" + geo.Normalize(p.Company) + "|" + geo.Normalize(urlOrLocation)
}

// dedup keeps the first posting per key. Input arrives in source declaration
// order, so the surviving copy is the one from the higher-priority source.
func dedup(postings []*jobs.Posting) []*jobs.Posting {
	seen := make(map[string]bool, len(postings))
	out := make([]*jobs.Posting, 0, len(postings))
	for _, p := range postings {
		key := dedupKey(p)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	return out
}

// filterFields applies the job-type, experience and salary filter sets.
// Postings that do not state a field pass: scraped data is partial, and an
// absent field must not exclude a posting.
func (o *Orchestrator) filterFields(params *Params, postings []*jobs.Posting) []*jobs.Posting {
	out := make([]*jobs.Posting, 0, len(postings))
	for _, p := range postings {
		if !matchesSet(params.JobTypes, p.JobType) {
			continue
		}
		if !matchesSet(params.ExperienceLevels, p.ExperienceLevel) {
			continue
		}
		if !matchesSalary(params, p.Salary) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matchesSet(set []string, value string) bool {
	if len(set) == 0 || value == "" {
		return true
	}
	for _, want := range set {
		if strings.EqualFold(want, value) {
			return true
		}
	}
	return false
}

func matchesSalary(params *Params, salary string) bool {
	if params.SalaryMin == nil && params.SalaryMax == nil {
		return true
	}
	low, high, ok := parseSalaryRange(salary)
	if !ok {
		return true
	}
	if params.SalaryMin != nil && high < *params.SalaryMin {
		return false
	}
	if params.SalaryMax != nil && low > *params.SalaryMax {
		return false
	}
	return true
}

type candidate struct {
	posting  *jobs.Posting
	distance *float64
	isRemote bool
}

// filterByLocation classifies each posting against the resolved reference
// point. Remote postings are excluded when the request opted out of them;
// non-remote postings outside the radius (or with unresolvable locations) are
// excluded, never silently included.
func (o *Orchestrator) filterByLocation(ctx context.Context, params *Params, refLoc *geo.Location, postings []*jobs.Posting) []candidate {
	out := make([]candidate, 0, len(postings))
	for _, p := range postings {
		check := o.resolver.IsWithinRadius(ctx, p.Location, refLoc, params.RadiusMiles)

		if check.IsRemote && !params.IncludeRemote() {
			continue
		}
		if !check.IsRemote && !check.WithinRadius {
			continue
		}

		var distance *float64
		if refLoc != nil {
			d := check.Distance
			distance = &d
		}
		out = append(out, candidate{posting: p, distance: distance, isRemote: check.IsRemote})
	}
	return out
}

// rank scores the surviving candidates and orders them: score descending,
// then distance ascending, then source declaration order. Stable and
// reproducible for identical inputs.
func (o *Orchestrator) rank(ref *jobs.ReferenceJob, params *Params, candidates []candidate) jobs.ScoredPostings {
	priority := make(map[string]int, len(o.sources))
	for i, src := range o.sources {
		priority[src.Name()] = i
	}

	scored := make(jobs.ScoredPostings, 0, len(candidates))
	for _, c := range candidates {
		scored = append(scored, o.scorer.Score(ref, c.posting, c.distance, c.isRemote, params.RadiusMiles))
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		di, dj := sortDistance(scored[i]), sortDistance(scored[j])
		if di != dj {
			return di < dj
		}
		return priority[scored[i].Source] < priority[scored[j].Source]
	})

	return scored
}

func sortDistance(sp *jobs.ScoredPosting) float64 {
	if sp.Distance != nil {
		return *sp.Distance
	}
	return 0
}

func (o *Orchestrator) logStep(name string, initial, left int) {
	o.logger.Debug("pipeline step",
		zap.String("step", name),
		zap.Int("initial", initial),
		zap.Int("dropped", initial-left),
		zap.Int("left", left),
	)
}
