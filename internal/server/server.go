// Package server exposes the similar-jobs pipeline over HTTP to the request
// layer. Only malformed parameters surface as failures; everything else
// degrades into a smaller, well-formed result.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/careerpilot/jobradar/internal/jobs"
	"github.com/careerpilot/jobradar/internal/scraper"
	"github.com/careerpilot/jobradar/internal/search"
	"github.com/careerpilot/jobradar/internal/tracker"
)

// ReferenceStore looks up reference jobs in the external record store.
type ReferenceStore interface {
	GetJob(ctx context.Context, id string) (*jobs.ReferenceJob, error)
}

type Server struct {
	orchestrator *search.Orchestrator
	store        ReferenceStore
	scrapers     []*scraper.Scraper
	httpClient   *http.Client
	userAgent    string
	logger       *zap.Logger
}

// New builds the HTTP layer. store may be nil when no tracker API is
// configured; requests must then carry the reference job inline.
func New(orchestrator *search.Orchestrator, store ReferenceStore, scrapers []*scraper.Scraper, logger *zap.Logger) *Server {
	return &Server{
		orchestrator: orchestrator,
		store:        store,
		scrapers:     scrapers,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
		userAgent:    "jobradar/1.0",
		logger:       logger,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/similar-jobs", s.handleSimilarJobs)
	mux.HandleFunc("POST /api/v1/scrape", s.handleScrape)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

// ListenAndServe runs the server until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("shutdown", zap.Error(err))
		}
	}()

	s.logger.Info("listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type similarJobsRequest struct {
	JobID           string             `json:"jobId,omitempty"`
	Job             *jobs.ReferenceJob `json:"job,omitempty"`
	Radius          float64            `json:"radius,omitempty"`
	JobType         []string           `json:"jobType,omitempty"`
	ExperienceLevel []string           `json:"experienceLevel,omitempty"`
	SalaryMin       *int               `json:"salaryMin,omitempty"`
	SalaryMax       *int               `json:"salaryMax,omitempty"`
	Remote          *bool              `json:"remote,omitempty"`
	Limit           int                `json:"limit,omitempty"`
}

func (s *Server) handleSimilarJobs(w http.ResponseWriter, r *http.Request) {
	var req similarJobsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	ref, status, errMsg := s.resolveReference(r.Context(), &req)
	if errMsg != "" {
		s.writeError(w, status, errMsg)
		return
	}

	params := &search.Params{
		RadiusMiles:      req.Radius,
		JobTypes:         req.JobType,
		ExperienceLevels: req.ExperienceLevel,
		SalaryMin:        req.SalaryMin,
		SalaryMax:        req.SalaryMax,
		Remote:           req.Remote,
		Limit:            req.Limit,
	}

	result, err := s.orchestrator.FindSimilarJobs(r.Context(), ref, params)
	if err != nil {
		var verr *search.ValidationError
		if errors.As(err, &verr) {
			s.writeError(w, http.StatusBadRequest, verr.Error())
			return
		}
		s.logger.Error("similar-jobs search failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

// resolveReference picks the reference job: an inline job wins, otherwise the
// id is looked up in the external store.
func (s *Server) resolveReference(ctx context.Context, req *similarJobsRequest) (*jobs.ReferenceJob, int, string) {
	if req.Job != nil {
		return req.Job, 0, ""
	}
	if req.JobID == "" {
		return nil, http.StatusBadRequest, "jobId or an inline job is required"
	}
	if s.store == nil {
		return nil, http.StatusBadRequest, "jobId lookups are not configured; pass the job inline"
	}

	ref, err := s.store.GetJob(ctx, req.JobID)
	if err != nil {
		if errors.Is(err, tracker.ErrJobNotFound) {
			return nil, http.StatusNotFound, "job application not found"
		}
		s.logger.Error("reference job lookup failed", zap.String("job_id", req.JobID), zap.Error(err))
		return nil, http.StatusBadGateway, "job record store unavailable"
	}
	return ref, 0, ""
}

type scrapeRequest struct {
	URL string `json:"url"`
}

// handleScrape is the degenerate one-source, one-result invocation of the
// scraping contract, used for manual entry assistance.
func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	target, err := url.ParseRequestURI(req.URL)
	if err != nil || target.Host == "" {
		s.writeError(w, http.StatusBadRequest, "a valid absolute url is required")
		return
	}

	var posting *jobs.Posting
	if sc := s.scraperForHost(target.Host); sc != nil {
		posting, err = sc.ScrapeURL(r.Context(), req.URL)
	} else {
		posting, err = scraper.ScrapeURL(r.Context(), s.httpClient, s.userAgent, req.URL)
	}
	if err != nil {
		s.logger.Warn("scrape failed", zap.String("url", req.URL), zap.Error(err))
		s.writeError(w, http.StatusBadGateway, "could not scrape the posting")
		return
	}

	s.writeJSON(w, http.StatusOK, posting)
}

// scraperForHost matches a posting URL to a configured board so the result
// carries that board's source tag.
func (s *Server) scraperForHost(host string) *scraper.Scraper {
	host = strings.ToLower(host)
	for _, sc := range s.scrapers {
		base, err := url.Parse(sc.BaseURL())
		if err != nil {
			continue
		}
		baseHost := strings.ToLower(base.Host)
		if host == baseHost || strings.HasSuffix(host, "."+strings.TrimPrefix(baseHost, "www.")) || host == strings.TrimPrefix(baseHost, "www.") {
			return sc
		}
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("writing response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
