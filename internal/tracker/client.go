// Package tracker is a read-only client for the job-application record store,
// which lives outside this service. The pipeline only ever looks up the
// reference job by its application id.
package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/careerpilot/jobradar/internal/jobs"
)

// ErrJobNotFound is returned when the tracker has no job application with the
// requested id.
var ErrJobNotFound = errors.New("tracker: job application not found")

type Client struct {
	baseURL    string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
}

func New(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		UserAgent: "jobradar/1.0",
	}
}

// GetJob fetches one job application by id.
func (c *Client) GetJob(ctx context.Context, id string) (*jobs.ReferenceJob, error) {
	endpoint := fmt.Sprintf("%s/api/v1/jobs/%s", c.baseURL, url.PathEscape(id))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.UserAgent)

	c.logger.Debug("fetching reference job", zap.String("url", endpoint))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tracker request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrJobNotFound
	default:
		return nil, fmt.Errorf("tracker: bad status: %s", resp.Status)
	}

	var job jobs.ReferenceJob
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return nil, fmt.Errorf("tracker: decoding job: %w", err)
	}
	return &job, nil
}
