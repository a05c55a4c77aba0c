// Package httpclient provides the outbound HTTP fetcher shared by the
// upstream API clients. Every call is bounded by the fetcher's timeout;
// non-success statuses and deadline expiries map to distinguishable errors.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"dvfparis/server/internal/metrics"
)

const userAgent = "dvfparis-server/1.0"

// ErrTimeout is returned when the upstream call does not complete within
// the fetcher's budget.
var ErrTimeout = errors.New("upstream request timed out")

// StatusError is returned when the upstream answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned HTTP %d for %s", e.StatusCode, e.URL)
}

// Fetcher performs single GET requests with a fixed per-call timeout.
type Fetcher struct {
	client   *http.Client
	timeout  time.Duration
	provider string
	logger   *logrus.Logger
}

// NewFetcher creates a fetcher for one upstream provider. The provider name
// only labels logs and metrics.
func NewFetcher(provider string, timeout time.Duration, logger *logrus.Logger) *Fetcher {
	return &Fetcher{
		client:   &http.Client{},
		timeout:  timeout,
		provider: provider,
		logger:   logger,
	}
}

// Get fetches the URL and returns the raw response body. The call is
// aborted once the timeout elapses; the context lets callers cancel
// earlier but each call always gets its own fresh budget.
func (f *Fetcher) Get(ctx context.Context, rawURL string) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := f.client.Do(req)
	metrics.UpstreamDuration.WithLabelValues(f.provider).Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || reqCtx.Err() == context.DeadlineExceeded {
			metrics.UpstreamRequests.WithLabelValues(f.provider, "timeout").Inc()
			f.logger.WithFields(logrus.Fields{
				"provider": f.provider,
				"url":      rawURL,
				"timeout":  f.timeout.String(),
			}).Warn("Upstream request timed out")
			return nil, fmt.Errorf("%w after %s: %s", ErrTimeout, f.timeout, rawURL)
		}
		metrics.UpstreamRequests.WithLabelValues(f.provider, "error").Inc()
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.UpstreamRequests.WithLabelValues(f.provider, "status").Inc()
		f.logger.WithFields(logrus.Fields{
			"provider": f.provider,
			"url":      rawURL,
			"status":   resp.StatusCode,
		}).Warn("Upstream returned non-success status")
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: rawURL}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(f.provider, "error").Inc()
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	metrics.UpstreamRequests.WithLabelValues(f.provider, "ok").Inc()
	return body, nil
}
