// Package dvf implements the client for the DVF tabular statistics API on
// data.gouv.fr: sale price statistics per arrondissement or cadastral
// section, with a cache-first lookup.
package dvf

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"dvfparis/server/internal/cache"
	"dvfparis/server/internal/httpclient"
	"dvfparis/server/internal/metrics"
	"dvfparis/server/internal/models"
)

// ErrMalformedResponse is returned when the provider body cannot be
// decoded into the expected shape.
var ErrMalformedResponse = errors.New("malformed provider response")

// NotFoundError is returned when the provider has no row for a geographic
// code. Distinct from transport failures so callers can log the
// difference, though the fallback treats them alike.
type NotFoundError struct {
	Code string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no DVF data for geographic code %s", e.Code)
}

// Client fetches DVF statistics by geographic code.
type Client struct {
	baseURL string
	fetcher *httpclient.Fetcher
	cache   *cache.TTLCache[string, models.AreaStats]
	logger  *logrus.Logger
}

// NewClient creates a DVF client. Results are cached for ttl.
func NewClient(baseURL string, fetcher *httpclient.Fetcher, ttl time.Duration, logger *logrus.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		fetcher: fetcher,
		cache:   cache.New[string, models.AreaStats](ttl),
		logger:  logger,
	}
}

// ByArrondissement returns the statistics of a Paris arrondissement
// (1-20), querying the provider by INSEE code 751XX.
func (c *Client) ByArrondissement(ctx context.Context, arrondissement int) (models.AreaStats, error) {
	cacheKey := fmt.Sprintf("arr-%d", arrondissement)
	codeINSEE := fmt.Sprintf("751%02d", arrondissement)

	return c.fetch(ctx, cacheKey, codeINSEE, strconv.Itoa(arrondissement), arrondissement)
}

// BySection returns the statistics of a cadastral section, e.g.
// "75107000AK". The arrondissement number is the two digits following the
// department prefix in the section code.
func (c *Client) BySection(ctx context.Context, sectionCode string) (models.AreaStats, error) {
	if len(sectionCode) < 5 {
		return models.AreaStats{}, fmt.Errorf("invalid section code %q", sectionCode)
	}
	arrondissement, err := strconv.Atoi(sectionCode[3:5])
	if err != nil {
		return models.AreaStats{}, fmt.Errorf("invalid section code %q: %w", sectionCode, err)
	}

	cacheKey := "section-" + sectionCode
	return c.fetch(ctx, cacheKey, sectionCode, sectionCode, arrondissement)
}

func (c *Client) fetch(ctx context.Context, cacheKey, codeGeo, code string, arrondissement int) (models.AreaStats, error) {
	if stats, ok := c.cache.Get(cacheKey); ok {
		metrics.CacheHits.WithLabelValues("stats").Inc()
		c.logger.WithFields(logrus.Fields{
			"code":   codeGeo,
			"source": "cache",
		}).Info("Serving DVF stats from cache")
		return stats, nil
	}
	metrics.CacheMisses.WithLabelValues("stats").Inc()

	query := url.Values{}
	query.Set("code_geo__exact", codeGeo)
	query.Set("page_size", "1")

	body, err := c.fetcher.Get(ctx, c.baseURL+"?"+query.Encode())
	if err != nil {
		return models.AreaStats{}, err
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return models.AreaStats{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(parsed.Data) == 0 {
		return models.AreaStats{}, &NotFoundError{Code: codeGeo}
	}

	stats := normalizeRow(parsed.Data[0], code, arrondissement)
	c.cache.Set(cacheKey, stats)

	c.logger.WithFields(logrus.Fields{
		"code":   codeGeo,
		"source": "network",
	}).Info("Fetched DVF stats from provider")

	return stats, nil
}
