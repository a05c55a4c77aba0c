// Package cadastre fetches the cadastral section geometries of a Paris
// arrondissement from the Etalab cadastre bundler. Geometries are stable,
// so they are cached much longer than the price statistics.
package cadastre

import (
	"context"
	"fmt"
	"time"

	"github.com/paulmach/orb/geojson"
	"github.com/sirupsen/logrus"

	"dvfparis/server/internal/cache"
	"dvfparis/server/internal/httpclient"
	"dvfparis/server/internal/metrics"
)

// Client fetches section geometries as GeoJSON feature collections.
type Client struct {
	baseURL string
	fetcher *httpclient.Fetcher
	cache   *cache.TTLCache[string, *geojson.FeatureCollection]
	logger  *logrus.Logger
}

// NewClient creates a cadastre client. baseURL points at the communes
// bundler, e.g. "https://cadastre.data.gouv.fr/bundler/cadastre-etalab/communes".
func NewClient(baseURL string, fetcher *httpclient.Fetcher, ttl time.Duration, logger *logrus.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		fetcher: fetcher,
		cache:   cache.New[string, *geojson.FeatureCollection](ttl),
		logger:  logger,
	}
}

// Sections returns the section geometries of an arrondissement (1-20).
func (c *Client) Sections(ctx context.Context, arrondissement int) (*geojson.FeatureCollection, error) {
	codeINSEE := fmt.Sprintf("751%02d", arrondissement)
	cacheKey := "sections-" + codeINSEE

	if fc, ok := c.cache.Get(cacheKey); ok {
		metrics.CacheHits.WithLabelValues("sections").Inc()
		return fc, nil
	}
	metrics.CacheMisses.WithLabelValues("sections").Inc()

	url := fmt.Sprintf("%s/%s/geojson/sections", c.baseURL, codeINSEE)
	body, err := c.fetcher.Get(ctx, url)
	if err != nil {
		return nil, err
	}

	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse sections GeoJSON: %w", err)
	}

	c.cache.Set(cacheKey, fc)
	c.logger.WithFields(logrus.Fields{
		"code":     codeINSEE,
		"features": len(fc.Features),
	}).Info("Fetched cadastral sections")

	return fc, nil
}
