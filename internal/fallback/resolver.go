// Package fallback resolves arrondissement statistics with graceful
// degradation: the live DVF provider first, then the sqlite archive of
// previously fetched data, then the bundled static dataset. Only when all
// three miss does the lookup fail.
package fallback

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"

	"dvfparis/server/internal/dvf"
	"dvfparis/server/internal/metrics"
	"dvfparis/server/internal/models"
)

//go:embed dvf_paris.json
var staticDataset []byte

// StatsSource is the live statistics provider.
type StatsSource interface {
	ByArrondissement(ctx context.Context, arrondissement int) (models.AreaStats, error)
}

// Archive is the persistent last-known-good store. Implementations may be
// absent (nil archive disables the layer).
type Archive interface {
	SaveStats(stats models.AreaStats) error
	GetStats(code string) (*models.AreaStats, error)
}

// LoadStaticDataset parses the bundled dataset, keyed by arrondissement
// number ("1".."20"). It is loaded once at startup and injected into the
// resolver, so tests can substitute a fixture.
func LoadStaticDataset() (map[string]models.AreaStats, error) {
	var dataset map[string]models.AreaStats
	if err := json.Unmarshal(staticDataset, &dataset); err != nil {
		return nil, fmt.Errorf("failed to parse bundled dataset: %w", err)
	}
	return dataset, nil
}

// Resolver wraps the live source with the fallback chain.
type Resolver struct {
	source  StatsSource
	archive Archive
	static  map[string]models.AreaStats
	logger  *logrus.Logger
}

// NewResolver builds a resolver. archive may be nil.
func NewResolver(source StatsSource, archive Archive, static map[string]models.AreaStats, logger *logrus.Logger) *Resolver {
	return &Resolver{
		source:  source,
		archive: archive,
		static:  static,
		logger:  logger,
	}
}

// ResolveStats returns the statistics of an arrondissement, degrading to
// archived then bundled data when the live source fails. A live success is
// archived asynchronously; archive write failures are diagnostic only.
func (r *Resolver) ResolveStats(ctx context.Context, arrondissement int) (models.AreaStats, error) {
	stats, err := r.source.ByArrondissement(ctx, arrondissement)
	if err == nil {
		if r.archive != nil {
			go func(s models.AreaStats) {
				if saveErr := r.archive.SaveStats(s); saveErr != nil {
					r.logger.WithError(saveErr).Warn("Failed to archive stats")
				}
			}(stats)
		}
		return stats, nil
	}

	r.logger.WithError(err).WithField("arrondissement", arrondissement).
		Warn("Live DVF lookup failed, trying fallback data")

	code := strconv.Itoa(arrondissement)

	if r.archive != nil {
		archived, archiveErr := r.archive.GetStats(code)
		if archiveErr != nil {
			r.logger.WithError(archiveErr).Warn("Archive lookup failed")
		} else if archived != nil {
			metrics.FallbackServed.WithLabelValues("archive").Inc()
			r.logger.WithField("arrondissement", arrondissement).Info("Serving archived stats")
			return *archived, nil
		}
	}

	if stats, ok := r.static[code]; ok {
		metrics.FallbackServed.WithLabelValues("static").Inc()
		r.logger.WithField("arrondissement", arrondissement).Info("Serving bundled static stats")
		return stats, nil
	}

	return models.AreaStats{}, &dvf.NotFoundError{Code: code}
}
