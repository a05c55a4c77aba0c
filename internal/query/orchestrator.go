// Package query composes the clients into the three supported operations:
// single-area lookup, area comparison, and address lookup. The
// orchestrator owns the partial-failure policy and is the single place
// where internal errors become user-facing failure payloads; no error
// escapes past it.
package query

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"dvfparis/server/internal/dvf"
	"dvfparis/server/internal/geocoding"
	"dvfparis/server/internal/httpclient"
	"dvfparis/server/internal/models"
)

// StatsResolver resolves arrondissement statistics with fallback.
type StatsResolver interface {
	ResolveStats(ctx context.Context, arrondissement int) (models.AreaStats, error)
}

// SectionSource fetches section-level statistics, without fallback.
type SectionSource interface {
	BySection(ctx context.Context, sectionCode string) (models.AreaStats, error)
}

// AddressGeocoder resolves free-text addresses.
type AddressGeocoder interface {
	Geocode(ctx context.Context, address string) (models.GeocodeResult, error)
}

// Orchestrator composes the resolver, the section source, and the
// geocoder into the public query operations.
type Orchestrator struct {
	resolver StatsResolver
	sections SectionSource
	geocoder AddressGeocoder
	logger   *logrus.Logger
}

// NewOrchestrator wires the orchestrator.
func NewOrchestrator(resolver StatsResolver, sections SectionSource, geocoder AddressGeocoder, logger *logrus.Logger) *Orchestrator {
	return &Orchestrator{
		resolver: resolver,
		sections: sections,
		geocoder: geocoder,
		logger:   logger,
	}
}

// GetStats looks up one arrondissement. The request only fails when the
// code yields nothing from the live source or any fallback layer.
func (o *Orchestrator) GetStats(ctx context.Context, arrondissement int) models.StatsResult {
	if arrondissement < 1 || arrondissement > 20 {
		return models.StatsResult{Error: "Le numéro d'arrondissement doit être compris entre 1 et 20."}
	}

	stats, err := o.resolver.ResolveStats(ctx, arrondissement)
	if err != nil {
		o.logger.WithError(err).WithField("arrondissement", arrondissement).Error("Stats lookup failed")
		return models.StatsResult{Error: statsFailureMessage(err, arrondissement)}
	}

	return models.StatsResult{
		Success: true,
		Summary: statsSummary(stats),
		Stats:   &stats,
	}
}

// CompareStats fetches both arrondissements concurrently and compares
// their apartment average prices (A minus B, percentage relative to B).
// There is no partial comparison: either side failing fails the request.
func (o *Orchestrator) CompareStats(ctx context.Context, codeA, codeB int) models.CompareResult {
	for _, code := range []int{codeA, codeB} {
		if code < 1 || code > 20 {
			return models.CompareResult{Error: "Le numéro d'arrondissement doit être compris entre 1 et 20."}
		}
	}

	var (
		wg    sync.WaitGroup
		stats [2]models.AreaStats
		errs  [2]error
	)
	for i, code := range []int{codeA, codeB} {
		wg.Add(1)
		go func(i, code int) {
			defer wg.Done()
			stats[i], errs[i] = o.resolver.ResolveStats(ctx, code)
		}(i, code)
	}
	wg.Wait()

	for i, code := range []int{codeA, codeB} {
		if errs[i] != nil {
			o.logger.WithError(errs[i]).WithField("arrondissement", code).Error("Comparison lookup failed")
			return models.CompareResult{Error: statsFailureMessage(errs[i], code)}
		}
	}

	a, b := stats[0], stats[1]
	difference := a.Apartments.AveragePricePerSqm - b.Apartments.AveragePricePerSqm
	pct := pctOf(float64(difference), float64(b.Apartments.AveragePricePerSqm))

	return models.CompareResult{
		Success:       true,
		Summary:       compareSummary(a, b, difference, pct),
		StatsA:        &a,
		StatsB:        &b,
		Difference:    difference,
		PctDifference: pct,
	}
}

// SearchByAddress runs the address pipeline: geocode, then arrondissement
// stats (required), then section stats (best effort). Only geocoding
// failures and a fully unavailable arrondissement are failure terminals;
// an unresolved section degrades to arrondissement-only data.
func (o *Orchestrator) SearchByAddress(ctx context.Context, address string) models.AddressResult {
	if strings.TrimSpace(address) == "" {
		return models.AddressResult{Error: "L'adresse à rechercher est vide."}
	}

	located, err := o.geocoder.Geocode(ctx, address)
	if err != nil {
		o.logger.WithError(err).WithField("address", address).Error("Geocoding failed")
		return models.AddressResult{Error: geocodeFailureMessage(err)}
	}

	arrStats, err := o.resolver.ResolveStats(ctx, located.Arrondissement)
	if err != nil {
		o.logger.WithError(err).WithField("arrondissement", located.Arrondissement).Error("Address stats lookup failed")
		return models.AddressResult{Error: statsFailureMessage(err, located.Arrondissement)}
	}

	result := models.AddressResult{
		Success:             true,
		Address:             &located,
		ArrondissementStats: &arrStats,
	}

	if located.Section != nil {
		sectionStats, err := o.sections.BySection(ctx, *located.Section)
		if err != nil {
			// Best effort: no section-level data, the request still succeeds.
			o.logger.WithError(err).WithField("section", *located.Section).
				Warn("Section stats unavailable, serving arrondissement data only")
		} else {
			result.SectionStats = &sectionStats
			if sectionStats.Apartments.MedianPricePerSqm > 0 && arrStats.Apartments.MedianPricePerSqm > 0 {
				gap := float64(sectionStats.Apartments.MedianPricePerSqm - arrStats.Apartments.MedianPricePerSqm)
				result.SectionVsArrondissementPct = pctOf(gap, float64(arrStats.Apartments.MedianPricePerSqm))
			}
		}
	}

	result.Summary = addressSummary(result)
	return result
}

// pctOf returns delta/reference*100 rounded half away from zero to one
// decimal, or nil when the reference is 0: the quantity is undefined
// there, never ±Inf or NaN.
func pctOf(delta, reference float64) *float64 {
	if reference == 0 {
		return nil
	}
	pct := math.Round(delta/reference*1000) / 10
	return &pct
}

func statsSummary(stats models.AreaStats) string {
	return fmt.Sprintf("%s — Appartements : %d €/m² (médian %d €/m², %d ventes). Maisons : %d €/m² (%d ventes).",
		stats.Name,
		stats.Apartments.AveragePricePerSqm,
		stats.Apartments.MedianPricePerSqm,
		stats.Apartments.SaleCount,
		stats.Houses.AveragePricePerSqm,
		stats.Houses.SaleCount,
	)
}

func compareSummary(a, b models.AreaStats, difference int, pct *float64) string {
	summary := fmt.Sprintf("Paris %de vs Paris %de — Appartements : %d €/m² vs %d €/m² (écart %+d €/m²",
		a.Arrondissement,
		b.Arrondissement,
		a.Apartments.AveragePricePerSqm,
		b.Apartments.AveragePricePerSqm,
		difference,
	)
	if pct != nil {
		summary += fmt.Sprintf(", %+.1f%%", *pct)
	}
	return summary + ")."
}

func addressSummary(result models.AddressResult) string {
	arr := result.ArrondissementStats
	summary := fmt.Sprintf("%s — Paris %de : appartements %d €/m² (médian %d €/m²).",
		result.Address.Label,
		result.Address.Arrondissement,
		arr.Apartments.AveragePricePerSqm,
		arr.Apartments.MedianPricePerSqm,
	)
	if result.SectionStats != nil {
		summary += fmt.Sprintf(" Section %s : médian %d €/m²", result.SectionStats.Code, result.SectionStats.Apartments.MedianPricePerSqm)
		if result.SectionVsArrondissementPct != nil {
			summary += fmt.Sprintf(" (%+.1f%% vs arrondissement)", *result.SectionVsArrondissementPct)
		}
		summary += "."
	}
	return summary
}

func statsFailureMessage(err error, arrondissement int) string {
	var notFound *dvf.NotFoundError
	switch {
	case errors.As(err, &notFound):
		return fmt.Sprintf("Aucune donnée DVF pour l'arrondissement %d.", arrondissement)
	case errors.Is(err, httpclient.ErrTimeout):
		return "La source de données DVF n'a pas répondu à temps."
	default:
		return "La source de données DVF est indisponible."
	}
}

func geocodeFailureMessage(err error) string {
	switch {
	case errors.Is(err, geocoding.ErrAddressNotFound):
		return "Adresse non trouvée."
	case errors.Is(err, geocoding.ErrOutOfScope):
		return "Adresse hors Paris : seuls les arrondissements parisiens sont couverts."
	case errors.Is(err, httpclient.ErrTimeout):
		return "Le service de géocodage n'a pas répondu à temps."
	default:
		return "Le service de géocodage est indisponible."
	}
}
