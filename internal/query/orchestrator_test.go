package query

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dvfparis/server/internal/dvf"
	"dvfparis/server/internal/geocoding"
	"dvfparis/server/internal/models"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

type fakeResolver struct {
	mu    sync.Mutex
	stats map[int]models.AreaStats
	errs  map[int]error
	calls []int
}

func (f *fakeResolver) ResolveStats(ctx context.Context, arrondissement int) (models.AreaStats, error) {
	f.mu.Lock()
	f.calls = append(f.calls, arrondissement)
	f.mu.Unlock()
	if err, ok := f.errs[arrondissement]; ok {
		return models.AreaStats{}, err
	}
	if stats, ok := f.stats[arrondissement]; ok {
		return stats, nil
	}
	return models.AreaStats{}, &dvf.NotFoundError{Code: fmt.Sprint(arrondissement)}
}

type fakeSections struct {
	stats models.AreaStats
	err   error
}

func (f *fakeSections) BySection(ctx context.Context, sectionCode string) (models.AreaStats, error) {
	return f.stats, f.err
}

type fakeGeocoder struct {
	result models.GeocodeResult
	err    error
}

func (f *fakeGeocoder) Geocode(ctx context.Context, address string) (models.GeocodeResult, error) {
	return f.result, f.err
}

func arrStats(n, avg, median int) models.AreaStats {
	return models.AreaStats{
		Code:           fmt.Sprint(n),
		Arrondissement: n,
		Name:           fmt.Sprint(n),
		Apartments: models.CategoryStats{
			AveragePricePerSqm: avg,
			MedianPricePerSqm:  median,
			SaleCount:          100,
		},
	}
}

func newOrchestrator(resolver StatsResolver, sections SectionSource, geocoder AddressGeocoder) *Orchestrator {
	return NewOrchestrator(resolver, sections, geocoder, newTestLogger())
}

func TestOrchestrator_GetStats(t *testing.T) {
	resolver := &fakeResolver{stats: map[int]models.AreaStats{7: arrStats(7, 14524, 13800)}}
	o := newOrchestrator(resolver, &fakeSections{}, &fakeGeocoder{})

	result := o.GetStats(context.Background(), 7)
	require.True(t, result.Success)
	require.NotNil(t, result.Stats)
	assert.Equal(t, 14524, result.Stats.Apartments.AveragePricePerSqm)
	assert.Contains(t, result.Summary, "14524")
	assert.Empty(t, result.Error)
}

func TestOrchestrator_GetStats_InvalidArrondissement(t *testing.T) {
	o := newOrchestrator(&fakeResolver{}, &fakeSections{}, &fakeGeocoder{})

	for _, n := range []int{0, -3, 21, 100} {
		result := o.GetStats(context.Background(), n)
		assert.False(t, result.Success)
		assert.NotEmpty(t, result.Error)
		assert.Nil(t, result.Stats)
	}
}

func TestOrchestrator_GetStats_NotFound(t *testing.T) {
	o := newOrchestrator(&fakeResolver{}, &fakeSections{}, &fakeGeocoder{})

	result := o.GetStats(context.Background(), 13)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "13")
}

func TestOrchestrator_CompareStats(t *testing.T) {
	resolver := &fakeResolver{stats: map[int]models.AreaStats{
		1: arrStats(1, 13000, 12500),
		2: arrStats(2, 11000, 10800),
	}}
	o := newOrchestrator(resolver, &fakeSections{}, &fakeGeocoder{})

	result := o.CompareStats(context.Background(), 1, 2)
	require.True(t, result.Success)
	assert.Equal(t, 2000, result.Difference)
	require.NotNil(t, result.PctDifference)
	assert.InDelta(t, 18.2, *result.PctDifference, 0.001)
	assert.Contains(t, result.Summary, "+2000")
	assert.Contains(t, result.Summary, "+18.2%")

	// Both lookups were issued.
	assert.ElementsMatch(t, []int{1, 2}, resolver.calls)
}

func TestOrchestrator_CompareStats_NegativeDifference(t *testing.T) {
	resolver := &fakeResolver{stats: map[int]models.AreaStats{
		19: arrStats(19, 8563, 8290),
		6:  arrStats(6, 14478, 14020),
	}}
	o := newOrchestrator(resolver, &fakeSections{}, &fakeGeocoder{})

	result := o.CompareStats(context.Background(), 19, 6)
	require.True(t, result.Success)
	assert.Equal(t, -5915, result.Difference)
	require.NotNil(t, result.PctDifference)
	assert.InDelta(t, -40.9, *result.PctDifference, 0.001)
}

func TestOrchestrator_CompareStats_ZeroReference(t *testing.T) {
	resolver := &fakeResolver{stats: map[int]models.AreaStats{
		1: arrStats(1, 13000, 12500),
		2: arrStats(2, 0, 0),
	}}
	o := newOrchestrator(resolver, &fakeSections{}, &fakeGeocoder{})

	result := o.CompareStats(context.Background(), 1, 2)
	require.True(t, result.Success)
	assert.Equal(t, 13000, result.Difference)
	assert.Nil(t, result.PctDifference, "percentage is undefined against a zero reference")
}

func TestOrchestrator_CompareStats_EitherSideFails(t *testing.T) {
	resolver := &fakeResolver{
		stats: map[int]models.AreaStats{1: arrStats(1, 13000, 12500)},
		errs:  map[int]error{2: errors.New("upstream down")},
	}
	o := newOrchestrator(resolver, &fakeSections{}, &fakeGeocoder{})

	result := o.CompareStats(context.Background(), 1, 2)
	assert.False(t, result.Success, "there is no partial comparison")
	assert.NotEmpty(t, result.Error)
	assert.Nil(t, result.StatsA)
	assert.Nil(t, result.StatsB)
}

func TestOrchestrator_CompareStats_InvalidInput(t *testing.T) {
	o := newOrchestrator(&fakeResolver{}, &fakeSections{}, &fakeGeocoder{})

	result := o.CompareStats(context.Background(), 1, 21)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
}

func section(code string, median int) models.AreaStats {
	return models.AreaStats{
		Code:           code,
		Arrondissement: 7,
		Name:           code,
		Apartments:     models.CategoryStats{MedianPricePerSqm: median},
	}
}

func locatedAddress(section *string) models.GeocodeResult {
	return models.GeocodeResult{
		Label:          "45 Avenue de la Motte-Picquet 75007 Paris",
		Lat:            48.8528,
		Lon:            2.3043,
		CityCode:       "75107",
		Arrondissement: 7,
		Section:        section,
	}
}

func TestOrchestrator_SearchByAddress(t *testing.T) {
	sectionCode := "75107000AK"
	resolver := &fakeResolver{stats: map[int]models.AreaStats{7: arrStats(7, 14524, 13800)}}
	sections := &fakeSections{stats: section(sectionCode, 15180)}
	geocoder := &fakeGeocoder{result: locatedAddress(&sectionCode)}
	o := newOrchestrator(resolver, sections, geocoder)

	result := o.SearchByAddress(context.Background(), "45 avenue de la motte picquet")
	require.True(t, result.Success)
	require.NotNil(t, result.ArrondissementStats)
	require.NotNil(t, result.SectionStats)
	require.NotNil(t, result.SectionVsArrondissementPct)
	// (15180-13800)/13800*100 = 10.0
	assert.InDelta(t, 10.0, *result.SectionVsArrondissementPct, 0.001)
	assert.Contains(t, result.Summary, "75107000AK")
}

func TestOrchestrator_SearchByAddress_SectionStatsFailureDegrades(t *testing.T) {
	sectionCode := "75107000AK"
	resolver := &fakeResolver{stats: map[int]models.AreaStats{7: arrStats(7, 14524, 13800)}}
	sections := &fakeSections{err: errors.New("no section data")}
	geocoder := &fakeGeocoder{result: locatedAddress(&sectionCode)}
	o := newOrchestrator(resolver, sections, geocoder)

	result := o.SearchByAddress(context.Background(), "45 avenue de la motte picquet")
	require.True(t, result.Success, "section failure must not fail the request")
	assert.NotNil(t, result.ArrondissementStats)
	assert.Nil(t, result.SectionStats)
	assert.Nil(t, result.SectionVsArrondissementPct)
}

func TestOrchestrator_SearchByAddress_NoSectionResolved(t *testing.T) {
	resolver := &fakeResolver{stats: map[int]models.AreaStats{7: arrStats(7, 14524, 13800)}}
	o := newOrchestrator(resolver, &fakeSections{}, &fakeGeocoder{result: locatedAddress(nil)})

	result := o.SearchByAddress(context.Background(), "45 avenue de la motte picquet")
	require.True(t, result.Success)
	require.NotNil(t, result.Address)
	assert.Nil(t, result.Address.Section)
	assert.Nil(t, result.SectionStats)
}

func TestOrchestrator_SearchByAddress_ZeroMedianSkipsGap(t *testing.T) {
	sectionCode := "75107000AK"
	resolver := &fakeResolver{stats: map[int]models.AreaStats{7: arrStats(7, 14524, 13800)}}
	sections := &fakeSections{stats: section(sectionCode, 0)}
	geocoder := &fakeGeocoder{result: locatedAddress(&sectionCode)}
	o := newOrchestrator(resolver, sections, geocoder)

	result := o.SearchByAddress(context.Background(), "45 avenue de la motte picquet")
	require.True(t, result.Success)
	require.NotNil(t, result.SectionStats)
	assert.Nil(t, result.SectionVsArrondissementPct,
		"gap is only computed when both medians are strictly positive")
}

func TestOrchestrator_SearchByAddress_GeocodeFailures(t *testing.T) {
	tests := []struct {
		name        string
		geocodeErr  error
		errContains string
	}{
		{
			name:        "Address not found",
			geocodeErr:  geocoding.ErrAddressNotFound,
			errContains: "non trouvée",
		},
		{
			name:        "Out of scope",
			geocodeErr:  geocoding.ErrOutOfScope,
			errContains: "hors Paris",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newOrchestrator(&fakeResolver{}, &fakeSections{}, &fakeGeocoder{err: tt.geocodeErr})

			result := o.SearchByAddress(context.Background(), "somewhere")
			assert.False(t, result.Success)
			assert.Contains(t, result.Error, tt.errContains)
		})
	}
}

func TestOrchestrator_SearchByAddress_ArrondissementUnavailable(t *testing.T) {
	sectionCode := "75107000AK"
	resolver := &fakeResolver{errs: map[int]error{7: errors.New("upstream down")}}
	o := newOrchestrator(resolver, &fakeSections{}, &fakeGeocoder{result: locatedAddress(&sectionCode)})

	result := o.SearchByAddress(context.Background(), "45 avenue de la motte picquet")
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
}

func TestOrchestrator_SearchByAddress_EmptyAddress(t *testing.T) {
	o := newOrchestrator(&fakeResolver{}, &fakeSections{}, &fakeGeocoder{})

	result := o.SearchByAddress(context.Background(), "   ")
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
}

func TestPctOf(t *testing.T) {
	tests := []struct {
		name      string
		delta     float64
		reference float64
		expected  *float64
	}{
		{name: "Positive gap", delta: 2000, reference: 11000, expected: ptr(18.2)},
		{name: "Negative", delta: -5915, reference: 14478, expected: ptr(-40.9)},
		{name: "Zero reference", delta: 2000, reference: 0, expected: nil},
		{name: "Half rounds away from zero", delta: 125, reference: 1000, expected: ptr(12.5)},
		{name: "Tie at one decimal", delta: 1845, reference: 10000, expected: ptr(18.5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pctOf(tt.delta, tt.reference)
			if tt.expected == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.expected, *got, 0.0001)
		})
	}
}

func ptr(v float64) *float64 {
	return &v
}
