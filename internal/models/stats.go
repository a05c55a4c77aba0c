package models

// CategoryStats holds price statistics for one property category
// (apartments or houses) within a geographic unit. Prices are in €/m²,
// rounded to the nearest integer. Missing source values are normalized
// to 0 so downstream arithmetic never sees an absent number.
type CategoryStats struct {
	AveragePricePerSqm int `json:"average_price_per_sqm"`
	MedianPricePerSqm  int `json:"median_price_per_sqm"`
	SaleCount          int `json:"sale_count"`
}

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// AreaStats is the canonical statistics entity for one geographic unit:
// either a Paris arrondissement (Code "1".."20") or a cadastral section
// (Code like "75107000AK"). Coordinates are the centre of the parent
// arrondissement, looked up from a static table.
type AreaStats struct {
	Code           string        `json:"code"`
	Arrondissement int           `json:"arrondissement"`
	Name           string        `json:"name"`
	Apartments     CategoryStats `json:"apartments"`
	Houses         CategoryStats `json:"houses"`
	Coordinates    Coordinates   `json:"coordinates"`
}

// GeocodeResult is one resolved address. Section is nil when reverse
// geocoding could not resolve a cadastral parcel; that is an expected
// outcome, not an error.
type GeocodeResult struct {
	Label          string  `json:"label"`
	Lat            float64 `json:"lat"`
	Lon            float64 `json:"lon"`
	CityCode       string  `json:"citycode"`
	Arrondissement int     `json:"arrondissement"`
	Section        *string `json:"section"`
}

// StatsResult is the outcome of a single-area lookup.
type StatsResult struct {
	Success bool       `json:"success"`
	Summary string     `json:"summary,omitempty"`
	Error   string     `json:"error,omitempty"`
	Stats   *AreaStats `json:"stats,omitempty"`
}

// CompareResult pairs the statistics of two arrondissements.
// Difference is the apartment average price of A minus that of B.
// PctDifference is relative to B and nil when B's average is 0.
type CompareResult struct {
	Success       bool       `json:"success"`
	Summary       string     `json:"summary,omitempty"`
	Error         string     `json:"error,omitempty"`
	StatsA        *AreaStats `json:"stats_a,omitempty"`
	StatsB        *AreaStats `json:"stats_b,omitempty"`
	Difference    int        `json:"difference"`
	PctDifference *float64   `json:"pct_difference,omitempty"`
}

// AddressResult is the outcome of an address lookup. SectionStats is nil
// when no section-level data could be resolved; the lookup still succeeds
// with arrondissement-level data only. SectionVsArrondissementPct compares
// the apartment median of the section against the arrondissement and is
// only computed when both medians are strictly positive.
type AddressResult struct {
	Success                    bool           `json:"success"`
	Summary                    string         `json:"summary,omitempty"`
	Error                      string         `json:"error,omitempty"`
	Address                    *GeocodeResult `json:"address,omitempty"`
	ArrondissementStats        *AreaStats     `json:"arrondissement_stats,omitempty"`
	SectionStats               *AreaStats     `json:"section_stats,omitempty"`
	SectionVsArrondissementPct *float64       `json:"section_vs_arrondissement_pct,omitempty"`
}
