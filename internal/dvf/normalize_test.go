package dvf

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"dvfparis/server/internal/models"
)

func ptr(v float64) *float64 {
	return &v
}

func TestNormalizeRow(t *testing.T) {
	tests := []struct {
		name           string
		row            apiRow
		code           string
		arrondissement int
		expected       models.AreaStats
	}{
		{
			name: "Seventh arrondissement with fractional average",
			row: apiRow{
				CodeGeo:              "75107",
				LibelleGeo:           "7 Arrondissement",
				MoyPrixM2Appartement: ptr(14523.7),
				MedPrixM2Appartement: ptr(13800),
				NbVentesAppartement:  ptr(412),
				MoyPrixM2Maison:      ptr(16200.4),
				MedPrixM2Maison:      ptr(15900),
				NbVentesMaison:       ptr(12),
			},
			code:           "7",
			arrondissement: 7,
			expected: models.AreaStats{
				Code:           "7",
				Arrondissement: 7,
				Name:           "7",
				Apartments: models.CategoryStats{
					AveragePricePerSqm: 14524,
					MedianPricePerSqm:  13800,
					SaleCount:          412,
				},
				Houses: models.CategoryStats{
					AveragePricePerSqm: 16200,
					MedianPricePerSqm:  15900,
					SaleCount:          12,
				},
				Coordinates: models.Coordinates{Lat: 48.8566, Lon: 2.3126},
			},
		},
		{
			name: "Missing numeric fields normalize to zero",
			row: apiRow{
				CodeGeo:    "75103",
				LibelleGeo: "3 Arrondissement",
			},
			code:           "3",
			arrondissement: 3,
			expected: models.AreaStats{
				Code:           "3",
				Arrondissement: 3,
				Name:           "3",
				Apartments:     models.CategoryStats{},
				Houses:         models.CategoryStats{},
				Coordinates:    models.Coordinates{Lat: 48.8637, Lon: 2.3615},
			},
		},
		{
			name: "Section row keeps parent arrondissement coordinates",
			row: apiRow{
				CodeGeo:              "75107000AK",
				LibelleGeo:           "75107000AK",
				MoyPrixM2Appartement: ptr(15100.2),
				MedPrixM2Appartement: ptr(14750.5),
				NbVentesAppartement:  ptr(37),
			},
			code:           "75107000AK",
			arrondissement: 7,
			expected: models.AreaStats{
				Code:           "75107000AK",
				Arrondissement: 7,
				Name:           "75107000AK",
				Apartments: models.CategoryStats{
					AveragePricePerSqm: 15100,
					MedianPricePerSqm:  14751,
					SaleCount:          37,
				},
				Houses:      models.CategoryStats{},
				Coordinates: models.Coordinates{Lat: 48.8566, Lon: 2.3126},
			},
		},
		{
			name: "Unknown arrondissement falls back to city centre",
			row: apiRow{
				CodeGeo:    "75199",
				LibelleGeo: "99 Arrondissement",
			},
			code:           "99",
			arrondissement: 99,
			expected: models.AreaStats{
				Code:           "99",
				Arrondissement: 99,
				Name:           "99",
				Apartments:     models.CategoryStats{},
				Houses:         models.CategoryStats{},
				Coordinates:    models.Coordinates{Lat: 48.8566, Lon: 2.3522},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeRow(tt.row, tt.code, tt.arrondissement)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestNormalizeRowNeverNegative(t *testing.T) {
	row := apiRow{
		LibelleGeo:           "5 Arrondissement",
		MoyPrixM2Appartement: ptr(0.4),
	}
	got := normalizeRow(row, "5", 5)
	assert.GreaterOrEqual(t, got.Apartments.AveragePricePerSqm, 0)
	assert.GreaterOrEqual(t, got.Apartments.MedianPricePerSqm, 0)
	assert.GreaterOrEqual(t, got.Apartments.SaleCount, 0)
	assert.GreaterOrEqual(t, got.Houses.AveragePricePerSqm, 0)
}
