package dvf

import (
	"math"
	"strings"

	"dvfparis/server/config"
	"dvfparis/server/internal/models"
)

// apiRow is one record of the DVF tabular API. The numeric fields are
// nullable on the provider side, hence the pointers.
type apiRow struct {
	CodeGeo    string  `json:"code_geo"`
	LibelleGeo string  `json:"libelle_geo"`
	EchelleGeo string  `json:"echelle_geo"`
	CodeParent *string `json:"code_parent"`

	NbVentesAppartement  *float64 `json:"nb_ventes_whole_appartement"`
	MoyPrixM2Appartement *float64 `json:"moy_prix_m2_whole_appartement"`
	MedPrixM2Appartement *float64 `json:"med_prix_m2_whole_appartement"`

	NbVentesMaison  *float64 `json:"nb_ventes_whole_maison"`
	MoyPrixM2Maison *float64 `json:"moy_prix_m2_whole_maison"`
	MedPrixM2Maison *float64 `json:"med_prix_m2_whole_maison"`
}

type apiResponse struct {
	Data []apiRow `json:"data"`
	Meta struct {
		Total    int `json:"total"`
		Page     int `json:"page"`
		PageSize int `json:"page_size"`
	} `json:"meta"`
}

// roundPrice coerces a nullable price to a non-negative integer: nil
// becomes 0, anything else is rounded to the nearest integer.
func roundPrice(v *float64) int {
	if v == nil {
		return 0
	}
	return int(math.Round(*v))
}

// saleCount coerces a nullable count to an integer without rounding; the
// provider already delivers integral values.
func saleCount(v *float64) int {
	if v == nil {
		return 0
	}
	return int(*v)
}

// normalizeRow maps a raw provider record to the canonical AreaStats
// entity. The display name is the provider label with the administrative
// " Arrondissement" suffix stripped; coordinates come from the static
// arrondissement table (city centre for unknown numbers). Deterministic
// and side-effect free.
func normalizeRow(row apiRow, code string, arrondissement int) models.AreaStats {
	lat, lon := config.ArrondissementCenter(arrondissement)

	return models.AreaStats{
		Code:           code,
		Arrondissement: arrondissement,
		Name:           strings.Replace(row.LibelleGeo, " Arrondissement", "", 1),
		Apartments: models.CategoryStats{
			AveragePricePerSqm: roundPrice(row.MoyPrixM2Appartement),
			MedianPricePerSqm:  roundPrice(row.MedPrixM2Appartement),
			SaleCount:          saleCount(row.NbVentesAppartement),
		},
		Houses: models.CategoryStats{
			AveragePricePerSqm: roundPrice(row.MoyPrixM2Maison),
			MedianPricePerSqm:  roundPrice(row.MedPrixM2Maison),
			SaleCount:          saleCount(row.NbVentesMaison),
		},
		Coordinates: models.Coordinates{Lat: lat, Lon: lon},
	}
}
