// Package geocoding implements the Géoplateforme geocoding client:
// forward geocoding of a free-text address, then best-effort reverse
// geocoding against the parcel index to resolve the cadastral section.
package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"dvfparis/server/config"
	"dvfparis/server/internal/httpclient"
	"dvfparis/server/internal/models"
)

// ErrAddressNotFound is returned when forward geocoding yields no feature.
var ErrAddressNotFound = errors.New("address not found")

// ErrOutOfScope is returned when the resolved address is outside Paris.
var ErrOutOfScope = errors.New("address outside Paris")

type geocodeFeature struct {
	Properties struct {
		ID       string `json:"id"`
		Label    string `json:"label"`
		CityCode string `json:"citycode"`
	} `json:"properties"`
	Geometry struct {
		Type        string    `json:"type"`
		Coordinates []float64 `json:"coordinates"` // [lon, lat]
	} `json:"geometry"`
}

type geocodeResponse struct {
	Features []geocodeFeature `json:"features"`
}

// Geocoder resolves Paris addresses against the Géoplateforme service.
type Geocoder struct {
	baseURL string
	fetcher *httpclient.Fetcher
	logger  *logrus.Logger
}

// NewGeocoder creates a geocoder using the given base URL, e.g.
// "https://data.geopf.fr/geocodage".
func NewGeocoder(baseURL string, fetcher *httpclient.Fetcher, logger *logrus.Logger) *Geocoder {
	return &Geocoder{
		baseURL: baseURL,
		fetcher: fetcher,
		logger:  logger,
	}
}

// Geocode resolves a free-text address to coordinates, administrative
// code, arrondissement, and (best effort) the cadastral section. A
// failure of the reverse-geocoding step never fails the call; it only
// leaves Section nil.
func (g *Geocoder) Geocode(ctx context.Context, address string) (models.GeocodeResult, error) {
	params := url.Values{}
	params.Set("q", address)
	params.Set("limit", "1")

	body, err := g.fetcher.Get(ctx, g.baseURL+"/search?"+params.Encode())
	if err != nil {
		return models.GeocodeResult{}, err
	}

	var parsed geocodeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return models.GeocodeResult{}, fmt.Errorf("failed to parse geocoding response: %w", err)
	}
	if len(parsed.Features) == 0 {
		g.logger.WithField("address", address).Warn("No geocoding results")
		return models.GeocodeResult{}, fmt.Errorf("%w: %s", ErrAddressNotFound, address)
	}

	feature := parsed.Features[0]
	cityCode := feature.Properties.CityCode
	if len(feature.Geometry.Coordinates) < 2 {
		return models.GeocodeResult{}, fmt.Errorf("geocoding feature has no coordinates for %q", address)
	}
	lon, lat := feature.Geometry.Coordinates[0], feature.Geometry.Coordinates[1]

	// The system only serves Paris; anything else is rejected.
	if !strings.HasPrefix(cityCode, config.ParisDepartmentPrefix) {
		g.logger.WithFields(logrus.Fields{
			"address":  address,
			"citycode": cityCode,
		}).Warn("Address resolved outside Paris")
		return models.GeocodeResult{}, fmt.Errorf("%w (citycode %s)", ErrOutOfScope, cityCode)
	}

	arrondissement, err := strconv.Atoi(cityCode[len(config.ParisDepartmentPrefix):])
	if err != nil {
		return models.GeocodeResult{}, fmt.Errorf("unexpected citycode %q: %w", cityCode, err)
	}

	result := models.GeocodeResult{
		Label:          feature.Properties.Label,
		Lat:            lat,
		Lon:            lon,
		CityCode:       cityCode,
		Arrondissement: arrondissement,
		Section:        g.reverseSection(ctx, lat, lon),
	}

	g.logger.WithFields(logrus.Fields{
		"address":        address,
		"label":          result.Label,
		"arrondissement": result.Arrondissement,
		"section":        result.Section,
	}).Info("Geocoded address")

	return result, nil
}

// reverseSection reverse-geocodes the coordinates against the parcel
// index and extracts the section code (the first 10 characters of the
// parcel id). Any failure degrades to nil: no section is a legitimate
// outcome of the pipeline, not an error.
func (g *Geocoder) reverseSection(ctx context.Context, lat, lon float64) *string {
	params := url.Values{}
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("index", "parcel")

	body, err := g.fetcher.Get(ctx, g.baseURL+"/reverse?"+params.Encode())
	if err != nil {
		g.logger.WithError(err).Warn("Reverse geocoding failed, continuing without section")
		return nil
	}

	var parsed geocodeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		g.logger.WithError(err).Warn("Failed to parse reverse geocoding response, continuing without section")
		return nil
	}
	if len(parsed.Features) == 0 {
		g.logger.Warn("Reverse geocoding returned no parcel, continuing without section")
		return nil
	}

	parcelID := parsed.Features[0].Properties.ID
	if len(parcelID) < 10 {
		g.logger.WithField("parcel_id", parcelID).Warn("Parcel id too short, continuing without section")
		return nil
	}

	section := parcelID[:10]
	return &section
}
