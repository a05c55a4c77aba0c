// Package database persists the last successful live fetch per geographic
// code in a local sqlite file. The archive sits between the live provider
// and the bundled static dataset in the fallback chain: it is fresher than
// the bundle but survives restarts, unlike the in-memory cache.
package database

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"dvfparis/server/internal/models"
)

// StatsRecord is one archived AreaStats row.
type StatsRecord struct {
	Code           string `gorm:"primaryKey"`
	Arrondissement int
	Name           string

	ApartmentAvg    int
	ApartmentMedian int
	ApartmentSales  int
	HouseAvg        int
	HouseMedian     int
	HouseSales      int

	Latitude  float64
	Longitude float64

	FetchedAt time.Time
}

type Database struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewDatabase opens (and creates if needed) the sqlite archive at path.
func NewDatabase(path string, logger *logrus.Logger) (*Database, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}

	return &Database{db: db, logger: logger}, nil
}

// RunMigrations creates or updates the archive schema.
func (d *Database) RunMigrations() error {
	return d.db.AutoMigrate(&StatsRecord{})
}

// SaveStats upserts the archived row for stats.Code.
func (d *Database) SaveStats(stats models.AreaStats) error {
	record := StatsRecord{
		Code:            stats.Code,
		Arrondissement:  stats.Arrondissement,
		Name:            stats.Name,
		ApartmentAvg:    stats.Apartments.AveragePricePerSqm,
		ApartmentMedian: stats.Apartments.MedianPricePerSqm,
		ApartmentSales:  stats.Apartments.SaleCount,
		HouseAvg:        stats.Houses.AveragePricePerSqm,
		HouseMedian:     stats.Houses.MedianPricePerSqm,
		HouseSales:      stats.Houses.SaleCount,
		Latitude:        stats.Coordinates.Lat,
		Longitude:       stats.Coordinates.Lon,
		FetchedAt:       time.Now(),
	}
	return d.db.Save(&record).Error
}

// GetStats returns the archived stats for a code, or nil if the code was
// never archived.
func (d *Database) GetStats(code string) (*models.AreaStats, error) {
	var record StatsRecord
	err := d.db.First(&record, "code = ?", code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	stats := models.AreaStats{
		Code:           record.Code,
		Arrondissement: record.Arrondissement,
		Name:           record.Name,
		Apartments: models.CategoryStats{
			AveragePricePerSqm: record.ApartmentAvg,
			MedianPricePerSqm:  record.ApartmentMedian,
			SaleCount:          record.ApartmentSales,
		},
		Houses: models.CategoryStats{
			AveragePricePerSqm: record.HouseAvg,
			MedianPricePerSqm:  record.HouseMedian,
			SaleCount:          record.HouseSales,
		},
		Coordinates: models.Coordinates{Lat: record.Latitude, Lon: record.Longitude},
	}
	return &stats, nil
}
