package config

import (
	"time"

	"github.com/caarlos0/env/v6"
)

// Config holds the runtime configuration, loaded from the environment.
type Config struct {
	Port     string `env:"PORT" envDefault:"5250"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// DVF tabular statistics resource on tabular-api.data.gouv.fr
	DVFBaseURL string `env:"DVF_BASE_URL" envDefault:"https://tabular-api.data.gouv.fr/api/resources/851d342f-9c96-41c1-924a-11a7a7aae8a6/data/"`

	// Géoplateforme geocoding service (forward + reverse)
	GeocodeBaseURL string `env:"GEOCODE_BASE_URL" envDefault:"https://data.geopf.fr/geocodage"`

	// Etalab cadastre bundler (section geometries)
	CadastreBaseURL string `env:"CADASTRE_BASE_URL" envDefault:"https://cadastre.data.gouv.fr/bundler/cadastre-etalab/communes"`

	// Per-call timeouts. Geometry payloads are larger than stats rows
	// and get a bigger budget.
	StatsTimeout    time.Duration `env:"STATS_TIMEOUT" envDefault:"5s"`
	GeometryTimeout time.Duration `env:"GEOMETRY_TIMEOUT" envDefault:"10s"`

	// Cache TTLs. Section geometries are stable and can live longer.
	StatsCacheTTL    time.Duration `env:"STATS_CACHE_TTL" envDefault:"5m"`
	GeometryCacheTTL time.Duration `env:"GEOMETRY_CACHE_TTL" envDefault:"30m"`

	// Path of the sqlite archive of last-known-good stats. Empty disables
	// the archive layer.
	ArchivePath string `env:"ARCHIVE_PATH" envDefault:"database/dvf-archive.db"`
}

// LoadConfig parses the configuration from the environment.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
