package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"dvfparis/server/config"
	"dvfparis/server/internal/api"
	"dvfparis/server/internal/cadastre"
	"dvfparis/server/internal/database"
	"dvfparis/server/internal/dvf"
	"dvfparis/server/internal/fallback"
	"dvfparis/server/internal/geocoding"
	"dvfparis/server/internal/httpclient"
	"dvfparis/server/internal/query"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	// The sqlite archive of last-known-good stats is optional: without it
	// the fallback chain is live -> bundled static dataset.
	var archive fallback.Archive
	if cfg.ArchivePath != "" {
		db, err := database.NewDatabase(cfg.ArchivePath, logger)
		if err != nil {
			logger.WithError(err).Warn("Failed to open stats archive, continuing without it")
		} else if err := db.RunMigrations(); err != nil {
			logger.WithError(err).Warn("Failed to migrate stats archive, continuing without it")
		} else {
			logger.Infof("Using stats archive at: %s", cfg.ArchivePath)
			archive = db
		}
	}

	staticDataset, err := fallback.LoadStaticDataset()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load bundled DVF dataset")
	}

	statsClient := dvf.NewClient(
		cfg.DVFBaseURL,
		httpclient.NewFetcher("dvf", cfg.StatsTimeout, logger),
		cfg.StatsCacheTTL,
		logger,
	)
	geocoder := geocoding.NewGeocoder(
		cfg.GeocodeBaseURL,
		httpclient.NewFetcher("geoplateforme", cfg.StatsTimeout, logger),
		logger,
	)
	cadastreClient := cadastre.NewClient(
		cfg.CadastreBaseURL,
		httpclient.NewFetcher("cadastre", cfg.GeometryTimeout, logger),
		cfg.GeometryCacheTTL,
		logger,
	)

	resolver := fallback.NewResolver(statsClient, archive, staticDataset, logger)
	orchestrator := query.NewOrchestrator(resolver, statsClient, geocoder, logger)
	handler := api.NewHandler(orchestrator, cadastreClient, logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	api.SetupRoutes(router, handler)

	logger.Infof("Starting server on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.WithError(err).Fatal("Server failed to start")
	}
}
