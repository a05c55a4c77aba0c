package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes registers the API routes on the router.
func SetupRoutes(router *gin.Engine, handler *Handler) {
	router.Use(cors.Default())

	api := router.Group("/api")
	{
		api.GET("/stats/:arrondissement", handler.GetStats)
		api.GET("/compare", handler.CompareStats)
		api.GET("/search", handler.SearchByAddress)
		api.GET("/sections/:arrondissement", handler.GetSections)
		api.GET("/health", handler.HealthCheck)
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
