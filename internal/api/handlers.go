package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb/geojson"
	"github.com/sirupsen/logrus"

	"dvfparis/server/internal/models"
)

// Orchestrator is the core query surface consumed by the HTTP layer.
type Orchestrator interface {
	GetStats(ctx context.Context, arrondissement int) models.StatsResult
	CompareStats(ctx context.Context, codeA, codeB int) models.CompareResult
	SearchByAddress(ctx context.Context, address string) models.AddressResult
}

// SectionsGeometry serves the cadastral section geometries of an
// arrondissement.
type SectionsGeometry interface {
	Sections(ctx context.Context, arrondissement int) (*geojson.FeatureCollection, error)
}

type Handler struct {
	orchestrator Orchestrator
	cadastre     SectionsGeometry
	logger       *logrus.Logger
}

func NewHandler(orchestrator Orchestrator, cadastre SectionsGeometry, logger *logrus.Logger) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		cadastre:     cadastre,
		logger:       logger,
	}
}

// GetStats handles GET /api/stats/:arrondissement.
func (h *Handler) GetStats(c *gin.Context) {
	arrondissement, err := strconv.Atoi(c.Param("arrondissement"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "arrondissement must be a number"})
		return
	}

	// The orchestrator never returns an error; the Success flag carries
	// the outcome.
	c.JSON(http.StatusOK, h.orchestrator.GetStats(c.Request.Context(), arrondissement))
}

// CompareStats handles GET /api/compare?a=1&b=2.
func (h *Handler) CompareStats(c *gin.Context) {
	codeA, errA := strconv.Atoi(c.Query("a"))
	codeB, errB := strconv.Atoi(c.Query("b"))
	if errA != nil || errB != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameters a and b must be arrondissement numbers"})
		return
	}

	c.JSON(http.StatusOK, h.orchestrator.CompareStats(c.Request.Context(), codeA, codeB))
}

// SearchByAddress handles GET /api/search?q=<address>.
func (h *Handler) SearchByAddress(c *gin.Context) {
	address := c.Query("q")
	if address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}

	c.JSON(http.StatusOK, h.orchestrator.SearchByAddress(c.Request.Context(), address))
}

// GetSections handles GET /api/sections/:arrondissement.
func (h *Handler) GetSections(c *gin.Context) {
	arrondissement, err := strconv.Atoi(c.Param("arrondissement"))
	if err != nil || arrondissement < 1 || arrondissement > 20 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "arrondissement must be a number between 1 and 20"})
		return
	}

	fc, err := h.cadastre.Sections(c.Request.Context(), arrondissement)
	if err != nil {
		h.logger.WithError(err).WithField("arrondissement", arrondissement).Error("Failed to fetch sections")
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch cadastral sections"})
		return
	}

	c.JSON(http.StatusOK, fc)
}

// HealthCheck handles GET /api/health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
