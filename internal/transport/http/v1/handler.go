// Package v1 provides the admin HTTP API handlers.
package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prdlab/gateway-admin/internal/service"
)

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
}

// NewHandler creates a new handler.
func NewHandler(service *service.Service) *Handler {
	return &Handler{
		service: service,
	}
}

// RegisterRoutes registers the admin API routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// Platform registry
	e.POST("/v1/platforms", h.CreatePlatform)
	e.GET("/v1/platforms", h.ListPlatforms)
	e.GET("/v1/platforms/:platform_id", h.GetPlatform)
	e.PUT("/v1/platforms/:platform_id", h.UpdatePlatform)
	e.DELETE("/v1/platforms/:platform_id", h.DeletePlatform)

	// Model registry
	e.POST("/v1/models", h.CreateModel)
	e.GET("/v1/models", h.ListModels)
	e.GET("/v1/models/:model_id", h.GetModel)
	e.PUT("/v1/models/:model_id", h.UpdateModel)
	e.DELETE("/v1/models/:model_id", h.DeleteModel)

	// Experiments
	e.POST("/v1/experiments", h.CreateExperiment)
	e.GET("/v1/experiments", h.ListExperiments)
	e.GET("/v1/experiments/:experiment_id", h.GetExperiment)
	e.PUT("/v1/experiments/:experiment_id", h.UpdateExperiment)
	e.DELETE("/v1/experiments/:experiment_id", h.DeleteExperiment)

	// Lab runs
	e.POST("/v1/lab/runs/stream", h.StreamLabRun)
	e.GET("/v1/lab/runs", h.ListLabRuns)
	e.GET("/v1/lab/runs/:run_id", h.GetLabRun)

	// Image batches
	e.POST("/v1/images/batch/stream", h.StreamImageBatch)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}
