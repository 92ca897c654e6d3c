package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prdlab/gateway-admin/internal/domain"
	store "github.com/prdlab/gateway-admin/internal/repository"
)

// CreateExperiment stores a reusable lab-run configuration.
// POST /v1/experiments
func (h *Handler) CreateExperiment(c echo.Context) error {
	ctx := c.Request().Context()

	var exp domain.Experiment
	if err := c.Bind(&exp); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	created, err := h.service.CreateExperiment(ctx, &exp)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, created)
}

// ListExperiments lists all experiments.
// GET /v1/experiments
func (h *Handler) ListExperiments(c echo.Context) error {
	ctx := c.Request().Context()

	experiments, err := h.service.ListExperiments(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"experiments": experiments,
	})
}

// GetExperiment gets a specific experiment by ID.
// GET /v1/experiments/:experiment_id
func (h *Handler) GetExperiment(c echo.Context) error {
	ctx := c.Request().Context()
	experimentID := c.Param("experiment_id")

	exp, err := h.service.GetExperiment(ctx, experimentID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if exp == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "experiment not found"})
	}
	return c.JSON(http.StatusOK, exp)
}

// UpdateExperiment updates an experiment.
// PUT /v1/experiments/:experiment_id
func (h *Handler) UpdateExperiment(c echo.Context) error {
	ctx := c.Request().Context()

	var exp domain.Experiment
	if err := c.Bind(&exp); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	exp.ExperimentID = c.Param("experiment_id")

	if err := h.service.UpdateExperiment(ctx, &exp); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "experiment not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

// DeleteExperiment deletes an experiment.
// DELETE /v1/experiments/:experiment_id
func (h *Handler) DeleteExperiment(c echo.Context) error {
	ctx := c.Request().Context()
	experimentID := c.Param("experiment_id")

	if err := h.service.DeleteExperiment(ctx, experimentID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "experiment not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}
