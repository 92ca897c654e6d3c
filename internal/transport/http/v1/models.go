package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prdlab/gateway-admin/internal/domain"
	store "github.com/prdlab/gateway-admin/internal/repository"
)

// CreateModel registers a model under an existing platform.
// POST /v1/models
func (h *Handler) CreateModel(c echo.Context) error {
	ctx := c.Request().Context()

	var model domain.Model
	if err := c.Bind(&model); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	model.Enabled = true

	created, err := h.service.CreateModel(ctx, &model)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, created)
}

// ListModels lists models, optionally filtered by platform.
// GET /v1/models?platform_id=plat_xxx
func (h *Handler) ListModels(c echo.Context) error {
	ctx := c.Request().Context()

	models, err := h.service.ListModels(ctx, c.QueryParam("platform_id"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"models": models,
	})
}

// GetModel gets a specific model by ID.
// GET /v1/models/:model_id
func (h *Handler) GetModel(c echo.Context) error {
	ctx := c.Request().Context()
	modelID := c.Param("model_id")

	model, err := h.service.GetModel(ctx, modelID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if model == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "model not found"})
	}
	return c.JSON(http.StatusOK, model)
}

// UpdateModel updates a model.
// PUT /v1/models/:model_id
func (h *Handler) UpdateModel(c echo.Context) error {
	ctx := c.Request().Context()

	var model domain.Model
	if err := c.Bind(&model); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	model.ModelID = c.Param("model_id")

	if err := h.service.UpdateModel(ctx, &model); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "model not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

// DeleteModel deletes a model.
// DELETE /v1/models/:model_id
func (h *Handler) DeleteModel(c echo.Context) error {
	ctx := c.Request().Context()
	modelID := c.Param("model_id")

	if err := h.service.DeleteModel(ctx, modelID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "model not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}
