package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prdlab/gateway-admin/internal/domain"
	store "github.com/prdlab/gateway-admin/internal/repository"
)

// CreatePlatform registers a provider platform.
// POST /v1/platforms
func (h *Handler) CreatePlatform(c echo.Context) error {
	ctx := c.Request().Context()

	var platform domain.Platform
	if err := c.Bind(&platform); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	platform.Enabled = true

	created, err := h.service.CreatePlatform(ctx, &platform)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, created)
}

// ListPlatforms lists all platforms.
// GET /v1/platforms
func (h *Handler) ListPlatforms(c echo.Context) error {
	ctx := c.Request().Context()

	platforms, err := h.service.ListPlatforms(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"platforms": platforms,
	})
}

// GetPlatform gets a specific platform by ID.
// GET /v1/platforms/:platform_id
func (h *Handler) GetPlatform(c echo.Context) error {
	ctx := c.Request().Context()
	platformID := c.Param("platform_id")

	platform, err := h.service.GetPlatform(ctx, platformID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if platform == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "platform not found"})
	}
	return c.JSON(http.StatusOK, platform)
}

// UpdatePlatform updates a platform.
// PUT /v1/platforms/:platform_id
func (h *Handler) UpdatePlatform(c echo.Context) error {
	ctx := c.Request().Context()

	var platform domain.Platform
	if err := c.Bind(&platform); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	platform.PlatformID = c.Param("platform_id")

	if err := h.service.UpdatePlatform(ctx, &platform); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "platform not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

// DeletePlatform deletes a platform.
// DELETE /v1/platforms/:platform_id
func (h *Handler) DeletePlatform(c echo.Context) error {
	ctx := c.Request().Context()
	platformID := c.Param("platform_id")

	if err := h.service.DeletePlatform(ctx, platformID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "platform not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}
