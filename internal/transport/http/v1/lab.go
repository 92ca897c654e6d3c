package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/prdlab/gateway-admin/internal/domain"
	"github.com/prdlab/gateway-admin/internal/sse"
)

// StreamLabRun starts a lab run and streams its events as SSE. The response
// always terminates with a run-channel frame, whatever happens to the items.
// POST /v1/lab/runs/stream
func (h *Handler) StreamLabRun(c echo.Context) error {
	var req domain.LabRunRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	w := c.Response()
	sse.PrepareResponse(w)

	h.service.ExecuteLabRun(c.Request().Context(), &req, sse.NewWriter(w))
	return nil
}

// StreamImageBatch starts an image batch and streams its events as SSE.
// POST /v1/images/batch/stream
func (h *Handler) StreamImageBatch(c echo.Context) error {
	var req domain.ImageBatchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	w := c.Response()
	sse.PrepareResponse(w)

	h.service.ExecuteImageBatch(c.Request().Context(), &req, sse.NewWriter(w))
	return nil
}

// ListLabRuns lists historical runs, newest first.
// GET /v1/lab/runs?kind=lab&limit=50
func (h *Handler) ListLabRuns(c echo.Context) error {
	ctx := c.Request().Context()

	kind := domain.RunKind(c.QueryParam("kind"))
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid limit"})
		}
		limit = parsed
	}

	runs, err := h.service.ListLabRuns(ctx, kind, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"runs": runs,
	})
}

// GetLabRun returns one historical run together with its item records.
// GET /v1/lab/runs/:run_id
func (h *Handler) GetLabRun(c echo.Context) error {
	ctx := c.Request().Context()
	runID := c.Param("run_id")

	run, err := h.service.GetLabRun(ctx, runID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if run == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "run not found"})
	}

	items, err := h.service.GetLabRunItems(ctx, runID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"run":   run,
		"items": items,
	})
}
