// Package ws serves the run-watch WebSocket endpoint.
package ws

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/prdlab/gateway-admin/internal/hub"
	"github.com/prdlab/gateway-admin/internal/service"
)

// Handler upgrades watch requests and attaches them to the hub.
type Handler struct {
	service  *service.Service
	hub      *hub.Hub
	upgrader websocket.Upgrader
}

// NewHandler creates a watch handler.
func NewHandler(svc *service.Service, h *hub.Hub) *Handler {
	return &Handler{
		service: svc,
		hub:     h,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Admin UI runs off-origin in development
				return true
			},
		},
	}
}

// RegisterRoutes registers the watch route with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/v1/lab/runs/:run_id/watch", h.WatchRun)
}

// WatchRun attaches a WebSocket watcher to a run's event stream. Watchers
// receive every frame the run's primary SSE consumer receives, as JSON
// messages, from the moment they attach.
// GET /v1/lab/runs/:run_id/watch
func (h *Handler) WatchRun(c echo.Context) error {
	ctx := c.Request().Context()
	runID := c.Param("run_id")

	run, err := h.service.GetLabRun(ctx, runID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if run == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "run not found"})
	}

	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("ERROR: failed to upgrade watch connection: %v", err)
		return err
	}

	conn := h.hub.NewConnection(ws, runID)
	go conn.WritePump()
	go h.readPump(conn)

	return nil
}

// readPump drains and discards client frames so close and ping control
// messages are processed, unregistering the watcher when the peer goes away.
func (h *Handler) readPump(conn *hub.Connection) {
	defer h.hub.Unregister(conn)
	for {
		if _, _, err := conn.Conn.ReadMessage(); err != nil {
			return
		}
	}
}
