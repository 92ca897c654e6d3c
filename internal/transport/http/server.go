// Package http assembles the admin HTTP server.
package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/prdlab/gateway-admin/internal/hub"
	"github.com/prdlab/gateway-admin/internal/service"
	v1 "github.com/prdlab/gateway-admin/internal/transport/http/v1"
	"github.com/prdlab/gateway-admin/internal/transport/ws"
)

// NewServer creates and configures the admin HTTP server. It serves the
// registry CRUD API, the streaming run endpoints, and the run-watch
// WebSocket endpoint.
func NewServer(svc *service.Service, h *hub.Hub) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Handlers
	v1Handler := v1.NewHandler(svc)
	v1Handler.RegisterRoutes(e)

	if h != nil {
		wsHandler := ws.NewHandler(svc, h)
		wsHandler.RegisterRoutes(e)
	}

	return e
}
