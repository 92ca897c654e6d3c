// Package service implements the application services of the gateway admin
// backend, including the lab run orchestrator.
package service

import (
	"time"

	"github.com/prdlab/gateway-admin/internal/adapter/image"
	"github.com/prdlab/gateway-admin/internal/adapter/llm"
	"github.com/prdlab/gateway-admin/internal/config"
	"github.com/prdlab/gateway-admin/internal/domain"
	"github.com/prdlab/gateway-admin/internal/hub"
	"github.com/prdlab/gateway-admin/internal/policy"
	store "github.com/prdlab/gateway-admin/internal/repository"
)

// StreamerFactory builds the streaming adapter for a resolved model. Tests
// swap it for scripted mocks.
type StreamerFactory func(platform *domain.Platform, model *domain.Model, timeout time.Duration) (llm.Streamer, error)

// GeneratorFactory builds the image adapter for a resolved model.
type GeneratorFactory func(platform *domain.Platform, model *domain.Model, timeout time.Duration) (image.Generator, error)

// Service wires the store, policy engine, watcher hub and backend adapter
// factories together.
type Service struct {
	store        store.Store
	config       *config.Config
	policyEngine *policy.Engine
	hub          *hub.Hub

	newStreamer  StreamerFactory
	newGenerator GeneratorFactory
}

// New creates a service. hub may be nil when no watcher fan-out is wanted.
func New(st store.Store, cfg *config.Config, policyEngine *policy.Engine, h *hub.Hub) *Service {
	return &Service{
		store:        st,
		config:       cfg,
		policyEngine: policyEngine,
		hub:          h,
		newStreamer:  llm.NewStreamer,
		newGenerator: image.NewGenerator,
	}
}
