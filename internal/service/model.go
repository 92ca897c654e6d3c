package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prdlab/gateway-admin/internal/domain"
)

// CreateModel registers a model under an existing platform.
func (s *Service) CreateModel(ctx context.Context, model *domain.Model) (*domain.Model, error) {
	if model.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if model.PlatformID == "" {
		return nil, fmt.Errorf("platform_id is required")
	}
	platform, err := s.store.GetPlatform(ctx, model.PlatformID)
	if err != nil {
		return nil, fmt.Errorf("failed to get platform: %w", err)
	}
	if platform == nil {
		return nil, fmt.Errorf("platform %s not found", model.PlatformID)
	}

	if model.DisplayName == "" {
		model.DisplayName = model.Name
	}
	model.ModelID = "model_" + uuid.New().String()[:8]
	model.CreatedAt = time.Now()
	if err := s.store.CreateModel(ctx, model); err != nil {
		return nil, fmt.Errorf("failed to create model: %w", err)
	}
	return model, nil
}

// GetModel retrieves a model by ID.
func (s *Service) GetModel(ctx context.Context, modelID string) (*domain.Model, error) {
	model, err := s.store.GetModel(ctx, modelID)
	if err != nil {
		return nil, fmt.Errorf("failed to get model: %w", err)
	}
	return model, nil
}

// ListModels lists models, optionally filtered by platform.
func (s *Service) ListModels(ctx context.Context, platformID string) ([]domain.Model, error) {
	return s.store.ListModels(ctx, platformID)
}

// UpdateModel updates a model.
func (s *Service) UpdateModel(ctx context.Context, model *domain.Model) error {
	if model.ModelID == "" {
		return fmt.Errorf("model_id is required")
	}
	return s.store.UpdateModel(ctx, model)
}

// DeleteModel deletes a model.
func (s *Service) DeleteModel(ctx context.Context, modelID string) error {
	return s.store.DeleteModel(ctx, modelID)
}
