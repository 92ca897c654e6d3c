package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prdlab/gateway-admin/internal/domain"
)

// CreateExperiment stores a reusable lab-run configuration.
func (s *Service) CreateExperiment(ctx context.Context, exp *domain.Experiment) (*domain.Experiment, error) {
	if exp.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if exp.Prompt == "" {
		return nil, fmt.Errorf("prompt is required")
	}
	if len(exp.ModelIDs) == 0 {
		return nil, fmt.Errorf("model_ids is required")
	}
	if exp.RepeatN <= 0 {
		exp.RepeatN = 1
	}

	now := time.Now()
	exp.ExperimentID = "exp_" + uuid.New().String()[:8]
	exp.CreatedAt = now
	exp.UpdatedAt = now
	if err := s.store.CreateExperiment(ctx, exp); err != nil {
		return nil, fmt.Errorf("failed to create experiment: %w", err)
	}
	return exp, nil
}

// GetExperiment retrieves an experiment by ID.
func (s *Service) GetExperiment(ctx context.Context, experimentID string) (*domain.Experiment, error) {
	exp, err := s.store.GetExperiment(ctx, experimentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get experiment: %w", err)
	}
	return exp, nil
}

// ListExperiments lists all experiments.
func (s *Service) ListExperiments(ctx context.Context) ([]domain.Experiment, error) {
	return s.store.ListExperiments(ctx)
}

// UpdateExperiment updates an experiment.
func (s *Service) UpdateExperiment(ctx context.Context, exp *domain.Experiment) error {
	if exp.ExperimentID == "" {
		return fmt.Errorf("experiment_id is required")
	}
	exp.UpdatedAt = time.Now()
	return s.store.UpdateExperiment(ctx, exp)
}

// DeleteExperiment deletes an experiment.
func (s *Service) DeleteExperiment(ctx context.Context, experimentID string) error {
	return s.store.DeleteExperiment(ctx, experimentID)
}
