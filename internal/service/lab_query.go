package service

import (
	"context"
	"fmt"

	"github.com/prdlab/gateway-admin/internal/domain"
)

// GetLabRun retrieves one historical run.
func (s *Service) GetLabRun(ctx context.Context, runID string) (*domain.LabRun, error) {
	run, err := s.store.GetLabRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListLabRuns lists historical runs, newest first. kind filters by run kind
// when non-empty.
func (s *Service) ListLabRuns(ctx context.Context, kind domain.RunKind, limit int) ([]domain.LabRun, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.store.ListLabRuns(ctx, kind, limit)
}

// GetLabRunItems retrieves the item records of one run.
func (s *Service) GetLabRunItems(ctx context.Context, runID string) ([]domain.LabRunItem, error) {
	return s.store.GetLabRunItems(ctx, runID)
}
