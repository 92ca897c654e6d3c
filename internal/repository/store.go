// Package store defines the storage interface and implementations.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/prdlab/gateway-admin/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the interface for data persistence.
type Store interface {
	// Platform operations
	CreatePlatform(ctx context.Context, platform *domain.Platform) error
	GetPlatform(ctx context.Context, platformID string) (*domain.Platform, error)
	ListPlatforms(ctx context.Context) ([]domain.Platform, error)
	UpdatePlatform(ctx context.Context, platform *domain.Platform) error
	DeletePlatform(ctx context.Context, platformID string) error

	// Model operations
	CreateModel(ctx context.Context, model *domain.Model) error
	GetModel(ctx context.Context, modelID string) (*domain.Model, error)
	ListModels(ctx context.Context, platformID string) ([]domain.Model, error)
	UpdateModel(ctx context.Context, model *domain.Model) error
	DeleteModel(ctx context.Context, modelID string) error

	// Experiment operations
	CreateExperiment(ctx context.Context, exp *domain.Experiment) error
	GetExperiment(ctx context.Context, experimentID string) (*domain.Experiment, error)
	ListExperiments(ctx context.Context) ([]domain.Experiment, error)
	UpdateExperiment(ctx context.Context, exp *domain.Experiment) error
	DeleteExperiment(ctx context.Context, experimentID string) error

	// Run operations
	CreateLabRun(ctx context.Context, run *domain.LabRun) error
	GetLabRun(ctx context.Context, runID string) (*domain.LabRun, error)
	ListLabRuns(ctx context.Context, kind domain.RunKind, limit int) ([]domain.LabRun, error)
	UpdateLabRunCompleted(ctx context.Context, runID string, status domain.RunStatus, endedAt time.Time) error

	// Run item operations
	CreateLabRunItem(ctx context.Context, item *domain.LabRunItem) error
	UpdateLabRunItem(ctx context.Context, item *domain.LabRunItem) error
	GetLabRunItems(ctx context.Context, runID string) ([]domain.LabRunItem, error)

	// Lifecycle
	Close() error
}

// RunStore is the persistence collaborator the lab orchestrator writes
// through. Failures are best-effort bookkeeping on the streaming path: the
// orchestrator logs and continues.
type RunStore interface {
	CreateLabRun(ctx context.Context, run *domain.LabRun) error
	UpdateLabRunCompleted(ctx context.Context, runID string, status domain.RunStatus, endedAt time.Time) error
	CreateLabRunItem(ctx context.Context, item *domain.LabRunItem) error
	UpdateLabRunItem(ctx context.Context, item *domain.LabRunItem) error
}
