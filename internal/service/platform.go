package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prdlab/gateway-admin/internal/domain"
)

// CreatePlatform registers a new provider platform.
func (s *Service) CreatePlatform(ctx context.Context, platform *domain.Platform) (*domain.Platform, error) {
	if platform.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if platform.BaseURL == "" && platform.ProviderType != domain.ProviderTypeMock {
		return nil, fmt.Errorf("base_url is required")
	}
	if platform.ProviderType == "" {
		platform.ProviderType = domain.ProviderTypeOpenAI
	}

	platform.PlatformID = "plat_" + uuid.New().String()[:8]
	platform.CreatedAt = time.Now()
	if err := s.store.CreatePlatform(ctx, platform); err != nil {
		return nil, fmt.Errorf("failed to create platform: %w", err)
	}
	return platform, nil
}

// GetPlatform retrieves a platform by ID.
func (s *Service) GetPlatform(ctx context.Context, platformID string) (*domain.Platform, error) {
	platform, err := s.store.GetPlatform(ctx, platformID)
	if err != nil {
		return nil, fmt.Errorf("failed to get platform: %w", err)
	}
	return platform, nil
}

// ListPlatforms lists all platforms.
func (s *Service) ListPlatforms(ctx context.Context) ([]domain.Platform, error) {
	return s.store.ListPlatforms(ctx)
}

// UpdatePlatform updates a platform.
func (s *Service) UpdatePlatform(ctx context.Context, platform *domain.Platform) error {
	if platform.PlatformID == "" {
		return fmt.Errorf("platform_id is required")
	}
	return s.store.UpdatePlatform(ctx, platform)
}

// DeletePlatform deletes a platform.
func (s *Service) DeletePlatform(ctx context.Context, platformID string) error {
	return s.store.DeletePlatform(ctx, platformID)
}
