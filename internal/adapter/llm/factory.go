package llm

import (
	"fmt"
	"time"

	"github.com/prdlab/gateway-admin/internal/config"
	"github.com/prdlab/gateway-admin/internal/domain"
)

// NewStreamer builds the streaming adapter for one resolved (platform, model)
// pair. GATEWAY_MODE=MOCK forces mock adapters regardless of provider type.
func NewStreamer(platform *domain.Platform, model *domain.Model, timeout time.Duration) (Streamer, error) {
	if config.MockMode() {
		return NewMockClient(), nil
	}

	switch platform.ProviderType {
	case domain.ProviderTypeOpenAI:
		return NewClient(platform.BaseURL, platform.APIKey, model.Name, model.MaxTokens, model.Temperature, timeout), nil
	case domain.ProviderTypeMock:
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", platform.ProviderType)
	}
}
