// Package image provides backend adapters for batched image generation.
package image

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/prdlab/gateway-admin/internal/config"
	"github.com/prdlab/gateway-admin/internal/domain"
)

// GenerateRequest asks the backend for one image.
type GenerateRequest struct {
	Prompt string
	Size   string
}

// Result is one generated image.
type Result struct {
	URL string
}

// Generator produces one image per call. Calls are independent; errors are
// returned, not panicked, and ctx cancels the upstream request.
type Generator interface {
	Generate(ctx context.Context, req *GenerateRequest) (*Result, error)
}

// Client talks to an OpenAI-compatible images endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient creates a generator bound to one model on one platform.
func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

var _ Generator = (*Client)(nil)

type generationRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size,omitempty"`
}

type generationResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate implements Generator.
func (c *Client) Generate(ctx context.Context, req *GenerateRequest) (*Result, error) {
	body, err := json.Marshal(generationRequest{
		Model:  c.model,
		Prompt: req.Prompt,
		N:      1,
		Size:   req.Size,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/images/generations", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var result generationResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response [%d]: %s", resp.StatusCode, string(respBody))
	}
	if resp.StatusCode != http.StatusOK {
		if result.Error != nil {
			return nil, fmt.Errorf("image API error [%d]: %s", resp.StatusCode, result.Error.Message)
		}
		return nil, fmt.Errorf("image API error [%d]: %s", resp.StatusCode, string(respBody))
	}
	if len(result.Data) == 0 {
		return nil, fmt.Errorf("image API returned no images")
	}

	return &Result{URL: result.Data[0].URL}, nil
}

// MockGenerator returns deterministic URLs for tests and GATEWAY_MODE=MOCK.
// Safe for concurrent use.
type MockGenerator struct {
	// Err, when set, fails every call.
	Err error
	// Delay simulates backend latency per call.
	Delay time.Duration

	calls atomic.Int64
}

var _ Generator = (*MockGenerator)(nil)

// Generate implements Generator.
func (m *MockGenerator) Generate(ctx context.Context, req *GenerateRequest) (*Result, error) {
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.Err != nil {
		return nil, m.Err
	}
	n := m.calls.Add(1)
	return &Result{URL: fmt.Sprintf("mock://images/%d.png", n)}, nil
}

// NewGenerator builds the image adapter for one resolved (platform, model)
// pair. GATEWAY_MODE=MOCK forces mock generators regardless of provider type.
func NewGenerator(platform *domain.Platform, model *domain.Model, timeout time.Duration) (Generator, error) {
	if config.MockMode() {
		return &MockGenerator{}, nil
	}

	switch platform.ProviderType {
	case domain.ProviderTypeOpenAI:
		return NewClient(platform.BaseURL, platform.APIKey, model.Name, timeout), nil
	case domain.ProviderTypeMock:
		return &MockGenerator{}, nil
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", platform.ProviderType)
	}
}
