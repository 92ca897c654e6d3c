package domain

import "time"

// Platform is a configured upstream provider endpoint.
type Platform struct {
	PlatformID   string       `json:"platform_id"`
	Name         string       `json:"name"`
	ProviderType ProviderType `json:"provider_type"`
	BaseURL      string       `json:"base_url"`
	APIKey       string       `json:"api_key,omitempty"`
	Enabled      bool         `json:"enabled"`
	CreatedAt    time.Time    `json:"created_at"`
}

// Model is a selectable model bound to a platform.
type Model struct {
	ModelID     string    `json:"model_id"`
	PlatformID  string    `json:"platform_id"`
	Name        string    `json:"name"`
	DisplayName string    `json:"display_name"`
	Enabled     bool      `json:"enabled"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Experiment is a stored lab-run configuration that a run request may
// dereference instead of supplying models and prompts inline.
type Experiment struct {
	ExperimentID string    `json:"experiment_id"`
	Name         string    `json:"name"`
	ModelIDs     []string  `json:"model_ids"`
	SystemPrompt string    `json:"system_prompt,omitempty"`
	Prompt       string    `json:"prompt"`
	RepeatN      int       `json:"repeat_n"`
	PromptCache  bool      `json:"prompt_cache"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
