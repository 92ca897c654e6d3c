// Package domain defines the core domain models for the gateway admin backend.
package domain

// RunStatus represents the status of a lab or image run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusCompleted RunStatus = "COMPLETED"
	RunStatusCancelled RunStatus = "CANCELLED"
	RunStatusFailed    RunStatus = "FAILED"
)

// ItemState represents the lifecycle state of a single run item.
type ItemState string

const (
	ItemStateCreated   ItemState = "CREATED"
	ItemStateStarted   ItemState = "STARTED"
	ItemStateStreaming ItemState = "STREAMING"
	ItemStateDone      ItemState = "DONE"
	ItemStateError     ItemState = "ERROR"
)

// RunKind distinguishes model-comparison lab runs from batched image runs.
type RunKind string

const (
	RunKindLab   RunKind = "lab"
	RunKindImage RunKind = "image"
)

// ProviderType identifies how a platform's endpoint speaks.
type ProviderType string

const (
	ProviderTypeOpenAI ProviderType = "openai"
	ProviderTypeMock   ProviderType = "mock"
)

// Error codes reported on modelError/imageError events. The first three are
// pre-adapter validation failures; the rest surface adapter failures.
const (
	ErrCodeModelNotFound    = "MODEL_NOT_FOUND"
	ErrCodePlatformNotFound = "PLATFORM_NOT_FOUND"
	ErrCodeInvalidConfig    = "INVALID_CONFIG"
	ErrCodeLLMError         = "LLM_ERROR"
	ErrCodeImageError       = "IMAGE_ERROR"
)

// IsTerminalRunStatus reports whether a run status is terminal.
func IsTerminalRunStatus(status RunStatus) bool {
	switch status {
	case RunStatusCompleted, RunStatusCancelled, RunStatusFailed:
		return true
	}
	return false
}
