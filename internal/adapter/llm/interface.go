// Package llm provides streaming backend adapters for chat models.
package llm

import (
	"context"

	"github.com/prdlab/gateway-admin/internal/domain"
)

// Message is a single conversation turn sent to the backend.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerateRequest carries the prompt for one streaming call. The model and
// credentials are bound into the adapter at construction, one adapter
// instance per (model, credentials) pair.
type GenerateRequest struct {
	SystemPrompt string
	Messages     []Message
	PromptCache  bool
}

// Streamer is the canonical streaming backend adapter contract.
//
// StreamGenerate returns a lazy, finite sequence of canonical chunks. Every
// call is independently restartable; there is no shared cursor across calls.
// Transport and protocol failures are surfaced as an Error chunk rather than
// a panic or a bare channel close wherever possible. Adapters observe ctx
// between chunks and stop producing promptly on cancellation.
//
// The returned channel is always closed, and any finalization side effect
// completes before the terminal chunk is sent, so consumers may simply drain
// to channel close.
type Streamer interface {
	StreamGenerate(ctx context.Context, req *GenerateRequest) <-chan domain.StreamChunk
}
