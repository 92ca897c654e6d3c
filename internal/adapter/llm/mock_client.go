package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/prdlab/gateway-admin/internal/domain"
)

// MockClient is a scriptable Streamer for tests and GATEWAY_MODE=MOCK.
type MockClient struct {
	// Response is streamed in fixed-size delta chunks. If empty, a canned
	// response derived from the last user message is used.
	Response string
	// FailWith, when set, terminates the stream with an error chunk after
	// FailAfterChunks deltas.
	FailWith        string
	FailAfterChunks int
	// ChunkDelay simulates backend latency between chunks.
	ChunkDelay time.Duration
	// ChunkSize controls delta granularity; defaults to 10 bytes.
	ChunkSize int
}

// NewMockClient creates a mock streamer with canned responses.
func NewMockClient() *MockClient {
	return &MockClient{}
}

var _ Streamer = (*MockClient)(nil)

// StreamGenerate implements Streamer by replaying the scripted response.
func (m *MockClient) StreamGenerate(ctx context.Context, req *GenerateRequest) <-chan domain.StreamChunk {
	out := make(chan domain.StreamChunk)
	go func() {
		defer close(out)

		response := m.Response
		if response == "" {
			response = m.cannedResponse(req)
		}

		chunkSize := m.ChunkSize
		if chunkSize <= 0 {
			chunkSize = 10
		}

		sent := 0
		for i := 0; i < len(response); i += chunkSize {
			if m.FailWith != "" && sent >= m.FailAfterChunks {
				emit(ctx, out, domain.ErrorChunk(m.FailWith))
				return
			}
			if m.ChunkDelay > 0 {
				select {
				case <-time.After(m.ChunkDelay):
				case <-ctx.Done():
					return
				}
			}
			end := i + chunkSize
			if end > len(response) {
				end = len(response)
			}
			if !emit(ctx, out, domain.DeltaChunk(response[i:end])) {
				return
			}
			sent++
		}

		if m.FailWith != "" {
			emit(ctx, out, domain.ErrorChunk(m.FailWith))
			return
		}
		emit(ctx, out, domain.DoneChunk())
	}()
	return out
}

func (m *MockClient) cannedResponse(req *GenerateRequest) string {
	var lastUserMessage string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			lastUserMessage = req.Messages[i].Content
			break
		}
	}
	if lastUserMessage == "" {
		return "[MOCK] This is a mock response."
	}
	return fmt.Sprintf("[MOCK] Received your message: %q. This is a mock response.", truncate(lastUserMessage, 100))
}

// truncate truncates a string to the given length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
