package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prdlab/gateway-admin/internal/domain"
)

// Client streams chat completions from an OpenAI-compatible endpoint.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	maxTokens   *int
	temperature *float64
	httpClient  *http.Client
}

// NewClient creates an adapter bound to one model on one platform.
func NewClient(baseURL, apiKey, model string, maxTokens *int, temperature *float64, timeout time.Duration) *Client {
	return &Client{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		apiKey:      apiKey,
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

var _ Streamer = (*Client)(nil)

// chatCompletionRequest is the OpenAI-compatible wire request.
type chatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Stream      bool      `json:"stream"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
}

// streamChunk is a single SSE chunk from the wire.
type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason,omitempty"`
	} `json:"choices"`
}

// errorResponse is an API error body.
type errorResponse struct {
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// StreamGenerate implements Streamer. All failures after the channel is
// handed out are reported as an Error chunk; the channel is always closed.
func (c *Client) StreamGenerate(ctx context.Context, req *GenerateRequest) <-chan domain.StreamChunk {
	out := make(chan domain.StreamChunk)
	go func() {
		defer close(out)
		c.stream(ctx, req, out)
	}()
	return out
}

func (c *Client) stream(ctx context.Context, req *GenerateRequest, out chan<- domain.StreamChunk) {
	messages := make([]Message, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, Message{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, req.Messages...)

	body, err := json.Marshal(chatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Stream:      true,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		emit(ctx, out, domain.ErrorChunk(fmt.Sprintf("failed to marshal request: %v", err)))
		return
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		emit(ctx, out, domain.ErrorChunk(fmt.Sprintf("failed to create request: %v", err)))
		return
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if req.PromptCache {
		httpReq.Header.Set("x-prompt-cache", "enabled")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		emit(ctx, out, domain.ErrorChunk(fmt.Sprintf("request failed: %v", err)))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		var errResp errorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != nil {
			emit(ctx, out, domain.ErrorChunk(fmt.Sprintf("LLM API error [%d]: %s", resp.StatusCode, errResp.Error.Message)))
			return
		}
		emit(ctx, out, domain.ErrorChunk(fmt.Sprintf("LLM API error [%d]: %s", resp.StatusCode, string(respBody))))
		return
	}

	reader := bufio.NewReader(resp.Body)
	for {
		if ctx.Err() != nil {
			return
		}

		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				break
			}
			if ctx.Err() != nil {
				return
			}
			emit(ctx, out, domain.ErrorChunk(fmt.Sprintf("failed to read stream: %v", err)))
			return
		}

		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, "data: ") {
			continue
		}

		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			break
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			// Skip malformed chunks
			continue
		}
		for _, choice := range chunk.Choices {
			if choice.Delta.Content != "" {
				if !emit(ctx, out, domain.DeltaChunk(choice.Delta.Content)) {
					return
				}
			}
		}
	}

	// Graceful stream exhaustion without an explicit [DONE] marker still
	// counts as a completed stream.
	emit(ctx, out, domain.DoneChunk())
}

// emit sends a chunk unless the context has been cancelled. It reports
// whether production should continue.
func emit(ctx context.Context, out chan<- domain.StreamChunk, chunk domain.StreamChunk) bool {
	select {
	case out <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}
