package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prdlab/gateway-admin/internal/domain"
)

func collect(ch <-chan domain.StreamChunk) []domain.StreamChunk {
	var chunks []domain.StreamChunk
	for c := range ch {
		chunks = append(chunks, c)
	}
	return chunks
}

func TestClientStreamGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected auth header: %q", got)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, content := range []string{"Hel", "lo", "!"} {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", content)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	c := NewClient(server.URL, "sk-test", "gpt-4o", nil, nil, 5*time.Second)
	chunks := collect(c.StreamGenerate(context.Background(), &GenerateRequest{
		Messages: []Message{{Role: "user", Content: "say hello"}},
	}))

	if len(chunks) != 4 {
		t.Fatalf("expected 4 chunks, got %d: %+v", len(chunks), chunks)
	}
	var text strings.Builder
	for _, ch := range chunks[:3] {
		if ch.Type != domain.ChunkDelta {
			t.Fatalf("expected delta, got %+v", ch)
		}
		text.WriteString(ch.Content)
	}
	if text.String() != "Hello!" {
		t.Fatalf("unexpected content: %q", text.String())
	}
	if chunks[3].Type != domain.ChunkDone {
		t.Fatalf("expected terminal done, got %+v", chunks[3])
	}
}

func TestClientStreamGenerateSurfacesAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key","type":"auth_error"}}`)
	}))
	defer server.Close()

	c := NewClient(server.URL, "sk-bad", "gpt-4o", nil, nil, 5*time.Second)
	chunks := collect(c.StreamGenerate(context.Background(), &GenerateRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
	}))

	if len(chunks) != 1 || chunks[0].Type != domain.ChunkError {
		t.Fatalf("expected a single error chunk, got %+v", chunks)
	}
	if !strings.Contains(chunks[0].ErrMessage, "bad key") {
		t.Fatalf("error message lost: %q", chunks[0].ErrMessage)
	}
}

func TestClientStreamGenerateStopsOnCancellation(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\n\n")
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-release
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	c := NewClient(server.URL, "", "gpt-4o", nil, nil, 5*time.Second)
	ch := c.StreamGenerate(ctx, &GenerateRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})

	first := <-ch
	if first.Type != domain.ChunkDelta {
		t.Fatalf("expected delta, got %+v", first)
	}
	cancel()

	// The channel must close promptly without a terminal chunk being forced.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("stream did not close after cancellation")
		}
	}
}

func TestMockClientScriptedFailure(t *testing.T) {
	m := &MockClient{Response: "0123456789abcdef", ChunkSize: 4, FailWith: "boom", FailAfterChunks: 2}
	chunks := collect(m.StreamGenerate(context.Background(), &GenerateRequest{}))

	if len(chunks) != 3 {
		t.Fatalf("expected 2 deltas + 1 error, got %+v", chunks)
	}
	last := chunks[len(chunks)-1]
	if last.Type != domain.ChunkError || last.ErrMessage != "boom" {
		t.Fatalf("unexpected terminal chunk: %+v", last)
	}
}

func TestMockClientDrainsToDone(t *testing.T) {
	m := &MockClient{Response: "hello world"}
	chunks := collect(m.StreamGenerate(context.Background(), &GenerateRequest{}))

	if chunks[len(chunks)-1].Type != domain.ChunkDone {
		t.Fatalf("expected done terminal, got %+v", chunks)
	}
	var text strings.Builder
	for _, ch := range chunks[:len(chunks)-1] {
		text.WriteString(ch.Content)
	}
	if text.String() != "hello world" {
		t.Fatalf("unexpected content: %q", text.String())
	}
}
