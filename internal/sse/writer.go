// Package sse writes server-sent-event frames onto a single outbound stream.
package sse

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
)

// Sink receives the orchestrator's outbound events. Implementations must be
// safe for concurrent use; every concurrently-producing work item shares one
// sink.
type Sink interface {
	Send(event string, payload interface{}) error
}

// Writer is the single writer of an SSE byte stream. A mutex serializes
// marshal+write+flush so that frames from concurrently-producing work items
// never interleave on the wire. It does not reorder events.
type Writer struct {
	mu      sync.Mutex
	w       io.Writer
	flusher http.Flusher
}

// NewWriter wraps an io.Writer as an SSE frame writer. If the writer also
// implements http.Flusher, every frame is flushed after it is written.
func NewWriter(w io.Writer) *Writer {
	sw := &Writer{w: w}
	if f, ok := w.(http.Flusher); ok {
		sw.flusher = f
	}
	return sw
}

// PrepareResponse sets the SSE response headers and flushes them.
func PrepareResponse(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// Send writes one `event: <name>` / `data: <json>` frame.
func (s *Writer) Send(event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}
