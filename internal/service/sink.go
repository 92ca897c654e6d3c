package service

import (
	"encoding/json"
	"log"

	"github.com/prdlab/gateway-admin/internal/sse"
)

// wrapSink mirrors every frame of a run onto the watcher hub in addition to
// the primary sink. Without a hub the sink passes through untouched.
func (s *Service) wrapSink(sink sse.Sink, runID string) sse.Sink {
	if s.hub == nil {
		return sink
	}
	return &mirrorSink{inner: sink, hub: s.hub, runID: runID}
}

type mirrorSink struct {
	inner sse.Sink
	hub   broadcaster
	runID string
}

// broadcaster is the slice of the hub the mirror needs.
type broadcaster interface {
	BroadcastToRun(runID string, data []byte)
}

type watchFrame struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Send forwards to the primary sink first, then fans the frame out to any
// watchers. A watcher-side marshal failure never disturbs the primary stream.
func (m *mirrorSink) Send(event string, payload interface{}) error {
	err := m.inner.Send(event, payload)

	data, merr := json.Marshal(watchFrame{Event: event, Data: payload})
	if merr != nil {
		log.Printf("WARN: failed to marshal watch frame: %v", merr)
		return err
	}
	m.hub.BroadcastToRun(m.runID, data)
	return err
}
