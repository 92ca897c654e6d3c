package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prdlab/gateway-admin/internal/domain"
)

type fakeBroadcaster struct {
	runIDs []string
	frames [][]byte
}

func (f *fakeBroadcaster) BroadcastToRun(runID string, data []byte) {
	f.runIDs = append(f.runIDs, runID)
	f.frames = append(f.frames, data)
}

func TestMirrorSink(t *testing.T) {
	inner := &recordingSink{}
	hub := &fakeBroadcaster{}
	sink := &mirrorSink{inner: inner, hub: hub, runID: "run_abc"}

	err := sink.Send(domain.EventChannelRun, domain.RunStartPayload{
		Type:  domain.EventRunStart,
		RunID: "run_abc",
	})
	require.NoError(t, err)

	require.Len(t, inner.all(), 1)
	require.Len(t, hub.frames, 1)
	assert.Equal(t, []string{"run_abc"}, hub.runIDs)

	var decoded struct {
		Event string `json:"event"`
		Data  struct {
			Type  string `json:"type"`
			RunID string `json:"runId"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(hub.frames[0], &decoded))
	assert.Equal(t, "run", decoded.Event)
	assert.Equal(t, "runStart", decoded.Data.Type)
	assert.Equal(t, "run_abc", decoded.Data.RunID)
}

func TestWrapSinkWithoutHub(t *testing.T) {
	svc, _ := newTestService(t)
	inner := &recordingSink{}
	assert.Equal(t, inner, svc.wrapSink(inner, "run_abc"))
}
