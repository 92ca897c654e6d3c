package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prdlab/gateway-admin/internal/domain"
	"github.com/prdlab/gateway-admin/internal/scheduler"
	"github.com/prdlab/gateway-admin/internal/sse"
)

// ExecuteLabRun drives one complete lab run, streaming every event onto sink.
// It returns after the terminal frame has been emitted; per-item failures are
// reported as modelError events and never abort the run.
func (s *Service) ExecuteLabRun(ctx context.Context, req *domain.LabRunRequest, sink sse.Sink) {
	resolved, err := s.resolveLabRun(ctx, req)
	if err != nil {
		// Resolution failures are fatal to the whole run: one terminal
		// error frame, no run record.
		var resErr *ResolutionError
		msg := err.Error()
		if errors.As(err, &resErr) {
			msg = resErr.Message
		} else {
			log.Printf("ERROR: lab run resolution failed: %v", err)
		}
		s.sendEvent(sink, domain.EventChannelRun, domain.RunErrorPayload{
			Type:    domain.EventRunError,
			Message: msg,
		})
		return
	}

	runID := "run_" + uuid.New().String()[:8]
	startedAt := time.Now()
	run := &domain.LabRun{
		RunID:     runID,
		Kind:      domain.RunKindLab,
		Suite:     resolved.suite,
		RepeatN:   resolved.repeatN,
		Status:    domain.RunStatusRunning,
		StartedAt: startedAt,
	}
	if err := s.store.CreateLabRun(ctx, run); err != nil {
		log.Printf("ERROR: failed to create run record: %v", err)
	}

	out := s.wrapSink(sink, runID)

	s.sendEvent(out, domain.EventChannelRun, domain.RunStartPayload{
		Type:       domain.EventRunStart,
		RunID:      runID,
		Suite:      resolved.suite,
		RepeatN:    resolved.repeatN,
		ModelCount: len(resolved.modelIDs),
		StartedAt:  startedAt.UnixMilli(),
	})

	// Display names are best-effort here; the tracker resolves the full
	// config per item anyway.
	displayNames := make(map[string]string, len(resolved.modelIDs))
	for _, modelID := range resolved.modelIDs {
		displayNames[modelID] = modelID
		if model, err := s.store.GetModel(ctx, modelID); err == nil && model != nil {
			displayNames[modelID] = model.DisplayName
		}
	}

	// Expand each selected model into repeatN work items, persisting every
	// item record before any event referencing it can be emitted.
	items := make([]*domain.LabRunItem, 0, len(resolved.modelIDs)*resolved.repeatN)
	for _, modelID := range resolved.modelIDs {
		for repeat := 0; repeat < resolved.repeatN; repeat++ {
			item := &domain.LabRunItem{
				ItemID:      "item_" + uuid.New().String()[:8],
				RunID:       runID,
				ModelID:     modelID,
				ModelName:   displayNames[modelID],
				RepeatIndex: repeat,
				State:       domain.ItemStateCreated,
				QueuedAt:    time.Now(),
			}
			if err := s.store.CreateLabRunItem(ctx, item); err != nil {
				log.Printf("ERROR: failed to persist run item %s: %v", item.ItemID, err)
			}
			items = append(items, item)
		}
	}

	sched := scheduler.New(resolved.concurrency)
	var wg sync.WaitGroup
	var fatal atomic.Bool

	for _, item := range items {
		item := item
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				// A panic escaping the per-item isolation boundary is a
				// bug, not a backend failure: it flips the run to FAILED.
				if r := recover(); r != nil {
					fatal.Store(true)
					log.Printf("ERROR: run item %s panicked: %v", item.ItemID, r)
				}
			}()
			// Queued-but-never-admitted items are abandoned without
			// producing events when the run is cancelled.
			_ = sched.Run(ctx, func(queued time.Duration) {
				s.runLabItem(ctx, resolved, item, out, queued)
			})
		}()
	}
	wg.Wait()

	status := domain.RunStatusCompleted
	if ctx.Err() != nil {
		status = domain.RunStatusCancelled
	} else if fatal.Load() {
		status = domain.RunStatusFailed
	}

	endedAt := time.Now()
	// Persistence here is best-effort bookkeeping: the stream is the
	// authoritative output of a run invocation.
	if err := s.store.UpdateLabRunCompleted(context.WithoutCancel(ctx), runID, status, endedAt); err != nil {
		log.Printf("ERROR: failed to persist run completion: %v", err)
	}

	s.sendEvent(out, domain.EventChannelRun, domain.RunDonePayload{
		Type:    domain.EventRunDone,
		RunID:   runID,
		Status:  status,
		EndedAt: endedAt.UnixMilli(),
	})
}

// sendEvent writes one frame and logs delivery failures; a gone consumer
// must not abort the orchestration.
func (s *Service) sendEvent(sink sse.Sink, event string, payload interface{}) {
	if err := sink.Send(event, payload); err != nil {
		log.Printf("WARN: failed to send %s event: %v", event, err)
	}
}
