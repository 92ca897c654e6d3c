package service

import (
	"context"
	"log"
	"time"

	"github.com/prdlab/gateway-admin/internal/adapter/llm"
	"github.com/prdlab/gateway-admin/internal/domain"
	"github.com/prdlab/gateway-admin/internal/sse"
)

// runLabItem executes one admitted work item: resolve its config, stream the
// backend, and drive the item's lifecycle record. Every failure is converted
// to a modelError event here; nothing escapes to the run level.
func (s *Service) runLabItem(ctx context.Context, run *resolvedRun, item *domain.LabRunItem, sink sse.Sink, queued time.Duration) {
	t := &labItemTracker{svc: s, sink: sink, item: item, repeatN: run.repeatN}
	t.start(queued)

	platform, model, cfgErr := s.resolveModelConfig(ctx, item.ModelID)
	if cfgErr != nil {
		// Created→Error short circuit: the adapter is never invoked, but the
		// consumer still observes a start→end pair for the item.
		t.finishError(cfgErr.Code, cfgErr.Message)
		return
	}

	streamer, err := s.newStreamer(platform, model, s.config.LLMTimeout)
	if err != nil {
		t.finishError(domain.ErrCodeInvalidConfig, err.Error())
		return
	}

	req := &llm.GenerateRequest{
		SystemPrompt: run.systemPrompt,
		Messages:     []llm.Message{{Role: "user", Content: run.prompt}},
		PromptCache:  run.promptCache,
	}

	// Drain the sequence to channel close rather than breaking on the first
	// terminal chunk: the adapter contract puts finalization before the
	// terminal chunk, and draining keeps that contract honest.
	var sawDone, sawError bool
	var errMessage string
	for chunk := range streamer.StreamGenerate(ctx, req) {
		switch chunk.Type {
		case domain.ChunkDelta:
			t.onDelta(chunk.Content)
		case domain.ChunkDone:
			sawDone = true
		case domain.ChunkError:
			sawError = true
			errMessage = chunk.ErrMessage
		}
	}

	switch {
	case sawError:
		t.finishError(domain.ErrCodeLLMError, errMessage)
	case ctx.Err() != nil && !sawDone:
		// The adapter stopped at a chunk boundary because the run was
		// cancelled; the item still reports a terminal event.
		t.finishError(domain.ErrCodeLLMError, "stream cancelled before completion")
	default:
		// Done chunk or graceful stream exhaustion.
		t.finishDone()
	}
}

// labItemTracker owns the lifecycle of a single work item.
type labItemTracker struct {
	svc     *Service
	sink    sse.Sink
	item    *domain.LabRunItem
	repeatN int
}

func (t *labItemTracker) ref() domain.ItemRef {
	return domain.ItemRef{
		RunID:       t.item.RunID,
		ItemID:      t.item.ItemID,
		ModelID:     t.item.ModelID,
		ModelName:   t.item.ModelName,
		RepeatIndex: t.item.RepeatIndex,
		RepeatN:     t.repeatN,
	}
}

// start records admission past the concurrency gate.
func (t *labItemTracker) start(queued time.Duration) {
	now := time.Now()
	t.item.State = domain.ItemStateStarted
	t.item.StartedAt = &now

	t.svc.sendEvent(t.sink, domain.EventChannelModel, domain.ModelStartPayload{
		Type:    domain.EventModelStart,
		QueueMs: queued.Milliseconds(),
		ItemRef: t.ref(),
	})
}

// onDelta handles one incremental content chunk.
func (t *labItemTracker) onDelta(content string) {
	if t.item.FirstTokenAt == nil {
		now := time.Now()
		ttft := now.Sub(*t.item.StartedAt).Milliseconds()
		t.item.FirstTokenAt = &now
		t.item.TtftMs = &ttft
		t.item.State = domain.ItemStateStreaming

		t.svc.sendEvent(t.sink, domain.EventChannelModel, domain.FirstTokenPayload{
			Type:    domain.EventFirstToken,
			TtftMs:  ttft,
			ItemRef: t.ref(),
		})
	}

	if remaining := domain.PreviewMaxLen - len(t.item.ResponsePreview); remaining > 0 {
		if len(content) > remaining {
			t.item.ResponsePreview += content[:remaining]
		} else {
			t.item.ResponsePreview += content
		}
	}

	// Content is forwarded verbatim for client-side concatenation; only the
	// bounded preview above is retained.
	t.svc.sendEvent(t.sink, domain.EventChannelModel, domain.DeltaPayload{
		Type:    domain.EventDelta,
		Content: content,
		ItemRef: t.ref(),
	})
}

// finishDone moves the item to its terminal success state.
func (t *labItemTracker) finishDone() {
	now := time.Now()
	total := now.Sub(*t.item.StartedAt).Milliseconds()
	t.item.State = domain.ItemStateDone
	t.item.EndedAt = &now
	t.item.TotalMs = &total
	t.item.Success = true
	t.persist()

	t.svc.sendEvent(t.sink, domain.EventChannelModel, domain.ModelDonePayload{
		Type:    domain.EventModelDone,
		TtftMs:  t.item.TtftMs,
		TotalMs: total,
		Preview: t.item.ResponsePreview,
		ItemRef: t.ref(),
	})
}

// finishError moves the item to its terminal error state. Terminal and
// independent of sibling items.
func (t *labItemTracker) finishError(code, message string) {
	now := time.Now()
	t.item.State = domain.ItemStateError
	t.item.EndedAt = &now
	if t.item.StartedAt != nil {
		total := now.Sub(*t.item.StartedAt).Milliseconds()
		t.item.TotalMs = &total
	}
	t.item.Success = false
	t.item.ErrorCode = code
	t.item.ErrorMessage = message
	t.persist()

	t.svc.sendEvent(t.sink, domain.EventChannelModel, domain.ModelErrorPayload{
		Type:    domain.EventModelError,
		Code:    code,
		Message: message,
		ItemRef: t.ref(),
	})
}

// persist writes the item's terminal record. Log and continue on failure:
// bookkeeping must not disturb the in-flight stream.
func (t *labItemTracker) persist() {
	if err := t.svc.store.UpdateLabRunItem(context.Background(), t.item); err != nil {
		log.Printf("ERROR: failed to persist run item %s: %v", t.item.ItemID, err)
	}
}
