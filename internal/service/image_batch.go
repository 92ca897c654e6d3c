package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prdlab/gateway-admin/internal/adapter/image"
	"github.com/prdlab/gateway-admin/internal/domain"
	"github.com/prdlab/gateway-admin/internal/policy"
	"github.com/prdlab/gateway-admin/internal/scheduler"
	"github.com/prdlab/gateway-admin/internal/sse"
)

// ExecuteImageBatch drives one batched image-generation run against a single
// model, streaming every event onto sink. Items fail independently; the batch
// always runs to its terminal frame.
func (s *Service) ExecuteImageBatch(ctx context.Context, req *domain.ImageBatchRequest, sink sse.Sink) {
	if err := s.resolveImageBatch(ctx, req); err != nil {
		var resErr *ResolutionError
		msg := err.Error()
		if errors.As(err, &resErr) {
			msg = resErr.Message
		} else {
			log.Printf("ERROR: image batch resolution failed: %v", err)
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
		Kind:      domain.RunKindImage,
		Suite:     "image",
		RepeatN:   req.Count,
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
		Suite:      "image",
		RepeatN:    req.Count,
		ModelCount: 1,
		StartedAt:  startedAt.UnixMilli(),
	})

	modelName := req.ModelID
	if model, err := s.store.GetModel(ctx, req.ModelID); err == nil && model != nil {
		modelName = model.DisplayName
	}

	items := make([]*domain.LabRunItem, 0, req.Count)
	for i := 0; i < req.Count; i++ {
		item := &domain.LabRunItem{
			ItemID:      "item_" + uuid.New().String()[:8],
			RunID:       runID,
			ModelID:     req.ModelID,
			ModelName:   modelName,
			RepeatIndex: i,
			State:       domain.ItemStateCreated,
			QueuedAt:    time.Now(),
		}
		if err := s.store.CreateLabRunItem(ctx, item); err != nil {
			log.Printf("ERROR: failed to persist run item %s: %v", item.ItemID, err)
		}
		items = append(items, item)
	}

	sched := scheduler.New(req.Concurrency)
	var wg sync.WaitGroup
	var fatal atomic.Bool

	for _, item := range items {
		item := item
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					fatal.Store(true)
					log.Printf("ERROR: run item %s panicked: %v", item.ItemID, r)
				}
			}()
			_ = sched.Run(ctx, func(queued time.Duration) {
				s.runImageItem(ctx, req, item, out, queued)
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

// resolveImageBatch validates the request and normalizes its defaults in
// place. It fails fast, before anything is scheduled or persisted.
func (s *Service) resolveImageBatch(ctx context.Context, req *domain.ImageBatchRequest) error {
	if req.ModelID == "" {
		return &ResolutionError{Message: "model_id is required"}
	}
	if req.Prompt == "" {
		return &ResolutionError{Message: "prompt is required"}
	}
	if req.Count <= 0 {
		req.Count = 1
	}
	if req.Concurrency <= 0 {
		req.Concurrency = s.config.LabMaxConcurrency
	}

	if s.policyEngine != nil {
		decision, err := s.policyEngine.Evaluate(ctx, policy.Input{
			Kind:        string(domain.RunKindImage),
			ModelCount:  1,
			RepeatN:     req.Count,
			ItemCount:   req.Count,
			Concurrency: req.Concurrency,
		})
		if err != nil {
			return fmt.Errorf("policy evaluation failed: %w", err)
		}
		if decision != policy.DecisionAllow {
			return &ResolutionError{Message: "run blocked by admission policy"}
		}
	}
	return nil
}

// runImageItem executes one admitted image item.
func (s *Service) runImageItem(ctx context.Context, req *domain.ImageBatchRequest, item *domain.LabRunItem, sink sse.Sink, queued time.Duration) {
	t := &imageItemTracker{svc: s, sink: sink, item: item, repeatN: req.Count}
	t.start(queued)

	platform, model, cfgErr := s.resolveModelConfig(ctx, item.ModelID)
	if cfgErr != nil {
		t.finishError(cfgErr.Code, cfgErr.Message)
		return
	}

	generator, err := s.newGenerator(platform, model, s.config.ImageTimeout)
	if err != nil {
		t.finishError(domain.ErrCodeInvalidConfig, err.Error())
		return
	}

	result, err := generator.Generate(ctx, &image.GenerateRequest{
		Prompt: req.Prompt,
		Size:   req.Size,
	})
	if err != nil {
		t.finishError(domain.ErrCodeImageError, err.Error())
		return
	}
	t.finishDone(result.URL)
}

// imageItemTracker owns the lifecycle of a single image item. Images have no
// incremental output, so the state machine skips the streaming stage.
type imageItemTracker struct {
	svc     *Service
	sink    sse.Sink
	item    *domain.LabRunItem
	repeatN int
}

func (t *imageItemTracker) ref() domain.ItemRef {
	return domain.ItemRef{
		RunID:       t.item.RunID,
		ItemID:      t.item.ItemID,
		ModelID:     t.item.ModelID,
		ModelName:   t.item.ModelName,
		RepeatIndex: t.item.RepeatIndex,
		RepeatN:     t.repeatN,
	}
}

func (t *imageItemTracker) start(queued time.Duration) {
	now := time.Now()
	t.item.State = domain.ItemStateStarted
	t.item.StartedAt = &now

	t.svc.sendEvent(t.sink, domain.EventChannelImage, domain.ImageStartPayload{
		Type:    domain.EventImageStart,
		QueueMs: queued.Milliseconds(),
		ItemRef: t.ref(),
	})
}

func (t *imageItemTracker) finishDone(url string) {
	now := time.Now()
	total := now.Sub(*t.item.StartedAt).Milliseconds()
	t.item.State = domain.ItemStateDone
	t.item.EndedAt = &now
	t.item.TotalMs = &total
	t.item.Success = true
	t.item.ResponsePreview = url
	t.persist()

	t.svc.sendEvent(t.sink, domain.EventChannelImage, domain.ImageDonePayload{
		Type:    domain.EventImageDone,
		TotalMs: total,
		URL:     url,
		ItemRef: t.ref(),
	})
}

func (t *imageItemTracker) finishError(code, message string) {
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

	t.svc.sendEvent(t.sink, domain.EventChannelImage, domain.ImageErrorPayload{
		Type:    domain.EventImageError,
		Code:    code,
		Message: message,
		ItemRef: t.ref(),
	})
}

func (t *imageItemTracker) persist() {
	if err := t.svc.store.UpdateLabRunItem(context.Background(), t.item); err != nil {
		log.Printf("ERROR: failed to persist run item %s: %v", t.item.ItemID, err)
	}
}
