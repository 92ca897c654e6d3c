package store

import (
	"context"
	"testing"
	"time"

	"github.com/prdlab/gateway-admin/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStorePlatformsAndModels(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	platform := &domain.Platform{
		PlatformID:   "plat_1",
		Name:         "openai-main",
		ProviderType: domain.ProviderTypeOpenAI,
		BaseURL:      "https://api.example.com",
		APIKey:       "sk-test",
		Enabled:      true,
		CreatedAt:    time.Now(),
	}
	if err := store.CreatePlatform(ctx, platform); err != nil {
		t.Fatalf("CreatePlatform failed: %v", err)
	}

	got, err := store.GetPlatform(ctx, "plat_1")
	if err != nil {
		t.Fatalf("GetPlatform failed: %v", err)
	}
	if got == nil || got.Name != "openai-main" || !got.Enabled {
		t.Fatalf("unexpected platform: %+v", got)
	}

	missing, err := store.GetPlatform(ctx, "plat_nope")
	if err != nil {
		t.Fatalf("GetPlatform failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing platform, got %+v", missing)
	}

	maxTokens := 4096
	model := &domain.Model{
		ModelID:     "model_1",
		PlatformID:  "plat_1",
		Name:        "gpt-4o",
		DisplayName: "GPT-4o",
		Enabled:     true,
		MaxTokens:   &maxTokens,
		CreatedAt:   time.Now(),
	}
	if err := store.CreateModel(ctx, model); err != nil {
		t.Fatalf("CreateModel failed: %v", err)
	}

	models, err := store.ListModels(ctx, "plat_1")
	if err != nil {
		t.Fatalf("ListModels failed: %v", err)
	}
	if len(models) != 1 || models[0].MaxTokens == nil || *models[0].MaxTokens != 4096 {
		t.Fatalf("unexpected models: %+v", models)
	}

	model.DisplayName = "GPT-4o (prod)"
	if err := store.UpdateModel(ctx, model); err != nil {
		t.Fatalf("UpdateModel failed: %v", err)
	}
	updated, err := store.GetModel(ctx, "model_1")
	if err != nil {
		t.Fatalf("GetModel failed: %v", err)
	}
	if updated.DisplayName != "GPT-4o (prod)" {
		t.Fatalf("unexpected display name: %s", updated.DisplayName)
	}

	if err := store.DeleteModel(ctx, "model_1"); err != nil {
		t.Fatalf("DeleteModel failed: %v", err)
	}
	if err := store.DeleteModel(ctx, "model_1"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteStoreExperiments(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	now := time.Now()
	exp := &domain.Experiment{
		ExperimentID: "exp_1",
		Name:         "latency shootout",
		ModelIDs:     []string{"model_a", "model_b"},
		Prompt:       "Say hello.",
		RepeatN:      3,
		PromptCache:  true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := store.CreateExperiment(ctx, exp); err != nil {
		t.Fatalf("CreateExperiment failed: %v", err)
	}

	got, err := store.GetExperiment(ctx, "exp_1")
	if err != nil {
		t.Fatalf("GetExperiment failed: %v", err)
	}
	if got == nil || len(got.ModelIDs) != 2 || got.ModelIDs[1] != "model_b" || !got.PromptCache {
		t.Fatalf("unexpected experiment: %+v", got)
	}

	exps, err := store.ListExperiments(ctx)
	if err != nil {
		t.Fatalf("ListExperiments failed: %v", err)
	}
	if len(exps) != 1 {
		t.Fatalf("expected 1 experiment, got %d", len(exps))
	}
}

func TestSQLiteStoreRunsAndItems(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	run := &domain.LabRun{
		RunID:     "run_1",
		Kind:      domain.RunKindLab,
		Suite:     "exp_1",
		RepeatN:   2,
		Status:    domain.RunStatusRunning,
		StartedAt: time.Now(),
	}
	if err := store.CreateLabRun(ctx, run); err != nil {
		t.Fatalf("CreateLabRun failed: %v", err)
	}

	item := &domain.LabRunItem{
		ItemID:      "item_1",
		RunID:       "run_1",
		ModelID:     "model_a",
		ModelName:   "Model A",
		RepeatIndex: 0,
		State:       domain.ItemStateCreated,
		QueuedAt:    time.Now(),
	}
	if err := store.CreateLabRunItem(ctx, item); err != nil {
		t.Fatalf("CreateLabRunItem failed: %v", err)
	}

	started := time.Now()
	ended := started.Add(120 * time.Millisecond)
	ttft := int64(30)
	total := int64(120)
	item.State = domain.ItemStateDone
	item.StartedAt = &started
	item.EndedAt = &ended
	item.TtftMs = &ttft
	item.TotalMs = &total
	item.Success = true
	item.ResponsePreview = "hello"
	if err := store.UpdateLabRunItem(ctx, item); err != nil {
		t.Fatalf("UpdateLabRunItem failed: %v", err)
	}

	items, err := store.GetLabRunItems(ctx, "run_1")
	if err != nil {
		t.Fatalf("GetLabRunItems failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	got := items[0]
	if got.State != domain.ItemStateDone || !got.Success || got.TtftMs == nil || *got.TtftMs != 30 {
		t.Fatalf("unexpected item: %+v", got)
	}
	if got.ResponsePreview != "hello" {
		t.Fatalf("unexpected preview: %q", got.ResponsePreview)
	}

	endedAt := time.Now()
	if err := store.UpdateLabRunCompleted(ctx, "run_1", domain.RunStatusCompleted, endedAt); err != nil {
		t.Fatalf("UpdateLabRunCompleted failed: %v", err)
	}
	// A second completion must not move ended_at.
	if err := store.UpdateLabRunCompleted(ctx, "run_1", domain.RunStatusCompleted, endedAt.Add(time.Hour)); err != nil {
		t.Fatalf("UpdateLabRunCompleted failed: %v", err)
	}

	gotRun, err := store.GetLabRun(ctx, "run_1")
	if err != nil {
		t.Fatalf("GetLabRun failed: %v", err)
	}
	if gotRun.Status != domain.RunStatusCompleted || gotRun.EndedAt == nil {
		t.Fatalf("unexpected run: %+v", gotRun)
	}
	if gotRun.EndedAt.Sub(endedAt) > time.Minute {
		t.Fatalf("ended_at was overwritten: %v vs %v", gotRun.EndedAt, endedAt)
	}

	runs, err := store.ListLabRuns(ctx, domain.RunKindLab, 10)
	if err != nil {
		t.Fatalf("ListLabRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
}
