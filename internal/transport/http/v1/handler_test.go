package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/prdlab/gateway-admin/internal/config"
	"github.com/prdlab/gateway-admin/internal/domain"
	"github.com/prdlab/gateway-admin/internal/policy"
	store "github.com/prdlab/gateway-admin/internal/repository"
	"github.com/prdlab/gateway-admin/internal/service"
)

func newTestHandler(t *testing.T) (*Handler, store.Store) {
	t.Helper()
	db, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		LabMaxConcurrency: 4,
		LLMTimeout:        time.Second,
		ImageTimeout:      time.Second,
	}
	policyEngine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	svc := service.New(db, cfg, policyEngine, nil)
	return NewHandler(svc), db
}

func doJSON(t *testing.T, h func(echo.Context) error, method, target, body string, params ...string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	for i := 0; i+1 < len(params); i += 2 {
		c.SetParamNames(params[i])
		c.SetParamValues(params[i+1])
	}
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec
}

func TestHealth(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := doJSON(t, h.Health, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "healthy") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestCreatePlatformValidation(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := doJSON(t, h.CreatePlatform, http.MethodPost, "/v1/platforms", `{"base_url":"http://api"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPlatformModelCRUD(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(t, h.CreatePlatform, http.MethodPost, "/v1/platforms",
		`{"name":"mock","provider_type":"mock"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("create platform: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var platform domain.Platform
	if err := json.Unmarshal(rec.Body.Bytes(), &platform); err != nil {
		t.Fatalf("unmarshal platform: %v", err)
	}
	if platform.PlatformID == "" {
		t.Fatal("expected generated platform_id")
	}

	rec = doJSON(t, h.CreateModel, http.MethodPost, "/v1/models",
		`{"platform_id":"`+platform.PlatformID+`","name":"mock-small"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("create model: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var model domain.Model
	if err := json.Unmarshal(rec.Body.Bytes(), &model); err != nil {
		t.Fatalf("unmarshal model: %v", err)
	}
	if model.DisplayName != "mock-small" {
		t.Fatalf("display name defaults to name, got %q", model.DisplayName)
	}

	rec = doJSON(t, h.GetModel, http.MethodGet, "/v1/models/"+model.ModelID, "",
		"model_id", model.ModelID)
	if rec.Code != http.StatusOK {
		t.Fatalf("get model: expected 200, got %d", rec.Code)
	}

	rec = doJSON(t, h.GetModel, http.MethodGet, "/v1/models/model_missing", "",
		"model_id", "model_missing")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get missing model: expected 404, got %d", rec.Code)
	}

	rec = doJSON(t, h.DeleteModel, http.MethodDelete, "/v1/models/"+model.ModelID, "",
		"model_id", model.ModelID)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete model: expected 200, got %d", rec.Code)
	}
}

func TestExperimentCRUD(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(t, h.CreateExperiment, http.MethodPost, "/v1/experiments",
		`{"name":"baseline","prompt":"compare","model_ids":["model_a"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("create experiment: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var exp domain.Experiment
	if err := json.Unmarshal(rec.Body.Bytes(), &exp); err != nil {
		t.Fatalf("unmarshal experiment: %v", err)
	}
	if exp.RepeatN != 1 {
		t.Fatalf("repeat_n defaults to 1, got %d", exp.RepeatN)
	}

	rec = doJSON(t, h.UpdateExperiment, http.MethodPut, "/v1/experiments/exp_missing",
		`{"name":"x","prompt":"y","model_ids":["m"]}`, "experiment_id", "exp_missing")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("update missing experiment: expected 404, got %d", rec.Code)
	}
}

func seedMockModel(t *testing.T, db store.Store) string {
	t.Helper()
	ctx := context.Background()
	if err := db.CreatePlatform(ctx, &domain.Platform{
		PlatformID:   "plat_mock",
		Name:         "mock",
		ProviderType: domain.ProviderTypeMock,
		Enabled:      true,
		CreatedAt:    time.Now(),
	}); err != nil {
		t.Fatalf("CreatePlatform failed: %v", err)
	}
	if err := db.CreateModel(ctx, &domain.Model{
		ModelID:     "model_mock",
		PlatformID:  "plat_mock",
		Name:        "mock-small",
		DisplayName: "Mock Small",
		Enabled:     true,
		CreatedAt:   time.Now(),
	}); err != nil {
		t.Fatalf("CreateModel failed: %v", err)
	}
	return "model_mock"
}

func TestStreamLabRun(t *testing.T) {
	h, db := newTestHandler(t)
	modelID := seedMockModel(t, db)

	rec := doJSON(t, h.StreamLabRun, http.MethodPost, "/v1/lab/runs/stream",
		`{"model_ids":["`+modelID+`"],"prompt":"hello","repeat_n":2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("expected text/event-stream, got %q", ct)
	}

	body := rec.Body.String()
	if !strings.Contains(body, `"type":"runStart"`) {
		t.Fatalf("missing runStart frame: %s", body)
	}
	if got := strings.Count(body, `"type":"modelDone"`); got != 2 {
		t.Fatalf("expected 2 modelDone frames, got %d: %s", got, body)
	}
	if !strings.Contains(body, `"type":"runDone"`) || !strings.Contains(body, `"status":"COMPLETED"`) {
		t.Fatalf("missing terminal run frame: %s", body)
	}
}

func TestStreamLabRunResolutionFailure(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(t, h.StreamLabRun, http.MethodPost, "/v1/lab/runs/stream",
		`{"prompt":"hello"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if strings.Count(body, "event: ") != 1 || !strings.Contains(body, `"type":"error"`) {
		t.Fatalf("expected a single error frame, got: %s", body)
	}
}

func TestStreamImageBatch(t *testing.T) {
	h, db := newTestHandler(t)
	modelID := seedMockModel(t, db)

	rec := doJSON(t, h.StreamImageBatch, http.MethodPost, "/v1/images/batch/stream",
		`{"model_id":"`+modelID+`","prompt":"a lighthouse","count":3}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if got := strings.Count(body, `"type":"imageDone"`); got != 3 {
		t.Fatalf("expected 3 imageDone frames, got %d: %s", got, body)
	}
}

func TestRunHistory(t *testing.T) {
	h, db := newTestHandler(t)
	modelID := seedMockModel(t, db)

	doJSON(t, h.StreamLabRun, http.MethodPost, "/v1/lab/runs/stream",
		`{"model_ids":["`+modelID+`"],"prompt":"hello"}`)

	rec := doJSON(t, h.ListLabRuns, http.MethodGet, "/v1/lab/runs", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var listing struct {
		Runs []domain.LabRun `json:"runs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatalf("unmarshal runs: %v", err)
	}
	if len(listing.Runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(listing.Runs))
	}
	runID := listing.Runs[0].RunID

	rec = doJSON(t, h.GetLabRun, http.MethodGet, "/v1/lab/runs/"+runID, "",
		"run_id", runID)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var detail struct {
		Run   domain.LabRun       `json:"run"`
		Items []domain.LabRunItem `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &detail); err != nil {
		t.Fatalf("unmarshal run detail: %v", err)
	}
	if detail.Run.Status != domain.RunStatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", detail.Run.Status)
	}
	if len(detail.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(detail.Items))
	}

	rec = doJSON(t, h.GetLabRun, http.MethodGet, "/v1/lab/runs/run_missing", "",
		"run_id", "run_missing")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
