package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/prdlab/gateway-admin/internal/domain"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS platforms (
			platform_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			provider_type TEXT NOT NULL,
			base_url TEXT NOT NULL,
			api_key TEXT,
			enabled INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS models (
			model_id TEXT PRIMARY KEY,
			platform_id TEXT NOT NULL,
			name TEXT NOT NULL,
			display_name TEXT NOT NULL,
			enabled INTEGER NOT NULL DEFAULT 1,
			max_tokens INTEGER,
			temperature REAL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (platform_id) REFERENCES platforms(platform_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_models_platform ON models(platform_id)`,
		`CREATE TABLE IF NOT EXISTS experiments (
			experiment_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			model_ids TEXT NOT NULL,
			system_prompt TEXT,
			prompt TEXT NOT NULL,
			repeat_n INTEGER NOT NULL DEFAULT 1,
			prompt_cache INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS lab_runs (
			run_id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			suite TEXT,
			repeat_n INTEGER NOT NULL DEFAULT 1,
			status TEXT NOT NULL,
			started_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			ended_at DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_lab_runs_kind ON lab_runs(kind, started_at)`,
		`CREATE TABLE IF NOT EXISTS lab_run_items (
			item_id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			model_id TEXT NOT NULL,
			model_name TEXT,
			repeat_index INTEGER NOT NULL DEFAULT 0,
			state TEXT NOT NULL,
			queued_at DATETIME NOT NULL,
			started_at DATETIME,
			first_token_at DATETIME,
			ended_at DATETIME,
			ttft_ms INTEGER,
			total_ms INTEGER,
			success INTEGER NOT NULL DEFAULT 0,
			error_code TEXT,
			error_message TEXT,
			response_preview TEXT,
			FOREIGN KEY (run_id) REFERENCES lab_runs(run_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_lab_run_items_run ON lab_run_items(run_id, queued_at)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreatePlatform creates a new platform.
func (s *SQLiteStore) CreatePlatform(ctx context.Context, platform *domain.Platform) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO platforms (platform_id, name, provider_type, base_url, api_key, enabled, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		platform.PlatformID, platform.Name, string(platform.ProviderType),
		platform.BaseURL, platform.APIKey, boolToInt(platform.Enabled), platform.CreatedAt)
	return err
}

// GetPlatform retrieves a platform by ID. Returns (nil, nil) if not found.
func (s *SQLiteStore) GetPlatform(ctx context.Context, platformID string) (*domain.Platform, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT platform_id, name, provider_type, base_url, api_key, enabled, created_at
		 FROM platforms WHERE platform_id = ?`, platformID)
	return scanPlatform(row)
}

// ListPlatforms lists all platforms.
func (s *SQLiteStore) ListPlatforms(ctx context.Context) ([]domain.Platform, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT platform_id, name, provider_type, base_url, api_key, enabled, created_at
		 FROM platforms ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var platforms []domain.Platform
	for rows.Next() {
		p, err := scanPlatform(rows)
		if err != nil {
			return nil, err
		}
		platforms = append(platforms, *p)
	}
	return platforms, rows.Err()
}

// UpdatePlatform updates an existing platform.
func (s *SQLiteStore) UpdatePlatform(ctx context.Context, platform *domain.Platform) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE platforms SET name = ?, provider_type = ?, base_url = ?, api_key = ?, enabled = ?
		 WHERE platform_id = ?`,
		platform.Name, string(platform.ProviderType), platform.BaseURL,
		platform.APIKey, boolToInt(platform.Enabled), platform.PlatformID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DeletePlatform deletes a platform.
func (s *SQLiteStore) DeletePlatform(ctx context.Context, platformID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM platforms WHERE platform_id = ?`, platformID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// CreateModel creates a new model.
func (s *SQLiteStore) CreateModel(ctx context.Context, model *domain.Model) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO models (model_id, platform_id, name, display_name, enabled, max_tokens, temperature, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		model.ModelID, model.PlatformID, model.Name, model.DisplayName,
		boolToInt(model.Enabled), nullableInt(model.MaxTokens), nullableFloat(model.Temperature), model.CreatedAt)
	return err
}

// GetModel retrieves a model by ID. Returns (nil, nil) if not found.
func (s *SQLiteStore) GetModel(ctx context.Context, modelID string) (*domain.Model, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT model_id, platform_id, name, display_name, enabled, max_tokens, temperature, created_at
		 FROM models WHERE model_id = ?`, modelID)
	return scanModel(row)
}

// ListModels lists models, optionally filtered by platform.
func (s *SQLiteStore) ListModels(ctx context.Context, platformID string) ([]domain.Model, error) {
	query := `SELECT model_id, platform_id, name, display_name, enabled, max_tokens, temperature, created_at
		 FROM models`
	args := []interface{}{}
	if platformID != "" {
		query += ` WHERE platform_id = ?`
		args = append(args, platformID)
	}
	query += ` ORDER BY created_at`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var models []domain.Model
	for rows.Next() {
		m, err := scanModel(rows)
		if err != nil {
			return nil, err
		}
		models = append(models, *m)
	}
	return models, rows.Err()
}

// UpdateModel updates an existing model.
func (s *SQLiteStore) UpdateModel(ctx context.Context, model *domain.Model) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE models SET platform_id = ?, name = ?, display_name = ?, enabled = ?, max_tokens = ?, temperature = ?
		 WHERE model_id = ?`,
		model.PlatformID, model.Name, model.DisplayName, boolToInt(model.Enabled),
		nullableInt(model.MaxTokens), nullableFloat(model.Temperature), model.ModelID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DeleteModel deletes a model.
func (s *SQLiteStore) DeleteModel(ctx context.Context, modelID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM models WHERE model_id = ?`, modelID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// CreateExperiment creates a new experiment.
func (s *SQLiteStore) CreateExperiment(ctx context.Context, exp *domain.Experiment) error {
	modelIDs, err := json.Marshal(exp.ModelIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal model ids: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO experiments (experiment_id, name, model_ids, system_prompt, prompt, repeat_n, prompt_cache, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		exp.ExperimentID, exp.Name, string(modelIDs), exp.SystemPrompt, exp.Prompt,
		exp.RepeatN, boolToInt(exp.PromptCache), exp.CreatedAt, exp.UpdatedAt)
	return err
}

// GetExperiment retrieves an experiment by ID. Returns (nil, nil) if not found.
func (s *SQLiteStore) GetExperiment(ctx context.Context, experimentID string) (*domain.Experiment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT experiment_id, name, model_ids, system_prompt, prompt, repeat_n, prompt_cache, created_at, updated_at
		 FROM experiments WHERE experiment_id = ?`, experimentID)
	return scanExperiment(row)
}

// ListExperiments lists all experiments.
func (s *SQLiteStore) ListExperiments(ctx context.Context) ([]domain.Experiment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT experiment_id, name, model_ids, system_prompt, prompt, repeat_n, prompt_cache, created_at, updated_at
		 FROM experiments ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exps []domain.Experiment
	for rows.Next() {
		e, err := scanExperiment(rows)
		if err != nil {
			return nil, err
		}
		exps = append(exps, *e)
	}
	return exps, rows.Err()
}

// UpdateExperiment updates an existing experiment.
func (s *SQLiteStore) UpdateExperiment(ctx context.Context, exp *domain.Experiment) error {
	modelIDs, err := json.Marshal(exp.ModelIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal model ids: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE experiments SET name = ?, model_ids = ?, system_prompt = ?, prompt = ?, repeat_n = ?, prompt_cache = ?, updated_at = ?
		 WHERE experiment_id = ?`,
		exp.Name, string(modelIDs), exp.SystemPrompt, exp.Prompt, exp.RepeatN,
		boolToInt(exp.PromptCache), exp.UpdatedAt, exp.ExperimentID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DeleteExperiment deletes an experiment.
func (s *SQLiteStore) DeleteExperiment(ctx context.Context, experimentID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM experiments WHERE experiment_id = ?`, experimentID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// CreateLabRun creates a new run record.
func (s *SQLiteStore) CreateLabRun(ctx context.Context, run *domain.LabRun) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO lab_runs (run_id, kind, suite, repeat_n, status, started_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.RunID, string(run.Kind), run.Suite, run.RepeatN, string(run.Status), run.StartedAt)
	return err
}

// GetLabRun retrieves a run by ID. Returns (nil, nil) if not found.
func (s *SQLiteStore) GetLabRun(ctx context.Context, runID string) (*domain.LabRun, error) {
	var run domain.LabRun
	var endedAt sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id, kind, suite, repeat_n, status, started_at, ended_at
		 FROM lab_runs WHERE run_id = ?`, runID).
		Scan(&run.RunID, &run.Kind, &run.Suite, &run.RepeatN, &run.Status, &run.StartedAt, &endedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if endedAt.Valid {
		run.EndedAt = &endedAt.Time
	}
	return &run, nil
}

// ListLabRuns lists runs, most recent first. An empty kind lists every kind.
func (s *SQLiteStore) ListLabRuns(ctx context.Context, kind domain.RunKind, limit int) ([]domain.LabRun, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT run_id, kind, suite, repeat_n, status, started_at, ended_at FROM lab_runs`
	args := []interface{}{}
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, string(kind))
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []domain.LabRun
	for rows.Next() {
		var run domain.LabRun
		var endedAt sql.NullTime
		if err := rows.Scan(&run.RunID, &run.Kind, &run.Suite, &run.RepeatN, &run.Status, &run.StartedAt, &endedAt); err != nil {
			return nil, err
		}
		if endedAt.Valid {
			run.EndedAt = &endedAt.Time
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// UpdateLabRunCompleted sets the terminal status and end time of a run.
// ended_at is only written once.
func (s *SQLiteStore) UpdateLabRunCompleted(ctx context.Context, runID string, status domain.RunStatus, endedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE lab_runs SET status = ?, ended_at = COALESCE(ended_at, ?) WHERE run_id = ?`,
		string(status), endedAt, runID)
	return err
}

// CreateLabRunItem persists a run item at creation time.
func (s *SQLiteStore) CreateLabRunItem(ctx context.Context, item *domain.LabRunItem) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO lab_run_items (item_id, run_id, model_id, model_name, repeat_index, state, queued_at, success)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ItemID, item.RunID, item.ModelID, item.ModelName, item.RepeatIndex,
		string(item.State), item.QueuedAt, boolToInt(item.Success))
	return err
}

// UpdateLabRunItem persists a run item's mutable lifecycle fields.
func (s *SQLiteStore) UpdateLabRunItem(ctx context.Context, item *domain.LabRunItem) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE lab_run_items SET state = ?, started_at = ?, first_token_at = ?, ended_at = ?,
		 ttft_ms = ?, total_ms = ?, success = ?, error_code = ?, error_message = ?, response_preview = ?
		 WHERE item_id = ?`,
		string(item.State), nullableTime(item.StartedAt), nullableTime(item.FirstTokenAt),
		nullableTime(item.EndedAt), nullableInt64(item.TtftMs), nullableInt64(item.TotalMs),
		boolToInt(item.Success), item.ErrorCode, item.ErrorMessage, item.ResponsePreview, item.ItemID)
	return err
}

// GetLabRunItems lists the items of a run in submission order.
func (s *SQLiteStore) GetLabRunItems(ctx context.Context, runID string) ([]domain.LabRunItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT item_id, run_id, model_id, model_name, repeat_index, state, queued_at, started_at,
		 first_token_at, ended_at, ttft_ms, total_ms, success, error_code, error_message, response_preview
		 FROM lab_run_items WHERE run_id = ? ORDER BY queued_at, item_id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.LabRunItem
	for rows.Next() {
		var item domain.LabRunItem
		var modelName, errorCode, errorMessage, preview sql.NullString
		var startedAt, firstTokenAt, endedAt sql.NullTime
		var ttftMs, totalMs sql.NullInt64
		var success int
		if err := rows.Scan(&item.ItemID, &item.RunID, &item.ModelID, &modelName, &item.RepeatIndex,
			&item.State, &item.QueuedAt, &startedAt, &firstTokenAt, &endedAt,
			&ttftMs, &totalMs, &success, &errorCode, &errorMessage, &preview); err != nil {
			return nil, err
		}
		item.ModelName = modelName.String
		item.ErrorCode = errorCode.String
		item.ErrorMessage = errorMessage.String
		item.ResponsePreview = preview.String
		item.Success = success != 0
		if startedAt.Valid {
			item.StartedAt = &startedAt.Time
		}
		if firstTokenAt.Valid {
			item.FirstTokenAt = &firstTokenAt.Time
		}
		if endedAt.Valid {
			item.EndedAt = &endedAt.Time
		}
		if ttftMs.Valid {
			v := ttftMs.Int64
			item.TtftMs = &v
		}
		if totalMs.Valid {
			v := totalMs.Int64
			item.TotalMs = &v
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPlatform(row rowScanner) (*domain.Platform, error) {
	var p domain.Platform
	var apiKey sql.NullString
	var enabled int
	err := row.Scan(&p.PlatformID, &p.Name, &p.ProviderType, &p.BaseURL, &apiKey, &enabled, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.APIKey = apiKey.String
	p.Enabled = enabled != 0
	return &p, nil
}

func scanModel(row rowScanner) (*domain.Model, error) {
	var m domain.Model
	var enabled int
	var maxTokens sql.NullInt64
	var temperature sql.NullFloat64
	err := row.Scan(&m.ModelID, &m.PlatformID, &m.Name, &m.DisplayName, &enabled, &maxTokens, &temperature, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m.Enabled = enabled != 0
	if maxTokens.Valid {
		v := int(maxTokens.Int64)
		m.MaxTokens = &v
	}
	if temperature.Valid {
		v := temperature.Float64
		m.Temperature = &v
	}
	return &m, nil
}

func scanExperiment(row rowScanner) (*domain.Experiment, error) {
	var e domain.Experiment
	var modelIDs string
	var systemPrompt sql.NullString
	var promptCache int
	err := row.Scan(&e.ExperimentID, &e.Name, &modelIDs, &systemPrompt, &e.Prompt, &e.RepeatN, &promptCache, &e.CreatedAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	e.SystemPrompt = systemPrompt.String
	e.PromptCache = promptCache != 0
	if err := json.Unmarshal([]byte(modelIDs), &e.ModelIDs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal model ids: %w", err)
	}
	return &e, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullableInt64(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullableFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullableTime(v *time.Time) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
