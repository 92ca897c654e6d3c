package domain

import "time"

// PreviewMaxLen bounds the response preview retained on a run item.
const PreviewMaxLen = 512

// LabRun is the parent aggregate for a single orchestrator invocation.
// Status and EndedAt are set exactly once, after every item is terminal.
type LabRun struct {
	RunID     string     `json:"run_id"`
	Kind      RunKind    `json:"kind"`
	Suite     string     `json:"suite"`
	RepeatN   int        `json:"repeat_n"`
	Status    RunStatus  `json:"status"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// LabRunItem is the mutable lifecycle record for one work item. It is
// persisted at creation and again at its terminal state.
type LabRunItem struct {
	ItemID          string     `json:"item_id"`
	RunID           string     `json:"run_id"`
	ModelID         string     `json:"model_id"`
	ModelName       string     `json:"model_name"`
	RepeatIndex     int        `json:"repeat_index"`
	State           ItemState  `json:"state"`
	QueuedAt        time.Time  `json:"queued_at"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	FirstTokenAt    *time.Time `json:"first_token_at,omitempty"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	TtftMs          *int64     `json:"ttft_ms,omitempty"`
	TotalMs         *int64     `json:"total_ms,omitempty"`
	Success         bool       `json:"success"`
	ErrorCode       string     `json:"error_code,omitempty"`
	ErrorMessage    string     `json:"error_message,omitempty"`
	ResponsePreview string     `json:"response_preview,omitempty"`
}
