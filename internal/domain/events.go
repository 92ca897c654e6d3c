package domain

// SSE event names. Each run invocation streams frames on exactly one of the
// run channel plus either the model or the image channel.
const (
	EventChannelRun   = "run"
	EventChannelModel = "model"
	EventChannelImage = "image"
)

// Event subtypes carried in the payload's "type" field.
const (
	EventRunStart   = "runStart"
	EventRunDone    = "runDone"
	EventRunError   = "error"
	EventModelStart = "modelStart"
	EventFirstToken = "firstToken"
	EventDelta      = "delta"
	EventModelDone  = "modelDone"
	EventModelError = "modelError"
	EventImageStart = "imageStart"
	EventImageDone  = "imageDone"
	EventImageError = "imageError"
)

// RunStartPayload is emitted once, before any per-item event.
type RunStartPayload struct {
	Type       string `json:"type"`
	RunID      string `json:"runId"`
	Suite      string `json:"suite,omitempty"`
	RepeatN    int    `json:"repeatN"`
	ModelCount int    `json:"modelCount"`
	StartedAt  int64  `json:"startedAt"`
}

// RunDonePayload is emitted once, after every item reached a terminal state.
type RunDonePayload struct {
	Type    string    `json:"type"`
	RunID   string    `json:"runId"`
	Status  RunStatus `json:"status"`
	EndedAt int64     `json:"endedAt"`
}

// RunErrorPayload reports a resolution failure. When it is emitted no run
// record exists and no other frame follows.
type RunErrorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ItemRef carries the identity fields every per-item payload includes.
type ItemRef struct {
	RunID       string `json:"runId"`
	ItemID      string `json:"itemId"`
	ModelID     string `json:"modelId"`
	ModelName   string `json:"modelName,omitempty"`
	RepeatIndex int    `json:"repeatIndex"`
	RepeatN     int    `json:"repeatN"`
}

// ModelStartPayload marks an item's admission past the concurrency gate.
type ModelStartPayload struct {
	Type    string `json:"type"`
	QueueMs int64  `json:"queueMs"`
	ItemRef
}

// FirstTokenPayload is emitted on the first delta chunk of an item.
type FirstTokenPayload struct {
	Type   string `json:"type"`
	TtftMs int64  `json:"ttftMs"`
	ItemRef
}

// DeltaPayload forwards one incremental content chunk verbatim.
type DeltaPayload struct {
	Type    string `json:"type"`
	Content string `json:"content"`
	ItemRef
}

// ModelDonePayload terminates an item successfully.
type ModelDonePayload struct {
	Type    string `json:"type"`
	TtftMs  *int64 `json:"ttftMs,omitempty"`
	TotalMs int64  `json:"totalMs"`
	Preview string `json:"preview,omitempty"`
	ItemRef
}

// ModelErrorPayload terminates an item with an error. It never affects
// sibling items.
type ModelErrorPayload struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
	ItemRef
}

// ImageStartPayload marks an image item's admission.
type ImageStartPayload struct {
	Type    string `json:"type"`
	QueueMs int64  `json:"queueMs"`
	ItemRef
}

// ImageDonePayload terminates an image item with the generated image URL.
type ImageDonePayload struct {
	Type    string `json:"type"`
	TotalMs int64  `json:"totalMs"`
	URL     string `json:"url,omitempty"`
	ItemRef
}

// ImageErrorPayload terminates an image item with an error.
type ImageErrorPayload struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
	ItemRef
}
