package domain

// LabRunRequest starts a model-comparison lab run. Either ExperimentID or the
// inline fields must be present; inline values win over the stored experiment
// and are never written back onto it.
type LabRunRequest struct {
	ExperimentID string   `json:"experiment_id,omitempty"`
	ModelIDs     []string `json:"model_ids,omitempty"`
	SystemPrompt string   `json:"system_prompt,omitempty"`
	Prompt       string   `json:"prompt,omitempty"`
	RepeatN      int      `json:"repeat_n,omitempty"`
	PromptCache  bool     `json:"prompt_cache,omitempty"`
	Concurrency  int      `json:"concurrency,omitempty"`
}

// ImageBatchRequest starts a batched image-generation run.
type ImageBatchRequest struct {
	ModelID     string `json:"model_id"`
	Prompt      string `json:"prompt"`
	Count       int    `json:"count"`
	Size        string `json:"size,omitempty"`
	Concurrency int    `json:"concurrency,omitempty"`
}
