package service

import (
	"context"
	"fmt"

	"github.com/prdlab/gateway-admin/internal/domain"
	"github.com/prdlab/gateway-admin/internal/policy"
)

// ResolutionError is fatal to a whole run: it is reported as a single
// terminal error frame before any run record exists.
type ResolutionError struct {
	Message string
}

func (e *ResolutionError) Error() string {
	return e.Message
}

// configError is a per-item configuration failure carrying one of the fixed
// error codes. It is isolated to its work item.
type configError struct {
	Code    string
	Message string
}

func (e *configError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// resolvedRun is the effective run specification after merging a stored
// experiment with inline overrides. Inline values win; nothing is written
// back onto the experiment.
type resolvedRun struct {
	suite        string
	modelIDs     []string
	systemPrompt string
	prompt       string
	repeatN      int
	promptCache  bool
	concurrency  int
}

// resolveLabRun resolves the effective work set for a lab run request. It
// fails fast, before anything is scheduled or persisted.
func (s *Service) resolveLabRun(ctx context.Context, req *domain.LabRunRequest) (*resolvedRun, error) {
	resolved := &resolvedRun{
		suite:        "inline",
		modelIDs:     req.ModelIDs,
		systemPrompt: req.SystemPrompt,
		prompt:       req.Prompt,
		repeatN:      req.RepeatN,
		promptCache:  req.PromptCache,
		concurrency:  req.Concurrency,
	}

	if req.ExperimentID != "" {
		exp, err := s.store.GetExperiment(ctx, req.ExperimentID)
		if err != nil {
			return nil, fmt.Errorf("failed to get experiment: %w", err)
		}
		if exp == nil {
			return nil, &ResolutionError{Message: fmt.Sprintf("experiment %s not found", req.ExperimentID)}
		}
		resolved.suite = exp.ExperimentID
		if len(resolved.modelIDs) == 0 {
			resolved.modelIDs = exp.ModelIDs
		}
		if resolved.systemPrompt == "" {
			resolved.systemPrompt = exp.SystemPrompt
		}
		if resolved.prompt == "" {
			resolved.prompt = exp.Prompt
		}
		if resolved.repeatN == 0 {
			resolved.repeatN = exp.RepeatN
		}
		if !resolved.promptCache {
			resolved.promptCache = exp.PromptCache
		}
	}

	if len(resolved.modelIDs) == 0 {
		return nil, &ResolutionError{Message: "no models selected"}
	}
	if resolved.prompt == "" {
		return nil, &ResolutionError{Message: "prompt is required"}
	}
	if resolved.repeatN <= 0 {
		resolved.repeatN = 1
	}
	if resolved.concurrency <= 0 {
		resolved.concurrency = s.config.LabMaxConcurrency
	}

	if s.policyEngine != nil {
		decision, err := s.policyEngine.Evaluate(ctx, policy.Input{
			Kind:        string(domain.RunKindLab),
			ModelCount:  len(resolved.modelIDs),
			RepeatN:     resolved.repeatN,
			ItemCount:   len(resolved.modelIDs) * resolved.repeatN,
			Concurrency: resolved.concurrency,
		})
		if err != nil {
			return nil, fmt.Errorf("policy evaluation failed: %w", err)
		}
		if decision != policy.DecisionAllow {
			return nil, &ResolutionError{Message: "run blocked by admission policy"}
		}
	}

	return resolved, nil
}

// resolveModelConfig resolves one model reference to its platform and model
// records, returning a typed per-item failure when the configuration cannot
// back an adapter.
func (s *Service) resolveModelConfig(ctx context.Context, modelID string) (*domain.Platform, *domain.Model, *configError) {
	model, err := s.store.GetModel(ctx, modelID)
	if err != nil {
		return nil, nil, &configError{Code: domain.ErrCodeModelNotFound, Message: fmt.Sprintf("failed to load model %s: %v", modelID, err)}
	}
	if model == nil {
		return nil, nil, &configError{Code: domain.ErrCodeModelNotFound, Message: fmt.Sprintf("model %s not found", modelID)}
	}
	if !model.Enabled {
		return nil, nil, &configError{Code: domain.ErrCodeInvalidConfig, Message: fmt.Sprintf("model %s is disabled", modelID)}
	}

	platform, err := s.store.GetPlatform(ctx, model.PlatformID)
	if err != nil {
		return nil, nil, &configError{Code: domain.ErrCodePlatformNotFound, Message: fmt.Sprintf("failed to load platform %s: %v", model.PlatformID, err)}
	}
	if platform == nil {
		return nil, nil, &configError{Code: domain.ErrCodePlatformNotFound, Message: fmt.Sprintf("platform %s not found", model.PlatformID)}
	}
	if !platform.Enabled {
		return nil, nil, &configError{Code: domain.ErrCodeInvalidConfig, Message: fmt.Sprintf("platform %s is disabled", platform.PlatformID)}
	}
	if platform.ProviderType != domain.ProviderTypeMock && (platform.BaseURL == "" || platform.APIKey == "") {
		return nil, nil, &configError{Code: domain.ErrCodeInvalidConfig, Message: fmt.Sprintf("platform %s has incomplete credentials", platform.PlatformID)}
	}

	return platform, model, nil
}
