// Package policy gates run admission with an OPA (rego) policy.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/rego"
)

// Decision values a policy may return.
const (
	DecisionAllow = "allow"
	DecisionBlock = "block"
)

// Input describes a run submission for policy evaluation.
type Input struct {
	Kind        string `json:"kind"`
	ModelCount  int    `json:"model_count"`
	RepeatN     int    `json:"repeat_n"`
	ItemCount   int    `json:"item_count"`
	Concurrency int    `json:"concurrency"`
}

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.run_policy.decision"),
		rego.Module("run_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Evaluate checks the run-admission policy. Returns the decision string;
// anything other than DecisionAllow blocks the run.
func (e *Engine) Evaluate(ctx context.Context, input Input) (string, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return DecisionAllow, nil
	}

	if s, ok := results[0].Expressions[0].Value.(string); ok {
		return s, nil
	}
	return DecisionAllow, nil
}

// DefaultPolicy is the default run-admission policy: cap the fan-out a single
// run submission may request.
const DefaultPolicy = `
package run_policy

default decision := "allow"

decision := "block" if {
	input.repeat_n > 20
}

decision := "block" if {
	input.model_count > 10
}

decision := "block" if {
	input.item_count > 100
}
`
