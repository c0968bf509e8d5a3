package agents

import (
	"context"
	"errors"
	"fmt"
	"log"

	"scriptsmith/internal/llm"
	llmclient "scriptsmith/internal/llm/client"
	"scriptsmith/internal/orchestrator"
	"scriptsmith/internal/script"
)

// Validator scores scripts on hook, value, retention and CTA.
type Validator struct {
	llm llmclient.LLMClient
	cfg RoleConfig
}

func NewValidator(cli llmclient.LLMClient, cfg RoleConfig) *Validator {
	return &Validator{llm: cli, cfg: cfg}
}

var _ orchestrator.Evaluator = (*Validator)(nil)

// Evaluate returns the parsed evaluation. Passed is not set; the loop
// decides acceptance. A reply without any recognizable field is an error.
func (v *Validator) Evaluate(ctx context.Context, artifact string, duration script.Duration) (script.Evaluation, error) {
	if v == nil || v.llm == nil {
		return script.Evaluation{}, &script.EvaluationError{Err: errors.New("validator: llm client is nil")}
	}
	raw, err := v.llm.Generate(llm.WithRole(ctx, llm.RoleValidator), v.cfg.request(validatorPrompt(artifact, duration)))
	if err != nil {
		return script.Evaluation{}, &script.EvaluationError{Err: err}
	}
	ev, ok := ParseEvaluation(raw)
	if !ok {
		return script.Evaluation{}, &script.EvaluationError{Err: fmt.Errorf("no score or verdict in reply: %.80q", raw)}
	}
	log.Printf("validator: hook=%.1f value=%.1f retention=%.1f cta=%.1f total=%.1f",
		ev.Scores.Hook, ev.Scores.Value, ev.Scores.Retention, ev.Scores.CTA, ev.Total)
	return ev, nil
}
