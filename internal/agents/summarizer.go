package agents

import (
	"context"
	"errors"
	"strings"

	"scriptsmith/internal/llm"
	llmclient "scriptsmith/internal/llm/client"
	"scriptsmith/internal/orchestrator"
	"scriptsmith/internal/script"
)

// Summarizer condenses raw validator output into key issues and suggestions.
type Summarizer struct {
	llm llmclient.LLMClient
	cfg RoleConfig
}

func NewSummarizer(cli llmclient.LLMClient, cfg RoleConfig) *Summarizer {
	return &Summarizer{llm: cli, cfg: cfg}
}

var _ orchestrator.Condenser = (*Summarizer)(nil)

func (s *Summarizer) Condense(ctx context.Context, rawEvaluation string) (string, error) {
	if s == nil || s.llm == nil {
		return "", &script.CondenseError{Err: errors.New("summarizer: llm client is nil")}
	}
	if strings.TrimSpace(rawEvaluation) == "" {
		return "", &script.CondenseError{Err: errors.New("nothing to summarize")}
	}
	out, err := s.llm.Generate(llm.WithRole(ctx, llm.RoleSummarizer), s.cfg.request(summarizerPrompt(rawEvaluation)))
	if err != nil {
		return "", &script.CondenseError{Err: err}
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", &script.CondenseError{Err: llmclient.ErrEmptyResponse}
	}
	return out, nil
}
