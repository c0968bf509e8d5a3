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

// Writer drafts and revises scripts.
type Writer struct {
	llm         llmclient.LLMClient
	cfg         WriterConfig
	targetScore float64
}

// NewWriter returns a writer that asks for scripts scoring at least
// targetScore. A non-positive target falls back to script.MinScore.
func NewWriter(cli llmclient.LLMClient, cfg WriterConfig, targetScore float64) *Writer {
	if targetScore <= 0 {
		targetScore = script.MinScore
	}
	return &Writer{llm: cli, cfg: cfg, targetScore: targetScore}
}

var _ orchestrator.Generator = (*Writer)(nil)

func (w *Writer) Generate(ctx context.Context, d orchestrator.Draft) (string, error) {
	if w == nil || w.llm == nil {
		return "", &script.GenerationError{Err: errors.New("writer: llm client is nil")}
	}
	cfg := w.cfg.Draft
	if d.PriorArtifact != "" {
		cfg = w.cfg.Revision
	}
	out, err := w.llm.Generate(llm.WithRole(ctx, llm.RoleWriter), cfg.request(writerPrompt(d, w.targetScore)))
	if err != nil {
		return "", &script.GenerationError{Err: err}
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", &script.GenerationError{Err: llmclient.ErrEmptyResponse}
	}
	return out, nil
}
