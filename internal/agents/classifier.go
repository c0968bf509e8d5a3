package agents

import (
	"context"
	"log"
	"strings"

	"scriptsmith/internal/genre"
	"scriptsmith/internal/llm"
	llmclient "scriptsmith/internal/llm/client"
)

// GenreClassifier maps a video title to one of the known genres.
type GenreClassifier struct {
	llm llmclient.LLMClient
	cfg RoleConfig
}

func NewGenreClassifier(cli llmclient.LLMClient, cfg RoleConfig) *GenreClassifier {
	return &GenreClassifier{llm: cli, cfg: cfg}
}

// Classify never fails: backend errors and unexpected replies both yield
// genre.NotFound. The raw reply is returned for the activity log.
func (c *GenreClassifier) Classify(ctx context.Context, title string) (g string, raw string) {
	if c == nil || c.llm == nil || strings.TrimSpace(title) == "" {
		return genre.NotFound, ""
	}
	out, err := c.llm.Generate(llm.WithRole(ctx, llm.RoleClassifier), c.cfg.request(classifierPrompt(title)))
	if err != nil {
		log.Printf("genre classifier: %v", err)
		return genre.NotFound, "ERROR: " + err.Error()
	}
	g = genre.Normalize(out)
	if g == genre.NotFound && !strings.EqualFold(strings.TrimSpace(out), genre.NotFound) {
		log.Printf("genre classifier: unexpected reply %q, defaulting to not found", out)
	}
	return g, out
}
