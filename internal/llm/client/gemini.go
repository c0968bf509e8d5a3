package llmclient

import (
	"context"
	"fmt"
	"log"
	"strings"

	genai "google.golang.org/genai"
)

// GeminiClient is a thin wrapper around the official genai client.
// It only focuses on the API call itself. Cross-cutting concerns
// (rate limiting, retries, logging, hooks) are applied via Middleware.
type GeminiClient struct {
	cli    *genai.Client
	model  string
	safety []*genai.SafetySetting
}

func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: api key is required")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, fmt.Errorf("gemini: model is required")
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: init client: %w", err)
	}
	return &GeminiClient{cli: cli, model: model, safety: defaultSafetySettings()}, nil
}

func (g *GeminiClient) Name() string { return "Gemini:" + g.model }
func (g *GeminiClient) Close() error { return nil }

func defaultSafetySettings() []*genai.SafetySetting {
	return []*genai.SafetySetting{
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockNone},
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
	}
}

// Generate sends the prompt as a single user turn and returns the text of
// the first candidate.
func (g *GeminiClient) Generate(ctx context.Context, req Request) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:    genai.Ptr(req.Temperature),
		SafetySettings: g.safety,
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}

	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: req.Prompt}}}},
		cfg,
	)
	if err != nil {
		if IsRateLimited(err) {
			return "", &RateLimitError{Err: err, RetryAfter: RetryAfterHint(err)}
		}
		return "", err
	}
	if resp == nil || len(resp.Candidates) == 0 {
		if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "", NewPermanentError(fmt.Errorf("gemini: request blocked by safety filters: %s", resp.PromptFeedback.BlockReason))
		}
		return "", ErrEmptyResponse
	}

	cand := resp.Candidates[0]
	switch cand.FinishReason {
	case "", genai.FinishReasonStop:
	case genai.FinishReasonMaxTokens:
		log.Printf("gemini (%s): output truncated at max tokens", g.model)
	case genai.FinishReasonSafety:
		return "", NewPermanentError(fmt.Errorf("gemini: generation stopped due to safety concerns"))
	default:
		return "", fmt.Errorf("gemini: generation finished with reason %s", cand.FinishReason)
	}
	if cand.Content == nil || len(cand.Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}

	var b strings.Builder
	for _, part := range cand.Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	text := b.String()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
