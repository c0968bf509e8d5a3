// Package agents implements the LLM-backed collaborators of the run loop:
// the script writer, the validator, the feedback summarizer and the genre
// classifier.
package agents

import llmclient "scriptsmith/internal/llm/client"

// RoleConfig holds the sampling parameters of one agent role. A zero
// MaxTokens leaves the provider default in place.
type RoleConfig struct {
	Temperature float32
	MaxTokens   int
}

func (c RoleConfig) request(prompt string) llmclient.Request {
	return llmclient.Request{Prompt: prompt, Temperature: c.Temperature, MaxTokens: c.MaxTokens}
}

// WriterConfig distinguishes first drafts from revisions.
type WriterConfig struct {
	Draft    RoleConfig
	Revision RoleConfig
}

var (
	DefaultWriterConfig = WriterConfig{
		Draft:    RoleConfig{Temperature: 0.75, MaxTokens: 4096},
		Revision: RoleConfig{Temperature: 0.6, MaxTokens: 4096},
	}
	DefaultValidatorConfig  = RoleConfig{Temperature: 0.4, MaxTokens: 250}
	DefaultSummarizerConfig = RoleConfig{Temperature: 0.7, MaxTokens: 4096}
	DefaultClassifierConfig = RoleConfig{Temperature: 0.3, MaxTokens: 50}
)
