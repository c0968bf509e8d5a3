package agents

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scriptsmith/internal/genre"
	"scriptsmith/internal/llm"
	"scriptsmith/internal/orchestrator"
	"scriptsmith/internal/script"
)

func TestParseEvaluation(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		scores  script.Scores
		total   float64
		verdict string
		ok      bool
	}{
		{
			name:    "bracketed",
			raw:     "SCORE_HOOK: [2.0]\nSCORE_VALUE: [1.5]\nSCORE_RETENTION: [2]\nSCORE_CTA: [1.0]\nTOTAL: [6.5]\nVERDICT: Solid but the ending is flat.",
			scores:  script.Scores{Hook: 2, Value: 1.5, Retention: 2, CTA: 1},
			total:   6.5,
			verdict: "Solid but the ending is flat.",
			ok:      true,
		},
		{
			name:    "markdown and fractions",
			raw:     "**SCORE_HOOK**: 2.5/2.5\n**SCORE_VALUE:** 2/2.5\nSCORE_RETENTION: 2,25\nSCORE_CTA: 1.75\n**TOTAL**: 8.5/10\n**VERDICT**: Sharp and useful.",
			scores:  script.Scores{Hook: 2.5, Value: 2, Retention: 2.25, CTA: 1.75},
			total:   8.5,
			verdict: "Sharp and useful.",
			ok:      true,
		},
		{
			name:    "missing total uses sum",
			raw:     "SCORE_HOOK: 2\nSCORE_VALUE: 2\nSCORE_RETENTION: 2\nSCORE_CTA: 2.5",
			scores:  script.Scores{Hook: 2, Value: 2, Retention: 2, CTA: 2.5},
			total:   8.5,
			verdict: VerdictNotFound,
			ok:      true,
		},
		{
			name:    "out of range is clamped",
			raw:     "SCORE_HOOK: 4\nSCORE_VALUE: 9\nSCORE_RETENTION: 0\nSCORE_CTA: 1\nTOTAL: 14\nVERDICT: [Inflated]",
			scores:  script.Scores{Hook: 2.5, Value: 2.5, Retention: 0, CTA: 1},
			total:   10,
			verdict: "Inflated",
			ok:      true,
		},
		{
			name:    "total in verdict prose is ignored",
			raw:     "SCORE_HOOK: 1\nSCORE_VALUE: 1\nSCORE_RETENTION: 1\nSCORE_CTA: 1\nVERDICT: Weak. Aim for a total: 9 next time.",
			scores:  script.Scores{Hook: 1, Value: 1, Retention: 1, CTA: 1},
			total:   4,
			verdict: "Weak. Aim for a total: 9 next time.",
			ok:      true,
		},
		{
			name:    "list and heading prefixes",
			raw:     "## Scores\n- SCORE_HOOK: 2\n- SCORE_VALUE: 2\n* SCORE_RETENTION: 1.5\n- SCORE_CTA: 1\n# TOTAL: 6.5\nThe final verdict: pending\nVERDICT: Tighten the middle.",
			scores:  script.Scores{Hook: 2, Value: 2, Retention: 1.5, CTA: 1},
			total:   6.5,
			verdict: "Tighten the middle.",
			ok:      true,
		},
		{
			name:    "nothing recognizable",
			raw:     "I cannot evaluate this script.",
			verdict: VerdictNotFound,
			ok:      false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev, ok := ParseEvaluation(tc.raw)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.scores, ev.Scores)
			assert.InDelta(t, tc.total, ev.Total, 1e-9)
			assert.Equal(t, tc.verdict, ev.Feedback)
			assert.Equal(t, tc.raw, ev.FullEvaluation)
			assert.False(t, ev.Passed)

			again, _ := ParseEvaluation(ev.FullEvaluation)
			assert.Equal(t, ev, again)
		})
	}
}

func TestWriterDraftAndRevision(t *testing.T) {
	fake := llm.NewFakeClient()
	w := NewWriter(fake, DefaultWriterConfig, 0)
	ctx := context.Background()

	draft := orchestrator.Draft{
		Attempt:   1,
		Topic:     "Sourdough in 60 seconds",
		Context:   "starter ratios",
		Duration:  script.DurationShort,
		StyleHint: "Start with the finished dish.",
	}
	first, err := w.Generate(ctx, draft)
	require.NoError(t, err)
	assert.Contains(t, first, "Sourdough in 60 seconds")

	draft.Attempt = 2
	draft.PriorArtifact = first
	draft.Critique = "- Key Issues: weak hook"
	second, err := w.Generate(ctx, draft)
	require.NoError(t, err)
	assert.Contains(t, second, "(revised)")

	calls := fake.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, llm.RoleWriter, calls[0].Role)
	assert.InDelta(t, 0.75, calls[0].Request.Temperature, 1e-6)
	assert.InDelta(t, 0.6, calls[1].Request.Temperature, 1e-6)
	assert.NotContains(t, calls[0].Request.Prompt, previousScriptStart)
	assert.Contains(t, calls[0].Request.Prompt, "Start with the finished dish.")
	assert.Contains(t, calls[0].Request.Prompt, "Core Data/Topic Information: starter ratios")
	assert.Contains(t, calls[1].Request.Prompt, previousScriptStart+"\n"+first)
	assert.Contains(t, calls[1].Request.Prompt, "weak hook")
	assert.Contains(t, calls[1].Request.Prompt, "target score (8/10)")
}

func TestWriterErrors(t *testing.T) {
	fake := llm.NewFakeClient().Fail(llm.RoleWriter, errors.New("quota"))
	fake.Script(llm.RoleWriter, "   ")
	w := NewWriter(fake, DefaultWriterConfig, script.MinScore)

	_, err := w.Generate(context.Background(), orchestrator.Draft{Topic: "x"})
	var ge *script.GenerationError
	require.ErrorAs(t, err, &ge)
	assert.ErrorContains(t, err, "quota")

	_, err = w.Generate(context.Background(), orchestrator.Draft{Topic: "x"})
	require.ErrorAs(t, err, &ge)
}

func TestValidatorEvaluate(t *testing.T) {
	fake := llm.NewFakeClient().Script(llm.RoleValidator,
		"SCORE_HOOK: 2\nSCORE_VALUE: 2\nSCORE_RETENTION: 2\nSCORE_CTA: 2\nTOTAL: 8\nVERDICT: Good.",
		"no idea",
	)
	fake.Fail(llm.RoleValidator, errors.New("backend down"))
	v := NewValidator(fake, DefaultValidatorConfig)
	ctx := context.Background()

	ev, err := v.Evaluate(ctx, "HOST: hello", script.DurationLong)
	require.NoError(t, err)
	assert.Equal(t, 8.0, ev.Total)
	assert.Equal(t, "Good.", ev.Feedback)

	call := fake.Calls()[0]
	assert.Equal(t, llm.RoleValidator, call.Role)
	assert.Equal(t, 250, call.Request.MaxTokens)
	assert.Contains(t, call.Request.Prompt, "long-form script")
	assert.True(t, strings.HasSuffix(call.Request.Prompt, "HOST: hello"))

	var ee *script.EvaluationError
	_, err = v.Evaluate(ctx, "HOST: hello", script.DurationShort)
	require.ErrorAs(t, err, &ee)
	_, err = v.Evaluate(ctx, "HOST: hello", script.DurationShort)
	require.ErrorAs(t, err, &ee)
	assert.ErrorContains(t, err, "backend down")
}

func TestSummarizerCondense(t *testing.T) {
	fake := llm.NewFakeClient()
	s := NewSummarizer(fake, DefaultSummarizerConfig)

	out, err := s.Condense(context.Background(), "VERDICT: flat ending")
	require.NoError(t, err)
	assert.Contains(t, out, "Key Issues")
	assert.Contains(t, fake.Calls()[0].Request.Prompt, "VERDICT: flat ending")

	var ce *script.CondenseError
	_, err = s.Condense(context.Background(), "  ")
	require.ErrorAs(t, err, &ce)

	fake.Fail(llm.RoleSummarizer, errors.New("timeout"))
	_, err = s.Condense(context.Background(), "VERDICT: flat ending")
	require.ErrorAs(t, err, &ce)
}

func TestGenreClassifier(t *testing.T) {
	fake := llm.NewFakeClient().Script(llm.RoleClassifier, "Cooking.", "astrology", genre.NotFound)
	fake.Fail(llm.RoleClassifier, errors.New("offline"))
	c := NewGenreClassifier(fake, DefaultClassifierConfig)
	ctx := context.Background()

	g, raw := c.Classify(ctx, "Perfect ramen at home")
	assert.Equal(t, "cooking", g)
	assert.Equal(t, "Cooking.", raw)

	g, _ = c.Classify(ctx, "Stars and you")
	assert.Equal(t, genre.NotFound, g)
	g, _ = c.Classify(ctx, "Something odd")
	assert.Equal(t, genre.NotFound, g)
	g, raw = c.Classify(ctx, "Anything")
	assert.Equal(t, genre.NotFound, g)
	assert.Contains(t, raw, "offline")

	prompt := fake.Calls()[0].Request.Prompt
	for _, k := range genre.Known() {
		assert.Contains(t, prompt, "- "+k+"\n")
	}
	assert.Contains(t, prompt, `"Perfect ramen at home"`)

	g, _ = c.Classify(ctx, "  ")
	assert.Equal(t, genre.NotFound, g)
	assert.Len(t, fake.Calls(), 4)
}

func TestAgentsDriveOrchestrator(t *testing.T) {
	fake := llm.NewFakeClient()
	o, err := orchestrator.New(
		NewWriter(fake, DefaultWriterConfig, script.MinScore),
		NewValidator(fake, DefaultValidatorConfig),
		NewSummarizer(fake, DefaultSummarizerConfig),
		orchestrator.WithLogger(nil),
	)
	require.NoError(t, err)

	res := o.Run(context.Background(), orchestrator.Request{Topic: "Compound interest", Duration: script.DurationShort})
	assert.True(t, res.Success)
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, 8.5, res.Validation.Total)
	assert.Contains(t, res.Script, "(revised)")
}
