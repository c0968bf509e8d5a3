// Package orchestrator drives the draft → evaluate → condense → revise loop
// that turns a title into an accepted script.
package orchestrator

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"scriptsmith/internal/script"
)

// Draft is everything the writer receives for one attempt.
type Draft struct {
	Attempt       int
	Topic         string
	Context       string
	Duration      script.Duration
	StyleHint     string
	Critique      string
	PriorArtifact string
}

// Generator writes a script. Failures must be reported as errors, never as
// an empty script.
type Generator interface {
	Generate(ctx context.Context, d Draft) (string, error)
}

// Evaluator scores a script.
type Evaluator interface {
	Evaluate(ctx context.Context, artifact string, duration script.Duration) (script.Evaluation, error)
}

// Condenser turns a raw evaluation into a short actionable critique.
type Condenser interface {
	Condense(ctx context.Context, rawEvaluation string) (string, error)
}

// Request is the input of one run. StyleHint and Context are handed to
// every draft unchanged.
type Request struct {
	RunID     string
	Topic     string
	Context   string
	Duration  script.Duration
	StyleHint string
	// Genre is the classified genre, empty when none was found. It only
	// affects status messages.
	Genre string
}

// Orchestrator owns no per-run state, so one instance may serve concurrent
// runs. Collaborators must be safe for concurrent use in that case.
type Orchestrator struct {
	gen  Generator
	eval Evaluator
	cond Condenser

	maxAttempts    int
	minScore       float64
	maxLoggedInput int
	now            func() time.Time
	logger         *log.Logger
}

type Option func(*Orchestrator)

// WithMaxAttempts overrides the attempt budget (default script.MaxAttempts).
func WithMaxAttempts(n int) Option {
	return func(o *Orchestrator) { o.maxAttempts = n }
}

// WithMinScore overrides the acceptance threshold (default script.MinScore).
func WithMinScore(s float64) Option {
	return func(o *Orchestrator) { o.minScore = s }
}

// WithMaxLoggedInput caps the size of interaction inputs kept in the
// activity log. Zero or less disables the cap.
func WithMaxLoggedInput(n int) Option {
	return func(o *Orchestrator) { o.maxLoggedInput = n }
}

// WithClock sets the timestamp source of log entries.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithLogger sets where status updates are echoed. Nil discards them.
func WithLogger(l *log.Logger) Option {
	return func(o *Orchestrator) {
		if l == nil {
			l = log.New(io.Discard, "", 0)
		}
		o.logger = l
	}
}

const defaultMaxLoggedInput = 4000

func New(gen Generator, eval Evaluator, cond Condenser, opts ...Option) (*Orchestrator, error) {
	if gen == nil || eval == nil || cond == nil {
		return nil, fmt.Errorf("orchestrator: generator, evaluator and condenser are required")
	}
	o := &Orchestrator{
		gen:            gen,
		eval:           eval,
		cond:           cond,
		maxAttempts:    script.MaxAttempts,
		minScore:       script.MinScore,
		maxLoggedInput: defaultMaxLoggedInput,
		now:            time.Now,
		logger:         log.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.maxAttempts < 1 {
		return nil, fmt.Errorf("orchestrator: max attempts must be at least 1, got %d", o.maxAttempts)
	}
	if o.minScore < 0 || o.minScore > script.MaxTotal {
		return nil, fmt.Errorf("orchestrator: min score %.2f outside [0, %.0f]", o.minScore, script.MaxTotal)
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o, nil
}

// Run executes one generation run. It never fails: collaborator errors end
// the run with Success=false and are described in the logs and validation
// feedback. Cancel ctx to abandon a run; no phase resumes after that.
func (o *Orchestrator) Run(ctx context.Context, req Request) script.Result {
	r := &run{
		o:   o,
		req: req,
		rec: newRecorder(o.now, o.logger, o.maxLoggedInput, req.RunID, ObserverFrom(ctx)),
	}
	return r.execute(ctx)
}
