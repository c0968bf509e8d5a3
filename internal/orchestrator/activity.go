package orchestrator

import (
	"context"
	"fmt"
	"log"
	"time"
	"unicode/utf8"

	"scriptsmith/internal/script"
)

// Actors that appear in the interaction log.
const (
	ActorWriter     = "ScriptWriterAgent"
	ActorValidator  = "ValidatorAgent"
	ActorSummarizer = "SummarizerAgent"
)

// Phase is a state of the run loop.
type Phase string

const (
	PhaseInit       Phase = "init"
	PhaseDrafting   Phase = "drafting"
	PhaseEvaluating Phase = "evaluating"
	PhaseCondensing Phase = "condensing"
	PhasePassed     Phase = "passed"
	PhaseExhausted  Phase = "exhausted"
	PhaseErrored    Phase = "errored"
)

func (p Phase) stage() string {
	switch p {
	case PhaseDrafting:
		return "Script generation"
	case PhaseEvaluating:
		return "Script validation"
	case PhaseCondensing:
		return "Feedback summary"
	default:
		return "Script run"
	}
}

func (p Phase) outcome() script.Outcome {
	switch p {
	case PhasePassed:
		return script.OutcomePassed
	case PhaseErrored:
		return script.OutcomeErrored
	default:
		return script.OutcomeExhausted
	}
}

// Observer receives log entries while a run is in flight. Calls happen on
// the run's goroutine, in log order.
type Observer interface {
	OnStatus(script.StatusUpdate)
	OnInteraction(script.Interaction)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	Status      func(script.StatusUpdate)
	Interaction func(script.Interaction)
}

func (f ObserverFuncs) OnStatus(s script.StatusUpdate) {
	if f.Status != nil {
		f.Status(s)
	}
}

func (f ObserverFuncs) OnInteraction(i script.Interaction) {
	if f.Interaction != nil {
		f.Interaction(i)
	}
}

type observerKey struct{}

// WithObserver attaches an observer to the runs started with ctx.
func WithObserver(ctx context.Context, obs Observer) context.Context {
	return context.WithValue(ctx, observerKey{}, obs)
}

// ObserverFrom returns the observer attached to ctx, or nil.
func ObserverFrom(ctx context.Context) Observer {
	if ctx == nil {
		return nil
	}
	obs, _ := ctx.Value(observerKey{}).(Observer)
	return obs
}

// recorder is the activity log of a single run.
type recorder struct {
	now      func() time.Time
	logger   *log.Logger
	limit    int
	runID    string
	observer Observer

	interactions []script.Interaction
	statuses     []script.StatusUpdate
}

func newRecorder(now func() time.Time, logger *log.Logger, limit int, runID string, obs Observer) *recorder {
	return &recorder{now: now, logger: logger, limit: limit, runID: runID, observer: obs}
}

func (r *recorder) status(format string, args ...any) {
	s := script.StatusUpdate{Message: fmt.Sprintf(format, args...), Timestamp: r.now()}
	r.statuses = append(r.statuses, s)
	if r.logger != nil {
		if r.runID != "" {
			r.logger.Printf("[status] %s %s: %s", s.Timestamp.Format("15:04:05"), r.runID, s.Message)
		} else {
			r.logger.Printf("[status] %s %s", s.Timestamp.Format("15:04:05"), s.Message)
		}
	}
	if r.observer != nil {
		r.observer.OnStatus(s)
	}
}

func (r *recorder) interaction(actor, action, input, output string) {
	i := script.Interaction{
		Actor:     actor,
		Action:    action,
		Input:     capText(input, r.limit),
		Output:    output,
		Timestamp: r.now(),
	}
	r.interactions = append(r.interactions, i)
	if r.observer != nil {
		r.observer.OnInteraction(i)
	}
}

// capText keeps at most limit bytes of s, cut on a rune boundary.
func capText(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return fmt.Sprintf("%s\n...[truncated %d bytes]", s[:cut], len(s)-cut)
}
