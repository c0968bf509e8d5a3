package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"scriptsmith/internal/script"
)

var errEmptyCritique = errors.New("empty critique")

// run is the state of one Orchestrator.Run call.
type run struct {
	o     *Orchestrator
	req   Request
	rec   *recorder
	phase Phase

	attempts int
	// latest is the newest artifact, evaluated or not.
	latest string
	// accepted is the artifact that goes with evaluated.
	accepted  string
	evaluated *script.Evaluation
	history   []script.AttemptRecord
}

func (r *run) execute(ctx context.Context) script.Result {
	o := r.o
	r.phase = PhaseInit
	r.rec.status("Starting script generation for %q...", r.req.Topic)
	r.announceStyle()

	critique := ""
	for r.attempts < o.maxAttempts {
		r.attempts++
		n := r.attempts

		r.phase = PhaseDrafting
		r.rec.status("Script generation attempt %d/%d...", n, o.maxAttempts)
		prior := ""
		if n > 1 {
			prior = r.latest
		}
		artifact, err := r.draft(ctx, n, critique, prior)
		if err != nil {
			return r.fail(err)
		}
		r.latest = artifact

		r.phase = PhaseEvaluating
		r.rec.status("Evaluating script (attempt %d)...", n)
		ev, err := r.evaluate(ctx, n, artifact)
		if err != nil {
			return r.fail(err)
		}
		ev.Passed = ev.Total >= o.minScore
		r.accepted = artifact
		r.evaluated = &ev
		r.history = append(r.history, script.AttemptRecord{
			Attempt:    n,
			Script:     artifact,
			Critique:   critique,
			Evaluation: ev,
		})

		if ev.Passed {
			r.rec.status("Script approved with score %.1f/10.", ev.Total)
			return r.finish(PhasePassed)
		}
		r.rec.status("Script needs improvement (score %.1f/10): %s", ev.Total, ev.Feedback)
		if n >= o.maxAttempts {
			break
		}

		r.phase = PhaseCondensing
		critique = r.condense(ctx, ev)
	}

	r.rec.status("Maximum attempts (%d) reached. Returning the last script.", o.maxAttempts)
	return r.finish(PhaseExhausted)
}

func (r *run) announceStyle() {
	switch {
	case strings.TrimSpace(r.req.StyleHint) != "" && r.req.Genre != "":
		r.rec.status("Applying %q genre style pattern.", r.req.Genre)
	case strings.TrimSpace(r.req.StyleHint) != "":
		r.rec.status("Applying custom style pattern.")
	case r.req.Genre != "":
		r.rec.status("Genre %q detected, but no specific pattern found. Using general style.", r.req.Genre)
	default:
		r.rec.status("Using general script writing style (no genre pattern applied).")
	}
}

func (r *run) draft(ctx context.Context, n int, critique, prior string) (string, error) {
	action := "Generate Initial Script"
	if prior != "" {
		action = "Revise Script"
		r.rec.status("Revising script with feedback...")
	} else {
		r.rec.status("Drafting initial script...")
	}
	d := Draft{
		Attempt:       n,
		Topic:         r.req.Topic,
		Context:       r.req.Context,
		Duration:      r.req.Duration,
		StyleHint:     r.req.StyleHint,
		Critique:      critique,
		PriorArtifact: prior,
	}
	input := draftInput(d)

	if err := ctx.Err(); err != nil {
		err = &script.GenerationError{Err: err}
		r.rec.interaction(ActorWriter, action, input, "ERROR: "+err.Error())
		return "", err
	}
	artifact, err := r.o.gen.Generate(ctx, d)
	if err == nil && strings.TrimSpace(artifact) == "" {
		err = errors.New("generator returned an empty script")
	}
	if err != nil {
		var ge *script.GenerationError
		if !errors.As(err, &ge) {
			err = &script.GenerationError{Err: err}
		}
		r.rec.interaction(ActorWriter, action, input, "ERROR: "+err.Error())
		return "", err
	}
	r.rec.interaction(ActorWriter, action, input, artifact)
	r.rec.status("Script draft complete.")
	return artifact, nil
}

func (r *run) evaluate(ctx context.Context, n int, artifact string) (script.Evaluation, error) {
	input := fmt.Sprintf("Duration: %s\nScript: [script: attempt %d]", r.req.Duration, n)
	if err := ctx.Err(); err != nil {
		err = &script.EvaluationError{Err: err}
		r.rec.interaction(ActorValidator, "Validate Script", input, "ERROR: "+err.Error())
		return script.Evaluation{}, err
	}
	ev, err := r.o.eval.Evaluate(ctx, artifact, r.req.Duration)
	if err != nil {
		var ee *script.EvaluationError
		if !errors.As(err, &ee) {
			err = &script.EvaluationError{Err: err}
		}
		r.rec.interaction(ActorValidator, "Validate Script", input, "ERROR: "+err.Error())
		return script.Evaluation{}, err
	}
	out := fmt.Sprintf("Score: %.1f\nVerdict: %s\nFull Eval:\n%s", ev.Total, ev.Feedback, ev.FullEvaluation)
	r.rec.interaction(ActorValidator, "Validate Script", input, out)
	return ev, nil
}

// condense never fails the run: on error it returns a critique derived from
// the evaluation itself.
func (r *run) condense(ctx context.Context, ev script.Evaluation) string {
	r.rec.status("Analyzing feedback for improvements...")
	var (
		critique string
		err      = ctx.Err()
	)
	if err == nil {
		critique, err = r.o.cond.Condense(ctx, ev.FullEvaluation)
	}
	if err == nil && strings.TrimSpace(critique) == "" {
		err = errEmptyCritique
	}
	if err != nil {
		var ce *script.CondenseError
		if !errors.As(err, &ce) {
			err = &script.CondenseError{Err: err}
		}
		r.rec.interaction(ActorSummarizer, "Summarize Feedback", ev.FullEvaluation, "ERROR: "+err.Error())
		r.rec.status("Error summarizing feedback: %v. Continuing with a fallback summary.", err)
		return fallbackCritique(ev)
	}
	r.rec.interaction(ActorSummarizer, "Summarize Feedback", ev.FullEvaluation, critique)
	r.rec.status("Feedback analysis complete.")
	return critique
}

func fallbackCritique(ev script.Evaluation) string {
	return fmt.Sprintf("Feedback summary failed. Focus on improving based on previous score: %.1f/10. Issues likely related to: %s",
		ev.Total, ev.Feedback)
}

// draftInput is the logged form of a draft. The prior artifact is already
// in the log as the previous attempt's output, so only a marker is kept.
func draftInput(d Draft) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", d.Topic)
	if strings.TrimSpace(d.Context) != "" {
		fmt.Fprintf(&b, "Data: %s\n", d.Context)
	}
	fmt.Fprintf(&b, "Duration: %s\n", d.Duration)
	if strings.TrimSpace(d.StyleHint) != "" {
		fmt.Fprintf(&b, "Genre Pattern:\n%s\n", strings.TrimSpace(d.StyleHint))
	}
	if d.Critique != "" {
		fmt.Fprintf(&b, "Summarized Feedback:\n%s\n", d.Critique)
	}
	if d.PriorArtifact != "" {
		fmt.Fprintf(&b, "Previous Script (to revise): [previous script: attempt %d]\n", d.Attempt-1)
	}
	return strings.TrimRight(b.String(), "\n")
}

// fail ends the run from the phase whose call failed.
func (r *run) fail(err error) script.Result {
	r.rec.status("%s failed on attempt %d: %v", r.phase.stage(), r.attempts, err)
	return r.finish(PhaseErrored)
}

func (r *run) finish(p Phase) script.Result {
	r.phase = p
	res := script.Result{
		Attempts: r.attempts,
		Success:  p == PhasePassed,
		Outcome:  p.outcome(),
		History:  append([]script.AttemptRecord(nil), r.history...),
	}
	switch {
	case r.evaluated != nil:
		res.Script = r.accepted
		res.Validation = *r.evaluated
	default:
		res.Script = r.latest
		reason := "Validation did not complete."
		if len(r.rec.statuses) > 0 {
			reason = r.rec.statuses[len(r.rec.statuses)-1].Message
		}
		res.Validation = script.FailedEvaluation(reason)
	}
	r.rec.status("Script generation process complete (%s).", res.Outcome)
	res.Interactions = append([]script.Interaction(nil), r.rec.interactions...)
	res.StatusUpdates = append([]script.StatusUpdate(nil), r.rec.statuses...)
	return res
}
