package script

import (
	"strings"
	"time"
)

const (
	// MinScore is the total a script needs to be accepted.
	MinScore = 8.0
	// MaxAttempts caps the draft/evaluate rounds of one run.
	MaxAttempts = 5
	// MaxSubScore is the ceiling of each evaluation dimension.
	MaxSubScore = 2.5
	// MaxTotal is the ceiling of the summed score.
	MaxTotal = 4 * MaxSubScore
)

// Duration selects the target format of a script.
type Duration string

const (
	DurationShort Duration = "short"
	DurationLong  Duration = "long"
)

// ParseDuration maps free-form input to a Duration. Empty input means short.
func ParseDuration(s string) (Duration, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(DurationShort):
		return DurationShort, true
	case string(DurationLong):
		return DurationLong, true
	default:
		return "", false
	}
}

// Describe returns the human form used in prompts.
func (d Duration) Describe() string {
	if d == DurationLong {
		return "long (typically 5-15 minutes)"
	}
	return "short (under 60 seconds)"
}

// Scores are the four evaluation dimensions, each in [0, MaxSubScore].
type Scores struct {
	Hook      float64 `json:"hook"`
	Value     float64 `json:"value"`
	Retention float64 `json:"retention"`
	CTA       float64 `json:"cta"`
}

// Sum adds the four dimensions.
func (s Scores) Sum() float64 {
	return s.Hook + s.Value + s.Retention + s.CTA
}

// Evaluation is the outcome of scoring one script.
type Evaluation struct {
	Scores         Scores  `json:"scores"`
	Total          float64 `json:"total"`
	Passed         bool    `json:"passed"`
	Feedback       string  `json:"feedback"`
	FullEvaluation string  `json:"fullEvaluation"`
}

// FailedEvaluation is the zeroed evaluation reported when no real one exists.
func FailedEvaluation(reason string) Evaluation {
	return Evaluation{
		Feedback:       reason,
		FullEvaluation: reason,
	}
}

// Interaction records one call to a collaborator.
type Interaction struct {
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Input     string    `json:"input,omitempty"`
	Output    string    `json:"output"`
	Timestamp time.Time `json:"timestamp"`
}

// StatusUpdate is a human readable progress line.
type StatusUpdate struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// AttemptRecord captures one draft/evaluate round. Records are appended in
// attempt order and never modified afterwards.
type AttemptRecord struct {
	Attempt    int        `json:"attempt"`
	Script     string     `json:"script"`
	Critique   string     `json:"critique,omitempty"`
	Evaluation Evaluation `json:"evaluation"`
}

// Outcome is the terminal state of a run.
type Outcome string

const (
	OutcomePassed    Outcome = "passed"
	OutcomeExhausted Outcome = "exhausted"
	OutcomeErrored   Outcome = "errored"
)

// Result is everything one run produced.
type Result struct {
	Script        string          `json:"script"`
	Validation    Evaluation      `json:"validation"`
	Attempts      int             `json:"attempts"`
	Success       bool            `json:"success"`
	Outcome       Outcome         `json:"outcome"`
	Interactions  []Interaction   `json:"interactions"`
	StatusUpdates []StatusUpdate  `json:"statusUpdates"`
	History       []AttemptRecord `json:"history,omitempty"`
}
