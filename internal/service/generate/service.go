// Package generate handles one script request end to end: genre
// classification, style pattern lookup, the run loop, persistence and the
// run archive.
package generate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"scriptsmith/internal/genre"
	"scriptsmith/internal/orchestrator"
	"scriptsmith/internal/repository/archive"
	"scriptsmith/internal/repository/scripts"
	"scriptsmith/internal/script"
)

// ErrInvalidRequest marks requests rejected before any model call.
var ErrInvalidRequest = errors.New("invalid request")

const (
	ActorClassifier     = "GenreClassifierAgent"
	DefaultRunTimeout   = 5 * time.Minute
	classifyAction      = "Classify Genre"
	archiveWriteTimeout = 10 * time.Second
)

// Classifier returns a known genre or genre.NotFound, plus the raw reply.
type Classifier interface {
	Classify(ctx context.Context, title string) (string, string)
}

// Runner executes the draft/evaluate loop.
type Runner interface {
	Run(ctx context.Context, req orchestrator.Request) script.Result
}

type Request struct {
	Title    string `json:"title"`
	Data     string `json:"data,omitempty"`
	Duration string `json:"duration,omitempty"`
}

// Response is the run result plus request level fields.
type Response struct {
	RunID string `json:"runId"`
	Genre string `json:"genre"`
	script.Result
}

type Deps struct {
	Classifier Classifier
	Patterns   genre.PatternStore
	Runner     Runner
	Scripts    scripts.Store
	// Archive is optional.
	Archive    archive.Store
	RunTimeout time.Duration
	Logger     *log.Logger
	Now        func() time.Time
	NewID      func() string

	// MaxConcurrent caps runs in flight; zero means unlimited.
	MaxConcurrent int
}

type Service struct {
	classifier Classifier
	patterns   genre.PatternStore
	runner     Runner
	scripts    scripts.Store
	archive    archive.Store
	runTimeout time.Duration
	slots      *semaphore.Weighted
	logger     *log.Logger
	now        func() time.Time
	newID      func() string
}

func New(d Deps) (*Service, error) {
	if d.Classifier == nil || d.Runner == nil || d.Scripts == nil {
		return nil, fmt.Errorf("generate: classifier, runner and script store are required")
	}
	s := &Service{
		classifier: d.Classifier,
		patterns:   d.Patterns,
		runner:     d.Runner,
		scripts:    d.Scripts,
		archive:    d.Archive,
		runTimeout: d.RunTimeout,
		logger:     d.Logger,
		now:        d.Now,
		newID:      d.NewID,
	}
	if d.MaxConcurrent > 0 {
		s.slots = semaphore.NewWeighted(int64(d.MaxConcurrent))
	}
	if s.patterns == nil {
		s.patterns = genre.DefaultPatterns()
	}
	if s.runTimeout <= 0 {
		s.runTimeout = DefaultRunTimeout
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard, "", 0)
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s, nil
}

// Generate runs one request. Quality shortfalls and model failures are
// reported in the response. Errors are returned for invalid input and for
// a ctx that ends while waiting for a run slot.
func (s *Service) Generate(ctx context.Context, req Request) (*Response, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidRequest)
	}
	duration, ok := script.ParseDuration(req.Duration)
	if !ok {
		return nil, fmt.Errorf("%w: duration must be %q or %q, got %q", ErrInvalidRequest, script.DurationShort, script.DurationLong, req.Duration)
	}

	if s.slots != nil {
		if err := s.slots.Acquire(ctx, 1); err != nil {
			return nil, fmt.Errorf("wait for run slot: %w", err)
		}
		defer s.slots.Release(1)
	}

	runID := s.newID()
	obs := orchestrator.ObserverFrom(ctx)
	var statuses []script.StatusUpdate
	status := func(format string, args ...any) {
		u := script.StatusUpdate{Message: fmt.Sprintf(format, args...), Timestamp: s.now()}
		statuses = append(statuses, u)
		s.logger.Printf("[api status] %s: %s", runID, u.Message)
		if obs != nil {
			obs.OnStatus(u)
		}
	}

	status("Received request...")
	status("Received Title: %q", title)

	status("Analyzing title genre...")
	g, raw := s.classifier.Classify(ctx, title)
	classified := script.Interaction{
		Actor:     ActorClassifier,
		Action:    classifyAction,
		Input:     title,
		Output:    raw,
		Timestamp: s.now(),
	}
	if obs != nil {
		obs.OnInteraction(classified)
	}
	status("Genre classification result: %q", g)

	style := ""
	known := g != genre.NotFound
	if known {
		status("Fetching style pattern for genre %q...", g)
		text, err := s.patterns.Lookup(ctx, g)
		if err != nil {
			s.logger.Printf("pattern lookup (%s): %v", g, err)
		}
		style = strings.TrimSpace(text)
		if style != "" {
			status("Pattern found for %q.", g)
		} else {
			status("No specific pattern found for %q. Proceeding with general style.", g)
		}
	} else {
		status("Genre not matched to predefined patterns. Proceeding with general style.")
	}

	status("Initializing content generation...")
	runReq := orchestrator.Request{
		RunID:     runID,
		Topic:     title,
		Context:   strings.TrimSpace(req.Data),
		Duration:  duration,
		StyleHint: style,
	}
	if known {
		runReq.Genre = g
	}
	runCtx, cancel := context.WithTimeout(ctx, s.runTimeout)
	res := s.runner.Run(runCtx, runReq)
	cancel()

	pre := statuses
	statuses = nil
	if res.Success {
		status("Saving successful script to database...")
		rec := scripts.Record{
			ID:         runID,
			Title:      title,
			Genre:      runReq.Genre,
			Duration:   duration,
			Script:     res.Script,
			Score:      res.Validation.Total,
			Attempts:   res.Attempts,
			Validation: res.Validation,
			CreatedAt:  s.now().UTC(),
		}
		if err := s.scripts.Save(ctx, rec); err != nil {
			status("Error saving script to database: %v", err)
		} else {
			status("Script saved successfully.")
		}
	} else {
		status("Script generation did not meet quality threshold or failed.")
	}
	status("Process finished. Returning results.")

	merged := make([]script.StatusUpdate, 0, len(pre)+len(res.StatusUpdates)+len(statuses))
	merged = append(merged, pre...)
	merged = append(merged, res.StatusUpdates...)
	merged = append(merged, statuses...)
	res.StatusUpdates = merged
	res.Interactions = append([]script.Interaction{classified}, res.Interactions...)

	resp := &Response{RunID: runID, Genre: g, Result: res}
	s.archiveRun(ctx, resp)
	return resp, nil
}

// archiveRun is best-effort; failures are only logged.
func (s *Service) archiveRun(ctx context.Context, resp *Response) {
	if s.archive == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveWriteTimeout)
	defer cancel()
	if err := archive.PutJSON(ctx, s.archive, resp.RunID, resp); err != nil {
		s.logger.Printf("archive run %s: %v", resp.RunID, err)
	}
}

// Recent returns the newest saved scripts.
func (s *Service) Recent(ctx context.Context, limit int) ([]scripts.Record, error) {
	return s.scripts.List(ctx, limit)
}

// Script returns one saved script.
func (s *Service) Script(ctx context.Context, id string) (scripts.Record, error) {
	return s.scripts.Get(ctx, id)
}

// Archived returns the raw archive document of a run.
func (s *Service) Archived(ctx context.Context, runID string) ([]byte, error) {
	if s.archive == nil {
		return nil, archive.ErrNotFound
	}
	return s.archive.Get(ctx, runID)
}
