package generate

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"scriptsmith/internal/agents"
	"scriptsmith/internal/genre"
	"scriptsmith/internal/llm"
	"scriptsmith/internal/orchestrator"
	"scriptsmith/internal/repository/archive"
	"scriptsmith/internal/repository/scripts"
	"scriptsmith/internal/script"
)

type fixedClassifier struct {
	genre string
	calls int
}

func (c *fixedClassifier) Classify(_ context.Context, title string) (string, string) {
	c.calls++
	return c.genre, c.genre
}

type recordingRunner struct {
	req      orchestrator.Request
	deadline bool
	result   script.Result
}

func (r *recordingRunner) Run(ctx context.Context, req orchestrator.Request) script.Result {
	r.req = req
	_, r.deadline = ctx.Deadline()
	return r.result
}

type failingStore struct{ scripts.Store }

func (failingStore) Save(context.Context, scripts.Record) error { return errors.New("disk full") }

func passingResult() script.Result {
	return script.Result{
		Script:     "HOST: final",
		Validation: script.Evaluation{Total: 8.5, Passed: true, Feedback: "Good."},
		Attempts:   2,
		Success:    true,
		Outcome:    script.OutcomePassed,
		Interactions: []script.Interaction{
			{Actor: orchestrator.ActorWriter, Action: "Generate Initial Script", Output: "HOST: final"},
		},
		StatusUpdates: []script.StatusUpdate{{Message: "orchestrator status"}},
	}
}

func newService(t *testing.T, d Deps) *Service {
	t.Helper()
	if d.NewID == nil {
		d.NewID = func() string { return "run-1" }
	}
	svc, err := New(d)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func messages(updates []script.StatusUpdate) []string {
	out := make([]string, 0, len(updates))
	for _, u := range updates {
		out = append(out, u.Message)
	}
	return out
}

func TestGenerateRejectsInvalidInput(t *testing.T) {
	cls := &fixedClassifier{genre: "history"}
	svc := newService(t, Deps{Classifier: cls, Runner: &recordingRunner{}, Scripts: scripts.NewMemoryStore()})

	if _, err := svc.Generate(context.Background(), Request{Title: "  "}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for empty title, got %v", err)
	}
	if _, err := svc.Generate(context.Background(), Request{Title: "x", Duration: "medium"}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for bad duration, got %v", err)
	}
	if cls.calls != 0 {
		t.Fatalf("classifier must not run for invalid requests")
	}
}

func TestGenerateSavesSuccessfulRun(t *testing.T) {
	store := scripts.NewMemoryStore()
	arch := archive.NewMemoryStore()
	runner := &recordingRunner{result: passingResult()}
	svc := newService(t, Deps{
		Classifier: &fixedClassifier{genre: "history"},
		Runner:     runner,
		Scripts:    store,
		Archive:    arch,
	})

	resp, err := svc.Generate(context.Background(), Request{Title: " The fall of Rome ", Data: "476 AD"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if runner.req.Topic != "The fall of Rome" || runner.req.Context != "476 AD" || runner.req.Duration != script.DurationShort {
		t.Fatalf("unexpected run request %+v", runner.req)
	}
	if runner.req.Genre != "history" || !strings.Contains(runner.req.StyleHint, "pivotal moment") {
		t.Fatalf("expected bundled history pattern, got %+v", runner.req)
	}
	if !runner.deadline {
		t.Fatalf("run context must carry a deadline")
	}

	if resp.RunID != "run-1" || resp.Genre != "history" || !resp.Success {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.Interactions[0].Actor != ActorClassifier || len(resp.Interactions) != 2 {
		t.Fatalf("classifier interaction must come first: %+v", resp.Interactions)
	}

	want := []string{
		"Received request...",
		`Received Title: "The fall of Rome"`,
		"Analyzing title genre...",
		`Genre classification result: "history"`,
		`Fetching style pattern for genre "history"...`,
		`Pattern found for "history".`,
		"Initializing content generation...",
		"orchestrator status",
		"Saving successful script to database...",
		"Script saved successfully.",
		"Process finished. Returning results.",
	}
	if diff := cmp.Diff(want, messages(resp.StatusUpdates)); diff != "" {
		t.Fatalf("status updates (-want +got):\n%s", diff)
	}

	rec, err := store.Get(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("saved record: %v", err)
	}
	if rec.Score != 8.5 || rec.Title != "The fall of Rome" || rec.Genre != "history" {
		t.Fatalf("unexpected saved record %+v", rec)
	}

	raw, err := arch.Get(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	var archived map[string]any
	if err := json.Unmarshal(raw, &archived); err != nil {
		t.Fatalf("decode archive: %v", err)
	}
	if archived["runId"] != "run-1" || archived["success"] != true {
		t.Fatalf("unexpected archive %v", archived)
	}
}

func TestGenerateDoesNotSaveFailedRun(t *testing.T) {
	store := scripts.NewMemoryStore()
	res := passingResult()
	res.Success = false
	res.Outcome = script.OutcomeExhausted
	svc := newService(t, Deps{
		Classifier: &fixedClassifier{genre: genre.NotFound},
		Runner:     &recordingRunner{result: res},
		Scripts:    store,
	})

	resp, err := svc.Generate(context.Background(), Request{Title: "Random musings", Duration: "long"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if resp.Success {
		t.Fatalf("expected unsuccessful response")
	}
	if list, _ := store.List(context.Background(), 0); len(list) != 0 {
		t.Fatalf("failed run must not be saved, got %d records", len(list))
	}
	msgs := messages(resp.StatusUpdates)
	if !contains(msgs, "Genre not matched to predefined patterns. Proceeding with general style.") ||
		!contains(msgs, "Script generation did not meet quality threshold or failed.") {
		t.Fatalf("missing status updates: %v", msgs)
	}
}

func TestGenerateSaveFailureIsOnlyReported(t *testing.T) {
	svc := newService(t, Deps{
		Classifier: &fixedClassifier{genre: "vlog"},
		Runner:     &recordingRunner{result: passingResult()},
		Scripts:    failingStore{},
	})

	resp, err := svc.Generate(context.Background(), Request{Title: "A day in Tokyo"})
	if err != nil {
		t.Fatalf("save failure must not fail the request: %v", err)
	}
	if !resp.Success {
		t.Fatalf("run result must be preserved")
	}
	msgs := messages(resp.StatusUpdates)
	if !contains(msgs, "Error saving script to database: disk full") {
		t.Fatalf("save failure not reported: %v", msgs)
	}
	if !contains(msgs, `No specific pattern found for "vlog". Proceeding with general style.`) {
		t.Fatalf("missing pattern status: %v", msgs)
	}
}

func TestGenerateEndToEndWithFakeModel(t *testing.T) {
	fake := llm.NewFakeClient()
	orch, err := orchestrator.New(
		agents.NewWriter(fake, agents.DefaultWriterConfig, script.MinScore),
		agents.NewValidator(fake, agents.DefaultValidatorConfig),
		agents.NewSummarizer(fake, agents.DefaultSummarizerConfig),
		orchestrator.WithLogger(nil),
	)
	if err != nil {
		t.Fatalf("orchestrator: %v", err)
	}

	var live []string
	ctx := orchestrator.WithObserver(context.Background(), orchestrator.ObserverFuncs{
		Status: func(u script.StatusUpdate) { live = append(live, u.Message) },
	})
	svc := newService(t, Deps{
		Classifier: agents.NewGenreClassifier(fake, agents.DefaultClassifierConfig),
		Runner:     orch,
		Scripts:    scripts.NewMemoryStore(),
		RunTimeout: time.Minute,
	})

	resp, err := svc.Generate(ctx, Request{Title: "How vaccines train your immune system"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !resp.Success || resp.Attempts != 2 || resp.Genre != "education" {
		t.Fatalf("unexpected response: success=%v attempts=%d genre=%s", resp.Success, resp.Attempts, resp.Genre)
	}
	if diff := cmp.Diff(messages(resp.StatusUpdates), live); diff != "" {
		t.Fatalf("live statuses differ from response (-response +live):\n%s", diff)
	}
	if got, _ := svc.Recent(context.Background(), 10); len(got) != 1 {
		t.Fatalf("expected one saved script, got %d", len(got))
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
