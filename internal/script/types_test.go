package script

import (
	"errors"
	"io"
	"testing"
)

func TestParseDuration(t *testing.T) {
	cases := map[string]Duration{
		"":       DurationShort,
		"short":  DurationShort,
		" LONG ": DurationLong,
	}
	for in, want := range cases {
		got, ok := ParseDuration(in)
		if !ok || got != want {
			t.Fatalf("ParseDuration(%q) = %q, %v; want %q", in, got, ok, want)
		}
	}
	if _, ok := ParseDuration("medium"); ok {
		t.Fatalf("expected medium to be rejected")
	}
}

func TestScoresSum(t *testing.T) {
	s := Scores{Hook: 2, Value: 2.5, Retention: 1.5, CTA: 1}
	if s.Sum() != 7 {
		t.Fatalf("unexpected sum: %v", s.Sum())
	}
}

func TestErrorsUnwrap(t *testing.T) {
	var genErr *GenerationError
	err := error(&GenerationError{Err: io.ErrUnexpectedEOF})
	if !errors.As(err, &genErr) || !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("generation error does not unwrap: %v", err)
	}
	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		t.Fatalf("generation error matched evaluation error")
	}
	if (&CondenseError{Err: io.EOF}).Error() != "condense feedback: EOF" {
		t.Fatalf("unexpected message")
	}
}
