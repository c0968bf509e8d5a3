package llmclient

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Request is a single text completion call.
type Request struct {
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// LLMClient defines the interface for text generation providers.
type LLMClient interface {
	Name() string
	Close() error
	Generate(ctx context.Context, req Request) (string, error)
}

var ErrEmptyResponse = errors.New("llm: empty response from model")

// PermanentError indicates an error that will not resolve with retries.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

// RateLimitError marks an upstream throttling response. RetryAfter is the
// provider's hint, zero when none was given.
type RateLimitError struct {
	Err        error
	RetryAfter time.Duration
}

var retryDelayRe = regexp.MustCompile(`retryDelay"?\s*[:=]\s*"?(\d+(?:\.\d+)?)s`)

// RetryAfterHint extracts a RetryInfo delay such as retryDelay:"29s" from an
// error message.
func RetryAfterHint(err error) time.Duration {
	if err == nil {
		return 0
	}
	m := retryDelayRe.FindStringSubmatch(err.Error())
	if m == nil {
		return 0
	}
	secs, perr := strconv.ParseFloat(m[1], 64)
	if perr != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}

// RetryAfter returns the provider hint carried by err, if any.
func RetryAfter(err error) time.Duration {
	var rlErr *RateLimitError
	if errors.As(err, &rlErr) {
		return rlErr.RetryAfter
	}
	return 0
}

func (e *RateLimitError) Error() string { return "rate limited: " + e.Err.Error() }
func (e *RateLimitError) Unwrap() error { return e.Err }

// IsPermanent reports whether err must not be retried.
func IsPermanent(err error) bool {
	var pErr *PermanentError
	return errors.As(err, &pErr)
}

// IsRateLimited reports whether err came from upstream throttling. Providers
// that do not return a RateLimitError are matched on the message.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	var rlErr *RateLimitError
	if errors.As(err, &rlErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "resource_exhausted")
}
