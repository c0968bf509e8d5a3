package llm

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"time"

	llmclient "scriptsmith/internal/llm/client"
)

// RetryRateLimited retries Generate when the provider reports throttling,
// up to maxRetries extra calls. The n-th retry waits 2^n*base plus up to
// base of jitter, or the provider's retry hint when that is longer. Other
// errors are returned immediately.
func RetryRateLimited(maxRetries int, baseDelay time.Duration) Middleware {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		return &retrying{next: next, max: maxRetries, base: baseDelay, sleep: sleepCtx}
	}
}

type retrying struct {
	next  llmclient.LLMClient
	max   int
	base  time.Duration
	sleep func(ctx context.Context, d time.Duration) error
}

func (r *retrying) Name() string { return r.next.Name() }
func (r *retrying) Close() error { return r.next.Close() }

func (r *retrying) Generate(ctx context.Context, req llmclient.Request) (string, error) {
	retries := 0
	for {
		out, err := r.next.Generate(ctx, req)
		if err == nil {
			return out, nil
		}
		if llmclient.IsPermanent(err) || !llmclient.IsRateLimited(err) {
			return "", err
		}
		if retries >= r.max {
			return "", fmt.Errorf("llm: rate limit persisted after %d retries: %w", retries, err)
		}
		retries++
		delay := r.base*time.Duration(1<<retries) + time.Duration(rand.Int64N(int64(r.base)))
		if hint := llmclient.RetryAfter(err); hint > delay {
			delay = hint
		}
		log.Printf("llm rate limited (%s): retry %d/%d after %s", RoleFrom(ctx), retries, r.max, delay.Round(time.Millisecond))
		if err := r.sleep(ctx, delay); err != nil {
			return "", err
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
