package llm

import (
	"context"

	llmclient "scriptsmith/internal/llm/client"
)

// Middleware decorates an LLMClient to inject cross-cutting concerns
// (rate limiting, retries, logging, hooks, etc.).
type Middleware func(llmclient.LLMClient) llmclient.LLMClient

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner llmclient.LLMClient, mws ...Middleware) llmclient.LLMClient {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] == nil {
			continue
		}
		out = mws[i](out)
	}
	return out
}

// ---- Role tag via context

type ctxKeyRole struct{}

// WithRole tags the context with the agent role issuing the call
// (writer, validator, summarizer, classifier).
func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, ctxKeyRole{}, role)
}

// RoleFrom returns the role stored in the context.
func RoleFrom(ctx context.Context) string {
	if v := ctx.Value(ctxKeyRole{}); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return "unknown"
}
