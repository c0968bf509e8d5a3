package llm

import (
	"context"

	llmclient "scriptsmith/internal/llm/client"
)

// CallHook observes every request that passes through WithHook.
type CallHook interface {
	Before(ctx context.Context, role string, req llmclient.Request)
	After(ctx context.Context, role string, out string, err error)
}

// WithHook calls hook.Before/After around Generate. A nil hook is a no-op.
func WithHook(hook CallHook) Middleware {
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		if hook == nil {
			return next
		}
		return &hooked{next: next, hook: hook}
	}
}

type hooked struct {
	next llmclient.LLMClient
	hook CallHook
}

func (h *hooked) Name() string { return h.next.Name() }
func (h *hooked) Close() error { return h.next.Close() }

func (h *hooked) Generate(ctx context.Context, req llmclient.Request) (string, error) {
	// best-effort; hook implementations must not panic
	h.hook.Before(ctx, RoleFrom(ctx), req)
	out, err := h.next.Generate(ctx, req)
	h.hook.After(ctx, RoleFrom(ctx), out, err)
	return out, err
}
