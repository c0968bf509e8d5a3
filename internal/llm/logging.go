package llm

import (
	"context"
	"log"
	"time"

	llmclient "scriptsmith/internal/llm/client"
)

// WithLogging logs request size, latency and errors. Provide a custom logger
// or nil to use log.Default().
func WithLogging(logger *log.Logger) Middleware {
	if logger == nil {
		logger = log.Default()
	}
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		return &logging{next: next, log: logger}
	}
}

type logging struct {
	next llmclient.LLMClient
	log  *log.Logger
}

func (l *logging) Name() string { return l.next.Name() }
func (l *logging) Close() error { return l.next.Close() }

func (l *logging) Generate(ctx context.Context, req llmclient.Request) (string, error) {
	role := RoleFrom(ctx)
	l.log.Printf("llm request (%s, %s): %d bytes", role, l.next.Name(), len(req.Prompt))
	start := time.Now()
	out, err := l.next.Generate(ctx, req)
	if err != nil {
		l.log.Printf("llm error (%s): %v", role, err)
		return out, err
	}
	l.log.Printf("llm response (%s): %d bytes in %s", role, len(out), time.Since(start).Round(time.Millisecond))
	return out, nil
}
