package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	"scriptsmith/internal/agents"
	"scriptsmith/internal/config"
	"scriptsmith/internal/handler"
	"scriptsmith/internal/llm"
	llmclient "scriptsmith/internal/llm/client"
	"scriptsmith/internal/orchestrator"
	"scriptsmith/internal/server"
	"scriptsmith/internal/service/generate"
)

type App struct {
	server  *server.Server
	service *generate.Service
	usage   *llm.Usage
	clients []llmclient.LLMClient
	stores  *stores
}

// New wires every component from cfg. Close releases what it opened.
func New(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if logger == nil {
		logger = log.Default()
	}

	a := &App{usage: llm.NewUsage()}
	clients, err := a.initClients(ctx, cfg, logger)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	st, err := initStores(ctx, cfg, logger)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.stores = st

	orch, err := orchestrator.New(
		agents.NewWriter(clients.writer, agents.DefaultWriterConfig, cfg.Run.MinScore),
		agents.NewValidator(clients.validator, agents.DefaultValidatorConfig),
		agents.NewSummarizer(clients.summarizer, agents.DefaultSummarizerConfig),
		orchestrator.WithMaxAttempts(cfg.Run.MaxAttempts),
		orchestrator.WithMinScore(cfg.Run.MinScore),
		orchestrator.WithMaxLoggedInput(cfg.Run.LogInputLimit),
		orchestrator.WithLogger(logger),
	)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to build orchestrator: %w", err)
	}

	svc, err := generate.New(generate.Deps{
		Classifier:    agents.NewGenreClassifier(clients.classifier, agents.DefaultClassifierConfig),
		Patterns:      st.patterns,
		Runner:        orch,
		Scripts:       st.scripts,
		Archive:       st.archive,
		RunTimeout:    cfg.Run.Timeout,
		MaxConcurrent: cfg.Run.WorkerPoolSize,
		Logger:        logger,
	})
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to build generate service: %w", err)
	}
	a.service = svc

	// Routing & Server
	mux := server.NewMux(handler.NewScriptHandler(svc, a.usage), logger)
	a.server = server.New(cfg.Port, mux)
	return a, nil
}

type roleClients struct {
	writer     llmclient.LLMClient
	validator  llmclient.LLMClient
	summarizer llmclient.LLMClient
	classifier llmclient.LLMClient
}

// initClients builds one decorated client per distinct model. Roles sharing
// a model share its rate limiter.
func (a *App) initClients(ctx context.Context, cfg *config.Config, logger *log.Logger) (*roleClients, error) {
	byModel := map[string]llmclient.LLMClient{}
	build := func(model string) (llmclient.LLMClient, error) {
		if c, ok := byModel[model]; ok {
			return c, nil
		}
		var base llmclient.LLMClient
		switch cfg.LLM.Provider {
		case config.ProviderFake:
			base = llm.NewFakeClient()
		default:
			g, err := llmclient.NewGeminiClient(ctx, cfg.LLM.APIKey, model)
			if err != nil {
				return nil, fmt.Errorf("failed to initialize %s client: %w", model, err)
			}
			base = g
		}
		c := llm.Wrap(base,
			llm.WithLogging(logger),
			llm.WithHook(a.usage),
			llm.RetryRateLimited(cfg.LLM.MaxRetries, cfg.LLM.RetryBaseDur),
			llm.RateLimit(cfg.LLM.RPS, cfg.LLM.Burst),
		)
		byModel[model] = c
		a.clients = append(a.clients, c)
		logger.Printf("llm client: %s", c.Name())
		return c, nil
	}

	rc := &roleClients{}
	var err error
	if rc.writer, err = build(cfg.LLM.WriterModel); err != nil {
		return nil, err
	}
	if rc.validator, err = build(cfg.LLM.ValidatorModel); err != nil {
		return nil, err
	}
	if rc.summarizer, err = build(cfg.LLM.SummarizerModel); err != nil {
		return nil, err
	}
	if rc.classifier, err = build(cfg.LLM.ClassifierModel); err != nil {
		return nil, err
	}
	return rc, nil
}

// Service exposes the generate service for in-process callers such as the CLI.
func (a *App) Service() *generate.Service { return a.service }

func (a *App) Usage() *llm.Usage { return a.usage }

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	if a.server == nil {
		return a.Close()
	}
	return errors.Join(a.server.Shutdown(ctx), a.Close())
}

func (a *App) Close() error {
	var errs []error
	for _, c := range a.clients {
		errs = append(errs, c.Close())
	}
	a.clients = nil
	if a.stores != nil {
		errs = append(errs, a.stores.Close())
		a.stores = nil
	}
	return errors.Join(errs...)
}
