package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/cizu-api/internal/api"
	"github.com/phrazzld/cizu-api/internal/config"
	"github.com/phrazzld/cizu-api/internal/generation"
	"github.com/phrazzld/cizu-api/internal/platform/anthropic"
	"github.com/phrazzld/cizu-api/internal/platform/gemini"
	"github.com/phrazzld/cizu-api/internal/platform/openai"
	"github.com/phrazzld/cizu-api/internal/platform/postgres"
	"github.com/phrazzld/cizu-api/internal/redact"
	"github.com/phrazzld/cizu-api/internal/service/topicgen"
	"github.com/phrazzld/cizu-api/internal/task"
)

// application holds the wired components of a running server.
type application struct {
	config       *config.Config
	logger       *slog.Logger
	db           *sql.DB
	topicService topicgen.Service
	taskRunner   *task.TaskRunner
	sweeper      *task.ResumeSweeper
}

// newApplication wires stores, the LLM generator, the orchestrator and the
// background task machinery, then starts the task runner and resume sweeper.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
) (*application, error) {
	generator, err := newGenerator(ctx, cfg.LLM, logger)
	if err != nil {
		return nil, err
	}

	topicStore := postgres.NewPostgresTopicStore(db, logger)
	wordStore := postgres.NewPostgresWordStore(db, logger)
	sentenceStore := postgres.NewPostgresSentenceStore(db, logger)

	orchestrator, err := topicgen.NewOrchestrator(
		topicStore,
		wordStore,
		sentenceStore,
		generator,
		topicgen.ConfigFrom(cfg.Generation),
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create topic orchestrator: %w", err)
	}

	factory := task.NewTopicGenerationTaskFactory(orchestrator, logger)
	registry := task.NewRegistry()
	registry.Register(task.TaskTypeTopicGeneration, factory)

	taskStore := postgres.NewPostgresTaskStore(db, registry, logger)
	runner := task.NewTaskRunner(taskStore, task.TaskRunnerConfig{
		WorkerCount:  cfg.Task.WorkerCount,
		QueueSize:    cfg.Task.QueueSize,
		StuckTaskAge: cfg.Task.StuckTaskAge,
	}, logger)
	if err := runner.Start(); err != nil {
		return nil, fmt.Errorf("failed to start task runner: %w", err)
	}

	sweeper := task.NewResumeSweeper(topicStore, factory, runner, task.ResumeSweeperConfig{
		Interval:   cfg.Generation.ResumeInterval,
		StaleAfter: cfg.Generation.StaleAfter,
		MaxResumes: cfg.Generation.MaxResumes,
	}, logger)
	if err := sweeper.Start(ctx); err != nil {
		runner.Stop()
		return nil, fmt.Errorf("failed to start resume sweeper: %w", err)
	}

	service, err := topicgen.NewService(topicStore, runner, factory, cfg.Generation.StaleAfter, logger)
	if err != nil {
		sweeper.Stop()
		runner.Stop()
		return nil, fmt.Errorf("failed to create topic service: %w", err)
	}

	return &application{
		config:       cfg,
		logger:       logger,
		db:           db,
		topicService: service,
		taskRunner:   runner,
		sweeper:      sweeper,
	}, nil
}

// newGenerator builds the LLM client selected by the configured provider.
func newGenerator(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (generation.Generator, error) {
	prompts, err := generation.LoadPrompts(cfg.WordPromptPath, cfg.SentencePromptPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load prompt templates: %w", err)
	}

	llmLogger := logger.With(slog.String("component", "llm_generator"), slog.String("provider", cfg.Provider))
	switch cfg.Provider {
	case config.ProviderGemini:
		g, err := gemini.NewGenerator(ctx, llmLogger, cfg, prompts)
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini generator: %w", err)
		}
		return g, nil
	case config.ProviderOpenAI:
		g, err := openai.NewGenerator(llmLogger, cfg, prompts)
		if err != nil {
			return nil, fmt.Errorf("failed to create openai generator: %w", err)
		}
		return g, nil
	case config.ProviderAnthropic:
		g, err := anthropic.NewGenerator(llmLogger, cfg, prompts)
		if err != nil {
			return nil, fmt.Errorf("failed to create anthropic generator: %w", err)
		}
		return g, nil
	default:
		return nil, fmt.Errorf("%w: unsupported llm provider %q", generation.ErrInvalidConfig, cfg.Provider)
	}
}

func (app *application) router() http.Handler {
	return api.NewRouter(api.NewTopicHandler(app.topicService, app.logger), app.logger)
}

// cleanup stops background work and closes the database.
func (app *application) cleanup() {
	if app.sweeper != nil {
		app.sweeper.Stop()
	}
	if app.taskRunner != nil {
		app.logger.Info("stopping task runner")
		app.taskRunner.Stop()
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
			app.logger.Error("failed to close database connection", redact.ErrorAttr(err))
		}
	}
}
