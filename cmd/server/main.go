// Package main implements the entry point for the cizu API server, which
// generates Chinese vocabulary topics with an LLM and reports their progress.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/phrazzld/cizu-api/internal/config"
	"github.com/phrazzld/cizu-api/internal/platform/logger"
	"github.com/phrazzld/cizu-api/internal/platform/postgres"
	"github.com/phrazzld/cizu-api/internal/redact"
)

type options struct {
	envFile   string
	migrate   string
	skipServe bool
}

func parseFlags(args []string) (options, error) {
	var opts options
	flags := flag.NewFlagSet("server", flag.ContinueOnError)
	flags.StringVar(&opts.envFile, "env-file", ".env", "dotenv file to load before reading configuration")
	flags.StringVar(&opts.migrate, "migrate", "",
		"run a migration command (up, down, reset, status, version) and exit")
	flags.BoolVar(&opts.skipServe, "migrate-only", false, "apply pending migrations and exit")
	if err := flags.Parse(args); err != nil {
		return options{}, err
	}
	if opts.skipServe && opts.migrate == "" {
		opts.migrate = postgres.MigrateUp
	}
	return opts, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	cfg, appLogger, err := initializeApp(opts)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if err := run(context.Background(), cfg, appLogger, opts); err != nil {
		appLogger.Error("server exited with error", redact.ErrorAttr(err))
		os.Exit(1)
	}
}

// initializeApp loads the environment file, configuration and logger.
func initializeApp(opts options) (*config.Config, *slog.Logger, error) {
	if err := loadEnvFile(opts.envFile); err != nil {
		return nil, nil, err
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	appLogger.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("llm_provider", cfg.LLM.Provider),
		slog.String("llm_model", cfg.LLM.ModelName))
	return cfg, appLogger, nil
}

// loadEnvFile reads a dotenv file if present. Variables already set in the
// environment win.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func run(ctx context.Context, cfg *config.Config, appLogger *slog.Logger, opts options) error {
	db, err := setupAppDatabase(ctx, cfg, appLogger)
	if err != nil {
		return err
	}

	if opts.migrate != "" {
		defer db.Close()
		return postgres.Migrate(ctx, db, opts.migrate, appLogger)
	}

	if err := postgres.Migrate(ctx, db, postgres.MigrateUp, appLogger); err != nil {
		_ = db.Close()
		return err
	}

	app, err := newApplication(ctx, cfg, appLogger, db)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.startHTTPServer(ctx, app.router())
}
