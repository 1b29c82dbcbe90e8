package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"churchadmin/internal/config"
	"churchadmin/internal/database"
	"churchadmin/internal/handlers"
	"churchadmin/internal/logging"
	"churchadmin/internal/templates"
)

const (
	stepDatabase   = "Database connection"
	stepMigrations = "Running migrations"
	stepTemplates  = "Loading templates"
	stepServices   = "Initializing services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("insecure configuration", zap.Error(err))
	}
	if names := cfg.DefaultSecrets(); len(names) > 0 {
		logger.Warn("using placeholder secrets, set them before exposing the server", zap.Strings("settings", names))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Listen straight away so the startup page answers while the database migrates.
	startup := handlers.NewStartup(stepDatabase, stepMigrations, stepTemplates, stepServices)
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      startup,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	db, err := initialize(ctx, cfg, startup, logger)
	if err != nil {
		logger.Fatal("startup failed", zap.Error(err))
	}
	defer db.Close()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		logger.Error("server failed", zap.Error(err))
	}

	logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// initialize opens the database, builds the application and hands it to startup
func initialize(ctx context.Context, cfg *config.Config, startup *handlers.Startup, logger *zap.Logger) (*database.DB, error) {
	startup.SetCurrentStep(stepDatabase)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	logger.Info("database connection established", zap.String("type", cfg.DatabaseType))
	startup.CompleteStep(stepDatabase)

	startup.SetCurrentStep(stepMigrations)
	if err := db.RunMigrations(ctx, cfg.MigrationsPath, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	startup.CompleteStep(stepMigrations)

	startup.SetCurrentStep(stepTemplates)
	tmpl, err := templates.Load()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}
	startup.CompleteStep(stepTemplates)

	startup.SetCurrentStep(stepServices)
	handler, err := buildApp(ctx, cfg, db, tmpl, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	startup.MarkReady(handler)
	logger.Info("server ready", zap.String("url", cfg.AppBaseURL))
	return db, nil
}
