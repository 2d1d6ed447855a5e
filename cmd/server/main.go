package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"patient-portal/internal/app"
	"patient-portal/internal/config"
	"patient-portal/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// no config means no APP_ENV; report with the process environment
		logger.Init(os.Getenv("APP_ENV"))
		logger.Fatal("invalid configuration", map[string]any{"error": err})
	}

	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to initialize app", map[string]any{"error": err})
	}

	go func() {
		if err := application.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", map[string]any{"error": err})
		}
	}()

	logger.Info("patient-portal started", map[string]any{
		"port": cfg.AppPort,
		"env":  cfg.AppEnv,
	})

	<-ctx.Done()

	logger.Info("shutdown signal received", nil)

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := application.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", map[string]any{"error": err})
		return
	}

	logger.Info("patient-portal stopped cleanly", nil)
}
