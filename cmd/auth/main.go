// Package main содержит точку входа для сервиса аутентификации.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pharm-courses/auth-service/internal/app/auth"
	"github.com/pharm-courses/auth-service/internal/config"
	"github.com/pharm-courses/auth-service/internal/lib/logger"
	"github.com/pharm-courses/auth-service/internal/lib/sl"
)

func main() {
	cfg := config.MustLoad()
	log := logger.New(cfg.Env)

	log.Info("starting auth-service", slog.String("env", cfg.Env), slog.String("base_url", cfg.BaseURL))
	for _, warn := range cfg.Warnings() {
		log.Warn("insecure default configuration", slog.String("reason", warn))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := auth.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize auth app", sl.Err(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		log.Error("auth app stopped with error", sl.Err(err))
		os.Exit(1)
	}

	log.Info("auth app stopped gracefully")
}
