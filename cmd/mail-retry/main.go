// Package main содержит точку входа для повторной отправки писем подтверждения.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pharm-courses/auth-service/internal/app/mailretry"
	"github.com/pharm-courses/auth-service/internal/config"
	"github.com/pharm-courses/auth-service/internal/lib/logger"
	"github.com/pharm-courses/auth-service/internal/lib/sl"
)

func main() {
	// Очереди не нужна БД, поэтому Validate не вызывается.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("cannot read config", sl.Err(err))
		os.Exit(1)
	}
	log := logger.New(cfg.Env)

	log.Info("starting mail-retry service", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := mailretry.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize mail-retry app", sl.Err(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		log.Error("mail-retry app stopped with error", sl.Err(err))
		os.Exit(1)
	}

	log.Info("mail-retry app stopped gracefully")
}
