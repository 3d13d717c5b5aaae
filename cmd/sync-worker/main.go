package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/e-sellers/storesync/internal/app/syncworker"
	"github.com/e-sellers/storesync/internal/config"
)

func main() {
	cfg := config.MustLoad()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger.Info("starting sync-worker", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := syncworker.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize sync-worker", slog.Any("err", err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error("sync-worker stopped with error", slog.Any("err", err))
		os.Exit(1)
	}

	logger.Info("sync-worker stopped gracefully")
}
