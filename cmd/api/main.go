package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"pollstack/internal/app/bootstrap"
)

// API process entrypoint.
// Data flow:
// 1) Load .env and config.
// 2) Build app wiring (ports + adapters + use cases).
// 3) Start HTTP server.
func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.BuildAPI()
	if err != nil {
		slog.Error("api bootstrap failed",
			"event", "api_bootstrap_failed",
			"error", err.Error(),
		)
		os.Exit(1)
	}
	defer func() { _ = app.Close() }()

	if err := app.Run(ctx); err != nil {
		slog.Error("api run failed",
			"event", "api_run_failed",
			"error", err.Error(),
		)
		os.Exit(1)
	}
}
