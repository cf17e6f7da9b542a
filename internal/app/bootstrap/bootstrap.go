package bootstrap

import (
	"context"
	"log/slog"
	"strings"

	pollengine "pollstack/contexts/engagement/poll-engine"
	"pollstack/contexts/engagement/poll-engine/adapters/memory"
	postgresadapter "pollstack/contexts/engagement/poll-engine/adapters/postgres"
	"pollstack/internal/platform/config"
	"pollstack/internal/platform/db"
	"pollstack/internal/platform/httpserver"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")

	app := &APIApp{logger: logger}
	var module pollengine.Module

	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		// Local runs without a database keep full behavior on the in-memory
		// store; votes do not survive a restart.
		logger.Warn("POSTGRES_DSN not set, using in-memory store",
			"event", "bootstrap_in_memory_store",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
		store := memory.NewStore(nil)
		module = pollengine.NewModule(pollengine.Dependencies{
			Polls:           store,
			Votes:           store,
			Clock:           store,
			IDGen:           store,
			PublicPrefix:    cfg.CEWPagePrefix,
			DefaultCampaign: cfg.CEWCampaignCode,
			Logger:          logger,
		})
		module.Store = store
	} else {
		pg, err := db.Connect(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		app.postgres = pg

		repo := postgresadapter.NewRepository(pg.DB, logger)
		if cfg.AutoMigrate {
			if err := repo.Migrate(context.Background()); err != nil {
				_ = pg.Close()
				return nil, err
			}
		}
		module = pollengine.NewModule(pollengine.Dependencies{
			Polls:           repo,
			Votes:           repo,
			Clock:           postgresadapter.SystemClock{},
			IDGen:           postgresadapter.UUIDGenerator{},
			PublicPrefix:    cfg.CEWPagePrefix,
			DefaultCampaign: cfg.CEWCampaignCode,
			Logger:          logger,
		})
	}

	app.server = httpserver.New(module, logger, normalizeAddr(cfg.HTTPPort))
	return app, nil
}

// Run serves until ctx is canceled, typically by SIGINT/SIGTERM.
func (a *APIApp) Run(ctx context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start(ctx)
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
