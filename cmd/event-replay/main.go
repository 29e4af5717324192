package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aerotrack-io/aerotrack-backend/pkg/config"
	"github.com/aerotrack-io/aerotrack-backend/pkg/db"
	"github.com/aerotrack-io/aerotrack-backend/pkg/events"
	"github.com/aerotrack-io/aerotrack-backend/pkg/logger"
	"github.com/aerotrack-io/aerotrack-backend/pkg/metrics"
	"github.com/aerotrack-io/aerotrack-backend/pkg/migrate"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "scan and report without publishing or writing")
	limit := flag.Int("limit", 0, "override the pending scan limit")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "event-replay"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "event-replay"
	if *limit > 0 {
		cfg.Replay.Limit = *limit
	}

	logg = logger.New(logger.Options{
		ServiceName: "event-replay",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	ledger, err := events.NewLedger(dbClient.DB())
	if err != nil {
		logg.Error(context.Background(), "failed to create delivery ledger", err)
		os.Exit(1)
	}

	publisher, err := events.NewPublisher(cfg, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create publisher", err)
		os.Exit(1)
	}

	service, err := NewService(ServiceParams{
		Config:    cfg,
		Logger:    logg,
		Ledger:    ledger,
		Publisher: publisher,
		Metrics:   metrics.NewEventMetrics(prometheus.DefaultRegisterer),
		DryRun:    *dryRun,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create replay service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"dry_run": *dryRun,
	})
	logg.Info(ctx, "starting event replay")

	summary, err := service.Run(ctx)
	if err != nil {
		logg.Error(ctx, "event replay aborted", err)
		os.Exit(1)
	}

	// Partial failures are reflected in the summary, not the exit code;
	// the next run picks the remaining rows up again.
	ctx = logg.WithFields(ctx, map[string]any{
		"scanned":         summary.Scanned,
		"replayed":        summary.Replayed,
		"failed":          summary.Failed,
		"invalid_payload": summary.InvalidPayload,
	})
	logg.Info(ctx, "event replay complete")
}
