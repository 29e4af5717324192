package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aerotrack-io/aerotrack-backend/api/routes"
	internalaircraft "github.com/aerotrack-io/aerotrack-backend/internal/aircraft"
	"github.com/aerotrack-io/aerotrack-backend/internal/audit"
	internalauth "github.com/aerotrack-io/aerotrack-backend/internal/auth"
	"github.com/aerotrack-io/aerotrack-backend/internal/users"
	"github.com/aerotrack-io/aerotrack-backend/pkg/config"
	"github.com/aerotrack-io/aerotrack-backend/pkg/db"
	"github.com/aerotrack-io/aerotrack-backend/pkg/events"
	"github.com/aerotrack-io/aerotrack-backend/pkg/logger"
	"github.com/aerotrack-io/aerotrack-backend/pkg/metrics"
	"github.com/aerotrack-io/aerotrack-backend/pkg/migrate"
	pkgredis "github.com/aerotrack-io/aerotrack-backend/pkg/redis"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	redisClient, err := pkgredis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	eventMetrics := metrics.NewEventMetrics(registry)

	ledger, err := events.NewLedger(dbClient.DB())
	if err != nil {
		logg.Error(context.Background(), "failed to create delivery ledger", err)
		os.Exit(1)
	}
	publisher, err := events.NewPublisher(cfg, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create event publisher", err)
		os.Exit(1)
	}
	coordinator, err := events.NewCoordinator(events.CoordinatorParams{
		Ledger:    ledger,
		Publisher: publisher,
		Logger:    logg,
		Metrics:   eventMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create publish coordinator", err)
		os.Exit(1)
	}

	auditRecorder, err := audit.NewRecorder(dbClient.DB(), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create audit recorder", err)
		os.Exit(1)
	}

	aircraftService, err := internalaircraft.NewService(internalaircraft.ServiceParams{
		Repository:  internalaircraft.NewRepository(dbClient.DB()),
		Tx:          dbClient,
		Audit:       auditRecorder,
		Coordinator: coordinator,
		Logger:      logg,
		EventSource: cfg.Eventing.Source,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create aircraft service", err)
		os.Exit(1)
	}

	authService, err := internalauth.NewService(internalauth.ServiceParams{
		UserRepo:  users.NewRepository(dbClient.DB()),
		JWTConfig: cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:          cfg,
			Logger:          logg,
			DB:              dbClient,
			Redis:           redisClient,
			AuthService:     authService,
			AircraftService: aircraftService,
			AuditRecorder:   auditRecorder,
			Metrics:         registry,
		}),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}
}
