package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aerotrack-io/aerotrack-backend/api/controllers"
	aircraftcontrollers "github.com/aerotrack-io/aerotrack-backend/api/controllers/aircraft"
	"github.com/aerotrack-io/aerotrack-backend/api/middleware"
	internalaircraft "github.com/aerotrack-io/aerotrack-backend/internal/aircraft"
	"github.com/aerotrack-io/aerotrack-backend/internal/audit"
	internalauth "github.com/aerotrack-io/aerotrack-backend/internal/auth"
	"github.com/aerotrack-io/aerotrack-backend/pkg/config"
	"github.com/aerotrack-io/aerotrack-backend/pkg/db"
	"github.com/aerotrack-io/aerotrack-backend/pkg/enums"
	"github.com/aerotrack-io/aerotrack-backend/pkg/logger"
	pkgredis "github.com/aerotrack-io/aerotrack-backend/pkg/redis"
)

// RouterParams carries everything the HTTP surface depends on.
type RouterParams struct {
	Config          *config.Config
	Logger          *logger.Logger
	DB              db.Pinger
	Redis           *pkgredis.Client
	AuthService     internalauth.Service
	AircraftService internalaircraft.Service
	AuditRecorder   *audit.Recorder
	Metrics         prometheus.Gatherer
}

func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	var idempotencyStore pkgredis.IdempotencyStore
	var cachePinger pkgredis.Pinger
	if params.Redis != nil {
		idempotencyStore = params.Redis
		cachePinger = params.Redis
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, params.DB, cachePinger, logg))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(params.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/login", controllers.Login(params.AuthService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Get("/dashboard/summary", aircraftcontrollers.Summary(params.AircraftService, logg))

		r.Route("/aircraft", func(r chi.Router) {
			r.Get("/", aircraftcontrollers.List(params.AircraftService, logg))
			r.Get("/{id}", aircraftcontrollers.Detail(params.AircraftService, logg))
			r.Get("/{id}/timeline", aircraftcontrollers.Timeline(params.AircraftService, logg))
			r.Get("/{id}/certifications", aircraftcontrollers.Certifications(params.AircraftService, logg))

			// Mutations are internal-only.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(string(enums.RoleInternal), logg))
				r.Post("/", aircraftcontrollers.Create(params.AircraftService, logg))
				r.Post("/import", aircraftcontrollers.Import(params.AircraftService, logg))
				r.Patch("/{id}/status", aircraftcontrollers.UpdateStatus(params.AircraftService, logg))
				r.Patch("/{id}/milestones/{milestoneId}", aircraftcontrollers.UpdateMilestone(params.AircraftService, logg))
				r.Get("/{id}/audit", aircraftcontrollers.AuditTrail(params.AuditRecorder, logg))
			})
		})
	})

	return r
}
