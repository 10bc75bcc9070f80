package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hackgods/caregiver-scheduling/internal/appointment"
	"github.com/hackgods/caregiver-scheduling/internal/logging"
)

// AppointmentService is the part of *appointment.Service the handlers use.
type AppointmentService interface {
	SaveAppointment(ctx context.Context, in appointment.SaveInput) (*appointment.Appointment, error)
	CheckConflicts(ctx context.Context, in appointment.SaveInput) ([]appointment.Appointment, []string, error)
	GetAppointment(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	ListAppointments(ctx context.Context, clientID uuid.UUID) ([]appointment.Appointment, error)
	CategorizedAppointments(ctx context.Context, clientID uuid.UUID) (appointment.Buckets, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, to appointment.Status) (*appointment.Appointment, error)
}

type RouterConfig struct {
	Service  AppointmentService
	Postgres Pinger
	Redis    Pinger
	Gatherer prometheus.Gatherer
	Logger   *logging.Logger
	Env      string
	Version  string
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(middleware.Recoverer)

	// Health endpoints
	health := NewHealthHandler(cfg.Postgres, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	svc := cfg.Service

	r.Route("/clients/{clientID}/appointments", func(r chi.Router) {
		r.Get("/", listAppointmentsHandler(svc, logger))
		r.Post("/", createAppointmentHandler(svc, logger))
		r.Get("/categorized", categorizedAppointmentsHandler(svc, logger))
		r.Post("/conflicts", checkConflictsHandler(svc, logger))
		r.Put("/{id}", updateAppointmentHandler(svc, logger))
	})

	r.Route("/appointments/{id}", func(r chi.Router) {
		r.Get("/", getAppointmentHandler(svc, logger))
		r.Post("/confirm", transitionHandler(svc, logger, appointment.StatusConfirmed))
		r.Post("/complete", transitionHandler(svc, logger, appointment.StatusCompleted))
		r.Post("/cancel", transitionHandler(svc, logger, appointment.StatusCancelled))
		r.Post("/no-show", transitionHandler(svc, logger, appointment.StatusNoShow))
	})

	return r
}
