package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/clinicdesk/scheduling-engine/internal/scheduling"
)

type RouterConfig struct {
	Service     *scheduling.Service
	Logger      *zap.Logger
	PgPool      *pgxpool.Pool
	Redis       *redis.Client
	Env         string
	Version     string
	CORSOrigins []string
	RateLimit   int // requests per minute per IP, 0 disables
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	if cfg.RateLimit > 0 {
		r.Use(httprate.LimitByIP(cfg.RateLimit, time.Minute))
	}

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Scheduling endpoints. The available_slots path matches what the web
	// front-end already calls.
	r.Get("/appointments/available_slots", availableSlotsHandler(cfg.Service))
	r.Post("/appointments", createAppointmentHandler(cfg.Service))
	r.Get("/appointments", listAppointmentsHandler(cfg.Service))
	r.Get("/appointments/{id}", getAppointmentHandler(cfg.Service))
	r.Patch("/appointments/{id}/status", updateStatusHandler(cfg.Service))

	return r
}
