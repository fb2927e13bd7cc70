package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/stockledger/internal/adapter/http/handler"
	"github.com/iho/stockledger/internal/adapter/http/middleware"
	"github.com/iho/stockledger/internal/infrastructure/metrics"
	"github.com/iho/stockledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	ItemHandler           *handler.ItemHandler
	PostingHandler        *handler.PostingHandler
	ReconciliationHandler *handler.ReconciliationHandler
	HealthHandler         *handler.HealthHandler
	IdempotencyStore      usecase.IdempotencyStore
	IdempotencyTTL        time.Duration
	RateLimiter           *middleware.RateLimiter
	Metrics               *metrics.Metrics
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
	Logger         zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Logger)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Stock items
		r.Route("/items", func(r chi.Router) {
			r.Post("/", cfg.ItemHandler.Register)
			r.Get("/", cfg.ItemHandler.List)
			r.Get("/low-stock", cfg.ItemHandler.ListLowStock)
			r.Get("/{id}", cfg.ItemHandler.Get)
			r.Get("/{id}/balance", cfg.ItemHandler.Balance)
			r.Get("/{id}/movements", cfg.ItemHandler.Movements)
			r.Post("/{id}/movements", cfg.ItemHandler.ApplyMovement)
			r.Get("/{id}/reconcile", cfg.ReconciliationHandler.ReconcileItem)
		})

		// Financial ledger
		r.Route("/postings", func(r chi.Router) {
			r.Get("/", cfg.PostingHandler.List)
			r.Post("/fuel", cfg.PostingHandler.RecordFuel)
			r.Post("/tools", cfg.PostingHandler.RecordTool)
			r.Post("/rentals", cfg.PostingHandler.RecordRental)
			r.Get("/source/{kind}/{id}", cfg.PostingHandler.GetBySource)
			r.Get("/source/{kind}/{id}/check", cfg.ReconciliationHandler.CheckPosting)
			r.Get("/summary/categories", cfg.PostingHandler.SummaryByCategory)
			r.Get("/summary/periods", cfg.PostingHandler.SummaryByPeriod)
		})

		r.Get("/reconciliation", cfg.ReconciliationHandler.Report)
	})

	return r
}
