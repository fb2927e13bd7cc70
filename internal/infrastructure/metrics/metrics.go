package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Stock metrics
	ItemsRegistered  prometheus.Counter
	MovementsApplied *prometheus.CounterVec
	MovementsClamped prometheus.Counter
	MovementDuration prometheus.Histogram
	MovementErrors   *prometheus.CounterVec
	ItemsBelowMin    prometheus.Counter

	// Posting metrics
	PostingOutcomes  *prometheus.CounterVec
	PostingDuration  prometheus.Histogram
	PostingAmount    *prometheus.HistogramVec
	PostingDuplicate prometheus.Counter

	// Cache metrics
	BalanceCacheHits   prometheus.Counter
	BalanceCacheMisses prometheus.Counter

	// Outbox metrics
	OutboxPublished prometheus.Counter
	OutboxErrors    prometheus.Counter

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates all Prometheus metrics and registers them on reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Stock metrics
		ItemsRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "stockledger_items_registered_total",
			Help: "Total number of stock items registered",
		}),
		MovementsApplied: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockledger_movements_applied_total",
				Help: "Total number of stock movements applied by kind",
			},
			[]string{"kind"},
		),
		MovementsClamped: factory.NewCounter(prometheus.CounterOpts{
			Name: "stockledger_movements_clamped_total",
			Help: "Total number of outbound movements clamped at zero",
		}),
		MovementDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "stockledger_movement_duration_seconds",
			Help:    "Duration of movement application",
			Buckets: prometheus.DefBuckets,
		}),
		MovementErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockledger_movement_errors_total",
				Help: "Total number of rejected movements by type",
			},
			[]string{"error_type"},
		),
		ItemsBelowMin: factory.NewCounter(prometheus.CounterOpts{
			Name: "stockledger_items_below_minimum_total",
			Help: "Total number of movements leaving an item below its minimum threshold",
		}),

		// Posting metrics
		PostingOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockledger_posting_outcomes_total",
				Help: "Financial posting outcomes by source kind and status",
			},
			[]string{"source_kind", "status"},
		),
		PostingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "stockledger_posting_duration_seconds",
			Help:    "Duration of financial postings",
			Buckets: prometheus.DefBuckets,
		}),
		PostingAmount: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockledger_posting_amount",
				Help:    "Posted amounts by category",
				Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
			},
			[]string{"category"},
		),
		PostingDuplicate: factory.NewCounter(prometheus.CounterOpts{
			Name: "stockledger_posting_duplicates_total",
			Help: "Total number of postings replayed for an already posted source",
		}),

		// Cache metrics
		BalanceCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "stockledger_balance_cache_hits_total",
			Help: "Balance lookups served from cache",
		}),
		BalanceCacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "stockledger_balance_cache_misses_total",
			Help: "Balance lookups that went to storage",
		}),

		// Outbox metrics
		OutboxPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "stockledger_outbox_published_total",
			Help: "Total outbox events published",
		}),
		OutboxErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "stockledger_outbox_errors_total",
			Help: "Total outbox publishing errors",
		}),

		// API metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockledger_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockledger_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		// Rate limiting metrics
		RateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockledger_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"ip"},
		),
	}
}
