// Package metrics provides Prometheus collectors for allocation runs, the
// result cache and the HTTP façade.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the custom prometheus registry for the application
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

// Label values
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
)

// =============================================================================
// Solver
// =============================================================================

// SolvesTotal counts solves by final solver status name.
var SolvesTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "allocator",
	Name:      "solves_total",
	Help:      "Total optimization runs by solver status",
}, []string{"status"})

// SolveDurationSeconds tracks wall-clock solve time.
var SolveDurationSeconds = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "allocator",
	Name:      "solve_duration_seconds",
	Help:      "Time spent in the solver per optimization run",
	Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
})

// SolverNodes tracks branch-and-bound nodes explored per run.
var SolverNodes = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "allocator",
	Name:      "solver_nodes",
	Help:      "Branch-and-bound nodes explored per optimization run",
	Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
})

// ZonesPerRequest tracks request sizes.
var ZonesPerRequest = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "allocator",
	Name:      "zones_per_request",
	Help:      "Number of zones per allocation request",
	Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250, 1000},
})

// InvalidRequestsTotal counts requests rejected before model construction.
var InvalidRequestsTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "allocator",
	Name:      "invalid_requests_total",
	Help:      "Allocation requests rejected by input validation",
})

// RemainingVolunteers is the unallocated budget of the most recent successful run.
var RemainingVolunteers = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "allocator",
	Name:      "remaining_volunteers",
	Help:      "Volunteers left unallocated by the most recent successful run",
})

// =============================================================================
// Cache and façade
// =============================================================================

// CacheRequestsTotal counts cache lookups by result.
var CacheRequestsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "allocator",
	Name:      "cache_requests_total",
	Help:      "Result cache lookups by outcome",
}, []string{"result"})

// CacheErrorsTotal counts cache backend failures, which are logged and bypassed.
var CacheErrorsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "allocator",
	Name:      "cache_errors_total",
	Help:      "Result cache backend failures by operation",
}, []string{"op"})

// HTTPRequestsTotal counts façade requests by path and status code.
var HTTPRequestsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "api",
	Name:      "requests_total",
	Help:      "HTTP requests by path and status code",
}, []string{"path", "code"})
