package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry is the dedicated Prometheus registry for the API
	Registry = prometheus.NewRegistry()
	// HTTPRequests counts requests by method, route pattern, and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// OptimizeRuns counts optimization runs by outcome (ok, degraded, stopped_early, error)
	OptimizeRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "optimize_runs_total", Help: "Optimization runs by outcome."},
		[]string{"outcome"},
	)
	// OptimizeDuration tracks end-to-end optimizer wall time in seconds
	OptimizeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "optimize_duration_seconds", Help: "Optimizer wall time in seconds.", Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10}},
	)
	// OptimizeVehiclesUsed observes how many vehicles each solution uses
	OptimizeVehiclesUsed = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "optimize_vehicles_used", Help: "Vehicles used per solution.", Buckets: prometheus.LinearBuckets(0, 2, 11)},
	)
	// OptimizeUnassigned counts pickup spots left unassigned by reason
	OptimizeUnassigned = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "optimize_unassigned_spots_total", Help: "Pickup spots left unassigned by reason."},
		[]string{"reason"},
	)
	// ConsolidatedVehicles counts vehicles eliminated by the consolidation pass
	ConsolidatedVehicles = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "optimize_consolidated_vehicles_total", Help: "Vehicles removed by route consolidation."},
	)
	// EventsPublished counts broker events by type
	EventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "events_published_total", Help: "Optimization events published by type."},
		[]string{"type"},
	)
)

// RegisterDefault registers collectors to the dedicated registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests, HTTPDuration)
		Registry.MustRegister(OptimizeRuns, OptimizeDuration, OptimizeVehiclesUsed, OptimizeUnassigned, ConsolidatedVehicles)
		Registry.MustRegister(EventsPublished)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once

// Handler serves the dedicated registry in the Prometheus exposition format.
func Handler() http.Handler {
	RegisterDefault()
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
