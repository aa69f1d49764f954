// README: Prometheus registry and collectors for the API and the solver.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the API.
	Registry = prometheus.NewRegistry()

	// HTTPRequests counts requests by method, path, and status.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds.
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// PlanOutcomes counts optimization attempts by result (solved, no_feasible_route,
	// infeasible_stop, bad_input, service_unavailable, service_error).
	PlanOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "plan_outcomes_total", Help: "Route optimization outcomes."},
		[]string{"outcome"},
	)
	// SolveDuration tracks wall-clock solver time in seconds.
	SolveDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "solve_duration_seconds", Help: "Route solver wall-clock time in seconds.", Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 10, 20, 30}},
	)
	// SolveStops tracks problem sizes handed to the solver.
	SolveStops = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "solve_stops", Help: "Number of stops per optimization request.", Buckets: []float64{1, 2, 5, 10, 15, 20, 25}},
	)
)

// RegisterDefault registers collectors to the package registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(PlanOutcomes)
		Registry.MustRegister(SolveDuration)
		Registry.MustRegister(SolveStops)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
