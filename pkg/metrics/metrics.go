// Package metrics provides Prometheus instrumentation for session handling.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SessionOperations counts session repository calls, labeled by save
	// handler, operation and result ("ok" or "error").
	SessionOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gortas_session_operations_total",
		Help: "Total number of session operations",
	}, []string{"handler", "op", "result"})

	// SessionsStarted counts started sessions, labeled by whether an existing
	// session was resumed or a new one was created.
	SessionsStarted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gortas_sessions_started_total",
		Help: "Total number of started sessions",
	}, []string{"handler", "origin"}) // origin = "resumed", "created"

	// BootstrapFailures counts failed store reachability checks.
	BootstrapFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gortas_session_bootstrap_failures_total",
		Help: "Total number of failed session store bootstraps",
	})
)

func init() {
	prometheus.MustRegister(
		SessionOperations,
		SessionsStarted,
		BootstrapFailures,
	)
}

// ObserveOperation records the result of a single session operation.
func ObserveOperation(handler, op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	SessionOperations.WithLabelValues(handler, op, result).Inc()
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
