package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	aliasResolutionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shortlink_alias_resolutions_total",
		Help: "Alias lookups by outcome",
	}, []string{"outcome"})

	sessionEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shortlink_session_events_total",
		Help: "Session lifecycle events by type",
	}, []string{"event"})

	activeSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "shortlink_active_sessions",
		Help: "Sessions currently held by the in-process session store",
	})
)

// SetActiveSessions publishes the in-process session count.
func SetActiveSessions(n int) {
	activeSessions.Set(float64(n))
}

// NewPrometheusRegistry returns a registry with the runtime collectors and
// the service counters registered.
func NewPrometheusRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		aliasResolutionsTotal,
		sessionEventsTotal,
		activeSessions,
	)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
