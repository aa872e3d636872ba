package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "harbor"

// Result labels.
const (
	ResultOK         = "ok"
	ResultRejected   = "rejected"   // invalid input, nothing written
	ResultUnresolved = "unresolved" // port mapping missing, nothing written
	ResultError      = "error"      // store fault
)

var (
	once sync.Once

	tasksPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "host_tasks_published_total",
			Help:      "Host task publications by result.",
		},
		[]string{"result"},
	)

	frontendSyncs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frontend_syncs_total",
			Help:      "Frontend routing entry republications by result.",
		},
		[]string{"result"},
	)

	frontendUpstreams = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "frontend_upstreams",
			Help:      "Upstreams written per successful frontend sync.",
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 32, 64},
		},
	)

	frontendRemovals = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frontend_removals_total",
			Help:      "Frontend routing entries deleted.",
		},
	)

	consoleSessions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "console_sessions_total",
			Help:      "Console attach sessions issued.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		},
		[]string{"route", "code"},
	)
)

// Register registers the collectors with the default registry. Safe to call
// multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			tasksPublished,
			frontendSyncs,
			frontendUpstreams,
			frontendRemovals,
			consoleSessions,
			httpRequests,
		)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func ObserveTaskPublished(result string) {
	tasksPublished.WithLabelValues(result).Inc()
}

// ObserveFrontendSync records one sync attempt. upstreams is only observed
// for successful syncs.
func ObserveFrontendSync(result string, upstreams int) {
	frontendSyncs.WithLabelValues(result).Inc()
	if result == ResultOK {
		frontendUpstreams.Observe(float64(upstreams))
	}
}

func IncFrontendRemoval() {
	frontendRemovals.Inc()
}

func IncConsoleSession() {
	consoleSessions.Inc()
}

func IncHTTP(route, code string) {
	httpRequests.WithLabelValues(route, code).Inc()
}
