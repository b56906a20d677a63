// Package metrics exposes the portal's Prometheus collectors and the
// HTTP instrumentation middleware.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "signup",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "signup",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "signup",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	signups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "signup",
			Subsystem: "accounts",
			Name:      "created_total",
			Help:      "Accounts provisioned, by type.",
		},
		[]string{"type"},
	)

	teamEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "signup",
			Subsystem: "teams",
			Name:      "events_total",
			Help:      "Team membership transitions.",
		},
		[]string{"event"},
	)

	directoryOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "signup",
			Subsystem: "directory",
			Name:      "operations_total",
			Help:      "Directory gateway operations by outcome.",
		},
		[]string{"op", "outcome"},
	)

	broadcasts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "signup",
			Subsystem: "mail",
			Name:      "broadcasts_total",
			Help:      "Broadcast emails dispatched.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		signups,
		teamEvents,
		directoryOps,
		broadcasts,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	})
}

// RecordSignup counts a provisioned account by type.
func RecordSignup(accountType string) {
	if accountType == "" {
		accountType = "blue"
	}
	signups.WithLabelValues(accountType).Inc()
}

// RecordTeamEvent counts a membership transition ("create", "join",
// "leave", "disband", ...).
func RecordTeamEvent(event string) {
	teamEvents.WithLabelValues(event).Inc()
}

// RecordDirectoryOp counts a directory gateway call.
func RecordDirectoryOp(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	directoryOps.WithLabelValues(op, outcome).Inc()
}

// RecordBroadcast counts a broadcast dispatch.
func RecordBroadcast() {
	broadcasts.Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// canonicalPath collapses IDs so the label set stays bounded. Paths look
// like /teams/42/join; the segment after a collection name is replaced
// with a placeholder.
func canonicalPath(raw string) string {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	for i := 1; i < len(parts); i++ {
		switch parts[i-1] {
		case "teams", "participants", "archive":
			parts[i] = ":id"
		}
	}
	return "/" + strings.Join(parts, "/")
}
