// Package metrics exposes Prometheus instrumentation for subscriptions and writes.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	subscriptionsActive = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "eventboard_subscriptions_active",
		Help: "Number of open live collection subscriptions.",
	}, []string{"collection"})

	snapshotsDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventboard_snapshots_delivered_total",
		Help: "Total number of snapshots handed to subscribers.",
	}, []string{"collection"})

	streamErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventboard_stream_errors_total",
		Help: "Total number of errors reported by live subscriptions.",
	}, []string{"collection"})

	mutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventboard_mutations_total",
		Help: "Total number of mutation gateway operations by outcome.",
	}, []string{"operation", "outcome"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "eventboard_http_request_duration_seconds",
		Help:    "Latency of HTTP requests served by the local API.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// SubscriptionOpened records a new live subscription.
func SubscriptionOpened(collection string) {
	subscriptionsActive.WithLabelValues(label(collection)).Inc()
}

// SubscriptionClosed records a released live subscription.
func SubscriptionClosed(collection string) {
	subscriptionsActive.WithLabelValues(label(collection)).Dec()
}

// SnapshotDelivered records one delivered snapshot.
func SnapshotDelivered(collection string) {
	snapshotsDelivered.WithLabelValues(label(collection)).Inc()
}

// StreamError records one subscription error.
func StreamError(collection string) {
	streamErrors.WithLabelValues(label(collection)).Inc()
}

// Mutation records a gateway operation and its outcome ("ok", "invalid", "failed").
func Mutation(operation, outcome string) {
	mutationsTotal.WithLabelValues(operation, outcome).Inc()
}

// Request records one served HTTP request.
func Request(method, route string, status int, elapsed time.Duration) {
	requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// Handler exposes the Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// label collapses per-user collection paths so that label cardinality stays bounded.
// users/u1/favorites becomes users/*/favorites.
func label(collection string) string {
	segments := splitPath(collection)
	for i := 1; i < len(segments); i += 2 {
		segments[i] = "*"
	}

	return joinPath(segments)
}
