package obs

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outbound IAM call metrics.
var (
	iamInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "iam_client_in_flight_requests",
		Help: "In-flight requests to the IAM service.",
	})

	iamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "iam_client_requests_total",
			Help: "Total number of requests to the IAM service.",
		},
		[]string{"operation", "status"},
	)

	iamRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "iam_client_request_duration_seconds",
			Help:    "IAM request latencies in seconds.",
			Buckets: prometheus.DefBuckets, // [0.005..10]
		},
		[]string{"operation", "status"},
	)

	initOnce sync.Once
)

// Init registers the client metrics in the default registry.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(iamInFlight, iamRequestsTotal, iamRequestDuration)
	})
}

// IAMRequestStarted marks the start of an outbound IAM call.
func IAMRequestStarted() {
	iamInFlight.Inc()
}

// ObserveIAMRequest records the outcome of an outbound IAM call. The
// status label is the numeric HTTP status, or "transport_error" when the
// round trip itself failed.
func ObserveIAMRequest(operation, status string, d time.Duration) {
	iamInFlight.Dec()
	iamRequestDuration.WithLabelValues(operation, status).Observe(d.Seconds())
	iamRequestsTotal.WithLabelValues(operation, status).Inc()
}
