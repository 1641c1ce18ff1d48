package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "foodshare_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "foodshare_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"operation", "table"},
	)

	SlowQueryCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodshare_db_slow_query_total",
			Help: "Queries slower than the configured threshold",
		},
		[]string{"operation", "table"},
	)

	DonationsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "foodshare_donations_created_total",
			Help: "Donations posted by donors",
		},
	)

	// result: success, conflict, rejected
	ClaimAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodshare_claim_attempts_total",
			Help: "Claim attempts by outcome",
		},
		[]string{"result"},
	)

	ClaimTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodshare_claim_transitions_total",
			Help: "Claim status changes by target status",
		},
		[]string{"status"},
	)

	PickupTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodshare_pickup_transitions_total",
			Help: "Pickup status changes by target status",
		},
		[]string{"status"},
	)

	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "foodshare_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
	)
)

func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

func RecordDBQueryDuration(operation, table string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

func IncrementSlowQuery(operation, table string) {
	SlowQueryCount.WithLabelValues(operation, table).Inc()
}

func IncrementDonationsCreated() {
	DonationsCreated.Inc()
}

func IncrementClaimAttempt(result string) {
	ClaimAttempts.WithLabelValues(result).Inc()
}

func IncrementClaimTransition(status string) {
	ClaimTransitions.WithLabelValues(status).Inc()
}

func IncrementPickupTransition(status string) {
	PickupTransitions.WithLabelValues(status).Inc()
}

func IncrementRateLimited() {
	RateLimited.Inc()
}
