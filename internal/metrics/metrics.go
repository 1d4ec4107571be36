package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yamdb_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "yamdb_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "yamdb_api_active_requests",
			Help: "Number of in-flight API requests",
		},
	)

	// Auth Metrics
	SignupsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "yamdb_signups_total",
			Help: "Total number of successful signups",
		},
	)

	TokenExchanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yamdb_token_exchanges_total",
			Help: "Total number of confirmation code exchanges by outcome",
		},
		[]string{"outcome"}, // "issued", "rejected"
	)

	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "yamdb_rate_limited_requests_total",
			Help: "Total number of requests rejected by the auth rate limiter",
		},
	)

	// Notification Metrics
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yamdb_notifications_total",
			Help: "Total number of confirmation emails by driver and outcome",
		},
		[]string{"driver", "outcome"}, // outcome: "sent", "failed"
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordNotification records the outcome of one delivery attempt.
func RecordNotification(driver string, err error) {
	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	NotificationsTotal.WithLabelValues(driver, outcome).Inc()
}

// RecordTokenExchange records whether a confirmation code was accepted.
func RecordTokenExchange(issued bool) {
	if issued {
		TokenExchanges.WithLabelValues("issued").Inc()
		return
	}
	TokenExchanges.WithLabelValues("rejected").Inc()
}
