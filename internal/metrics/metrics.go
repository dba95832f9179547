package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventix_http_requests_total",
			Help: "Total HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eventix_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	bookingsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eventix_bookings_created_total",
			Help: "Pending bookings created by the payment order initiator",
		},
	)

	bookingOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventix_booking_outcomes_total",
			Help: "Terminal booking outcomes by gateway",
		},
		[]string{"outcome", "gateway"},
	)

	signatureRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventix_payment_signature_rejected_total",
			Help: "Payment confirmations rejected because the signature did not verify",
		},
		[]string{"gateway"},
	)

	seatsSold = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eventix_seats_sold_total",
			Help: "Seats decremented by confirmed bookings",
		},
	)

	idempotentReplays = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eventix_idempotent_replays_total",
			Help: "Responses served from the idempotency store",
		},
	)

	rateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventix_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"scope"},
	)
)

const (
	OutcomeConfirmed = "confirmed"
	OutcomeSoldOut   = "sold_out"
	OutcomeAbandoned = "abandoned"
	OutcomeFailed    = "failed"
)

func ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func BookingCreated() {
	bookingsCreated.Inc()
}

func BookingOutcome(outcome, gateway string) {
	bookingOutcomes.WithLabelValues(outcome, gateway).Inc()
}

func SignatureRejected(gateway string) {
	signatureRejections.WithLabelValues(gateway).Inc()
}

func SeatsSold(n int) {
	if n > 0 {
		seatsSold.Add(float64(n))
	}
}

func IdempotentReplay() {
	idempotentReplays.Inc()
}

func RateLimited(scope string) {
	rateLimited.WithLabelValues(scope).Inc()
}
