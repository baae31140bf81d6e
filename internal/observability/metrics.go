package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parks_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "code", "method"},
	)

	BookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parks_bookings_total",
			Help: "Booking protocol attempts by outcome",
		},
		[]string{"outcome"},
	)

	CASConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "parks_capacity_cas_conflicts_total",
			Help: "Conditional occupancy updates that matched zero documents",
		},
	)

	CheckoutLines = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parks_checkout_lines_total",
			Help: "Checkout line commits by type and result",
		},
		[]string{"type", "result"},
	)

	OccupancyUpdateDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "parks_occupancy_update_seconds",
			Help:    "Duration of occupancy counter updates",
			Buckets: prometheus.DefBuckets,
		},
	)

	RateLimitExceeded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "parks_rate_limit_exceeded_total",
			Help: "Total rate limit exceeded",
		},
	)
)
