package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BookingsRequested = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "freewheels_rides", Name: "bookings_requested_total",
		Help: "Total booking requests accepted into pending state",
	})
	BookingsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "freewheels_rides", Name: "bookings_resolved_total",
		Help: "Bookings settled, by outcome",
	}, []string{"outcome"})
	SeatContention = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "freewheels_rides", Name: "seat_contention_total",
		Help: "Booking requests that found no seat available",
	})
	SearchLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "freewheels_rides", Name: "search_latency_seconds",
		Help:    "Ride search latency distribution",
		Buckets: prometheus.DefBuckets,
	})
	RidesCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "freewheels_rides", Name: "rides_completed_total",
		Help: "Rides transitioned to completed after departure",
	})
)
