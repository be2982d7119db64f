package norsani

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "norsani_client",
			Name:      "requests_total",
			Help:      "Requests sent by HTTPTransport, by method and status code.",
		},
		[]string{"method", "code"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "norsani_client",
			Name:      "request_duration_seconds",
			Help:      "Round-trip time of requests sent by HTTPTransport.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)
