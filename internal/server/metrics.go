package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metrics are the service's Prometheus collectors.
type metrics struct {
	requests    *prometheus.CounterVec
	conversions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	bytesIn     *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "calico",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests by route and status code",
			},
			[]string{"method", "route", "code"},
		),
		conversions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "calico",
				Subsystem: "convert",
				Name:      "total",
				Help:      "Conversions by source format, target format and outcome",
			},
			[]string{"from", "to", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "calico",
				Subsystem: "convert",
				Name:      "duration_seconds",
				Help:      "Time spent decoding and encoding one payload",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
			},
			[]string{"from", "to"},
		),
		bytesIn: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "calico",
				Subsystem: "convert",
				Name:      "input_bytes_total",
				Help:      "Bytes accepted for conversion by source format",
			},
			[]string{"from"},
		),
	}
	reg.MustRegister(m.requests, m.conversions, m.duration, m.bytesIn)
	return m
}
