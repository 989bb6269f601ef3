package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics holds the Prometheus instruments for one Server. Each Server
// registers into its own registry so tests can build servers freely.
type metrics struct {
	requests  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	trials    prometheus.Counter
	wsClients prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fundsim",
			Name:      "requests_total",
			Help:      "Requests handled, by endpoint and status code.",
		}, []string{"endpoint", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fundsim",
			Name:      "request_duration_seconds",
			Help:      "Request latency by endpoint.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"endpoint"}),
		trials: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "fundsim",
			Name:      "trials_total",
			Help:      "Monte Carlo trials simulated.",
		}),
		wsClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "fundsim",
			Name:      "ws_clients",
			Help:      "Connected simulation stream clients.",
		}),
	}
}
