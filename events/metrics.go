package events

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusEventsPublished     *prometheus.CounterVec
	prometheusEventsPublishErrors prometheus.Counter
)

var (
	prometheusMetricsInitOnce sync.Once
)

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusEventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "atomengine",
			Subsystem: "events",
			Name:      "published",
			Help:      "Number of atom events published, by type",
		},
		[]string{"type"},
	)

	prometheusEventsPublishErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "atomengine",
			Subsystem: "events",
			Name:      "publish_errors",
			Help:      "Number of atom events that could not be published",
		},
	)
}
