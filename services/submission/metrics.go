package submission

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusSubmitAtom      prometheus.Histogram
	prometheusSubmitRejected  *prometheus.CounterVec
	prometheusMetricsInitOnce sync.Once
)

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusSubmitAtom = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "atomengine",
			Subsystem: "submission",
			Name:      "submit_atom",
			Help:      "Histogram of SubmitAtom calls",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 16),
		},
	)

	prometheusSubmitRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "atomengine",
			Subsystem: "submission",
			Name:      "rejected",
			Help:      "Number of submitted atoms refused, by error code",
		},
		[]string{"code"},
	)
}
