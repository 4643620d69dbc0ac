package constraintmachine

import (
	"sync"

	"github.com/atomledger/atomengine/util"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// prometheusCMValidate measures a full constraint machine run
	prometheusCMValidate prometheus.Histogram

	// prometheusCMErrors counts rejected atoms by error code
	prometheusCMErrors *prometheus.CounterVec
)

var (
	prometheusMetricsInitOnce sync.Once
)

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusCMValidate = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "atomengine",
			Subsystem: "constraint_machine",
			Name:      "validate",
			Help:      "Histogram of atom validation by the constraint machine",
			Buckets:   util.MetricsBucketsMicroSeconds,
		},
	)

	prometheusCMErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "atomengine",
			Subsystem: "constraint_machine",
			Name:      "errors",
			Help:      "Number of atoms rejected by the constraint machine, by error code",
		},
		[]string{"code"},
	)
}
