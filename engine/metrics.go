package engine

import (
	"sync"

	"github.com/atomledger/atomengine/util"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusEngineSubmitted           prometheus.Counter
	prometheusEngineRejected            *prometheus.CounterVec
	prometheusEngineCommitted           prometheus.Counter
	prometheusEngineConflicts           prometheus.Counter
	prometheusEngineMissingDependencies prometheus.Counter
	prometheusEngineDeleted             prometheus.Counter
	prometheusEngineCommitErrors        prometheus.Counter
	prometheusEngineQueueSize           prometheus.Gauge
	prometheusEngineSubmit              prometheus.Histogram
	prometheusEngineCommit              prometheus.Histogram
)

var (
	prometheusMetricsInitOnce sync.Once
)

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusEngineSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "atomengine",
			Subsystem: "engine",
			Name:      "submitted",
			Help:      "Number of atoms submitted to the engine",
		},
	)

	prometheusEngineRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "atomengine",
			Subsystem: "engine",
			Name:      "rejected",
			Help:      "Number of atoms rejected before commit, by reason",
		},
		[]string{"reason"},
	)

	prometheusEngineCommitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "atomengine",
			Subsystem: "engine",
			Name:      "committed",
			Help:      "Number of atoms stored by the commit worker",
		},
	)

	prometheusEngineConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "atomengine",
			Subsystem: "engine",
			Name:      "conflicts",
			Help:      "Number of atoms discarded at commit because of a spin conflict",
		},
	)

	prometheusEngineMissingDependencies = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "atomengine",
			Subsystem: "engine",
			Name:      "missing_dependencies",
			Help:      "Number of atoms discarded at commit because of a missing dependency",
		},
	)

	prometheusEngineDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "atomengine",
			Subsystem: "engine",
			Name:      "deleted",
			Help:      "Number of atoms deleted by the commit worker",
		},
	)

	prometheusEngineCommitErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "atomengine",
			Subsystem: "engine",
			Name:      "commit_errors",
			Help:      "Number of commit actions that failed in the store",
		},
	)

	prometheusEngineQueueSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "atomengine",
			Subsystem: "engine",
			Name:      "commit_queue_size",
			Help:      "Number of actions waiting for the commit worker",
		},
	)

	prometheusEngineSubmit = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "atomengine",
			Subsystem: "engine",
			Name:      "submit",
			Help:      "Histogram of atom submission, validation and hooks included",
			Buckets:   util.MetricsBucketsMicroSeconds,
		},
	)

	prometheusEngineCommit = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "atomengine",
			Subsystem: "engine",
			Name:      "commit",
			Help:      "Histogram of commit actions",
			Buckets:   util.MetricsBucketsMilliSeconds,
		},
	)
}
