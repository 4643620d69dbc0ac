package sql

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusLedgerStored    prometheus.Counter
	prometheusLedgerDeleted   prometheus.Counter
	prometheusLedgerCacheHits prometheus.Counter
)

var (
	prometheusMetricsInitOnce sync.Once
)

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusLedgerStored = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "atomengine",
			Subsystem: "ledger_sql",
			Name:      "atoms_stored",
			Help:      "Number of atoms stored in the sql ledger",
		},
	)

	prometheusLedgerDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "atomengine",
			Subsystem: "ledger_sql",
			Name:      "atoms_deleted",
			Help:      "Number of atoms deleted from the sql ledger",
		},
	)

	prometheusLedgerCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "atomengine",
			Subsystem: "ledger_sql",
			Name:      "claim_cache_hits",
			Help:      "Number of claim lookups answered by the cache",
		},
	)
}
