package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// SubmissionsCreated counts public form submissions by kind.
	SubmissionsCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "advocacy",
		Subsystem: "forms",
		Name:      "submissions_created_total",
		Help:      "Total number of public form submissions persisted, labeled by kind.",
	}, []string{"kind"})

	// SignaturesCreated counts petition signatures.
	SignaturesCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "advocacy",
		Subsystem: "forms",
		Name:      "signatures_created_total",
		Help:      "Total number of petition signatures persisted.",
	})

	// OutboxDispatched counts outbox sends by result.
	OutboxDispatched = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "advocacy",
		Subsystem: "outbox",
		Name:      "dispatched_total",
		Help:      "Total number of outbox notifications dispatched, labeled by result.",
	}, []string{"result"})

	// SyncRuns counts sync invocations by result.
	SyncRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "advocacy",
		Subsystem: "sync",
		Name:      "runs_total",
		Help:      "Total number of spreadsheet sync runs, labeled by result.",
	}, []string{"result"})

	// SyncRowsAppended counts rows written to the spreadsheet.
	SyncRowsAppended = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "advocacy",
		Subsystem: "sync",
		Name:      "rows_appended_total",
		Help:      "Total number of submission rows appended to the spreadsheet.",
	})

	// SyncLastSuccessSeconds is the unix timestamp of the last successful sync.
	SyncLastSuccessSeconds = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "advocacy",
		Subsystem: "sync",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix timestamp (seconds) of the last successful spreadsheet sync.",
	})
)

// Register registers all collectors with the default registry. Safe to
// call more than once.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			SubmissionsCreated,
			SignaturesCreated,
			OutboxDispatched,
			SyncRuns,
			SyncRowsAppended,
			SyncLastSuccessSeconds,
		)
	})
}
