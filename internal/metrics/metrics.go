// Package metrics holds the Prometheus collectors of the indexing pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "agreement_indexer"

var (
	// PollTicks counts factory poll ticks by result (ok, idle, head_error, error).
	PollTicks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "poller",
		Name:      "ticks_total",
		Help:      "Factory poll ticks by result",
	}, []string{"result"})

	CursorHeight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "poller",
		Name:      "cursor_height",
		Help:      "Last fully processed factory block",
	})

	CreationEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "poller",
		Name:      "creation_events_total",
		Help:      "Clone creation events dispatched by contract kind",
	}, []string{"kind"})

	HandlerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "poller",
		Name:      "handler_failures_total",
		Help:      "Creation handler failures by contract kind",
	}, []string{"kind"})

	LogsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "logs_processed_total",
		Help:      "Logs decoded, classified and persisted",
	}, []string{"kind", "type"})

	// LogsSkipped counts logs dropped by reason (decode, removed).
	LogsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "logs_skipped_total",
		Help:      "Logs skipped during contract sync",
	}, []string{"kind", "reason"})

	SyncDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "duration_seconds",
		Help:      "Duration of per-contract sync runs",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
	}, []string{"kind"})

	RPCErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "rpc",
		Name:      "errors_total",
		Help:      "Failed chain RPC calls after retries, by method",
	}, []string{"method"})
)
