package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CommandsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "patchbay_commands_total",
		Help: "Total number of editor commands, labelled by command and status.",
	}, []string{"command", "status"})

	ConnectionsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "patchbay_connections_rejected_total",
		Help: "Total number of connection attempts declined by the compatibility rules.",
	})

	TransactionsPushed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "patchbay_transactions_pushed_total",
		Help: "Total number of history transactions recorded.",
	})

	HistoryMoves = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "patchbay_history_moves_total",
		Help: "Total number of undo/redo steps taken, labelled by direction.",
	}, []string{"direction"})

	DocumentsLoaded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "patchbay_documents_loaded_total",
		Help: "Total number of document loads, labelled by status.",
	}, []string{"status"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "patchbay_sessions_active",
		Help: "Number of open editing sessions.",
	})

	CommandDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "patchbay_command_duration_ms",
		Help:    "Session command latency in milliseconds, queueing included.",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 25, 50, 100, 250, 1000},
	})
)
