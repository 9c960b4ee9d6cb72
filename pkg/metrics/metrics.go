package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Command execution metrics
	CommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toridb_commands_total",
			Help: "Total number of commands executed, by command kind and outcome",
		},
		[]string{"command", "outcome"},
	)

	CommandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "toridb_command_duration_seconds",
			Help:    "Command execution duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)

	// Store size metrics
	FlexibleKeysTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "toridb_flexible_keys_total",
			Help: "Number of keys currently held in the flexible store, by database",
		},
		[]string{"db"},
	)

	StructuredRowsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "toridb_structured_rows_total",
			Help: "Number of rows currently held in a table, by database and table",
		},
		[]string{"db", "table"},
	)

	// Worker pool metrics
	WorkerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "toridb_worker_queue_depth",
			Help: "Number of requests currently queued for the worker pool",
		},
	)

	WorkerBusy = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "toridb_worker_busy",
			Help: "Number of worker goroutines currently executing a command",
		},
	)

	// Command log metrics
	LogAppendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toridb_log_appends_total",
			Help: "Total number of command-log append operations, by database",
		},
		[]string{"db"},
	)

	LogRewritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toridb_log_rewrites_total",
			Help: "Total number of command-log atomic rewrites, by database",
		},
		[]string{"db"},
	)

	// Replication metrics
	ReplicasConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "toridb_replicas_connected",
			Help: "Number of replica fan-out channels currently registered on this node",
		},
	)

	ReplicationPropagationDropsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "toridb_replication_propagation_drops_total",
			Help: "Total number of propagated writes dropped due to a full replica channel",
		},
	)

	// Connection metrics
	ClientsConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "toridb_clients_connected",
			Help: "Number of currently connected client sessions",
		},
	)
)

func init() {
	prometheus.MustRegister(CommandsTotal)
	prometheus.MustRegister(CommandDuration)
	prometheus.MustRegister(FlexibleKeysTotal)
	prometheus.MustRegister(StructuredRowsTotal)
	prometheus.MustRegister(WorkerQueueDepth)
	prometheus.MustRegister(WorkerBusy)
	prometheus.MustRegister(LogAppendsTotal)
	prometheus.MustRegister(LogRewritesTotal)
	prometheus.MustRegister(ReplicasConnected)
	prometheus.MustRegister(ReplicationPropagationDropsTotal)
	prometheus.MustRegister(ClientsConnected)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
