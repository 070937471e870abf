package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Transaction/commit metrics
	TransactionsCommitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "moorcore_transactions_committed_total",
			Help: "Total number of world-state transactions successfully committed",
		},
	)

	TransactionConflicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moorcore_transaction_conflicts_total",
			Help: "Total number of transaction commit conflicts by relation and kind",
		},
		[]string{"relation", "kind"},
	)

	CommitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "moorcore_commit_duration_seconds",
			Help:    "Time taken to run a transaction's two-phase commit in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	RelationSize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "moorcore_relation_size",
			Help: "Number of live entries in a relation's canonical index",
		},
		[]string{"relation"},
	)

	// Scheduler metrics
	TasksRunning = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "moorcore_tasks_running",
			Help: "Number of tasks currently executing (not suspended)",
		},
	)

	TasksSuspended = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "moorcore_tasks_suspended",
			Help: "Number of tasks currently suspended (timed wake, input-wait, or delayed fork)",
		},
	)

	TasksStartedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moorcore_tasks_started_total",
			Help: "Total tasks started by TaskStart kind",
		},
		[]string{"kind"},
	)

	TasksFinishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moorcore_tasks_finished_total",
			Help: "Total tasks reaching a terminal outcome, by outcome",
		},
		[]string{"outcome"},
	)

	TaskConflictRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "moorcore_task_conflict_retries_total",
			Help: "Total number of TaskConflictRetry restarts issued by the scheduler",
		},
	)

	TaskExecutionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "moorcore_task_execution_duration_seconds",
			Help:    "Wall-clock time from a task's first launch to its terminal outcome",
			Buckets: prometheus.DefBuckets,
		},
	)

	SchedulerTickDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "moorcore_scheduler_tick_duration_seconds",
			Help:    "Time taken to process one scheduler control-loop tick (wake-up scan)",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(TransactionsCommitted)
	prometheus.MustRegister(TransactionConflicts)
	prometheus.MustRegister(CommitDuration)
	prometheus.MustRegister(RelationSize)

	prometheus.MustRegister(TasksRunning)
	prometheus.MustRegister(TasksSuspended)
	prometheus.MustRegister(TasksStartedTotal)
	prometheus.MustRegister(TasksFinishedTotal)
	prometheus.MustRegister(TaskConflictRetries)
	prometheus.MustRegister(TaskExecutionDuration)
	prometheus.MustRegister(SchedulerTickDuration)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
