package taskqueue

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultSucceeded = "succeeded"
	resultCancelled = "cancelled"
	resultFailed    = "failed"
)

var (
	tasksEnqueued = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "widget_manager",
		Subsystem: "taskqueue",
		Name:      "tasks_enqueued_total",
		Help:      "Total tasks enqueued, labelled by kind.",
	}, []string{"kind"})

	tasksDelayed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "widget_manager",
		Subsystem: "taskqueue",
		Name:      "tasks_redelayed_total",
		Help:      "Tasks received before their not-before time and parked again.",
	}, []string{"kind"})

	taskResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "widget_manager",
		Subsystem: "worker",
		Name:      "task_results_total",
		Help:      "Terminal task outcomes, labelled by kind and result.",
	}, []string{"kind", "result"})

	taskRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "widget_manager",
		Subsystem: "worker",
		Name:      "retries_total",
		Help:      "Total failed attempts that were retried.",
	}, []string{"kind"})

	taskDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "widget_manager",
		Subsystem: "worker",
		Name:      "task_duration_seconds",
		Help:      "Task execution time over all attempts in seconds.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30, 60, 300},
	}, []string{"kind"})
)
