package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/strata/pkg/dataset"
)

// handlerMetrics is the Prometheus implementation of
// dataset.HandlerMetrics. One instance is created per named target so
// dashboards can tell the queues apart.
type handlerMetrics struct {
	tasksEnqueued *prometheus.CounterVec
	tasksExecuted *prometheus.CounterVec
	taskDuration  *prometheus.HistogramVec
	flushesTotal  *prometheus.CounterVec
	flushDuration prometheus.Histogram
	flushTasks    prometheus.Histogram
	queueDepth    prometheus.Gauge
}

// NewHandlerMetrics creates a Prometheus-backed metrics sink for one
// handler, labelled with the target name.
//
// Returns nil if metrics are not enabled (InitRegistry not called);
// the handler treats a nil sink as "collect nothing".
func NewHandlerMetrics(target string) dataset.HandlerMetrics {
	if !IsEnabled() {
		return nil
	}

	reg := GetRegistry()
	labels := prometheus.Labels{"target": target}

	return &handlerMetrics{
		tasksEnqueued: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name:        "strata_tasks_enqueued_total",
				Help:        "Total number of I/O tasks appended to the queue, by operation",
				ConstLabels: labels,
			},
			[]string{"op"},
		),
		tasksExecuted: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name:        "strata_tasks_executed_total",
				Help:        "Total number of dispatched I/O tasks, by operation and status",
				ConstLabels: labels,
			},
			[]string{"op", "status"},
		),
		taskDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "strata_task_duration_seconds",
				Help:        "Backend dispatch duration of individual I/O tasks",
				ConstLabels: labels,
				Buckets: []float64{
					0.0001, // 100µs
					0.0005,
					0.001,
					0.005,
					0.01,
					0.05,
					0.1,
					0.5,
					1.0,
					5.0,
				},
			},
			[]string{"op"},
		),
		flushesTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name:        "strata_flushes_total",
				Help:        "Total number of flush calls, by status",
				ConstLabels: labels,
			},
			[]string{"status"},
		),
		flushDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:        "strata_flush_duration_seconds",
				Help:        "Wall time of queue drains",
				ConstLabels: labels,
				Buckets:     []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 30.0},
			},
		),
		flushTasks: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:        "strata_flush_tasks",
				Help:        "Number of tasks executed per flush call",
				ConstLabels: labels,
				Buckets:     []float64{0, 1, 2, 5, 10, 25, 50, 100, 250, 1000},
			},
		),
		queueDepth: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name:        "strata_queue_depth",
				Help:        "Tasks currently queued and not yet flushed",
				ConstLabels: labels,
			},
		),
	}
}

// TaskEnqueued implements dataset.HandlerMetrics.
func (m *handlerMetrics) TaskEnqueued(op dataset.Operation) {
	m.tasksEnqueued.WithLabelValues(op.String()).Inc()
	m.queueDepth.Inc()
}

// TaskExecuted implements dataset.HandlerMetrics.
func (m *handlerMetrics) TaskExecuted(op dataset.Operation, d time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.tasksExecuted.WithLabelValues(op.String(), status).Inc()
	m.taskDuration.WithLabelValues(op.String()).Observe(d.Seconds())
	m.queueDepth.Dec()
}

// FlushCompleted implements dataset.HandlerMetrics.
func (m *handlerMetrics) FlushCompleted(d time.Duration, executed int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.flushesTotal.WithLabelValues(status).Inc()
	m.flushDuration.Observe(d.Seconds())
	m.flushTasks.Observe(float64(executed))
}
