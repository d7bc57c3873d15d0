// Package rcmetrics holds the Prometheus metrics emitted by the scheduling
// core: one gauge/counter/histogram family per component, registered once
// at import time and fed by the algorithm packages.
package rcmetrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SolveDuration is the wall-clock time of a single algorithm
	// Schedule call (sgs, rollout, or cpsat), labeled by algorithm.
	SolveDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rcspd_solve_duration_seconds",
			Help:    "Time taken to solve a scheduling request in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"algorithm"},
	)

	TasksScheduled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rcspd_tasks_scheduled_total",
			Help: "Total number of tasks placed by algorithm",
		},
		[]string{"algorithm"},
	)

	ScheduleFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rcspd_schedule_failures_total",
			Help: "Total number of failed solve attempts by algorithm and error kind",
		},
		[]string{"algorithm", "kind"},
	)

	// RolloutDecisionsTotal counts every schedule-now-vs-defer comparison
	// bounded rollout makes, labeled by which scenario won.
	RolloutDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rcspd_rollout_decisions_total",
			Help: "Total number of bounded-rollout scenario decisions by outcome",
		},
		[]string{"action"},
	)

	CPSATObjectiveGap = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rcspd_cpsat_objective_gap",
			Help:    "CP-SAT search outcome per solve: 0 when the search tree was exhausted (OPTIMAL), 1 otherwise",
			Buckets: prometheus.DefBuckets,
		},
	)

	LockFileDrift = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rcspd_lock_file_drift_total",
			Help: "Total number of lock-pinned tasks dropped from a solve for no longer appearing in the input",
		},
		[]string{},
	)
)

func init() {
	prometheus.MustRegister(SolveDuration)
	prometheus.MustRegister(TasksScheduled)
	prometheus.MustRegister(ScheduleFailuresTotal)
	prometheus.MustRegister(RolloutDecisionsTotal)
	prometheus.MustRegister(CPSATObjectiveGap)
	prometheus.MustRegister(LockFileDrift)
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer times one solve invocation and reports it to a labeled histogram.
type Timer struct {
	start time.Time
}

func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) ObserveSeconds(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveDuration records the elapsed time to an unlabeled histogram, for
// callers timing something other than a solve (e.g. a single algorithm
// phase) that don't need ObserveSeconds' label vector.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(t.Duration().Seconds())
}
