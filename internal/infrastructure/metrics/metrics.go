// Package metrics exposes prometheus collectors for the unit of work.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Commit outcomes
const (
	OutcomeCommitted  = "committed"
	OutcomeRolledBack = "rolled_back"
	OutcomeEmpty      = "empty"
)

// Collector records commit activity. A nil Collector records nothing.
type Collector struct {
	commits    *prometheus.CounterVec
	statements *prometheus.CounterVec
	rows       prometheus.Counter
	duration   prometheus.Histogram
}

// New creates the collectors and registers them on reg. pending, when not
// nil, is exposed as a gauge of queued changes.
func New(reg prometheus.Registerer, pending func() float64) *Collector {
	c := &Collector{
		commits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "userstore",
			Subsystem: "uow",
			Name:      "commits_total",
			Help:      "Commit attempts by outcome.",
		}, []string{"outcome"}),
		statements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "userstore",
			Subsystem: "uow",
			Name:      "statements_total",
			Help:      "Statements executed inside commits by operation.",
		}, []string{"operation"}),
		rows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "userstore",
			Subsystem: "uow",
			Name:      "rows_affected_total",
			Help:      "Rows affected by committed batches.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "userstore",
			Subsystem: "uow",
			Name:      "commit_duration_seconds",
			Help:      "Time spent in CommitAll.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(c.commits, c.statements, c.rows, c.duration)
	if pending != nil {
		reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "userstore",
			Subsystem: "uow",
			Name:      "pending_changes",
			Help:      "Changes waiting for the next commit.",
		}, pending))
	}
	return c
}

// ObserveCommit records one CommitAll call
func (c *Collector) ObserveCommit(outcome string, elapsed time.Duration, rows int64) {
	if c == nil {
		return
	}
	c.commits.WithLabelValues(outcome).Inc()
	c.duration.Observe(elapsed.Seconds())
	if rows > 0 {
		c.rows.Add(float64(rows))
	}
}

// ObserveStatement records one executed statement
func (c *Collector) ObserveStatement(operation string) {
	if c == nil {
		return
	}
	c.statements.WithLabelValues(operation).Inc()
}
