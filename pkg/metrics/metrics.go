// Package metrics exposes the prometheus counters shared by the loader and
// the lifecycle controller. A nil *Collector is valid and records nothing.
package metrics

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "formkit"

// Collector groups the engine's metric vectors.
type Collector struct {
	loads          *prometheus.CounterVec
	submissions    *prometheus.CounterVec
	submitDuration *prometheus.HistogramVec
}

// New creates the vectors and registers them with reg. A nil reg skips
// registration, which keeps tests independent of the default registry.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loads_total",
			Help:      "Loader invocations by loader name and outcome.",
		}, []string{"loader", "outcome"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Lifecycle submissions by form, action and outcome.",
		}, []string{"form", "action", "outcome"}),
		submitDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "submission_duration_seconds",
			Help:      "Time spent in the submit dispatcher.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"form", "action"}),
	}
	if reg == nil {
		return c, nil
	}
	for _, collector := range []prometheus.Collector{c.loads, c.submissions, c.submitDuration} {
		if err := reg.Register(collector); err != nil {
			return nil, errors.Wrap(err, "metrics: register collector")
		}
	}
	return c, nil
}

// Load records a finished load.
func (c *Collector) Load(loader string, err error) {
	if c == nil {
		return
	}
	c.loads.With(prometheus.Labels{"loader": loader, "outcome": outcome(err)}).Inc()
}

// Submission records a finished submit or delete.
func (c *Collector) Submission(form, action string, started time.Time, err error) {
	if c == nil {
		return
	}
	c.submissions.With(prometheus.Labels{"form": form, "action": action, "outcome": outcome(err)}).Inc()
	c.submitDuration.With(prometheus.Labels{"form": form, "action": action}).Observe(time.Since(started).Seconds())
}

// Loads returns the load counter vector, mainly for tests.
func (c *Collector) Loads() *prometheus.CounterVec { return c.loads }

// Submissions returns the submission counter vector, mainly for tests.
func (c *Collector) Submissions() *prometheus.CounterVec { return c.submissions }

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
