// Package stats counts what a run did: cuts, rejected candidates, posted tours and
// loop iterations. Each run owns its own registry.
package stats

import (
	"io"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const namespace = "tspmip"

type Collector struct {
	registry *prometheus.Registry

	SECs               prometheus.Counter
	Rejected           prometheus.Counter
	Posted             prometheus.Counter
	PostFallbacks      prometheus.Counter
	BendersIterations  prometheus.Counter
	Patched            prometheus.Counter
	MatheurIterations  *prometheus.CounterVec
	MatheurImprovement *prometheus.CounterVec
	SolveSeconds       prometheus.Histogram
}

func New(runID, alg string) *Collector {
	labels := prometheus.Labels{"run": runID, "alg": alg}
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: name, Help: help, ConstLabels: labels,
		})
	}
	c := &Collector{
		registry:          prometheus.NewRegistry(),
		SECs:              counter("sec_cuts_total", "Subtour elimination constraints added."),
		Rejected:          counter("candidates_rejected_total", "Integer candidates rejected with cuts."),
		Posted:            counter("incumbents_posted_total", "Tours posted to the solver as incumbents."),
		PostFallbacks:     counter("post_fallbacks_total", "Posts that fell back to the unrefined tour."),
		BendersIterations: counter("benders_iterations_total", "Solve/separate rounds of the Benders loop."),
		Patched:           counter("patched_tours_total", "Disconnected solutions repaired into tours."),
		MatheurIterations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "matheur_iterations_total", Help: "Matheuristic sub-solves.", ConstLabels: labels,
		}, []string{"method"}),
		MatheurImprovement: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "matheur_improvements_total", Help: "Sub-solves that improved the incumbent.", ConstLabels: labels,
		}, []string{"method"}),
		SolveSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "solve_seconds", Help: "Duration of single optimize calls.", ConstLabels: labels,
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
	}
	c.registry.MustRegister(c.SECs, c.Rejected, c.Posted, c.PostFallbacks, c.BendersIterations,
		c.Patched, c.MatheurIterations, c.MatheurImprovement, c.SolveSeconds)
	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// WriteText writes all metrics in the Prometheus text exposition format.
func (c *Collector) WriteText(w io.Writer) error {
	families, err := c.registry.Gather()
	if err != nil {
		return errors.Wrap(err, "gathering metrics")
	}
	for _, mf := range families {
		if _, err = expfmt.MetricFamilyToText(w, mf); err != nil {
			return errors.Wrapf(err, "writing %s", mf.GetName())
		}
	}
	return nil
}
