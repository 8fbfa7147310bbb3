// Package metrics exposes batch grading figures in the Prometheus text
// format so a node-exporter textfile collector can pick them up.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/verte-zerg/calificador/internal/exam"
	"github.com/verte-zerg/calificador/internal/model"
)

const namespace = "calificador"

// Recorder holds the collectors for grading runs on its own registry.
type Recorder struct {
	registry *prometheus.Registry

	graded    *prometheus.CounterVec
	review    prometheus.Counter
	warnings  *prometheus.CounterVec
	duration  prometheus.Gauge
	lastBatch prometheus.Gauge
}

// New creates a Recorder with every career path and warning kind
// pre-initialized to zero.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		graded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_graded_total",
			Help:      "Candidates graded, by assigned career path.",
		}, []string{"career_path"}),
		review: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_review_total",
			Help:      "Candidates flagged for manual review.",
		}),
		warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "warnings_total",
			Help:      "Per-candidate grading warnings, by kind.",
		}, []string{"kind"}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Wall time spent scoring the last batch.",
		}),
		lastBatch: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_batch_timestamp_seconds",
			Help:      "Unix time the last batch was graded.",
		}),
	}
	r.registry.MustRegister(r.graded, r.review, r.warnings, r.duration, r.lastBatch)
	for _, p := range exam.CareerPaths {
		r.graded.WithLabelValues(string(p))
	}
	for _, kind := range []model.WarningKind{model.WarnMissingAnswerKey, model.WarnUnknownExamVariant, model.WarnShortAnswerSequence} {
		r.warnings.WithLabelValues(string(kind))
	}
	return r
}

// Registry returns the registry holding the grading collectors.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Observe records one graded batch.
func (r *Recorder) Observe(batch *model.Batch) {
	for _, res := range batch.Results {
		r.graded.WithLabelValues(string(res.Path)).Inc()
		if res.NeedsReview() {
			r.review.Inc()
		}
	}
	for _, w := range batch.Warnings {
		r.warnings.WithLabelValues(string(w.Kind)).Inc()
	}
	r.duration.Set(batch.Duration.Seconds())
	r.lastBatch.Set(float64(batch.CreatedAt.Unix()))
}

// WriteTextfile writes the registry to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}
