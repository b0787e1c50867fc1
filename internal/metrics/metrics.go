package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"micromeda/internal/assign"
)

// Run holds the counters of one build or merge invocation on a private
// registry, so repeated runs in one process never collide.
type Run struct {
	registry *prometheus.Registry

	samplesAssigned *prometheus.CounterVec
	samplesMerged   prometheus.Counter
	rowsSkipped     prometheus.Counter
	assignments     *prometheus.CounterVec
	duration        prometheus.Histogram
}

func NewRun() *Run {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Run{
		registry: reg,
		samplesAssigned: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "micromeda_samples_assigned_total",
			Help: "Samples assigned against the property catalog.",
		}, []string{"source"}),
		samplesMerged: factory.NewCounter(prometheus.CounterOpts{
			Name: "micromeda_samples_merged_total",
			Help: "Samples copied from input stores by a merge.",
		}),
		rowsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "micromeda_annotation_rows_skipped_total",
			Help: "Annotation rows skipped because they could not be parsed.",
		}),
		assignments: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "micromeda_property_assignments_total",
			Help: "Property assignments by resulting state.",
		}, []string{"state"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "micromeda_assignment_duration_seconds",
			Help:    "Time to parse and assign one sample.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
	}
}

func (r *Run) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveSample records an assigned sample. source names the pipeline
// that assigned it.
func (r *Run) ObserveSample(source string, cache *assign.Cache, skipped int, elapsed time.Duration) {
	r.samplesAssigned.WithLabelValues(source).Inc()
	r.rowsSkipped.Add(float64(skipped))
	for _, id := range cache.PropertyIDs() {
		state, _ := cache.Property(id)
		r.assignments.WithLabelValues(state.String()).Inc()
	}
	if elapsed > 0 {
		r.duration.Observe(elapsed.Seconds())
	}
}

// ObserveMerge records the samples carried over by a merge. Nothing is
// reassigned, so the assignment series are left alone.
func (r *Run) ObserveMerge(samples int) {
	r.samplesMerged.Add(float64(samples))
}

// WriteTextfile writes the registry for the node exporter textfile
// collector. The write goes through a temp file and rename.
func (r *Run) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
