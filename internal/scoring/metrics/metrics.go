package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the scoring module.
type Metrics struct {
	// Predictions served, by mode ("single"/"batch") and outcome
	// ("default"/"no_default").
	Predictions *prometheus.CounterVec

	// Requests rejected by the input validator.
	ValidationFailures prometheus.Counter

	// Latency of a single record scoring, validation included.
	ScoreLatency prometheus.Histogram

	// Rows per accepted batch request.
	BatchRows prometheus.Histogram
}

// New creates a Metrics instance with all scoring metrics registered.
func New() *Metrics {
	return &Metrics{
		Predictions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "credrisk_predictions_total",
			Help: "Total predictions served by mode and outcome",
		}, []string{"mode", "outcome"}),

		ValidationFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "credrisk_validation_failures_total",
			Help: "Total prediction requests rejected by the input validator",
		}),

		ScoreLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "credrisk_score_duration_seconds",
			Help:    "Duration of scoring a single record",
			Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025},
		}),

		BatchRows: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "credrisk_batch_rows",
			Help:    "Rows per accepted batch scoring request",
			Buckets: prometheus.ExponentialBuckets(10, 4, 8),
		}),
	}
}

// IncrementPrediction records a served prediction.
func (m *Metrics) IncrementPrediction(mode, outcome string) {
	if m != nil {
		m.Predictions.WithLabelValues(mode, outcome).Inc()
	}
}

// IncrementValidationFailure records a rejected request.
func (m *Metrics) IncrementValidationFailure() {
	if m != nil {
		m.ValidationFailures.Inc()
	}
}

// ObserveScoreLatency records the duration of scoring one record.
func (m *Metrics) ObserveScoreLatency(d time.Duration) {
	if m != nil {
		m.ScoreLatency.Observe(d.Seconds())
	}
}

// ObserveBatchRows records the size of an accepted batch.
func (m *Metrics) ObserveBatchRows(rows int) {
	if m != nil {
		m.BatchRows.Observe(float64(rows))
	}
}
