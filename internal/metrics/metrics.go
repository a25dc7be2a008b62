// Package metrics defines the Prometheus metrics exposed by the
// scoring server: scoring volume and latency, validation rejections,
// model age and dataset size.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the scoring service.
type Metrics struct {
	ScoresTotal        prometheus.Counter   // Total number of scoring requests served
	ScoreFailures      prometheus.Counter   // Scoring requests rejected by input validation
	ScoreLatency       prometheus.Histogram // Scoring latency in seconds
	ScoreProbabilities prometheus.Histogram // Distribution of predicted success probabilities
	ModelAge           prometheus.Gauge     // Age of the loaded model artifact in seconds
	TrainingSamples    prometheus.Gauge     // Number of samples the loaded model was trained on
	DatasetPairs       prometheus.Gauge     // Number of historical pairs loaded for the dashboard API
}

// New creates and registers all metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry, which keeps
// tests isolated from the global Prometheus state.
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		ScoresTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "scores_total",
			Help: "Total number of scoring requests served",
		}),
		ScoreFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "score_failures_total",
			Help: "Scoring requests rejected by input validation",
		}),
		ScoreLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "score_latency_seconds",
			Help:    "Scoring latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		ScoreProbabilities: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "score_probabilities",
			Help:    "Distribution of predicted success probabilities",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		ModelAge: factory.NewGauge(prometheus.GaugeOpts{
			Name: "model_age_seconds",
			Help: "Age of the loaded model artifact in seconds",
		}),
		TrainingSamples: factory.NewGauge(prometheus.GaugeOpts{
			Name: "model_training_samples",
			Help: "Number of samples the loaded model was trained on",
		}),
		DatasetPairs: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dataset_pairs",
			Help: "Number of historical pairs loaded for the dashboard API",
		}),
	}
}
