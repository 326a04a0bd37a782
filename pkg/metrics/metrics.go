package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	IngestRuns = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "twitoff_ingest_runs_total",
		Help: "Total ingestion runs",
	})
	IngestErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "twitoff_ingest_errors_total",
		Help: "Total ingestion errors by error code",
	}, []string{"code"})
	IngestTweets = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "twitoff_ingest_tweets_total",
		Help: "Total tweets stored by ingestion",
	})
	IngestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "twitoff_ingest_duration_seconds",
		Help:    "Ingestion duration seconds",
		Buckets: prometheus.DefBuckets,
	})
	Predictions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "twitoff_predictions_total",
		Help: "Total predictions by outcome",
	}, []string{"outcome"})
	PredictionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "twitoff_prediction_duration_seconds",
		Help:    "Prediction duration seconds, model fit included",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(IngestRuns, IngestErrors, IngestTweets, IngestDuration, Predictions, PredictionDuration)
}

// Handler serves the default registry in the exposition format
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveIngestDuration records a run duration
func ObserveIngestDuration(start time.Time) {
	IngestDuration.Observe(time.Since(start).Seconds())
}

// ObservePredictionDuration records a prediction duration
func ObservePredictionDuration(start time.Time) {
	PredictionDuration.Observe(time.Since(start).Seconds())
}

// IncIngestError counts a failed ingestion under its error code
func IncIngestError(code string) {
	if code == "" {
		code = "unknown"
	}
	IngestErrors.WithLabelValues(code).Inc()
}

// IncPrediction counts a prediction under its outcome
func IncPrediction(outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}
	Predictions.WithLabelValues(outcome).Inc()
}
