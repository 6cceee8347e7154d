package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "agri"

var (
	once sync.Once

	// PredictionsTotal counts classifier predictions by model and outcome.
	PredictionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "predictions_total",
		Help:      "Total number of classifier predictions, labeled by model and outcome.",
	}, []string{"model", "outcome"})

	PredictionDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "prediction_duration_seconds",
		Help:      "Time spent decoding, preprocessing and running a classifier.",
		Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"model"})

	// ModelState follows model.State: 0 uninitialized, 1 loading, 2 ready, 3 failed.
	ModelState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "model_state",
		Help:      "Lifecycle state of each classifier (0 uninitialized, 1 loading, 2 ready, 3 failed).",
	}, []string{"model"})

	LLMRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "llm",
		Name:      "requests_total",
		Help:      "Total number of upstream chat completion requests, labeled by operation and outcome.",
	}, []string{"operation", "outcome"})

	LLMRetriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "llm",
		Name:      "retries_total",
		Help:      "Total number of chat completion attempts retried after a 429 or 503.",
	})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests, labeled by method, route and status code.",
	}, []string{"method", "route", "status"})

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	UploadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "uploads_total",
		Help:      "Total number of image uploads, labeled by outcome.",
	}, []string{"outcome"})
)

// Register registers the collectors with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			PredictionsTotal,
			PredictionDurationSeconds,
			ModelState,
			LLMRequestsTotal,
			LLMRetriesTotal,
			HTTPRequestsTotal,
			HTTPRequestDurationSeconds,
			UploadsTotal,
		)
	})
}

func ObservePrediction(model, outcome string, started time.Time) {
	PredictionsTotal.WithLabelValues(model, outcome).Inc()
	PredictionDurationSeconds.WithLabelValues(model).Observe(time.Since(started).Seconds())
}

func ObserveLLM(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	LLMRequestsTotal.WithLabelValues(operation, outcome).Inc()
}
