package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	Generations        *prometheus.CounterVec
	GenerationDuration *prometheus.HistogramVec
	CatalogFallbacks   *prometheus.CounterVec
	WatermarkFailures  prometheus.Counter
	HistoryWrites      *prometheus.CounterVec
	HistoryDropped     prometheus.Counter
	UpstreamRequests   *prometheus.CounterVec
	UpstreamDuration   prometheus.Histogram
}

// New registers the collectors on reg. A nil reg gets a private registry,
// which keeps tests from colliding on the default one.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Metrics{
		Generations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "archviz_generations_total",
			Help: "Generation attempts by mode and outcome.",
		}, []string{"mode", "status"}),
		GenerationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "archviz_generation_duration_seconds",
			Help:    "End-to-end generation latency by mode.",
			Buckets: []float64{1, 2.5, 5, 10, 20, 40, 60, 90, 120, 180},
		}, []string{"mode"}),
		CatalogFallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "archviz_catalog_fallbacks_total",
			Help: "Unknown catalog keys resolved to a default entry.",
		}, []string{"catalog"}),
		WatermarkFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "archviz_watermark_failures_total",
			Help: "Watermark attempts that fell back to the original image.",
		}),
		HistoryWrites: f.NewCounterVec(prometheus.CounterOpts{
			Name: "archviz_history_writes_total",
			Help: "Asynchronous history writes by outcome.",
		}, []string{"status"}),
		HistoryDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "archviz_history_dropped_total",
			Help: "History records dropped because the write queue was full.",
		}),
		UpstreamRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "archviz_upstream_requests_total",
			Help: "Calls from the generation endpoint to the image model by outcome.",
		}, []string{"status"}),
		UpstreamDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "archviz_upstream_duration_seconds",
			Help:    "Image model call latency.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
	}
}

func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
