// Package metrics provides Prometheus collectors for the prescription server:
//   - http_request_total / http_request_duration_seconds / http_request_in_flight
//     for every HTTP route, recorded by Middleware;
//   - http_panics_total, counting handler panics turned into 500s;
//   - catalog_upserts_total, counting upsert-if-absent outcomes per catalog;
//   - document_renders_total and document_render_duration_seconds, per layout
//     variant, including renders that fell back to the Latin font.
//
// All collectors are registered with the Prometheus default registry during
// package initialization and exposed by Handler.
package metrics

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Upsert outcomes.
const (
	OutcomeCreated  = "created"
	OutcomeExisting = "existing"
	OutcomeFailed   = "failed"
)

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPPanics = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_panics_total",
			Help: "Handler panics recovered by the server",
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	CatalogUpserts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_upserts_total",
			Help: "Catalog upsert-if-absent calls by catalog and outcome",
		},
		[]string{"catalog", "outcome"},
	)

	DocumentRenders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "document_renders_total",
			Help: "Prescription documents rendered by variant and font",
		},
		[]string{"variant", "font"},
	)

	DocumentRenderDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "document_render_duration_seconds",
			Help:    "Time spent composing and encoding a prescription document",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"variant"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(HTTPPanics)
	prometheus.MustRegister(CatalogUpserts)
	prometheus.MustRegister(DocumentRenders)
	prometheus.MustRegister(DocumentRenderDuration)
}

// Handler serves the default registry in the Prometheus text format.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
