// Package metrics exposes the platform's Prometheus instrumentation.  All
// collectors live on a private registry so tests never collide with the
// global default.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "forestwatch"

var (
	registry = prometheus.NewRegistry()

	pipelineDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "pipeline_duration_seconds",
		Help:      "Wall-clock duration of full pipeline executions.",
		Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
	})

	estimateHectares = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "estimate_hectares",
		Help:      "Most recent hectare estimate per dataset.",
	}, []string{"dataset"})

	runsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "runs_total",
		Help:      "Analysis runs by terminal status.",
	}, []string{"status"})

	catalogRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "catalog_requests_total",
		Help:      "Catalog service requests by operation and outcome.",
	}, []string{"operation", "outcome"})

	cacheOps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "estimate_cache_ops_total",
		Help:      "Estimate cache lookups by result.",
	}, []string{"result"})

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration by method and route.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"method", "route"})

	consumedMessages = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "consumed_messages_total",
		Help:      "Kafka messages consumed by topic and outcome.",
	}, []string{"topic", "outcome"})
)

func init() {
	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
		pipelineDuration,
		estimateHectares,
		runsTotal,
		catalogRequests,
		cacheOps,
		httpRequests,
		httpDuration,
		consumedMessages,
	)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// ObservePipelineDuration records one pipeline execution.
func ObservePipelineDuration(d time.Duration) {
	pipelineDuration.Observe(d.Seconds())
}

// ObserveEstimate records the latest hectare figure for a dataset.
func ObserveEstimate(dataset string, hectares float64) {
	estimateHectares.WithLabelValues(dataset).Set(hectares)
}

// IncRun counts a run reaching a terminal status.
func IncRun(status string) {
	runsTotal.WithLabelValues(status).Inc()
}

// IncCatalogRequest counts one catalog call.
func IncCatalogRequest(operation, outcome string) {
	catalogRequests.WithLabelValues(operation, outcome).Inc()
}

// IncCacheHit and IncCacheMiss count estimate cache lookups.
func IncCacheHit()  { cacheOps.WithLabelValues("hit").Inc() }
func IncCacheMiss() { cacheOps.WithLabelValues("miss").Inc() }

// ObserveHTTPRequest records one served HTTP request.
func ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// IncConsumedMessage counts one consumed Kafka message.
func IncConsumedMessage(topic, outcome string) {
	consumedMessages.WithLabelValues(topic, outcome).Inc()
}
