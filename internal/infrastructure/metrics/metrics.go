// Package metrics Prometheus 指標
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "recipe_extractor"

// Metrics 服務指標，各自使用獨立的 registry
type Metrics struct {
	registry *prometheus.Registry

	extractTier    *prometheus.CounterVec
	ingestOutcomes *prometheus.CounterVec
	ingestDuration *prometheus.HistogramVec
	droppedLines   prometheus.Counter
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

// New 建立並註冊所有指標
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		extractTier: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extract_tier_total",
			Help:      "Extractions by section and the tier that produced candidates.",
		}, []string{"section", "tier"}),
		ingestOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_outcomes_total",
			Help:      "Ingest results by outcome.",
		}, []string{"outcome"}),
		ingestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_duration_seconds",
			Help:      "Time spent extracting and storing one document.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		droppedLines: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_ingredient_lines_total",
			Help:      "Ingredient candidates rejected by the parser or filter.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.extractTier,
		m.ingestOutcomes,
		m.ingestDuration,
		m.droppedLines,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// RecordTier 記錄擷取使用的層級
func (m *Metrics) RecordTier(section, tier string) {
	m.extractTier.WithLabelValues(section, tier).Inc()
}

// RecordDropped 記錄被丟棄的食材行數
func (m *Metrics) RecordDropped(n int) {
	if n > 0 {
		m.droppedLines.Add(float64(n))
	}
}

// RecordOutcome 記錄單筆寫入結果，供批次處理使用
func (m *Metrics) RecordOutcome(outcome string, d time.Duration) {
	m.ingestOutcomes.WithLabelValues(outcome).Inc()
	m.ingestDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// ObserveHTTP 記錄 HTTP 請求
func (m *Metrics) ObserveHTTP(method, path string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// Registry 回傳底層 registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler /metrics 端點
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
