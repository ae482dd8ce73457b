// Package metrics records ingestion, embedding, and query metrics in a
// Prometheus registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Metrics implements the interface.
var _ driven.Metrics = (*Metrics)(nil)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "sercha_rag"

// Metrics is a driven.Metrics backed by its own registry.
type Metrics struct {
	registry *prometheus.Registry

	documentsIngested prometheus.Counter
	chunksIngested    prometheus.Counter
	ingestFailures    *prometheus.CounterVec
	embedBatches      *prometheus.CounterVec
	embedTexts        prometheus.Counter
	embedAttempts     prometheus.Histogram
	embedDuration     prometheus.Histogram
	queries           *prometheus.CounterVec
	queryDuration     prometheus.Histogram
	sessions          prometheus.Gauge

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New creates and registers all collectors under namespace.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	m := &Metrics{registry: prometheus.NewRegistry()}

	m.documentsIngested = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "documents_ingested_total",
		Help:      "Documents loaded and chunked",
	})
	m.chunksIngested = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "chunks_ingested_total",
		Help:      "Chunks produced from loaded documents",
	})
	m.ingestFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ingest_failures_total",
		Help:      "Ingestion failures by kind",
	}, []string{"kind"})
	m.embedBatches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "embed_batches_total",
		Help:      "Embedding batch calls by result",
	}, []string{"result"})
	m.embedTexts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "embed_texts_total",
		Help:      "Texts submitted for embedding",
	})
	m.embedAttempts = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "embed_batch_attempts",
		Help:      "Attempts needed per embedding batch",
		Buckets:   []float64{1, 2, 3, 5, 8},
	})
	m.embedDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "embed_batch_duration_seconds",
		Help:      "Embedding batch duration including retries",
		Buckets:   prometheus.DefBuckets,
	})
	m.queries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "queries_total",
		Help:      "Questions handled by outcome",
	}, []string{"outcome"})
	m.queryDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "query_duration_seconds",
		Help:      "Question answering latency",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	})
	m.sessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions_active",
		Help:      "Conversation sessions held in memory",
	})
	m.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route, and status",
	}, []string{"method", "path", "status"})
	m.httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})

	m.registry.MustRegister(
		m.documentsIngested,
		m.chunksIngested,
		m.ingestFailures,
		m.embedBatches,
		m.embedTexts,
		m.embedAttempts,
		m.embedDuration,
		m.queries,
		m.queryDuration,
		m.sessions,
		m.httpRequests,
		m.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// DocumentIngested records a loaded document and its chunk count.
func (m *Metrics) DocumentIngested(chunks int) {
	m.documentsIngested.Inc()
	m.chunksIngested.Add(float64(chunks))
}

// IngestFailure records a failure by kind.
func (m *Metrics) IngestFailure(kind string) {
	m.ingestFailures.WithLabelValues(kind).Inc()
}

// EmbedBatch records one embedding batch call.
func (m *Metrics) EmbedBatch(size int, attempts int, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.embedBatches.WithLabelValues(result).Inc()
	m.embedTexts.Add(float64(size))
	m.embedAttempts.Observe(float64(attempts))
	m.embedDuration.Observe(d.Seconds())
}

// Query records one answered question.
func (m *Metrics) Query(d time.Duration, outcome string) {
	m.queries.WithLabelValues(outcome).Inc()
	m.queryDuration.Observe(d.Seconds())
}

// Sessions records the number of live conversation sessions.
func (m *Metrics) Sessions(n int) {
	m.sessions.Set(float64(n))
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Middleware records request counts and latency per route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		c.Next()

		m.httpRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
