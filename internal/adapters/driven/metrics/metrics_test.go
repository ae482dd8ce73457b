package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Ingestion(t *testing.T) {
	m := New("")

	m.DocumentIngested(3)
	m.DocumentIngested(2)
	m.IngestFailure("load")
	m.IngestFailure("embed")
	m.IngestFailure("embed")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.documentsIngested))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.chunksIngested))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ingestFailures.WithLabelValues("load")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ingestFailures.WithLabelValues("embed")))
}

func TestMetrics_EmbedBatch(t *testing.T) {
	m := New("test")

	m.EmbedBatch(10, 1, 20*time.Millisecond, nil)
	m.EmbedBatch(4, 3, time.Second, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.embedBatches.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.embedBatches.WithLabelValues("error")))
	assert.Equal(t, 14.0, testutil.ToFloat64(m.embedTexts))
	assert.Equal(t, 2, testutil.CollectAndCount(m.embedBatches))
}

func TestMetrics_QueryAndSessions(t *testing.T) {
	m := New("")

	m.Query(100*time.Millisecond, "answered")
	m.Query(10*time.Millisecond, "no_context")
	m.Query(10*time.Millisecond, "answered")
	m.Sessions(4)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.queries.WithLabelValues("answered")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queries.WithLabelValues("no_context")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.sessions))
}

func TestMetrics_HandlerAndMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New("")
	m.Query(time.Millisecond, "answered")

	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "sercha_rag_queries_total")
	assert.Contains(t, body, `sercha_rag_http_requests_total{method="GET",path="/healthz",status="200"} 1`)
}
