package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T) string {
	t.Helper()
	rec := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestCollectorIsSingleton(t *testing.T) {
	assert.Same(t, NewCollector(), NewCollector())
}

func TestCollectorRecords(t *testing.T) {
	c := NewCollector()
	c.RecordParse("upload", 2)
	c.RecordCache(true)
	c.RecordCache(false)
	c.SessionOpened()
	c.SessionClosed()
	c.RecordToolCall("parseKif", "success", 10*time.Millisecond)
	c.RecordExportRows(5)

	body := scrape(t)
	assert.Contains(t, body, `kifu_records_parsed_total{source="upload"}`)
	assert.Contains(t, body, "kifu_skipped_lines_total")
	assert.Contains(t, body, "kifu_cache_hits_total")
	assert.Contains(t, body, `kifu_mcp_tool_calls_total{status="success",tool="parseKif"}`)
	assert.Contains(t, body, "kifu_export_rows_total")
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	c := NewCollector()
	r := chi.NewRouter()
	r.Use(c.Middleware)
	r.Get("/records/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/records/abc", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	body := scrape(t)
	assert.Contains(t, body, `kifu_http_requests_total{method="GET",path="/records/{id}",status="418"}`)
}
