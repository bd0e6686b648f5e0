package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusOnce     sync.Once
	prometheusInstance *Collector
)

// Collector holds the Prometheus metrics of the kifu services.
type Collector struct {
	recordsParsed *prometheus.CounterVec
	skippedLines  prometheus.Counter

	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter

	activeSessions prometheus.Gauge

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	toolCallsTotal   *prometheus.CounterVec
	toolDurationSecs *prometheus.HistogramVec

	exportRows prometheus.Counter
}

// NewCollector returns the process-wide collector, registering it on first use.
func NewCollector() *Collector {
	prometheusOnce.Do(func() {
		prometheusInstance = &Collector{
			recordsParsed: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "kifu_records_parsed_total",
					Help: "Total number of KIF records parsed",
				},
				[]string{"source"},
			),
			skippedLines: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "kifu_skipped_lines_total",
					Help: "Total number of input lines the parser dropped",
				},
			),
			cacheHits: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "kifu_cache_hits_total",
					Help: "Total number of parsed-record cache hits",
				},
			),
			cacheMisses: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "kifu_cache_misses_total",
					Help: "Total number of parsed-record cache misses",
				},
			),
			activeSessions: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "kifu_active_sessions",
					Help: "Number of open navigation sessions",
				},
			),
			httpRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "kifu_http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			httpRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "kifu_http_request_duration_seconds",
					Help:    "Duration of HTTP requests in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"method", "path"},
			),
			toolCallsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "kifu_mcp_tool_calls_total",
					Help: "Total number of MCP tool calls",
				},
				[]string{"tool", "status"},
			),
			toolDurationSecs: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "kifu_mcp_tool_duration_seconds",
					Help:    "Duration of MCP tool calls in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"tool"},
			),
			exportRows: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "kifu_export_rows_total",
					Help: "Total number of move rows written to parquet",
				},
			),
		}
	})
	return prometheusInstance
}

// RecordParse records one parsed record and the lines it skipped.
func (c *Collector) RecordParse(source string, skipped int) {
	c.recordsParsed.WithLabelValues(source).Inc()
	c.skippedLines.Add(float64(skipped))
}

func (c *Collector) RecordCache(hit bool) {
	if hit {
		c.cacheHits.Inc()
		return
	}
	c.cacheMisses.Inc()
}

func (c *Collector) SessionOpened() { c.activeSessions.Inc() }
func (c *Collector) SessionClosed() { c.activeSessions.Dec() }

// RecordToolCall records an MCP tool call.
func (c *Collector) RecordToolCall(tool, status string, duration time.Duration) {
	c.toolCallsTotal.WithLabelValues(tool, status).Inc()
	c.toolDurationSecs.WithLabelValues(tool).Observe(duration.Seconds())
}

func (c *Collector) RecordExportRows(n int) {
	c.exportRows.Add(float64(n))
}

// RecordHTTPRequest records an HTTP request metric.
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	c.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// Middleware records request counts and latency labelled by chi route pattern.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		c.RecordHTTPRequest(r.Method, path, rw.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Hijack is needed for websocket upgrades.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	w.status = http.StatusSwitchingProtocols
	return h.Hijack()
}
