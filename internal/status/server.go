// Package status exposes the relay's small HTTP surface: health, stats and
// Prometheus metrics. The daemon has no interactive surface beyond this;
// failures show up only in logs and metrics.
package status

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/skyrelay/internal/monitoring"
	"github.com/banshee-data/skyrelay/internal/version"
)

// ANSI escape codes for request logging
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// QueueInfo reports the delivery queue's buffered item count.
type QueueInfo interface {
	Len() int
}

// CacheInfo reports the dedup cache's tracked event count.
type CacheInfo interface {
	Len() int
}

// Server serves the status endpoints.
type Server struct {
	queue   QueueInfo
	cache   CacheInfo
	metrics *monitoring.Metrics
	started time.Time
}

// NewServer creates a status server over the given pipeline components.
func NewServer(queue QueueInfo, cache CacheInfo, metrics *monitoring.Metrics) *Server {
	return &Server{
		queue:   queue,
		cache:   cache,
		metrics: metrics,
		started: time.Now(),
	}
}

// Routes builds the handler with logging middleware applied.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/stats", s.handleStats)
	mux.Handle("/metrics", s.metrics.Handler())
	return LoggingMiddleware(mux)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("ok\n"))
}

// Stats is the /stats response body.
type Stats struct {
	Version       string `json:"version"`
	QueueDepth    int    `json:"queue_depth"`
	TrackedEvents int    `json:"tracked_events"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	StartedAt     string `json:"started_at"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := Stats{
		Version:       version.String(),
		QueueDepth:    s.queue.Len(),
		TrackedEvents: s.cache.Len(),
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
		StartedAt:     s.started.UTC().Format(time.RFC3339),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		monitoring.Logf("stats encode failed: %v", err)
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, status, and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf("[%s] %s %s %vms",
			statusCodeColor(lrw.statusCode), r.Method, r.URL.Path,
			time.Since(start).Milliseconds())
	})
}
