// Package metrics provides Prometheus self-instrumentation for the monitor.
//
// Key metrics:
//   - Feed connection lifecycle (reconnects, fallback polls)
//   - Event ingestion and dedup drops
//   - Gateway query failures
//   - Cache write failures
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	EventsIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "monitor_events_ingested_total", Help: "Sandwich events accepted into the store"},
		[]string{"source"},
	)
	EventsDuplicate = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "monitor_events_duplicate_total", Help: "Events dropped because the slot was already retained"},
	)
	EventsMalformed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "monitor_events_malformed_total", Help: "Payloads dropped for failing shape validation"},
		[]string{"source"},
	)
	FeedReconnects = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "monitor_feed_reconnects_total", Help: "Reconnect attempts scheduled after abnormal closes"},
	)
	FallbackPolls = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "monitor_fallback_polls_total", Help: "Instant queries issued for the last-event fallback"},
	)
	QueryFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "monitor_query_failures_total", Help: "Gateway queries that returned an error"},
		[]string{"query"},
	)
	CacheWriteFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "monitor_cache_write_failures_total", Help: "Write-through failures to the persistent cache"},
	)
)

func init() {
	prometheus.MustRegister(
		EventsIngested, EventsDuplicate, EventsMalformed,
		FeedReconnects, FallbackPolls, QueryFailures, CacheWriteFailures,
	)
}

// Serve starts the /metrics listener on addr and returns the server so the
// caller can shut it down.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
