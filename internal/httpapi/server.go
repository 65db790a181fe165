// Package httpapi serves the dashboard JSON API.
//
// The rendering layer is a pure consumer: every endpoint returns the
// current state of the store or aggregator and degrades to empty payloads
// while data is unavailable.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/avenz/sandwich-monitor/internal/model"
)

// EventSource provides the retained event log.
type EventSource interface {
	Events() []model.SandwichEvent
}

// SeriesSource provides the charted series.
type SeriesSource interface {
	Balance(now time.Time) []model.TimeSeriesPoint
	Rates() map[string]float64
	ProfitRate() []model.TimeSeriesPoint
	Bundles() []model.TimeSeriesPoint
	Tips() []model.TimeSeriesPoint
	RefreshProfitView(ctx context.Context)
}

// Server is the dashboard HTTP API.
type Server struct {
	events EventSource
	series SeriesSource
	status func() string
	logger *slog.Logger
	srv    *http.Server
}

// NewServer creates the API server. status may be nil.
func NewServer(addr string, events EventSource, series SeriesSource, status func() string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		events: events,
		series: series,
		status: status,
		logger: logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/events", s.handleEvents)
	mux.HandleFunc("GET /api/balance", s.handleBalance)
	mux.HandleFunc("GET /api/rates", s.handleRates)
	mux.HandleFunc("GET /api/profit", s.handleProfit)
	mux.HandleFunc("GET /api/bundles", s.handleBundles)
	mux.HandleFunc("GET /api/tips", s.handleTips)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	s.srv = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Start begins serving. Non-blocking.
func (s *Server) Start() {
	go func() {
		s.logger.Info("api server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("api server failed", "error", err)
		}
	}()
}

// Stop shuts the listener down.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Handler returns the underlying handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	events := s.events.Events()
	if events == nil {
		events = []model.SandwichEvent{}
	}
	s.writeJSON(w, map[string]any{"events": events})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	points := s.series.Balance(time.Now())
	if points == nil {
		points = []model.TimeSeriesPoint{}
	}
	s.writeJSON(w, map[string]any{"series": points})
}

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]any{"rates": s.series.Rates()})
}

// handleProfit refetches the profit-view series in full before answering:
// the view becoming active is what triggers the fetch.
func (s *Server) handleProfit(w http.ResponseWriter, r *http.Request) {
	s.series.RefreshProfitView(r.Context())
	s.writeJSON(w, map[string]any{
		"profitRate": emptyIfNil(s.series.ProfitRate()),
		"bundles":    emptyIfNil(s.series.Bundles()),
		"tips":       emptyIfNil(s.series.Tips()),
	})
}

func (s *Server) handleBundles(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]any{"series": emptyIfNil(s.series.Bundles())})
}

func (s *Server) handleTips(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]any{"series": emptyIfNil(s.series.Tips())})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "ok"}
	if s.status != nil {
		resp["feed"] = s.status()
	}
	s.writeJSON(w, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("write response failed", "error", err)
	}
}

func emptyIfNil(points []model.TimeSeriesPoint) []model.TimeSeriesPoint {
	if points == nil {
		return []model.TimeSeriesPoint{}
	}
	return points
}
