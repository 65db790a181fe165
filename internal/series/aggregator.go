package series

import (
	"context"
	"log/slog"
	"sync"
	"time"

	prommodel "github.com/prometheus/common/model"

	"github.com/avenz/sandwich-monitor/internal/gateway"
	"github.com/avenz/sandwich-monitor/internal/metrics"
	"github.com/avenz/sandwich-monitor/internal/model"
)

// Gateway is the query surface the aggregator needs.
type Gateway interface {
	Instant(ctx context.Context, expr string) (gateway.Sample, bool, error)
	Range(ctx context.Context, expr string, start, end time.Time, step time.Duration) ([]model.TimeSeriesPoint, error)
}

// Config holds aggregator settings.
type Config struct {
	Lookback     time.Duration // Window for history and read-time filtering
	HistoryStep  time.Duration // Step for the one-shot balance backfill
	ProfitStep   time.Duration // Step for the profit-view series
	LiveGrace    time.Duration // Delay before the first live append
	LiveInterval time.Duration // Live append interval
	RateInterval time.Duration // Rate snapshot interval
	RateWindows  []string      // Lookback labels for the rate snapshot
}

// DefaultConfig returns the standard timings.
func DefaultConfig() Config {
	return Config{
		Lookback:     24 * time.Hour,
		HistoryStep:  time.Minute,
		ProfitStep:   10 * time.Minute,
		LiveGrace:    5 * time.Second,
		LiveInterval: 30 * time.Second,
		RateInterval: 60 * time.Second,
		RateWindows:  []string{"1h", "3h", "6h", "12h", "24h"},
	}
}

// Aggregator merges the one-shot balance backfill with live appended
// points and keeps the multi-window rate snapshot fresh.
type Aggregator struct {
	cfg    Config
	gw     Gateway
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.RWMutex
	balance    []model.TimeSeriesPoint
	rates      map[string]float64
	profitRate []model.TimeSeriesPoint
	bundles    []model.TimeSeriesPoint
	tips       []model.TimeSeriesPoint
}

// New creates an Aggregator. Nothing is fetched until Start.
func New(cfg Config, gw Gateway, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		cfg:    cfg,
		gw:     gw,
		logger: logger,
		rates:  make(map[string]float64),
	}
}

// Start launches the backfill, the live append loop, and the rate
// snapshot loop.
func (a *Aggregator) Start(ctx context.Context) error {
	a.ctx, a.cancel = context.WithCancel(ctx)

	a.wg.Add(2)
	go a.runLive()
	go a.runRates()

	a.logger.Info("aggregator started",
		"lookback", a.cfg.Lookback,
		"live_interval", a.cfg.LiveInterval,
		"rate_interval", a.cfg.RateInterval,
	)
	return nil
}

// Stop shuts down the loops.
func (a *Aggregator) Stop(ctx context.Context) error {
	if a.cancel != nil {
		a.cancel()
	}

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		a.logger.Info("aggregator stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runLive backfills once, waits out the grace delay, then appends live
// points on a fixed interval.
func (a *Aggregator) runLive() {
	defer a.wg.Done()

	a.fetchHistory(a.ctx)

	select {
	case <-a.ctx.Done():
		return
	case <-time.After(a.cfg.LiveGrace):
	}

	ticker := time.NewTicker(a.cfg.LiveInterval)
	defer ticker.Stop()

	a.appendLive(a.ctx)
	for {
		select {
		case <-a.ctx.Done():
			return
		case <-ticker.C:
			a.appendLive(a.ctx)
		}
	}
}

// runRates refreshes the rate snapshot immediately and then on a fixed
// interval.
func (a *Aggregator) runRates() {
	defer a.wg.Done()

	ticker := time.NewTicker(a.cfg.RateInterval)
	defer ticker.Stop()

	a.refreshRates(a.ctx)
	for {
		select {
		case <-a.ctx.Done():
			return
		case <-ticker.C:
			a.refreshRates(a.ctx)
		}
	}
}

// fetchHistory runs the one-shot balance backfill. Failure or an empty
// result leaves the series empty; points are never fabricated.
func (a *Aggregator) fetchHistory(ctx context.Context) {
	end := time.Now()
	points, err := a.gw.Range(ctx, gateway.QueryBalance, end.Add(-a.cfg.Lookback), end, a.cfg.HistoryStep)
	if err != nil {
		metrics.QueryFailures.WithLabelValues("balance_history").Inc()
		a.logger.Warn("balance backfill failed, starting empty", "error", err)
		return
	}

	a.mu.Lock()
	a.balance = points
	a.mu.Unlock()

	a.logger.Info("balance history loaded", "points", len(points))
}

// appendLive fetches one balance sample and appends it if its timestamp
// is strictly greater than the last retained point. Stale or
// duplicate-tick samples are rejected silently.
func (a *Aggregator) appendLive(ctx context.Context) {
	sample, ok, err := a.gw.Instant(ctx, gateway.QueryBalance)
	if err != nil {
		metrics.QueryFailures.WithLabelValues("balance_live").Inc()
		a.logger.Warn("live balance query failed", "error", err)
		return
	}
	if !ok {
		a.logger.Debug("live balance query returned no value")
		return
	}

	point := model.TimeSeriesPoint{
		Timestamp: sample.Time.UnixMilli(),
		Value:     sample.Value,
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if n := len(a.balance); n > 0 && point.Timestamp <= a.balance[n-1].Timestamp {
		return
	}
	a.balance = append(a.balance, point)
}

// refreshRates queries every window independently and swaps in the whole
// snapshot at once. A failed or empty window yields 0 for that label
// without affecting the others.
func (a *Aggregator) refreshRates(ctx context.Context) {
	fresh := make(map[string]float64, len(a.cfg.RateWindows))
	for _, window := range a.cfg.RateWindows {
		sample, ok, err := a.gw.Instant(ctx, gateway.QueryProfitIncrease(window))
		if err != nil {
			metrics.QueryFailures.WithLabelValues("rate_window").Inc()
			a.logger.Warn("rate window query failed", "window", window, "error", err)
			fresh[window] = 0
			continue
		}
		if !ok {
			fresh[window] = 0
			continue
		}
		fresh[window] = sample.Value
	}

	a.mu.Lock()
	a.rates = fresh
	a.mu.Unlock()
}

// RefreshProfitView refetches the profit-rate, bundle, and tip series in
// full. Called each time the profit view becomes active; these series are
// never live-appended. Each query degrades independently to an empty
// series.
func (a *Aggregator) RefreshProfitView(ctx context.Context) {
	end := time.Now()
	start := end.Add(-a.cfg.Lookback)
	stepLabel := prommodel.Duration(a.cfg.ProfitStep).String()

	profit := a.fetchRange(ctx, "profit_rate", gateway.QueryProfitRate(stepLabel), start, end, a.cfg.ProfitStep)
	bundles := a.fetchRange(ctx, "bundles", gateway.QueryBundlesLanded("1h"), start, end, time.Hour)
	tips := a.fetchRange(ctx, "tips", gateway.QueryTips("1h"), start, end, time.Hour)

	a.mu.Lock()
	a.profitRate = profit
	a.bundles = bundles
	a.tips = tips
	a.mu.Unlock()
}

func (a *Aggregator) fetchRange(ctx context.Context, name, expr string, start, end time.Time, step time.Duration) []model.TimeSeriesPoint {
	points, err := a.gw.Range(ctx, expr, start, end, step)
	if err != nil {
		metrics.QueryFailures.WithLabelValues(name).Inc()
		a.logger.Warn("range query failed", "series", name, "error", err)
		return nil
	}
	return points
}

// Balance returns the points inside the lookback window ending at now.
// Filtering happens at read time; the stored series is not mutated.
func (a *Aggregator) Balance(now time.Time) []model.TimeSeriesPoint {
	cutoff := now.Add(-a.cfg.Lookback).UnixMilli()

	a.mu.RLock()
	defer a.mu.RUnlock()

	idx := 0
	for idx < len(a.balance) && a.balance[idx].Timestamp < cutoff {
		idx++
	}
	out := make([]model.TimeSeriesPoint, len(a.balance)-idx)
	copy(out, a.balance[idx:])
	return out
}

// Rates returns a copy of the current rate snapshot.
func (a *Aggregator) Rates() map[string]float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make(map[string]float64, len(a.rates))
	for k, v := range a.rates {
		out[k] = v
	}
	return out
}

// ProfitRate returns a copy of the profit-rate series.
func (a *Aggregator) ProfitRate() []model.TimeSeriesPoint {
	return a.copySeries(&a.profitRate)
}

// Bundles returns a copy of the landed-bundle series.
func (a *Aggregator) Bundles() []model.TimeSeriesPoint {
	return a.copySeries(&a.bundles)
}

// Tips returns a copy of the tips series.
func (a *Aggregator) Tips() []model.TimeSeriesPoint {
	return a.copySeries(&a.tips)
}

func (a *Aggregator) copySeries(s *[]model.TimeSeriesPoint) []model.TimeSeriesPoint {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]model.TimeSeriesPoint, len(*s))
	copy(out, *s)
	return out
}
