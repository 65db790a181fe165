package config

import (
	"time"

	"github.com/google/uuid"
)

// Default values for optional configuration fields.
//
// The reconnect/poll delays are fixed constants, not a backoff schedule:
// the feed alternates endpoints on a flat 3s delay and falls back to flat
// 10s polling with a 30s full-reconnect cycle.
const (
	DefaultGatewayURL        = "http://localhost:9090"
	DefaultGatewayTimeout    = 10 * time.Second
	DefaultMetricsListenAddr = ":9091"
	DefaultMaxAttempts       = 10
	DefaultReconnectDelay    = 3 * time.Second
	DefaultFallbackInterval  = 10 * time.Second
	DefaultPeriodicReconnect = 30 * time.Second
	DefaultHandshakeTimeout  = 10 * time.Second
	DefaultCacheAddr         = "localhost:6379"
	DefaultCacheKey          = "sandwich:recent"
	DefaultLookback          = 24 * time.Hour
	DefaultHistoryStep       = time.Minute
	DefaultProfitStep        = 10 * time.Minute
	DefaultLiveGrace         = 5 * time.Second
	DefaultLiveInterval      = 30 * time.Second
	DefaultRateInterval      = 60 * time.Second
	DefaultHTTPListenAddr    = ":8080"
	DefaultLogLevel          = "info"
)

// DefaultRateWindows are the lookback labels for the rate snapshot.
var DefaultRateWindows = []string{"1h", "3h", "6h", "12h", "24h"}

func (c *MonitorConfig) applyDefaults() {
	// Instance defaults
	if c.Instance.ID == "" {
		c.Instance.ID = "monitor-" + uuid.NewString()[:8]
	}
	if c.Instance.LogLevel == "" {
		c.Instance.LogLevel = DefaultLogLevel
	}

	// Feed defaults
	if c.Feed.SecondaryURL == "" {
		c.Feed.SecondaryURL = c.Feed.PrimaryURL
	}
	if c.Feed.MaxAttempts == 0 {
		c.Feed.MaxAttempts = DefaultMaxAttempts
	}
	if c.Feed.ReconnectDelay == 0 {
		c.Feed.ReconnectDelay = DefaultReconnectDelay
	}
	if c.Feed.FallbackInterval == 0 {
		c.Feed.FallbackInterval = DefaultFallbackInterval
	}
	if c.Feed.PeriodicReconnect == 0 {
		c.Feed.PeriodicReconnect = DefaultPeriodicReconnect
	}
	if c.Feed.HandshakeTimeout == 0 {
		c.Feed.HandshakeTimeout = DefaultHandshakeTimeout
	}

	// Metrics defaults
	if c.Metrics.GatewayURL == "" {
		c.Metrics.GatewayURL = DefaultGatewayURL
	}
	if c.Metrics.Timeout == 0 {
		c.Metrics.Timeout = DefaultGatewayTimeout
	}
	if c.Metrics.ListenAddr == "" {
		c.Metrics.ListenAddr = DefaultMetricsListenAddr
	}

	// Cache defaults
	if c.Cache.Addr == "" {
		c.Cache.Addr = DefaultCacheAddr
	}
	if c.Cache.Key == "" {
		c.Cache.Key = DefaultCacheKey
	}

	// Series defaults
	if c.Series.Lookback == 0 {
		c.Series.Lookback = DefaultLookback
	}
	if c.Series.HistoryStep == 0 {
		c.Series.HistoryStep = DefaultHistoryStep
	}
	if c.Series.ProfitStep == 0 {
		c.Series.ProfitStep = DefaultProfitStep
	}
	if c.Series.LiveGrace == 0 {
		c.Series.LiveGrace = DefaultLiveGrace
	}
	if c.Series.LiveInterval == 0 {
		c.Series.LiveInterval = DefaultLiveInterval
	}
	if c.Series.RateInterval == 0 {
		c.Series.RateInterval = DefaultRateInterval
	}
	if len(c.Series.RateWindows) == 0 {
		c.Series.RateWindows = append([]string(nil), DefaultRateWindows...)
	}

	// HTTP defaults
	if c.HTTP.ListenAddr == "" {
		c.HTTP.ListenAddr = DefaultHTTPListenAddr
	}
}
