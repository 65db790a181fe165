package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Validate checks that all required fields are set and values are valid.
func (c *MonitorConfig) Validate() error {
	if c.Feed.PrimaryURL == "" {
		return errors.New("feed.primary_url is required")
	}
	if !strings.HasPrefix(c.Feed.PrimaryURL, "ws://") && !strings.HasPrefix(c.Feed.PrimaryURL, "wss://") {
		return fmt.Errorf("feed.primary_url must be a ws:// or wss:// URL, got %q", c.Feed.PrimaryURL)
	}
	if c.Feed.MaxAttempts < 1 {
		return errors.New("feed.max_attempts must be >= 1")
	}
	if c.Feed.ReconnectDelay < 0 || c.Feed.FallbackInterval <= 0 || c.Feed.PeriodicReconnect <= 0 {
		return errors.New("feed intervals must be positive")
	}

	if c.Metrics.GatewayURL == "" {
		return errors.New("metrics.gateway_url is required")
	}

	if c.Cache.Addr == "" {
		return errors.New("cache.addr is required")
	}
	if c.Cache.Key == "" {
		return errors.New("cache.key is required")
	}

	if c.Series.Lookback < time.Minute {
		return fmt.Errorf("series.lookback must be >= 1m, got %s", c.Series.Lookback)
	}
	if c.Series.HistoryStep <= 0 || c.Series.ProfitStep <= 0 {
		return errors.New("series steps must be positive")
	}
	if c.Series.LiveInterval <= 0 || c.Series.RateInterval <= 0 {
		return errors.New("series intervals must be positive")
	}
	for _, w := range c.Series.RateWindows {
		if _, err := time.ParseDuration(w); err != nil {
			return fmt.Errorf("series.rate_windows entry %q is not a duration", w)
		}
	}

	return nil
}
