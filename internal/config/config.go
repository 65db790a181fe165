package config

import "time"

// MonitorConfig is the root configuration for a monitor instance.
type MonitorConfig struct {
	Instance InstanceConfig `yaml:"instance"`
	Feed     FeedConfig     `yaml:"feed"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Cache    CacheConfig    `yaml:"cache"`
	Series   SeriesConfig   `yaml:"series"`
	HTTP     HTTPConfig     `yaml:"http"`
}

// InstanceConfig identifies this monitor.
type InstanceConfig struct {
	ID       string `yaml:"id"`
	LogLevel string `yaml:"log_level"`
}

// FeedConfig holds push-channel settings.
type FeedConfig struct {
	PrimaryURL        string        `yaml:"primary_url"`
	SecondaryURL      string        `yaml:"secondary_url"`
	MaxAttempts       int           `yaml:"max_attempts"`
	ReconnectDelay    time.Duration `yaml:"reconnect_delay"`
	FallbackInterval  time.Duration `yaml:"fallback_interval"`
	PeriodicReconnect time.Duration `yaml:"periodic_reconnect"`
	HandshakeTimeout  time.Duration `yaml:"handshake_timeout"`
}

// MetricsConfig holds the metrics gateway address and the self-metrics
// listen address.
type MetricsConfig struct {
	GatewayURL string        `yaml:"gateway_url"`
	Timeout    time.Duration `yaml:"timeout"`
	ListenAddr string        `yaml:"listen_addr"`
}

// CacheConfig holds the Redis connection for the persisted event log.
type CacheConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Key      string `yaml:"key"`
}

// SeriesConfig holds time-series aggregator settings.
type SeriesConfig struct {
	Lookback     time.Duration `yaml:"lookback"`
	HistoryStep  time.Duration `yaml:"history_step"`
	ProfitStep   time.Duration `yaml:"profit_step"`
	LiveGrace    time.Duration `yaml:"live_grace"`
	LiveInterval time.Duration `yaml:"live_interval"`
	RateInterval time.Duration `yaml:"rate_interval"`
	RateWindows  []string      `yaml:"rate_windows"`
}

// HTTPConfig holds the dashboard API listener settings.
type HTTPConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}
