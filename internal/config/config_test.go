package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "monitor.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	yaml := `
instance:
  id: test-monitor
feed:
  primary_url: wss://feed.example.com/stream
  secondary_url: wss://feed-backup.example.com/stream
metrics:
  gateway_url: http://localhost:9090
cache:
  addr: localhost:6379
  key: sandwich:test
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Instance.ID != "test-monitor" {
		t.Errorf("Instance.ID = %q, want %q", cfg.Instance.ID, "test-monitor")
	}
	if cfg.Feed.PrimaryURL != "wss://feed.example.com/stream" {
		t.Errorf("Feed.PrimaryURL = %q, want %q", cfg.Feed.PrimaryURL, "wss://feed.example.com/stream")
	}
	if cfg.Cache.Key != "sandwich:test" {
		t.Errorf("Cache.Key = %q, want %q", cfg.Cache.Key, "sandwich:test")
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_REDIS_PASSWORD", "secret123")

	yaml := `
feed:
  primary_url: wss://feed.example.com/stream
cache:
  addr: localhost:6379
  password: ${TEST_REDIS_PASSWORD}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Cache.Password != "secret123" {
		t.Errorf("Cache.Password = %q, want %q", cfg.Cache.Password, "secret123")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	yaml := `
feed:
  primary_url: wss://feed.example.com/stream
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	if cfg.Feed.MaxAttempts != 10 {
		t.Errorf("Feed.MaxAttempts = %d, want 10", cfg.Feed.MaxAttempts)
	}
	if cfg.Feed.ReconnectDelay != 3*time.Second {
		t.Errorf("Feed.ReconnectDelay = %s, want 3s", cfg.Feed.ReconnectDelay)
	}
	if cfg.Feed.FallbackInterval != 10*time.Second {
		t.Errorf("Feed.FallbackInterval = %s, want 10s", cfg.Feed.FallbackInterval)
	}
	if cfg.Feed.PeriodicReconnect != 30*time.Second {
		t.Errorf("Feed.PeriodicReconnect = %s, want 30s", cfg.Feed.PeriodicReconnect)
	}
	if cfg.Feed.SecondaryURL != cfg.Feed.PrimaryURL {
		t.Errorf("Feed.SecondaryURL = %q, want primary fallback", cfg.Feed.SecondaryURL)
	}
	if cfg.Series.Lookback != 24*time.Hour {
		t.Errorf("Series.Lookback = %s, want 24h", cfg.Series.Lookback)
	}
	if cfg.Series.LiveInterval != 30*time.Second {
		t.Errorf("Series.LiveInterval = %s, want 30s", cfg.Series.LiveInterval)
	}
	if len(cfg.Series.RateWindows) != 5 || cfg.Series.RateWindows[0] != "1h" {
		t.Errorf("Series.RateWindows = %v, want 1h..24h", cfg.Series.RateWindows)
	}
	if !strings.HasPrefix(cfg.Instance.ID, "monitor-") {
		t.Errorf("Instance.ID = %q, want generated monitor-* id", cfg.Instance.ID)
	}
}

func TestLoadAndValidate(t *testing.T) {
	yaml := `
feed:
  primary_url: wss://feed.example.com/stream
`
	path := writeTempFile(t, yaml)

	if _, err := LoadAndValidate(path); err != nil {
		t.Fatalf("LoadAndValidate failed: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing primary url",
			yaml: `
cache:
  addr: localhost:6379
`,
			want: "feed.primary_url",
		},
		{
			name: "non-ws primary url",
			yaml: `
feed:
  primary_url: https://feed.example.com/stream
`,
			want: "ws://",
		},
		{
			name: "bad rate window",
			yaml: `
feed:
  primary_url: wss://feed.example.com/stream
series:
  rate_windows: ["1h", "yesterday"]
`,
			want: "rate_windows",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeTempFile(t, tc.yaml)
			_, err := LoadAndValidate(path)
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error = %q, want it to mention %q", err, tc.want)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
