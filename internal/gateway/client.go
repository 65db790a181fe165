package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	promapi "github.com/prometheus/client_golang/api"
	promv1 "github.com/prometheus/client_golang/api/prometheus/v1"
	prommodel "github.com/prometheus/common/model"

	"github.com/avenz/sandwich-monitor/internal/model"
)

// Sample is the result of an instant query.
type Sample struct {
	Time   time.Time
	Value  float64
	Labels map[string]string
}

// Client queries the metrics gateway over the Prometheus HTTP API.
type Client struct {
	api     promv1.API
	logger  *slog.Logger
	timeout time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout sets the per-query timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a gateway client for the given base URL.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	apiClient, err := promapi.NewClient(promapi.Config{Address: baseURL})
	if err != nil {
		return nil, fmt.Errorf("create gateway client: %w", err)
	}

	c := &Client{
		api:     promv1.NewAPI(apiClient),
		logger:  slog.Default(),
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Instant runs an instant query. The second return value reports whether
// the result was non-empty.
func (c *Client) Instant(ctx context.Context, expr string) (Sample, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	value, warnings, err := c.api.Query(ctx, expr, time.Now())
	if err != nil {
		return Sample{}, false, fmt.Errorf("instant query %q: %w", expr, err)
	}
	logWarnings(c.logger, expr, warnings)

	vector, ok := value.(prommodel.Vector)
	if !ok || len(vector) == 0 {
		return Sample{}, false, nil
	}

	first := vector[0]
	labels := make(map[string]string, len(first.Metric))
	for name, val := range first.Metric {
		labels[string(name)] = string(val)
	}

	return Sample{
		Time:   first.Timestamp.Time(),
		Value:  float64(first.Value),
		Labels: labels,
	}, true, nil
}

// Range runs a range query and returns the first matching series as
// ascending points. An empty result yields a nil slice and no error.
func (c *Client) Range(ctx context.Context, expr string, start, end time.Time, step time.Duration) ([]model.TimeSeriesPoint, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	value, warnings, err := c.api.QueryRange(ctx, expr, promv1.Range{
		Start: start,
		End:   end,
		Step:  step,
	})
	if err != nil {
		return nil, fmt.Errorf("range query %q: %w", expr, err)
	}
	logWarnings(c.logger, expr, warnings)

	matrix, ok := value.(prommodel.Matrix)
	if !ok || len(matrix) == 0 {
		return nil, nil
	}

	series := matrix[0]
	points := make([]model.TimeSeriesPoint, 0, len(series.Values))
	for _, pair := range series.Values {
		points = append(points, model.TimeSeriesPoint{
			Timestamp: int64(pair.Timestamp), // prommodel.Time is ms since epoch
			Value:     float64(pair.Value),
		})
	}
	return points, nil
}

func logWarnings(logger *slog.Logger, expr string, warnings promv1.Warnings) {
	for _, w := range warnings {
		logger.Debug("gateway query warning", "expr", expr, "warning", w)
	}
}
