// Package gateway implements the metrics gateway client.
//
// The gateway exposes the two query shapes the monitor relies on:
//   - Instant: point-in-time read of a single metric
//   - Range: value series over an interval at a fixed step
//
// Query failures and empty results are distinguishable to callers, but
// every caller degrades both to an empty series or zero value.
package gateway
