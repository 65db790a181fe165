// Package series implements the time-series aggregator.
//
// The aggregator:
//   - Backfills the balance history once at startup (24h range, 1m step)
//   - Appends live balance points on a 30s interval after a 5s grace,
//     accepting only strictly increasing timestamps
//   - Refreshes multi-window profit-rate snapshots every 60s, one query
//     per window, swapped atomically as a whole
//   - Refetches the fine-step profit, bundle, and tip series in full when
//     the profit view becomes active
//
// The stored balance series is never truncated; the 24h window is applied
// at read time.
package series
