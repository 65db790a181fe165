// Package feed implements the live-feed client for sandwich events.
//
// The feed client:
//   - Maintains at most one push-channel connection at a time
//   - Reconnects on abnormal closes with a fixed delay, alternating
//     between the primary and secondary endpoints
//   - Falls back to polling the metrics gateway for the last event after
//     the reconnect budget is exhausted, with a periodic full-reconnect
//     cycle running alongside
//   - Hands validated events to the event store
//
// All state transitions run on a single goroutine: socket reads and timer
// ticks are delivered as events to one run loop, so no two transitions
// ever interleave.
package feed
