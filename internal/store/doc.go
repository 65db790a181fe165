// Package store implements the Event Store component.
//
// The Event Store:
//   - Retains at most 50 sandwich events, newest first
//   - Deduplicates by slot number (first-seen wins)
//   - Writes the full retained set through to the persistent cache on
//     every accepted append
//   - Treats a missing or corrupt cached payload as an empty log
package store
