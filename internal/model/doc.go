// Package model defines shared data types for the sandwich monitor.
//
// Conventions:
//   - Amounts: float64 SOL (lamports are divided out upstream)
//   - Event timestamps: int64 seconds since Unix epoch
//   - Series timestamps: int64 milliseconds since Unix epoch
//   - Identity: the slot number is the dedup key for events
package model
