package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Sentinel errors for feed message parsing.
var (
	ErrNoSandwich   = errors.New("message has no sandwich payload")
	ErrInvalidEvent = errors.New("invalid sandwich event")
)

// SandwichEvent is one completed sandwich executed by the bot.
//
// Slot is the identity key: no two retained events share a slot.
type SandwichEvent struct {
	Mint      string `json:"mint"`      // Token mint address
	Slot      int64  `json:"slot"`      // Solana slot (dedup key)
	Timestamp int64  `json:"timestamp"` // Origin time (s since epoch)

	// Leg amounts (SOL in / token out for the frontrun,
	// token in / SOL out for the backrun — or mirrored when SellFirst).
	FrontrunIn  float64 `json:"frontrunIn"`
	FrontrunOut float64 `json:"frontrunOut"`
	BackrunIn   float64 `json:"backrunIn"`
	BackrunOut  float64 `json:"backrunOut"`

	SolChange   float64 `json:"solChange"`   // Net SOL delta
	TokenChange float64 `json:"tokenChange"` // Net token delta
	SellFirst   bool    `json:"sellFirst"`   // Leg direction flag

	Symbol string `json:"symbol,omitempty"` // Token symbol, when known
}

// Validate reports whether the event carries the minimum required shape.
func (e *SandwichEvent) Validate() error {
	if e.Slot <= 0 {
		return fmt.Errorf("%w: slot %d", ErrInvalidEvent, e.Slot)
	}
	if e.Mint == "" {
		return fmt.Errorf("%w: empty mint", ErrInvalidEvent)
	}
	if e.Timestamp <= 0 {
		return fmt.Errorf("%w: timestamp %d", ErrInvalidEvent, e.Timestamp)
	}
	return nil
}

// feedEnvelope mirrors the push-channel message shape. Everything except
// data.sandwich is optional.
type feedEnvelope struct {
	Data struct {
		Sandwich           *SandwichEvent `json:"sandwich"`
		PermanentTokenData *struct {
			RawTokenMetadata struct {
				Symbol string `json:"symbol"`
			} `json:"rawTokenMetadata"`
		} `json:"permanentTokenData"`
	} `json:"data"`
}

// ParseFeedMessage decodes a push-channel frame into a SandwichEvent.
// Frames without a data.sandwich payload return ErrNoSandwich; frames whose
// payload fails Validate return ErrInvalidEvent.
func ParseFeedMessage(data []byte) (SandwichEvent, error) {
	var env feedEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return SandwichEvent{}, fmt.Errorf("decode feed message: %w", err)
	}
	if env.Data.Sandwich == nil {
		return SandwichEvent{}, ErrNoSandwich
	}

	ev := *env.Data.Sandwich
	if ev.Symbol == "" && env.Data.PermanentTokenData != nil {
		ev.Symbol = env.Data.PermanentTokenData.RawTokenMetadata.Symbol
	}

	if err := ev.Validate(); err != nil {
		return SandwichEvent{}, err
	}
	return ev, nil
}

// TimeSeriesPoint is one sample of a charted series.
type TimeSeriesPoint struct {
	Timestamp int64   `json:"t"` // ms since epoch
	Value     float64 `json:"v"`
}
