package model

import (
	"errors"
	"testing"
)

func TestParseFeedMessage(t *testing.T) {
	raw := []byte(`{
		"data": {
			"sandwich": {
				"mint": "So11111111111111111111111111111111111111112",
				"slot": 287654321,
				"timestamp": 1724900000,
				"frontrunIn": 0.5,
				"frontrunOut": 12000.0,
				"backrunIn": 12000.0,
				"backrunOut": 0.52,
				"solChange": 0.02,
				"tokenChange": 0,
				"sellFirst": false
			},
			"permanentTokenData": {
				"rawTokenMetadata": {"symbol": "BONK"}
			}
		}
	}`)

	ev, err := ParseFeedMessage(raw)
	if err != nil {
		t.Fatalf("ParseFeedMessage failed: %v", err)
	}

	if ev.Slot != 287654321 {
		t.Errorf("Slot = %d, want 287654321", ev.Slot)
	}
	if ev.Symbol != "BONK" {
		t.Errorf("Symbol = %q, want %q", ev.Symbol, "BONK")
	}
	if ev.SolChange != 0.02 {
		t.Errorf("SolChange = %v, want 0.02", ev.SolChange)
	}
	if ev.SellFirst {
		t.Error("SellFirst = true, want false")
	}
}

func TestParseFeedMessage_InlineSymbolWins(t *testing.T) {
	raw := []byte(`{
		"data": {
			"sandwich": {
				"mint": "mint1", "slot": 10, "timestamp": 1724900000,
				"symbol": "WIF"
			},
			"permanentTokenData": {
				"rawTokenMetadata": {"symbol": "OTHER"}
			}
		}
	}`)

	ev, err := ParseFeedMessage(raw)
	if err != nil {
		t.Fatalf("ParseFeedMessage failed: %v", err)
	}
	if ev.Symbol != "WIF" {
		t.Errorf("Symbol = %q, want %q", ev.Symbol, "WIF")
	}
}

func TestParseFeedMessage_NoSandwich(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"empty object", `{}`},
		{"empty data", `{"data": {}}`},
		{"null sandwich", `{"data": {"sandwich": null}}`},
		{"unrelated message", `{"type": "ping"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseFeedMessage([]byte(tc.raw))
			if !errors.Is(err, ErrNoSandwich) {
				t.Errorf("err = %v, want ErrNoSandwich", err)
			}
		})
	}
}

func TestParseFeedMessage_Malformed(t *testing.T) {
	if _, err := ParseFeedMessage([]byte(`not json`)); err == nil {
		t.Error("expected error for non-JSON input")
	}
}

func TestParseFeedMessage_InvalidEvent(t *testing.T) {
	raw := []byte(`{"data": {"sandwich": {"mint": "", "slot": 0}}}`)

	_, err := ParseFeedMessage(raw)
	if !errors.Is(err, ErrInvalidEvent) {
		t.Errorf("err = %v, want ErrInvalidEvent", err)
	}
}

func TestSandwichEvent_Validate(t *testing.T) {
	valid := SandwichEvent{Mint: "mint1", Slot: 5, Timestamp: 1724900000}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}

	cases := []struct {
		name string
		ev   SandwichEvent
	}{
		{"zero slot", SandwichEvent{Mint: "mint1", Timestamp: 1}},
		{"negative slot", SandwichEvent{Mint: "mint1", Slot: -1, Timestamp: 1}},
		{"empty mint", SandwichEvent{Slot: 5, Timestamp: 1}},
		{"zero timestamp", SandwichEvent{Mint: "mint1", Slot: 5}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.ev.Validate(); !errors.Is(err, ErrInvalidEvent) {
				t.Errorf("Validate() = %v, want ErrInvalidEvent", err)
			}
		})
	}
}
