package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/avenz/sandwich-monitor/internal/model"
)

// fakeCache is an in-memory Cache with controllable failures.
type fakeCache struct {
	data    map[string][]byte
	getErr  error
	setErr  error
	setCall int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (c *fakeCache) Get(ctx context.Context, key string) ([]byte, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	v, ok := c.data[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return v, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, value []byte) error {
	c.setCall++
	if c.setErr != nil {
		return c.setErr
	}
	c.data[key] = value
	return nil
}

func event(slot int64) model.SandwichEvent {
	return model.SandwichEvent{
		Mint:      fmt.Sprintf("mint-%d", slot),
		Slot:      slot,
		Timestamp: 1724900000 + slot,
		SolChange: 0.01,
	}
}

func TestAppend_DuplicateSlot(t *testing.T) {
	s := New(newFakeCache(), "k", nil)
	ctx := context.Background()

	first := event(100)
	first.Symbol = "FIRST"
	if ok, err := s.Append(ctx, first); err != nil || !ok {
		t.Fatalf("Append = (%v, %v), want (true, nil)", ok, err)
	}

	second := event(100)
	second.Symbol = "SECOND"
	ok, err := s.Append(ctx, second)
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if ok {
		t.Error("duplicate append reported ok, want no-op")
	}

	events := s.Events()
	if len(events) != 1 {
		t.Fatalf("len = %d, want 1", len(events))
	}
	if events[0].Symbol != "FIRST" {
		t.Errorf("retained Symbol = %q, want first-seen record kept", events[0].Symbol)
	}
}

func TestAppend_TruncatesToCapacity(t *testing.T) {
	s := New(newFakeCache(), "k", nil)
	ctx := context.Background()

	for slot := int64(1); slot <= 51; slot++ {
		if ok, err := s.Append(ctx, event(slot)); err != nil || !ok {
			t.Fatalf("Append(slot=%d) = (%v, %v)", slot, ok, err)
		}
	}

	events := s.Events()
	if len(events) != Capacity {
		t.Fatalf("len = %d, want %d", len(events), Capacity)
	}
	// Newest first; oldest (slot 1) evicted.
	if events[0].Slot != 51 {
		t.Errorf("events[0].Slot = %d, want 51", events[0].Slot)
	}
	if events[len(events)-1].Slot != 2 {
		t.Errorf("oldest retained slot = %d, want 2", events[len(events)-1].Slot)
	}

	// The evicted slot may be appended again.
	if ok, _ := s.Append(ctx, event(1)); !ok {
		t.Error("re-append of evicted slot rejected, want accepted")
	}
}

func TestAppend_NoDuplicateSlotsEver(t *testing.T) {
	s := New(newFakeCache(), "k", nil)
	ctx := context.Background()

	// Interleave fresh and repeated slots.
	for i := 0; i < 200; i++ {
		s.Append(ctx, event(int64(i%70+1)))
	}

	seen := make(map[int64]bool)
	for _, ev := range s.Events() {
		if seen[ev.Slot] {
			t.Fatalf("slot %d retained twice", ev.Slot)
		}
		seen[ev.Slot] = true
	}
	if s.Len() > Capacity {
		t.Errorf("Len = %d, want <= %d", s.Len(), Capacity)
	}
}

func TestAppend_RejectsInvalid(t *testing.T) {
	s := New(newFakeCache(), "k", nil)

	ok, err := s.Append(context.Background(), model.SandwichEvent{Slot: 0})
	if err == nil {
		t.Error("expected validation error")
	}
	if ok {
		t.Error("invalid event reported appended")
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}
}

func TestWriteThrough(t *testing.T) {
	cache := newFakeCache()
	s := New(cache, "k", nil)
	ctx := context.Background()

	s.Append(ctx, event(1))
	s.Append(ctx, event(2))
	// Duplicate: no write-through.
	s.Append(ctx, event(2))

	if cache.setCall != 2 {
		t.Errorf("cache writes = %d, want 2", cache.setCall)
	}

	var persisted []model.SandwichEvent
	if err := json.Unmarshal(cache.data["k"], &persisted); err != nil {
		t.Fatalf("unmarshal persisted set: %v", err)
	}
	if len(persisted) != 2 || persisted[0].Slot != 2 {
		t.Errorf("persisted = %+v, want [slot 2, slot 1]", persisted)
	}
}

func TestWriteThrough_FailureNotFatal(t *testing.T) {
	cache := newFakeCache()
	cache.setErr = errors.New("redis down")
	s := New(cache, "k", nil)

	ok, err := s.Append(context.Background(), event(1))
	if err != nil || !ok {
		t.Fatalf("Append = (%v, %v), want (true, nil) despite write failure", ok, err)
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1 (in-memory operation continues)", s.Len())
	}
}

func TestLoad_RoundTrip(t *testing.T) {
	cache := newFakeCache()
	ctx := context.Background()

	s1 := New(cache, "k", nil)
	for slot := int64(1); slot <= 5; slot++ {
		s1.Append(ctx, event(slot))
	}
	want := s1.Events()

	s2 := New(cache, "k", nil)
	s2.Load(ctx)
	got := s2.Events()

	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("events[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestLoad_AbsentKey(t *testing.T) {
	s := New(newFakeCache(), "k", nil)
	s.Load(context.Background())
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}
}

func TestLoad_CacheError(t *testing.T) {
	cache := newFakeCache()
	cache.getErr = errors.New("connection refused")
	s := New(cache, "k", nil)

	s.Load(context.Background())
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}

	// The store still accepts appends afterwards.
	cache.getErr = nil
	if ok, err := s.Append(context.Background(), event(1)); err != nil || !ok {
		t.Errorf("Append after failed Load = (%v, %v)", ok, err)
	}
}

func TestLoad_MalformedPayload(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not json", `{{{`},
		{"not an array", `{"slot": 1}`},
		{"string", `"hello"`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cache := newFakeCache()
			cache.data["k"] = []byte(tc.raw)
			s := New(cache, "k", nil)
			s.Load(context.Background())
			if s.Len() != 0 {
				t.Errorf("Len = %d, want 0", s.Len())
			}
		})
	}
}

func TestLoad_ClampsOversizedPayload(t *testing.T) {
	var cached []model.SandwichEvent
	for slot := int64(1); slot <= 80; slot++ {
		cached = append(cached, event(slot))
	}
	data, _ := json.Marshal(cached)

	cache := newFakeCache()
	cache.data["k"] = data

	s := New(cache, "k", nil)
	s.Load(context.Background())
	if s.Len() != Capacity {
		t.Errorf("Len = %d, want %d", s.Len(), Capacity)
	}
}

func TestLoad_SkipsInvalidAndDuplicateEntries(t *testing.T) {
	cached := []model.SandwichEvent{
		event(1),
		{Slot: 0, Mint: "bad"}, // invalid
		event(1),               // duplicate slot
		event(2),
	}
	data, _ := json.Marshal(cached)

	cache := newFakeCache()
	cache.data["k"] = data

	s := New(cache, "k", nil)
	s.Load(context.Background())
	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}
}
