package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/avenz/sandwich-monitor/internal/metrics"
	"github.com/avenz/sandwich-monitor/internal/model"
)

// Capacity is the maximum number of retained events.
const Capacity = 50

// ErrCacheMiss is returned by a Cache when the key has no value.
var ErrCacheMiss = errors.New("cache miss")

// Cache is the persistent key/value store behind the event log. No
// transactional guarantees are assumed.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Store is the bounded, deduplicated, newest-first event log.
type Store struct {
	cache  Cache
	key    string
	logger *slog.Logger

	mu     sync.Mutex
	events []model.SandwichEvent
	slots  map[int64]struct{}
}

// New creates a Store backed by cache under key. The store is empty until
// Load is called.
func New(cache Cache, key string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		cache:  cache,
		key:    key,
		logger: logger,
		slots:  make(map[int64]struct{}),
	}
}

// Load replaces the in-memory log with the cached set. A missing,
// unreadable, or malformed payload initializes an empty log; Load never
// fails the caller. Oversized payloads are clamped to Capacity and
// duplicate slots within the payload are dropped.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = nil
	s.slots = make(map[int64]struct{})

	data, err := s.cache.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			s.logger.Warn("cache read failed, starting empty", "key", s.key, "error", err)
		}
		return
	}

	var cached []model.SandwichEvent
	if err := json.Unmarshal(data, &cached); err != nil {
		s.logger.Warn("cached events malformed, starting empty", "key", s.key, "error", err)
		return
	}

	for _, ev := range cached {
		if len(s.events) >= Capacity {
			break
		}
		if ev.Validate() != nil {
			continue
		}
		if _, dup := s.slots[ev.Slot]; dup {
			continue
		}
		s.events = append(s.events, ev)
		s.slots[ev.Slot] = struct{}{}
	}

	s.logger.Info("event log loaded", "events", len(s.events))
}

// Append validates ev and prepends it to the log. An event whose slot is
// already retained is discarded and Append reports false; the first-seen
// record is never overwritten. Accepted appends truncate to Capacity and
// write the retained set through to the cache. A cache write failure is
// logged, not returned: the log keeps operating in memory.
func (s *Store) Append(ctx context.Context, ev model.SandwichEvent) (bool, error) {
	if err := ev.Validate(); err != nil {
		return false, err
	}

	s.mu.Lock()

	if _, dup := s.slots[ev.Slot]; dup {
		s.mu.Unlock()
		metrics.EventsDuplicate.Inc()
		return false, nil
	}

	s.events = append([]model.SandwichEvent{ev}, s.events...)
	if len(s.events) > Capacity {
		evicted := s.events[Capacity:]
		for _, old := range evicted {
			delete(s.slots, old.Slot)
		}
		s.events = s.events[:Capacity]
	}
	s.slots[ev.Slot] = struct{}{}

	data, err := json.Marshal(s.events)
	s.mu.Unlock()

	if err != nil {
		// Marshal of plain structs cannot realistically fail; log and move on.
		s.logger.Error("serialize event log failed", "error", err)
		return true, nil
	}

	if err := s.cache.Set(ctx, s.key, data); err != nil {
		metrics.CacheWriteFailures.Inc()
		s.logger.Warn("cache write-through failed", "key", s.key, "error", err)
	}

	return true, nil
}

// Events returns a copy of the retained set, newest first.
func (s *Store) Events() []model.SandwichEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.SandwichEvent, len(s.events))
	copy(out, s.events)
	return out
}

// Len returns the number of retained events.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}
