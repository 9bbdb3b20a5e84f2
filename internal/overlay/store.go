// Package overlay holds per-location speculative prepay predictions. An
// entry bridges the latency window between submitting a rent payment and
// observing its confirmation on the ledger; it is consumed exactly once when
// a read shows the payment landed, and expires after a bounded TTL if the
// payment never confirms.
package overlay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/openlease/lease-ledger/internal/adapter"
	"github.com/openlease/lease-ledger/internal/logger"
)

// keyPrefix matches the session-storage convention of the original UI
const keyPrefix = "prepay_"

// ErrNotFound is returned when no live entry exists for a location
var ErrNotFound = errors.New("no speculative entry")

// Entry is a per-location prepay prediction, recorded at payment submission
type Entry struct {
	// Remaining is the days-left value at the moment the payment was submitted
	Remaining int `json:"remaining"`
	// SubmittedAt is the unix second the payment was submitted
	SubmittedAt uint64 `json:"ts"`
}

// Store holds at most one live entry per location id. A new Put overwrites
// any prior entry for the same id.
//
//go:generate mockgen -source=store.go -destination=../mocks/overlay.go -package=mocks -mock_names=Store=MockOverlayStore
type Store interface {
	// Put inserts or replaces the entry for a location
	Put(ctx context.Context, id uint64, e Entry) error

	// Get returns the live entry for a location, or ErrNotFound. A malformed
	// stored entry is discarded and reported as ErrNotFound, never propagated.
	Get(ctx context.Context, id uint64) (Entry, error)

	// Delete removes the entry for a location; absent entries are not an error
	Delete(ctx context.Context, id uint64) error
}

func entryKey(id uint64) string {
	return fmt.Sprintf("%s%d", keyPrefix, id)
}

// kvStore persists entries in a session-scoped key-value store (Redis) as
// JSON {"remaining":N,"ts":N}, bounded by a TTL so an entry for a payment
// that never confirms cannot linger forever.
type kvStore struct {
	kv   adapter.KeyValueStore
	json adapter.JSON
	ttl  time.Duration
}

// NewKVStore creates an overlay store backed by a session key-value store
func NewKVStore(kv adapter.KeyValueStore, jsonAdapter adapter.JSON, ttl time.Duration) Store {
	return &kvStore{kv: kv, json: jsonAdapter, ttl: ttl}
}

func (s *kvStore) Put(ctx context.Context, id uint64, e Entry) error {
	data, err := s.json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal overlay entry: %w", err)
	}
	if err := s.kv.Set(ctx, entryKey(id), string(data), s.ttl); err != nil {
		return fmt.Errorf("failed to store overlay entry: %w", err)
	}
	return nil
}

func (s *kvStore) Get(ctx context.Context, id uint64) (Entry, error) {
	raw, err := s.kv.Get(ctx, entryKey(id))
	if err != nil {
		if errors.Is(err, adapter.ErrKeyNotFound) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, fmt.Errorf("failed to read overlay entry: %w", err)
	}

	var e Entry
	if err := s.json.Unmarshal([]byte(raw), &e); err != nil {
		// Corrupt stored entry: discard it and fall back to the
		// non-speculative computation.
		logger.WarnCtx(ctx, "Discarding malformed overlay entry",
			zap.Uint64("location_id", id),
			zap.Error(err))
		_ = s.kv.Delete(ctx, entryKey(id))
		return Entry{}, ErrNotFound
	}

	return e, nil
}

func (s *kvStore) Delete(ctx context.Context, id uint64) error {
	return s.kv.Delete(ctx, entryKey(id))
}

// memEntry tracks insertion time for TTL expiry
type memEntry struct {
	entry    Entry
	storedAt time.Time
}

// memStore is an in-process overlay store for single-instance deployments
// and tests. Expiry is lazy: entries older than the TTL are dropped on read.
type memStore struct {
	mu      sync.Mutex
	entries map[uint64]memEntry
	clock   adapter.Clock
	ttl     time.Duration
}

// NewMemStore creates an in-memory overlay store. ttl == 0 disables expiry.
func NewMemStore(clock adapter.Clock, ttl time.Duration) Store {
	return &memStore{
		entries: make(map[uint64]memEntry),
		clock:   clock,
		ttl:     ttl,
	}
}

func (s *memStore) Put(_ context.Context, id uint64, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = memEntry{entry: e, storedAt: s.clock.Now()}
	return nil
}

func (s *memStore) Get(_ context.Context, id uint64) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	me, ok := s.entries[id]
	if !ok {
		return Entry{}, ErrNotFound
	}
	if s.ttl > 0 && s.clock.Now().Sub(me.storedAt) > s.ttl {
		delete(s.entries, id)
		return Entry{}, ErrNotFound
	}
	return me.entry, nil
}

func (s *memStore) Delete(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}
