package store

import (
	"errors"
	"iter"
	"sync"
	"time"

	"snapkv/internal/metrics"
)

// ErrInvalidTTL is returned by SetTTL when the ttl is negative.
var ErrInvalidTTL = errors.New("ttl must not be negative")

// Store is an in-memory key–value store with per-key expiration.
//
// Design principles:
// - Expiration is lazy: every read is the enforcement point, there is
//   no background sweep. Memory for an expired key is reclaimed on the
//   next access or the next full traversal.
// - The clock is injectable for deterministic expiry tests.
// - A mutex guards the map because the periodic checkpointer traverses
//   the store from its own goroutine. The command dispatcher is still
//   the only writer.
type Store struct {
	mu         sync.Mutex
	data       map[string]Entry
	defaultTTL time.Duration
	now        func() time.Time
	metrics    *metrics.Registry
	gen        uint64
}

// NewStore initializes a Store. defaultTTL is applied by Set when the
// caller gives no explicit ttl; 0 means keys never expire by default.
func NewStore(defaultTTL time.Duration, metricsRegistry *metrics.Registry) *Store {
	return &Store{
		data:       make(map[string]Entry),
		defaultTTL: defaultTTL,
		now:        time.Now,
		metrics:    metricsRegistry,
	}
}

// WithClock overrides the wall clock. Intended for tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Set inserts or updates a key with the store's default ttl. With a
// default ttl of 0 the key never expires.
func (s *Store) Set(key string, v Value) {
	if s.defaultTTL > 0 {
		// defaultTTL is validated non-negative at construction time
		_ = s.SetTTL(key, v, s.defaultTTL)
		return
	}
	s.metrics.Inc(metrics.StoreSetsTotal)
	s.SetExpiring(key, v, time.Time{})
}

// SetTTL inserts or updates a key with an explicit ttl.
//
// Rules:
// - ttl < 0 fails with ErrInvalidTTL and performs no mutation.
// - ttl == 0 expires the key immediately: the next read treats it as
//   absent. Intentional, not an error.
// - An existing key is overwritten wholesale: value and expiry always
//   change together.
func (s *Store) SetTTL(key string, v Value, ttl time.Duration) error {
	if ttl < 0 {
		return ErrInvalidTTL
	}

	s.metrics.Inc(metrics.StoreSetsTotal)
	s.SetExpiring(key, v, s.now().Add(ttl))
	return nil
}

// SetExpiring inserts or updates a key that expires at the given
// absolute instant; a zero instant means no expiration. Set and SetTTL
// funnel through here, and snapshot restore uses it directly.
func (s *Store) SetExpiring(key string, v Value, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[key]; !exists {
		s.metrics.Inc(metrics.StoreKeysTotal)
	}
	s.data[key] = Entry{Value: v, ExpiresAt: expiresAt}
	s.gen++
}

// Get retrieves a value from the store.
//
// Behavior:
// - Returns (value, true) if key exists and is not expired.
// - If the key is expired, it is purged and treated as missing.
// - A missing key is a normal outcome, not an error.
//
// Get takes the write lock: the expiry check and the purge must be one
// step, or a concurrent traversal could observe a dead entry.
func (s *Store) Get(key string) (Value, bool) {
	s.metrics.Inc(metrics.StoreGetsTotal)

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.data[key]
	if !exists {
		s.metrics.Inc(metrics.StoreMissesTotal)
		return Null, false
	}

	if entry.IsExpired(s.now()) {
		delete(s.data, key)
		s.gen++

		s.metrics.Inc(metrics.StoreExpiredTotal)
		s.metrics.Inc(metrics.StoreMissesTotal)
		s.metrics.Add(metrics.StoreKeysTotal, -1)

		return Null, false
	}

	return entry.Value, true
}

// Delete removes a key and reports whether a deletion occurred.
// Deleting an absent key is a no-op, not an error.
func (s *Store) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.data[key]
	if !ok {
		return false
	}

	delete(s.data, key)
	s.gen++
	s.metrics.Add(metrics.StoreKeysTotal, -1)

	// An already-expired entry reads as absent, so its removal is not
	// an observable deletion.
	if entry.IsExpired(s.now()) {
		s.metrics.Inc(metrics.StoreExpiredTotal)
		return false
	}

	s.metrics.Inc(metrics.StoreDeletesTotal)
	return true
}

// All returns a restartable traversal of the live entries. Expired
// entries encountered along the way are purged, never yielded, so a
// snapshot taken from this sequence holds no dead data.
//
// The lock is held for the whole traversal; the consumer must not call
// back into the store until the loop finishes.
func (s *Store) All() iter.Seq2[string, Entry] {
	return func(yield func(string, Entry) bool) {
		s.mu.Lock()
		defer s.mu.Unlock()

		now := s.now()
		for k, e := range s.data {
			if e.IsExpired(now) {
				delete(s.data, k)
				s.gen++
				s.metrics.Inc(metrics.StoreExpiredTotal)
				s.metrics.Add(metrics.StoreKeysTotal, -1)
				continue
			}
			if !yield(k, e) {
				return
			}
		}
	}
}

// Len returns the number of live entries, purging expired ones.
func (s *Store) Len() int {
	n := 0
	for range s.All() {
		n++
	}
	return n
}

// Replace installs the given entries wholesale, discarding the current
// contents. Used when loading a snapshot.
func (s *Store) Replace(entries map[string]Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.Add(metrics.StoreKeysTotal, int64(len(entries)-len(s.data)))

	s.data = make(map[string]Entry, len(entries))
	for k, e := range entries {
		s.data[k] = e
	}
	s.gen++
}

// Generation returns a counter that advances on every mutation,
// including lazy-expiration purges. The checkpointer uses it to skip
// snapshots of an unchanged store.
func (s *Store) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}
