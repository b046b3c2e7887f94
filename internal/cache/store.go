package cache

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/partscout/partscout/internal/logger"
)

// ErrNoFetcher is returned by GetOrFetch when the fetch function is nil.
var ErrNoFetcher = errors.New("cache: nil fetch function")

// FetchFunc produces the payload for a key on a cache miss.
type FetchFunc func(ctx context.Context) ([]byte, error)

// Stats holds cache counters.
type Stats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Expired int64 `json:"expired"`
	Entries int   `json:"entries"`
	Bytes   int64 `json:"bytes"`
}

// entry is one cached payload with its lifetime.
type entry struct {
	key       Key
	payload   []byte
	createdAt time.Time
	ttl       time.Duration
	elem      *list.Element
}

// expired reports whether the entry's TTL has lapsed at now.
func (e *entry) expired(now time.Time) bool {
	return now.Sub(e.createdAt) >= e.ttl
}

// size is the entry's footprint contribution.
func (e *entry) size() int64 {
	return int64(len(e.payload))
}

// Store is the shared cross-stage cache. All methods are safe for
// concurrent use; fetches issued through GetOrFetch run outside the lock
// and are collapsed per key.
type Store struct {
	mu       sync.Mutex
	entries  map[string]*entry
	lru      *list.List // front = most recently used; values are ids
	bytes    int64
	maxBytes int64

	flight singleflight.Group
	disk   *diskStore
	log    logger.Interface
	now    func() time.Time

	hits    int64
	misses  int64
	expired int64
}

// Options configures a Store.
type Options struct {
	// Dir is the persistence directory. Empty disables persistence.
	Dir string
	// MaxBytes bounds the in-memory payload footprint. Zero or negative
	// means unbounded.
	MaxBytes int64
}

// New creates a store and reloads any persisted entries that are still
// within their TTL.
func New(opts Options, log logger.Interface) (*Store, error) {
	if log == nil {
		log = logger.NewNoOp()
	}

	s := &Store{
		entries:  make(map[string]*entry),
		lru:      list.New(),
		maxBytes: opts.MaxBytes,
		log:      log,
		now:      time.Now,
	}

	if opts.Dir != "" {
		disk, err := newDiskStore(opts.Dir)
		if err != nil {
			return nil, fmt.Errorf("open cache dir: %w", err)
		}
		s.disk = disk
		s.reload()
	}

	return s, nil
}

// reload restores persisted entries. Corrupted files count as absent and
// are deleted; expired ones are dropped.
func (s *Store) reload() {
	restored, corrupted := s.disk.loadAll(s.now())
	for _, e := range restored {
		s.insertLocked(e)
	}
	if len(restored) > 0 || corrupted > 0 {
		s.log.Info("cache reloaded",
			"entries", len(restored),
			"corrupted_removed", corrupted,
		)
	}
}

// Get returns the payload for key if present and unexpired.
func (s *Store) Get(key Key) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(key)
}

func (s *Store) getLocked(key Key) ([]byte, bool) {
	e, ok := s.entries[key.id()]
	if !ok {
		s.misses++
		return nil, false
	}

	if e.expired(s.now()) {
		s.removeLocked(e)
		s.expired++
		s.misses++
		return nil, false
	}

	s.lru.MoveToFront(e.elem)
	s.hits++
	return e.payload, true
}

// Delete removes the entry for key from memory and disk, if present.
func (s *Store) Delete(key Key) {
	s.mu.Lock()
	if e, ok := s.entries[key.id()]; ok {
		s.removeLocked(e)
	}
	s.mu.Unlock()
}

// Put stores a payload under key with the given TTL, replacing any
// previous entry and evicting least-recently-used entries if the
// configured footprint would be exceeded.
func (s *Store) Put(key Key, payload []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	e := &entry{
		key:       key,
		payload:   payload,
		createdAt: s.now(),
		ttl:       ttl,
	}

	s.mu.Lock()
	if old, ok := s.entries[key.id()]; ok {
		s.removeLocked(old)
	}
	s.insertLocked(e)
	s.evictOverflowLocked()
	s.mu.Unlock()

	if s.disk != nil {
		if err := s.disk.write(e); err != nil {
			s.log.Warn("cache persist failed",
				"fingerprint", key.Fingerprint,
				"error", err.Error(),
			)
		}
	}
}

// GetOrFetch returns the cached payload for key, or runs fetch to produce
// it. Concurrent callers for the same key share a single in-flight fetch;
// on fetch failure nothing is written and the error propagates to every
// waiter.
func (s *Store) GetOrFetch(ctx context.Context, key Key, ttl time.Duration, fetch FetchFunc) ([]byte, error) {
	if fetch == nil {
		return nil, ErrNoFetcher
	}

	if payload, ok := s.Get(key); ok {
		return payload, nil
	}

	resultCh := s.flight.DoChan(key.id(), func() (any, error) {
		// Recheck under the flight: a concurrent fetch may have
		// populated the entry between the miss and this call.
		if payload, ok := s.Get(key); ok {
			return payload, nil
		}

		payload, err := fetch(ctx)
		if err != nil {
			return nil, err
		}

		s.Put(key, payload, ttl)
		return payload, nil
	})

	select {
	case res := <-resultCh:
		if res.Err != nil {
			return nil, res.Err
		}
		payload, ok := res.Val.([]byte)
		if !ok {
			return nil, fmt.Errorf("cache: unexpected flight result %T", res.Val)
		}
		return payload, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Sweep removes every expired entry from memory and disk. It is run
// periodically by the server's maintenance schedule.
func (s *Store) Sweep() int {
	now := s.now()

	s.mu.Lock()
	removed := 0
	for _, e := range s.entries {
		if e.expired(now) {
			s.removeLocked(e)
			s.expired++
			removed++
		}
	}
	s.mu.Unlock()

	if s.disk != nil {
		removed += s.disk.sweep(now)
	}

	if removed > 0 {
		s.log.Debug("cache sweep", "removed", removed)
	}
	return removed
}

// Clear empties the store and its persistence directory.
func (s *Store) Clear() error {
	s.mu.Lock()
	s.entries = make(map[string]*entry)
	s.lru.Init()
	s.bytes = 0
	s.mu.Unlock()

	if s.disk != nil {
		return s.disk.clear()
	}
	return nil
}

// Stats returns a snapshot of the cache counters.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Hits:    s.hits,
		Misses:  s.misses,
		Expired: s.expired,
		Entries: len(s.entries),
		Bytes:   s.bytes,
	}
}

// insertLocked adds the entry to the index and LRU front.
func (s *Store) insertLocked(e *entry) {
	e.elem = s.lru.PushFront(e.key.id())
	s.entries[e.key.id()] = e
	s.bytes += e.size()
}

// removeLocked drops the entry from memory and disk.
func (s *Store) removeLocked(e *entry) {
	delete(s.entries, e.key.id())
	s.lru.Remove(e.elem)
	s.bytes -= e.size()
	if s.disk != nil {
		s.disk.remove(e.key)
	}
}

// evictOverflowLocked enforces the byte footprint: expired entries go
// first since they are already treated as absent, then valid entries in
// least-recently-used order.
func (s *Store) evictOverflowLocked() {
	if s.maxBytes <= 0 || s.bytes <= s.maxBytes {
		return
	}

	now := s.now()
	for _, e := range s.entries {
		if s.bytes <= s.maxBytes {
			return
		}
		if e.expired(now) {
			s.removeLocked(e)
			s.expired++
		}
	}

	for s.bytes > s.maxBytes {
		back := s.lru.Back()
		if back == nil {
			return
		}
		id, _ := back.Value.(string)
		e, ok := s.entries[id]
		if !ok {
			s.lru.Remove(back)
			continue
		}
		s.removeLocked(e)
	}
}
