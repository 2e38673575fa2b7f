// Package memory is an in-process db.Store backed by an LRU bounded by
// entry count and total value bytes.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/golang/groupcache/lru"

	"github.com/kailas-cloud/corpusdash/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Defaults applied when no bound is configured.
const (
	DefaultMaxEntries       = 256
	DefaultMaxBytes   int64 = 256 << 20
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Store keeps values in an LRU cache. Expired entries are dropped lazily
// on read.
type Store struct {
	mu       sync.Mutex
	cache    *lru.Cache
	bytes    int64
	maxBytes int64
	closed   bool
	now      func() time.Time
}

// NewStore creates a store holding at most maxEntries keys whose values
// total at most maxBytes. Least recently used entries are evicted first.
func NewStore(maxEntries int, maxBytes int64) *Store {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	s := &Store{cache: lru.New(maxEntries), maxBytes: maxBytes, now: time.Now}
	// Every removal path (Remove, RemoveOldest, Clear, count eviction) ends here.
	s.cache.OnEvicted = func(_ lru.Key, v interface{}) {
		s.bytes -= int64(len(v.(entry).value))
	}
	return s
}

// Ping fails only after Close.
func (s *Store) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return &db.Error{Op: db.OpPing, Err: db.ErrClosed}
	}
	return nil
}

// WaitForReady returns immediately: the store is ready once constructed.
func (s *Store) WaitForReady(ctx context.Context, _ time.Duration) error {
	return s.Ping(ctx)
}

// Close drops every entry. Later calls fail with db.ErrClosed.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Clear()
	s.closed = true
}

// Get returns a copy of the stored value.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, &db.Error{Op: db.OpGet, Err: db.ErrClosed}
	}

	v, ok := s.cache.Get(key)
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	e := v.(entry)
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		s.cache.Remove(key)
		return nil, db.ErrKeyNotFound
	}
	return clone(e.value), nil
}

// Set stores a value without expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.SetWithTTL(ctx, key, value, 0)
}

// SetWithTTL stores a value that expires after ttl. A non-positive ttl
// stores without expiry.
func (s *Store) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return &db.Error{Op: db.OpSet, Err: db.ErrClosed}
	}

	// lru.Add replaces in place without OnEvicted, so drop the old value first.
	s.cache.Remove(key)
	if int64(len(value)) > s.maxBytes {
		return nil
	}

	e := entry{value: clone(value)}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.cache.Add(key, e)
	s.bytes += int64(len(e.value))
	for s.bytes > s.maxBytes {
		s.cache.RemoveOldest()
	}
	return nil
}

// Del removes a key.
func (s *Store) Del(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return &db.Error{Op: db.OpDel, Err: db.ErrClosed}
	}
	s.cache.Remove(key)
	return nil
}

// Len returns the number of entries, expired ones included.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Len()
}

// Bytes returns the total size of stored values.
func (s *Store) Bytes() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bytes
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
