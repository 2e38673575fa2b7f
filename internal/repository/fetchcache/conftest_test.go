package fetchcache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/corpusdash/internal/db"
	"github.com/kailas-cloud/corpusdash/internal/domain"
)

type mockFetcher struct {
	doc   domain.Document
	err   error
	calls atomic.Int32
	// release, when set, blocks Fetch until closed.
	release chan struct{}
}

func (m *mockFetcher) Fetch(_ context.Context, url string) (domain.Document, error) {
	m.calls.Add(1)
	if m.release != nil {
		<-m.release
	}
	if m.err != nil {
		return domain.Document{}, m.err
	}
	doc := m.doc
	doc.URL = url
	return doc, nil
}

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	return nil
}

// mapStore is a working in-memory store for round-trip tests.
type mapStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMapStore() *mapStore { return &mapStore{data: map[string][]byte{}} }

func (s *mapStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (s *mapStore) SetWithTTL(_ context.Context, key string, value []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func newTestCachedFetcher(t *testing.T, inner *mockFetcher, s store) *CachedFetcher {
	t.Helper()
	return New(inner, s, Config{Namespace: "corpus", TTL: time.Hour}, nil, zap.NewNop())
}
