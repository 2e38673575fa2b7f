package fetchcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/corpusdash/internal/db"
	"github.com/kailas-cloud/corpusdash/internal/domain"
)

// store is the consumer interface for the fetch cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Config controls key layout and entry lifetime.
type Config struct {
	// KeyPrefix defaults to domain.KeyPrefix.
	KeyPrefix string
	// Namespace separates fetchers sharing one store, e.g. "corpus" and "json".
	Namespace string
	// TTL of 0 keeps entries until the store evicts them.
	TTL time.Duration
}

// CachedFetcher caches fetched documents in a key-value store and collapses
// concurrent misses for the same URL into one upstream call.
type CachedFetcher struct {
	inner      domain.Fetcher
	store      store
	cfg        Config
	group      singleflight.Group
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner domain.Fetcher,
	s store,
	cfg Config,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedFetcher {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = domain.KeyPrefix
	}
	return &CachedFetcher{
		inner:      inner,
		store:      s,
		cfg:        cfg,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Fetch returns a cached document or calls the inner fetcher.
// Failed fetches are not cached.
func (c *CachedFetcher) Fetch(ctx context.Context, url string) (domain.Document, error) {
	key := c.cacheKey(url)

	if doc, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return doc, nil
	}

	c.incCache("miss")

	// The shared call outlives any single caller; the inner fetcher bounds it.
	ch := c.group.DoChan(key, func() (any, error) {
		sharedCtx := context.WithoutCancel(ctx)
		doc, err := c.inner.Fetch(sharedCtx, url)
		if err != nil {
			return domain.Document{}, err
		}
		c.putToCache(sharedCtx, key, doc)
		return doc, nil
	})

	select {
	case <-ctx.Done():
		return domain.Document{}, fmt.Errorf("fetch %s: %w", url, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return domain.Document{}, fmt.Errorf("fetch %s: %w", url, res.Err)
		}
		return res.Val.(domain.Document), nil
	}
}

func (c *CachedFetcher) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedFetcher) cacheKey(url string) string {
	h := sha256.Sum256([]byte(url))
	return c.cfg.KeyPrefix + "fetch:" + c.cfg.Namespace + ":" + hex.EncodeToString(h[:])
}

func (c *CachedFetcher) getFromCache(ctx context.Context, key string) (domain.Document, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached document", zap.String("key", key), zap.Error(err))
		}
		return domain.Document{}, false
	}
	if len(data) == 0 {
		return domain.Document{}, false
	}

	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		c.logger.Warn("Failed to parse cached document", zap.String("key", key), zap.Error(err))
		return domain.Document{}, false
	}
	return doc, true
}

func (c *CachedFetcher) putToCache(ctx context.Context, key string, doc domain.Document) {
	data, err := json.Marshal(doc)
	if err != nil {
		c.logger.Warn("Failed to encode document for cache", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.cfg.TTL); err != nil {
		c.logger.Warn("Failed to cache document", zap.String("key", key), zap.Error(err))
	}
}
