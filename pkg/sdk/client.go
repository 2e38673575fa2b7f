package corpusdash

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/corpusdash/internal/config"
	"github.com/kailas-cloud/corpusdash/internal/db"
	dbMemory "github.com/kailas-cloud/corpusdash/internal/db/memory"
	dbRedis "github.com/kailas-cloud/corpusdash/internal/db/redis"
	"github.com/kailas-cloud/corpusdash/internal/domain"
	"github.com/kailas-cloud/corpusdash/internal/domain/search/mode"
	"github.com/kailas-cloud/corpusdash/internal/domain/search/request"
	"github.com/kailas-cloud/corpusdash/internal/domain/search/result"
	"github.com/kailas-cloud/corpusdash/internal/metrics"
	"github.com/kailas-cloud/corpusdash/internal/repository/fetchcache"
	"github.com/kailas-cloud/corpusdash/internal/transport/httpfetch"
	corpusuc "github.com/kailas-cloud/corpusdash/internal/usecase/corpus"
	healthuc "github.com/kailas-cloud/corpusdash/internal/usecase/health"
	jsonsearchuc "github.com/kailas-cloud/corpusdash/internal/usecase/jsonsearch"
)

const (
	driverMemory = "memory"
	driverRedis  = "redis"

	defaultReadinessTimeout = 10 * time.Second
	defaultJSONTimeout      = 15 * time.Second
	defaultJSONMaxBody      = 16 << 20
)

// DefaultSources are the POS-tagged novels searched when WithSources is not used.
var DefaultSources = defaultSources()

func defaultSources() []Source {
	out := make([]Source, len(config.DefaultSources))
	for i, s := range config.DefaultSources {
		out[i] = Source{Name: s.Name, URL: s.URL}
	}
	return out
}

// Internal interfaces, swapped for mocks in tests.
type corpusUseCase interface {
	Search(ctx context.Context, req *request.Request) (result.Report, error)
	Sources(ctx context.Context) ([]result.SourceStatus, error)
}

type jsonUseCase interface {
	Search(ctx context.Context, req jsonsearchuc.Request) (jsonsearchuc.Result, error)
}

// Client is the corpusdash SDK entry point.
type Client struct {
	store       db.Store
	corpusSvc   corpusUseCase
	jsonSvc     jsonUseCase
	healthSvc   healthUseCase
	defaultMode mode.Mode
	obs         *observer
}

// New creates a Client. The provided context is used for the cache
// readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		driver:      driverMemory,
		defaultMode: ModeBoolean,
	}
	for _, o := range opts {
		o.apply(cfg)
	}
	if len(cfg.sources) == 0 {
		cfg.sources = DefaultSources
	}

	sources, err := toDomainSources(cfg.sources)
	if err != nil {
		return nil, err
	}
	m := mode.Mode(cfg.defaultMode)
	if !m.IsValid() {
		return nil, fmt.Errorf("corpusdash: unknown default mode %q", cfg.defaultMode)
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("corpusdash: cache not ready: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		store.Close()
		return nil, err
	}
	return wireClient(store, sources, cfg, obs), nil
}

func toDomainSources(in []Source) ([]domain.Source, error) {
	out := make([]domain.Source, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		src, err := domain.NewSource(s.Name, s.URL)
		if err != nil {
			return nil, fmt.Errorf("corpusdash: %w", err)
		}
		if _, dup := seen[src.Name()]; dup {
			return nil, fmt.Errorf("corpusdash: duplicate source %q", src.Name())
		}
		seen[src.Name()] = struct{}{}
		out = append(out, src)
	}
	return out, nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case driverMemory:
		return dbMemory.NewStore(cfg.maxEntries, cfg.maxBytes), nil
	case driverRedis:
		if len(cfg.addrs) == 0 || cfg.addrs[0] == "" {
			return nil, errors.New("corpusdash: redis address required")
		}
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("corpusdash: create redis store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("corpusdash: unknown driver %q", cfg.driver)
	}
}

func wireClient(store db.Store, sources []domain.Source, cfg *clientConfig, obs *observer) *Client {
	// Internal layers log through zap; SDK operations are reported by the observer.
	logger := zap.NewNop()

	corpusFetcher := newFetcher(store, cfg, &httpfetch.Config{
		Kind:            "corpus",
		Timeout:         cfg.fetchTimeout,
		MaxBodyBytes:    cfg.maxBodyBytes,
		UserAgent:       cfg.userAgent,
		FallbackCharset: cfg.fallbackCharset,
		Client:          cfg.httpClient,
		Logger:          logger,
	})
	jsonFetcher := newFetcher(store, cfg, jsonFetchConfig(cfg, logger))

	corpusSvc := corpusuc.New(sources, corpusFetcher, cfg.concurrency, logger)
	return &Client{
		store:       store,
		corpusSvc:   corpusSvc,
		jsonSvc:     jsonsearchuc.New(jsonFetcher, cfg.maxMatches),
		healthSvc:   healthuc.New(store, corpusSvc),
		defaultMode: mode.Mode(cfg.defaultMode),
		obs:         obs,
	}
}

// jsonFetchConfig applies the JSON search limits, independent of the corpus ones.
func jsonFetchConfig(cfg *clientConfig, logger *zap.Logger) *httpfetch.Config {
	fc := &httpfetch.Config{
		Kind:         "json",
		Timeout:      cfg.jsonTimeout,
		MaxBodyBytes: cfg.jsonMaxBodyBytes,
		UserAgent:    cfg.userAgent,
		Client:       cfg.httpClient,
		Logger:       logger,
	}
	if fc.Timeout <= 0 {
		fc.Timeout = defaultJSONTimeout
	}
	if fc.MaxBodyBytes <= 0 {
		fc.MaxBodyBytes = defaultJSONMaxBody
	}
	return fc
}

// newFetcher assembles HTTP -> Cached for one fetch kind.
func newFetcher(store db.KVStore, cfg *clientConfig, fc *httpfetch.Config) domain.Fetcher {
	return fetchcache.New(httpfetch.New(fc), store, fetchcache.Config{
		Namespace: fc.Kind,
		TTL:       cfg.cacheTTL,
	}, metrics.CacheCounter(fc.Kind), zap.NewNop())
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks cache connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}
