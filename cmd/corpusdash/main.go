package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/corpusdash/internal/config"
	"github.com/kailas-cloud/corpusdash/internal/db"
	dbMemory "github.com/kailas-cloud/corpusdash/internal/db/memory"
	dbRedis "github.com/kailas-cloud/corpusdash/internal/db/redis"
	"github.com/kailas-cloud/corpusdash/internal/domain"
	"github.com/kailas-cloud/corpusdash/internal/domain/search/mode"
	logpkg "github.com/kailas-cloud/corpusdash/internal/logger"
	"github.com/kailas-cloud/corpusdash/internal/metrics"
	"github.com/kailas-cloud/corpusdash/internal/repository/fetchcache"
	chiTransport "github.com/kailas-cloud/corpusdash/internal/transport/chi"
	"github.com/kailas-cloud/corpusdash/internal/transport/httpfetch"
	corpusuc "github.com/kailas-cloud/corpusdash/internal/usecase/corpus"
	healthuc "github.com/kailas-cloud/corpusdash/internal/usecase/health"
	jsonsearchuc "github.com/kailas-cloud/corpusdash/internal/usecase/jsonsearch"
	"github.com/kailas-cloud/corpusdash/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting corpusdash API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("cache_driver", cfg.Cache.Driver),
		zap.Int("sources", len(cfg.Corpus.Sources)),
		zap.String("default_mode", cfg.Corpus.DefaultMode),
	)

	store, err := newStore(cfg.Cache)
	if err != nil {
		logger.Fatal("Failed to create cache store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Cache store not ready", zap.Error(err))
	}
	logger.Info("Cache store ready", zap.String("driver", cfg.Cache.Driver))

	// Register fetch metrics explicitly (no init())
	metrics.RegisterFetchMetrics()

	sources, err := cfg.Sources()
	if err != nil {
		logger.Fatal("Invalid corpus sources", zap.Error(err))
	}

	ttl := time.Duration(cfg.Cache.TTLSec) * time.Second
	corpusFetcher := buildFetcher(&httpfetch.Config{
		Kind:            "corpus",
		Timeout:         time.Duration(cfg.Fetch.TimeoutSec) * time.Second,
		MaxBodyBytes:    cfg.Fetch.MaxBodyBytes,
		UserAgent:       cfg.Fetch.UserAgent,
		FallbackCharset: cfg.Fetch.FallbackCharset,
		Logger:          logger,
	}, store, cfg.Cache.KeyPrefix, ttl, logger)
	jsonFetcher := buildFetcher(&httpfetch.Config{
		Kind:         "json",
		Timeout:      time.Duration(cfg.JSONSearch.TimeoutSec) * time.Second,
		MaxBodyBytes: cfg.JSONSearch.MaxBodyBytes,
		UserAgent:    cfg.Fetch.UserAgent,
		Logger:       logger,
	}, store, cfg.Cache.KeyPrefix, ttl, logger)

	// Use case services
	corpusSvc := corpusuc.New(sources, corpusFetcher, cfg.Fetch.Concurrency, logger)
	jsonSvc := jsonsearchuc.New(jsonFetcher, cfg.JSONSearch.MaxMatches)
	healthSvc := healthuc.New(store, corpusSvc)

	server := chiTransport.NewServer(corpusSvc, jsonSvc, healthSvc, mode.Mode(cfg.Corpus.DefaultMode), logger)
	router := chiTransport.NewRouter(server, cfg.Auth.APIKeys, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// newStore creates the fetch cache backend for the configured driver.
func newStore(cfg config.CacheConfig) (db.Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return dbMemory.NewStore(cfg.MaxEntries, cfg.MaxBytes), nil
	case config.DriverRedis:
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("redis store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
}

// buildFetcher assembles the decorator chain: HTTP -> Cached.
func buildFetcher(
	fetchCfg *httpfetch.Config,
	store db.KVStore,
	keyPrefix string,
	ttl time.Duration,
	logger *zap.Logger,
) domain.Fetcher {
	base := httpfetch.New(fetchCfg)
	return fetchcache.New(base, store, fetchcache.Config{
		KeyPrefix: keyPrefix,
		Namespace: fetchCfg.Kind,
		TTL:       ttl,
	}, metrics.CacheCounter(fetchCfg.Kind), logger)
}
