package corpusdash

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver   string // "memory" or "redis"
	addrs    []string
	password string

	maxEntries int
	maxBytes   int64
	cacheTTL   time.Duration

	sources []Source

	fetchTimeout    time.Duration
	maxBodyBytes    int64
	userAgent       string
	fallbackCharset string
	concurrency     int
	httpClient      *http.Client

	jsonTimeout      time.Duration
	jsonMaxBodyBytes int64

	defaultMode Mode
	maxMatches  int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithRedis caches fetched documents in a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverRedis
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithMemoryCache caches up to maxEntries fetched documents in process (default).
func WithMemoryCache(maxEntries int) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverMemory
		c.maxEntries = maxEntries
	})
}

// WithCacheMaxBytes caps the total size of documents held by the in-process
// cache. Least recently used documents are evicted first. Default: 256 MiB.
func WithCacheMaxBytes(n int64) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxBytes = n
	})
}

// WithCacheTTL expires cached documents after ttl. Zero keeps them until evicted.
func WithCacheTTL(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheTTL = ttl
	})
}

// WithSources replaces the default novel list.
func WithSources(sources ...Source) Option {
	return optionFunc(func(c *clientConfig) {
		c.sources = append([]Source(nil), sources...)
	})
}

// WithSource appends one named text to the source list. Any use of
// WithSource or WithSources replaces DefaultSources.
func WithSource(name, url string) Option {
	return optionFunc(func(c *clientConfig) {
		c.sources = append(c.sources, Source{Name: name, URL: url})
	})
}

// WithFetchTimeout bounds every upstream fetch. Default: 10s.
func WithFetchTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.fetchTimeout = d
	})
}

// WithMaxBodyBytes rejects upstream documents larger than n bytes. Default: 64 MiB.
func WithMaxBodyBytes(n int64) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxBodyBytes = n
	})
}

// WithJSONTimeout bounds JSON document fetches. Default: 15s.
func WithJSONTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.jsonTimeout = d
	})
}

// WithJSONMaxBodyBytes rejects JSON documents larger than n bytes. Default: 16 MiB.
func WithJSONMaxBodyBytes(n int64) Option {
	return optionFunc(func(c *clientConfig) {
		c.jsonMaxBodyBytes = n
	})
}

// WithUserAgent sets the User-Agent header of upstream requests.
func WithUserAgent(ua string) Option {
	return optionFunc(func(c *clientConfig) {
		c.userAgent = ua
	})
}

// WithFallbackCharset sets the charset assumed for undeclared non-UTF-8 texts.
// Default: gb18030.
func WithFallbackCharset(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.fallbackCharset = name
	})
}

// WithConcurrency limits how many sources are fetched at once. Default: 4.
func WithConcurrency(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.concurrency = n
	})
}

// WithHTTPClient overrides the HTTP client used for upstream fetches.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) {
		c.httpClient = hc
	})
}

// WithDefaultMode sets the evaluation mode of searches that do not pick one.
// Default: ModeBoolean.
func WithDefaultMode(m Mode) Option {
	return optionFunc(func(c *clientConfig) {
		c.defaultMode = m
	})
}

// WithMaxMatches caps the match list of JSON searches. Default: 500.
func WithMaxMatches(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxMatches = n
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
