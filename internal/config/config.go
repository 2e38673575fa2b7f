package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/corpusdash/internal/domain"
	"github.com/kailas-cloud/corpusdash/internal/domain/search/mode"
)

// Cache drivers.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// Config holds the corpusdash service configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Cache      CacheConfig      `yaml:"cache"`
	Fetch      FetchConfig      `yaml:"fetch"`
	Corpus     CorpusConfig     `yaml:"corpus"`
	JSONSearch JSONSearchConfig `yaml:"json_search"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// CacheConfig holds fetch cache backend settings.
type CacheConfig struct {
	Driver           string   `yaml:"driver"` // memory, redis (default: memory)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	KeyPrefix        string   `yaml:"key_prefix"`
	TTLSec           int      `yaml:"ttl_sec"` // 0 = keep until evicted
	MaxEntries       int      `yaml:"max_entries"`
	MaxBytes         int64    `yaml:"max_bytes"` // memory driver only
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// FetchConfig holds corpus fetcher settings.
type FetchConfig struct {
	TimeoutSec      int    `yaml:"timeout_sec"`
	MaxBodyBytes    int64  `yaml:"max_body_bytes"`
	UserAgent       string `yaml:"user_agent"`
	FallbackCharset string `yaml:"fallback_charset"`
	Concurrency     int    `yaml:"concurrency"`
}

// SourceConfig is one named corpus text.
type SourceConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// CorpusConfig holds corpus search settings.
type CorpusConfig struct {
	DefaultMode string         `yaml:"default_mode"` // boolean, legacy (default: boolean)
	Sources     []SourceConfig `yaml:"sources"`
}

// JSONSearchConfig holds JSON search settings.
type JSONSearchConfig struct {
	TimeoutSec   int   `yaml:"timeout_sec"`
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
	MaxMatches   int   `yaml:"max_matches"`
}

// DefaultSources are the POS-tagged novels searched when none are configured.
var DefaultSources = []SourceConfig{
	{Name: "路遥《平凡的世界》", URL: "https://raw.githubusercontent.com/JingyuMiao-1226/Demo1029/main/路遥《平凡的世界》_pos.txt"},
	{Name: "老舍《骆驼祥子》", URL: "https://raw.githubusercontent.com/JingyuMiao-1226/Demo1029/main/老舍《骆驼祥子》_pos.txt"},
	{Name: "王安忆《长恨歌》", URL: "https://raw.githubusercontent.com/JingyuMiao-1226/Demo1029/main/王安忆《长恨歌》_pos.txt"},
	{Name: "张爱玲《半生缘》", URL: "https://raw.githubusercontent.com/JingyuMiao-1226/Demo1029/main/张爱玲《半生缘》_pos.txt"},
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit YAML file path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse builds a validated configuration from YAML, expanding ${VAR} references.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Default returns a validated configuration built from defaults only.
func Default() Config {
	cfg := Config{HTTP: HTTPConfig{Port: 8080}}
	cfg.ApplyDefaults()
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = DriverMemory
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = domain.KeyPrefix
	}
	if c.Cache.MaxEntries <= 0 {
		c.Cache.MaxEntries = 256
	}
	if c.Cache.MaxBytes <= 0 {
		c.Cache.MaxBytes = 256 << 20
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Fetch.TimeoutSec <= 0 {
		c.Fetch.TimeoutSec = 10
	}
	if c.Fetch.MaxBodyBytes <= 0 {
		c.Fetch.MaxBodyBytes = 64 << 20
	}
	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = "corpusdash/1.0"
	}
	if c.Fetch.FallbackCharset == "" {
		c.Fetch.FallbackCharset = "gb18030"
	}
	if c.Fetch.Concurrency <= 0 {
		c.Fetch.Concurrency = 4
	}
	if c.Corpus.DefaultMode == "" {
		c.Corpus.DefaultMode = string(mode.Boolean)
	}
	if len(c.Corpus.Sources) == 0 {
		c.Corpus.Sources = append([]SourceConfig(nil), DefaultSources...)
	}
	if c.JSONSearch.TimeoutSec <= 0 {
		c.JSONSearch.TimeoutSec = 15
	}
	if c.JSONSearch.MaxBodyBytes <= 0 {
		c.JSONSearch.MaxBodyBytes = 16 << 20
	}
	if c.JSONSearch.MaxMatches <= 0 {
		c.JSONSearch.MaxMatches = 500
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Cache.Driver {
	case DriverMemory:
		if c.Cache.MaxBytes < c.Fetch.MaxBodyBytes {
			return fmt.Errorf("cache.max_bytes (%d) must not be smaller than fetch.max_body_bytes (%d)",
				c.Cache.MaxBytes, c.Fetch.MaxBodyBytes)
		}
	case DriverRedis:
		if len(c.Cache.Addrs) == 0 {
			return fmt.Errorf("cache.addrs is required for the redis driver")
		}
	default:
		return fmt.Errorf("cache.driver must be %q or %q, got %q", DriverMemory, DriverRedis, c.Cache.Driver)
	}
	if c.Cache.TTLSec < 0 {
		return fmt.Errorf("cache.ttl_sec must not be negative, got %d", c.Cache.TTLSec)
	}
	if m := mode.Mode(c.Corpus.DefaultMode); !m.IsValid() {
		return fmt.Errorf("corpus.default_mode must be %q or %q, got %q", mode.Boolean, mode.Legacy, m)
	}
	if _, err := c.Sources(); err != nil {
		return err
	}
	return nil
}

// Sources converts the configured sources into domain values, rejecting
// duplicate names.
func (c *Config) Sources() ([]domain.Source, error) {
	out := make([]domain.Source, 0, len(c.Corpus.Sources))
	seen := make(map[string]struct{}, len(c.Corpus.Sources))
	for i, sc := range c.Corpus.Sources {
		src, err := domain.NewSource(sc.Name, sc.URL)
		if err != nil {
			return nil, fmt.Errorf("corpus.sources[%d]: %w", i, err)
		}
		if _, dup := seen[src.Name()]; dup {
			return nil, fmt.Errorf("corpus.sources[%d]: duplicate name %q", i, src.Name())
		}
		seen[src.Name()] = struct{}{}
		out = append(out, src)
	}
	return out, nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
