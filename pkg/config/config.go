// Package config loads and validates application configuration from YAML
// files with environment-variable overrides. It provides typed structs for
// every subsystem (Logging, Metrics, Search, Cache, Loader).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Search  SearchConfig  `yaml:"search"`
	Cache   CacheConfig   `yaml:"cache"`
	Loader  LoaderConfig  `yaml:"loader"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the local Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// SearchConfig controls per-index result limits and relevance scoring.
type SearchConfig struct {
	// MaxResults caps the number of results a single search returns.
	MaxResults int           `yaml:"maxResults"`
	Scoring    ScoringConfig `yaml:"scoring"`
}

// ScoringConfig holds the relevance scoring constants. The values are
// empirically tuned; override them via YAML rather than editing code.
type ScoringConfig struct {
	// PhraseBonus is awarded when the whole query appears verbatim in a
	// field value.
	PhraseBonus float64 `yaml:"phraseBonus"`
	// TermBonus is awarded per query term found as a substring.
	TermBonus float64 `yaml:"termBonus"`
	// BoundaryBonus is added when the term sits on a word boundary.
	BoundaryBonus float64 `yaml:"boundaryBonus"`
	// PrefixBonus is added when the field value starts with the term.
	PrefixBonus float64 `yaml:"prefixBonus"`
	// NormalizationBase and MaxFieldWeight form the score normalization
	// divisor: terms * NormalizationBase * MaxFieldWeight.
	NormalizationBase float64 `yaml:"normalizationBase"`
	MaxFieldWeight    float64 `yaml:"maxFieldWeight"`
	// FieldWeights maps the final segment of a field path to its
	// importance multiplier. Unlisted fields weigh 1.0.
	FieldWeights map[string]float64 `yaml:"fieldWeights"`
}

// CacheConfig bounds the TTL caches that hold fetched resource data.
type CacheConfig struct {
	ListSize      int           `yaml:"listSize"`
	ListTTL       time.Duration `yaml:"listTTL"`
	DetailSize    int           `yaml:"detailSize"`
	DetailTTL     time.Duration `yaml:"detailTTL"`
	NamespaceSize int           `yaml:"namespaceSize"`
	NamespaceTTL  time.Duration `yaml:"namespaceTTL"`
}

// LoaderConfig controls resource fetching: per-fetch timeout, concurrency
// across namespaces, and the retry policy for transient fetch failures.
type LoaderConfig struct {
	FetchTimeout         time.Duration `yaml:"fetchTimeout"`
	MaxConcurrentFetches int           `yaml:"maxConcurrentFetches"`
	RetryMaxAttempts     int           `yaml:"retryMaxAttempts"`
	RetryInitialDelay    time.Duration `yaml:"retryInitialDelay"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with sensible defaults for any
// missing values.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// Default returns a Config carrying the scoring constants and cache bounds
// the console ships with.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
		},
		Search: SearchConfig{
			MaxResults: 1000,
			Scoring:    DefaultScoring(),
		},
		Cache: CacheConfig{
			ListSize:      200,
			ListTTL:       120 * time.Second,
			DetailSize:    50,
			DetailTTL:     60 * time.Second,
			NamespaceSize: 50,
			NamespaceTTL:  600 * time.Second,
		},
		Loader: LoaderConfig{
			FetchTimeout:         30 * time.Second,
			MaxConcurrentFetches: 4,
			RetryMaxAttempts:     3,
			RetryInitialDelay:    200 * time.Millisecond,
		},
	}
}

// DefaultScoring returns the stock scoring constants.
func DefaultScoring() ScoringConfig {
	return ScoringConfig{
		PhraseBonus:       5.0,
		TermBonus:         1.0,
		BoundaryBonus:     0.5,
		PrefixBonus:       1.0,
		NormalizationBase: 7.5,
		MaxFieldWeight:    3.0,
		FieldWeights: map[string]float64{
			"name":      3.0,
			"namespace": 2.0,
			"status":    2.5,
			"message":   1.5,
			"reason":    2.0,
			"type":      2.0,
		},
	}
}

// applyEnvOverrides reads ORX_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ORX_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("ORX_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("ORX_METRICS_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Metrics.Enabled = enabled
		}
	}
	if v := os.Getenv("ORX_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
		}
	}
	if v := os.Getenv("ORX_SEARCH_MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.MaxResults = n
		}
	}
	if v := os.Getenv("ORX_CACHE_LIST_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.ListTTL = d
		}
	}
	if v := os.Getenv("ORX_LOADER_FETCH_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Loader.FetchTimeout = d
		}
	}
	if v := os.Getenv("ORX_LOADER_RETRY_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Loader.RetryMaxAttempts = n
		}
	}
}
