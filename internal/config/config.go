// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Loading functions accept context.Context as the first parameter.
// - Errors are wrapped with ErrLoadConfig or ErrInvalidConfig.
package config

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/okian/simcat/internal/domain/scoring"
	"github.com/okian/simcat/pkg/metrics"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// SourceURL is the catalog backend base URL. The catalog is read from
	// <SourceURL>/api/all.
	SourceURL string `koanf:"source_url"`

	// SourceFile reads the catalog from a YAML or JSON file instead.
	SourceFile string `koanf:"source_file"`

	// FetchTimeoutMS bounds a single catalog request.
	FetchTimeoutMS int `koanf:"fetch_timeout_ms"`

	// FetchRetries is the number of extra attempts on transient failures.
	FetchRetries int `koanf:"fetch_retries"`

	// FetchRatePerSec paces catalog requests. Zero means unlimited.
	FetchRatePerSec float64 `koanf:"fetch_rate_per_sec"`

	// RefreshIntervalMS reloads the catalog periodically. Zero disables it.
	RefreshIntervalMS int `koanf:"refresh_interval_ms"`

	// ScoringPolicy selects the default ranking policy: tiered or flat.
	ScoringPolicy string `koanf:"scoring_policy"`

	// TieredWeights and FlatPoints tune the two policies.
	TieredWeights scoring.Weights `koanf:"tiered_weights"`
	FlatPoints    scoring.Points  `koanf:"flat_points"`

	// TieredPrimaryExclusion drops a simulation whose primary value is set
	// but not selected. Off, unselected primaries only forgo their weight.
	TieredPrimaryExclusion bool `koanf:"tiered_primary_exclusion"`

	// CacheSize bounds the ranked result cache. Zero disables it.
	CacheSize int `koanf:"cache_size"`

	// SearchMaxLimit caps the limit parameter of GET /api/simulations.
	SearchMaxLimit int `koanf:"search_max_limit"`

	Metrics MetricsConfig `koanf:"metrics"`
}

// MetricsConfig names the exported Prometheus series.
type MetricsConfig struct {
	Namespace string `koanf:"namespace"`
	Subsystem string `koanf:"subsystem"`

	// LatencyBucketsMS replaces the latency histogram buckets when set.
	LatencyBucketsMS []float64 `koanf:"latency_buckets_ms"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		Addr:              ":9080",
		FetchTimeoutMS:    10_000,
		FetchRetries:      2,
		FetchRatePerSec:   2,
		RefreshIntervalMS: 0,
		ScoringPolicy:     scoring.PolicyTiered,
		TieredWeights:     scoring.DefaultWeights(),
		FlatPoints:        scoring.DefaultPoints(),
		CacheSize:         1024,
		SearchMaxLimit:    1000,

		TieredPrimaryExclusion: true,
		Metrics: MetricsConfig{
			Namespace: "simcat",
			Subsystem: "search",
		},
	}
}

// FetchTimeout returns FetchTimeoutMS as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutMS) * time.Millisecond
}

// RefreshInterval returns RefreshIntervalMS as a duration.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalMS) * time.Millisecond
}

// ScoringOptions returns the policy tuning as scoring options.
func (c *Config) ScoringOptions() []scoring.Option {
	return []scoring.Option{
		scoring.WithWeights(c.TieredWeights),
		scoring.WithPoints(c.FlatPoints),
		scoring.WithPrimaryExclusion(c.TieredPrimaryExclusion),
	}
}

// MetricsOptions returns the series naming as metrics options.
func (c *Config) MetricsOptions() []metrics.Option {
	return []metrics.Option{
		metrics.WithNamespace(c.Metrics.Namespace),
		metrics.WithSubsystem(c.Metrics.Subsystem),
		metrics.WithHistogramBuckets(c.Metrics.LatencyBucketsMS),
	}
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	var level slog.Level
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case level.UnmarshalText([]byte(c.LogLevel)) != nil:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	case c.SourceURL != "" && c.SourceFile != "":
		return fmt.Errorf("%w: source_url and source_file are mutually exclusive", ErrInvalidConfig)
	case c.FetchTimeoutMS <= 0:
		return fmt.Errorf("%w: fetch_timeout_ms must be positive", ErrInvalidConfig)
	case c.FetchRetries < 0:
		return fmt.Errorf("%w: fetch_retries must not be negative", ErrInvalidConfig)
	case c.FetchRatePerSec < 0:
		return fmt.Errorf("%w: fetch_rate_per_sec must not be negative", ErrInvalidConfig)
	case c.RefreshIntervalMS < 0:
		return fmt.Errorf("%w: refresh_interval_ms must not be negative", ErrInvalidConfig)
	case c.CacheSize < 0:
		return fmt.Errorf("%w: cache_size must not be negative", ErrInvalidConfig)
	case c.SearchMaxLimit < 1:
		return fmt.Errorf("%w: search_max_limit must be positive", ErrInvalidConfig)
	case !sort.Float64sAreSorted(c.Metrics.LatencyBucketsMS):
		return fmt.Errorf("%w: metrics.latency_buckets_ms must be increasing", ErrInvalidConfig)
	}
	if _, err := scoring.ByName(c.ScoringPolicy); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
