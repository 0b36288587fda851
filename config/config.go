package config

import (
	"time"

	"github.com/money3x/councilflow/internal/cache"
	"github.com/money3x/councilflow/provider"
	"github.com/money3x/councilflow/seo"
)

// Config is the complete engine configuration.
// Priority: defaults → YAML file → environment variables.
type Config struct {
	// Providers is the enabled-provider roster.
	Providers []provider.Config `yaml:"providers"`

	// Council tunes the orchestrator.
	Council CouncilConfig `yaml:"council" env:"COUNCIL"`

	// Quality tunes the quality-variant engine.
	Quality QualityConfig `yaml:"quality" env:"QUALITY"`

	// Cache configures the optional Redis generation cache.
	Cache CacheConfig `yaml:"cache" env:"CACHE"`

	// Archive configures the optional run archive.
	Archive ArchiveConfig `yaml:"archive" env:"ARCHIVE"`

	// Telemetry configures OTLP trace export.
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`

	// Log configures logging.
	Log LogConfig `yaml:"log" env:"LOG"`
}

// CouncilConfig tunes orchestrator timeouts and intervals.
type CouncilConfig struct {
	// ConstructTimeout bounds a single provider construction.
	ConstructTimeout time.Duration `yaml:"construct_timeout" env:"CONSTRUCT_TIMEOUT"`
	// HealthInterval is the period between health sweeps.
	HealthInterval time.Duration `yaml:"health_interval" env:"HEALTH_INTERVAL"`
	// HealthProbeTimeout bounds a single health probe.
	HealthProbeTimeout time.Duration `yaml:"health_probe_timeout" env:"HEALTH_PROBE_TIMEOUT"`
}

// QualityConfig holds the quality variant's publisher identity.
type QualityConfig struct {
	// Organization is the publisher identity used in schema markup.
	Organization seo.Organization `yaml:"organization"`
	// CanonicalBaseURL is the base for canonical page references.
	CanonicalBaseURL string `yaml:"canonical_base_url" env:"CANONICAL_BASE_URL"`
}

// CacheConfig wraps the Redis cache settings with an enable switch.
type CacheConfig struct {
	Enabled bool         `yaml:"enabled" env:"ENABLED"`
	Redis   cache.Config `yaml:"redis"`
	// TTL is how long cached generations live.
	TTL time.Duration `yaml:"ttl" env:"TTL"`
}

// ArchiveConfig controls run archival.
type ArchiveConfig struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	Path    string `yaml:"path" env:"PATH"`
}

// TelemetryConfig controls OTLP trace export.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled" env:"ENABLED"`
	ServiceName  string  `yaml:"service_name" env:"SERVICE_NAME"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	SampleRate   float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// LogConfig controls logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" env:"LEVEL"`
	// Format is "json" or "console".
	Format string `yaml:"format" env:"FORMAT"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Council: CouncilConfig{
			ConstructTimeout:   provider.DefaultConstructTimeout,
			HealthInterval:     5 * time.Minute,
			HealthProbeTimeout: 10 * time.Second,
		},
		Quality: QualityConfig{
			Organization: seo.Organization{Name: "Councilflow"},
		},
		Cache: CacheConfig{
			Redis: cache.DefaultConfig(),
			TTL:   time.Hour,
		},
		Archive: ArchiveConfig{
			Path: "councilflow.db",
		},
		Telemetry: TelemetryConfig{
			ServiceName:  "councilflow",
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
