// Package config provides configuration management for the reference engine.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Cache backend names.
const (
	// CacheBackendMemory keeps resolutions in a bounded in-process LRU.
	CacheBackendMemory = "memory"
	// CacheBackendSQLite persists resolutions across restarts.
	CacheBackendSQLite = "sqlite"
)

// Config holds all configuration for the reference engine.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// Cache contains resolution cache settings.
	Cache CacheConfig `mapstructure:"cache"`
	// Resolver contains resolution policy settings.
	Resolver ResolverConfig `mapstructure:"resolver"`
	// Providers contains metadata provider configurations.
	Providers ProvidersConfig `mapstructure:"providers"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// HTTPPort is the HTTP server port (default: 8080).
	HTTPPort int `mapstructure:"http_port" validate:"gte=1,lte=65535"`
	// MetricsPort is the metrics server port (default: 9091).
	MetricsPort int `mapstructure:"metrics_port" validate:"gte=1,lte=65535"`
	// ReadTimeout is the maximum duration for reading request body.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing response.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level" validate:"oneof=trace debug info warn warning error fatal panic"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for metrics endpoint.
	Path string `mapstructure:"path"`
	// Namespace is the metric name prefix.
	Namespace string `mapstructure:"namespace"`
}

// CacheConfig holds resolution cache configuration.
type CacheConfig struct {
	// Backend selects the cache implementation (memory, sqlite).
	Backend string `mapstructure:"backend" validate:"oneof=memory sqlite"`
	// Path is the SQLite database file (sqlite backend only).
	Path string `mapstructure:"path"`
	// Size is the maximum number of entries (memory backend only).
	Size int `mapstructure:"size" validate:"gte=0"`
	// PositiveTTL is how long successful resolutions stay cached.
	PositiveTTL time.Duration `mapstructure:"positive_ttl" validate:"gt=0"`
	// NegativeTTL is how long resolution failures stay cached.
	NegativeTTL time.Duration `mapstructure:"negative_ttl" validate:"gt=0"`
}

// ResolverConfig holds resolution policy configuration.
type ResolverConfig struct {
	// ProviderTimeout bounds a single provider call.
	ProviderTimeout time.Duration `mapstructure:"provider_timeout" validate:"gt=0"`
	// MaxConcurrent bounds concurrent provider work per batch.
	MaxConcurrent int `mapstructure:"max_concurrent" validate:"gte=1"`
	// BreakerThreshold is consecutive failures before a scheme's circuit opens.
	BreakerThreshold int `mapstructure:"breaker_threshold" validate:"gte=1"`
	// BreakerCooldown is the initial open-circuit cooldown.
	BreakerCooldown time.Duration `mapstructure:"breaker_cooldown" validate:"gt=0"`
}

// ProvidersConfig holds configuration for all metadata providers.
type ProvidersConfig struct {
	// ArXiv contains arXiv export API settings.
	ArXiv ProviderConfig `mapstructure:"arxiv"`
	// Crossref contains Crossref works API settings (DOI scheme).
	Crossref ProviderConfig `mapstructure:"crossref"`
	// IEEE contains IEEE Xplore metadata API settings.
	IEEE ProviderConfig `mapstructure:"ieee"`
	// SemanticScholar contains Semantic Scholar Graph API settings.
	SemanticScholar ProviderConfig `mapstructure:"semantic_scholar"`
	// Scholar contains Google Scholar (local resolution) settings.
	Scholar ProviderConfig `mapstructure:"scholar"`
	// MailTo is included in the Crossref User-Agent to join the polite pool.
	MailTo string `mapstructure:"mailto"`
}

// ProviderConfig holds configuration for a single metadata provider.
type ProviderConfig struct {
	// Enabled controls whether this provider is used.
	Enabled bool `mapstructure:"enabled"`
	// APIKey is the API key (loaded from environment variable, e.g.
	// DEVSCHOLAR_PROVIDERS_IEEE_API_KEY).
	APIKey string `mapstructure:"-"`
	// BaseURL is the API base URL.
	BaseURL string `mapstructure:"base_url"`
	// Timeout is the timeout for API calls.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second.
	RateLimit float64 `mapstructure:"rate_limit" validate:"gte=0"`
	// BurstSize is the maximum burst of requests allowed.
	BurstSize int `mapstructure:"burst_size" validate:"gte=0"`
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// MetricsAddress returns the metrics server address.
func (c *ServerConfig) MetricsAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.MetricsPort)
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read from environment variables
	v.SetEnvPrefix("DEVSCHOLAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file if present
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/devscholar")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use env vars and defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)

	// Load secrets exclusively from environment variables.
	// These fields use mapstructure:"-" to prevent loading from config files.
	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadSecrets populates secret fields exclusively from environment variables.
// These fields are tagged with mapstructure:"-" to prevent loading from config files.
func loadSecrets(cfg *Config) {
	cfg.Providers.IEEE.APIKey = os.Getenv("DEVSCHOLAR_PROVIDERS_IEEE_API_KEY")
	cfg.Providers.SemanticScholar.APIKey = os.Getenv("DEVSCHOLAR_PROVIDERS_SEMANTIC_SCHOLAR_API_KEY")
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.metrics_port", 9091)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.namespace", "devscholar")

	// Cache defaults
	v.SetDefault("cache.backend", CacheBackendMemory)
	v.SetDefault("cache.path", "devscholar-cache.db")
	v.SetDefault("cache.size", 4096)
	v.SetDefault("cache.positive_ttl", "168h")
	v.SetDefault("cache.negative_ttl", "15m")

	// Resolver defaults
	v.SetDefault("resolver.provider_timeout", "10s")
	v.SetDefault("resolver.max_concurrent", 8)
	v.SetDefault("resolver.breaker_threshold", 5)
	v.SetDefault("resolver.breaker_cooldown", "60s")

	// Provider defaults - arXiv
	// API keys are loaded exclusively from environment variables (see loadSecrets).
	v.SetDefault("providers.arxiv.enabled", true)
	v.SetDefault("providers.arxiv.base_url", "https://export.arxiv.org/api")
	v.SetDefault("providers.arxiv.timeout", "15s")
	v.SetDefault("providers.arxiv.rate_limit", 1.0) // arXiv asks for gentle API use
	v.SetDefault("providers.arxiv.burst_size", 3)

	// Provider defaults - Crossref (DOI)
	v.SetDefault("providers.crossref.enabled", true)
	v.SetDefault("providers.crossref.base_url", "https://api.crossref.org")
	v.SetDefault("providers.crossref.timeout", "15s")
	v.SetDefault("providers.crossref.rate_limit", 5.0)
	v.SetDefault("providers.crossref.burst_size", 5)
	v.SetDefault("providers.mailto", "")

	// Provider defaults - IEEE Xplore (disabled by default, requires API key)
	v.SetDefault("providers.ieee.enabled", false)
	v.SetDefault("providers.ieee.base_url", "https://ieeexploreapi.ieee.org/api/v1")
	v.SetDefault("providers.ieee.timeout", "15s")
	v.SetDefault("providers.ieee.rate_limit", 2.0)
	v.SetDefault("providers.ieee.burst_size", 2)

	// Provider defaults - Semantic Scholar
	v.SetDefault("providers.semantic_scholar.enabled", true)
	v.SetDefault("providers.semantic_scholar.base_url", "https://api.semanticscholar.org/graph/v1")
	v.SetDefault("providers.semantic_scholar.timeout", "15s")
	v.SetDefault("providers.semantic_scholar.rate_limit", 1.0) // unauthenticated shared pool allowance
	v.SetDefault("providers.semantic_scholar.burst_size", 3)

	// Provider defaults - Google Scholar (local resolution, no network)
	v.SetDefault("providers.scholar.enabled", true)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}

	if c.Cache.Backend == CacheBackendSQLite && c.Cache.Path == "" {
		return fmt.Errorf("cache path is required for the sqlite backend")
	}
	if c.Cache.NegativeTTL > c.Cache.PositiveTTL {
		return fmt.Errorf("negative_ttl (%s) must not exceed positive_ttl (%s)", c.Cache.NegativeTTL, c.Cache.PositiveTTL)
	}

	return nil
}
