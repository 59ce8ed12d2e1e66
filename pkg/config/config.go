package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Log configuration
	Log LogConfig `mapstructure:"log"`

	// Database configuration
	Database DatabaseConfig `mapstructure:"database"`

	// Oracle (LLM) configuration
	Oracle OracleConfig `mapstructure:"oracle"`

	// Content directory layout
	Content ContentConfig `mapstructure:"content"`

	// Telemetry configuration
	Telemetry TelemetryConfig `mapstructure:"telemetry"`

	// Cache configuration
	Cache CacheConfig `mapstructure:"cache"`

	// CircuitBreaker configuration
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DatabaseConfig holds graph database connection configuration
type DatabaseConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// OracleConfig holds configuration for the LLM extraction/query oracle
type OracleConfig struct {
	Provider    string  `mapstructure:"provider"` // openai or openai-compatible
	Model       string  `mapstructure:"model"`
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Temperature float32 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	MaxRetries  int     `mapstructure:"max_retries"`
}

// ContentConfig holds the writing content directory layout
type ContentConfig struct {
	// BaseDir is the root content directory; drafts live under
	// BaseDir/drafts and organized files under per-type subdirectories.
	BaseDir string `mapstructure:"base_dir"`
}

// TelemetryConfig holds telemetry configuration
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ParquetPath string `mapstructure:"parquet_path"`
}

// CacheConfig holds extraction cache configuration
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// CircuitBreakerConfig holds configuration for circuit breaking around
// oracle calls
type CircuitBreakerConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	MaxRequests      uint32  `mapstructure:"max_requests"`
	Interval         int     `mapstructure:"interval"` // in seconds
	Timeout          int     `mapstructure:"timeout"`  // in seconds
	ReadyToTripRatio float64 `mapstructure:"ready_to_trip_ratio"`
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	setDefaults()

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	overrideWithEnv(config)

	return config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")

	// Database defaults
	viper.SetDefault("database.uri", "bolt://localhost:7687")
	viper.SetDefault("database.username", "neo4j")
	viper.SetDefault("database.password", "password")
	viper.SetDefault("database.database", "neo4j")

	// Oracle defaults: extraction runs near-deterministic
	viper.SetDefault("oracle.provider", "openai")
	viper.SetDefault("oracle.model", "gpt-4o")
	viper.SetDefault("oracle.temperature", 0.1)
	viper.SetDefault("oracle.max_tokens", 4096)
	viper.SetDefault("oracle.max_retries", 3)

	// Content defaults
	viper.SetDefault("content.base_dir", "content")

	// Circuit breaker defaults
	viper.SetDefault("circuit_breaker.enabled", true)
	viper.SetDefault("circuit_breaker.max_requests", 1)
	viper.SetDefault("circuit_breaker.interval", 60)
	viper.SetDefault("circuit_breaker.timeout", 120)
	viper.SetDefault("circuit_breaker.ready_to_trip_ratio", 0.6)

	// Telemetry and cache live under the user's data directory
	home, err := os.UserHomeDir()
	if err == nil {
		viper.SetDefault("telemetry.parquet_path", filepath.Join(home, ".inklore", "telemetry"))
		viper.SetDefault("cache.path", filepath.Join(home, ".inklore", "cache"))
	}
}

// overrideWithEnv overrides config with environment variables
func overrideWithEnv(config *Config) {
	if uri := os.Getenv("NEO4J_URI"); uri != "" {
		config.Database.URI = uri
	}
	if user := os.Getenv("NEO4J_USERNAME"); user != "" {
		config.Database.Username = user
	}
	if pass := os.Getenv("NEO4J_PASSWORD"); pass != "" {
		config.Database.Password = pass
	}
	if db := os.Getenv("NEO4J_DATABASE"); db != "" {
		config.Database.Database = db
	}

	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.Oracle.APIKey = apiKey
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		config.Oracle.BaseURL = baseURL
	}
	if model := os.Getenv("INKLORE_MODEL"); model != "" {
		config.Oracle.Model = model
	}

	if dir := os.Getenv("INKLORE_CONTENT_DIR"); dir != "" {
		config.Content.BaseDir = dir
	}

	if path := os.Getenv("INKLORE_TELEMETRY_PATH"); path != "" {
		config.Telemetry.ParquetPath = path
	}
	if path := os.Getenv("INKLORE_CACHE_PATH"); path != "" {
		config.Cache.Path = path
	}
}
