package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Measurements MeasurementsConfig `mapstructure:"measurements"`
	Cache        CacheConfig        `mapstructure:"cache"`
	RateLimit    RateLimitConfig    `mapstructure:"ratelimit"`
	Log          LogConfig          `mapstructure:"log"`
	Matching     MatchingConfig     `mapstructure:"matching"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// MeasurementsConfig points at the service that stores shopper measurements
type MeasurementsConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	GarmentType string        `mapstructure:"garment_type"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP        int     `mapstructure:"per_ip"`       // requests per minute per client
	Measurements float64 `mapstructure:"measurements"` // requests per second to the measurements service
}

// LogConfig controls the zerolog output
type LogConfig struct {
	Level   string `mapstructure:"level"`
	File    string `mapstructure:"file"`
	Console bool   `mapstructure:"console"`
}

// MatchingConfig tunes classification and recommendation
type MatchingConfig struct {
	Fallback           string `mapstructure:"fallback"` // "chest_around" or "none"
	EnableDebugLogging bool   `mapstructure:"enable_debug_logging"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/taylor/")

	// TAYLOR_CACHE_REDIS_URL -> cache.redis_url
	v.SetEnvPrefix("TAYLOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
// Every key needs a default so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"chrome-extension://*"})

	v.SetDefault("measurements.base_url", "http://localhost:3001")
	v.SetDefault("measurements.garment_type", "tshirt")
	v.SetDefault("measurements.timeout", "10s")

	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "24h")

	v.SetDefault("ratelimit.per_ip", 100)
	v.SetDefault("ratelimit.measurements", 5)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "logs/taylor.log")
	v.SetDefault("log.console", true)

	v.SetDefault("matching.fallback", "chest_around")
	v.SetDefault("matching.enable_debug_logging", false)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Server.Port == "" {
		return fmt.Errorf("server port is required (set TAYLOR_SERVER_PORT)")
	}

	if config.Measurements.BaseURL == "" {
		return fmt.Errorf("measurements base URL is required (set TAYLOR_MEASUREMENTS_BASE_URL)")
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	if config.Matching.Fallback != "chest_around" && config.Matching.Fallback != "none" {
		return fmt.Errorf("matching fallback must be 'chest_around' or 'none', got: %s", config.Matching.Fallback)
	}

	if config.Log.Level != "" {
		if _, err := zerolog.ParseLevel(config.Log.Level); err != nil {
			return fmt.Errorf("invalid log level %q: %w", config.Log.Level, err)
		}
	}

	return nil
}

// loadEnvFile reads KEY=VALUE pairs from ./.env into the process environment.
// Variables that are already set win. A missing file is not an error.
func loadEnvFile() error {
	f, err := os.Open(".env")
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return err
		}
	}
	return scanner.Err()
}
