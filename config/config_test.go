package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test from an empty directory so no stray config.yaml or .env is picked up
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoad(t *testing.T) {
	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		isolate(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "8080", cfg.Server.Port)
		assert.Equal(t, "development", cfg.Server.Environment)
		assert.Equal(t, []string{"chrome-extension://*"}, cfg.Server.AllowedOrigins)
		assert.Equal(t, "http://localhost:3001", cfg.Measurements.BaseURL)
		assert.Equal(t, "tshirt", cfg.Measurements.GarmentType)
		assert.Equal(t, 10*time.Second, cfg.Measurements.Timeout)
		assert.Equal(t, "memory", cfg.Cache.Type)
		assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
		assert.Equal(t, 100, cfg.RateLimit.PerIP)
		assert.Equal(t, 5.0, cfg.RateLimit.Measurements)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.Equal(t, "logs/taylor.log", cfg.Log.File)
		assert.True(t, cfg.Log.Console)
		assert.Equal(t, "chest_around", cfg.Matching.Fallback)
		assert.False(t, cfg.Matching.EnableDebugLogging)
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		isolate(t)
		t.Setenv("TAYLOR_SERVER_PORT", "9090")
		t.Setenv("TAYLOR_SERVER_ENVIRONMENT", "production")
		t.Setenv("TAYLOR_MEASUREMENTS_BASE_URL", "https://measure.example.com")
		t.Setenv("TAYLOR_MEASUREMENTS_GARMENT_TYPE", "hoodie")
		t.Setenv("TAYLOR_CACHE_TYPE", "redis")
		t.Setenv("TAYLOR_CACHE_REDIS_URL", "redis://localhost:6379")
		t.Setenv("TAYLOR_CACHE_TTL", "1h")
		t.Setenv("TAYLOR_RATELIMIT_PER_IP", "200")
		t.Setenv("TAYLOR_RATELIMIT_MEASUREMENTS", "2.5")
		t.Setenv("TAYLOR_LOG_LEVEL", "debug")
		t.Setenv("TAYLOR_MATCHING_FALLBACK", "none")
		t.Setenv("TAYLOR_MATCHING_ENABLE_DEBUG_LOGGING", "true")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9090", cfg.Server.Port)
		assert.Equal(t, "production", cfg.Server.Environment)
		assert.Equal(t, "https://measure.example.com", cfg.Measurements.BaseURL)
		assert.Equal(t, "hoodie", cfg.Measurements.GarmentType)
		assert.Equal(t, "redis", cfg.Cache.Type)
		assert.Equal(t, "redis://localhost:6379", cfg.Cache.RedisURL)
		assert.Equal(t, time.Hour, cfg.Cache.TTL)
		assert.Equal(t, 200, cfg.RateLimit.PerIP)
		assert.Equal(t, 2.5, cfg.RateLimit.Measurements)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.Equal(t, "none", cfg.Matching.Fallback)
		assert.True(t, cfg.Matching.EnableDebugLogging)
	})

	t.Run("reads config.yaml", func(t *testing.T) {
		dir := isolate(t)
		yaml := "server:\n  port: \"7000\"\ncache:\n  ttl: 2h\nmatching:\n  fallback: none\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "7000", cfg.Server.Port)
		assert.Equal(t, 2*time.Hour, cfg.Cache.TTL)
		assert.Equal(t, "none", cfg.Matching.Fallback)
	})

	t.Run("fails validation for invalid cache type", func(t *testing.T) {
		isolate(t)
		t.Setenv("TAYLOR_CACHE_TYPE", "invalid")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("fails validation when redis URL missing for redis cache", func(t *testing.T) {
		isolate(t)
		t.Setenv("TAYLOR_CACHE_TYPE", "redis")

		_, err := Load()
		require.Error(t, err)
		assert.Equal(t, "invalid configuration: Redis URL is required when cache type is 'redis'", err.Error())
	})
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("returns nil when .env file doesn't exist", func(t *testing.T) {
		isolate(t)
		assert.NoError(t, loadEnvFile())
	})

	t.Run("loads variables and skips comments", func(t *testing.T) {
		dir := isolate(t)
		envContent := `
# Comment line
TAYLOR_TEST_VAR_1=value1
   # indented comment

TAYLOR_TEST_VAR_2="quoted value"
# TAYLOR_TEST_COMMENTED=should_not_load
not-a-pair
`
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(envContent), 0o644))
		// registers cleanup for the variables loadEnvFile sets
		t.Setenv("TAYLOR_TEST_VAR_1", "")
		t.Setenv("TAYLOR_TEST_VAR_2", "")
		os.Unsetenv("TAYLOR_TEST_VAR_1")
		os.Unsetenv("TAYLOR_TEST_VAR_2")

		require.NoError(t, loadEnvFile())

		assert.Equal(t, "value1", os.Getenv("TAYLOR_TEST_VAR_1"))
		assert.Equal(t, "quoted value", os.Getenv("TAYLOR_TEST_VAR_2"))
		_, set := os.LookupEnv("TAYLOR_TEST_COMMENTED")
		assert.False(t, set)
	})

	t.Run("doesn't override existing environment variables", func(t *testing.T) {
		dir := isolate(t)
		t.Setenv("TAYLOR_TEST_OVERRIDE", "existing-value")
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TAYLOR_TEST_OVERRIDE=new-value"), 0o644))

		require.NoError(t, loadEnvFile())

		assert.Equal(t, "existing-value", os.Getenv("TAYLOR_TEST_OVERRIDE"))
	})

	t.Run("feeds Load", func(t *testing.T) {
		dir := isolate(t)
		t.Setenv("TAYLOR_SERVER_PORT", "")
		os.Unsetenv("TAYLOR_SERVER_PORT")
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TAYLOR_SERVER_PORT=6060\n"), 0o644))

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "6060", cfg.Server.Port)
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:       ServerConfig{Port: "8080"},
			Measurements: MeasurementsConfig{BaseURL: "http://localhost:3001"},
			Cache:        CacheConfig{Type: "memory"},
			Log:          LogConfig{Level: "info"},
			Matching:     MatchingConfig{Fallback: "chest_around"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid memory config", func(*Config) {}, false},
		{"valid redis config", func(c *Config) { c.Cache = CacheConfig{Type: "redis", RedisURL: "redis://localhost:6379"} }, false},
		{"missing port", func(c *Config) { c.Server.Port = "" }, true},
		{"missing measurements URL", func(c *Config) { c.Measurements.BaseURL = "" }, true},
		{"invalid cache type", func(c *Config) { c.Cache.Type = "invalid-type" }, true},
		{"redis without URL", func(c *Config) { c.Cache.Type = "redis" }, true},
		{"unknown fallback", func(c *Config) { c.Matching.Fallback = "closest" }, true},
		{"unknown log level", func(c *Config) { c.Log.Level = "loud" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := validate(cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSetupLogger(t *testing.T) {
	file := filepath.Join(t.TempDir(), "nested", "taylor.log")

	logger := SetupLogger(LogConfig{Level: "info", File: file})
	logger.Info().Str("size", "M").Msg("recommendation served")
	logger.Debug().Msg("hidden")

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"recommendation served"`)
	assert.Contains(t, string(data), `"size":"M"`)
	assert.NotContains(t, string(data), "hidden")
}
