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

	"github.com/rs/zerolog"

	"github.com/taylorfit/backend/config"
	httpDelivery "github.com/taylorfit/backend/internal/delivery/http"
	"github.com/taylorfit/backend/internal/domain"
	"github.com/taylorfit/backend/internal/infrastructure/cache"
	"github.com/taylorfit/backend/internal/infrastructure/chartfile"
	"github.com/taylorfit/backend/internal/infrastructure/measurements"
	"github.com/taylorfit/backend/internal/usecase"
)

// closableCache is a cache repository that owns background resources
type closableCache interface {
	domain.CacheRepository
	Close() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := config.SetupLogger(cfg.Log)
	logger.Info().
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Str("cache", cfg.Cache.Type).
		Dur("cache_ttl", cfg.Cache.TTL).
		Msg("starting Taylor backend v1.0.0")

	store, err := newCache(cfg.Cache, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("cache setup failed")
	}
	defer store.Close()

	client := measurements.NewClient(measurements.ClientConfig{
		BaseURL:           cfg.Measurements.BaseURL,
		Timeout:           cfg.Measurements.Timeout,
		RequestsPerSecond: cfg.RateLimit.Measurements,
	}, logger)
	if cfg.Server.Environment == "development" {
		client.SetDebug(true)
	}
	logger.Info().Str("base_url", cfg.Measurements.BaseURL).Msg("measurements service configured")

	sizingService := usecase.NewSizingService(
		store,
		client,
		chartfile.NewReader(logger),
		logger,
		usecase.SizingServiceConfig{
			CacheTTL:           cfg.Cache.TTL,
			GarmentType:        cfg.Measurements.GarmentType,
			Fallback:           cfg.Matching.Fallback,
			EnableDebugLogging: cfg.Matching.EnableDebugLogging,
		},
	)
	logger.Info().
		Str("fallback", cfg.Matching.Fallback).
		Bool("debug", cfg.Matching.EnableDebugLogging).
		Msg("matching configured")

	handler := httpDelivery.NewHandler(sizingService, logger)
	router := httpDelivery.SetupRouter(cfg, handler, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("listen")
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("server shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
	logger.Info().Msg("bye")
}

// newCache builds the configured cache backend
func newCache(cfg config.CacheConfig, logger zerolog.Logger) (closableCache, error) {
	if cfg.Type != "redis" {
		return cache.NewMemoryCache(), nil
	}

	rc, err := cache.NewRedisCache(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		// recommendations still work uncached; the service logs failed writes
		logger.Warn().Err(err).Msg("redis unreachable at startup")
	}
	return rc, nil
}
