package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/taylorfit/backend/internal/domain"
)

const (
	sourceEngine = "Engine"
	sourceCache  = "Cache"
)

// SizingServiceConfig holds configuration for the sizing service
type SizingServiceConfig struct {
	CacheTTL           time.Duration
	GarmentType        string
	Fallback           string
	EnableDebugLogging bool
}

// SizingService turns scraped size charts and stored shopper measurements into size recommendations.
// Flow: normalize chart -> resolve measurements -> check cache -> recommend -> cache -> return
type SizingService struct {
	cache       domain.CacheRepository
	client      domain.MeasurementsClient
	reader      domain.ChartFileReader
	normalizer  *ChartNormalizer
	engine      *RecommendationEngine
	fetches     singleflight.Group
	cacheTTL    time.Duration
	garmentType string
	logger      zerolog.Logger
}

// NewSizingService creates a new sizing service with dependencies.
// client and reader may be nil when the caller always supplies measurements or JSON charts.
func NewSizingService(
	cache domain.CacheRepository,
	client domain.MeasurementsClient,
	reader domain.ChartFileReader,
	logger zerolog.Logger,
	config SizingServiceConfig,
) *SizingService {
	classifier := NewMeasurementClassifier(logger, config.EnableDebugLogging)

	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 24 * time.Hour
	}

	garmentType := config.GarmentType
	if garmentType == "" {
		garmentType = "tshirt"
	}

	return &SizingService{
		cache:       cache,
		client:      client,
		reader:      reader,
		normalizer:  NewChartNormalizer(classifier, logger),
		engine:      NewRecommendationEngine(ParseFallbackStrategy(config.Fallback), logger, config.EnableDebugLogging),
		cacheTTL:    cacheTTL,
		garmentType: garmentType,
		logger:      logger,
	}
}

// NormalizeChart converts a raw chart to centimeters and classifies its columns
func (s *SizingService) NormalizeChart(ctx context.Context, raw *domain.RawSizeChart) (*domain.NormalizedSizeChart, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.normalizer.Normalize(raw)
}

// ImportChart reads an uploaded spreadsheet or CSV chart and normalizes it
func (s *SizingService) ImportChart(ctx context.Context, req *domain.ImportRequest) (*domain.NormalizedSizeChart, error) {
	if req == nil || req.Body == nil || req.Filename == "" {
		return nil, domain.ErrInvalidRequest
	}
	if s.reader == nil {
		return nil, fmt.Errorf("%w: chart import not configured", domain.ErrInvalidRequest)
	}

	raw, err := s.reader.ReadChart(req.Body, req.Filename, req.HeaderRow)
	if err != nil {
		return nil, err
	}
	if req.Title != "" {
		raw.Title = req.Title
	}
	return s.NormalizeChart(ctx, raw)
}

// Recommend returns the best-fitting size of the request's chart for the shopper.
// ErrNoMeasurements is returned when the shopper has no usable measurement at all.
func (s *SizingService) Recommend(ctx context.Context, req *domain.RecommendRequest) (*domain.RecommendResult, error) {
	if req == nil || req.Chart == nil {
		return nil, domain.ErrInvalidRequest
	}
	if err := req.Chart.Validate(); err != nil {
		return nil, err
	}

	user, err := s.resolveMeasurements(ctx, req)
	if err != nil {
		return nil, err
	}
	if user.Available() == 0 {
		return nil, domain.ErrNoMeasurements
	}

	cacheKey, err := s.generateCacheKey(req.Chart, user)
	if err != nil {
		return nil, err
	}

	if cached, err := s.getFromCache(ctx, cacheKey); err == nil {
		cached.Source = sourceCache
		return cached, nil
	}

	chart, err := s.NormalizeChart(ctx, req.Chart)
	if err != nil {
		return nil, err
	}

	rec := s.engine.Recommend(chart, user)
	if rec == nil {
		return nil, domain.ErrNoMeasurements
	}

	result := &domain.RecommendResult{
		Recommendation: rec,
		Report:         chart.Report,
		Warnings:       chart.Warnings,
		Source:         sourceEngine,
	}

	if !rec.Actionable {
		s.logger.Info().
			Str("chart", chart.Title).
			Int("matched_columns", chart.Report.MatchedCount).
			Msg("no size recommendation possible - no matching measurements found")
	}

	if err := s.setInCache(ctx, cacheKey, result); err != nil {
		s.logger.Warn().Err(err).Str("key", cacheKey).Msg("failed to cache recommendation")
	}

	return result, nil
}

// resolveMeasurements uses inline measurements when present, otherwise fetches them.
// Concurrent fetches for the same shopper and garment share one in-flight request.
func (s *SizingService) resolveMeasurements(ctx context.Context, req *domain.RecommendRequest) (domain.UserMeasurements, error) {
	if req.Measurements != nil {
		return domain.MeasurementsFromNullable(req.Measurements), nil
	}
	if s.client == nil {
		return nil, domain.ErrNoMeasurements
	}
	if req.Token == "" {
		return nil, domain.ErrUnauthorized
	}

	garmentType := req.GarmentType
	if garmentType == "" {
		garmentType = s.garmentType
	}

	// the shared fetch outlives any single caller; the client's timeout and retry limit still bound it
	fetchCtx := context.WithoutCancel(ctx)
	key := fmt.Sprintf("%016x:%s", xxhash.Sum64String(req.Token), garmentType)
	ch := s.fetches.DoChan(key, func() (interface{}, error) {
		stored, err := s.client.GetMeasurements(fetchCtx, req.Token, garmentType)
		if err != nil {
			return nil, err
		}
		return toCentimeters(stored), nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}

	user := res.Val.(domain.UserMeasurements)
	s.logger.Debug().
		Str("garment_type", garmentType).
		Int("available", user.Available()).
		Bool("shared", res.Shared).
		Msg("[SIZING] user measurements resolved")
	return user, nil
}

// toCentimeters converts a stored measurement document to centimeters
func toCentimeters(stored *domain.StoredMeasurements) domain.UserMeasurements {
	user := domain.MeasurementsFromNullable(stored.Measurements)
	unit := NormalizeUnit(stored.Unit)
	if unit == "" || unit == UnitCentimeters {
		return user
	}
	for id, v := range user {
		user[id] = Convert(domain.SingleValue(v), unit, UnitCentimeters).Lo
	}
	return user
}

// generateCacheKey fingerprints the raw chart and the measurements it is scored against.
// Format: "recommendation:{chart_hash}:{measurements_hash}"
func (s *SizingService) generateCacheKey(chart *domain.RawSizeChart, user domain.UserMeasurements) (string, error) {
	chartJSON, err := json.Marshal(chart)
	if err != nil {
		return "", fmt.Errorf("fingerprint chart: %w", err)
	}
	userJSON, err := json.Marshal(user)
	if err != nil {
		return "", fmt.Errorf("fingerprint measurements: %w", err)
	}
	return fmt.Sprintf("recommendation:%016x:%016x", xxhash.Sum64(chartJSON), xxhash.Sum64(userJSON)), nil
}

// getFromCache retrieves a cached recommendation
func (s *SizingService) getFromCache(ctx context.Context, key string) (*domain.RecommendResult, error) {
	if s.cache == nil {
		return nil, domain.ErrCacheMiss
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var result domain.RecommendResult
	if err := json.Unmarshal(data, &result); err != nil || result.Recommendation == nil {
		return nil, domain.ErrCacheMiss
	}
	return &result, nil
}

// setInCache stores a recommendation
func (s *SizingService) setInCache(ctx context.Context, key string, result *domain.RecommendResult) error {
	if s.cache == nil {
		return nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, key, data, s.cacheTTL)
}
