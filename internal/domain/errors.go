package domain

import "errors"

var (
	// ErrParse is returned when a chart cell contains no numeric token
	ErrParse = errors.New("no numeric value found")

	// ErrInvalidChart is returned when a raw size chart is structurally unusable
	ErrInvalidChart = errors.New("invalid size chart")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrNoMeasurements is returned when the shopper has no stored measurements
	ErrNoMeasurements = errors.New("no user measurements available")

	// ErrUnauthorized is returned when the measurements service rejects the shopper's token
	ErrUnauthorized = errors.New("unauthorized")

	// ErrMeasurementsServiceFailure is returned when the measurements service request fails
	ErrMeasurementsServiceFailure = errors.New("measurements service request failed")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrUnsupportedFile is returned when an uploaded chart file has an unknown format
	ErrUnsupportedFile = errors.New("unsupported chart file")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")
)
