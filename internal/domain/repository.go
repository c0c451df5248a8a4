package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations.
// Values are opaque serialized payloads so memory and redis backends behave the same.
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// MeasurementsClient fetches a shopper's stored measurements from the measurements service.
// The token is the shopper's bearer token, passed through untouched.
type MeasurementsClient interface {
	GetMeasurements(ctx context.Context, token, garmentType string) (*StoredMeasurements, error)
}
