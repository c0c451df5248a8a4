package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taylorfit/backend/internal/domain"
)

func TestNewRedisCache_InvalidURL(t *testing.T) {
	_, err := NewRedisCache("not a url")
	assert.Error(t, err)
}

func TestRedisCache_Unreachable(t *testing.T) {
	// nothing listens on port 1
	c, err := NewRedisCache("redis://127.0.0.1:1/0?dial_timeout=200ms&max_retries=-1")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, domain.ErrCacheUnavailable)
	assert.NotErrorIs(t, err, domain.ErrCacheMiss)

	err = c.Set(ctx, "k", []byte("v"), time.Minute)
	assert.ErrorIs(t, err, domain.ErrCacheUnavailable)

	assert.ErrorIs(t, c.Ping(ctx), domain.ErrCacheUnavailable)
}
