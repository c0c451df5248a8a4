package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taylorfit/backend/internal/domain"
)

// fakeClock lets tests move time without sleeping
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newTestCache(t *testing.T) (*MemoryCache, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := NewMemoryCache()
	c.now = clock.Now
	t.Cleanup(func() { _ = c.Close() })
	return c, clock
}

func TestMemoryCache_SetAndGet(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   []byte
		ttl     time.Duration
		advance time.Duration
		wantErr error
	}{
		{
			name:  "store and retrieve payload",
			key:   "recommendation:a:b",
			value: []byte(`{"recommendation":{"size":"M"}}`),
			ttl:   time.Minute,
		},
		{
			name:  "empty payload is still a hit",
			key:   "empty",
			value: []byte{},
			ttl:   time.Minute,
		},
		{
			name:    "expired entry is a miss",
			key:     "expires",
			value:   []byte("x"),
			ttl:     time.Second,
			advance: 2 * time.Second,
			wantErr: domain.ErrCacheMiss,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, clock := newTestCache(t)
			ctx := context.Background()

			require.NoError(t, c.Set(ctx, tt.key, tt.value, tt.ttl))
			clock.Advance(tt.advance)

			got, err := c.Get(ctx, tt.key)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, string(tt.value), string(got))
		})
	}
}

func TestMemoryCache_Get_CacheMiss(t *testing.T) {
	c, _ := newTestCache(t)

	_, err := c.Get(context.Background(), "non-existent-key")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestMemoryCache_CopiesPayload(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	value := []byte("abc")
	require.NoError(t, c.Set(ctx, "k", value, time.Minute))
	value[0] = 'z'

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	got[1] = 'z'
	again, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}

func TestMemoryCache_Delete(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "delete-test", []byte("value"), time.Minute))
	require.NoError(t, c.Delete(ctx, "delete-test"))

	_, err := c.Get(ctx, "delete-test")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestMemoryCache_Exists(t *testing.T) {
	c, clock := newTestCache(t)
	ctx := context.Background()

	exists, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Second))
	exists, err = c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, exists)

	clock.Advance(2 * time.Second)
	exists, err = c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryCache_RemoveExpired(t *testing.T) {
	c, clock := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", []byte("1"), time.Second))
	require.NoError(t, c.Set(ctx, "long", []byte("2"), time.Hour))
	assert.Equal(t, 2, c.Size())

	clock.Advance(time.Minute)
	c.removeExpired()

	assert.Equal(t, 1, c.Size())
	_, err := c.Get(ctx, "long")
	assert.NoError(t, err)
}

func TestMemoryCache_Clear(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, c.Set(ctx, fmt.Sprintf("k%d", i), []byte("v"), time.Minute))
	}
	require.Equal(t, 5, c.Size())

	c.Clear()

	assert.Equal(t, 0, c.Size())
	_, err := c.Get(ctx, "k0")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestMemoryCache_CloseTwice(t *testing.T) {
	c := NewMemoryCache()
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}

func TestMemoryCache_Concurrent(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", id)
			assert.NoError(t, c.Set(ctx, key, []byte(key), time.Minute))
			got, err := c.Get(ctx, key)
			assert.NoError(t, err)
			assert.Equal(t, key, string(got))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, c.Size())
}
