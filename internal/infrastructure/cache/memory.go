package cache

import (
	"context"
	"sync"
	"time"

	"github.com/taylorfit/backend/internal/domain"
)

// cleanupInterval is how often expired entries are swept
const cleanupInterval = 10 * time.Minute

// entry is a stored payload with its expiry
type entry struct {
	data      []byte
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// MemoryCache is a thread-safe in-process cache with TTL support.
// Values are copied on the way in and out so callers cannot mutate stored payloads.
type MemoryCache struct {
	entries map[string]entry
	mutex   sync.RWMutex
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

// NewMemoryCache creates a new in-memory cache and starts its expiry sweeper.
// Call Close to stop the sweeper.
func NewMemoryCache() *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]entry),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go c.sweep(cleanupInterval)
	return c
}

// Get retrieves a payload, returning domain.ErrCacheMiss when absent or expired
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mutex.RLock()
	e, ok := c.entries[key]
	c.mutex.RUnlock()

	if !ok || e.expired(c.now()) {
		return nil, domain.ErrCacheMiss
	}
	return append([]byte(nil), e.data...), nil
}

// Set stores a payload for ttl
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries[key] = entry{
		data:      append([]byte(nil), value...),
		expiresAt: c.now().Add(ttl),
	}
	return nil
}

// Delete removes a key
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.entries, key)
	return nil
}

// Exists checks if a key is present and not expired
func (c *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	e, ok := c.entries[key]
	return ok && !e.expired(c.now()), nil
}

// Size returns the number of stored entries, expired or not
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.entries)
}

// Clear removes every entry
func (c *MemoryCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries = make(map[string]entry)
}

// Close stops the expiry sweeper. It is safe to call more than once.
func (c *MemoryCache) Close() error {
	c.once.Do(func() { close(c.stop) })
	return nil
}

func (c *MemoryCache) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.removeExpired()
		}
	}
}

func (c *MemoryCache) removeExpired() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.now()
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
		}
	}
}
