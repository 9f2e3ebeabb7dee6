package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryCache keeps entries in process with a TTL. Used when no Redis is configured.
type MemoryCache struct {
	entries map[string]memoryEntry
	mu      sync.RWMutex
	now     func() time.Time
	stop    chan struct{}
	closed  bool
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryCache starts a background sweep every cleanupInterval (disabled when <= 0).
func NewMemoryCache(cleanupInterval time.Duration) *MemoryCache {
	mc := &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go mc.cleanupLoop(cleanupInterval)
	}
	return mc
}

func (mc *MemoryCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	if key == "" {
		return ErrInvalidKey
	}
	raw, err := encode(value)
	if err != nil {
		return err
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()
	if mc.closed {
		return ErrClosed
	}
	mc.entries[key] = memoryEntry{value: raw, expiresAt: mc.now().Add(ttlOrDefault(ttl))}
	return nil
}

func (mc *MemoryCache) Get(_ context.Context, key string, value interface{}) error {
	mc.mu.RLock()
	entry, ok := mc.entries[key]
	closed := mc.closed
	mc.mu.RUnlock()

	if closed {
		return ErrClosed
	}
	if !ok || mc.now().After(entry.expiresAt) {
		return ErrNotFound
	}
	return decode(entry.value, value)
}

func (mc *MemoryCache) Delete(_ context.Context, key string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	delete(mc.entries, key)
	return nil
}

func (mc *MemoryCache) Close() error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	if !mc.closed {
		mc.closed = true
		close(mc.stop)
	}
	return nil
}

// Size returns the number of stored entries, expired ones included until swept.
func (mc *MemoryCache) Size() int {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return len(mc.entries)
}

func (mc *MemoryCache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-mc.stop:
			return
		case <-ticker.C:
			mc.cleanup()
		}
	}
}

func (mc *MemoryCache) cleanup() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	now := mc.now()
	for key, entry := range mc.entries {
		if now.After(entry.expiresAt) {
			delete(mc.entries, key)
		}
	}
}
