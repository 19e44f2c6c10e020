package cache

import (
	"context"
	"sync"
	"time"
)

type memoryItem struct {
	value    []byte
	expireAt time.Time
}

func (m *memoryItem) expired() bool {
	return time.Now().After(m.expireAt)
}

// MemoryCache implements Service with in-process storage. Good enough for a
// single batch run; expired entries are dropped on access.
type MemoryCache struct {
	mu         sync.RWMutex
	data       map[string]*memoryItem
	defaultTTL time.Duration
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		data:       make(map[string]*memoryItem),
		defaultTTL: time.Hour,
	}
}

func (mc *MemoryCache) Set(_ context.Context, key string, value any, expiration time.Duration) error {
	raw, err := encode(value)
	if err != nil {
		return err
	}
	if expiration <= 0 {
		expiration = mc.defaultTTL
	}
	mc.mu.Lock()
	mc.data[key] = &memoryItem{value: raw, expireAt: time.Now().Add(expiration)}
	mc.mu.Unlock()
	return nil
}

func (mc *MemoryCache) Get(_ context.Context, key string, dest any) error {
	mc.mu.Lock()
	item, ok := mc.data[key]
	if ok && item.expired() {
		delete(mc.data, key)
		ok = false
	}
	mc.mu.Unlock()
	if !ok {
		return ErrCacheMiss
	}
	return decode(item.value, dest)
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	mc.mu.Lock()
	for _, key := range keys {
		delete(mc.data, key)
	}
	mc.mu.Unlock()
	return nil
}

func (mc *MemoryCache) Exists(_ context.Context, keys ...string) (bool, error) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	for _, key := range keys {
		item, ok := mc.data[key]
		if !ok || item.expired() {
			return false, nil
		}
	}
	return true, nil
}

var _ Service = (*MemoryCache)(nil)
