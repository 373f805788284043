package data

import (
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/ducminhle1904/regime-backtest/pkg/types"
)

type cacheEntry struct {
	data      []types.OHLCV
	expiresAt time.Time
}

// MemoryCache implements Cache using in-memory storage with an optional
// TTL. A zero TTL keeps entries until Clear.
type MemoryCache struct {
	cache map[string]cacheEntry
	ttl   time.Duration
	mutex sync.RWMutex
}

// NewMemoryCache creates a new in-memory cache. ttl <= 0 disables expiry.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		cache: make(map[string]cacheEntry),
		ttl:   ttl,
	}
}

// Get retrieves data from cache if available and not expired
func (c *MemoryCache) Get(key string) ([]types.OHLCV, bool) {
	c.mutex.RLock()
	entry, exists := c.cache[key]
	c.mutex.RUnlock()

	if !exists {
		return nil, false
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		c.mutex.Lock()
		delete(c.cache, key)
		c.mutex.Unlock()
		return nil, false
	}

	// Return a copy to prevent external modifications
	result := make([]types.OHLCV, len(entry.data))
	copy(result, entry.data)
	return result, true
}

// Set stores data in cache
func (c *MemoryCache) Set(key string, data []types.OHLCV) {
	cached := make([]types.OHLCV, len(data))
	copy(cached, data)

	entry := cacheEntry{data: cached}
	if c.ttl > 0 {
		entry.expiresAt = time.Now().Add(c.ttl)
	}

	c.mutex.Lock()
	c.cache[key] = entry
	c.mutex.Unlock()
}

// Clear removes all cached data
func (c *MemoryCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.cache = make(map[string]cacheEntry)
}

// Size returns the number of cached entries
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.cache)
}

// CachedProvider wraps another Provider with caching functionality
type CachedProvider struct {
	provider Provider
	cache    Cache
}

// NewCachedProvider creates a cached data provider with the given TTL.
func NewCachedProvider(provider Provider, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		provider: provider,
		cache:    NewMemoryCache(ttl),
	}
}

// NewCachedProviderWithCache creates a cached data provider with a custom cache
func NewCachedProviderWithCache(provider Provider, cache Cache) *CachedProvider {
	return &CachedProvider{
		provider: provider,
		cache:    cache,
	}
}

// GetName returns the name of the underlying provider with cache indication
func (p *CachedProvider) GetName() string {
	return "Cached " + p.provider.GetName()
}

// LoadData loads data with caching to avoid re-reading the same file
func (p *CachedProvider) LoadData(source string) ([]types.OHLCV, error) {
	if cachedData, exists := p.cache.Get(source); exists {
		return cachedData, nil
	}

	data, err := p.provider.LoadData(source)
	if err != nil {
		return nil, err
	}

	p.cache.Set(source, data)
	log.Printf("loaded and cached %d bars from %s", len(data), filepath.Base(source))
	return data, nil
}

// ClearCache clears all cached data
func (p *CachedProvider) ClearCache() {
	p.cache.Clear()
}

// GetCacheSize returns the number of cached entries
func (p *CachedProvider) GetCacheSize() int {
	return p.cache.Size()
}
