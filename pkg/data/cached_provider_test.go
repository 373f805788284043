package data

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/regime-backtest/pkg/types"
)

// countingProvider records how many times the underlying source is read.
type countingProvider struct {
	data  []types.OHLCV
	calls int
}

func (p *countingProvider) LoadData(source string) ([]types.OHLCV, error) {
	p.calls++
	return p.data, nil
}

func (p *countingProvider) GetName() string { return "Counting Provider" }

func sampleBars(n int) []types.OHLCV {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]types.OHLCV, n)
	for i := range bars {
		price := 100 + float64(i)
		bars[i] = types.OHLCV{
			Open: price, High: price, Low: price, Close: price, Volume: 1000,
			Timestamp: start.Add(time.Duration(i) * time.Hour),
		}
	}
	return bars
}

// TestCachedProvider_HitsCache tests that a second load of the same
// source does not touch the underlying provider
func TestCachedProvider_HitsCache(t *testing.T) {
	underlying := &countingProvider{data: sampleBars(5)}
	provider := NewCachedProvider(underlying, time.Minute)

	first, err := provider.LoadData("series.csv")
	require.NoError(t, err)
	second, err := provider.LoadData("series.csv")
	require.NoError(t, err)

	assert.Equal(t, 1, underlying.calls)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, provider.GetCacheSize())
}

// TestCachedProvider_ClearCache tests that clearing forces a reload
func TestCachedProvider_ClearCache(t *testing.T) {
	underlying := &countingProvider{data: sampleBars(3)}
	provider := NewCachedProvider(underlying, time.Minute)

	_, err := provider.LoadData("series.csv")
	require.NoError(t, err)
	provider.ClearCache()
	_, err = provider.LoadData("series.csv")
	require.NoError(t, err)

	assert.Equal(t, 2, underlying.calls)
}

// TestMemoryCache_TTLExpiry tests that entries disappear after the TTL
func TestMemoryCache_TTLExpiry(t *testing.T) {
	cache := NewMemoryCache(10 * time.Millisecond)
	cache.Set("key", sampleBars(2))

	_, ok := cache.Get("key")
	assert.True(t, ok)

	time.Sleep(25 * time.Millisecond)

	_, ok = cache.Get("key")
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Size())
}

// TestMemoryCache_ZeroTTLNeverExpires tests that a zero TTL keeps
// entries until Clear
func TestMemoryCache_ZeroTTLNeverExpires(t *testing.T) {
	cache := NewMemoryCache(0)
	cache.Set("key", sampleBars(2))

	time.Sleep(5 * time.Millisecond)

	_, ok := cache.Get("key")
	assert.True(t, ok)

	cache.Clear()
	_, ok = cache.Get("key")
	assert.False(t, ok)
}

// TestMemoryCache_CopyOnGetAndSet tests that callers cannot mutate
// cached data through the slices they hold
func TestMemoryCache_CopyOnGetAndSet(t *testing.T) {
	original := sampleBars(2)
	cache := NewMemoryCache(0)
	cache.Set("key", original)

	original[0].Close = -1

	got, ok := cache.Get("key")
	require.True(t, ok)
	assert.Equal(t, 100.0, got[0].Close, "cache must not share the caller's backing array")

	got[1].Close = -2
	again, ok := cache.Get("key")
	require.True(t, ok)
	assert.Equal(t, 101.0, again[1].Close, "returned slices must not alias the cache")
}
