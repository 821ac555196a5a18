package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acedatacloud/dashsnap/internal/domain"
)

// TestDefaultOptions tests default options
func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	assert.Empty(t, opts.Directory)
	assert.False(t, opts.InMemory)
	assert.False(t, opts.Logger)
}

// TestGenerateKey tests cache key generation
func TestGenerateKey(t *testing.T) {
	tests := []struct {
		name  string
		id    string
		check func(t *testing.T, key string)
	}{
		{
			name: "generates consistent keys for same identifier",
			id:   "https://swap-api.pump.fun/v1/creators/abc/fees",
			check: func(t *testing.T, key string) {
				key2 := GenerateKey("https://swap-api.pump.fun/v1/creators/abc/fees")
				assert.Equal(t, key, key2)
			},
		},
		{
			name: "generates different keys for different identifiers",
			id:   "allowlist/orgA",
			check: func(t *testing.T, key string) {
				key2 := GenerateKey("allowlist/orgB")
				assert.NotEqual(t, key, key2)
			},
		},
		{
			name: "key length is 64 characters (SHA256 hex)",
			id:   "solana/usd",
			check: func(t *testing.T, key string) {
				assert.Equal(t, 64, len(key))
			},
		},
		{
			name: "handles invalid URL gracefully",
			id:   ":not-a-url",
			check: func(t *testing.T, key string) {
				assert.NotEmpty(t, key)
				assert.Equal(t, 64, len(key))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := GenerateKey(tt.id)
			if tt.check != nil {
				tt.check(t, key)
			}
		})
	}
}

// TestGenerateKeyWithPrefix tests key generation with prefix
func TestGenerateKeyWithPrefix(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		id     string
		check  func(t *testing.T, key string)
	}{
		{
			name:   "adds prefix to key",
			prefix: "fees",
			id:     "abc/hourly",
			check: func(t *testing.T, key string) {
				assert.True(t, len(key) > 65)
				assert.Contains(t, key, "fees:")
			},
		},
		{
			name:   "different prefixes create different keys",
			prefix: "price",
			id:     "abc/hourly",
			check: func(t *testing.T, key string) {
				feesKey := GenerateKeyWithPrefix("fees", "abc/hourly")
				assert.NotEqual(t, key, feesKey)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := GenerateKeyWithPrefix(tt.prefix, tt.id)
			if tt.check != nil {
				tt.check(t, key)
			}
		})
	}
}

// TestNormalizeForKey tests identifier normalization
func TestNormalizeForKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "normalizes URL host to lowercase",
			input:    "https://API.COINGECKO.COM/api/v3/simple/price",
			expected: "https://api.coingecko.com/api/v3/simple/price",
		},
		{
			name:     "removes trailing slash",
			input:    "https://swap-api.pump.fun/v1/fees/",
			expected: "https://swap-api.pump.fun/v1/fees",
		},
		{
			name:     "keeps root slash",
			input:    "https://pump.fun/",
			expected: "https://pump.fun/",
		},
		{
			name:     "removes fragment",
			input:    "https://pump.fun/fees#section",
			expected: "https://pump.fun/fees",
		},
		{
			name:     "cleans path",
			input:    "https://pump.fun/./fees/../price",
			expected: "https://pump.fun/price",
		},
		{
			name:     "trims whitespace",
			input:    "  solana/usd  ",
			expected: "solana/usd",
		},
		{
			name:     "preserves case of opaque identifiers",
			input:    "6hVavSsYRaNk86UbNZa6V4JfSwqkRGk9HgYZqKNsdU1w/hourly",
			expected: "6hVavSsYRaNk86UbNZa6V4JfSwqkRGk9HgYZqKNsdU1w/hourly",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := normalizeForKey(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

// TestAllowListKey tests allow-list key generation
func TestAllowListKey(t *testing.T) {
	key := AllowListKey("AceDataCloud")
	assert.Contains(t, key, "allowlist:")
	assert.True(t, len(key) > 65)

	// Org names are case-insensitive
	assert.Equal(t, key, AllowListKey("acedatacloud"))
}

// TestFeesKey tests fee series key generation
func TestFeesKey(t *testing.T) {
	key := FeesKey("6hVavSsYRaNk86UbNZa6V4JfSwqkRGk9HgYZqKNsdU1w", "hourly")
	assert.Contains(t, key, "fees:")
	assert.True(t, len(key) > 65)

	// Wallet addresses are case-sensitive
	other := FeesKey("6hvavssyrank86ubnza6v4jfswqkrgk9hgyzqknsdu1w", "hourly")
	assert.NotEqual(t, key, other)

	// Interval is part of the key
	daily := FeesKey("6hVavSsYRaNk86UbNZa6V4JfSwqkRGk9HgYZqKNsdU1w", "daily")
	assert.NotEqual(t, key, daily)
}

// TestPriceKey tests price key generation
func TestPriceKey(t *testing.T) {
	key := PriceKey("solana", "usd")
	assert.Contains(t, key, "price:")
	assert.True(t, len(key) > 65)
}

// TestNewBadgerCache tests creating cache
func TestNewBadgerCache(t *testing.T) {
	t.Run("creates in-memory cache", func(t *testing.T) {
		cache, err := NewBadgerCache(Options{
			InMemory: true,
		})
		require.NoError(t, err)
		assert.NotNil(t, cache)
		cache.Close()
	})

	t.Run("creates file-based cache with temp directory", func(t *testing.T) {
		tmpDir := t.TempDir()
		cache, err := NewBadgerCache(Options{
			Directory: tmpDir,
		})
		require.NoError(t, err)
		assert.NotNil(t, cache)
		cache.Close()
	})

	t.Run("creates file-based cache in default location", func(t *testing.T) {
		tmpDir := t.TempDir()
		originalHome := os.Getenv("HOME")
		defer func() {
			if originalHome != "" {
				os.Setenv("HOME", originalHome)
			} else {
				os.Unsetenv("HOME")
			}
		}()
		os.Setenv("HOME", tmpDir)

		cache, err := NewBadgerCache(Options{
			Directory: "",
		})
		require.NoError(t, err)
		assert.NotNil(t, cache)
		cache.Close()

		cacheDir := tmpDir + "/.dashsnap/cache"
		_, err = os.Stat(cacheDir)
		assert.NoError(t, err)
	})
}

// TestBadgerCache_Get tests getting values from cache
func TestBadgerCache_Get(t *testing.T) {
	t.Run("returns cache miss for missing key", func(t *testing.T) {
		cache, err := NewBadgerCache(Options{InMemory: true})
		require.NoError(t, err)
		defer cache.Close()

		ctx := context.Background()
		value, err := cache.Get(ctx, "allowlist/nonexistent")

		assert.ErrorIs(t, err, domain.ErrCacheMiss)
		assert.Nil(t, value)
	})

	t.Run("retrieves stored value", func(t *testing.T) {
		cache, err := NewBadgerCache(Options{InMemory: true})
		require.NoError(t, err)
		defer cache.Close()

		ctx := context.Background()
		key := AllowListKey("AceDataCloud")
		value := []byte(`["alice","bob"]`)

		err = cache.Set(ctx, key, value, 1*time.Hour)
		require.NoError(t, err)

		retrieved, err := cache.Get(ctx, key)
		assert.NoError(t, err)
		assert.Equal(t, value, retrieved)
	})
}

// TestBadgerCache_Set tests setting values in cache
func TestBadgerCache_Set(t *testing.T) {
	t.Run("stores value with TTL", func(t *testing.T) {
		cache, err := NewBadgerCache(Options{InMemory: true})
		require.NoError(t, err)
		defer cache.Close()

		ctx := context.Background()
		key := FeesKey("abc", "hourly")
		value := []byte(`{"candles":[]}`)

		err = cache.Set(ctx, key, value, 1*time.Hour)
		assert.NoError(t, err)

		has := cache.Has(ctx, key)
		assert.True(t, has)
	})

	t.Run("stores value without TTL", func(t *testing.T) {
		cache, err := NewBadgerCache(Options{InMemory: true})
		require.NoError(t, err)
		defer cache.Close()

		ctx := context.Background()
		key := PriceKey("solana", "usd")
		value := []byte("184.22")

		err = cache.Set(ctx, key, value, 0)
		assert.NoError(t, err)

		has := cache.Has(ctx, key)
		assert.True(t, has)
	})

	t.Run("overwrites existing value", func(t *testing.T) {
		cache, err := NewBadgerCache(Options{InMemory: true})
		require.NoError(t, err)
		defer cache.Close()

		ctx := context.Background()
		key := PriceKey("solana", "usd")

		err = cache.Set(ctx, key, []byte("180.00"), 1*time.Hour)
		require.NoError(t, err)

		err = cache.Set(ctx, key, []byte("185.50"), 1*time.Hour)
		require.NoError(t, err)

		value, err := cache.Get(ctx, key)
		assert.NoError(t, err)
		assert.Equal(t, []byte("185.50"), value)
	})
}

// TestBadgerCache_Has tests checking if key exists
func TestBadgerCache_Has(t *testing.T) {
	t.Run("returns false for missing key", func(t *testing.T) {
		cache, err := NewBadgerCache(Options{InMemory: true})
		require.NoError(t, err)
		defer cache.Close()

		ctx := context.Background()
		has := cache.Has(ctx, "price/nonexistent")
		assert.False(t, has)
	})

	t.Run("returns true for existing key", func(t *testing.T) {
		cache, err := NewBadgerCache(Options{InMemory: true})
		require.NoError(t, err)
		defer cache.Close()

		ctx := context.Background()
		key := AllowListKey("AceDataCloud")

		err = cache.Set(ctx, key, []byte("content"), 1*time.Hour)
		require.NoError(t, err)

		has := cache.Has(ctx, key)
		assert.True(t, has)
	})
}

// TestBadgerCache_Delete tests deleting keys
func TestBadgerCache_Delete(t *testing.T) {
	t.Run("deletes existing key", func(t *testing.T) {
		cache, err := NewBadgerCache(Options{InMemory: true})
		require.NoError(t, err)
		defer cache.Close()

		ctx := context.Background()
		key := AllowListKey("AceDataCloud")

		err = cache.Set(ctx, key, []byte("content"), 1*time.Hour)
		require.NoError(t, err)

		err = cache.Delete(ctx, key)
		assert.NoError(t, err)

		has := cache.Has(ctx, key)
		assert.False(t, has)
	})

	t.Run("deleting non-existent key is no error", func(t *testing.T) {
		cache, err := NewBadgerCache(Options{InMemory: true})
		require.NoError(t, err)
		defer cache.Close()

		ctx := context.Background()
		err = cache.Delete(ctx, "price/nonexistent")
		assert.NoError(t, err)
	})
}

// TestBadgerCache_Clear tests clearing all entries
func TestBadgerCache_Clear(t *testing.T) {
	cache, err := NewBadgerCache(Options{InMemory: true})
	require.NoError(t, err)
	defer cache.Close()

	ctx := context.Background()

	cache.Set(ctx, FeesKey("abc", "hourly"), []byte("content1"), 1*time.Hour)
	cache.Set(ctx, FeesKey("abc", "daily"), []byte("content2"), 1*time.Hour)

	assert.Greater(t, cache.Size(), int64(0))

	err = cache.Clear()
	assert.NoError(t, err)

	assert.Equal(t, int64(0), cache.Size())
}

// TestBadgerCache_Size tests getting cache size
func TestBadgerCache_Size(t *testing.T) {
	cache, err := NewBadgerCache(Options{InMemory: true})
	require.NoError(t, err)
	defer cache.Close()

	ctx := context.Background()

	assert.Equal(t, int64(0), cache.Size())

	cache.Set(ctx, FeesKey("abc", "hourly"), []byte("content1"), 1*time.Hour)
	cache.Set(ctx, FeesKey("abc", "daily"), []byte("content2"), 1*time.Hour)
	cache.Set(ctx, PriceKey("solana", "usd"), []byte("content3"), 1*time.Hour)

	assert.Equal(t, int64(3), cache.Size())
}

// TestBadgerCache_Stats tests cache statistics
func TestBadgerCache_Stats(t *testing.T) {
	cache, err := NewBadgerCache(Options{InMemory: true})
	require.NoError(t, err)
	defer cache.Close()

	ctx := context.Background()

	cache.Set(ctx, PriceKey("solana", "usd"), []byte("content"), 1*time.Hour)

	stats := cache.Stats()
	assert.NotNil(t, stats)
	assert.Contains(t, stats, "entries")
	assert.Contains(t, stats, "lsm_size")
	assert.Contains(t, stats, "vlog_size")
	assert.Equal(t, int64(1), stats["entries"])
}

// TestBadgerCache_Integration tests integration scenarios
func TestBadgerCache_Integration(t *testing.T) {
	t.Run("full workflow", func(t *testing.T) {
		cache, err := NewBadgerCache(Options{InMemory: true})
		require.NoError(t, err)
		defer cache.Close()

		ctx := context.Background()
		key := AllowListKey("AceDataCloud")
		content := []byte(`{"logins":["alice","bob"]}`)

		// Initially not found
		_, err = cache.Get(ctx, key)
		assert.ErrorIs(t, err, domain.ErrCacheMiss)

		// Store
		err = cache.Set(ctx, key, content, 1*time.Hour)
		assert.NoError(t, err)

		// Check exists
		assert.True(t, cache.Has(ctx, key))

		// Retrieve
		retrieved, err := cache.Get(ctx, key)
		assert.NoError(t, err)
		assert.Equal(t, content, retrieved)

		// Delete
		err = cache.Delete(ctx, key)
		assert.NoError(t, err)

		// Gone
		assert.False(t, cache.Has(ctx, key))
	})
}

// TestBadgerCache_ConcurrentAccess tests concurrent access safety
func TestBadgerCache_ConcurrentAccess(t *testing.T) {
	cache, err := NewBadgerCache(Options{InMemory: true})
	require.NoError(t, err)
	defer cache.Close()

	ctx := context.Background()
	done := make(chan bool)

	// Concurrent writes
	for i := 0; i < 50; i++ {
		go func(i int) {
			key := FeesKey("addr", string(rune('0'+i)))
			cache.Set(ctx, key, []byte("content"), 1*time.Hour)
			done <- true
		}(i)
	}

	// Concurrent reads
	for i := 0; i < 50; i++ {
		go func(i int) {
			key := FeesKey("addr", string(rune('0'+i)))
			cache.Get(ctx, key)
			done <- true
		}(i)
	}

	for i := 0; i < 100; i++ {
		<-done
	}

	assert.Equal(t, int64(50), cache.Size())
}
