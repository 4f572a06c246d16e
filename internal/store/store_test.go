package store

import (
	"sync"
	"testing"
	"time"

	"snapkv/internal/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreGet_Set(t *testing.T) {
	st := NewStore(0, metrics.NewRegistry())

	t.Run("set and get existing key", func(t *testing.T) {
		st.Set("country", String("USA"))

		val, ok := st.Get("country")
		require.True(t, ok)
		assert.Equal(t, String("USA"), val)
	})

	t.Run("get non-existing key", func(t *testing.T) {
		_, ok := st.Get("missing")
		assert.False(t, ok)
	})
}

func TestStoreOverwrite(t *testing.T) {
	// Overwriting a key replaces value and expiry together: after the
	// second set, only the new ttl governs the key.
	now := time.Unix(1_700_000_000, 0)
	st := NewStore(0, metrics.NewRegistry()).WithClock(func() time.Time { return now })

	require.NoError(t, st.SetTTL("k", String("old"), time.Second))
	require.NoError(t, st.SetTTL("k", String("new"), time.Hour))

	// Past the first ttl, before the second: only the new one applies.
	now = now.Add(2 * time.Second)

	val, ok := st.Get("k")
	require.True(t, ok)
	assert.Equal(t, String("new"), val)
}

func TestStoreLazyExpiration(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	st := NewStore(0, metrics.NewRegistry()).WithClock(func() time.Time { return now })

	require.NoError(t, st.SetTTL("temp", String("value"), time.Second))

	val, ok := st.Get("temp")
	require.True(t, ok)
	assert.Equal(t, String("value"), val)

	now = now.Add(time.Second)

	// Call Get → should trigger expiration path
	val, ok = st.Get("temp")
	assert.False(t, ok)
	assert.Equal(t, Null, val)
}

func TestStoreGet_ExpiredKeyIsPurged(t *testing.T) {
	reg := metrics.NewRegistry()
	now := time.Unix(1_700_000_000, 0)
	st := NewStore(0, reg).WithClock(func() time.Time { return now })

	require.NoError(t, st.SetTTL("temp", String("value"), time.Millisecond))
	now = now.Add(time.Second)

	_, ok := st.Get("temp")
	assert.False(t, ok)

	// Ensure key was deleted
	_, ok = st.Get("temp")
	assert.False(t, ok)

	// Verify metrics side-effects
	snap := reg.Snapshot()
	assert.Equal(t, int64(1), snap[string(metrics.StoreExpiredTotal)])
	assert.Equal(t, int64(0), snap[string(metrics.StoreKeysTotal)])
}

func TestStoreTTLZeroExpiresImmediately(t *testing.T) {
	st := NewStore(0, metrics.NewRegistry())

	require.NoError(t, st.SetTTL("flash", String("gone"), 0))

	_, ok := st.Get("flash")
	assert.False(t, ok, "ttl of 0 should expire on the next read")
}

func TestStoreNegativeTTLRejected(t *testing.T) {
	st := NewStore(0, metrics.NewRegistry())

	err := st.SetTTL("k", String("v"), -time.Second)
	require.ErrorIs(t, err, ErrInvalidTTL)

	_, ok := st.Get("k")
	assert.False(t, ok, "a rejected set must not mutate the store")
}

func TestStoreDefaultTTL(t *testing.T) {
	t.Run("applied when positive", func(t *testing.T) {
		now := time.Unix(1_700_000_000, 0)
		st := NewStore(time.Minute, metrics.NewRegistry()).WithClock(func() time.Time { return now })

		st.Set("k", String("v"))

		now = now.Add(2 * time.Minute)
		_, ok := st.Get("k")
		assert.False(t, ok, "default ttl should have expired the key")
	})

	t.Run("zero means never expires", func(t *testing.T) {
		now := time.Unix(1_700_000_000, 0)
		st := NewStore(0, metrics.NewRegistry()).WithClock(func() time.Time { return now })

		st.Set("k", String("v"))

		now = now.Add(1000 * time.Hour)
		_, ok := st.Get("k")
		assert.True(t, ok)
	})
}

func TestStoreDelete(t *testing.T) {
	st := NewStore(0, metrics.NewRegistry())

	t.Run("removes present key", func(t *testing.T) {
		st.Set("country", String("USA"))

		assert.True(t, st.Delete("country"))

		_, ok := st.Get("country")
		assert.False(t, ok)
	})

	t.Run("idempotent on absent key", func(t *testing.T) {
		assert.False(t, st.Delete("country"), "second delete should report nothing removed")
		assert.False(t, st.Delete("never-set"))
	})
}

func TestStoreAll_PurgesExpired(t *testing.T) {
	reg := metrics.NewRegistry()
	now := time.Unix(1_700_000_000, 0)
	st := NewStore(0, reg).WithClock(func() time.Time { return now })

	st.Set("alive", String("ok"))
	require.NoError(t, st.SetTTL("expired", String("gone"), time.Second))

	now = now.Add(2 * time.Second)

	seen := map[string]Entry{}
	for k, e := range st.All() {
		seen[k] = e
	}

	_, okAlive := seen["alive"]
	_, okExpired := seen["expired"]
	assert.True(t, okAlive, "non-expired key should be yielded")
	assert.False(t, okExpired, "expired key should not be yielded")

	// The traversal purges, so the dead key is gone from the map too.
	assert.Equal(t, 1, st.Len())

	snap := reg.Snapshot()
	assert.Equal(t, int64(1), snap[string(metrics.StoreExpiredTotal)])
}

func TestStoreAll_Restartable(t *testing.T) {
	st := NewStore(0, metrics.NewRegistry())
	st.Set("a", Number(1))
	st.Set("b", Number(2))

	seq := st.All()

	first := 0
	for range seq {
		first++
	}
	second := 0
	for range seq {
		second++
	}

	assert.Equal(t, 2, first)
	assert.Equal(t, 2, second, "the sequence should be restartable")
}

func TestStoreReplace(t *testing.T) {
	st := NewStore(0, metrics.NewRegistry())
	st.Set("stale", String("x"))

	st.Replace(map[string]Entry{
		"fresh": {Value: Number(7)},
	})

	_, ok := st.Get("stale")
	assert.False(t, ok)

	val, ok := st.Get("fresh")
	require.True(t, ok)
	assert.Equal(t, Number(7), val)
}

func TestStoreConcurrentSetAndTraverse(t *testing.T) {
	// The checkpointer traverses from its own goroutine while the
	// dispatcher writes; both must be safe together.
	st := NewStore(0, metrics.NewRegistry())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st.Set("key", String("value"))
			for range st.All() {
			}
		}()
	}
	wg.Wait()

	_, ok := st.Get("key")
	assert.True(t, ok)
}

func TestStoreGeneration(t *testing.T) {
	st := NewStore(0, metrics.NewRegistry())

	g0 := st.Generation()
	st.Set("k", String("v"))
	g1 := st.Generation()
	assert.Greater(t, g1, g0, "set should advance the generation")

	st.Get("k")
	assert.Equal(t, g1, st.Generation(), "a plain read should not advance the generation")

	st.Delete("k")
	assert.Greater(t, st.Generation(), g1)
}
