package availability

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestCache(ttl time.Duration) (*ResultCache, *time.Time) {
	c := NewResultCache(ttl, nil)
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return current }
	return c, &current
}

func stub(packageID int64) Availability {
	return Availability{Result: Result{PackageID: packageID, MaxSellable: 7}, Source: SourceLive}
}

func TestResultCachePutGet(t *testing.T) {
	c, _ := newTestCache(time.Minute)

	_, ok := c.Get(1)
	require.False(t, ok)

	c.Put(1, stub(1), []int64{10, 11})
	got, ok := c.Get(1)
	require.True(t, ok)
	require.EqualValues(t, 1, got.PackageID)
	require.EqualValues(t, 7, got.MaxSellable)
}

func TestResultCacheTTLExpiry(t *testing.T) {
	c, clock := newTestCache(time.Minute)
	c.Put(1, stub(1), nil)

	*clock = clock.Add(59 * time.Second)
	_, ok := c.Get(1)
	require.True(t, ok)

	*clock = clock.Add(time.Second)
	_, ok = c.Get(1)
	require.False(t, ok)
	require.Equal(t, 0, c.Len())
}

func TestResultCacheVersionBumpInvalidatesLazily(t *testing.T) {
	c, _ := newTestCache(time.Hour)
	c.Put(1, stub(1), nil)
	c.Put(2, stub(2), nil)

	c.BumpVersion()
	// Entries survive in memory until touched.
	require.Equal(t, 2, c.Len())

	_, ok := c.Get(1)
	require.False(t, ok)

	c.Put(3, stub(3), nil)
	_, ok = c.Get(3)
	require.True(t, ok)
}

func TestResultCacheInvalidateAll(t *testing.T) {
	c, _ := newTestCache(time.Hour)
	c.Put(1, stub(1), nil)
	c.Put(2, stub(2), nil)

	c.Invalidate()
	require.Equal(t, 0, c.Len())
}

func TestResultCacheInvalidateForProduct(t *testing.T) {
	c, _ := newTestCache(time.Hour)
	// Packages 1 and 2 contain product 10; package 3 does not.
	c.Put(1, stub(1), []int64{10, 20})
	c.Put(2, stub(2), []int64{10})
	c.Put(3, stub(3), []int64{30})

	affected := c.InvalidateForProduct(10)
	sort.Slice(affected, func(i, j int) bool { return affected[i] < affected[j] })
	require.Equal(t, []int64{1, 2}, affected)

	_, ok := c.Get(1)
	require.False(t, ok)
	_, ok = c.Get(2)
	require.False(t, ok)
	_, ok = c.Get(3)
	require.True(t, ok)

	require.Nil(t, c.InvalidateForProduct(999))
}

func TestResultCacheReplaceIndex(t *testing.T) {
	c, _ := newTestCache(time.Hour)
	c.Put(1, stub(1), []int64{10})

	c.ReplaceIndex(map[int64][]int64{20: {1, 2}})

	// Old index mapping is gone, the new one is authoritative.
	require.Nil(t, c.InvalidateForProduct(10))
	got := c.PackagesForProduct(20)
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	require.Equal(t, []int64{1, 2}, got)
}

func TestResultCacheSweep(t *testing.T) {
	c, clock := newTestCache(time.Minute)
	c.Put(1, stub(1), nil)
	*clock = clock.Add(30 * time.Second)
	c.Put(2, stub(2), nil)

	*clock = clock.Add(45 * time.Second)
	require.Equal(t, 1, c.Sweep())
	require.Equal(t, 1, c.Len())

	_, ok := c.Get(2)
	require.True(t, ok)
}
