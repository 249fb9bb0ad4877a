package availability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tapcask-pos/tapcask/internal/catalog"
	"github.com/tapcask-pos/tapcask/internal/shared"
	"github.com/tapcask-pos/tapcask/internal/snapshot"
)

func snapshotFrom(t *testing.T, store *memoryStore) snapshot.Snapshot {
	t.Helper()
	ctx := context.Background()
	packages, err := store.GetActivePackages(ctx)
	require.NoError(t, err)
	products := make([]catalog.Product, 0, len(store.products))
	for _, p := range store.products {
		products = append(products, p)
	}
	return snapshot.Snapshot{
		Version:  "test",
		TakenAt:  time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
		Products: products,
		Packages: packages,
	}
}

func TestOfflineMatchesLiveResults(t *testing.T) {
	store := bottleneckStore()
	svc, _ := newTestService(store)
	offline := NewOfflineCalculator(snapshotFrom(t, store))
	ctx := context.Background()

	for _, packageID := range []int64{20, 21, 22} {
		live, err := svc.CalculatePackageAvailability(ctx, packageID, false)
		require.NoError(t, err)
		snap, err := offline.Availability(packageID)
		require.NoError(t, err)

		// Same inputs, same calculator: the pure result must be identical.
		require.Equal(t, live.Result, snap.Result)
		require.Equal(t, SourceLive, live.Source)
		require.Equal(t, SourceSnapshot, snap.Source)
	}
}

func TestOfflineCarriesSnapshotTimestamp(t *testing.T) {
	store := beerBucketStore()
	offline := NewOfflineCalculator(snapshotFrom(t, store))

	got, err := offline.Availability(10)
	require.NoError(t, err)
	require.NotNil(t, got.SnapshotTakenAt)
	require.Equal(t, time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC), *got.SnapshotTakenAt)
}

func TestOfflineIgnoresLaterStockChanges(t *testing.T) {
	store := beerBucketStore()
	offline := NewOfflineCalculator(snapshotFrom(t, store))

	// Stock moves after the snapshot was taken; the offline answer must not.
	store.addProduct(catalog.Product{ID: 2, Name: "Lime", CurrentStock: dec("100")})

	got, err := offline.Availability(10)
	require.NoError(t, err)
	require.EqualValues(t, 1, got.MaxSellable)
}

func TestOfflineUnknownPackage(t *testing.T) {
	offline := NewOfflineCalculator(snapshotFrom(t, beerBucketStore()))

	_, err := offline.Availability(404)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestOfflineAllAvailability(t *testing.T) {
	offline := NewOfflineCalculator(snapshotFrom(t, bottleneckStore()))

	results, err := offline.AllAvailability()
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, r := range results {
		require.Equal(t, SourceSnapshot, r.Source)
	}
}
