package snapshot

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tapcask-pos/tapcask/internal/catalog"
)

func decimalFrom(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fakeSource struct {
	products []catalog.Product
	packages []catalog.Package
}

func (f *fakeSource) ListProducts(context.Context) ([]catalog.Product, error) {
	return f.products, nil
}

func (f *fakeSource) GetActivePackages(context.Context) ([]catalog.Package, error) {
	return f.packages, nil
}

func fixtureSource() *fakeSource {
	return &fakeSource{
		products: []catalog.Product{
			{ID: 1, SKU: "LGR-001", Name: "Lager", CurrentStock: decimalFrom("20"), ReorderPoint: decimalFrom("10")},
			{ID: 2, SKU: "LIM-001", Name: "Lime", CurrentStock: decimalFrom("3"), ReorderPoint: decimalFrom("5")},
		},
		packages: []catalog.Package{
			{
				ID: 10, Name: "Beer Bucket", BasePrice: decimalFrom("25.00"), IsActive: true,
				Items: []catalog.PackageItem{
					{ProductID: 1, Quantity: decimalFrom("6"), Position: 1},
					{ProductID: 2, Quantity: decimalFrom("2"), Position: 2},
				},
			},
		},
	}
}

func TestBuilderBuild(t *testing.T) {
	builder := NewBuilder(fixtureSource())
	builder.now = func() time.Time { return time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC) }

	snap, err := builder.Build(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, snap.Version)
	require.Equal(t, time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC), snap.TakenAt)
	require.Len(t, snap.Products, 2)
	require.Len(t, snap.Packages, 1)

	index := snap.ProductIndex()
	require.Equal(t, "Lime", index[2].Name)

	pkg, ok := snap.PackageByID(10)
	require.True(t, ok)
	require.Equal(t, "Beer Bucket", pkg.Name)
	_, ok = snap.PackageByID(404)
	require.False(t, ok)
}

func TestStoreRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := NewStore(client, time.Hour)
	ctx := context.Background()

	_, err := store.Current(ctx)
	require.ErrorIs(t, err, ErrNoSnapshot)

	builder := NewBuilder(fixtureSource())
	snap, err := builder.Build(ctx)
	require.NoError(t, err)
	require.NoError(t, store.Publish(ctx, snap))

	got, err := store.Current(ctx)
	require.NoError(t, err)
	require.Equal(t, snap.Version, got.Version)
	require.True(t, snap.TakenAt.Equal(got.TakenAt))
	require.Len(t, got.Packages, 1)
	require.Len(t, got.Packages[0].Items, 2)
	require.True(t, got.Products[0].CurrentStock.Equal(decimalFrom("20")))
	require.True(t, got.Packages[0].Items[0].Quantity.Equal(decimalFrom("6")))
}

func TestStoreRefreshLock(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := NewStore(client, time.Hour)
	ctx := context.Background()

	locked, err := store.AcquireRefreshLock(ctx, time.Minute)
	require.NoError(t, err)
	require.True(t, locked)

	// Second worker is shut out while the lock is held.
	locked, err = store.AcquireRefreshLock(ctx, time.Minute)
	require.NoError(t, err)
	require.False(t, locked)

	store.ReleaseRefreshLock(ctx)
	locked, err = store.AcquireRefreshLock(ctx, time.Minute)
	require.NoError(t, err)
	require.True(t, locked)
}

func TestStoreSnapshotExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := NewStore(client, time.Minute)
	ctx := context.Background()

	snap, err := NewBuilder(fixtureSource()).Build(ctx)
	require.NoError(t, err)
	require.NoError(t, store.Publish(ctx, snap))

	mr.FastForward(2 * time.Minute)

	_, err = store.Current(ctx)
	require.ErrorIs(t, err, ErrNoSnapshot)
}
