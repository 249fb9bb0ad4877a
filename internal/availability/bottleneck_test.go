package availability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tapcask-pos/tapcask/internal/catalog"
)

func bottleneckStore() *memoryStore {
	store := newMemoryStore()
	store.addProduct(catalog.Product{ID: 3, Name: "Cola", CurrentStock: dec("4"), ReorderPoint: dec("5")})
	store.addProduct(catalog.Product{ID: 4, Name: "Rum", CurrentStock: dec("100"), ReorderPoint: dec("10")})
	store.addProduct(catalog.Product{ID: 5, Name: "Mint", CurrentStock: dec("6"), ReorderPoint: dec("2")})

	// Both bottlenecked on Cola: 2 x 250 = 500 and 4 x 200 = 800.
	store.addPackage(catalog.Package{
		ID: 20, Name: "Party Crate", BasePrice: dec("250.00"), IsActive: true,
		Items: []catalog.PackageItem{
			{ProductID: 3, Quantity: dec("2"), Position: 1},
			{ProductID: 4, Quantity: dec("1"), Position: 2},
		},
	})
	store.addPackage(catalog.Package{
		ID: 21, Name: "Cuba Libre Set", BasePrice: dec("200.00"), IsActive: true,
		Items: []catalog.PackageItem{
			{ProductID: 3, Quantity: dec("1"), Position: 1},
			{ProductID: 4, Quantity: dec("2"), Position: 2},
		},
	})
	// Bottlenecked on Mint: 3 x 90 = 270, stock above reorder point.
	store.addPackage(catalog.Package{
		ID: 22, Name: "Mojito Set", BasePrice: dec("90.00"), IsActive: true,
		Items: []catalog.PackageItem{
			{ProductID: 5, Quantity: dec("2"), Position: 1},
			{ProductID: 4, Quantity: dec("1"), Position: 2},
		},
	})
	return store
}

func TestIdentifyBottlenecks(t *testing.T) {
	svc, _ := newTestService(bottleneckStore())

	report, err := svc.IdentifyBottlenecks(context.Background())
	require.NoError(t, err)

	require.Equal(t, 3, report.Summary.PackagesScanned)
	require.Equal(t, 0, report.Summary.PackagesFailed)
	require.Equal(t, 2, report.Summary.ProductsConstrained)
	require.Equal(t, "1,570.00", report.Summary.TotalRevenueImpact)

	require.Len(t, report.Bottlenecks, 2)
	cola := report.Bottlenecks[0]
	require.EqualValues(t, 3, cola.ProductID)
	require.Equal(t, 2, cola.TotalPackagesAffected)
	require.True(t, cola.TotalRevenueImpact.Equal(dec("1300")), cola.TotalRevenueImpact.String())
	require.True(t, cola.Severity.Equal(dec("1300")))
	require.True(t, cola.ReorderPoint.Equal(dec("5")))
	// 50 packages' worth of the most demanding recipe (2 per package).
	require.EqualValues(t, 100, cola.OptimalRestock)

	require.Len(t, cola.AffectedPackages, 2)
	require.EqualValues(t, 20, cola.AffectedPackages[0].PackageID)
	require.True(t, cola.AffectedPackages[0].PotentialRevenue.Equal(dec("500")))
	require.True(t, cola.AffectedPackages[1].PotentialRevenue.Equal(dec("800")))

	mint := report.Bottlenecks[1]
	require.EqualValues(t, 5, mint.ProductID)
	require.True(t, mint.Severity.Equal(dec("270")))
	require.EqualValues(t, 100, mint.OptimalRestock)
}

func TestGetCriticalBottlenecks(t *testing.T) {
	svc, _ := newTestService(bottleneckStore())

	critical, err := svc.GetCriticalBottlenecks(context.Background())
	require.NoError(t, err)

	// Cola (4 <= 5) qualifies, Mint (6 > 2) does not.
	require.Len(t, critical, 1)
	require.EqualValues(t, 3, critical[0].ProductID)
}

func TestIdentifyBottlenecksCountsFailures(t *testing.T) {
	store := bottleneckStore()
	store.addPackage(catalog.Package{
		ID: 23, Name: "Corrupt", BasePrice: dec("10.00"), IsActive: true,
		Items: []catalog.PackageItem{{ProductID: 0, Quantity: dec("1"), Position: 1}},
	})
	svc, _ := newTestService(store)

	report, err := svc.IdentifyBottlenecks(context.Background())
	require.NoError(t, err)
	require.Equal(t, 4, report.Summary.PackagesScanned)
	require.Equal(t, 1, report.Summary.PackagesFailed)
	require.Equal(t, 2, report.Summary.ProductsConstrained)
}
