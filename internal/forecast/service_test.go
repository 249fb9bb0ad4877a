package forecast

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tapcask-pos/tapcask/internal/catalog"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fakeFeed struct {
	direct        []ProductConsumption
	packaged      []PackageConsumptionRow
	packagedErr   error
	sales         []PackageSale
	compositions  map[int64][]catalog.PackageItem
	packagedCalls int
	salesCalls    int
}

func (f *fakeFeed) DirectSales(context.Context, time.Time, time.Time) ([]ProductConsumption, error) {
	return f.direct, nil
}

func (f *fakeFeed) PackageConsumption(context.Context, time.Time, time.Time) ([]PackageConsumptionRow, error) {
	f.packagedCalls++
	if f.packagedErr != nil {
		return nil, f.packagedErr
	}
	return f.packaged, nil
}

func (f *fakeFeed) PackageSales(context.Context, time.Time, time.Time) ([]PackageSale, error) {
	f.salesCalls++
	return f.sales, nil
}

func (f *fakeFeed) PackageCompositions(context.Context) (map[int64][]catalog.PackageItem, error) {
	return f.compositions, nil
}

type fakeProducts struct {
	products []catalog.Product
}

func (f *fakeProducts) ListProducts(context.Context) ([]catalog.Product, error) {
	return f.products, nil
}

func window(days int) Params {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return Params{From: from, To: from.AddDate(0, 0, days)}
}

// Product 4: 30 sold directly plus 70 consumed through packages over a
// 10-day window. Velocity 10/day, 40 left: stockout in 4 days.
func blendedFixture() (*fakeFeed, *fakeProducts) {
	feed := &fakeFeed{
		direct: []ProductConsumption{{ProductID: 4, Quantity: dec("30")}},
		packaged: []PackageConsumptionRow{
			{ProductID: 4, PackageID: 20, PackageName: "Party Crate", Quantity: dec("50")},
			{ProductID: 4, PackageID: 21, PackageName: "Cuba Libre Set", Quantity: dec("20")},
		},
	}
	products := &fakeProducts{products: []catalog.Product{
		{ID: 4, SKU: "RUM-001", Name: "Rum", CurrentStock: dec("40"), ReorderPoint: dec("10")},
		{ID: 5, SKU: "MINT-01", Name: "Mint", CurrentStock: dec("100"), ReorderPoint: dec("5")},
	}}
	return feed, products
}

func TestRecommendationsBlendBothSources(t *testing.T) {
	feed, products := blendedFixture()
	svc := NewService(nil, feed, products)

	recs, err := svc.GetSmartReorderRecommendations(context.Background(), window(10))
	require.NoError(t, err)
	require.Len(t, recs, 1)

	rec := recs[0]
	require.EqualValues(t, 4, rec.ProductID)
	require.True(t, rec.DirectSales.Equal(dec("30")))
	require.True(t, rec.PackageConsumption.Equal(dec("70")))
	require.True(t, rec.TotalConsumed.Equal(dec("100")))
	require.True(t, rec.DailyVelocity.Equal(dec("10")))
	require.InDelta(t, 4.0, rec.DaysUntilStockout, 1e-9)
	require.Equal(t, PriorityUrgent, rec.Priority)
	// 14 days of coverage at 10/day.
	require.EqualValues(t, 140, rec.RecommendedReorder)
}

func TestRecommendationsUsageBreakdown(t *testing.T) {
	feed, products := blendedFixture()
	svc := NewService(nil, feed, products)

	recs, err := svc.GetSmartReorderRecommendations(context.Background(), window(10))
	require.NoError(t, err)
	require.Len(t, recs[0].UsageBreakdown, 2)

	crate := recs[0].UsageBreakdown[0]
	require.EqualValues(t, 20, crate.PackageID)
	require.True(t, crate.Consumed.Equal(dec("50")))
	require.True(t, crate.SharePct.Equal(dec("50")))

	set := recs[0].UsageBreakdown[1]
	require.True(t, set.SharePct.Equal(dec("20")))
}

func TestRecommendationsZeroVelocitySentinel(t *testing.T) {
	feed := &fakeFeed{}
	products := &fakeProducts{products: []catalog.Product{
		// No consumption, but already at the reorder point.
		{ID: 7, SKU: "GIN-001", Name: "Gin", CurrentStock: dec("2"), ReorderPoint: dec("5")},
	}}
	svc := NewService(nil, feed, products)

	recs, err := svc.GetSmartReorderRecommendations(context.Background(), window(7))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, StockoutSentinelDays, recs[0].DaysUntilStockout)
	require.Equal(t, PriorityNormal, recs[0].Priority)
	require.EqualValues(t, 0, recs[0].RecommendedReorder)
}

func TestRecommendationsPriorityThresholds(t *testing.T) {
	feed := &fakeFeed{direct: []ProductConsumption{
		{ProductID: 1, Quantity: dec("70")}, // velocity 10, stock 65: 6.5 days
		{ProductID: 2, Quantity: dec("70")}, // velocity 10, stock 130: 13 days
		{ProductID: 3, Quantity: dec("70")}, // velocity 10, stock 200: 20 days
	}}
	products := &fakeProducts{products: []catalog.Product{
		{ID: 1, Name: "A", CurrentStock: dec("65"), ReorderPoint: dec("0")},
		{ID: 2, Name: "B", CurrentStock: dec("130"), ReorderPoint: dec("0")},
		{ID: 3, Name: "C", CurrentStock: dec("200"), ReorderPoint: dec("0")},
	}}
	svc := NewService(nil, feed, products)

	recs, err := svc.GetSmartReorderRecommendations(context.Background(), window(7))
	require.NoError(t, err)
	require.Len(t, recs, 3)
	// Sorted most urgent first.
	require.Equal(t, PriorityUrgent, recs[0].Priority)
	require.Equal(t, PriorityHigh, recs[1].Priority)
	require.Equal(t, PriorityNormal, recs[2].Priority)
}

func TestRecommendationsFallbackDecomposition(t *testing.T) {
	feed, products := blendedFixture()
	feed.packagedErr = errors.New("aggregate query timeout")
	feed.sales = []PackageSale{
		{PackageID: 20, PackageName: "Party Crate", Quantity: dec("25")},
		{PackageID: 21, PackageName: "Cuba Libre Set", Quantity: dec("10")},
	}
	feed.compositions = map[int64][]catalog.PackageItem{
		20: {{ProductID: 4, Quantity: dec("2"), Position: 1}},
		21: {{ProductID: 4, Quantity: dec("2"), Position: 1}},
	}
	svc := NewService(nil, feed, products)

	recs, err := svc.GetSmartReorderRecommendations(context.Background(), window(10))
	require.NoError(t, err)
	require.Equal(t, 1, feed.salesCalls)
	require.Len(t, recs, 1)

	// 25x2 + 10x2 = 70, same as the aggregate path.
	rec := recs[0]
	require.True(t, rec.PackageConsumption.Equal(dec("70")))
	require.True(t, rec.TotalConsumed.Equal(dec("100")))
	require.InDelta(t, 4.0, rec.DaysUntilStockout, 1e-9)
}

func TestParamsValidate(t *testing.T) {
	require.Error(t, Params{}.Validate())

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	require.Error(t, Params{From: from, To: from}.Validate())
	require.NoError(t, Params{From: from, To: from.Add(time.Hour)}.Validate())
}
