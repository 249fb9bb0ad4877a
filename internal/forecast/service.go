package forecast

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tapcask-pos/tapcask/internal/catalog"
)

// SalesFeed abstracts the sales history source for the forecaster.
type SalesFeed interface {
	DirectSales(ctx context.Context, from, to time.Time) ([]ProductConsumption, error)
	PackageConsumption(ctx context.Context, from, to time.Time) ([]PackageConsumptionRow, error)
	PackageSales(ctx context.Context, from, to time.Time) ([]PackageSale, error)
	PackageCompositions(ctx context.Context) (map[int64][]catalog.PackageItem, error)
}

// ProductSource lists products with current stock levels.
type ProductSource interface {
	ListProducts(ctx context.Context) ([]catalog.Product, error)
}

// Service computes smart reorder recommendations from blended consumption:
// products sold directly plus products consumed indirectly via package sales.
type Service struct {
	logger   *slog.Logger
	feed     SalesFeed
	products ProductSource
}

// NewService builds Service.
func NewService(logger *slog.Logger, feed SalesFeed, products ProductSource) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger, feed: feed, products: products}
}

type productTally struct {
	direct    decimal.Decimal
	packaged  decimal.Decimal
	byPackage map[int64]*PackageUsage
	order     []int64
}

// GetSmartReorderRecommendations blends both consumption sources over the
// window into per-product velocity, days-to-stockout and a reorder quantity
// sized for bufferDays of coverage. Most urgent products sort first.
func (s *Service) GetSmartReorderRecommendations(ctx context.Context, params Params) ([]Recommendation, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	bufferDays := params.BufferDays
	if bufferDays <= 0 {
		bufferDays = DefaultBufferDays
	}
	windowDays := params.WindowDays()
	if windowDays < 1 {
		windowDays = 1
	}

	direct, err := s.feed.DirectSales(ctx, params.From, params.To)
	if err != nil {
		return nil, fmt.Errorf("forecast: direct sales: %w", err)
	}
	packaged, err := s.feed.PackageConsumption(ctx, params.From, params.To)
	if err != nil {
		// Degraded path: recompute the same decomposition from raw sale
		// records. Slower, equivalent result.
		s.logger.Warn("forecast: package decomposition query failed, using manual join",
			slog.Any("error", err))
		packaged, err = s.manualPackageConsumption(ctx, params.From, params.To)
		if err != nil {
			return nil, fmt.Errorf("forecast: package consumption fallback: %w", err)
		}
	}

	tallies := make(map[int64]*productTally)
	tally := func(productID int64) *productTally {
		t, ok := tallies[productID]
		if !ok {
			t = &productTally{byPackage: make(map[int64]*PackageUsage)}
			tallies[productID] = t
		}
		return t
	}
	for _, row := range direct {
		t := tally(row.ProductID)
		t.direct = t.direct.Add(row.Quantity)
	}
	for _, row := range packaged {
		t := tally(row.ProductID)
		t.packaged = t.packaged.Add(row.Quantity)
		usage, ok := t.byPackage[row.PackageID]
		if !ok {
			usage = &PackageUsage{PackageID: row.PackageID, PackageName: row.PackageName}
			t.byPackage[row.PackageID] = usage
			t.order = append(t.order, row.PackageID)
		}
		usage.Consumed = usage.Consumed.Add(row.Quantity)
	}

	products, err := s.products.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("forecast: products: %w", err)
	}

	days := decimal.NewFromFloat(windowDays)
	buffer := decimal.NewFromInt(int64(bufferDays))
	recommendations := make([]Recommendation, 0, len(tallies))
	for _, product := range products {
		t, consumed := tallies[product.ID]
		atReorderPoint := product.CurrentStock.LessThanOrEqual(product.ReorderPoint)
		if !consumed && !atReorderPoint {
			continue
		}
		rec := Recommendation{
			ProductID:      product.ID,
			ProductName:    product.Name,
			SKU:            product.SKU,
			CurrentStock:   product.CurrentStock,
			Priority:       PriorityNormal,
			UsageBreakdown: []PackageUsage{},
		}
		if consumed {
			rec.DirectSales = t.direct
			rec.PackageConsumption = t.packaged
		}
		rec.TotalConsumed = rec.DirectSales.Add(rec.PackageConsumption)
		rec.DailyVelocity = rec.TotalConsumed.Div(days)

		if rec.DailyVelocity.Sign() > 0 {
			daysLeft, _ := rec.CurrentStock.Div(rec.DailyVelocity).Float64()
			rec.DaysUntilStockout = daysLeft
			rec.RecommendedReorder = rec.DailyVelocity.Mul(buffer).Ceil().IntPart()
			switch {
			case daysLeft < 7:
				rec.Priority = PriorityUrgent
			case daysLeft < 14:
				rec.Priority = PriorityHigh
			}
		} else {
			rec.DaysUntilStockout = StockoutSentinelDays
		}

		if consumed {
			for _, packageID := range t.order {
				usage := *t.byPackage[packageID]
				if rec.TotalConsumed.Sign() > 0 {
					usage.SharePct = usage.Consumed.
						Div(rec.TotalConsumed).
						Mul(decimal.NewFromInt(100)).
						Round(2)
				}
				rec.UsageBreakdown = append(rec.UsageBreakdown, usage)
			}
		}
		recommendations = append(recommendations, rec)
	}

	sort.SliceStable(recommendations, func(i, j int) bool {
		a, b := recommendations[i].DaysUntilStockout, recommendations[j].DaysUntilStockout
		if math.Abs(a-b) > 1e-9 {
			return a < b
		}
		return recommendations[i].ProductID < recommendations[j].ProductID
	})
	return recommendations, nil
}

// manualPackageConsumption rebuilds the decomposition from raw package sales
// and compositions. Must stay equivalent to the aggregate query; only the
// access path differs.
func (s *Service) manualPackageConsumption(ctx context.Context, from, to time.Time) ([]PackageConsumptionRow, error) {
	sales, err := s.feed.PackageSales(ctx, from, to)
	if err != nil {
		return nil, err
	}
	compositions, err := s.feed.PackageCompositions(ctx)
	if err != nil {
		return nil, err
	}
	var rows []PackageConsumptionRow
	for _, sale := range sales {
		for _, item := range compositions[sale.PackageID] {
			rows = append(rows, PackageConsumptionRow{
				ProductID:   item.ProductID,
				PackageID:   sale.PackageID,
				PackageName: sale.PackageName,
				Quantity:    sale.Quantity.Mul(item.Quantity),
			})
		}
	}
	return rows, nil
}
