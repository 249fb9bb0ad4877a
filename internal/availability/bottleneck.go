package availability

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var reportPrinter = message.NewPrinter(language.English)

// formatMoney renders an amount with thousands separators for report
// summaries, e.g. "1,300.00".
func formatMoney(amount decimal.Decimal) string {
	value, _ := amount.Round(2).Float64()
	return reportPrinter.Sprintf("%.2f", value)
}

// IdentifyBottlenecks sweeps all active packages, groups them by bottleneck
// product and ranks products by revenue impact.
//
// Severity is computed as affected_count x (total_revenue / affected_count),
// which algebraically collapses to the revenue sum. The collapsed form is
// kept on purpose: it is the documented ranking key, and changing it would
// silently reorder restocking priorities.
func (s *Service) IdentifyBottlenecks(ctx context.Context) (BottleneckReport, error) {
	packages, err := s.store.GetActivePackages(ctx)
	if err != nil {
		return BottleneckReport{}, err
	}
	results, failed := s.sweep(ctx, packages)

	priceByPackage := make(map[int64]decimal.Decimal, len(packages))
	for _, pkg := range packages {
		priceByPackage[pkg.ID] = pkg.BasePrice
	}

	grouped := make(map[int64]*ProductBottleneck)
	var order []int64
	for _, availability := range results {
		bottleneck := availability.Bottleneck
		if bottleneck == nil {
			continue
		}
		group, ok := grouped[bottleneck.ProductID]
		if !ok {
			group = &ProductBottleneck{
				ProductID:    bottleneck.ProductID,
				ProductName:  bottleneck.ProductName,
				CurrentStock: bottleneck.CurrentStock,
			}
			grouped[bottleneck.ProductID] = group
			order = append(order, bottleneck.ProductID)
		}
		revenue := priceByPackage[availability.PackageID].Mul(decimal.NewFromInt(availability.MaxSellable))
		group.AffectedPackages = append(group.AffectedPackages, AffectedPackage{
			PackageID:        availability.PackageID,
			PackageName:      availability.PackageName,
			MaxSellable:      availability.MaxSellable,
			RequiredPerPack:  bottleneck.RequiredPerPackage,
			PotentialRevenue: revenue,
		})
		group.TotalRevenueImpact = group.TotalRevenueImpact.Add(revenue)
	}

	if err := s.fillReorderPoints(ctx, grouped); err != nil {
		return BottleneckReport{}, err
	}

	total := decimal.Zero
	bottlenecks := make([]ProductBottleneck, 0, len(grouped))
	for _, productID := range order {
		group := grouped[productID]
		group.TotalPackagesAffected = len(group.AffectedPackages)
		group.Severity = group.TotalRevenueImpact
		group.OptimalRestock = s.optimalRestock(group.AffectedPackages)
		total = total.Add(group.TotalRevenueImpact)
		bottlenecks = append(bottlenecks, *group)
	}
	sort.SliceStable(bottlenecks, func(i, j int) bool {
		return bottlenecks[i].Severity.GreaterThan(bottlenecks[j].Severity)
	})

	report := BottleneckReport{
		Bottlenecks: bottlenecks,
		Summary: BottleneckSummary{
			PackagesScanned:     len(packages),
			PackagesFailed:      failed,
			ProductsConstrained: len(bottlenecks),
			TotalRevenueImpact:  formatMoney(total),
			GeneratedAt:         s.now().UTC(),
		},
	}
	return report, nil
}

// GetCriticalBottlenecks returns bottleneck products whose stock has reached
// the reorder point.
func (s *Service) GetCriticalBottlenecks(ctx context.Context) ([]ProductBottleneck, error) {
	report, err := s.IdentifyBottlenecks(ctx)
	if err != nil {
		return nil, err
	}
	critical := make([]ProductBottleneck, 0)
	for _, bottleneck := range report.Bottlenecks {
		if bottleneck.CurrentStock.LessThanOrEqual(bottleneck.ReorderPoint) {
			critical = append(critical, bottleneck)
		}
	}
	return critical, nil
}

// optimalRestock sizes a restock as restockPacksTarget packages' worth of
// the most demanding recipe among the affected packages.
func (s *Service) optimalRestock(affected []AffectedPackage) int64 {
	maxRequired := decimal.Zero
	for _, pkg := range affected {
		if pkg.RequiredPerPack.GreaterThan(maxRequired) {
			maxRequired = pkg.RequiredPerPack
		}
	}
	return maxRequired.Mul(decimal.NewFromInt(s.restockPacksTarget)).Ceil().IntPart()
}

// fillReorderPoints joins reorder thresholds onto the grouped bottlenecks.
// The calculator output intentionally omits them; they only matter here.
func (s *Service) fillReorderPoints(ctx context.Context, grouped map[int64]*ProductBottleneck) error {
	if len(grouped) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(grouped))
	for id := range grouped {
		ids = append(ids, id)
	}
	products, err := s.store.GetProductsByIDs(ctx, ids)
	if err != nil {
		return err
	}
	for id, group := range grouped {
		if product, ok := products[id]; ok {
			group.ReorderPoint = product.ReorderPoint
			group.CurrentStock = product.CurrentStock
			if group.ProductName == "" {
				group.ProductName = product.Name
			}
		}
	}
	return nil
}
