package availability

import (
	"github.com/shopspring/decimal"

	"github.com/tapcask-pos/tapcask/internal/shared"
)

// Calculate determines how many units of a package can be sold given resolved
// component stocks, and which component is the limiting factor.
//
// Rules:
//   - no components: availability is unbounded, no bottleneck;
//   - components with non-positive required quantity are excluded from the
//     min-search so a malformed line cannot zero out the whole package;
//   - an unresolvable product counts as zero stock;
//   - when several components tie at the minimum the first in composition
//     order wins, which keeps the authoritative and offline paths in
//     agreement.
//
// It performs no I/O and must stay deterministic for identical inputs.
func Calculate(p PackageData) (Result, error) {
	res := Result{
		PackageID:   p.ID,
		PackageName: p.Name,
		Breakdown:   []ComponentLimit{},
	}

	considered := 0
	for _, c := range p.Components {
		if c.ProductID == 0 {
			return Result{}, shared.IntegrityError("package", p.ID, "item references null product")
		}
		if c.Required.Sign() <= 0 {
			continue
		}
		stock := c.Stock
		if c.Missing || stock.Sign() < 0 {
			stock = decimal.Zero
		}
		maxUnits := stock.Div(c.Required).Floor().IntPart()
		if maxUnits < 0 {
			maxUnits = 0
		}
		res.Breakdown = append(res.Breakdown, ComponentLimit{
			ProductID:   c.ProductID,
			ProductName: c.ProductName,
			Stock:       c.Stock,
			Required:    c.Required,
			MaxUnits:    maxUnits,
		})
		if considered == 0 || maxUnits < res.MaxSellable {
			res.MaxSellable = maxUnits
			res.Bottleneck = &BottleneckInfo{
				ProductID:          c.ProductID,
				ProductName:        c.ProductName,
				CurrentStock:       c.Stock,
				RequiredPerPackage: c.Required,
			}
		}
		considered++
	}

	if considered == 0 {
		res.Unbounded = true
		res.MaxSellable = 0
		res.Bottleneck = nil
	}
	return res, nil
}
