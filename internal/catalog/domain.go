package catalog

import (
	"github.com/shopspring/decimal"
)

// Product is a sellable or consumable stock item owned by the product store.
type Product struct {
	ID           int64           `json:"id"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	ReorderPoint decimal.Decimal `json:"reorder_point"`
	CostPrice    decimal.Decimal `json:"cost_price"`
}

// PackageItem is one component line of a package composition. ProductID is a
// reference, not ownership; the product row lives in the product store.
type PackageItem struct {
	ProductID int64           `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	Position  int             `json:"position"`
}

// Package is a sellable bundle of fixed component quantities. A package with
// zero items has unconstrained availability.
type Package struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	BasePrice decimal.Decimal `json:"base_price"`
	IsActive  bool            `json:"is_active"`
	Items     []PackageItem   `json:"items"`
}
