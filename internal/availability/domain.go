package availability

import (
	"time"

	"github.com/shopspring/decimal"
)

// Source identifies which execution context produced a result.
type Source string

const (
	// SourceLive marks results computed from the authoritative store.
	SourceLive Source = "live"
	// SourceSnapshot marks results computed from a synchronized offline
	// snapshot. Stale by design, not an error.
	SourceSnapshot Source = "snapshot"
)

// ComponentData is the resolved calculator input for one package item:
// composition joined with current stock at the store boundary.
type ComponentData struct {
	ProductID   int64
	ProductName string
	Stock       decimal.Decimal
	Required    decimal.Decimal
	// Missing is set when the referenced product could not be resolved.
	// The calculator treats it as zero stock.
	Missing bool
}

// PackageData is the fully resolved input shape for the calculator. It is
// built once by a resolver; the calculator itself performs no I/O.
type PackageData struct {
	ID         int64
	Name       string
	BasePrice  decimal.Decimal
	Components []ComponentData
}

// BottleneckInfo describes the limiting component of a package.
type BottleneckInfo struct {
	ProductID          int64           `json:"product_id"`
	ProductName        string          `json:"product_name"`
	CurrentStock       decimal.Decimal `json:"current_stock"`
	RequiredPerPackage decimal.Decimal `json:"required_per_package"`
}

// ComponentLimit reports how many package units one component alone permits.
type ComponentLimit struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Stock       decimal.Decimal `json:"stock"`
	Required    decimal.Decimal `json:"required"`
	MaxUnits    int64           `json:"max_units"`
}

// Result is the pure calculator output. It carries no execution metadata so
// that the authoritative and offline paths produce identical values for
// identical inputs.
type Result struct {
	PackageID   int64            `json:"package_id"`
	PackageName string           `json:"package_name"`
	MaxSellable int64            `json:"max_sellable"`
	Unbounded   bool             `json:"unbounded"`
	Bottleneck  *BottleneckInfo  `json:"bottleneck,omitempty"`
	Breakdown   []ComponentLimit `json:"breakdown"`
}

// Availability wraps a Result with execution metadata for callers.
type Availability struct {
	Result
	Source          Source     `json:"source"`
	ComputedAt      time.Time  `json:"computed_at"`
	SnapshotTakenAt *time.Time `json:"snapshot_taken_at,omitempty"`
}

// AffectedPackage is one package constrained by a bottleneck product.
type AffectedPackage struct {
	PackageID        int64           `json:"package_id"`
	PackageName      string          `json:"package_name"`
	MaxSellable      int64           `json:"max_sellable"`
	RequiredPerPack  decimal.Decimal `json:"required_per_package"`
	PotentialRevenue decimal.Decimal `json:"potential_revenue"`
}

// ProductBottleneck aggregates the impact of one scarce product across all
// packages it constrains. Derived per report invocation, never persisted.
type ProductBottleneck struct {
	ProductID             int64             `json:"product_id"`
	ProductName           string            `json:"product_name"`
	CurrentStock          decimal.Decimal   `json:"current_stock"`
	ReorderPoint          decimal.Decimal   `json:"reorder_point"`
	AffectedPackages      []AffectedPackage `json:"affected_packages"`
	TotalPackagesAffected int               `json:"total_packages_affected"`
	TotalRevenueImpact    decimal.Decimal   `json:"total_revenue_impact"`
	Severity              decimal.Decimal   `json:"severity"`
	OptimalRestock        int64             `json:"optimal_restock"`
}

// BottleneckReport is the full aggregator output.
type BottleneckReport struct {
	Bottlenecks []ProductBottleneck `json:"bottlenecks"`
	Summary     BottleneckSummary   `json:"summary"`
}

// BottleneckSummary describes sweep totals including partial failures.
type BottleneckSummary struct {
	PackagesScanned     int       `json:"packages_scanned"`
	PackagesFailed      int       `json:"packages_failed"`
	ProductsConstrained int       `json:"products_constrained"`
	TotalRevenueImpact  string    `json:"total_revenue_impact"`
	GeneratedAt         time.Time `json:"generated_at"`
}

// ProductImpact reports how one product's scarcity affects the packages that
// list it as a component.
type ProductImpact struct {
	ProductID int64          `json:"product_id"`
	Packages  []Availability `json:"packages"`
}
