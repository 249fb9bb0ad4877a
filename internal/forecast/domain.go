package forecast

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Priority classifies how urgently a product needs reordering.
type Priority string

const (
	// PriorityUrgent means projected stockout in under a week.
	PriorityUrgent Priority = "urgent"
	// PriorityHigh means projected stockout within the default buffer.
	PriorityHigh Priority = "high"
	// PriorityNormal means no imminent stockout risk.
	PriorityNormal Priority = "normal"
)

// StockoutSentinelDays stands in for "no imminent risk" when a product has
// zero observed velocity. Never the result of a division.
const StockoutSentinelDays = 9999.0

// DefaultBufferDays is the restock coverage window.
const DefaultBufferDays = 14

// Params bounds a recommendation run.
type Params struct {
	From       time.Time
	To         time.Time
	BufferDays int
}

// WindowDays returns the observation window length in days.
func (p Params) WindowDays() float64 {
	return p.To.Sub(p.From).Hours() / 24
}

// Validate checks window sanity.
func (p Params) Validate() error {
	if p.From.IsZero() || p.To.IsZero() {
		return errors.New("forecast: window bounds required")
	}
	if !p.To.After(p.From) {
		return errors.New("forecast: window end must be after start")
	}
	return nil
}

// ProductConsumption is an aggregated direct-sales figure per product.
type ProductConsumption struct {
	ProductID int64
	Quantity  decimal.Decimal
}

// PackageConsumptionRow attributes component consumption to the package
// whose sales caused it.
type PackageConsumptionRow struct {
	ProductID   int64
	PackageID   int64
	PackageName string
	Quantity    decimal.Decimal
}

// PackageSale is a raw aggregated package sale, input of the manual
// decomposition fallback.
type PackageSale struct {
	PackageID   int64
	PackageName string
	Quantity    decimal.Decimal
}

// PackageUsage is one package's share of a product's consumption.
type PackageUsage struct {
	PackageID   int64           `json:"package_id"`
	PackageName string          `json:"package_name"`
	Consumed    decimal.Decimal `json:"consumed"`
	SharePct    decimal.Decimal `json:"share_pct"`
}

// Recommendation is a per-product reorder suggestion for one report window.
type Recommendation struct {
	ProductID          int64           `json:"product_id"`
	ProductName        string          `json:"product_name"`
	SKU                string          `json:"sku"`
	CurrentStock       decimal.Decimal `json:"current_stock"`
	DirectSales        decimal.Decimal `json:"direct_sales"`
	PackageConsumption decimal.Decimal `json:"package_consumption"`
	TotalConsumed      decimal.Decimal `json:"total_consumed"`
	DailyVelocity      decimal.Decimal `json:"daily_velocity"`
	DaysUntilStockout  float64         `json:"days_until_stockout"`
	RecommendedReorder int64           `json:"recommended_reorder"`
	Priority           Priority        `json:"priority"`
	UsageBreakdown     []PackageUsage  `json:"usage_breakdown"`
}
