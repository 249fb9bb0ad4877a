package forecast

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/tapcask-pos/tapcask/internal/catalog"
)

// Repository reads the sales history feed from PostgreSQL. Only completed
// orders count as consumption.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// DirectSales aggregates product line items sold directly in the window.
func (r *Repository) DirectSales(ctx context.Context, from, to time.Time) ([]ProductConsumption, error) {
	if r == nil {
		return nil, errors.New("forecast repository not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT oi.product_id, SUM(oi.quantity)
FROM order_items oi
JOIN orders o ON o.id = oi.order_id
WHERE o.status = 'completed'
  AND o.completed_at >= $1 AND o.completed_at < $2
  AND oi.product_id IS NOT NULL
GROUP BY oi.product_id`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []ProductConsumption
	for rows.Next() {
		var (
			productID int64
			qty       pgtype.Numeric
		)
		if err := rows.Scan(&productID, &qty); err != nil {
			return nil, err
		}
		result = append(result, ProductConsumption{ProductID: productID, Quantity: numericToDecimal(qty)})
	}
	return result, rows.Err()
}

// PackageConsumption decomposes package sales into per-component consumption
// in a single aggregate query: package sale quantity times required quantity
// per package, attributed to each component product.
func (r *Repository) PackageConsumption(ctx context.Context, from, to time.Time) ([]PackageConsumptionRow, error) {
	if r == nil {
		return nil, errors.New("forecast repository not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT pi.product_id, oi.package_id, p.name, SUM(oi.quantity * pi.quantity)
FROM order_items oi
JOIN orders o ON o.id = oi.order_id
JOIN packages p ON p.id = oi.package_id
JOIN package_items pi ON pi.package_id = oi.package_id
WHERE o.status = 'completed'
  AND o.completed_at >= $1 AND o.completed_at < $2
  AND oi.package_id IS NOT NULL
GROUP BY pi.product_id, oi.package_id, p.name`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []PackageConsumptionRow
	for rows.Next() {
		var (
			row PackageConsumptionRow
			qty pgtype.Numeric
		)
		if err := rows.Scan(&row.ProductID, &row.PackageID, &row.PackageName, &qty); err != nil {
			return nil, err
		}
		row.Quantity = numericToDecimal(qty)
		result = append(result, row)
	}
	return result, rows.Err()
}

// PackageSales aggregates raw package sale quantities in the window. Input
// of the manual decomposition fallback.
func (r *Repository) PackageSales(ctx context.Context, from, to time.Time) ([]PackageSale, error) {
	rows, err := r.pool.Query(ctx, `SELECT oi.package_id, p.name, SUM(oi.quantity)
FROM order_items oi
JOIN orders o ON o.id = oi.order_id
JOIN packages p ON p.id = oi.package_id
WHERE o.status = 'completed'
  AND o.completed_at >= $1 AND o.completed_at < $2
  AND oi.package_id IS NOT NULL
GROUP BY oi.package_id, p.name`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []PackageSale
	for rows.Next() {
		var (
			sale PackageSale
			qty  pgtype.Numeric
		)
		if err := rows.Scan(&sale.PackageID, &sale.PackageName, &qty); err != nil {
			return nil, err
		}
		sale.Quantity = numericToDecimal(qty)
		result = append(result, sale)
	}
	return result, rows.Err()
}

// PackageCompositions returns every package's items keyed by package id,
// for the manual fallback join.
func (r *Repository) PackageCompositions(ctx context.Context) (map[int64][]catalog.PackageItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT package_id, product_id, quantity, position
FROM package_items ORDER BY package_id, position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make(map[int64][]catalog.PackageItem)
	for rows.Next() {
		var (
			packageID int64
			item      catalog.PackageItem
			qty       pgtype.Numeric
		)
		if err := rows.Scan(&packageID, &item.ProductID, &qty, &item.Position); err != nil {
			return nil, err
		}
		item.Quantity = numericToDecimal(qty)
		result[packageID] = append(result[packageID], item)
	}
	return result, rows.Err()
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}
