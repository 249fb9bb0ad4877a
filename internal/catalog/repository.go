package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/tapcask-pos/tapcask/internal/shared"
)

// Repository reads products and packages from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetProduct fetches a single product by id.
func (r *Repository) GetProduct(ctx context.Context, id int64) (Product, error) {
	if r == nil {
		return Product{}, errors.New("catalog repository not initialised")
	}
	row := r.pool.QueryRow(ctx, `SELECT id, sku, name, current_stock, reorder_point, cost_price
FROM products WHERE id=$1`, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, fmt.Errorf("product %d: %w", id, shared.ErrNotFound)
		}
		return Product{}, err
	}
	return p, nil
}

// GetProductsByIDs fetches products in bulk, keyed by id. Missing ids are
// simply absent from the map; the caller applies the zero-stock rule.
func (r *Repository) GetProductsByIDs(ctx context.Context, ids []int64) (map[int64]Product, error) {
	result := make(map[int64]Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT id, sku, name, current_stock, reorder_point, cost_price
FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result[p.ID] = p
	}
	return result, rows.Err()
}

// ListProducts returns every product, ordered by id. Used by the snapshot
// builder and the forecaster.
func (r *Repository) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, sku, name, current_stock, reorder_point, cost_price
FROM products ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// GetPackage fetches a package with its composition ordered by position.
func (r *Repository) GetPackage(ctx context.Context, id int64) (Package, error) {
	if r == nil {
		return Package{}, errors.New("catalog repository not initialised")
	}
	row := r.pool.QueryRow(ctx, `SELECT id, name, base_price, is_active FROM packages WHERE id=$1`, id)
	pkg, err := scanPackage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Package{}, fmt.Errorf("package %d: %w", id, shared.ErrNotFound)
		}
		return Package{}, err
	}
	items, err := r.packageItems(ctx, pkg.ID)
	if err != nil {
		return Package{}, err
	}
	pkg.Items = items
	return pkg, nil
}

// GetActivePackages returns all active packages with compositions resolved.
func (r *Repository) GetActivePackages(ctx context.Context) ([]Package, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, base_price, is_active FROM packages
WHERE is_active ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var packages []Package
	for rows.Next() {
		pkg, err := scanPackage(rows)
		if err != nil {
			return nil, err
		}
		packages = append(packages, pkg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range packages {
		items, err := r.packageItems(ctx, packages[i].ID)
		if err != nil {
			return nil, err
		}
		packages[i].Items = items
	}
	return packages, nil
}

// GetPackagesForProduct returns ids of packages listing the product as a
// component. Backs the cache invalidation index.
func (r *Repository) GetPackagesForProduct(ctx context.Context, productID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT package_id FROM package_items
WHERE product_id=$1 ORDER BY package_id`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *Repository) packageItems(ctx context.Context, packageID int64) ([]PackageItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT product_id, quantity, position FROM package_items
WHERE package_id=$1 ORDER BY position, product_id`, packageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PackageItem
	for rows.Next() {
		var (
			productID pgtype.Int8
			qty       pgtype.Numeric
			position  int
		)
		if err := rows.Scan(&productID, &qty, &position); err != nil {
			return nil, err
		}
		if !productID.Valid {
			return nil, shared.IntegrityError("package", packageID, "item references null product")
		}
		items = append(items, PackageItem{
			ProductID: productID.Int64,
			Quantity:  numericToDecimal(qty),
			Position:  position,
		})
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (Product, error) {
	var (
		p                              Product
		stock, reorderPoint, costPrice pgtype.Numeric
	)
	if err := row.Scan(&p.ID, &p.SKU, &p.Name, &stock, &reorderPoint, &costPrice); err != nil {
		return Product{}, err
	}
	p.CurrentStock = numericToDecimal(stock)
	p.ReorderPoint = numericToDecimal(reorderPoint)
	p.CostPrice = numericToDecimal(costPrice)
	return p, nil
}

func scanPackage(row rowScanner) (Package, error) {
	var (
		pkg   Package
		price pgtype.Numeric
	)
	if err := row.Scan(&pkg.ID, &pkg.Name, &price, &pkg.IsActive); err != nil {
		return Package{}, err
	}
	pkg.BasePrice = numericToDecimal(price)
	return pkg, nil
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}
