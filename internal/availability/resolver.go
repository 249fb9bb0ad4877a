package availability

import (
	"context"
	"errors"

	"github.com/tapcask-pos/tapcask/internal/catalog"
)

// Store is the read-side port onto the product/package store. The engine
// never writes stock through it.
type Store interface {
	GetPackage(ctx context.Context, id int64) (catalog.Package, error)
	GetActivePackages(ctx context.Context) ([]catalog.Package, error)
	GetProductsByIDs(ctx context.Context, ids []int64) (map[int64]catalog.Product, error)
	GetPackagesForProduct(ctx context.Context, productID int64) ([]int64, error)
}

// Resolver produces the calculator input shape for a package. The live and
// snapshot implementations must resolve identically so both execution modes
// feed the same data into the same calculator.
type Resolver interface {
	Resolve(ctx context.Context, pkg catalog.Package) (PackageData, error)
}

// LiveResolver joins package compositions with stock from the authoritative
// store at call time.
type LiveResolver struct {
	store Store
}

// NewLiveResolver constructs LiveResolver.
func NewLiveResolver(store Store) *LiveResolver {
	return &LiveResolver{store: store}
}

// Resolve bulk-fetches component products and builds PackageData. Products
// that cannot be resolved are marked Missing and contribute zero stock.
func (r *LiveResolver) Resolve(ctx context.Context, pkg catalog.Package) (PackageData, error) {
	if r == nil || r.store == nil {
		return PackageData{}, errors.New("availability: live resolver not initialised")
	}
	ids := make([]int64, 0, len(pkg.Items))
	for _, item := range pkg.Items {
		if item.ProductID != 0 {
			ids = append(ids, item.ProductID)
		}
	}
	products, err := r.store.GetProductsByIDs(ctx, ids)
	if err != nil {
		return PackageData{}, err
	}
	return assemble(pkg, products), nil
}

// assemble maps a package composition plus a product lookup into PackageData,
// preserving composition order. Shared by the live and snapshot resolvers so
// the two modes cannot drift.
func assemble(pkg catalog.Package, products map[int64]catalog.Product) PackageData {
	data := PackageData{
		ID:         pkg.ID,
		Name:       pkg.Name,
		BasePrice:  pkg.BasePrice,
		Components: make([]ComponentData, 0, len(pkg.Items)),
	}
	for _, item := range pkg.Items {
		component := ComponentData{
			ProductID: item.ProductID,
			Required:  item.Quantity,
		}
		if product, ok := products[item.ProductID]; ok {
			component.ProductName = product.Name
			component.Stock = product.CurrentStock
		} else {
			component.Missing = true
		}
		data.Components = append(data.Components, component)
	}
	return data
}
