package availability

import (
	"context"
	"fmt"
	"sync"

	"github.com/tapcask-pos/tapcask/internal/catalog"
	"github.com/tapcask-pos/tapcask/internal/shared"
)

// memoryStore is an in-memory Store used across the package tests.
// Packages are listed in insertion order.
type memoryStore struct {
	mu       sync.Mutex
	products map[int64]catalog.Product
	packages map[int64]catalog.Package
	order    []int64
	// failing maps package ids to an error returned by GetPackage.
	failing map[int64]error
	calls   map[string]int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		products: make(map[int64]catalog.Product),
		packages: make(map[int64]catalog.Package),
		failing:  make(map[int64]error),
		calls:    make(map[string]int),
	}
}

func (m *memoryStore) addProduct(p catalog.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = p
}

func (m *memoryStore) addPackage(p catalog.Package) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.packages[p.ID]; !ok {
		m.order = append(m.order, p.ID)
	}
	m.packages[p.ID] = p
}

func (m *memoryStore) callCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *memoryStore) GetPackage(_ context.Context, id int64) (catalog.Package, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["GetPackage"]++
	if err, ok := m.failing[id]; ok {
		return catalog.Package{}, err
	}
	pkg, ok := m.packages[id]
	if !ok {
		return catalog.Package{}, fmt.Errorf("package %d: %w", id, shared.ErrNotFound)
	}
	return pkg, nil
}

func (m *memoryStore) GetActivePackages(_ context.Context) ([]catalog.Package, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["GetActivePackages"]++
	out := make([]catalog.Package, 0, len(m.order))
	for _, id := range m.order {
		if pkg := m.packages[id]; pkg.IsActive {
			out = append(out, pkg)
		}
	}
	return out, nil
}

func (m *memoryStore) GetProductsByIDs(_ context.Context, ids []int64) (map[int64]catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["GetProductsByIDs"]++
	out := make(map[int64]catalog.Product, len(ids))
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (m *memoryStore) GetPackagesForProduct(_ context.Context, productID int64) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["GetPackagesForProduct"]++
	var out []int64
	for _, id := range m.order {
		pkg := m.packages[id]
		if !pkg.IsActive {
			continue
		}
		for _, item := range pkg.Items {
			if item.ProductID == productID {
				out = append(out, id)
				break
			}
		}
	}
	return out, nil
}
