// Package snapshot builds and serves the read-only product/package copy that
// offline clients synchronize while connected. The snapshot itself is the
// staleness boundary for offline availability answers.
package snapshot

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/tapcask-pos/tapcask/internal/catalog"
)

// Snapshot is a point-in-time copy of products and active packages.
type Snapshot struct {
	Version  string            `json:"version"`
	TakenAt  time.Time         `json:"taken_at"`
	Products []catalog.Product `json:"products"`
	Packages []catalog.Package `json:"packages"`
}

// ProductIndex returns products keyed by id.
func (s *Snapshot) ProductIndex() map[int64]catalog.Product {
	index := make(map[int64]catalog.Product, len(s.Products))
	for _, p := range s.Products {
		index[p.ID] = p
	}
	return index
}

// PackageByID finds a package in the snapshot.
func (s *Snapshot) PackageByID(id int64) (catalog.Package, bool) {
	for _, pkg := range s.Packages {
		if pkg.ID == id {
			return pkg, true
		}
	}
	return catalog.Package{}, false
}

// SourcePort lists the store reads needed to assemble a snapshot.
type SourcePort interface {
	ListProducts(ctx context.Context) ([]catalog.Product, error)
	GetActivePackages(ctx context.Context) ([]catalog.Package, error)
}

// Builder assembles snapshots from the authoritative store.
type Builder struct {
	source SourcePort
	now    func() time.Time
}

// NewBuilder constructs Builder.
func NewBuilder(source SourcePort) *Builder {
	return &Builder{source: source, now: time.Now}
}

// Build pulls all products and active packages into a fresh snapshot.
func (b *Builder) Build(ctx context.Context) (Snapshot, error) {
	if b == nil || b.source == nil {
		return Snapshot{}, errors.New("snapshot: builder not initialised")
	}
	products, err := b.source.ListProducts(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	packages, err := b.source.GetActivePackages(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Version:  uuid.NewString(),
		TakenAt:  b.now().UTC(),
		Products: products,
		Packages: packages,
	}, nil
}
