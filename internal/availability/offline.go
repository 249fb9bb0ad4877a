package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/tapcask-pos/tapcask/internal/catalog"
	"github.com/tapcask-pos/tapcask/internal/shared"
	"github.com/tapcask-pos/tapcask/internal/snapshot"
)

// SnapshotResolver resolves package data from a synchronized local snapshot
// instead of the live store. It shares assemble with LiveResolver, so both
// modes produce identical PackageData for identical underlying data.
type SnapshotResolver struct {
	products map[int64]catalog.Product
}

// NewSnapshotResolver constructs SnapshotResolver over a snapshot.
func NewSnapshotResolver(snap snapshot.Snapshot) *SnapshotResolver {
	return &SnapshotResolver{products: snap.ProductIndex()}
}

// Resolve builds PackageData from snapshot contents. The context is unused;
// snapshot resolution touches nothing external.
func (r *SnapshotResolver) Resolve(_ context.Context, pkg catalog.Package) (PackageData, error) {
	return assemble(pkg, r.products), nil
}

// OfflineCalculator answers availability questions from a local snapshot
// while disconnected. Results lag the last sync by design; they carry the
// snapshot timestamp so callers can display a staleness indicator. It holds
// no cache: the snapshot itself is the staleness boundary.
type OfflineCalculator struct {
	snap     snapshot.Snapshot
	resolver *SnapshotResolver
}

// NewOfflineCalculator constructs OfflineCalculator.
func NewOfflineCalculator(snap snapshot.Snapshot) *OfflineCalculator {
	return &OfflineCalculator{snap: snap, resolver: NewSnapshotResolver(snap)}
}

// SnapshotTakenAt reports when the underlying snapshot was taken.
func (o *OfflineCalculator) SnapshotTakenAt() time.Time {
	return o.snap.TakenAt
}

// Availability computes availability for one package. It completes
// synchronously; there is no I/O to wait on.
func (o *OfflineCalculator) Availability(packageID int64) (Availability, error) {
	pkg, ok := o.snap.PackageByID(packageID)
	if !ok {
		return Availability{}, fmt.Errorf("package %d: %w", packageID, shared.ErrNotFound)
	}
	data, err := o.resolver.Resolve(context.Background(), pkg)
	if err != nil {
		return Availability{}, err
	}
	result, err := Calculate(data)
	if err != nil {
		return Availability{}, err
	}
	return o.stamp(result), nil
}

// AllAvailability computes availability for every package in the snapshot.
func (o *OfflineCalculator) AllAvailability() ([]Availability, error) {
	out := make([]Availability, 0, len(o.snap.Packages))
	for _, pkg := range o.snap.Packages {
		data, err := o.resolver.Resolve(context.Background(), pkg)
		if err != nil {
			return nil, err
		}
		result, err := Calculate(data)
		if err != nil {
			return nil, err
		}
		out = append(out, o.stamp(result))
	}
	return out, nil
}

func (o *OfflineCalculator) stamp(result Result) Availability {
	taken := o.snap.TakenAt
	return Availability{
		Result:          result,
		Source:          SourceSnapshot,
		ComputedAt:      time.Now().UTC(),
		SnapshotTakenAt: &taken,
	}
}
