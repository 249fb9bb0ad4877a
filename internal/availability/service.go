package availability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/tapcask-pos/tapcask/internal/catalog"
	"github.com/tapcask-pos/tapcask/internal/observability"
)

// DefaultRestockPacksTarget sizes restock suggestions as "N packages' worth"
// of the most demanding recipe. A tuning constant, not a derived optimum.
const DefaultRestockPacksTarget = 50

// DefaultSweepConcurrency bounds the aggregator fan-out.
const DefaultSweepConcurrency = 8

// ServiceConfig groups service tuning knobs.
type ServiceConfig struct {
	RestockPacksTarget int64
	SweepConcurrency   int
}

// Service is the engine façade used by order entry, reporting and restock
// planning. It owns the result cache and the authoritative execution path;
// the offline path is OfflineCalculator, fed by the snapshot subsystem.
type Service struct {
	logger   *slog.Logger
	store    Store
	resolver *LiveResolver
	cache    *ResultCache
	metrics  *observability.Metrics

	restockPacksTarget int64
	sweepConcurrency   int
	group              singleflight.Group
	now                func() time.Time
}

// NewService builds Service.
func NewService(logger *slog.Logger, store Store, cache *ResultCache, metrics *observability.Metrics, cfg ServiceConfig) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	target := cfg.RestockPacksTarget
	if target <= 0 {
		target = DefaultRestockPacksTarget
	}
	concurrency := cfg.SweepConcurrency
	if concurrency <= 0 {
		concurrency = DefaultSweepConcurrency
	}
	return &Service{
		logger:             logger,
		store:              store,
		resolver:           NewLiveResolver(store),
		cache:              cache,
		metrics:            metrics,
		restockPacksTarget: target,
		sweepConcurrency:   concurrency,
		now:                time.Now,
	}
}

// CalculatePackageAvailability returns the current availability for one
// package, serving from the cache unless forceRefresh is set or the cached
// entry is missing, expired, or version-stale.
func (s *Service) CalculatePackageAvailability(ctx context.Context, packageID int64, forceRefresh bool) (Availability, error) {
	if forceRefresh {
		s.cache.Invalidate(packageID)
	}
	if cached, ok := s.cache.Get(packageID); ok {
		return cached, nil
	}
	value, err, _ := s.group.Do(fmt.Sprintf("pkg:%d", packageID), func() (any, error) {
		pkg, err := s.store.GetPackage(ctx, packageID)
		if err != nil {
			return Availability{}, err
		}
		return s.computeAndCache(ctx, pkg)
	})
	if err != nil {
		return Availability{}, err
	}
	return value.(Availability), nil
}

// CalculateAllPackageAvailability computes availability for every active
// package. A single failing package degrades to max_sellable 0 and does not
// abort the sweep.
func (s *Service) CalculateAllPackageAvailability(ctx context.Context) ([]Availability, error) {
	packages, err := s.store.GetActivePackages(ctx)
	if err != nil {
		return nil, err
	}
	results, _ := s.sweep(ctx, packages)
	return results, nil
}

// GetProductPackageImpact reports availability for every package that lists
// the product as a component.
func (s *Service) GetProductPackageImpact(ctx context.Context, productID int64) (ProductImpact, error) {
	packageIDs, err := s.store.GetPackagesForProduct(ctx, productID)
	if err != nil {
		return ProductImpact{}, err
	}
	impact := ProductImpact{ProductID: productID, Packages: make([]Availability, 0, len(packageIDs))}
	for _, id := range packageIDs {
		availability, err := s.CalculatePackageAvailability(ctx, id, false)
		if err != nil {
			s.logger.Warn("package impact: skipping package",
				slog.Int64("package_id", id),
				slog.Int64("product_id", productID),
				slog.Any("error", err))
			s.metrics.SweepFailure()
			availability = s.degraded(id, "")
		}
		impact.Packages = append(impact.Packages, availability)
	}
	return impact, nil
}

// InvalidateCache evicts the given package entries, or all entries when
// called without ids.
func (s *Service) InvalidateCache(packageIDs ...int64) {
	s.cache.Invalidate(packageIDs...)
}

// InvalidateCacheForProduct evicts every cached package containing the
// product. Called by the stock-event listener after each stock mutation.
func (s *Service) InvalidateCacheForProduct(productID int64) []int64 {
	affected := s.cache.InvalidateForProduct(productID)
	if len(affected) > 0 {
		s.logger.Debug("cache invalidated for product",
			slog.Int64("product_id", productID),
			slog.Int("packages", len(affected)))
	}
	return affected
}

// RebuildIndex refreshes the product-to-packages invalidation index from
// active package compositions. Run at startup and after composition edits.
func (s *Service) RebuildIndex(ctx context.Context) error {
	packages, err := s.store.GetActivePackages(ctx)
	if err != nil {
		return fmt.Errorf("availability: rebuild index: %w", err)
	}
	index := make(map[int64][]int64)
	for _, pkg := range packages {
		for _, item := range pkg.Items {
			if item.ProductID == 0 {
				continue
			}
			index[item.ProductID] = append(index[item.ProductID], pkg.ID)
		}
	}
	s.cache.ReplaceIndex(index)
	return nil
}

// SweepCache evicts expired cache entries. Exposed for the worker cron.
func (s *Service) SweepCache() int {
	return s.cache.Sweep()
}

func (s *Service) computeAndCache(ctx context.Context, pkg catalog.Package) (Availability, error) {
	data, err := s.resolver.Resolve(ctx, pkg)
	if err != nil {
		return Availability{}, err
	}
	result, err := Calculate(data)
	if err != nil {
		return Availability{}, err
	}
	availability := Availability{
		Result:     result,
		Source:     SourceLive,
		ComputedAt: s.now().UTC(),
	}
	componentIDs := make([]int64, 0, len(pkg.Items))
	for _, item := range pkg.Items {
		if item.ProductID != 0 {
			componentIDs = append(componentIDs, item.ProductID)
		}
	}
	s.cache.Put(pkg.ID, availability, componentIDs)
	return availability, nil
}

// sweep fans availability computation out across packages with bounded
// concurrency. Failures are isolated per package: logged, counted, and
// replaced with a conservative zero-availability entry.
func (s *Service) sweep(ctx context.Context, packages []catalog.Package) ([]Availability, int) {
	results := make([]Availability, len(packages))
	var (
		mu     sync.Mutex
		failed int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.sweepConcurrency)
	for i, pkg := range packages {
		g.Go(func() error {
			availability, err := s.CalculatePackageAvailability(gctx, pkg.ID, false)
			if err != nil {
				s.logger.Warn("availability sweep: package failed",
					slog.Int64("package_id", pkg.ID),
					slog.String("package_name", pkg.Name),
					slog.Any("error", err))
				s.metrics.SweepFailure()
				availability = s.degraded(pkg.ID, pkg.Name)
				mu.Lock()
				failed++
				mu.Unlock()
			}
			results[i] = availability
			return nil
		})
	}
	_ = g.Wait()
	return results, failed
}

// degraded is the conservative answer used when a package cannot be
// calculated: report it as unavailable rather than failing the batch.
func (s *Service) degraded(packageID int64, name string) Availability {
	return Availability{
		Result: Result{
			PackageID:   packageID,
			PackageName: name,
			MaxSellable: 0,
			Breakdown:   []ComponentLimit{},
		},
		Source:     SourceLive,
		ComputedAt: s.now().UTC(),
	}
}
