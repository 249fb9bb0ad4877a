package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/tapcask-pos/tapcask/internal/jobs"
	"github.com/tapcask-pos/tapcask/internal/snapshot"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// snapshotRefreshLockTTL caps how long a crashed worker can block rebuilds.
const snapshotRefreshLockTTL = 5 * time.Minute

// SnapshotRefreshJob rebuilds the offline snapshot and publishes it.
type SnapshotRefreshJob struct {
	builder *snapshot.Builder
	store   *snapshot.Store
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewSnapshotRefreshJob constructs the job. metrics may be nil, in which case
// the process-default collectors are used.
func NewSnapshotRefreshJob(builder *snapshot.Builder, store *snapshot.Store, logger *slog.Logger, metrics *jobmetrics.Metrics) *SnapshotRefreshJob {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = defaultJobMetrics
	}
	return &SnapshotRefreshJob{builder: builder, store: store, logger: logger, metrics: metrics}
}

// Handle processes a snapshot refresh task.
func (j *SnapshotRefreshJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload SnapshotRefreshPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	locked, err := j.store.AcquireRefreshLock(ctx, snapshotRefreshLockTTL)
	if err != nil {
		j.logger.Error("snapshot refresh: lock", slog.Any("error", err))
		return err
	}
	if !locked {
		j.logger.Info("snapshot refresh already running elsewhere, skipping")
		return nil
	}
	defer j.store.ReleaseRefreshLock(ctx)

	tracker := j.metrics.Track(TaskSnapshotRefresh)
	snap, err := j.builder.Build(ctx)
	if err != nil {
		j.logger.Error("snapshot refresh: build", slog.Any("error", err))
		return tracker.End(err)
	}
	if err := j.store.Publish(ctx, snap); err != nil {
		j.logger.Error("snapshot refresh: publish", slog.Any("error", err))
		return tracker.End(err)
	}
	j.logger.Info("snapshot refreshed",
		slog.String("version", snap.Version),
		slog.Int("products", len(snap.Products)),
		slog.Int("packages", len(snap.Packages)))
	return tracker.End(nil)
}
