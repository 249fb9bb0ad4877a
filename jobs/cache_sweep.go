package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/tapcask-pos/tapcask/internal/jobs"
)

// CacheSweeper evicts expired availability cache entries.
type CacheSweeper interface {
	SweepCache() int
}

// CacheSweepJob runs periodic cache sweeps. Expiry is already enforced
// lazily on read; the sweep just bounds memory for rarely-read packages.
type CacheSweepJob struct {
	sweeper CacheSweeper
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewCacheSweepJob constructs the job. metrics may be nil, in which case the
// process-default collectors are used.
func NewCacheSweepJob(sweeper CacheSweeper, logger *slog.Logger, metrics *jobmetrics.Metrics) *CacheSweepJob {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = defaultJobMetrics
	}
	return &CacheSweepJob{sweeper: sweeper, logger: logger, metrics: metrics}
}

// Handle processes a cache sweep task.
func (j *CacheSweepJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload CacheSweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tracker := j.metrics.Track(TaskCacheSweep)
	evicted := j.sweeper.SweepCache()
	if evicted > 0 {
		j.logger.Info("availability cache swept", slog.Int("evicted", evicted))
	}
	return tracker.End(nil)
}
