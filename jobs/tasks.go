package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

// QueueDefault is the default asynq queue name.
const QueueDefault = "default"

const (
	// TaskSnapshotRefresh rebuilds and publishes the offline snapshot.
	TaskSnapshotRefresh = "snapshot:refresh"
	// TaskCacheSweep evicts expired availability cache entries.
	TaskCacheSweep = "availability:cache_sweep"
)

// SnapshotRefreshPayload carries scheduling metadata.
type SnapshotRefreshPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewSnapshotRefreshTask constructs an asynq task for snapshot refresh.
func NewSnapshotRefreshTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(SnapshotRefreshPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSnapshotRefresh, body, asynq.Queue(QueueDefault)), nil
}

// CacheSweepPayload carries scheduling metadata.
type CacheSweepPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewCacheSweepTask constructs an asynq task for a cache sweep.
func NewCacheSweepTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(CacheSweepPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCacheSweep, body, asynq.Queue(QueueDefault)), nil
}
