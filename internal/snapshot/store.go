package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tapcask-pos/tapcask/internal/shared"
)

const snapshotKey = "tapcask:snapshot:current"

// ErrNoSnapshot indicates no snapshot has been published yet.
var ErrNoSnapshot = errors.New("snapshot: none published")

// Store persists the current snapshot in redis so every API replica serves
// the same copy to syncing clients.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore constructs Store. A non-positive ttl keeps snapshots forever
// until replaced.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Publish replaces the current snapshot.
func (s *Store) Publish(ctx context.Context, snap Snapshot) error {
	if s == nil || s.client == nil {
		return errors.New("snapshot: store not initialised")
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("snapshot: marshal: %w", err)
	}
	ttl := s.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, snapshotKey, payload, ttl).Err(); err != nil {
		return fmt.Errorf("snapshot: publish: %w", err)
	}
	return nil
}

// AcquireRefreshLock takes the cross-replica rebuild lock. Returns false
// when another worker holds it. ttl bounds how long a crashed worker can
// keep the lock.
func (s *Store) AcquireRefreshLock(ctx context.Context, ttl time.Duration) (bool, error) {
	if s == nil || s.client == nil {
		return false, errors.New("snapshot: store not initialised")
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	ok, err := s.client.SetNX(ctx, shared.SnapshotRefreshLockKey, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("snapshot: acquire lock: %w", err)
	}
	return ok, nil
}

// ReleaseRefreshLock drops the rebuild lock.
func (s *Store) ReleaseRefreshLock(ctx context.Context) {
	if s == nil || s.client == nil {
		return
	}
	_ = s.client.Del(ctx, shared.SnapshotRefreshLockKey).Err()
}

// Current fetches the published snapshot.
func (s *Store) Current(ctx context.Context) (Snapshot, error) {
	if s == nil || s.client == nil {
		return Snapshot{}, errors.New("snapshot: store not initialised")
	}
	payload, err := s.client.Get(ctx, snapshotKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Snapshot{}, ErrNoSnapshot
		}
		return Snapshot{}, fmt.Errorf("snapshot: fetch: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("snapshot: unmarshal: %w", err)
	}
	return snap, nil
}
