package shared

// SnapshotRefreshLockKey is the redis key guarding concurrent snapshot
// rebuilds across worker replicas.
const SnapshotRefreshLockKey = "tapcask:snapshot:refresh:lock"
