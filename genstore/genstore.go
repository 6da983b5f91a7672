// Package genstore holds the per-key generation counters that make cache
// writes compare-and-swap.
//
// Keys passed in are cache storage keys ("single:<ns>:<key>"). A key that was
// never bumped is at generation 0, which is also what a fresh cache observes.
package genstore

import (
	"context"
	"time"
)

// GenStore abstracts where generations live. LocalGenStore is per process;
// RedisGenStore is shared between replicas and survives restarts.
type GenStore interface {
	// Snapshot returns the current generation, 0 when missing.
	Snapshot(ctx context.Context, storageKey string) (uint64, error)
	// SnapshotMany returns a generation for every key, 0 when missing.
	SnapshotMany(ctx context.Context, storageKeys []string) (map[string]uint64, error)
	// Bump atomically increments and returns the new generation.
	Bump(ctx context.Context, storageKey string) (uint64, error)
	// Cleanup drops entries idle longer than retention. No-op for Redis.
	Cleanup(retention time.Duration)
	Close(context.Context) error
}
