package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/parishdesk/reporting/internal/model"
)

const (
	snapshotKeyPrefix = "snapshot:"
	latestSnapshotKey = "snapshot:latest"
)

// SaveSnapshot stores the snapshot and points the latest marker at it.
func (c *Cache) SaveSnapshot(ctx context.Context, snap *model.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, snapshotKeyPrefix+snap.ID, data, c.ttl)
	pipe.Set(ctx, latestSnapshotKey, snap.ID, c.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache snapshot: %w", err)
	}
	return nil
}

// GetSnapshot retrieves a snapshot by ID.
// Returns ErrCacheMiss if not found.
func (c *Cache) GetSnapshot(ctx context.Context, id string) (*model.Snapshot, error) {
	data, err := c.client.Get(ctx, snapshotKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// LatestSnapshot returns the most recently saved snapshot.
func (c *Cache) LatestSnapshot(ctx context.Context) (*model.Snapshot, error) {
	id, err := c.client.Get(ctx, latestSnapshotKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return c.GetSnapshot(ctx, id)
}
