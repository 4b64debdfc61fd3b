package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const bumpChannel = "units.bump"

// StatusCache wraps Redis caching of per-product status counts. Each
// tenant+product pair has its own version key; mutations bump it so readers
// move to a fresh key while stale entries expire by TTL.
type StatusCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStatusCache instantiates the cache helper. A nil client disables caching.
func NewStatusCache(client *redis.Client, ttl time.Duration) *StatusCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &StatusCache{client: client, ttl: ttl}
}

func versionKey(tenantID, productID uuid.UUID) string {
	return fmt.Sprintf("units:version:%s:%s", tenantID, productID)
}

// Version returns the current version for the pair, initialising when missing.
func (c *StatusCache) Version(ctx context.Context, tenantID, productID uuid.UUID) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	key := versionKey(tenantID, productID)
	ver, err := c.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.SetNX(ctx, key, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, key).Int64()
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// Fetch loads cached counts or populates them using the loader.
func (c *StatusCache) Fetch(ctx context.Context, tenantID, productID uuid.UUID, loader func(context.Context) (StatusCounts, error)) (StatusCounts, error) {
	if loader == nil {
		return nil, errors.New("cache: loader required")
	}
	if c == nil || c.client == nil {
		return loader(ctx)
	}
	ver, err := c.Version(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("units:status:%s:%s:%d", tenantID, productID, ver)
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var counts StatusCounts
		if err := json.Unmarshal(payload, &counts); err != nil {
			return nil, err
		}
		return counts, nil
	}
	if !errors.Is(err, redis.Nil) {
		return nil, err
	}
	counts, err := loader(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(counts)
	if err != nil {
		return nil, err
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

// Bump invalidates the pair by incrementing its version and publishing an event.
func (c *StatusCache) Bump(ctx context.Context, tenantID, productID uuid.UUID) error {
	if c == nil || c.client == nil {
		return nil
	}
	ver, err := c.client.Incr(ctx, versionKey(tenantID, productID)).Result()
	if err != nil {
		return err
	}
	return c.client.Publish(ctx, bumpChannel, productID.String()+":"+strconv.FormatInt(ver, 10)).Err()
}
