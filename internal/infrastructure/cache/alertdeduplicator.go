package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// alertKeyPrefix is the prefix for all alert deduplication keys
const alertKeyPrefix = "plexpatrol:alert:"

// AlertDeduplicator provides Redis-based alert deduplication
type AlertDeduplicator struct {
	client *redis.Client
}

func NewAlertDeduplicator(client *redis.Client) *AlertDeduplicator {
	return &AlertDeduplicator{client: client}
}

func (d *AlertDeduplicator) buildKey(key string) string {
	return alertKeyPrefix + key
}

// TryAcquire atomically claims key for ttl. It returns false while an
// earlier claim is still in its cooldown.
func (d *AlertDeduplicator) TryAcquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	acquired, err := d.client.SetNX(ctx, d.buildKey(key), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire alert lock: %w", err)
	}
	return acquired, nil
}

// Clear drops the cooldown for key.
func (d *AlertDeduplicator) Clear(ctx context.Context, key string) error {
	if err := d.client.Del(ctx, d.buildKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to clear alert: %w", err)
	}
	return nil
}

// RemainingCooldown returns 0 when key is not in cooldown.
func (d *AlertDeduplicator) RemainingCooldown(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := d.client.TTL(ctx, d.buildKey(key)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get cooldown: %w", err)
	}
	// -2 when missing, -1 without expiry
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}
