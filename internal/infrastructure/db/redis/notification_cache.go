package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/supplyhub/supplier-console/internal/core/domain"
)

// setIfCurrent writes the page only while the user's version still matches
// the one the caller fetched under. A missing version key counts as 0.
//
// KEYS[1] version key, KEYS[2] page key
// ARGV[1] expected version, ARGV[2] payload, ARGV[3] ttl in milliseconds
var setIfCurrent = redis.NewScript(`
local current = redis.call('GET', KEYS[1]) or '0'
if current ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
return 1
`)

// NotificationCache stores notification pages per user. Pages are keyed by a
// per-user version number; Invalidate bumps the version so every cached page
// of that user becomes unreachable at once and ages out on its TTL.
//
// Key format:
//
//	notifications:<user_id>:ver
//	notifications:<user_id>:v<version>:p<page>:l<limit>
type NotificationCache struct {
	client *redis.Client
}

// NewNotificationCache creates a NotificationCache wrapping the given Redis client.
func NewNotificationCache(client *redis.Client) *NotificationCache {
	return &NotificationCache{client: client}
}

// Version returns the user's current cache version, 0 when never invalidated.
func (c *NotificationCache) Version(ctx context.Context, userID string) (int64, error) {
	ver, err := c.client.Get(ctx, c.versionKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("notification cache version: %w", err)
	}
	return ver, nil
}

func (c *NotificationCache) Get(ctx context.Context, userID string, version int64, page, limit int) (*domain.NotificationPage, bool, error) {
	raw, err := c.client.Get(ctx, c.pageKey(userID, version, page, limit)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("notification cache get: %w", err)
	}

	var p domain.NotificationPage
	if err := json.Unmarshal(raw, &p); err != nil {
		// A corrupt entry is a miss; the next Set overwrites it.
		return nil, false, nil
	}
	return &p, true, nil
}

// Set stores p under version. When the user was invalidated since version
// was read, the page is dropped without error.
func (c *NotificationCache) Set(ctx context.Context, userID string, version int64, page, limit int, p *domain.NotificationPage, ttl time.Duration) error {
	if ttl < time.Millisecond {
		return errors.New("notification cache set: ttl must be at least 1ms")
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("notification cache encode: %w", err)
	}

	keys := []string{c.versionKey(userID), c.pageKey(userID, version, page, limit)}
	args := []any{strconv.FormatInt(version, 10), raw, ttl.Milliseconds()}
	if err := setIfCurrent.Run(ctx, c.client, keys, args...).Err(); err != nil {
		return fmt.Errorf("notification cache set: %w", err)
	}
	return nil
}

// Invalidate drops every cached page of userID.
func (c *NotificationCache) Invalidate(ctx context.Context, userID string) error {
	if err := c.client.Incr(ctx, c.versionKey(userID)).Err(); err != nil {
		return fmt.Errorf("notification cache invalidate: %w", err)
	}
	return nil
}

func (c *NotificationCache) pageKey(userID string, version int64, page, limit int) string {
	return fmt.Sprintf("notifications:%s:v%d:p%d:l%d", userID, version, page, limit)
}

func (c *NotificationCache) versionKey(userID string) string {
	return "notifications:" + userID + ":ver"
}
