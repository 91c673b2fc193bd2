package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sg-semilla/semilla-auth/internal/config"
)

const (
	defaultTimeout = 5 * time.Second
	defaultTTL     = 10 * time.Minute

	// KeyPrefix prefixes all permission cache keys: semilla:role-permissions:<roleID>.
	KeyPrefix = "semilla:role-permissions:"

	scanBatch = 100
)

// Connect initialises a Redis client and validates connectivity with a ping.
func Connect(ctx context.Context, cfg config.Redis) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return client, nil
}

// Redis is a PermissionCache storing JSON encoded code lists with a TTL.
type Redis struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedis wraps client. A ttl <= 0 uses 10 minutes.
func NewRedis(client redis.UniversalClient, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = defaultTTL
	}

	return &Redis{client: client, ttl: ttl}
}

// Key returns the cache key of a role.
func Key(roleID uint) string {
	return KeyPrefix + strconv.FormatUint(uint64(roleID), 10)
}

// Get implements PermissionCache.
func (r *Redis) Get(ctx context.Context, roleID uint) ([]string, bool, error) {
	raw, err := r.client.Get(ctx, Key(roleID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("permission cache get: %w", err)
	}

	var codes []string
	if err = json.Unmarshal(raw, &codes); err != nil {
		return nil, false, fmt.Errorf("permission cache decode: %w", err)
	}

	return codes, true, nil
}

// Set implements PermissionCache.
func (r *Redis) Set(ctx context.Context, roleID uint, codes []string) error {
	if codes == nil {
		codes = []string{}
	}

	raw, err := json.Marshal(codes)
	if err != nil {
		return fmt.Errorf("permission cache encode: %w", err)
	}

	if err = r.client.Set(ctx, Key(roleID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("permission cache set: %w", err)
	}

	return nil
}

// Invalidate implements PermissionCache.
func (r *Redis) Invalidate(ctx context.Context, roleIDs ...uint) error {
	if len(roleIDs) == 0 {
		return nil
	}

	keys := make([]string, 0, len(roleIDs))
	for _, id := range roleIDs {
		keys = append(keys, Key(id))
	}

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("permission cache invalidate: %w", err)
	}

	return nil
}

// InvalidateAll implements PermissionCache.
func (r *Redis) InvalidateAll(ctx context.Context) error {
	var keys []string

	iter := r.client.Scan(ctx, 0, KeyPrefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("permission cache scan: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("permission cache invalidate all: %w", err)
	}

	return nil
}
