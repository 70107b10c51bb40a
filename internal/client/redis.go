package client

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/windfall/spellcheck_service/internal/repository"
)

const spellCatalogKey = "spells:catalog"

// RedisClient wraps the go-redis client. It caches the spell catalog.
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient creates a new Redis client from URL.
// URL format: redis://[:password@]host:port/db
func NewRedisClient(url string) (*RedisClient, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisClientFrom(client), nil
}

// NewRedisClientFrom wraps an existing go-redis client.
func NewRedisClientFrom(client *redis.Client) *RedisClient {
	return &RedisClient{client: client}
}

// Close closes the Redis connection.
func (r *RedisClient) Close() error {
	return r.client.Close()
}

// GetSpells returns the cached catalog. A miss returns nil, false, nil.
func (r *RedisClient) GetSpells(ctx context.Context) ([]*repository.Spell, bool, error) {
	data, err := r.client.Get(ctx, spellCatalogKey).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read spell cache: %w", err)
	}

	var spells []*repository.Spell
	if err := json.Unmarshal(data, &spells); err != nil {
		return nil, false, fmt.Errorf("failed to decode spell cache: %w", err)
	}
	return spells, true, nil
}

// SetSpells stores the catalog with the given TTL.
func (r *RedisClient) SetSpells(ctx context.Context, spells []*repository.Spell, ttl time.Duration) error {
	data, err := json.Marshal(spells)
	if err != nil {
		return fmt.Errorf("failed to marshal spells: %w", err)
	}
	return r.client.Set(ctx, spellCatalogKey, data, ttl).Err()
}

// InvalidateSpells drops the cached catalog.
func (r *RedisClient) InvalidateSpells(ctx context.Context) error {
	return r.client.Del(ctx, spellCatalogKey).Err()
}

// Ping checks Redis connectivity.
func (r *RedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
