package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nucleo/portfolio-tracker/internal/config"
)

// priceMapKey holds the most recently assembled price map for the read API
const priceMapKey = "prices:current"

// RedisCache wraps the Redis client
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new Redis cache connection
func NewRedisCache(cfg *config.RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.MaxConnections,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

// NewRedisCacheFromClient wraps an existing client (used by tests)
func NewRedisCacheFromClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Close closes the Redis connection
func (r *RedisCache) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// Client returns the underlying Redis client
func (r *RedisCache) Client() *redis.Client {
	return r.client
}

// Ping checks if Redis is reachable
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// StorePriceMap caches the assembled asset price map with a TTL
func (r *RedisCache) StorePriceMap(ctx context.Context, prices map[string]float64, ttl time.Duration) error {
	payload, err := json.Marshal(prices)
	if err != nil {
		return fmt.Errorf("failed to marshal price map: %w", err)
	}

	if err := r.client.Set(ctx, priceMapKey, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache price map: %w", err)
	}

	return nil
}

// GetPriceMap returns the cached price map, or nil when absent or expired
func (r *RedisCache) GetPriceMap(ctx context.Context) (map[string]float64, error) {
	payload, err := r.client.Get(ctx, priceMapKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cached price map: %w", err)
	}

	prices := make(map[string]float64)
	if err := json.Unmarshal(payload, &prices); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached price map: %w", err)
	}

	return prices, nil
}
