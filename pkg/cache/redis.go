package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"octa-backend/pkg/config"
)

var (
	RedisClient *redis.Client
	ctx         = context.Background()
)

// RedisCache wraps the shared client for components that want an injectable
// handle instead of the package-level functions
type RedisCache struct {
	client *redis.Client
	ctx    context.Context
}

// Client returns the underlying Redis client
func (r *RedisCache) Client() *redis.Client { return r.client }

// Context returns the cache's base context
func (r *RedisCache) Context() context.Context { return r.ctx }

// NewRedisCache returns a handle over the initialized client, or nil when
// Redis is unavailable so callers can fall back to the database.
func NewRedisCache() *RedisCache {
	if RedisClient == nil {
		return nil
	}
	return &RedisCache{client: RedisClient, ctx: ctx}
}

// Initialize Redis connection
func Initialize(cfg *config.Config) error {
	RedisClient = redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisURL(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.Database,
		PoolSize:     cfg.Redis.PoolSize,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  60 * time.Second,
	})

	// Test connection
	_, err := RedisClient.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logrus.Info("Redis connected successfully")
	return nil
}

// Cache keys constants
const (
	KeyUserBalance     = "user:balance:%d"     // user:balance:123
	KeyUserPercentages = "user:percentages:%d" // user:percentages:123
	KeyPendingCounts   = "admin:pending_counts"
	KeyPaymentMethods  = "payment:methods"
)

// Cache expiration times
const (
	ExpireUserBalance     = 30 * time.Second
	ExpireUserPercentages = 60 * time.Second
	ExpirePendingCounts   = 10 * time.Second
	ExpirePaymentMethods  = 300 * time.Second
)

// Set stores a value in Redis with expiration
func Set(key string, value interface{}, expiration time.Duration) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	err = RedisClient.Set(ctx, key, jsonValue, expiration).Err()
	if err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}

	return nil
}

// Get retrieves a value from Redis
func Get(key string, dest interface{}) error {
	val, err := RedisClient.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return fmt.Errorf("key %s not found", key)
		}
		return fmt.Errorf("failed to get key %s: %w", key, err)
	}

	err = json.Unmarshal([]byte(val), dest)
	if err != nil {
		return fmt.Errorf("failed to unmarshal value for key %s: %w", key, err)
	}

	return nil
}

// Delete removes a key from Redis
func Delete(key string) error {
	err := RedisClient.Del(ctx, key).Err()
	if err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

// Exists checks if a key exists in Redis
func Exists(key string) bool {
	result, err := RedisClient.Exists(ctx, key).Result()
	if err != nil {
		return false
	}
	return result > 0
}

// Increment atomically increments a key
func Increment(key string) (int64, error) {
	result, err := RedisClient.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment key %s: %w", key, err)
	}

	return result, nil
}

// Expire sets expiration for a key
func Expire(key string, expiration time.Duration) error {
	err := RedisClient.Expire(ctx, key, expiration).Err()
	if err != nil {
		return fmt.Errorf("failed to set expiration for key %s: %w", key, err)
	}

	return nil
}

// Close closes the Redis connection
func Close() error {
	if RedisClient != nil {
		return RedisClient.Close()
	}
	return nil
}

// HealthCheck checks if Redis is healthy
func HealthCheck() error {
	if RedisClient == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	_, err := RedisClient.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("Redis ping failed: %w", err)
	}

	return nil
}

// Helper functions for common cache operations

// CacheUserBalance caches a user's balance snapshot
func CacheUserBalance(userID uint, balance interface{}) error {
	key := fmt.Sprintf(KeyUserBalance, userID)
	return Set(key, balance, ExpireUserBalance)
}

// GetUserBalance retrieves a cached balance snapshot
func GetUserBalance(userID uint, dest interface{}) error {
	key := fmt.Sprintf(KeyUserBalance, userID)
	return Get(key, dest)
}

// InvalidateUserBalance removes a cached balance snapshot. Called after
// every credit or debit.
func InvalidateUserBalance(userID uint) error {
	key := fmt.Sprintf(KeyUserBalance, userID)
	return Delete(key)
}

// CacheUserPercentages caches a user's charge percentage schedule
func CacheUserPercentages(userID uint, pct interface{}) error {
	key := fmt.Sprintf(KeyUserPercentages, userID)
	return Set(key, pct, ExpireUserPercentages)
}

// GetUserPercentages retrieves a cached charge percentage schedule
func GetUserPercentages(userID uint, dest interface{}) error {
	key := fmt.Sprintf(KeyUserPercentages, userID)
	return Get(key, dest)
}

// InvalidateUserPercentages removes cached charge percentages. Called after
// an admin rewrites a user's schedule.
func InvalidateUserPercentages(userID uint) error {
	key := fmt.Sprintf(KeyUserPercentages, userID)
	return Delete(key)
}

// CachePendingCounts caches the back-office pending work counters
func CachePendingCounts(counts interface{}) error {
	return Set(KeyPendingCounts, counts, ExpirePendingCounts)
}

// GetPendingCounts retrieves the cached pending work counters
func GetPendingCounts(dest interface{}) error {
	return Get(KeyPendingCounts, dest)
}

// InvalidatePaymentMethods removes the cached payment method list
func InvalidatePaymentMethods() error {
	return Delete(KeyPaymentMethods)
}
