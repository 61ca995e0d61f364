package retention

import (
	"context"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// DefaultKey is the sorted set holding stored uploads scored by unix time.
const DefaultKey = "leafcheck:uploads"

// SortedSet abstracts the Redis operations the index needs so it can be
// tested without a server.
type SortedSet interface {
	ZAdd(ctx context.Context, key string, score float64, member string) error
	ZRangeByScore(ctx context.Context, key string, max float64) ([]string, error)
	ZRem(ctx context.Context, key string, members ...string) error
}

// RedisSortedSet is the go-redis backed SortedSet.
type RedisSortedSet struct {
	client *redis.Client
}

// NewRedisSortedSet wraps a Redis client.
func NewRedisSortedSet(client *redis.Client) *RedisSortedSet {
	return &RedisSortedSet{client: client}
}

// ZAdd adds or updates member.
func (s *RedisSortedSet) ZAdd(ctx context.Context, key string, score float64, member string) error {
	return s.client.ZAdd(ctx, key, &redis.Z{Score: score, Member: member}).Err()
}

// ZRangeByScore lists members scored at or below max.
func (s *RedisSortedSet) ZRangeByScore(ctx context.Context, key string, max float64) ([]string, error) {
	return s.client.ZRangeByScore(ctx, key, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatFloat(max, 'f', -1, 64),
	}).Result()
}

// ZRem removes members.
func (s *RedisSortedSet) ZRem(ctx context.Context, key string, members ...string) error {
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	return s.client.ZRem(ctx, key, args...).Err()
}

// RedisIndex keeps the upload index in a Redis sorted set so several
// replicas sharing one upload volume agree on what to delete.
type RedisIndex struct {
	set    SortedSet
	key    string
	logger *zap.Logger
	retry  retryPolicy
}

// NewRedisIndex builds an index over set under key.
func NewRedisIndex(set SortedSet, key string, logger *zap.Logger) *RedisIndex {
	if key == "" {
		key = DefaultKey
	}
	return &RedisIndex{
		set:    set,
		key:    key,
		logger: logger.Named("redis_index"),
		retry:  defaultRetryPolicy(),
	}
}

// Track records name as stored at storedAt.
func (r *RedisIndex) Track(ctx context.Context, name string, storedAt time.Time) error {
	return r.retry.do(ctx, r.logger, "retention.track", name, func() error {
		return r.set.ZAdd(ctx, r.key, float64(storedAt.Unix()), name)
	})
}

// Expired lists names stored at or before cutoff.
func (r *RedisIndex) Expired(ctx context.Context, cutoff time.Time) ([]string, error) {
	var names []string
	err := r.retry.do(ctx, r.logger, "retention.expired", "", func() error {
		result, err := r.set.ZRangeByScore(ctx, r.key, float64(cutoff.Unix()))
		if err != nil {
			return err
		}
		names = result
		return nil
	})
	return names, err
}

// Forget drops names from the index.
func (r *RedisIndex) Forget(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	return r.retry.do(ctx, r.logger, "retention.forget", "", func() error {
		return r.set.ZRem(ctx, r.key, names...)
	})
}
