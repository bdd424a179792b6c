package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"moviescroll/internal/domain"
	"moviescroll/internal/stream"
)

const redisKeyPrefix = "moviescroll:page:"

// Redis serves repeated page requests from a shared Redis instance.
// Cache failures are logged and never fail a fetch.
type Redis struct {
	next   stream.Fetcher
	client redis.Cmdable
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedis wraps next with a Redis backed cache
func NewRedis(next stream.Fetcher, client redis.Cmdable, ttl time.Duration, logger *zap.Logger) *Redis {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Redis{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger.Named("cache.redis"),
	}
}

func (r *Redis) Fetch(ctx context.Context, req domain.PageRequest) (*domain.ResultPage, error) {
	key := redisKeyPrefix + req.Key()

	data, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var page domain.ResultPage
		if jsonErr := json.Unmarshal(data, &page); jsonErr == nil {
			r.logger.Debug("cache hit", zap.String("key", key))
			return &page, nil
		}
		r.logger.Warn("discarding undecodable cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}

	page, err := r.next.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	if page.Empty() {
		return page, nil
	}
	if data, err := json.Marshal(page); err == nil {
		if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
			r.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return page, nil
}

const pingTimeout = 2 * time.Second

// Ping checks that Redis is reachable
func Ping(ctx context.Context, client *redis.Client) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return client.Ping(ctx).Err()
}
