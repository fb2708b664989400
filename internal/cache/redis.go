package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Redis is the shared Store backend. Entries live in a dedicated logical
// database so Clear can flush it without touching unrelated keys.
//
// Read errors degrade to a miss (the producer runs and its result is
// returned even if the write-back fails), so a flaky Redis never takes the
// acquisition layer down with it.
type Redis struct {
	client *redis.Client
	group  singleflight.Group
	log    zerolog.Logger
}

// RedisOptions configures the Redis backend connection.
type RedisOptions struct {
	Addr     string // host:port
	Password string
	DB       int
}

// NewRedis connects to Redis and verifies the connection with a bounded
// ping. The returned backend is safe for concurrent use.
func NewRedis(ctx context.Context, opts RedisOptions, log zerolog.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, err
	}

	log.Info().Str("addr", opts.Addr).Int("db", opts.DB).Msg("redis cache connected")
	return &Redis{client: client, log: log}, nil
}

// GetOrCompute implements Store.
func (r *Redis) GetOrCompute(ctx context.Context, key string, ttl time.Duration, produce Producer) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err == nil {
		return val, nil
	}
	if !errors.Is(err, redis.Nil) {
		r.log.Warn().Err(err).Str("key", key).Msg("cache read failed, recomputing")
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		if val, err := r.client.Get(ctx, key).Bytes(); err == nil {
			return val, nil
		}
		val, err := produce(ctx)
		if err != nil {
			return nil, err
		}
		if err := r.client.Set(ctx, key, val, ttl).Err(); err != nil {
			r.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
		}
		return val, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Delete implements Store.
func (r *Redis) Delete(ctx context.Context, key string) bool {
	n, err := r.client.Del(ctx, key).Result()
	if err != nil {
		r.log.Warn().Err(err).Str("key", key).Msg("cache delete failed")
		return false
	}
	return n > 0
}

// Clear implements Store.
func (r *Redis) Clear(ctx context.Context) bool {
	if err := r.client.FlushDB(ctx).Err(); err != nil {
		r.log.Warn().Err(err).Msg("cache clear failed")
		return false
	}
	return true
}
