package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the key the snapshot is stored under when none is set.
const DefaultRedisKey = "fitwatch:postings"

// RedisPersister keeps the JSON snapshot under a single Redis key.
type RedisPersister struct {
	client *redis.Client
	key    string
	codec  Codec
	logger *slog.Logger
}

// NewRedisPersister connects to the Redis server at url and verifies it with
// a ping.
func NewRedisPersister(ctx context.Context, url, key string, codec Codec, logger *slog.Logger) (*RedisPersister, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisPersister{client: client, key: key, codec: codec, logger: logger}, nil
}

// Load reads the snapshot. A missing key yields an empty store, as does a
// value that does not decode.
func (r *RedisPersister) Load(ctx context.Context) (*Store, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		r.logger.Info("no snapshot in redis yet, starting empty", "key", r.key)
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot from redis: %w", err)
	}

	postings, skipped, err := r.codec.Decode(data)
	if err != nil {
		r.logger.Warn("corrupt snapshot in redis, starting empty", "key", r.key, "error", err)
		return New(), nil
	}
	if skipped > 0 {
		r.logger.Warn("skipped unreadable snapshot records", "key", r.key, "skipped", skipped)
	}
	return New(postings...), nil
}

// Save overwrites the snapshot.
func (r *RedisPersister) Save(ctx context.Context, s *Store) error {
	data, err := r.codec.Encode(s.All())
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("writing snapshot to redis: %w", err)
	}
	return nil
}

// Close closes the client.
func (r *RedisPersister) Close() error {
	return r.client.Close()
}
