package respcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces catalog entries in Redis.
const DefaultRedisPrefix = "artcatalog:catalog:"

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379/0").
	URL string

	// Prefix is prepended to every key (defaults to "artcatalog:catalog:").
	Prefix string

	// Now is the clock used for expiry checks (defaults to time.Now).
	Now func() time.Time
}

// RedisStore keeps catalog responses in Redis, shared by all instances.
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}

	slog.Info("redis catalog cache connected", "prefix", prefix)

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &RedisStore{client: client, prefix: prefix, now: now}, nil
}

// Get retrieves an entry; Redis expiry makes stale entries disappear.
func (s *RedisStore) Get(ctx context.Context, key string) (*Entry, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get catalog from redis: %w", err)
	}

	return s.decode(data)
}

// decode parses a stored entry, dropping it when the clock has passed its
// expiry ahead of Redis.
func (s *RedisStore) decode(data []byte) (*Entry, error) {
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to parse catalog from redis: %w", err)
	}
	if entry.Expired(s.now()) {
		return nil, nil
	}
	return &entry, nil
}

// ttl returns how long Redis should keep entry.
func (s *RedisStore) ttl(entry *Entry) time.Duration {
	return entry.ExpiresAt.Sub(s.now())
}

// Set stores an entry with a TTL matching its expiry.
func (s *RedisStore) Set(ctx context.Context, entry *Entry) error {
	ttl := s.ttl(entry)
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+entry.Key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set catalog in redis: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
