package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/duchph/approvebot/internal/core/domain"
)

// DefaultRedisKey is the key the progress document is stored under.
const DefaultRedisKey = "approvebot:progress"

// RedisConfig holds redis connection configuration.
type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	Key      string `yaml:"key"`
}

// RedisStore persists the progress document as a single redis value. SET
// replaces the value atomically, giving the same never-partial guarantee as
// the file store's rename.
type RedisStore struct {
	rdb *redis.Client
	key string
}

// NewRedisStore connects to redis and verifies the connection.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	key := cfg.Key
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{rdb: rdb, key: key}, nil
}

// Load reads the progress document. A missing key or malformed payload
// yields a fresh empty state.
func (s *RedisStore) Load(ctx context.Context) (*domain.Progress, error) {
	val, err := s.rdb.Get(ctx, s.key).Result()
	if err == redis.Nil {
		return domain.NewProgress(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read progress from redis: %w", err)
	}

	var p domain.Progress
	if err := json.Unmarshal([]byte(val), &p); err != nil {
		slog.Warn("Progress value malformed, starting fresh", "key", s.key, "error", err)
		return domain.NewProgress(), nil
	}
	p.Normalize()
	return &p, nil
}

// Save writes the full state under the configured key.
func (s *RedisStore) Save(ctx context.Context, p *domain.Progress) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode progress: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write progress to redis: %w", err)
	}
	return nil
}

// Close closes the redis connection.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
