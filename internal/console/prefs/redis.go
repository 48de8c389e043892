package prefs

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	pkgerrors "gradedesk/pkg/errors"

	"github.com/redis/go-redis/v9"
)

// DefaultThemeKey is the redis key holding the theme.
const DefaultThemeKey = "gradedesk:prefs:theme"

// RedisConfig holds the configuration for the redis preference store.
type RedisConfig struct {
	Addr         string        `yaml:"addr"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	Key          string        `yaml:"key"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	PoolSize     int           `yaml:"poolSize"`
}

// DefaultRedisConfig returns a RedisConfig with sensible defaults.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Key:          DefaultThemeKey,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     4,
	}
}

// RedisStore keeps preferences in redis so several consoles share them.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore dials redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("addr cannot be empty")
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, pkgerrors.Wrapf(err, pkgerrors.PreferenceStoreError, "connect redis failed: %v", err)
	}
	return NewRedisStoreWithClient(client, cfg.Key), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultThemeKey
	}
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Theme(ctx context.Context) (Theme, error) {
	val, err := s.client.Get(ctx, s.key).Result()
	if stderrors.Is(err, redis.Nil) {
		return Light, nil
	}
	if err != nil {
		return Light, pkgerrors.Wrapf(err, pkgerrors.PreferenceStoreError, "read theme failed: %v", err)
	}
	return ParseTheme(val)
}

func (s *RedisStore) SetTheme(ctx context.Context, theme Theme) error {
	if _, err := ParseTheme(string(theme)); err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, string(theme), 0).Err(); err != nil {
		return pkgerrors.Wrapf(err, pkgerrors.PreferenceStoreError, "write theme failed: %v", err)
	}
	return nil
}

// Close releases the redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
