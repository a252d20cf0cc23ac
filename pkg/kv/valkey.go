package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 5 * time.Second

// ValkeyStore keeps results and directory claims in Valkey or Redis so
// that other hosts can follow a run.
type ValkeyStore struct {
	client *redis.Client
	addr   string
}

var _ Store = (*ValkeyStore)(nil)

// ValkeyConfig is the results.redis section.
type ValkeyConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// NewValkeyStore connects and pings, so a wrong results.redis.addr fails
// before any job is submitted.
func NewValkeyStore(ctx context.Context, cfg ValkeyConfig) (*ValkeyStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("results store at %s unreachable: %w", cfg.Addr, err)
	}
	return &ValkeyStore{client: client, addr: cfg.Addr}, nil
}

func (s *ValkeyStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("set %s on %s: %w", key, s.addr, err)
	}
	return nil
}

func (s *ValkeyStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("get %s on %s: %w", key, s.addr, err)
	}
	return val, nil
}

func (s *ValkeyStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delete %s on %s: %w", key, s.addr, err)
	}
	return nil
}

// SetNX maps to SET NX, which is atomic on the server.
func (s *ValkeyStore) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim %s on %s: %w", key, s.addr, err)
	}
	return ok, nil
}

func (s *ValkeyStore) Close() error {
	return s.client.Close()
}
