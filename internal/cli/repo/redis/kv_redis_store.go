package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"BookmarkAdmin/internal/cli/repo"
)

// DefaultPrefix namespaces session keys in a shared redis.
const DefaultPrefix = "bookmark-admin:"

// Store keeps session values in redis under Prefix+key, without expiry.
type Store struct {
	rdb    goredis.UniversalClient
	prefix string
}

var _ repo.KVStore = (*Store)(nil)

func New(rdb goredis.UniversalClient, prefix string) *Store {
	return &Store{rdb: rdb, prefix: prefix}
}

// Open connects to addr and pings it so a wrong address fails at startup.
func Open(ctx context.Context, addr string) (*Store, error) {
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis %s: %w", addr, err)
	}
	return New(rdb, DefaultPrefix), nil
}

func (s *Store) Close() error { return s.rdb.Close() }

func (s *Store) key(k string) (string, error) {
	if k == "" {
		return "", repo.ErrEmptyKey
	}
	return s.prefix + k, nil
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	k, err := s.key(key)
	if err != nil {
		return "", err
	}
	v, err := s.rdb.Get(ctx, k).Result()
	if errors.Is(err, goredis.Nil) {
		return "", nil
	}
	return v, err
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	k, err := s.key(key)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, k, value, 0).Err()
}

// Remove is DEL, which is already idempotent.
func (s *Store) Remove(ctx context.Context, key string) error {
	k, err := s.key(key)
	if err != nil {
		return err
	}
	return s.rdb.Del(ctx, k).Err()
}
