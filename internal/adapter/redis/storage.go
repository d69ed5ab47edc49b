package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shopfront/internal/cart"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "shopfront:"

// Storage keeps session-scoped values in redis under
// shopfront:<scope>:<key>. A zero ttl keeps values forever; otherwise every
// write refreshes the expiry.
type Storage struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewStorage(client redis.Cmdable, ttl time.Duration) *Storage {
	return &Storage{client: client, ttl: ttl}
}

func Key(scope, key string) string {
	return keyPrefix + scope + ":" + key
}

func (s *Storage) Get(ctx context.Context, scope, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, Key(scope, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s from redis: %w", Key(scope, key), err)
	}
	return val, true, nil
}

func (s *Storage) Set(ctx context.Context, scope, key, value string) error {
	if err := s.client.Set(ctx, Key(scope, key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("save %s to redis: %w", Key(scope, key), err)
	}
	return nil
}

func (s *Storage) Remove(ctx context.Context, scope, key string) error {
	if err := s.client.Del(ctx, Key(scope, key)).Err(); err != nil {
		return fmt.Errorf("delete %s from redis: %w", Key(scope, key), err)
	}
	return nil
}

// DropScope deletes every key stored for scope.
func (s *Storage) DropScope(ctx context.Context, scope string) error {
	var cursor uint64
	pattern := Key(scope, "*")
	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("scan %s: %w", pattern, err)
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("delete scope %s: %w", scope, err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (s *Storage) Scope(scope string) cart.Storage {
	return scoped{s: s, scope: scope}
}

type scoped struct {
	s     *Storage
	scope string
}

func (x scoped) Get(ctx context.Context, key string) (string, bool, error) {
	return x.s.Get(ctx, x.scope, key)
}

func (x scoped) Set(ctx context.Context, key, value string) error {
	return x.s.Set(ctx, x.scope, key, value)
}

func (x scoped) Remove(ctx context.Context, key string) error {
	return x.s.Remove(ctx, x.scope, key)
}
