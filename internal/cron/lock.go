package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/invoicetrack-backend/pkg/instance"
)

const defaultLockTTL = 55 * time.Minute

// Lock keeps maintenance cycles exclusive across cron-worker replicas.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

type redisStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// RedisLock is a SET NX lease keyed per environment. Each lock value names
// the holding replica so a stale key can be traced from redis-cli.
type RedisLock struct {
	client redisStore
	key    string
	ttl    time.Duration
	owner  string
}

func NewRedisLock(client redisStore, key string, ttl time.Duration) (*RedisLock, error) {
	if client == nil {
		return nil, errors.New("redis client required for lock")
	}
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{
		client: client,
		key:    key,
		ttl:    ttl,
		owner:  fmt.Sprintf("%s/%s", instance.GetID(), uuid.NewString()),
	}, nil
}

// Acquire takes the lease, or extends it when this lock already holds it.
func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, l.owner, l.ttl)
	if err != nil {
		return false, fmt.Errorf("acquire %s: %w", l.key, err)
	}
	if ok {
		return true, nil
	}
	held, err := l.heldBySelf(ctx)
	if err != nil || !held {
		return false, err
	}
	if err := l.client.Expire(ctx, l.key, l.ttl); err != nil {
		return false, fmt.Errorf("extend %s: %w", l.key, err)
	}
	return true, nil
}

// Release drops the lease if this lock still holds it. A lease that expired
// and was taken by another replica is left alone.
func (l *RedisLock) Release(ctx context.Context) error {
	held, err := l.heldBySelf(ctx)
	if err != nil || !held {
		return err
	}
	if err := l.client.Del(ctx, l.key); err != nil {
		return fmt.Errorf("release %s: %w", l.key, err)
	}
	return nil
}

func (l *RedisLock) heldBySelf(ctx context.Context) (bool, error) {
	value, err := l.client.Get(ctx, l.key)
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read owner of %s: %w", l.key, err)
	}
	return value == l.owner, nil
}
