package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/davicafu/catalogsync/internal/inventory/domain"
)

// RedisLock comparte el lock de stock entre procesos con SET NX PX. El TTL
// evita que un proceso caído deje el lock tomado para siempre.
//
// Quien adquiere y quien libera pueden ser procesos distintos (el disparo y
// el worker que reconcilia), así que Release borra la clave sin comprobar
// propietario.
type RedisLock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	retry  time.Duration
}

var _ domain.StockLock = (*RedisLock)(nil)

func NewRedisLock(client *redis.Client, key string, ttl time.Duration) *RedisLock {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLock{client: client, key: key, ttl: ttl, retry: 50 * time.Millisecond}
}

func (l *RedisLock) Acquire(ctx context.Context) error {
	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()
	for {
		ok, err := l.client.SetNX(ctx, l.key, time.Now().UTC().Format(time.RFC3339Nano), l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("acquire %s: %w", l.key, err)
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (l *RedisLock) Release(ctx context.Context) error {
	if err := l.client.Del(ctx, l.key).Err(); err != nil {
		return fmt.Errorf("release %s: %w", l.key, err)
	}
	return nil
}
