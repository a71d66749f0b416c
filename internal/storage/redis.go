package storage

import (
	"context"
	"errors"
	"time"

	rdb "github.com/redis/go-redis/v9"
)

// Redis shares storefront state between gateway replicas.
type Redis struct {
	c      *rdb.Client
	prefix string
	ttl    time.Duration
}

// NewRedis connects lazily; the first command dials.
func NewRedis(addr string, db int, prefix string, ttl time.Duration) *Redis {
	return &Redis{
		c:      rdb.NewClient(&rdb.Options{Addr: addr, DB: db}),
		prefix: prefix,
		ttl:    ttl,
	}
}

func (r *Redis) key(k string) string { return r.prefix + k }

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.c.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, rdb.Nil) {
		return nil, ErrNotFound
	}
	return b, err
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	return r.c.Set(ctx, r.key(key), value, r.ttl).Err()
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.c.Del(ctx, r.key(key)).Err()
}

// Close releases the connection pool.
func (r *Redis) Close() error { return r.c.Close() }
