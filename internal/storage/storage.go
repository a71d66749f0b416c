// Package storage persists small JSON documents (tokens, profile, cart,
// wishlist) under fixed keys. Drivers: file, memory, redis.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Persisted keys.
const (
	KeyAuthToken   = "auth_token"
	KeyClientToken = "client_token"
	KeyUser        = "user"
	KeyCart        = "cart"
	KeyWishlist    = "wishlist"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("storage: key not found")

// Store is a flat key/value store for raw values.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Options selects and configures a driver.
type Options struct {
	Driver    string // file | memory | redis
	Dir       string // file driver root
	RedisAddr string
	RedisDB   int
	Prefix    string        // key prefix, redis only
	TTL       time.Duration // memory and redis, 0 = no expiry
}

// Open builds the driver named in opts.
func Open(opts Options) (Store, error) {
	switch opts.Driver {
	case "", "file":
		return NewFile(opts.Dir)
	case "memory":
		return NewMemory(opts.TTL), nil
	case "redis":
		if opts.RedisAddr == "" {
			return nil, errors.New("storage: redis driver requires an address")
		}
		return NewRedis(opts.RedisAddr, opts.RedisDB, opts.Prefix, opts.TTL), nil
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", opts.Driver)
	}
}

// GetJSON loads key into v. It reports false when the key is absent.
// A stored value that does not decode is returned as an error so callers
// can decide whether to start empty.
func GetJSON(ctx context.Context, s Store, key string, v interface{}) (bool, error) {
	raw, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON marshals v and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, raw)
}

// GetString returns a plain string value, or "" when absent.
func GetString(ctx context.Context, s Store, key string) (string, error) {
	raw, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
