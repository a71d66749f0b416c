package storage

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory is a process-local store. Used in tests and for throwaway sessions.
type Memory struct{ c *gocache.Cache }

// NewMemory returns an empty store. ttl <= 0 keeps values forever.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	return &Memory{c: gocache.New(ttl, time.Minute)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, ErrNotFound
	}
	b, _ := v.([]byte)
	return b, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	cp := make([]byte, len(value))
	copy(cp, value)
	m.c.Set(key, cp, gocache.DefaultExpiration)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.c.Delete(key)
	return nil
}
