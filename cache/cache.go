// Package cache provides the short-lived response cache used by the HTTP
// layer. Instances are created at startup and injected; there is no package
// level cache.
package cache

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache: miss")

// Cache stores opaque byte values with a per-entry TTL.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type item struct {
	value   []byte
	expires time.Time
}

// Memory is an in-process Cache. Expired entries are dropped lazily when read
// and in bulk by Purge.
type Memory struct {
	mu    sync.RWMutex
	items map[string]item
	now   func() time.Time
}

func NewMemory() *Memory {
	return &Memory{items: make(map[string]item), now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	it, ok := m.items[key]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrMiss
	}

	if !m.now().Before(it.expires) {
		m.mu.Lock()
		// re-check: a concurrent Set may have refreshed the entry
		if cur, ok := m.items[key]; ok && !m.now().Before(cur.expires) {
			delete(m.items, key)
		}
		m.mu.Unlock()
		return nil, ErrMiss
	}

	return append([]byte(nil), it.value...), nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return m.Delete(context.Background(), key)
	}
	m.mu.Lock()
	m.items[key] = item{value: append([]byte(nil), value...), expires: m.now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
	return nil
}

// Purge removes every expired entry and returns how many were dropped.
func (m *Memory) Purge() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for k, it := range m.items {
		if !now.Before(it.expires) {
			delete(m.items, k)
			n++
		}
	}
	return n
}

// Len returns the number of stored entries, expired or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
