package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestMemory() (*Memory, *fakeClock) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	m := NewMemory()
	m.now = clock.Now
	return m, clock
}

func TestMemory_GetSet(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestMemory()

	_, err := m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Minute))
	v, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	// returned slices are copies
	v[0] = 'x'
	v, err = m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	require.NoError(t, m.Delete(ctx, "k"))
	_, err = m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemory_LazyExpiry(t *testing.T) {
	ctx := context.Background()
	m, clock := newTestMemory()

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Minute))
	clock.Advance(59 * time.Second)
	_, err := m.Get(ctx, "k")
	require.NoError(t, err)

	clock.Advance(time.Second)
	_, err = m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
	assert.Equal(t, 0, m.Len())
}

func TestMemory_NonPositiveTTL(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestMemory()

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, m.Set(ctx, "k", []byte("v2"), 0))
	_, err := m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemory_Purge(t *testing.T) {
	ctx := context.Background()
	m, clock := newTestMemory()

	require.NoError(t, m.Set(ctx, "short", []byte("1"), time.Second))
	require.NoError(t, m.Set(ctx, "long", []byte("2"), time.Hour))
	clock.Advance(time.Minute)

	assert.Equal(t, 1, m.Purge())
	assert.Equal(t, 1, m.Len())
}

func TestMemory_Concurrent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%4)
			for j := 0; j < 100; j++ {
				_ = m.Set(ctx, key, []byte("v"), time.Millisecond)
				_, _ = m.Get(ctx, key)
				m.Purge()
			}
		}(i)
	}
	wg.Wait()
}
