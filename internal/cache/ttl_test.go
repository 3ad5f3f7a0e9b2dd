package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCache_GetCachesOnSuccess(t *testing.T) {
	c := New[string, int](10, time.Minute)
	calls := 0

	fallback := func(ctx context.Context) (int, error) {
		calls++
		return 42, nil
	}

	v, err := c.Get(context.Background(), "k", fallback)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	v, err = c.Get(context.Background(), "k", fallback)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 1, calls, "second Get should hit the cache, not fallback again")
}

func TestTTLCache_ExpiredEntryRefetches(t *testing.T) {
	c := New[string, int](10, time.Millisecond)
	calls := 0

	fallback := func(ctx context.Context) (int, error) {
		calls++
		return calls, nil
	}

	_, err := c.Get(context.Background(), "k", fallback)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	v, err := c.Get(context.Background(), "k", fallback)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, 2, calls)
}

func TestTTLCache_FailingFallbackNotCached(t *testing.T) {
	c := New[string, int](10, time.Minute)
	boom := errors.New("boom")

	_, err := c.Get(context.Background(), "k", func(ctx context.Context) (int, error) {
		return 0, boom
	})
	require.ErrorIs(t, err, boom)

	_, ok := c.Peek("k")
	assert.False(t, ok, "a failing fallback must never populate the cache")
}

func TestTTLCache_Peek(t *testing.T) {
	c := New[string, int](10, time.Minute)

	_, ok := c.Peek("missing")
	assert.False(t, ok)

	_, err := c.Get(context.Background(), "k", func(ctx context.Context) (int, error) {
		return 7, nil
	})
	require.NoError(t, err)

	v, ok := c.Peek("k")
	assert.True(t, ok)
	assert.Equal(t, 7, v)
}
