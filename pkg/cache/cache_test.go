package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledStoreIsNoop(t *testing.T) {
	s := New(nil, "apotek:")
	ctx := context.Background()

	assert.False(t, s.Enabled())
	require.NoError(t, s.Set(ctx, "k", 1, time.Minute))
	var v int
	assert.False(t, s.Get(ctx, "k", &v))
	require.NoError(t, s.Forget(ctx, "k"))

	var nilStore *Store
	assert.False(t, nilStore.Enabled())
}

func TestRememberCallsLoaderWhenDisabled(t *testing.T) {
	s := New(nil, "")
	calls := 0
	load := func(context.Context) ([]string, error) {
		calls++
		return []string{"a"}, nil
	}

	for i := 0; i < 2; i++ {
		v, err := Remember(context.Background(), s, "k", time.Minute, load)
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, v)
	}
	assert.Equal(t, 2, calls)
}

func TestRememberPropagatesLoaderError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Remember(context.Background(), New(nil, ""), "k", time.Minute, func(context.Context) (int, error) {
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	s := New(rdb, "apotek:")
	ctx := context.Background()
	require.True(t, s.Enabled())

	require.NoError(t, s.Set(ctx, "catalog", []string{"Paracetamol"}, time.Minute))
	assert.True(t, mr.Exists("apotek:catalog"))

	var got []string
	require.True(t, s.Get(ctx, "catalog", &got))
	assert.Equal(t, []string{"Paracetamol"}, got)

	mr.FastForward(2 * time.Minute)
	assert.False(t, s.Get(ctx, "catalog", &got))

	require.NoError(t, s.Set(ctx, "catalog", []string{"x"}, time.Minute))
	require.NoError(t, s.Forget(ctx, "catalog", "missing"))
	assert.False(t, mr.Exists("apotek:catalog"))
}

func TestRememberServesFromRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	s := New(rdb, "")
	calls := 0
	load := func(context.Context) (int, error) {
		calls++
		return 42, nil
	}

	for i := 0; i < 3; i++ {
		v, err := Remember(context.Background(), s, "answer", time.Minute, load)
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	}
	assert.Equal(t, 1, calls)
}
