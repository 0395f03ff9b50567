package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisDriverIsFIFO(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	d := NewRedisDriver(rdb, "apotek:")
	d.timeout = 50 * time.Millisecond
	ctx := context.Background()

	require.NoError(t, d.Push(ctx, []byte("first")))
	require.NoError(t, d.Push(ctx, []byte("second")))

	n, err := rdb.LLen(ctx, "apotek:queue:jobs").Result()
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	got, err := d.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "first", string(got))

	got, err = d.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))
}

func TestRedisDriverPopTimesOutEmpty(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	d := NewRedisDriver(rdb, "")
	d.timeout = 50 * time.Millisecond

	got, err := d.Pop(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}
