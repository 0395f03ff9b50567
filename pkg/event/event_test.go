package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shashiranjanraj/apotek/pkg/workerpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFireRunsListenersInOrder(t *testing.T) {
	bus := NewBus(nil)
	var got []string
	bus.Listen("sale", func(_ context.Context, p any) error { got = append(got, "a:"+p.(string)); return nil })
	bus.Listen("sale", func(_ context.Context, p any) error { got = append(got, "b:"+p.(string)); return nil })
	bus.Listen("other", func(context.Context, any) error { t.Fatal("wrong event"); return nil })

	require.NoError(t, bus.Fire(context.Background(), "sale", "x"))
	assert.Equal(t, []string{"a:x", "b:x"}, got)
}

func TestFireJoinsErrors(t *testing.T) {
	bus := NewBus(nil)
	e1, e2 := errors.New("one"), errors.New("two")
	bus.Listen("sale", func(context.Context, any) error { return e1 })
	bus.Listen("sale", func(context.Context, any) error { return e2 })

	err := bus.Fire(context.Background(), "sale", nil)
	assert.ErrorIs(t, err, e1)
	assert.ErrorIs(t, err, e2)
}

func TestFireAsyncOnPool(t *testing.T) {
	pool := workerpool.New(2)
	defer pool.Shutdown()
	bus := NewBus(pool)

	var wg sync.WaitGroup
	wg.Add(3)
	for i := 0; i < 3; i++ {
		bus.Listen("sale", func(ctx context.Context, _ any) error {
			defer wg.Done()
			assert.NoError(t, ctx.Err())
			return nil
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	bus.FireAsync(ctx, "sale", nil)
	cancel()

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("async listeners did not run")
	}
}

func TestFlush(t *testing.T) {
	bus := NewBus(nil)
	called := false
	bus.Listen("sale", func(context.Context, any) error { called = true; return nil })
	bus.Flush()
	require.NoError(t, bus.Fire(context.Background(), "sale", nil))
	assert.False(t, called)
}
