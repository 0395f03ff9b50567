// Package event provides a synchronous/async event dispatcher.
//
// Listeners receive the firing context so they log with the caller's
// request_id. FireAsync runs listeners on a bounded workerpool; when the pool
// is saturated the listener runs inline instead of being dropped.
package event

import (
	"context"
	"errors"
	"sync"

	"github.com/shashiranjanraj/apotek/pkg/logger"
	"github.com/shashiranjanraj/apotek/pkg/workerpool"
)

type Handler func(ctx context.Context, payload any) error

// Dispatcher is what producers depend on.
type Dispatcher interface {
	Fire(ctx context.Context, event string, payload any) error
}

type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	pool     *workerpool.Pool
}

// NewBus returns a bus whose async listeners run on pool. A nil pool makes
// FireAsync spawn a goroutine per listener.
func NewBus(pool *workerpool.Pool) *Bus {
	return &Bus{handlers: map[string][]Handler{}, pool: pool}
}

func (b *Bus) Listen(event string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[event] = append(b.handlers[event], h)
}

// Fire runs every listener in registration order and joins their errors.
func (b *Bus) Fire(ctx context.Context, event string, payload any) error {
	var errs []error
	for _, h := range b.listeners(event) {
		if err := h(ctx, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FireAsync returns immediately. Listener errors are logged. The listeners
// get a context detached from ctx's cancellation.
func (b *Bus) FireAsync(ctx context.Context, event string, payload any) {
	detached := context.WithoutCancel(ctx)
	for _, h := range b.listeners(event) {
		task := func() {
			if err := h(detached, payload); err != nil {
				logger.WithCtx(detached).Error("event listener failed", "event", event, "error", err)
			}
		}

		if b.pool == nil {
			go task()
			continue
		}
		if err := b.pool.Submit(task); err != nil {
			task()
		}
	}
}

// Flush removes all listeners (useful in tests).
func (b *Bus) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = map[string][]Handler{}
}

func (b *Bus) listeners(event string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	hs := make([]Handler, len(b.handlers[event]))
	copy(hs, b.handlers[event])
	return hs
}
