// Package queue runs background jobs outside the request path.
//
// Jobs are JSON-encoded into an envelope carrying their type name and pushed
// to a Driver. Workers pop envelopes, rebuild the job from the factory that
// was registered for its type and call Handle with bounded retries. Jobs
// that exhaust their retries are recorded in a FailedStore.
//
//	m := queue.New(queue.NewMemoryDriver(100))
//	m.Register(func() queue.Job { return &jobs.ArchiveReceipt{...deps} })
//	m.Dispatch(ctx, &jobs.ArchiveReceipt{TransactionID: 42})
//	m.Work(ctx, 2)
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shashiranjanraj/apotek/pkg/logger"
	"github.com/shashiranjanraj/apotek/pkg/metrics"
)

// Job is one unit of background work. Exported fields are the payload;
// unexported fields are dependencies injected by the registered factory.
type Job interface {
	Handle(ctx context.Context) error
}

// Driver is the queue storage backend. Pop returns (nil, nil) when it
// timed out without a job.
type Driver interface {
	Push(ctx context.Context, payload []byte) error
	Pop(ctx context.Context) ([]byte, error)
}

// FailedStore records jobs that exhausted their retries.
type FailedStore interface {
	RecordFailed(ctx context.Context, f FailedJob) error
}

type FailedJob struct {
	Type     string
	Payload  []byte
	Err      error
	Attempts int
	FailedAt time.Time
}

var ErrUnknownJob = errors.New("queue: job type not registered")

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type Manager struct {
	mu       sync.RWMutex
	driver   Driver
	registry map[string]func() Job
	failed   FailedStore
	maxRetry int
	backoff  time.Duration
}

type Option func(*Manager)

// WithFailedStore persists exhausted jobs.
func WithFailedStore(s FailedStore) Option { return func(m *Manager) { m.failed = s } }

// WithRetry sets attempts per job and the linear backoff unit between them.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(m *Manager) {
		if attempts > 0 {
			m.maxRetry = attempts
		}
		m.backoff = backoff
	}
}

func New(driver Driver, opts ...Option) *Manager {
	m := &Manager{
		driver:   driver,
		registry: make(map[string]func() Job),
		maxRetry: 3,
		backoff:  time.Second,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register makes a job type dispatchable. The type name is taken from the
// value the factory returns.
func (m *Manager) Register(factory func() Job) {
	name := TypeName(factory())

	m.mu.Lock()
	defer m.mu.Unlock()
	m.registry[name] = factory
}

// TypeName is the envelope type of job.
func TypeName(job Job) string { return fmt.Sprintf("%T", job) }

// Dispatch encodes job and pushes it to the driver.
func (m *Manager) Dispatch(ctx context.Context, job Job) error {
	name := TypeName(job)

	m.mu.RLock()
	_, ok := m.registry[name]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("queue: marshal job %s: %w", name, err)
	}
	env, err := json.Marshal(envelope{Type: name, Payload: payload})
	if err != nil {
		return fmt.Errorf("queue: marshal envelope: %w", err)
	}
	return m.driver.Push(ctx, env)
}

// Work runs n workers and blocks until ctx is cancelled and every worker has
// finished its current job.
func (m *Manager) Work(ctx context.Context, n int) {
	if n < 1 {
		n = 1
	}
	logger.Info("queue: workers started", "count", n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.work(ctx)
		}()
	}
	wg.Wait()
	logger.Info("queue: workers stopped")
}

func (m *Manager) work(ctx context.Context) {
	for ctx.Err() == nil {
		raw, err := m.driver.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("queue: pop failed", "error", err)
			sleep(ctx, 500*time.Millisecond)
			continue
		}
		if raw == nil {
			continue
		}
		m.Process(ctx, raw)
	}
}

// Process decodes one envelope and runs it. Exposed for drivers that
// deliver jobs themselves and for tests.
func (m *Manager) Process(ctx context.Context, raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		logger.Error("queue: bad envelope", "error", err)
		return
	}

	m.mu.RLock()
	factory, ok := m.registry[env.Type]
	m.mu.RUnlock()
	if !ok {
		logger.Warn("queue: unregistered job type", "type", env.Type)
		return
	}

	job := factory()
	if err := json.Unmarshal(env.Payload, job); err != nil {
		logger.Error("queue: unmarshal payload", "type", env.Type, "error", err)
		return
	}

	m.runWithRetry(ctx, job, env)
}

func (m *Manager) runWithRetry(ctx context.Context, job Job, env envelope) {
	start := time.Now()
	log := logger.WithCtx(ctx).With("type", env.Type)

	var lastErr error
	for attempt := 1; attempt <= m.maxRetry; attempt++ {
		if lastErr = job.Handle(ctx); lastErr == nil {
			metrics.RecordQueueJob(env.Type, "ok", start)
			log.Info("queue: job processed", "attempt", attempt)
			return
		}
		log.Warn("queue: job failed", "attempt", attempt, "error", lastErr)
		if attempt < m.maxRetry && !sleep(ctx, time.Duration(attempt)*m.backoff) {
			break
		}
	}

	metrics.RecordQueueJob(env.Type, "failed", start)
	log.Error("queue: job exhausted retries", "error", lastErr)

	if m.failed == nil {
		return
	}
	f := FailedJob{Type: env.Type, Payload: env.Payload, Err: lastErr, Attempts: m.maxRetry, FailedAt: time.Now().UTC()}
	if err := m.failed.RecordFailed(context.WithoutCancel(ctx), f); err != nil {
		log.Error("queue: persist failed job", "error", err)
	}
}

// sleep waits d or until ctx is done; it reports whether d fully elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
