package queue_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shashiranjanraj/apotek/pkg/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type echoJob struct {
	Val  string
	seen chan string
}

func (j *echoJob) Handle(context.Context) error {
	j.seen <- j.Val
	return nil
}

type failJob struct {
	ID    int
	calls *atomic.Int32
}

func (j *failJob) Handle(context.Context) error {
	j.calls.Add(1)
	return errors.New("always fails")
}

type memoryFailed struct {
	mu   sync.Mutex
	jobs []queue.FailedJob
}

func (m *memoryFailed) RecordFailed(_ context.Context, f queue.FailedJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, f)
	return nil
}

func TestDispatchAndProcess(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	seen := make(chan string, 1)
	m := queue.New(queue.NewMemoryDriver(10))
	m.Register(func() queue.Job { return &echoJob{seen: seen} })

	done := make(chan struct{})
	go func() { m.Work(ctx, 2); close(done) }()

	require.NoError(t, m.Dispatch(ctx, &echoJob{Val: "struk-42"}))

	select {
	case v := <-seen:
		assert.Equal(t, "struk-42", v)
	case <-time.After(2 * time.Second):
		t.Fatal("job was not processed")
	}

	cancel()
	<-done
}

func TestDispatchUnregisteredType(t *testing.T) {
	m := queue.New(queue.NewMemoryDriver(1))
	err := m.Dispatch(context.Background(), &echoJob{})
	assert.ErrorIs(t, err, queue.ErrUnknownJob)
}

func TestExhaustedJobIsRecorded(t *testing.T) {
	calls := &atomic.Int32{}
	failed := &memoryFailed{}
	driver := queue.NewMemoryDriver(1)
	m := queue.New(driver, queue.WithRetry(3, 0), queue.WithFailedStore(failed))
	m.Register(func() queue.Job { return &failJob{calls: calls} })

	ctx := context.Background()
	require.NoError(t, m.Dispatch(ctx, &failJob{ID: 9}))
	raw, err := driver.Pop(ctx)
	require.NoError(t, err)

	m.Process(ctx, raw)

	assert.Equal(t, int32(3), calls.Load())
	require.Len(t, failed.jobs, 1)
	assert.Equal(t, queue.TypeName(&failJob{}), failed.jobs[0].Type)
	assert.JSONEq(t, `{"ID":9}`, string(failed.jobs[0].Payload))
	assert.Equal(t, 3, failed.jobs[0].Attempts)
}

func TestGormFailedStore(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&queue.FailedJobRecord{}))

	store := queue.NewGormFailedStore(db)
	ctx := context.Background()
	require.NoError(t, store.RecordFailed(ctx, queue.FailedJob{
		Type: "*jobs.ArchiveReceipt", Payload: []byte(`{}`), Err: errors.New("disk full"), Attempts: 3, FailedAt: time.Now().UTC(),
	}))

	rows, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "disk full", rows[0].Error)
}

func TestMemoryDriverPopHonoursContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := queue.NewMemoryDriver(1).Pop(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
