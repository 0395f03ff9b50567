package listeners

import (
	"context"
	"testing"

	"github.com/shashiranjanraj/apotek/app/domain"
	"github.com/shashiranjanraj/apotek/app/jobs"
	"github.com/shashiranjanraj/apotek/app/settlement"
	"github.com/shashiranjanraj/apotek/pkg/event"
	"github.com/shashiranjanraj/apotek/pkg/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct{ jobs []queue.Job }

func (r *recorder) Dispatch(_ context.Context, job queue.Job) error {
	r.jobs = append(r.jobs, job)
	return nil
}

func TestCommittedSaleQueuesArchive(t *testing.T) {
	bus := event.NewBus(nil)
	q := &recorder{}
	Register(bus, q)

	require.NoError(t, bus.Fire(context.Background(), settlement.EventTransactionCommitted, domain.Transaction{ID: 42}))

	require.Len(t, q.jobs, 1)
	job, ok := q.jobs[0].(*jobs.ArchiveReceipt)
	require.True(t, ok)
	assert.Equal(t, uint(42), job.TransactionID)
}

func TestUnexpectedPayload(t *testing.T) {
	err := QueueReceiptArchive(&recorder{})(context.Background(), "nope")
	assert.Error(t, err)
}
