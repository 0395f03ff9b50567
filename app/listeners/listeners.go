// Package listeners reacts to domain events fired by the settlement
// coordinator.
package listeners

import (
	"context"
	"fmt"

	"github.com/shashiranjanraj/apotek/app/domain"
	"github.com/shashiranjanraj/apotek/app/jobs"
	"github.com/shashiranjanraj/apotek/app/settlement"
	"github.com/shashiranjanraj/apotek/pkg/event"
	"github.com/shashiranjanraj/apotek/pkg/logger"
	"github.com/shashiranjanraj/apotek/pkg/queue"
)

// JobDispatcher enqueues background jobs.
type JobDispatcher interface {
	Dispatch(ctx context.Context, job queue.Job) error
}

// Register subscribes the committed-sale listeners.
func Register(bus *event.Bus, q JobDispatcher) {
	bus.Listen(settlement.EventTransactionCommitted, QueueReceiptArchive(q))
}

// QueueReceiptArchive enqueues an ArchiveReceipt job for the committed
// transaction. A failure is reported to the coordinator, which logs it;
// the sale itself is already committed.
func QueueReceiptArchive(q JobDispatcher) event.Handler {
	return func(ctx context.Context, payload any) error {
		tx, ok := payload.(domain.Transaction)
		if !ok {
			return fmt.Errorf("listeners: unexpected payload %T", payload)
		}
		if err := q.Dispatch(ctx, &jobs.ArchiveReceipt{TransactionID: tx.ID}); err != nil {
			return fmt.Errorf("queue receipt archive for %d: %w", tx.ID, err)
		}
		logger.WithCtx(ctx).Debug("receipt archive queued", "transaction_id", tx.ID)
		return nil
	}
}
