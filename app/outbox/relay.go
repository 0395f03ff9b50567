// Package outbox relays sale events from the outbox table to the broker.
// Records are written by the transaction store inside the commit, so a
// sale is published at least once even if the process dies right after
// committing.
package outbox

import (
	"context"
	"time"

	"github.com/shashiranjanraj/apotek/app/models"
	"github.com/shashiranjanraj/apotek/pkg/logger"
	"github.com/shashiranjanraj/apotek/pkg/metrics"
)

type Source interface {
	FetchPending(ctx context.Context, limit int) ([]models.OutboxRecord, error)
	MarkSent(ctx context.Context, id uint, at time.Time) error
	MarkFailed(ctx context.Context, id uint) error
}

type Publisher interface {
	Publish(ctx context.Context, topic, key string, value []byte) error
}

type Relay struct {
	source Source
	pub    Publisher
	batch  int
	now    func() time.Time
}

func NewRelay(source Source, pub Publisher, batch int) *Relay {
	if batch < 1 {
		batch = 100
	}
	return &Relay{source: source, pub: pub, batch: batch, now: func() time.Time { return time.Now().UTC() }}
}

// Tick publishes one batch in id order. It stops at the first publish
// failure so events for the same sale never overtake each other.
func (r *Relay) Tick(ctx context.Context) error {
	records, err := r.source.FetchPending(ctx, r.batch)
	if err != nil {
		return err
	}

	for _, rec := range records {
		if err := r.pub.Publish(ctx, rec.Topic, rec.Key, []byte(rec.Payload)); err != nil {
			metrics.OutboxPublished.WithLabelValues("failed").Inc()
			logger.WithCtx(ctx).Warn("outbox: publish failed", "event_id", rec.EventID, "error", err)
			if mErr := r.source.MarkFailed(ctx, rec.ID); mErr != nil {
				logger.WithCtx(ctx).Error("outbox: mark failed", "event_id", rec.EventID, "error", mErr)
			}
			return err
		}

		if err := r.source.MarkSent(ctx, rec.ID, r.now()); err != nil {
			// The event will be published again; consumers dedupe on event_id.
			return err
		}
		metrics.OutboxPublished.WithLabelValues("sent").Inc()
	}

	if len(records) > 0 {
		logger.WithCtx(ctx).Debug("outbox: batch relayed", "count", len(records))
	}
	return nil
}
