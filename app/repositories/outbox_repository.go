package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shashiranjanraj/apotek/app/domain"
	"github.com/shashiranjanraj/apotek/app/models"
	"gorm.io/gorm"
)

// OutboxRepository stores integration events next to the data they
// describe. Insert must be called with the caller's transaction handle.
type OutboxRepository struct {
	db    *gorm.DB
	topic string
}

func NewOutboxRepository(db *gorm.DB, topic string) *OutboxRepository {
	return &OutboxRepository{db: db, topic: topic}
}

// InsertSale appends a sale event using tx, the open database transaction.
func (r *OutboxRepository) InsertSale(tx *gorm.DB, sale domain.Transaction, now time.Time) error {
	eventID := uuid.NewString()
	payload, err := json.Marshal(domain.NewSaleEvent(eventID, sale))
	if err != nil {
		return fmt.Errorf("outbox: encode sale %d: %w", sale.ID, err)
	}

	return tx.Create(&models.OutboxRecord{
		EventID:   eventID,
		Topic:     r.topic,
		Key:       fmt.Sprintf("transaction-%d", sale.ID),
		Payload:   string(payload),
		CreatedAt: now,
	}).Error
}

// FetchPending returns up to limit unsent records, oldest first.
func (r *OutboxRepository) FetchPending(ctx context.Context, limit int) ([]models.OutboxRecord, error) {
	var out []models.OutboxRecord
	err := r.db.WithContext(ctx).
		Where("sent_at IS NULL").
		Order("id ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *OutboxRepository) MarkSent(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.OutboxRecord{}).
		Where("id = ?", id).
		Updates(map[string]any{"sent_at": at}).Error
}

// MarkFailed bumps the attempt counter of a record that could not be sent.
func (r *OutboxRepository) MarkFailed(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Model(&models.OutboxRecord{}).
		Where("id = ?", id).
		UpdateColumn("attempts", gorm.Expr("attempts + 1")).Error
}
