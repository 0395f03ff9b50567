package queue

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// FailedJobRecord is a row of failed_jobs.
type FailedJobRecord struct {
	ID       uint      `gorm:"primaryKey;autoIncrement"`
	JobType  string    `gorm:"size:255;not null;index"`
	Payload  string    `gorm:"type:text;not null"`
	Error    string    `gorm:"type:text"`
	Attempts int       `gorm:"not null;default:0"`
	FailedAt time.Time `gorm:"not null"`
}

func (FailedJobRecord) TableName() string { return "failed_jobs" }

// GormFailedStore writes exhausted jobs to failed_jobs.
type GormFailedStore struct {
	db *gorm.DB
}

func NewGormFailedStore(db *gorm.DB) *GormFailedStore {
	return &GormFailedStore{db: db}
}

func (s *GormFailedStore) RecordFailed(ctx context.Context, f FailedJob) error {
	msg := ""
	if f.Err != nil {
		msg = f.Err.Error()
	}
	return s.db.WithContext(ctx).Create(&FailedJobRecord{
		JobType:  f.Type,
		Payload:  string(f.Payload),
		Error:    msg,
		Attempts: f.Attempts,
		FailedAt: f.FailedAt,
	}).Error
}

// Recent returns the latest failures, newest first.
func (s *GormFailedStore) Recent(ctx context.Context, limit int) ([]FailedJobRecord, error) {
	var rows []FailedJobRecord
	err := s.db.WithContext(ctx).Order("failed_at DESC, id DESC").Limit(limit).Find(&rows).Error
	return rows, err
}
