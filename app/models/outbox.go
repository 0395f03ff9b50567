package models

import "time"

// OutboxRecord is an integration event written in the same database
// transaction as the sale it describes and relayed to Kafka later.
type OutboxRecord struct {
	ID        uint       `gorm:"primaryKey"`
	EventID   string     `gorm:"size:36;not null;uniqueIndex"`
	Topic     string     `gorm:"size:255;not null"`
	Key       string     `gorm:"column:event_key;size:255;not null"`
	Payload   string     `gorm:"type:text;not null"`
	CreatedAt time.Time  `gorm:"not null"`
	SentAt    *time.Time `gorm:"index"`
	Attempts  int        `gorm:"not null;default:0"`
}

func (OutboxRecord) TableName() string { return "outbox" }
