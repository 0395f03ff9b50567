// Package migrations holds the schema history. Importing it registers every
// migration with pkg/migration.
package migrations

import (
	"github.com/shashiranjanraj/apotek/app/models"
	"github.com/shashiranjanraj/apotek/pkg/migration"
	"github.com/shashiranjanraj/apotek/pkg/queue"
	"gorm.io/gorm"
)

func init() {
	for name, m := range All() {
		migration.Register(name, m)
	}
}

// All returns the schema history keyed by migration name.
func All() map[string]migration.Migration {
	return map[string]migration.Migration{
		"20260101000000_create_users_table":        &CreateUsersTable{},
		"20260101000001_create_products_table":     &CreateProductsTable{},
		"20260101000002_create_transactions_table": &CreateTransactionsTable{},
		"20260101000003_create_outbox_table":       &CreateOutboxTable{},
		"20260101000004_create_failed_jobs_table":  &CreateFailedJobsTable{},
	}
}

type CreateUsersTable struct{}

func (m *CreateUsersTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.User{})
}

func (m *CreateUsersTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.User{})
}

type CreateProductsTable struct{}

func (m *CreateProductsTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Product{})
}

func (m *CreateProductsTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.Product{})
}

// CreateTransactionsTable creates transactions and their line items.
type CreateTransactionsTable struct{}

func (m *CreateTransactionsTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Transaction{}, &models.TransactionItem{})
}

func (m *CreateTransactionsTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.TransactionItem{}, &models.Transaction{})
}

type CreateOutboxTable struct{}

func (m *CreateOutboxTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.OutboxRecord{})
}

func (m *CreateOutboxTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.OutboxRecord{})
}

type CreateFailedJobsTable struct{}

func (m *CreateFailedJobsTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&queue.FailedJobRecord{})
}

func (m *CreateFailedJobsTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&queue.FailedJobRecord{})
}
