// Package jobs holds the background jobs run by the queue workers.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shashiranjanraj/apotek/app/domain"
	"github.com/shashiranjanraj/apotek/app/receipt"
	"github.com/shashiranjanraj/apotek/pkg/queue"
	"github.com/shashiranjanraj/apotek/pkg/storage"
)

// TransactionFinder loads a committed transaction.
type TransactionFinder interface {
	FindByID(ctx context.Context, id uint) (domain.Transaction, error)
}

// ArchiveReceipt writes the printable slip and its JSON view of one
// transaction to the storage disk. Re-running it overwrites the same files
// with identical content.
type ArchiveReceipt struct {
	TransactionID uint `json:"transaction_id"`

	finder    TransactionFinder
	formatter *receipt.Formatter
	disk      storage.Disk
	loc       *time.Location
}

// NewArchiveReceipt returns the factory registered with the queue manager.
func NewArchiveReceipt(finder TransactionFinder, formatter *receipt.Formatter, disk storage.Disk, loc *time.Location) func() queue.Job {
	if loc == nil {
		loc = time.UTC
	}
	return func() queue.Job {
		return &ArchiveReceipt{finder: finder, formatter: formatter, disk: disk, loc: loc}
	}
}

// ReceiptPath is receipts/YYYY/MM/DD/<id> in the business time zone,
// without extension.
func ReceiptPath(tx domain.Transaction, loc *time.Location) string {
	return fmt.Sprintf("receipts/%s/%d", tx.CreatedAt.In(loc).Format("2006/01/02"), tx.ID)
}

func (j *ArchiveReceipt) Handle(ctx context.Context) error {
	tx, err := j.finder.FindByID(ctx, j.TransactionID)
	if err != nil {
		return fmt.Errorf("archive receipt %d: %w", j.TransactionID, err)
	}

	view := j.formatter.Format(tx)
	base := ReceiptPath(tx, j.loc)

	data, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return fmt.Errorf("archive receipt %d: encode: %w", tx.ID, err)
	}
	if err := j.disk.Put(ctx, base+".json", data); err != nil {
		return err
	}
	return j.disk.Put(ctx, base+".txt", []byte(view.Text()))
}
