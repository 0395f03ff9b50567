package repositories

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/shashiranjanraj/apotek/app/domain"
	"github.com/shashiranjanraj/apotek/app/models"
	"github.com/shashiranjanraj/apotek/app/settlement"
	"github.com/shashiranjanraj/apotek/pkg/logger"
	"gorm.io/gorm"
)

// TransactionRepository is the gorm implementation of
// settlement.TransactionStore.
type TransactionRepository struct {
	db      *gorm.DB
	outbox  *OutboxRepository
	catalog *CatalogRepository
	now     func() time.Time
}

// NewTransactionRepository wires the store. outbox and catalog may be nil;
// when set, every commit appends a sale event and drops the catalog cache.
func NewTransactionRepository(db *gorm.DB, outbox *OutboxRepository, catalog *CatalogRepository) *TransactionRepository {
	return &TransactionRepository{
		db:      db,
		outbox:  outbox,
		catalog: catalog,
		now:     func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

func withItems(db *gorm.DB) *gorm.DB {
	return db.Order("transaction_items.id ASC")
}

func (r *TransactionRepository) FindByIdempotencyToken(ctx context.Context, token string) (domain.Transaction, bool, error) {
	row, found, err := findByToken(r.db.WithContext(ctx), token)
	if err != nil {
		return domain.Transaction{}, false, classify(err)
	}
	return row.ToDomain(), found, nil
}

func findByToken(db *gorm.DB, token string) (models.Transaction, bool, error) {
	var row models.Transaction
	res := db.Preload("Items", withItems).
		Where("idempotency_token = ?", token).
		Limit(1).
		Find(&row)
	if res.Error != nil {
		return row, false, res.Error
	}
	return row, res.RowsAffected > 0, nil
}

// Commit applies deltas, inserts tx and its outbox event in one database
// transaction. Each delta is a conditional decrement
//
//	UPDATE products SET stock = stock - q WHERE id = ? AND stock >= q
//
// run in ascending product id so concurrent commits lock rows in the same
// order. Any decrement touching zero rows rolls everything back.
func (r *TransactionRepository) Commit(ctx context.Context, deltas []domain.StockDelta, tx domain.Transaction) (domain.Transaction, error) {
	var committed models.Transaction

	err := r.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		existing, found, err := findByToken(db, tx.IdempotencyToken)
		if err != nil {
			return err
		}
		if found {
			committed = existing
			return settlement.ErrAlreadyCommitted
		}

		if err := decrementStock(db, deltas, tx); err != nil {
			return err
		}

		row := models.TransactionFromDomain(tx)
		row.ID = 0
		row.CreatedAt = r.now()
		if err := db.Create(&row).Error; err != nil {
			return err
		}
		committed = row

		if r.outbox != nil {
			if err := r.outbox.InsertSale(db, row.ToDomain(), row.CreatedAt); err != nil {
				return err
			}
		}
		return nil
	})

	switch {
	case errors.Is(err, settlement.ErrAlreadyCommitted):
		return committed.ToDomain(), err
	case errors.Is(err, settlement.ErrInsufficientStock):
		return domain.Transaction{}, err
	case err != nil && isUniqueViolation(err):
		// Lost an insert race against the same token.
		existing, found, lookupErr := findByToken(r.db.WithContext(ctx), tx.IdempotencyToken)
		if lookupErr == nil && found {
			return existing.ToDomain(), settlement.ErrAlreadyCommitted
		}
		return domain.Transaction{}, errors.Join(settlement.ErrConcurrencyConflict, err)
	case err != nil:
		return domain.Transaction{}, classify(err)
	}

	if r.catalog != nil {
		if err := r.catalog.Invalidate(ctx); err != nil {
			logger.WithCtx(ctx).Warn("catalog cache invalidation failed", "error", err)
		}
	}
	return committed.ToDomain(), nil
}

func decrementStock(db *gorm.DB, deltas []domain.StockDelta, tx domain.Transaction) error {
	ordered := append([]domain.StockDelta(nil), deltas...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ProductID < ordered[j].ProductID })

	failed := map[uint]bool{}
	for _, d := range ordered {
		res := db.Model(&models.Product{}).
			Where("id = ? AND stock >= ?", d.ProductID, d.Quantity).
			UpdateColumn("stock", gorm.Expr("stock - ?", d.Quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			failed[d.ProductID] = true
		}
	}

	if len(failed) == 0 {
		return nil
	}
	// Report the first failing line in cart order.
	for _, d := range deltas {
		if failed[d.ProductID] {
			return stockError(d, tx)
		}
	}
	return nil
}

// ListByDateAndCashier returns the cashier's transactions on date's
// calendar day (in date's location), newest first.
func (r *TransactionRepository) ListByDateAndCashier(ctx context.Context, date time.Time, cashierID uint) ([]domain.Transaction, error) {
	from, to := dayBounds(date)

	var rows []models.Transaction
	err := r.db.WithContext(ctx).
		Preload("Items", withItems).
		Where("cashier_id = ? AND created_at >= ? AND created_at < ?", cashierID, from, to).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, classify(err)
	}

	out := make([]domain.Transaction, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToDomain())
	}
	return out, nil
}

func (r *TransactionRepository) FindByID(ctx context.Context, id uint) (domain.Transaction, error) {
	var row models.Transaction
	err := r.db.WithContext(ctx).Preload("Items", withItems).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Transaction{}, settlement.ErrNotFound
	}
	if err != nil {
		return domain.Transaction{}, classify(err)
	}
	return row.ToDomain(), nil
}
