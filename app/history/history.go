// Package history answers read-only questions about committed sales.
package history

import (
	"context"
	"time"

	"github.com/shashiranjanraj/apotek/app/domain"
)

// Store is the read side of settlement.TransactionStore.
type Store interface {
	ListByDateAndCashier(ctx context.Context, date time.Time, cashierID uint) ([]domain.Transaction, error)
	FindByID(ctx context.Context, id uint) (domain.Transaction, error)
}

type Query struct {
	store Store
	loc   *time.Location
	now   func() time.Time
}

// NewQuery builds a Query whose "today" is the calendar day in loc.
func NewQuery(store Store, loc *time.Location) *Query {
	if loc == nil {
		loc = time.UTC
	}
	return &Query{store: store, loc: loc, now: time.Now}
}

// WithClock replaces the time source. Used by tests.
func (q *Query) WithClock(now func() time.Time) *Query {
	cp := *q
	cp.now = now
	return &cp
}

// ListToday returns the cashier's transactions for the current business
// day, newest first.
func (q *Query) ListToday(ctx context.Context, cashierID uint) ([]domain.Transaction, error) {
	list, err := q.store.ListByDateAndCashier(ctx, q.now().In(q.loc), cashierID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.Transaction{}
	}
	return list, nil
}

// Expand returns the sold lines of one transaction.
func (q *Query) Expand(ctx context.Context, transactionID uint) ([]domain.TransactionLine, error) {
	tx, err := q.store.FindByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	return tx.Lines, nil
}

// Get returns one transaction.
func (q *Query) Get(ctx context.Context, transactionID uint) (domain.Transaction, error) {
	return q.store.FindByID(ctx, transactionID)
}
