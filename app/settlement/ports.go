package settlement

import (
	"context"
	"time"

	"github.com/shashiranjanraj/apotek/app/domain"
)

// TransactionStore persists committed sales.
//
// Commit must be all-or-nothing: either every delta is applied, the
// transaction (with its lines) is inserted and the store assigns ID and
// CreatedAt, or nothing changes. A delta that would drive stock below zero
// fails the whole commit with a *StockError for the first such line in
// tx.Lines order. If a transaction with tx.IdempotencyToken already exists
// Commit applies nothing and returns the stored transaction together with
// ErrAlreadyCommitted.
type TransactionStore interface {
	FindByIdempotencyToken(ctx context.Context, token string) (domain.Transaction, bool, error)
	Commit(ctx context.Context, deltas []domain.StockDelta, tx domain.Transaction) (domain.Transaction, error)
	ListByDateAndCashier(ctx context.Context, date time.Time, cashierID uint) ([]domain.Transaction, error)
	FindByID(ctx context.Context, id uint) (domain.Transaction, error)
}

// EventTransactionCommitted is fired with the committed domain.Transaction.
const EventTransactionCommitted = "transaction.committed"
