package history_test

import (
	"context"
	"testing"
	"time"

	"github.com/shashiranjanraj/apotek/app/domain"
	"github.com/shashiranjanraj/apotek/app/history"
	"github.com/shashiranjanraj/apotek/app/repositories"
	"github.com/shashiranjanraj/apotek/app/settlement"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commitAt(t *testing.T, s *repositories.MemoryStore, at time.Time, cashier uint, token string) domain.Transaction {
	t.Helper()
	s.SetClock(func() time.Time { return at })
	tx := domain.Transaction{
		CashierID:        cashier,
		CustomerName:     "Budi",
		Lines:            []domain.TransactionLine{{ProductID: 1, Name: "Paracetamol", UnitPrice: decimal.NewFromInt(2000), Quantity: 1, LineSubtotal: decimal.NewFromInt(2000)}},
		Subtotal:         decimal.NewFromInt(2000),
		Tax:              decimal.NewFromInt(200),
		Total:            decimal.NewFromInt(2200),
		Tendered:         decimal.NewFromInt(2200),
		Change:           decimal.Zero,
		IdempotencyToken: token,
	}
	out, err := s.Commit(context.Background(), tx.Deltas(), tx)
	require.NoError(t, err)
	return out
}

func TestListTodayUsesBusinessDay(t *testing.T) {
	wib := time.FixedZone("WIB", 7*3600)
	store := repositories.NewMemoryStore(domain.Product{ID: 1, Name: "Paracetamol", UnitPrice: decimal.NewFromInt(2000), Stock: 10})

	// 2026-03-01 00:30 WIB is still 2026-02-28 in UTC.
	early := commitAt(t, store, time.Date(2026, 2, 28, 17, 30, 0, 0, time.UTC), 1, "a")
	late := commitAt(t, store, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), 1, "b")
	commitAt(t, store, time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC), 2, "c")
	commitAt(t, store, time.Date(2026, 2, 28, 16, 0, 0, 0, time.UTC), 1, "d")

	q := history.NewQuery(store, wib).WithClock(func() time.Time {
		return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	})

	got, err := q.ListToday(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, late.ID, got[0].ID)
	assert.Equal(t, early.ID, got[1].ID)
}

func TestExpandReturnsLines(t *testing.T) {
	store := repositories.NewMemoryStore(domain.Product{ID: 1, Name: "Paracetamol", UnitPrice: decimal.NewFromInt(2000), Stock: 10})
	tx := commitAt(t, store, time.Now().UTC(), 1, "x")

	lines, err := history.NewQuery(store, nil).Expand(context.Background(), tx.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "Paracetamol", lines[0].Name)
}

func TestExpandUnknownTransaction(t *testing.T) {
	_, err := history.NewQuery(repositories.NewMemoryStore(), nil).Expand(context.Background(), 99)
	assert.ErrorIs(t, err, settlement.ErrNotFound)
}
