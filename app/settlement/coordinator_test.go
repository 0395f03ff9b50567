package settlement_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shashiranjanraj/apotek/app/cart"
	"github.com/shashiranjanraj/apotek/app/domain"
	"github.com/shashiranjanraj/apotek/app/pricing"
	"github.com/shashiranjanraj/apotek/app/repositories"
	"github.com/shashiranjanraj/apotek/app/settlement"
	"github.com/shashiranjanraj/apotek/pkg/event"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var (
	paracetamol = domain.Product{ID: 1, Name: "Paracetamol 500mg", UnitPrice: d("2000"), Stock: 10}
	vitaminC    = domain.Product{ID: 2, Name: "Vitamin C", UnitPrice: d("1000"), Stock: 10}
)

func setup(t *testing.T, products ...domain.Product) (*settlement.Coordinator, *repositories.MemoryStore, *event.Bus) {
	t.Helper()
	store := repositories.NewMemoryStore(products...)
	bus := event.NewBus(nil)
	return settlement.NewCoordinator(store, pricing.NewCalculator(pricing.DefaultPolicy()), bus), store, bus
}

func request(token string, tendered string, lines ...domain.CartLine) settlement.Request {
	return settlement.Request{
		CashierID:        7,
		CashierName:      "Sari",
		CustomerName:     "Budi",
		Lines:            lines,
		Tendered:         d(tendered),
		IdempotencyToken: token,
	}
}

func line(p domain.Product, qty int) domain.CartLine {
	return domain.CartLine{ProductID: p.ID, Name: p.Name, UnitPrice: p.UnitPrice, Quantity: qty}
}

func TestSettleCommitsAndComputesChange(t *testing.T) {
	c, store, bus := setup(t, paracetamol, vitaminC)

	var fired []domain.Transaction
	bus.Listen(settlement.EventTransactionCommitted, func(_ context.Context, p any) error {
		fired = append(fired, p.(domain.Transaction))
		return nil
	})

	tx, err := c.Settle(context.Background(), request("tok-1", "7000", line(paracetamol, 2), line(vitaminC, 2)))
	require.NoError(t, err)

	assert.NotZero(t, tx.ID)
	assert.False(t, tx.CreatedAt.IsZero())
	assert.True(t, tx.Subtotal.Equal(d("6000")))
	assert.True(t, tx.Tax.Equal(d("600")))
	assert.True(t, tx.Total.Equal(d("6600")))
	assert.True(t, tx.Change.Equal(d("400")))
	require.Len(t, tx.Lines, 2)
	assert.True(t, tx.Lines[0].LineSubtotal.Equal(d("4000")))

	assert.Equal(t, 8, store.Stock(1))
	assert.Equal(t, 8, store.Stock(2))
	require.Len(t, fired, 1)
	assert.Equal(t, tx.ID, fired[0].ID)
}

func TestSettleRejectsInsufficientPayment(t *testing.T) {
	c, store, _ := setup(t, paracetamol, vitaminC)

	_, err := c.Settle(context.Background(), request("tok-1", "6000", line(paracetamol, 2), line(vitaminC, 2)))

	var pe *settlement.PaymentError
	require.ErrorAs(t, err, &pe)
	assert.ErrorIs(t, err, settlement.ErrInsufficientPayment)
	assert.True(t, pe.Shortfall().Equal(d("600")))
	assert.Equal(t, 10, store.Stock(1))

	_, found, _ := store.FindByIdempotencyToken(context.Background(), "tok-1")
	assert.False(t, found)
}

func TestSettleRejectsInsufficientStock(t *testing.T) {
	low := paracetamol
	low.Stock = 1
	c, store, _ := setup(t, vitaminC, low)

	_, err := c.Settle(context.Background(), request("tok-1", "100000", line(vitaminC, 1), line(low, 2)))

	var se *settlement.StockError
	require.ErrorAs(t, err, &se)
	assert.ErrorIs(t, err, settlement.ErrInsufficientStock)
	assert.Equal(t, low.ID, se.ProductID)

	assert.Equal(t, 10, store.Stock(vitaminC.ID), "no partial decrement")
	assert.Equal(t, 1, store.Stock(low.ID))
}

func TestSettleValidation(t *testing.T) {
	c, _, _ := setup(t, paracetamol)

	cases := map[string]settlement.Request{
		"customer": func() settlement.Request {
			r := request("tok", "5000", line(paracetamol, 1))
			r.CustomerName = "  "
			return r
		}(),
		"items":    request("tok", "5000"),
		"quantity": request("tok", "5000", domain.CartLine{ProductID: 1, UnitPrice: d("2000"), Quantity: 0}),
		"token":    request("", "5000", line(paracetamol, 1)),
		"tendered": request("tok", "-1", line(paracetamol, 1)),
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := c.Settle(context.Background(), req)
			var ve *settlement.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.ErrorIs(t, err, settlement.ErrValidation)
			assert.NotEmpty(t, ve.Fields)
		})
	}
}

func TestSettleRejectsTenderFinerThanCurrency(t *testing.T) {
	c, store, _ := setup(t, paracetamol, vitaminC)

	_, err := c.Settle(context.Background(), request("tok-1", "7000.555", line(paracetamol, 2), line(vitaminC, 2)))

	var ve *settlement.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "payment_amount")
	assert.Equal(t, 10, store.Stock(1))
	_, found, _ := store.FindByIdempotencyToken(context.Background(), "tok-1")
	assert.False(t, found)
}

func TestSettleAcceptsTenderWithTrailingZeros(t *testing.T) {
	c, _, _ := setup(t, paracetamol, vitaminC)

	tx, err := c.Settle(context.Background(), request("tok-1", "7000.00", line(paracetamol, 2), line(vitaminC, 2)))
	require.NoError(t, err)
	assert.True(t, tx.Change.Equal(d("400")))
	assert.True(t, tx.Change.Equal(tx.Change.Round(0)))
}

func TestSettleIsIdempotent(t *testing.T) {
	c, store, bus := setup(t, paracetamol)
	fired := 0
	bus.Listen(settlement.EventTransactionCommitted, func(context.Context, any) error { fired++; return nil })

	first, err := c.Settle(context.Background(), request("tok-1", "5000", line(paracetamol, 2)))
	require.NoError(t, err)

	// A retry with different (even invalid) content returns the original.
	second, err := c.Settle(context.Background(), request("tok-1", "0", line(paracetamol, 5)))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.True(t, first.Total.Equal(second.Total))
	assert.Equal(t, 8, store.Stock(1))
	assert.Equal(t, 1, fired)
}

func TestLastUnitRace(t *testing.T) {
	last := paracetamol
	last.Stock = 1
	c, store, _ := setup(t, last)

	var g errgroup.Group
	results := make([]error, 2)
	for i, tok := range []string{"tok-a", "tok-b"} {
		g.Go(func() error {
			_, results[i] = c.Settle(context.Background(), request(tok, "5000", line(last, 1)))
			return nil
		})
	}
	require.NoError(t, g.Wait())

	ok, stock := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, settlement.ErrInsufficientStock):
			stock++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, stock)
	assert.Equal(t, 0, store.Stock(last.ID))
}

func TestSettleCartClearsOnSuccess(t *testing.T) {
	c, _, _ := setup(t, paracetamol, vitaminC)
	ct := cart.New()
	require.NoError(t, ct.AddLine(paracetamol, 2))
	require.NoError(t, ct.AddLine(vitaminC, 2))

	tx, err := c.SettleCart(context.Background(), ct, settlement.CartRequest{
		CashierID: 7, CustomerName: "Budi", Tendered: d("7000"), IdempotencyToken: "tok-1",
	})
	require.NoError(t, err)
	assert.True(t, tx.Change.Equal(d("400")))
	assert.Equal(t, cart.Empty, ct.State())

	// Retrying after the cart was cleared still returns the committed sale.
	again, err := c.SettleCart(context.Background(), ct, settlement.CartRequest{
		CashierID: 7, CustomerName: "Budi", Tendered: d("7000"), IdempotencyToken: "tok-1",
	})
	require.NoError(t, err)
	assert.Equal(t, tx.ID, again.ID)
}

func TestSettleCartKeepsLinesOnFailure(t *testing.T) {
	c, _, _ := setup(t, paracetamol)
	ct := cart.New()
	require.NoError(t, ct.AddLine(paracetamol, 2))

	_, err := c.SettleCart(context.Background(), ct, settlement.CartRequest{
		CashierID: 7, CustomerName: "Budi", Tendered: d("1000"), IdempotencyToken: "tok-1",
	})
	require.ErrorIs(t, err, settlement.ErrInsufficientPayment)

	assert.Equal(t, cart.Building, ct.State())
	assert.Equal(t, 2, ct.Snapshot()[0].Quantity)
}

func TestSettleCartEmptyCart(t *testing.T) {
	c, _, _ := setup(t, paracetamol)
	_, err := c.SettleCart(context.Background(), cart.New(), settlement.CartRequest{
		CashierID: 7, CustomerName: "Budi", Tendered: d("1000"), IdempotencyToken: "tok-1",
	})
	assert.ErrorIs(t, err, settlement.ErrValidation)
}

func TestSettleCartCancelledBeforeCommit(t *testing.T) {
	c, store, _ := setup(t, paracetamol)
	ct := cart.New()
	require.NoError(t, ct.AddLine(paracetamol, 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.SettleCart(ctx, ct, settlement.CartRequest{
		CashierID: 7, CustomerName: "Budi", Tendered: d("5000"), IdempotencyToken: "tok-1",
	})
	require.ErrorIs(t, err, settlement.ErrCancelled)
	assert.Equal(t, cart.Building, ct.State())
	assert.Equal(t, 10, store.Stock(1))
}

func TestConcurrentSubmitOnSameCart(t *testing.T) {
	c, _, _ := setup(t, paracetamol)
	ct := cart.New()
	require.NoError(t, ct.AddLine(paracetamol, 1))

	_, _, err := ct.Freeze(context.Background())
	require.NoError(t, err)

	_, err = c.SettleCart(context.Background(), ct, settlement.CartRequest{
		CashierID: 7, CustomerName: "Budi", Tendered: d("5000"), IdempotencyToken: "tok-2",
	})
	assert.ErrorIs(t, err, settlement.ErrSettlementInProgress)
}

func TestReceiptSurvivesCatalogPriceChange(t *testing.T) {
	c, store, _ := setup(t, paracetamol)

	tx, err := c.Settle(context.Background(), request("tok-1", "5000", line(paracetamol, 1)))
	require.NoError(t, err)

	repriced := paracetamol
	repriced.UnitPrice = d("9999")
	store.Put(repriced)

	got, err := store.FindByID(context.Background(), tx.ID)
	require.NoError(t, err)
	assert.True(t, got.Lines[0].UnitPrice.Equal(d("2000")))
	assert.True(t, got.Total.Equal(tx.Total))
}

type failingStore struct {
	*repositories.MemoryStore
	err error
}

func (f failingStore) Commit(context.Context, []domain.StockDelta, domain.Transaction) (domain.Transaction, error) {
	return domain.Transaction{}, f.err
}

func TestUnclassifiedStoreErrorIsPersistenceFailure(t *testing.T) {
	store := failingStore{MemoryStore: repositories.NewMemoryStore(paracetamol), err: errors.New("disk full")}
	c := settlement.NewCoordinator(store, pricing.NewCalculator(pricing.DefaultPolicy()), nil)

	_, err := c.Settle(context.Background(), request("tok-1", "5000", line(paracetamol, 1)))
	assert.ErrorIs(t, err, settlement.ErrPersistence)
}

func TestConflictIsPassedThrough(t *testing.T) {
	store := failingStore{MemoryStore: repositories.NewMemoryStore(paracetamol), err: settlement.ErrConcurrencyConflict}
	c := settlement.NewCoordinator(store, pricing.NewCalculator(pricing.DefaultPolicy()), nil)

	_, err := c.Settle(context.Background(), request("tok-1", "5000", line(paracetamol, 1)))
	assert.ErrorIs(t, err, settlement.ErrConcurrencyConflict)
}

func TestManyConcurrentSettlementsNeverOversell(t *testing.T) {
	stocked := paracetamol
	stocked.Stock = 25
	c, store, _ := setup(t, stocked)

	var mu sync.Mutex
	committed := 0
	var g errgroup.Group
	for i := 0; i < 40; i++ {
		g.Go(func() error {
			_, err := c.Settle(context.Background(), request(string(rune('A'+i))+"-tok", "5000", line(stocked, 1)))
			if err == nil {
				mu.Lock()
				committed++
				mu.Unlock()
				return nil
			}
			if errors.Is(err, settlement.ErrInsufficientStock) {
				return nil
			}
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, 25, committed)
	assert.Equal(t, 0, store.Stock(stocked.ID))
}
