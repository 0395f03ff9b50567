// Package settlement turns a frozen cart into a persisted, stock-consistent
// transaction exactly once per idempotency token.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shashiranjanraj/apotek/app/cart"
	"github.com/shashiranjanraj/apotek/app/domain"
	"github.com/shashiranjanraj/apotek/app/pricing"
	"github.com/shashiranjanraj/apotek/pkg/event"
	"github.com/shashiranjanraj/apotek/pkg/logger"
	"github.com/shashiranjanraj/apotek/pkg/metrics"
	"github.com/shopspring/decimal"
)

const (
	maxTokenLen    = 64
	maxCustomerLen = 255
)

// Request is a settlement of an already frozen set of lines.
type Request struct {
	CashierID        uint
	CashierName      string
	CustomerName     string
	Lines            []domain.CartLine
	Tendered         decimal.Decimal
	IdempotencyToken string
}

// CartRequest is a settlement of whatever the cart holds when it is frozen.
type CartRequest struct {
	CashierID        uint
	CashierName      string
	CustomerName     string
	Tendered         decimal.Decimal
	IdempotencyToken string
}

// Coordinator settles carts against a TransactionStore and announces each
// committed sale.
type Coordinator struct {
	store  TransactionStore
	calc   *pricing.Calculator
	events event.Dispatcher
}

// NewCoordinator wires a coordinator. events may be nil.
func NewCoordinator(store TransactionStore, calc *pricing.Calculator, events event.Dispatcher) *Coordinator {
	return &Coordinator{store: store, calc: calc, events: events}
}

// Settle validates req, prices it and commits it atomically. A token that
// was already committed returns the stored transaction untouched.
func (c *Coordinator) Settle(ctx context.Context, req Request) (tx domain.Transaction, err error) {
	start := time.Now()
	outcome := "committed"
	defer func() { metrics.RecordSettlement(outcomeOf(outcome, err), start) }()

	if prior, ok, err := c.lookup(ctx, req.IdempotencyToken); err != nil {
		return domain.Transaction{}, err
	} else if ok {
		outcome = "replayed"
		return prior, nil
	}

	tx, replayed, err := c.commit(ctx, req, nil)
	if replayed {
		outcome = "replayed"
	}
	return tx, err
}

// SettleCart freezes ct, settles its lines and then clears it on success or
// returns it to Building on failure. Cancel on the cart aborts the
// settlement as long as the stock decrement has not started.
func (c *Coordinator) SettleCart(ctx context.Context, ct *cart.Cart, req CartRequest) (tx domain.Transaction, err error) {
	start := time.Now()
	outcome := "committed"
	defer func() { metrics.RecordSettlement(outcomeOf(outcome, err), start) }()

	if prior, ok, err := c.lookup(ctx, req.IdempotencyToken); err != nil {
		return domain.Transaction{}, err
	} else if ok {
		outcome = "replayed"
		return prior, nil
	}

	pctx, lines, err := ct.Freeze(ctx)
	if err != nil {
		if errors.Is(err, cart.ErrEmpty) {
			return domain.Transaction{}, &ValidationError{Fields: map[string]string{"items": "cart is empty"}}
		}
		return domain.Transaction{}, err
	}

	tx, replayed, err := c.commit(pctx, Request{
		CashierID:        req.CashierID,
		CashierName:      req.CashierName,
		CustomerName:     req.CustomerName,
		Lines:            lines,
		Tendered:         req.Tendered,
		IdempotencyToken: req.IdempotencyToken,
	}, ct.BeginCommit)
	if err != nil {
		ct.Release()
		return domain.Transaction{}, err
	}
	if replayed {
		outcome = "replayed"
	}

	ct.Complete()
	return tx, nil
}

func (c *Coordinator) lookup(ctx context.Context, token string) (domain.Transaction, bool, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Transaction{}, false, nil
	}

	tx, ok, err := c.store.FindByIdempotencyToken(ctx, token)
	if err != nil {
		return domain.Transaction{}, false, classify(err)
	}
	return tx, ok, nil
}

// commit runs validation, pricing and the store commit. gate, when set, is
// called right before the store is touched; its error aborts the commit.
func (c *Coordinator) commit(ctx context.Context, req Request, gate func() error) (domain.Transaction, bool, error) {
	log := logger.WithCtx(ctx).With("cashier_id", req.CashierID, "idempotency_token", req.IdempotencyToken)

	if err := validate(req, c.calc.Policy().MinorUnits); err != nil {
		log.Warn("settlement rejected", "error", err)
		return domain.Transaction{}, false, err
	}

	totals := c.calc.Price(req.Lines)
	if req.Tendered.LessThan(totals.Total) {
		err := &PaymentError{Total: totals.Total, Tendered: req.Tendered}
		log.Warn("settlement rejected", "error", err)
		return domain.Transaction{}, false, err
	}

	if ctx.Err() != nil {
		return domain.Transaction{}, false, ErrCancelled
	}
	if gate != nil {
		if err := gate(); err != nil {
			if errors.Is(err, cart.ErrCancelled) {
				return domain.Transaction{}, false, ErrCancelled
			}
			return domain.Transaction{}, false, err
		}
	}

	tx := c.build(req, totals)

	// Past this point the client can no longer abort: the commit either
	// lands completely or not at all.
	committed, err := c.store.Commit(context.WithoutCancel(ctx), tx.Deltas(), tx)
	if errors.Is(err, ErrAlreadyCommitted) {
		log.Info("settlement replayed", "transaction_id", committed.ID)
		return committed, true, nil
	}
	if err != nil {
		err = classify(err)
		log.Warn("settlement failed", "error", err)
		return domain.Transaction{}, false, err
	}

	log.Info("settlement committed",
		"transaction_id", committed.ID,
		"total", committed.Total.String(),
		"lines", len(committed.Lines),
	)

	units := 0
	for _, l := range committed.Lines {
		units += l.Quantity
	}
	metrics.UnitsSold.Add(float64(units))

	if c.events != nil {
		if err := c.events.Fire(context.WithoutCancel(ctx), EventTransactionCommitted, committed); err != nil {
			log.Error("transaction.committed listener failed", "transaction_id", committed.ID, "error", err)
		}
	}

	return committed, false, nil
}

func (c *Coordinator) build(req Request, totals domain.Totals) domain.Transaction {
	lines := make([]domain.TransactionLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, domain.TransactionLine{
			ProductID:    l.ProductID,
			Name:         l.Name,
			UnitPrice:    l.UnitPrice,
			Quantity:     l.Quantity,
			LineSubtotal: c.calc.LineSubtotal(l),
		})
	}

	return domain.Transaction{
		CashierID:        req.CashierID,
		CashierName:      req.CashierName,
		CustomerName:     strings.TrimSpace(req.CustomerName),
		Lines:            lines,
		Subtotal:         totals.Subtotal,
		Tax:              totals.Tax,
		Total:            totals.Total,
		Tendered:         req.Tendered,
		Change:           req.Tendered.Sub(totals.Total),
		IdempotencyToken: strings.TrimSpace(req.IdempotencyToken),
	}
}

func validate(req Request, minorUnits int32) error {
	fields := map[string]string{}

	if req.CashierID == 0 {
		fields["cashier"] = "cashier identity is required"
	}
	name := strings.TrimSpace(req.CustomerName)
	switch {
	case name == "":
		fields["customer_name"] = "customer name is required"
	case len(name) > maxCustomerLen:
		fields["customer_name"] = fmt.Sprintf("customer name must be at most %d characters", maxCustomerLen)
	}
	if len(req.Lines) == 0 {
		fields["items"] = "cart is empty"
	}
	seen := make(map[uint]bool, len(req.Lines))
	for i, l := range req.Lines {
		key := fmt.Sprintf("items.%d", i)
		switch {
		case l.Quantity < 1:
			fields[key] = "quantity must be at least 1"
		case l.UnitPrice.IsNegative():
			fields[key] = "unit price must not be negative"
		case seen[l.ProductID]:
			fields[key] = "duplicate product"
		}
		seen[l.ProductID] = true
	}
	switch {
	case req.Tendered.IsNegative():
		fields["payment_amount"] = "payment amount must not be negative"
	case !req.Tendered.Equal(req.Tendered.Round(minorUnits)):
		fields["payment_amount"] = fmt.Sprintf("payment amount must have at most %d decimal places", minorUnits)
	}
	token := strings.TrimSpace(req.IdempotencyToken)
	switch {
	case token == "":
		fields["idempotency_token"] = "idempotency token is required"
	case len(token) > maxTokenLen:
		fields["idempotency_token"] = fmt.Sprintf("idempotency token must be at most %d characters", maxTokenLen)
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// classify maps store errors onto the settlement taxonomy; anything the
// store did not classify is a persistence failure.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrConcurrencyConflict),
		errors.Is(err, ErrPersistence):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
}

func outcomeOf(success string, err error) string {
	switch {
	case err == nil:
		return success
	case errors.Is(err, ErrValidation):
		return "invalid"
	case errors.Is(err, ErrInsufficientPayment):
		return "insufficient_payment"
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrSettlementInProgress):
		return "in_progress"
	case errors.Is(err, ErrConcurrencyConflict):
		return "conflict"
	case errors.Is(err, ErrCancelled):
		return "cancelled"
	default:
		return "persistence"
	}
}
