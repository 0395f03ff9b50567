package settlement

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shashiranjanraj/apotek/app/cart"
	"github.com/shopspring/decimal"
)

// Failure kinds. Every error returned by the Coordinator matches exactly one
// of these with errors.Is.
var (
	ErrValidation           = errors.New("settlement: invalid request")
	ErrInsufficientPayment  = errors.New("settlement: insufficient payment")
	ErrInsufficientStock    = errors.New("settlement: insufficient stock")
	ErrSettlementInProgress = cart.ErrSettlementInProgress
	ErrConcurrencyConflict  = errors.New("settlement: concurrent update conflict")
	ErrPersistence          = errors.New("settlement: persistence failure")
	ErrCancelled            = errors.New("settlement: cancelled before commit")

	// ErrNotFound is returned by TransactionStore.FindByID.
	ErrNotFound = errors.New("settlement: transaction not found")
	// ErrAlreadyCommitted accompanies the stored transaction when Commit
	// sees a token that is already persisted.
	ErrAlreadyCommitted = errors.New("settlement: idempotency token already committed")
)

// ValidationError lists the offending fields.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid settlement request: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// PaymentError reports a tendered amount below the total.
type PaymentError struct {
	Total    decimal.Decimal
	Tendered decimal.Decimal
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("payment of %s does not cover total %s", e.Tendered, e.Total)
}

func (e *PaymentError) Is(target error) bool { return target == ErrInsufficientPayment }

// Shortfall is how much more the customer has to pay.
func (e *PaymentError) Shortfall() decimal.Decimal { return e.Total.Sub(e.Tendered) }

// StockError names the first product in cart order whose stock could not
// cover the requested quantity.
type StockError struct {
	ProductID uint
	Name      string
	Requested int
}

func (e *StockError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("insufficient stock for %s (product %d, requested %d)", e.Name, e.ProductID, e.Requested)
	}
	return fmt.Sprintf("insufficient stock for product %d (requested %d)", e.ProductID, e.Requested)
}

func (e *StockError) Is(target error) bool { return target == ErrInsufficientStock }
