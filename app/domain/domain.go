// Package domain holds the value types shared by the cart, pricing,
// settlement, history and receipt packages. Money is always a
// decimal.Decimal; float64 never carries an amount.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is one catalog entry as the cashier sees it at fetch time.
type Product struct {
	ID        uint            `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Stock     int             `json:"stock"`
}

// InStock reports whether the catalog snapshot shows at least one unit.
func (p Product) InStock() bool { return p.Stock > 0 }

// CartLine is a product in the cart. UnitPrice is captured when the line is
// first added and is never refreshed from the catalog.
type CartLine struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// Totals is the priced view of a set of cart lines.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// StockDelta is the number of units a committed sale removes from a product.
type StockDelta struct {
	ProductID uint
	Quantity  int
}

// TransactionLine is an immutable sold line.
type TransactionLine struct {
	ProductID    uint            `json:"product_id"`
	Name         string          `json:"name"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Quantity     int             `json:"quantity"`
	LineSubtotal decimal.Decimal `json:"line_subtotal"`
}

// Transaction is a committed, immutable sale.
type Transaction struct {
	ID               uint              `json:"id"`
	CreatedAt        time.Time         `json:"created_at"`
	CashierID        uint              `json:"cashier_id"`
	CashierName      string            `json:"cashier_name"`
	CustomerName     string            `json:"customer_name"`
	Lines            []TransactionLine `json:"lines"`
	Subtotal         decimal.Decimal   `json:"subtotal"`
	Tax              decimal.Decimal   `json:"tax"`
	Total            decimal.Decimal   `json:"total"`
	Tendered         decimal.Decimal   `json:"tendered"`
	Change           decimal.Decimal   `json:"change"`
	IdempotencyToken string            `json:"idempotency_token"`
}

// Deltas returns one stock delta per line, in line order.
func (t Transaction) Deltas() []StockDelta {
	out := make([]StockDelta, 0, len(t.Lines))
	for _, l := range t.Lines {
		out = append(out, StockDelta{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return out
}

// SaleEvent is the integration event published for every committed sale.
type SaleEvent struct {
	EventID       string            `json:"event_id"`
	Type          string            `json:"type"`
	TransactionID uint              `json:"transaction_id"`
	CashierID     uint              `json:"cashier_id"`
	Total         decimal.Decimal   `json:"total"`
	Tax           decimal.Decimal   `json:"tax"`
	Lines         []TransactionLine `json:"lines"`
	OccurredAt    time.Time         `json:"occurred_at"`
}

// NewSaleEvent describes tx under eventID.
func NewSaleEvent(eventID string, tx Transaction) SaleEvent {
	return SaleEvent{
		EventID:       eventID,
		Type:          "sale.committed",
		TransactionID: tx.ID,
		CashierID:     tx.CashierID,
		Total:         tx.Total,
		Tax:           tx.Tax,
		Lines:         tx.Lines,
		OccurredAt:    tx.CreatedAt,
	}
}
