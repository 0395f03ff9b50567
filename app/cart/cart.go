// Package cart keeps the lines a cashier is assembling and guards them while
// a settlement is in flight.
//
// State machine:
//
//	Empty ──add──▶ Building ──Freeze──▶ Pending ──Complete──▶ Empty
//	                  ▲                    │
//	                  └──────Release───────┘
//
// Every mutation fails with ErrSettlementInProgress while Pending.
package cart

import (
	"context"
	"errors"
	"sync"

	"github.com/shashiranjanraj/apotek/app/domain"
)

var (
	ErrSettlementInProgress = errors.New("cart: settlement in progress")
	ErrOutOfStock           = errors.New("cart: product is out of stock")
	ErrInvalidQuantity      = errors.New("cart: quantity must be at least 1")
	ErrLineNotFound         = errors.New("cart: product is not in the cart")
	ErrEmpty                = errors.New("cart: cart is empty")
	ErrNotPending           = errors.New("cart: no settlement is pending")
	ErrCommitStarted        = errors.New("cart: settlement already committing")
	ErrCancelled            = errors.New("cart: settlement cancelled")
)

// State is the lifecycle position of a Cart.
type State int

const (
	Empty State = iota
	Building
	Pending
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Building:
		return "building"
	case Pending:
		return "pending_settlement"
	default:
		return "unknown"
	}
}

// Cart is safe for concurrent use. Lines keep insertion order.
type Cart struct {
	mu    sync.Mutex
	lines []domain.CartLine
	state State

	pendingCtx context.Context
	cancel     context.CancelFunc
	committing bool
}

func New() *Cart {
	return &Cart{}
}

func (c *Cart) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// AddLine adds qty units of p. An existing line is incremented and keeps the
// price it was first added at; a new line captures p.UnitPrice. The stock
// check is advisory; the store re-checks at commit.
func (c *Cart) AddLine(p domain.Product, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	if !p.InStock() {
		return ErrOutOfStock
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Pending {
		return ErrSettlementInProgress
	}

	if i := c.index(p.ID); i >= 0 {
		c.lines[i].Quantity += qty
	} else {
		c.lines = append(c.lines, domain.CartLine{
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: p.UnitPrice,
			Quantity:  qty,
		})
	}
	c.state = Building
	return nil
}

// AdjustQuantity applies delta to a line, clamping the result at 1. Use
// RemoveLine to drop a line.
func (c *Cart) AdjustQuantity(productID uint, delta int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Pending {
		return ErrSettlementInProgress
	}

	i := c.index(productID)
	if i < 0 {
		return ErrLineNotFound
	}

	q := c.lines[i].Quantity + delta
	if q < 1 {
		q = 1
	}
	c.lines[i].Quantity = q
	return nil
}

// RemoveLine drops the line for productID; absent lines are a no-op.
func (c *Cart) RemoveLine(productID uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Pending {
		return ErrSettlementInProgress
	}

	if i := c.index(productID); i >= 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
	}
	if len(c.lines) == 0 {
		c.state = Empty
	}
	return nil
}

func (c *Cart) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Pending {
		return ErrSettlementInProgress
	}
	c.lines = nil
	c.state = Empty
	return nil
}

// Snapshot returns a copy of the lines. Callers may modify it freely.
func (c *Cart) Snapshot() []domain.CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

// Freeze moves a Building cart to Pending and returns a context that is
// cancelled by Cancel, together with the frozen lines.
func (c *Cart) Freeze(ctx context.Context) (context.Context, []domain.CartLine, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case Pending:
		return nil, nil, ErrSettlementInProgress
	case Empty:
		return nil, nil, ErrEmpty
	}

	c.pendingCtx, c.cancel = context.WithCancel(ctx)
	c.committing = false
	c.state = Pending
	return c.pendingCtx, c.snapshot(), nil
}

// BeginCommit marks the point after which the settlement can no longer be
// cancelled. It fails if Cancel already ran.
func (c *Cart) BeginCommit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Pending {
		return ErrNotPending
	}
	if c.pendingCtx.Err() != nil {
		return ErrCancelled
	}
	c.committing = true
	return nil
}

// Cancel aborts a pending settlement that has not started committing.
func (c *Cart) Cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Pending {
		return ErrNotPending
	}
	if c.committing {
		return ErrCommitStarted
	}
	c.cancel()
	return nil
}

// Complete empties the cart after a committed settlement.
func (c *Cart) Complete() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.finish()
	c.lines = nil
	c.state = Empty
}

// Release returns a pending cart to Building with its lines untouched.
func (c *Cart) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.finish()
	if len(c.lines) == 0 {
		c.state = Empty
	} else {
		c.state = Building
	}
}

func (c *Cart) finish() {
	if c.cancel != nil {
		c.cancel()
	}
	c.pendingCtx, c.cancel, c.committing = nil, nil, false
}

func (c *Cart) index(productID uint) int {
	for i, l := range c.lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) snapshot() []domain.CartLine {
	out := make([]domain.CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}
