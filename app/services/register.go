package services

import (
	"context"

	"github.com/shashiranjanraj/apotek/app/cart"
	"github.com/shashiranjanraj/apotek/app/catalog"
	"github.com/shashiranjanraj/apotek/app/domain"
	"github.com/shashiranjanraj/apotek/app/history"
	"github.com/shashiranjanraj/apotek/app/models"
	"github.com/shashiranjanraj/apotek/app/pricing"
	"github.com/shashiranjanraj/apotek/app/receipt"
	"github.com/shashiranjanraj/apotek/app/settlement"
	"github.com/shopspring/decimal"
)

// Cashier is the staff member operating a register.
type Cashier struct {
	ID   uint
	Name string
	Role string
}

// Operator is the unscoped viewer used by maintenance commands.
var Operator = Cashier{Name: "operator", Role: models.RoleAdmin}

// owns reports whether c may read tx. Admins see every sale, cashiers only
// their own.
func (c Cashier) owns(tx domain.Transaction) bool {
	return c.Role == models.RoleAdmin || (c.ID != 0 && tx.CashierID == c.ID)
}

// CartView is a cart together with its current price.
type CartView struct {
	State  string            `json:"state"`
	Lines  []domain.CartLine `json:"lines"`
	Totals domain.Totals     `json:"totals"`
}

// Submission is what the cashier enters in the payment dialog.
type Submission struct {
	CustomerName     string
	Tendered         decimal.Decimal
	IdempotencyToken string
}

// Register is the point-of-sale facade used by the HTTP, GraphQL and CLI
// layers. Each cashier gets an own cart from the registry.
type Register struct {
	carts       *cart.Registry
	catalog     catalog.Provider
	calc        *pricing.Calculator
	coordinator *settlement.Coordinator
	history     *history.Query
	receipts    *receipt.Formatter
}

func NewRegister(
	carts *cart.Registry,
	provider catalog.Provider,
	calc *pricing.Calculator,
	coordinator *settlement.Coordinator,
	hist *history.Query,
	receipts *receipt.Formatter,
) *Register {
	return &Register{
		carts:       carts,
		catalog:     provider,
		calc:        calc,
		coordinator: coordinator,
		history:     hist,
		receipts:    receipts,
	}
}

// Catalog lists sellable products with their current stock.
func (s *Register) Catalog(ctx context.Context) ([]domain.Product, error) {
	snap, err := catalog.Load(ctx, s.catalog)
	if err != nil {
		return nil, err
	}
	return snap.Products(), nil
}

// AddToCart looks the product up in a fresh catalog snapshot and adds qty
// units at the price it has right now.
func (s *Register) AddToCart(ctx context.Context, cashierID, productID uint, qty int) (CartView, error) {
	snap, err := catalog.Load(ctx, s.catalog)
	if err != nil {
		return CartView{}, err
	}
	p, err := snap.Lookup(productID)
	if err != nil {
		return CartView{}, err
	}

	ct := s.carts.For(cashierID)
	if err := ct.AddLine(p, qty); err != nil {
		return CartView{}, err
	}
	return s.view(ct), nil
}

func (s *Register) AdjustQuantity(cashierID, productID uint, delta int) (CartView, error) {
	ct := s.carts.For(cashierID)
	if err := ct.AdjustQuantity(productID, delta); err != nil {
		return CartView{}, err
	}
	return s.view(ct), nil
}

func (s *Register) RemoveFromCart(cashierID, productID uint) (CartView, error) {
	ct := s.carts.For(cashierID)
	if err := ct.RemoveLine(productID); err != nil {
		return CartView{}, err
	}
	return s.view(ct), nil
}

func (s *Register) ClearCart(cashierID uint) error {
	return s.carts.For(cashierID).Clear()
}

// ComputeTotals prices the cashier's cart as it stands.
func (s *Register) ComputeTotals(cashierID uint) CartView {
	return s.view(s.carts.For(cashierID))
}

// SubmitSettlement settles the cashier's cart. On success the cart is empty;
// on any failure it keeps its lines.
func (s *Register) SubmitSettlement(ctx context.Context, cashier Cashier, sub Submission) (domain.Transaction, error) {
	return s.coordinator.SettleCart(ctx, s.carts.For(cashier.ID), settlement.CartRequest{
		CashierID:        cashier.ID,
		CashierName:      cashier.Name,
		CustomerName:     sub.CustomerName,
		Tendered:         sub.Tendered,
		IdempotencyToken: sub.IdempotencyToken,
	})
}

// CancelSettlement aborts the cashier's pending settlement if it has not
// started committing.
func (s *Register) CancelSettlement(cashierID uint) error {
	return s.carts.For(cashierID).Cancel()
}

// GetTransaction returns a committed sale visible to viewer. Sales of other
// cashiers report settlement.ErrNotFound.
func (s *Register) GetTransaction(ctx context.Context, viewer Cashier, transactionID uint) (domain.Transaction, error) {
	tx, err := s.history.Get(ctx, transactionID)
	if err != nil {
		return domain.Transaction{}, err
	}
	if !viewer.owns(tx) {
		return domain.Transaction{}, settlement.ErrNotFound
	}
	return tx, nil
}

func (s *Register) GetReceipt(ctx context.Context, viewer Cashier, transactionID uint) (receipt.View, error) {
	tx, err := s.GetTransaction(ctx, viewer, transactionID)
	if err != nil {
		return receipt.View{}, err
	}
	return s.receipts.Format(tx), nil
}

func (s *Register) GetHistory(ctx context.Context, cashierID uint) ([]domain.Transaction, error) {
	return s.history.ListToday(ctx, cashierID)
}

func (s *Register) ExpandTransaction(ctx context.Context, viewer Cashier, transactionID uint) ([]domain.TransactionLine, error) {
	if _, err := s.GetTransaction(ctx, viewer, transactionID); err != nil {
		return nil, err
	}
	return s.history.Expand(ctx, transactionID)
}

func (s *Register) view(ct *cart.Cart) CartView {
	lines := ct.Snapshot()
	return CartView{
		State:  ct.State().String(),
		Lines:  lines,
		Totals: s.calc.Price(lines),
	}
}
