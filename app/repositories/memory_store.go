package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shashiranjanraj/apotek/app/domain"
	"github.com/shashiranjanraj/apotek/app/settlement"
)

// MemoryStore is an in-process catalog and transaction store. It honours
// the same all-or-nothing commit contract as TransactionRepository.
type MemoryStore struct {
	mu           sync.RWMutex
	products     map[uint]*domain.Product
	order        []uint
	transactions []domain.Transaction
	byToken      map[string]int
	now          func() time.Time
}

func NewMemoryStore(products ...domain.Product) *MemoryStore {
	s := &MemoryStore{
		products: make(map[uint]*domain.Product),
		byToken:  make(map[string]int),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, p := range products {
		s.Put(p)
	}
	return s
}

// Put inserts or replaces a product.
func (s *MemoryStore) Put(p domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[p.ID]; !ok {
		s.order = append(s.order, p.ID)
	}
	cp := p
	s.products[p.ID] = &cp
}

// SetClock overrides the timestamp source for committed transactions.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) Stock(productID uint) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.products[productID]; ok {
		return p.Stock
	}
	return 0
}

func (s *MemoryStore) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Product, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.products[id])
	}
	return out, nil
}

func (s *MemoryStore) FindByIdempotencyToken(_ context.Context, token string) (domain.Transaction, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byToken[token]
	if !ok {
		return domain.Transaction{}, false, nil
	}
	return s.transactions[i], true, nil
}

func (s *MemoryStore) Commit(_ context.Context, deltas []domain.StockDelta, tx domain.Transaction) (domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.byToken[tx.IdempotencyToken]; ok {
		return s.transactions[i], settlement.ErrAlreadyCommitted
	}

	// First pass: every delta must fit.
	for _, d := range deltas {
		p, ok := s.products[d.ProductID]
		if !ok || p.Stock < d.Quantity {
			return domain.Transaction{}, stockError(d, tx)
		}
	}

	// Second pass: apply.
	for _, d := range deltas {
		s.products[d.ProductID].Stock -= d.Quantity
	}

	tx.ID = uint(len(s.transactions) + 1)
	tx.CreatedAt = s.now()
	tx.Lines = append([]domain.TransactionLine(nil), tx.Lines...)
	s.transactions = append(s.transactions, tx)
	s.byToken[tx.IdempotencyToken] = len(s.transactions) - 1
	return tx, nil
}

func (s *MemoryStore) ListByDateAndCashier(_ context.Context, date time.Time, cashierID uint) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	from, to := dayBounds(date)
	var out []domain.Transaction
	for _, tx := range s.transactions {
		if tx.CashierID == cashierID && !tx.CreatedAt.Before(from) && tx.CreatedAt.Before(to) {
			out = append(out, tx)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) FindByID(_ context.Context, id uint) (domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id == 0 || int(id) > len(s.transactions) {
		return domain.Transaction{}, settlement.ErrNotFound
	}
	return s.transactions[id-1], nil
}

func stockError(d domain.StockDelta, tx domain.Transaction) *settlement.StockError {
	e := &settlement.StockError{ProductID: d.ProductID, Requested: d.Quantity}
	for _, l := range tx.Lines {
		if l.ProductID == d.ProductID {
			e.Name = l.Name
			break
		}
	}
	return e
}

// dayBounds returns [midnight, next midnight) of date in date's location,
// converted to UTC.
func dayBounds(date time.Time) (time.Time, time.Time) {
	y, m, d := date.Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, date.Location())
	return from.UTC(), from.AddDate(0, 0, 1).UTC()
}
