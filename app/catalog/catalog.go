// Package catalog provides a read-only view of the products a cashier can
// sell, as fetched from a Provider at one point in time.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/shashiranjanraj/apotek/app/domain"
)

var ErrProductNotFound = errors.New("catalog: product not found")

// Provider lists the current catalog.
type Provider interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
}

// Snapshot is immutable once loaded.
type Snapshot struct {
	products []domain.Product
	byID     map[uint]int
}

// Load fetches the catalog from p.
func Load(ctx context.Context, p Provider) (*Snapshot, error) {
	products, err := p.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: list products: %w", err)
	}
	return New(products), nil
}

func New(products []domain.Product) *Snapshot {
	s := &Snapshot{
		products: make([]domain.Product, len(products)),
		byID:     make(map[uint]int, len(products)),
	}
	copy(s.products, products)
	for i, p := range s.products {
		s.byID[p.ID] = i
	}
	return s
}

// Products returns a copy in provider order.
func (s *Snapshot) Products() []domain.Product {
	out := make([]domain.Product, len(s.products))
	copy(out, s.products)
	return out
}

func (s *Snapshot) Lookup(id uint) (domain.Product, error) {
	i, ok := s.byID[id]
	if !ok {
		return domain.Product{}, fmt.Errorf("%w: id %d", ErrProductNotFound, id)
	}
	return s.products[i], nil
}
