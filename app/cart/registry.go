package cart

import "sync"

// Registry hands out one cart per cashier. Carts are never shared between
// cashiers.
type Registry struct {
	mu    sync.Mutex
	carts map[uint]*Cart
}

func NewRegistry() *Registry {
	return &Registry{carts: make(map[uint]*Cart)}
}

// For returns the cart owned by cashierID, creating it on first use.
func (r *Registry) For(cashierID uint) *Cart {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.carts[cashierID]
	if !ok {
		c = New()
		r.carts[cashierID] = c
	}
	return c
}
