package repositories

import (
	"context"
	"sync"
)

// MockTransactor gives the in-memory repositories all-or-nothing semantics.
// Transactions are serialized; when fn fails, product stock and the order set
// are restored to their state before fn ran. Reads outside a transaction wait
// for the running one to finish, so they never observe uncommitted state.
type MockTransactor struct {
	mu       sync.RWMutex
	products *MockProductRepository
	orders   *MockOrderRepository
}

// NewMockTransactor creates a new instance of MockTransactor.
func NewMockTransactor(products *MockProductRepository, orders *MockOrderRepository) *MockTransactor {
	t := &MockTransactor{
		products: products,
		orders:   orders,
	}
	products.txLock = &t.mu
	orders.txLock = &t.mu
	return t
}

type mockTxKey struct{}

// WithinTransaction runs fn and rolls the in-memory state back if it fails or panics.
func (t *MockTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if ctx.Value(mockTxKey{}) != nil {
		return fn(ctx)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	stock := t.products.stockSnapshot()
	orderIDs := t.orders.idSnapshot()

	defer func() {
		if p := recover(); p != nil {
			t.rollback(stock, orderIDs)
			panic(p)
		}
		if err != nil {
			t.rollback(stock, orderIDs)
		}
	}()

	return fn(context.WithValue(ctx, mockTxKey{}, true))
}

// readCommitted holds lock for reading unless ctx belongs to a transaction,
// which already holds it exclusively. It returns the matching release.
func readCommitted(ctx context.Context, lock *sync.RWMutex) func() {
	if lock == nil || ctx.Value(mockTxKey{}) != nil {
		return func() {}
	}
	lock.RLock()
	return lock.RUnlock
}

func (t *MockTransactor) rollback(stock map[string]int, orderIDs map[string]struct{}) {
	t.products.restoreStock(stock)
	t.orders.retain(orderIDs)
}
