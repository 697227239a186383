package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"ordersvc/internal/models"

	"github.com/google/uuid"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
type MockOrderRepository struct {
	orders map[string]models.Order
	mu     sync.RWMutex
	txLock *sync.RWMutex // set by NewMockTransactor
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]models.Order),
	}
}

// GetAll returns all orders, newest first.
func (r *MockOrderRepository) GetAll(ctx context.Context) ([]models.Order, error) {
	defer readCommitted(ctx, r.txLock)()

	r.mu.RLock()
	defer r.mu.RUnlock()

	orderList := make([]models.Order, 0, len(r.orders))
	for _, order := range r.orders {
		orderList = append(orderList, cloneOrder(order))
	}
	sort.Slice(orderList, func(i, j int) bool { return orderList[i].CreatedAt.After(orderList[j].CreatedAt) })
	return orderList, nil
}

// GetByID returns an order by its ID.
func (r *MockOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	defer readCommitted(ctx, r.txLock)()

	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order with ID %s: %w", id, ErrNotFound)
	}
	order = cloneOrder(order)
	return &order, nil
}

// Create adds a new order.
func (r *MockOrderRepository) Create(ctx context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now
	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = uuid.New().String()
		}
		order.Items[i].OrderID = order.ID
		order.Items[i].Position = i
		order.Items[i].CreatedAt = now
		order.Items[i].UpdatedAt = now
	}
	r.orders[order.ID] = cloneOrder(*order)
	return nil
}

func (r *MockOrderRepository) idSnapshot() map[string]struct{} {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make(map[string]struct{}, len(r.orders))
	for id := range r.orders {
		ids[id] = struct{}{}
	}
	return ids
}

// retain drops every order whose ID is not in ids.
func (r *MockOrderRepository) retain(ids map[string]struct{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id := range r.orders {
		if _, ok := ids[id]; !ok {
			delete(r.orders, id)
		}
	}
}

func cloneOrder(order models.Order) models.Order {
	order.Items = append([]models.OrderItem(nil), order.Items...)
	if order.Customer != nil {
		customer := *order.Customer
		order.Customer = &customer
	}
	return order
}
