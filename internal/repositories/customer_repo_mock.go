package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ordersvc/internal/models"

	"github.com/google/uuid"
)

// MockCustomerRepository is an in-memory implementation of CustomerRepository.
type MockCustomerRepository struct {
	customers map[string]models.Customer
	mu        sync.RWMutex
}

// NewMockCustomerRepository creates a new instance of MockCustomerRepository.
func NewMockCustomerRepository() *MockCustomerRepository {
	return &MockCustomerRepository{
		customers: make(map[string]models.Customer),
	}
}

// Create adds a new customer.
func (r *MockCustomerRepository) Create(ctx context.Context, customer *models.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if customer.ID == "" {
		customer.ID = uuid.New().String()
	}
	for _, c := range r.customers {
		if c.Email == customer.Email {
			return fmt.Errorf("failed to create customer: %w: email %s", ErrDuplicate, customer.Email)
		}
	}
	now := time.Now()
	customer.CreatedAt = now
	customer.UpdatedAt = now
	r.customers[customer.ID] = *customer
	return nil
}

// GetByID returns a customer by their ID.
func (r *MockCustomerRepository) GetByID(ctx context.Context, id string) (*models.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	customer, ok := r.customers[id]
	if !ok {
		return nil, fmt.Errorf("customer with ID %s: %w", id, ErrNotFound)
	}
	return &customer, nil
}

// GetByEmail returns a customer by their email.
func (r *MockCustomerRepository) GetByEmail(ctx context.Context, email string) (*models.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.customers {
		if c.Email == email {
			customer := c
			return &customer, nil
		}
	}
	return nil, fmt.Errorf("customer with email %s: %w", email, ErrNotFound)
}
