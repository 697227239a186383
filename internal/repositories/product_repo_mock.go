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

// MockProductRepository is an in-memory implementation of ProductRepository.
type MockProductRepository struct {
	products map[string]models.Product
	mu       sync.RWMutex
	txLock   *sync.RWMutex // set by NewMockTransactor
}

// NewMockProductRepository creates a new instance of MockProductRepository.
func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{
		products: make(map[string]models.Product),
	}
}

// GetAll returns all products ordered by name.
func (r *MockProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	defer readCommitted(ctx, r.txLock)()

	r.mu.RLock()
	defer r.mu.RUnlock()

	productList := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		productList = append(productList, p)
	}
	sort.Slice(productList, func(i, j int) bool { return productList[i].Name < productList[j].Name })
	return productList, nil
}

// GetByID returns a product by its ID.
func (r *MockProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	defer readCommitted(ctx, r.txLock)()

	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
	}
	return &product, nil
}

// GetByName returns a product by its name.
func (r *MockProductRepository) GetByName(ctx context.Context, name string) (*models.Product, error) {
	defer readCommitted(ctx, r.txLock)()

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.products {
		if p.Name == name {
			product := p
			return &product, nil
		}
	}
	return nil, fmt.Errorf("product with name %s: %w", name, ErrNotFound)
}

// FindAllByID returns the products whose IDs are in ids, ordered by ID.
func (r *MockProductRepository) FindAllByID(ctx context.Context, ids []string) ([]models.Product, error) {
	defer readCommitted(ctx, r.txLock)()

	r.mu.RLock()
	defer r.mu.RUnlock()

	found := make([]models.Product, 0, len(ids))
	for _, id := range distinctIDs(ids) {
		if p, ok := r.products[id]; ok {
			found = append(found, p)
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].ID < found[j].ID })
	return found, nil
}

// Create adds a new product.
func (r *MockProductRepository) Create(ctx context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if _, ok := r.products[product.ID]; ok {
		return fmt.Errorf("failed to create product: %w: id %s", ErrDuplicate, product.ID)
	}
	for _, p := range r.products {
		if p.Name == product.Name {
			return fmt.Errorf("failed to create product: %w: name %s", ErrDuplicate, product.Name)
		}
	}
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now
	r.products[product.ID] = *product
	return nil
}

// UpdateQuantity applies all decrements or none of them.
func (r *MockProductRepository) UpdateQuantity(ctx context.Context, updates []models.QuantityUpdate) ([]models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pending := make(map[string]models.Product, len(updates))
	ids := make([]string, 0, len(updates))
	for _, u := range updates {
		p, ok := pending[u.ID]
		if !ok {
			if p, ok = r.products[u.ID]; !ok {
				return nil, fmt.Errorf("product with ID %s: %w", u.ID, ErrNotFound)
			}
			ids = append(ids, u.ID)
		}
		if p.Quantity < u.Quantity {
			return nil, fmt.Errorf("product %s: %w", u.ID, ErrStockConflict)
		}
		p.Quantity -= u.Quantity
		p.UpdatedAt = time.Now()
		pending[u.ID] = p
	}

	sort.Strings(ids)
	updated := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		r.products[id] = pending[id]
		updated = append(updated, pending[id])
	}
	return updated, nil
}

func (r *MockProductRepository) stockSnapshot() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stock := make(map[string]int, len(r.products))
	for id, p := range r.products {
		stock[id] = p.Quantity
	}
	return stock
}

func (r *MockProductRepository) restoreStock(stock map[string]int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, quantity := range stock {
		if p, ok := r.products[id]; ok {
			p.Quantity = quantity
			r.products[id] = p
		}
	}
}
