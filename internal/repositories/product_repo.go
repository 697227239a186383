package repositories

import (
	"context"

	"ordersvc/internal/models"
)

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	GetByName(ctx context.Context, name string) (*models.Product, error)
	// FindAllByID returns the products matching ids. Unknown ids are skipped,
	// so callers compare the result length against the request.
	FindAllByID(ctx context.Context, ids []string) ([]models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	// UpdateQuantity subtracts each update's quantity from the stored stock and
	// returns the updated products. A decrement that would make stock negative
	// fails with ErrStockConflict.
	UpdateQuantity(ctx context.Context, updates []models.QuantityUpdate) ([]models.Product, error)
}
