package repositories

import (
	"context"

	"ordersvc/internal/models"
)

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	GetAll(ctx context.Context) ([]models.Order, error)
	GetByID(ctx context.Context, id string) (*models.Order, error)
	// Create persists the order together with its items. IDs left empty are generated.
	Create(ctx context.Context, order *models.Order) error
}
