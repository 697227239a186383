package repositories

import (
	"context"
	"errors"
	"fmt"

	"ordersvc/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// GetAll retrieves all products from the database.
func (r *GORMProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := conn(ctx, r.db).Order("name").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}
	return products, nil
}

// GetByID retrieves a single product by its ID from the database.
func (r *GORMProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := conn(ctx, r.db).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// GetByName retrieves a single product by its name from the database.
func (r *GORMProductRepository) GetByName(ctx context.Context, name string) (*models.Product, error) {
	var product models.Product
	if err := conn(ctx, r.db).First(&product, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with name %s: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product by name %s: %w", name, err)
	}
	return &product, nil
}

// FindAllByID retrieves every product whose ID is in ids. Inside a
// transaction the rows are locked until commit (PostgreSQL SELECT ... FOR
// UPDATE; the SQLite dialector drops the clause).
func (r *GORMProductRepository) FindAllByID(ctx context.Context, ids []string) ([]models.Product, error) {
	products := []models.Product{}
	ids = distinctIDs(ids)
	if len(ids) == 0 {
		return products, nil
	}

	query := conn(ctx, r.db)
	if inTransaction(ctx) {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	// Stable lock order keeps concurrent orders for overlapping products from deadlocking.
	if err := query.Where("id IN ?", ids).Order("id").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to find products by IDs: %w", err)
	}
	return products, nil
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if err := conn(ctx, r.db).Create(product).Error; err != nil {
		return createError("product", err)
	}
	return nil
}

// UpdateQuantity decrements stock with a guarded UPDATE so the stored
// quantity can never go below zero, even outside a transaction.
func (r *GORMProductRepository) UpdateQuantity(ctx context.Context, updates []models.QuantityUpdate) ([]models.Product, error) {
	db := conn(ctx, r.db)
	ids := make([]string, 0, len(updates))
	for _, u := range updates {
		res := db.Model(&models.Product{}).
			Where("id = ? AND quantity >= ?", u.ID, u.Quantity).
			Update("quantity", gorm.Expr("quantity - ?", u.Quantity))
		if res.Error != nil {
			return nil, fmt.Errorf("failed to update quantity of product %s: %w", u.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, fmt.Errorf("product %s: %w", u.ID, ErrStockConflict)
		}
		ids = append(ids, u.ID)
	}

	updated := []models.Product{}
	if len(ids) == 0 {
		return updated, nil
	}
	if err := db.Where("id IN ?", distinctIDs(ids)).Order("id").Find(&updated).Error; err != nil {
		return nil, fmt.Errorf("failed to reload updated products: %w", err)
	}
	return updated, nil
}
