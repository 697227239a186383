package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ordersvc/internal/metrics"
	"ordersvc/internal/models"
	"ordersvc/internal/repositories"

	"github.com/shopspring/decimal"
)

// priceScale is the number of decimal places a price may carry.
const priceScale = 2

// maxPrice is the largest price a numeric(12,2) column holds.
var maxPrice = decimal.RequireFromString("9999999999.99")

// CreateProductRequest is the input of CreateProduct.
type CreateProductRequest struct {
	Name     string          `json:"name" validate:"required,max=100"`
	Price    decimal.Decimal `json:"price" validate:"required,gt=0"`
	Quantity int             `json:"quantity" validate:"required,gt=0"`
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo    repositories.ProductRepository
	metrics *metrics.OrderMetrics
}

// NewProductService creates a new ProductService. m may be nil.
func NewProductService(repo repositories.ProductRepository, m *metrics.OrderMetrics) *ProductService {
	return &ProductService{
		repo:    repo,
		metrics: m,
	}
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts(ctx context.Context) ([]models.Product, error) {
	return s.repo.GetAll(ctx)
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

// CreateProduct creates a new product with the requested stock level.
func (s *ProductService) CreateProduct(ctx context.Context, req CreateProductRequest) (*models.Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrProductNameRequired
	}
	if !req.Price.IsPositive() || req.Price.GreaterThan(maxPrice) || !req.Price.Equal(req.Price.Round(priceScale)) {
		return nil, ErrInvalidPrice
	}
	if req.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	existing, err := s.repo.GetByName(ctx, name)
	if err == nil && existing != nil {
		return nil, ErrProductNameTaken
	}
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to check product name: %w", err)
	}

	product := &models.Product{
		Name:     name,
		Price:    req.Price.Round(priceScale),
		Quantity: req.Quantity,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		// A concurrent create can claim the name between the check and the insert.
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrProductNameTaken
		}
		return nil, err
	}
	s.metrics.RecordProductCreated()
	return product, nil
}
