package services

import (
	"errors"
	"fmt"
)

// Business errors. The HTTP layer maps them to 4xx responses carrying the message.
var (
	ErrInvalidCustomer   = errors.New("this customer_id is not valid")
	ErrNoProductsFound   = errors.New("could not find any products with the given ids")
	ErrInvalidProductSet = errors.New("the list of products contains invalid products")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity must be greater than zero")
	ErrOrderNotFound     = errors.New("order not found")

	ErrProductNotFound     = errors.New("product not found")
	ErrProductNameRequired = errors.New("product name is required")
	ErrProductNameTaken    = errors.New("a product with this name already exists")
	ErrInvalidPrice        = errors.New("price must be between 0.01 and 9999999999.99 with at most 2 decimal places")

	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// InsufficientStockError names the product whose stock cannot cover the request.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("product %s does not have this available quantity (requested: %d, available: %d)",
		e.ProductName, e.Requested, e.Available)
}

// Unwrap lets errors.Is match ErrInsufficientStock.
func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// rejectionReason returns a metric label for an order creation failure.
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCustomer):
		return "invalid_customer"
	case errors.Is(err, ErrNoProductsFound):
		return "no_products_found"
	case errors.Is(err, ErrInvalidProductSet):
		return "invalid_product_set"
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrInvalidQuantity):
		return "invalid_quantity"
	default:
		return "internal"
	}
}
