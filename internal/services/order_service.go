package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ordersvc/internal/metrics"
	"ordersvc/internal/models"
	"ordersvc/internal/repositories"

	log "github.com/sirupsen/logrus"
)

// OrderProduct is one requested product within a CreateOrderRequest.
type OrderProduct struct {
	ID       string `json:"id" validate:"required,uuid"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
}

// CreateOrderRequest is the input of CreateOrder.
type CreateOrderRequest struct {
	CustomerID string         `json:"customer_id" validate:"required,uuid"`
	Products   []OrderProduct `json:"products" validate:"required,min=1,dive"`
}

// OrderService handles business logic related to orders.
type OrderService struct {
	orderRepo    repositories.OrderRepository
	productRepo  repositories.ProductRepository
	customerRepo repositories.CustomerRepository
	transactor   repositories.Transactor
	publisher    EventPublisher
	exchange     string
	metrics      *metrics.OrderMetrics
}

// OrderServiceOption configures optional collaborators of an OrderService.
type OrderServiceOption func(*OrderService)

// WithEventPublisher publishes order.created events to exchange after each order.
func WithEventPublisher(publisher EventPublisher, exchange string) OrderServiceOption {
	return func(s *OrderService) {
		s.publisher = publisher
		s.exchange = exchange
	}
}

// WithOrderMetrics records order outcomes on m.
func WithOrderMetrics(m *metrics.OrderMetrics) OrderServiceOption {
	return func(s *OrderService) {
		s.metrics = m
	}
}

// NewOrderService creates a new OrderService.
func NewOrderService(
	orderRepo repositories.OrderRepository,
	productRepo repositories.ProductRepository,
	customerRepo repositories.CustomerRepository,
	transactor repositories.Transactor,
	opts ...OrderServiceOption,
) *OrderService {
	s := &OrderService{
		orderRepo:    orderRepo,
		productRepo:  productRepo,
		customerRepo: customerRepo,
		transactor:   transactor,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetAllOrders retrieves all orders.
func (s *OrderService) GetAllOrders(ctx context.Context) ([]models.Order, error) {
	return s.orderRepo.GetAll(ctx)
}

// GetOrderByID retrieves a single order by its ID.
func (s *OrderService) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

// CreateOrder validates the customer and the requested products, decrements
// stock and persists the order. All of it happens in one transaction: on any
// error no stock is changed and no order is stored.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*models.Order, error) {
	var order *models.Order
	err := s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		created, err := s.createOrder(ctx, req)
		if err != nil {
			return err
		}
		order = created
		return nil
	})
	if err != nil {
		s.metrics.RecordOrderRejected(rejectionReason(err))
		return nil, err
	}

	units := 0
	for _, item := range order.Items {
		units += item.Quantity
	}
	s.metrics.RecordOrderCreated(len(order.Items), units)
	s.publishOrderCreated(order)

	return order, nil
}

func (s *OrderService) createOrder(ctx context.Context, req CreateOrderRequest) (*models.Order, error) {
	for _, p := range req.Products {
		if p.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}
	}

	// 1. Resolve the customer
	customer, err := s.customerRepo.GetByID(ctx, req.CustomerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCustomer
		}
		return nil, fmt.Errorf("failed to look up customer %s: %w", req.CustomerID, err)
	}

	// 2. Resolve every distinct product in one batch. Repeated ids add up so
	// the stock check covers the whole demand for a product.
	demand := make(map[string]int, len(req.Products))
	ids := make([]string, 0, len(req.Products))
	for _, p := range req.Products {
		if _, seen := demand[p.ID]; !seen {
			ids = append(ids, p.ID)
		}
		demand[p.ID] += p.Quantity
	}

	products, err := s.productRepo.FindAllByID(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to look up products: %w", err)
	}
	if len(products) == 0 {
		return nil, ErrNoProductsFound
	}
	if len(products) != len(ids) {
		return nil, ErrInvalidProductSet
	}

	byID := make(map[string]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	// 3. Check stock and snapshot prices
	items := make([]models.OrderItem, 0, len(req.Products))
	updates := make([]models.QuantityUpdate, 0, len(req.Products))
	for _, requested := range req.Products {
		product, ok := byID[requested.ID]
		if !ok {
			return nil, ErrInvalidProductSet
		}
		if product.Quantity-demand[product.ID] < 0 {
			return nil, &InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Requested:   demand[product.ID],
				Available:   product.Quantity,
			}
		}

		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Quantity:  requested.Quantity,
			Price:     product.Price,
		})
		updates = append(updates, models.QuantityUpdate{ID: product.ID, Quantity: requested.Quantity})
	}

	// 4. Decrement stock
	if _, err := s.productRepo.UpdateQuantity(ctx, updates); err != nil {
		if errors.Is(err, repositories.ErrStockConflict) {
			return nil, fmt.Errorf("%w: %v", ErrInsufficientStock, err)
		}
		return nil, fmt.Errorf("failed to update product quantities: %w", err)
	}

	// 5. Persist the aggregate
	order := &models.Order{
		CustomerID: customer.ID,
		Customer:   customer,
		Items:      items,
	}
	order.Total = order.CalculateTotal()

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order in repository: %w", err)
	}
	return order, nil
}

// publishOrderCreated announces a committed order. Failures are logged and
// never fail the request.
func (s *OrderService) publishOrderCreated(order *models.Order) {
	if s.publisher == nil {
		log.Debug("Event publisher is not configured. Skipping order.created publication.")
		return
	}

	body, err := json.Marshal(NewOrderCreatedEvent(order))
	if err != nil {
		s.metrics.RecordEventFailed()
		log.WithError(err).WithField("order_id", order.ID).Error("Failed to marshal order created event")
		return
	}

	if err := s.publisher.Publish(s.exchange, OrderCreatedRoutingKey, body); err != nil {
		s.metrics.RecordEventFailed()
		log.WithError(err).WithField("order_id", order.ID).Warn("Failed to publish order created event")
		return
	}
	log.WithField("order_id", order.ID).Debug("Published order created event")
}
