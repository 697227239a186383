package services

import (
	"time"

	"ordersvc/internal/models"

	"github.com/shopspring/decimal"
)

// OrderCreatedRoutingKey is the routing key of the event published after an order is committed.
const OrderCreatedRoutingKey = "order.created"

// EventPublisher publishes a message body to an exchange. *rabbitmq.Client implements it.
type EventPublisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// OrderCreatedEvent is the payload of the order.created event.
type OrderCreatedEvent struct {
	OrderID    string             `json:"order_id"`
	CustomerID string             `json:"customer_id"`
	Total      decimal.Decimal    `json:"total"`
	Items      []OrderCreatedItem `json:"items"`
	CreatedAt  time.Time          `json:"created_at"`
}

// OrderCreatedItem is one line item of an OrderCreatedEvent.
type OrderCreatedItem struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// NewOrderCreatedEvent builds the event payload for order.
func NewOrderCreatedEvent(order *models.Order) OrderCreatedEvent {
	items := make([]OrderCreatedItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderCreatedItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	return OrderCreatedEvent{
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		Total:      order.Total,
		Items:      items,
		CreatedAt:  order.CreatedAt,
	}
}
