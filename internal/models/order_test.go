package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestOrder_CalculateTotal(t *testing.T) {
	order := Order{
		Items: []OrderItem{
			{ProductID: "a", Quantity: 3, Price: decimal.RequireFromString("9.99")},
			{ProductID: "b", Quantity: 1, Price: decimal.RequireFromString("0.02")},
		},
	}

	assert.True(t, decimal.RequireFromString("29.99").Equal(order.CalculateTotal()))
}

func TestOrder_CalculateTotalEmpty(t *testing.T) {
	var order Order
	assert.True(t, order.CalculateTotal().IsZero())
}
