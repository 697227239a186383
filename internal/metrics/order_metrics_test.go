package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestOrderMetrics_RecordOrderCreated(t *testing.T) {
	m := NewOrderMetrics(prometheus.NewRegistry())

	m.RecordOrderCreated(2, 5)
	m.RecordOrderCreated(1, 3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ordersCreated))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.itemsOrdered))
	assert.Equal(t, 8.0, testutil.ToFloat64(m.unitsDecrement))
}

func TestOrderMetrics_RecordOrderRejected(t *testing.T) {
	m := NewOrderMetrics(prometheus.NewRegistry())

	m.RecordOrderRejected("insufficient_stock")
	m.RecordOrderRejected("insufficient_stock")
	m.RecordOrderRejected("invalid_customer")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ordersRejected.WithLabelValues("insufficient_stock")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ordersRejected.WithLabelValues("invalid_customer")))
}

func TestOrderMetrics_ReRegistrationReusesCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()
	first := NewOrderMetrics(registry)
	second := NewOrderMetrics(registry)

	first.RecordProductCreated()
	second.RecordProductCreated()

	assert.Equal(t, 2.0, testutil.ToFloat64(second.productsCreated))
}

func TestOrderMetrics_NilIsNoop(t *testing.T) {
	var m *OrderMetrics
	assert.NotPanics(t, func() {
		m.RecordOrderCreated(1, 1)
		m.RecordOrderRejected("x")
		m.RecordProductCreated()
		m.RecordEventFailed()
	})
}
