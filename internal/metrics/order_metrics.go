package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics holds the counters recorded by the order and product services.
// A nil *OrderMetrics is valid and records nothing.
type OrderMetrics struct {
	ordersCreated   prometheus.Counter
	ordersRejected  *prometheus.CounterVec
	itemsOrdered    prometheus.Counter
	unitsDecrement  prometheus.Counter
	productsCreated prometheus.Counter
	eventsFailed    prometheus.Counter
}

// NewOrderMetrics registers the metrics on registerer, falling back to the
// default registerer when nil.
func NewOrderMetrics(registerer prometheus.Registerer) *OrderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &OrderMetrics{
		ordersCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Total number of orders created",
		}),
		ordersRejected: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "orders_rejected_total",
			Help: "Total number of order creation requests rejected, by reason",
		}, []string{"reason"}),
		itemsOrdered: registerCounter(registerer, prometheus.CounterOpts{
			Name: "order_items_total",
			Help: "Total number of line items across created orders",
		}),
		unitsDecrement: registerCounter(registerer, prometheus.CounterOpts{
			Name: "stock_units_decremented_total",
			Help: "Total number of stock units removed by order creation",
		}),
		productsCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "products_created_total",
			Help: "Total number of products created",
		}),
		eventsFailed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "order_events_failed_total",
			Help: "Total number of order events that could not be published",
		}),
	}
}

// RecordOrderCreated counts a created order with its item and unit totals.
func (m *OrderMetrics) RecordOrderCreated(items, units int) {
	if m == nil {
		return
	}
	m.ordersCreated.Inc()
	m.itemsOrdered.Add(float64(items))
	m.unitsDecrement.Add(float64(units))
}

// RecordOrderRejected counts a failed order creation.
func (m *OrderMetrics) RecordOrderRejected(reason string) {
	if m == nil {
		return
	}
	m.ordersRejected.WithLabelValues(reason).Inc()
}

// RecordProductCreated counts a created product.
func (m *OrderMetrics) RecordProductCreated() {
	if m == nil {
		return
	}
	m.productsCreated.Inc()
}

// RecordEventFailed counts an event that was not published.
func (m *OrderMetrics) RecordEventFailed() {
	if m == nil {
		return
	}
	m.eventsFailed.Inc()
}

// registerCounter returns the already registered collector when the same
// metric is registered twice (tests building several apps on one registry).
func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	counter := prometheus.NewCounter(opts)
	if err := registerer.Register(counter); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing
			}
		}
		panic(err)
	}
	return counter
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	vec := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(vec); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
		panic(err)
	}
	return vec
}
