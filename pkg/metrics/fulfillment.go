package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// FulfillmentMetrics counts order placement and cancellation outcomes.
type FulfillmentMetrics struct {
	placed    *prometheus.CounterVec
	cancelled prometheus.Counter
	shortages prometheus.Counter
	units     *prometheus.CounterVec
}

// Result labels for orders_placed_total.
const (
	ResultConfirmed         = "confirmed"
	ResultInsufficientStock = "insufficient_stock"
	ResultEmptyCart         = "empty_cart"
	ResultError             = "error"
)

func NewFulfillmentMetrics(reg prometheus.Registerer) *FulfillmentMetrics {
	if reg == nil {
		return &FulfillmentMetrics{}
	}
	placed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "fulfillment",
		Name:      "orders_placed_total",
		Help:      "Order placement attempts by result.",
	}, []string{"result"})
	cancelled := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "fulfillment",
		Name:      "orders_cancelled_total",
		Help:      "Orders cancelled with stock restored.",
	})
	shortages := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "fulfillment",
		Name:      "stock_shortages_total",
		Help:      "Line items rejected for insufficient stock.",
	})
	units := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "fulfillment",
		Name:      "stock_units_total",
		Help:      "Stock units reserved or restored.",
	}, []string{"direction"})
	reg.MustRegister(placed, cancelled, shortages, units)
	return &FulfillmentMetrics{placed: placed, cancelled: cancelled, shortages: shortages, units: units}
}

func (m *FulfillmentMetrics) ObservePlacement(result string, units int) {
	if m == nil || m.placed == nil {
		return
	}
	m.placed.WithLabelValues(normalizeLabel(result)).Inc()
	if result == ResultConfirmed && units > 0 {
		m.units.WithLabelValues("reserved").Add(float64(units))
	}
}

func (m *FulfillmentMetrics) ObserveShortages(n int) {
	if m == nil || m.shortages == nil || n <= 0 {
		return
	}
	m.shortages.Add(float64(n))
}

func (m *FulfillmentMetrics) ObserveCancellation(units int) {
	if m == nil || m.cancelled == nil {
		return
	}
	m.cancelled.Inc()
	if units > 0 {
		m.units.WithLabelValues("restored").Add(float64(units))
	}
}
