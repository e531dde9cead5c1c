// Package observability provides a metrics extension for Commerce that
// records cart, coupon and order lifecycle counts through a MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/commerce/cart"
	"github.com/xraph/commerce/coupon"
	"github.com/xraph/commerce/id"
	"github.com/xraph/commerce/order"
	"github.com/xraph/commerce/plugin"
	"github.com/xraph/commerce/types"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin            = (*MetricsExtension)(nil)
	_ plugin.OnInit            = (*MetricsExtension)(nil)
	_ plugin.OnCartCreated     = (*MetricsExtension)(nil)
	_ plugin.OnCartItemAdded   = (*MetricsExtension)(nil)
	_ plugin.OnCartItemUpdated = (*MetricsExtension)(nil)
	_ plugin.OnCartItemRemoved = (*MetricsExtension)(nil)
	_ plugin.OnCartAbandoned   = (*MetricsExtension)(nil)
	_ plugin.OnCartCancelled   = (*MetricsExtension)(nil)
	_ plugin.OnCouponApplied   = (*MetricsExtension)(nil)
	_ plugin.OnCouponRemoved   = (*MetricsExtension)(nil)
	_ plugin.OnCouponRejected  = (*MetricsExtension)(nil)
	_ plugin.OnOrderPlaced     = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Commerce plugin to track cart and coupon activity.
type MetricsExtension struct {
	factory MetricFactory

	// Cart metrics
	CartCreated   Counter
	CartAbandoned Counter
	CartCancelled Counter
	ItemAdded     Counter
	ItemUpdated   Counter
	ItemRemoved   Counter
	ItemQuantity  Histogram

	// Coupon metrics
	CouponApplied  Counter
	CouponRemoved  Counter
	CouponRejected Counter
	CouponDiscount Histogram

	// Order metrics
	OrderPlaced Counter
	OrderTotal  Histogram
	OrderLines  Histogram
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		CartCreated:   factory.Counter("commerce.cart.created"),
		CartAbandoned: factory.Counter("commerce.cart.abandoned"),
		CartCancelled: factory.Counter("commerce.cart.cancelled"),
		ItemAdded:     factory.Counter("commerce.cart.item.added"),
		ItemUpdated:   factory.Counter("commerce.cart.item.updated"),
		ItemRemoved:   factory.Counter("commerce.cart.item.removed"),
		ItemQuantity:  factory.Histogram("commerce.cart.item.quantity"),

		CouponApplied:  factory.Counter("commerce.coupon.applied"),
		CouponRemoved:  factory.Counter("commerce.coupon.removed"),
		CouponRejected: factory.Counter("commerce.coupon.rejected"),
		CouponDiscount: factory.Histogram("commerce.coupon.discount"),

		OrderPlaced: factory.Counter("commerce.order.placed"),
		OrderTotal:  factory.Histogram("commerce.order.total"),
		OrderLines:  factory.Histogram("commerce.order.lines"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	return nil
}

// ──────────────────────────────────────────────────
// Cart lifecycle hooks
// ──────────────────────────────────────────────────

// OnCartCreated implements plugin.OnCartCreated.
func (m *MetricsExtension) OnCartCreated(_ context.Context, _ *cart.Cart) error {
	m.CartCreated.Inc()
	return nil
}

// OnCartItemAdded implements plugin.OnCartItemAdded.
func (m *MetricsExtension) OnCartItemAdded(_ context.Context, _ *cart.Cart, item *cart.Item) error {
	m.ItemAdded.Inc()
	if item != nil {
		m.ItemQuantity.Observe(float64(item.Quantity))
	}
	return nil
}

// OnCartItemUpdated implements plugin.OnCartItemUpdated.
func (m *MetricsExtension) OnCartItemUpdated(_ context.Context, _ *cart.Cart, _ *cart.Item) error {
	m.ItemUpdated.Inc()
	return nil
}

// OnCartItemRemoved implements plugin.OnCartItemRemoved.
func (m *MetricsExtension) OnCartItemRemoved(_ context.Context, _ *cart.Cart, _ id.CartItemID) error {
	m.ItemRemoved.Inc()
	return nil
}

// OnCartAbandoned implements plugin.OnCartAbandoned.
func (m *MetricsExtension) OnCartAbandoned(_ context.Context, _ *cart.Cart) error {
	m.CartAbandoned.Inc()
	return nil
}

// OnCartCancelled implements plugin.OnCartCancelled.
func (m *MetricsExtension) OnCartCancelled(_ context.Context, _ *cart.Cart) error {
	m.CartCancelled.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Coupon lifecycle hooks
// ──────────────────────────────────────────────────

// OnCouponApplied implements plugin.OnCouponApplied.
func (m *MetricsExtension) OnCouponApplied(_ context.Context, _ *cart.Cart, _ *coupon.Coupon, discount types.Money) error {
	m.CouponApplied.Inc()
	m.CouponDiscount.Observe(discount.Decimal().InexactFloat64())
	return nil
}

// OnCouponRemoved implements plugin.OnCouponRemoved.
func (m *MetricsExtension) OnCouponRemoved(_ context.Context, _ *cart.Cart, _ id.CouponID) error {
	m.CouponRemoved.Inc()
	return nil
}

// OnCouponRejected implements plugin.OnCouponRejected.
func (m *MetricsExtension) OnCouponRejected(_ context.Context, _ *cart.Cart, _, _ string) error {
	m.CouponRejected.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Order lifecycle hooks
// ──────────────────────────────────────────────────

// OnOrderPlaced implements plugin.OnOrderPlaced.
func (m *MetricsExtension) OnOrderPlaced(_ context.Context, o *order.Order) error {
	m.OrderPlaced.Inc()
	m.OrderTotal.Observe(o.Total.Decimal().InexactFloat64())
	m.OrderLines.Observe(float64(len(o.Items)))
	return nil
}
