// Package plugin provides an extensible plugin system for the commerce engine.
// Plugins can hook into cart, coupon and order lifecycle events.
package plugin

import (
	"context"

	"github.com/xraph/commerce/cart"
	"github.com/xraph/commerce/coupon"
	"github.com/xraph/commerce/id"
	"github.com/xraph/commerce/order"
	"github.com/xraph/commerce/types"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the engine starts.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called when the engine stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Cart lifecycle hooks
// ──────────────────────────────────────────────────

// OnCartCreated is called when a new active cart is created.
type OnCartCreated interface {
	Plugin
	OnCartCreated(ctx context.Context, c *cart.Cart) error
}

// OnCartItemAdded is called when a line is added or overwritten by add-to-cart.
type OnCartItemAdded interface {
	Plugin
	OnCartItemAdded(ctx context.Context, c *cart.Cart, item *cart.Item) error
}

// OnCartItemUpdated is called when a line's quantity changes.
type OnCartItemUpdated interface {
	Plugin
	OnCartItemUpdated(ctx context.Context, c *cart.Cart, item *cart.Item) error
}

// OnCartItemRemoved is called when a line is deleted.
type OnCartItemRemoved interface {
	Plugin
	OnCartItemRemoved(ctx context.Context, c *cart.Cart, itemID id.CartItemID) error
}

// OnCartAbandoned is called when a buyer deletes their cart.
type OnCartAbandoned interface {
	Plugin
	OnCartAbandoned(ctx context.Context, c *cart.Cart) error
}

// OnCartCancelled is called when staff cancel a cart.
type OnCartCancelled interface {
	Plugin
	OnCartCancelled(ctx context.Context, c *cart.Cart) error
}

// ──────────────────────────────────────────────────
// Coupon hooks
// ──────────────────────────────────────────────────

// OnCouponApplied is called after a coupon is attached to a cart.
type OnCouponApplied interface {
	Plugin
	OnCouponApplied(ctx context.Context, c *cart.Cart, cp *coupon.Coupon, discount types.Money) error
}

// OnCouponRemoved is called after a buyer removes a coupon.
type OnCouponRemoved interface {
	Plugin
	OnCouponRemoved(ctx context.Context, c *cart.Cart, couponID id.CouponID) error
}

// OnCouponRejected is called when a coupon fails validation, including
// coupons detached because the cart stopped qualifying.
type OnCouponRejected interface {
	Plugin
	OnCouponRejected(ctx context.Context, c *cart.Cart, code string, reason string) error
}

// ──────────────────────────────────────────────────
// Order hooks
// ──────────────────────────────────────────────────

// OnOrderPlaced is called after checkout writes an order.
type OnOrderPlaced interface {
	Plugin
	OnOrderPlaced(ctx context.Context, o *order.Order) error
}

// ──────────────────────────────────────────────────
// Coupon validators
// ──────────────────────────────────────────────────

// CouponValidator adds custom eligibility rules. They run after the
// built-in checks; a non-nil error rejects the coupon.
type CouponValidator interface {
	Plugin
	ValidateCoupon(ctx context.Context, cp *coupon.Coupon, c *cart.Cart) error
}
