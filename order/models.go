// Package order holds the immutable record a checked-out cart becomes.
package order

import (
	"time"

	"github.com/xraph/commerce/cart"
	"github.com/xraph/commerce/id"
	"github.com/xraph/commerce/types"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPlaced Status = "placed"
)

// Order is a snapshot of a completed cart. It is written once and never updated.
type Order struct {
	types.Entity
	ID          id.OrderID         `json:"id"`
	BusinessID  string             `json:"business_id"`
	CartID      id.CartID          `json:"cart_id"`
	Buyer       cart.BuyerIdentity `json:"buyer"`
	Channel     cart.Channel       `json:"channel"`
	Status      Status             `json:"status"`
	Items       []cart.Item        `json:"items"`
	CouponID    id.CouponID        `json:"coupon_id,omitempty"`
	CouponCode  string             `json:"coupon_code,omitempty"`
	Subtotal    types.Money        `json:"subtotal"`
	Discount    types.Money        `json:"discount_total"`
	Tax         types.Money        `json:"tax_total"`
	ItemsTotal  types.Money        `json:"items_total"`
	CouponTotal types.Money        `json:"coupon_discount"`
	Total       types.Money        `json:"total"`
	PlacedAt    time.Time          `json:"placed_at"`
	Metadata    map[string]string  `json:"metadata,omitempty"`
}

// FromCart snapshots c into a new order placed at t.
func FromCart(c *cart.Cart, couponCode string, t time.Time) *Order {
	items := make([]cart.Item, len(c.Items))
	copy(items, c.Items)
	o := &Order{
		ID:          id.NewOrderID(),
		BusinessID:  c.BusinessID,
		CartID:      c.ID,
		Buyer:       c.Buyer,
		Channel:     c.Channel,
		Status:      StatusPlaced,
		Items:       items,
		CouponID:    c.CouponID,
		CouponCode:  couponCode,
		Subtotal:    c.Subtotal,
		Discount:    c.DiscountTotal,
		Tax:         c.TaxTotal,
		ItemsTotal:  c.ItemsTotal,
		CouponTotal: c.CouponDiscount,
		Total:       c.Total,
		PlacedAt:    t.UTC(),
	}
	o.Stamp(t)
	return o
}

// ListOpts filters order listings.
type ListOpts struct {
	ContactID string
	Limit     int
	Offset    int
}
