// Package cart defines the cart aggregate: line items, the applied coupon and
// the totals derived from them.
package cart

import (
	"time"

	"github.com/xraph/commerce/id"
	"github.com/xraph/commerce/pricing"
	"github.com/xraph/commerce/types"
)

// Status is the lifecycle state of a cart.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusAbandoned Status = "abandoned"
	StatusCancelled Status = "cancelled"
)

// Cart aggregates the line items of one buyer at one business.
type Cart struct {
	types.Entity
	ID         id.CartID     `json:"id"`
	BusinessID string        `json:"business_id"`
	Buyer      BuyerIdentity `json:"buyer"`
	Channel    Channel       `json:"channel"`
	Status     Status        `json:"status"`
	Items      []Item        `json:"items"`

	CouponID       id.CouponID `json:"coupon_id,omitempty"`
	CouponDiscount types.Money `json:"coupon_discount"`
	// CouponRemoved suppresses auto-apply after the buyer removed a coupon.
	CouponRemoved bool `json:"coupon_removed"`

	Subtotal      types.Money `json:"subtotal"`
	DiscountTotal types.Money `json:"discount_total"`
	TaxTotal      types.Money `json:"tax_total"`
	ItemsTotal    types.Money `json:"items_total"`
	Total         types.Money `json:"total"`

	Version  int64             `json:"version"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Item is one catalog item in a cart with its computed prices.
type Item struct {
	ID             id.CartItemID  `json:"id"`
	Kind           types.ItemKind `json:"kind"`
	ItemID         id.ID          `json:"item_id"`
	Name           string         `json:"name"`
	Quantity       int64          `json:"quantity"`
	ActualPrice    types.Money    `json:"actual_price"`
	DiscountAmount types.Money    `json:"discount_amount"`
	TaxAmount      types.Money    `json:"tax_amount"`
	FinalPrice     types.Money    `json:"final_price"`
	CouponID       id.CouponID    `json:"coupon_id,omitempty"`
	Schedule       *Schedule      `json:"schedule,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Schedule is optional booking metadata for service lines.
type Schedule struct {
	Date     string `json:"date,omitempty" bson:"date,omitempty"`
	TimeSlot string `json:"time_slot,omitempty" bson:"time_slot,omitempty"`
}

// ApplyPrice overwrites the line's quantity and price fields.
func (it *Item) ApplyPrice(b pricing.Breakdown) {
	it.Quantity = b.Quantity
	it.ActualPrice = b.Actual
	it.DiscountAmount = b.Discount
	it.TaxAmount = b.Tax
	it.FinalPrice = b.Final
}

// IsActive reports whether the cart can still be mutated.
func (c *Cart) IsActive() bool { return c.Status == StatusActive }

// HasCoupon reports whether a coupon is applied.
func (c *Cart) HasCoupon() bool { return !c.CouponID.IsNil() }

// FindItem returns the line holding the given catalog item, or nil.
func (c *Cart) FindItem(kind types.ItemKind, itemID id.ID) *Item {
	for i := range c.Items {
		if c.Items[i].Kind == kind && c.Items[i].ItemID.String() == itemID.String() {
			return &c.Items[i]
		}
	}
	return nil
}

// ItemByID returns the line with the given id, or nil.
func (c *Cart) ItemByID(lineID id.CartItemID) *Item {
	for i := range c.Items {
		if c.Items[i].ID.String() == lineID.String() {
			return &c.Items[i]
		}
	}
	return nil
}

// Upsert replaces the line with the same id or appends it.
func (c *Cart) Upsert(it Item) {
	if existing := c.ItemByID(it.ID); existing != nil {
		*existing = it
		return
	}
	c.Items = append(c.Items, it)
}

// RemoveItem deletes the line with the given id and reports whether it existed.
func (c *Cart) RemoveItem(lineID id.CartItemID) bool {
	for i := range c.Items {
		if c.Items[i].ID.String() == lineID.String() {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

// LineTotal is the sum of line final prices before any coupon.
func (c *Cart) LineTotal() types.Money {
	var total types.Money
	for _, it := range c.Items {
		total = total.Add(it.FinalPrice)
	}
	return total
}

// Recompute refreshes all cart totals from the lines and coupon discount.
func (c *Cart) Recompute() {
	var sub, disc, tax, items types.Money
	for _, it := range c.Items {
		sub = sub.Add(it.ActualPrice)
		disc = disc.Add(it.DiscountAmount)
		tax = tax.Add(it.TaxAmount)
		items = items.Add(it.FinalPrice)
	}
	c.Subtotal = sub
	c.DiscountTotal = disc
	c.TaxTotal = tax
	c.ItemsTotal = items
	c.Total = items.Sub(c.CouponDiscount).NonNegative()
}

// ApplyCoupon attaches a coupon, tags the eligible lines and clears the tag
// from all others. It resets the removed flag.
func (c *Cart) ApplyCoupon(couponID id.CouponID, discount types.Money, eligible []id.CartItemID) {
	tagged := make(map[string]struct{}, len(eligible))
	for _, e := range eligible {
		tagged[e.String()] = struct{}{}
	}
	for i := range c.Items {
		if _, ok := tagged[c.Items[i].ID.String()]; ok {
			c.Items[i].CouponID = couponID
		} else {
			c.Items[i].CouponID = id.Nil
		}
	}
	c.CouponID = couponID
	c.CouponDiscount = discount
	c.CouponRemoved = false
	c.Recompute()
}

// ClearCoupon detaches the applied coupon. markRemoved records an explicit
// buyer removal, which suppresses auto-apply.
func (c *Cart) ClearCoupon(markRemoved bool) {
	for i := range c.Items {
		c.Items[i].CouponID = id.Nil
	}
	c.CouponID = id.Nil
	c.CouponDiscount = types.Zero()
	if markRemoved {
		c.CouponRemoved = true
	}
	c.Recompute()
}

// Clone returns a deep copy of the cart.
func (c *Cart) Clone() *Cart {
	out := *c
	out.Items = make([]Item, len(c.Items))
	for i, it := range c.Items {
		if it.Schedule != nil {
			s := *it.Schedule
			it.Schedule = &s
		}
		out.Items[i] = it
	}
	if c.Metadata != nil {
		out.Metadata = make(map[string]string, len(c.Metadata))
		for k, v := range c.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}

// ListOpts filters cart listings.
type ListOpts struct {
	Status Status
	Limit  int
	Offset int
}
