// Package coupon defines discount coupons and the engine that decides whether
// a coupon applies to a cart and how much it takes off.
package coupon

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/commerce/id"
	"github.com/xraph/commerce/types"
)

// Scope says who may redeem a coupon. Platform coupons have no BusinessID.
type Scope string

const (
	// ScopePlatform coupons are redeemable at every business.
	ScopePlatform Scope = "platform"
	// ScopeBusiness coupons are redeemable only at their own business.
	ScopeBusiness Scope = "business"
)

// Coupon is a discount instrument. Usage counters are never stored on the
// coupon; they are derived from completed carts.
type Coupon struct {
	types.Entity
	ID         id.CouponID `json:"id"`
	BusinessID string      `json:"business_id,omitempty"`
	Scope      Scope       `json:"scope"`
	Code       string      `json:"code"`
	Name       string      `json:"name"`

	DiscountType  types.DiscountType `json:"discount_type"`
	DiscountValue decimal.Decimal    `json:"discount_value"`
	// MaxDiscount caps percentage coupons only.
	MaxDiscount  *types.Money `json:"max_discount,omitempty"`
	MinCartValue types.Money  `json:"min_cart_value"`

	// AvailableLimit caps total redemptions across all buyers.
	AvailableLimit *int64 `json:"available_limit,omitempty"`
	// UsageLimit caps redemptions per buyer contact.
	UsageLimit *int64 `json:"usage_limit,omitempty"`

	ValidFrom *time.Time `json:"valid_from,omitempty"`
	// ValidTo is inclusive. A date-only value covers that whole day.
	ValidTo *time.Time `json:"valid_to,omitempty"`

	IsActive  bool `json:"is_active"`
	AutoApply bool `json:"auto_apply"`

	ExcludedProductIDs []string          `json:"excluded_product_ids,omitempty"`
	ExcludedServiceIDs []string          `json:"excluded_service_ids,omitempty"`
	Metadata           map[string]string `json:"metadata,omitempty"`
}

// NormalizeCode canonicalizes a coupon code for storage and lookup.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Excludes reports whether the catalog item is on one of the exclusion lists.
// Combos are never excluded.
func (c *Coupon) Excludes(kind types.ItemKind, itemID string) bool {
	var list []string
	switch kind {
	case types.KindProduct:
		list = c.ExcludedProductIDs
	case types.KindService:
		list = c.ExcludedServiceIDs
	default:
		return false
	}
	for _, x := range list {
		if x == itemID {
			return true
		}
	}
	return false
}

// ValidToEnd returns the instant after which the coupon is expired.
func (c *Coupon) ValidToEnd() (time.Time, bool) {
	if c.ValidTo == nil {
		return time.Time{}, false
	}
	t := c.ValidTo.UTC()
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Add(24*time.Hour - time.Nanosecond), true
	}
	return t, true
}

// ScopeOf derives the scope from the owning business.
func ScopeOf(businessID string) Scope {
	if businessID == "" {
		return ScopePlatform
	}
	return ScopeBusiness
}

// ListOpts filters coupon listings.
type ListOpts struct {
	AutoApply  bool
	ActiveOnly bool
	Limit      int
	Offset     int
}
