package cart

import (
	"context"

	"github.com/xraph/commerce/id"
)

// Store persists carts together with their line items.
//
// CreateCart must fail with the active-cart-exists error when the business
// already has an active cart for the same identity key. UpdateCart writes
// only if the stored version equals c.Version, then increments c.Version.
type Store interface {
	CreateCart(ctx context.Context, c *Cart) error
	GetCart(ctx context.Context, cartID id.CartID) (*Cart, error)
	FindActiveCart(ctx context.Context, businessID string, buyer BuyerIdentity) (*Cart, error)
	FindCartByItem(ctx context.Context, itemID id.CartItemID) (*Cart, error)
	ListCarts(ctx context.Context, businessID string, opts ListOpts) ([]*Cart, error)
	UpdateCart(ctx context.Context, c *Cart) error

	// CountCouponUsage counts completed carts that used the coupon. A
	// non-empty contactID restricts the count to that buyer.
	CountCouponUsage(ctx context.Context, couponID id.CouponID, contactID string) (int64, error)
}
