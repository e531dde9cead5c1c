package coupon

import (
	"context"

	"github.com/xraph/commerce/id"
)

// Store persists coupons.
//
// GetCouponByCode prefers a coupon owned by businessID and falls back to a
// platform coupon with the same code. ListCoupons returns business and
// platform coupons ordered newest first.
type Store interface {
	CreateCoupon(ctx context.Context, c *Coupon) error
	GetCoupon(ctx context.Context, couponID id.CouponID) (*Coupon, error)
	GetCouponByCode(ctx context.Context, businessID, code string) (*Coupon, error)
	ListCoupons(ctx context.Context, businessID string, opts ListOpts) ([]*Coupon, error)
	UpdateCoupon(ctx context.Context, c *Coupon) error
	DeleteCoupon(ctx context.Context, couponID id.CouponID) error
}

// UsageCounter derives redemption counts from completed carts.
type UsageCounter interface {
	CountCouponUsage(ctx context.Context, couponID id.CouponID, contactID string) (int64, error)
}
