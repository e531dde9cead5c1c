package commerce

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xraph/commerce/cart"
	"github.com/xraph/commerce/coupon"
	"github.com/xraph/commerce/id"
	"github.com/xraph/commerce/order"
	"github.com/xraph/commerce/types"
)

// Checkout converts an active cart into an order.
//
// The applied coupon is re-validated, product stock is decremented, the cart
// is marked completed and the order snapshot is written. A failure in any
// later step undoes the stock decrements already made.
func (e *Commerce) Checkout(ctx context.Context, cartID id.CartID) (*order.Order, error) {
	c, err := e.store.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if !c.IsActive() {
		return nil, ValidationError{Field: "cart", Message: "cart is not active", Err: ErrCartNotActive}
	}
	if len(c.Items) == 0 {
		return nil, ValidationError{Field: "cart", Message: "cart is empty", Err: ErrEmptyCart}
	}

	var couponCode string
	if c.HasCoupon() {
		cp, err := e.store.GetCoupon(ctx, c.CouponID)
		if err != nil {
			if IsNotFound(err) {
				return nil, couponRejection(&coupon.RejectedError{Reason: coupon.ReasonInvalidCode, CouponID: c.CouponID})
			}
			return nil, err
		}
		res, err := e.coupons.Evaluate(ctx, cp, c)
		if err != nil {
			if re, ok := coupon.AsRejected(err); ok {
				return nil, couponRejection(re)
			}
			return nil, err
		}
		if !res.Success {
			return nil, ValidationError{Field: "coupon", Message: res.Message, Err: ErrCouponNotEligible}
		}
		c.ApplyCoupon(res.CouponID, res.Discount, res.EligibleItems)
		couponCode = cp.Code
	}

	reserved, err := e.reserveStock(ctx, c.Items)
	if err != nil {
		return nil, err
	}

	now := e.clock()
	c.Status = cart.StatusCompleted
	c.Recompute()
	c.Stamp(now)
	if err := e.store.UpdateCart(ctx, c); err != nil {
		e.releaseStock(ctx, reserved)
		return nil, err
	}

	o := order.FromCart(c, couponCode, now)
	if err := e.store.CreateOrder(ctx, o); err != nil {
		e.releaseStock(ctx, reserved)
		e.reopenCart(ctx, c)
		return nil, errors.Wrap(err, "create order")
	}

	e.logger.Info("order placed",
		"order_id", o.ID.String(),
		"cart_id", c.ID.String(),
		"business_id", c.BusinessID,
		"total", o.Total.String(),
	)
	e.plugins.EmitOrderPlaced(ctx, o)

	return o, nil
}

type stockHold struct {
	productID id.ProductID
	qty       int64
}

// reserveStock decrements stock for every product line, undoing earlier
// decrements if one fails.
func (e *Commerce) reserveStock(ctx context.Context, items []cart.Item) ([]stockHold, error) {
	var held []stockHold
	for _, it := range items {
		if it.Kind != types.KindProduct {
			continue
		}
		if err := e.store.AdjustProductStock(ctx, it.ItemID, -it.Quantity); err != nil {
			e.releaseStock(ctx, held)
			return nil, outOfStock(err)
		}
		held = append(held, stockHold{productID: it.ItemID, qty: it.Quantity})
	}
	return held, nil
}

func (e *Commerce) releaseStock(ctx context.Context, held []stockHold) {
	for _, h := range held {
		if err := e.store.AdjustProductStock(ctx, h.productID, h.qty); err != nil {
			e.logger.Error("release stock failed",
				"product_id", h.productID.String(),
				"quantity", h.qty,
				"error", err,
			)
		}
	}
}

func (e *Commerce) reopenCart(ctx context.Context, c *cart.Cart) {
	c.Status = cart.StatusActive
	c.Stamp(e.clock())
	if err := e.store.UpdateCart(ctx, c); err != nil {
		e.logger.Error("reopen cart after failed checkout", "cart_id", c.ID.String(), "error", err)
	}
}
