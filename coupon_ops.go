package commerce

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xraph/commerce/cart"
	"github.com/xraph/commerce/coupon"
	"github.com/xraph/commerce/id"
	"github.com/xraph/commerce/types"
)

// ApplyResult is the outcome of applying a coupon code to a cart.
type ApplyResult struct {
	Success  bool        `json:"success"`
	Discount types.Money `json:"discount"`
	CouponID id.CouponID `json:"coupon_id"`
	Message  string      `json:"message,omitempty"`
	Cart     *cart.Cart  `json:"cart"`
}

// couponDetach records a coupon dropped because the cart stopped qualifying.
type couponDetach struct {
	code   string
	reason string
}

// ApplyCoupon validates code against the cart and, if it qualifies, attaches
// it and tags the eligible lines. Hard rejections are returned as a
// ValidationError carrying the coupon reason. A cart with no eligible lines
// yields Success false and no error.
func (e *Commerce) ApplyCoupon(ctx context.Context, cartID id.CartID, code string) (*ApplyResult, error) {
	code = coupon.NormalizeCode(code)
	if code == "" {
		return nil, couponRejection(&coupon.RejectedError{Reason: coupon.ReasonInvalidCode})
	}

	var (
		cp  *coupon.Coupon
		res *coupon.Result
	)
	c, err := e.mutate(ctx, e.loadCart(cartID), func(c *cart.Cart) error {
		var err error
		cp, err = e.store.GetCouponByCode(ctx, c.BusinessID, code)
		if err != nil {
			if errors.Is(err, ErrCouponNotFound) {
				return &coupon.RejectedError{Reason: coupon.ReasonInvalidCode}
			}
			return err
		}

		res, err = e.coupons.Evaluate(ctx, cp, c)
		if err != nil {
			return err
		}
		if !res.Success {
			return errNoChange
		}
		c.ApplyCoupon(res.CouponID, res.Discount, res.EligibleItems)
		return nil
	})
	if err != nil {
		if re, ok := coupon.AsRejected(err); ok {
			e.logger.Debug("coupon rejected", "cart_id", cartID.String(), "code", code, "reason", re.Text())
			if rejected, getErr := e.store.GetCart(ctx, cartID); getErr == nil {
				e.plugins.EmitCouponRejected(ctx, rejected, code, re.Text())
			}
			return nil, couponRejection(re)
		}
		return nil, err
	}

	if !res.Success {
		return &ApplyResult{CouponID: res.CouponID, Message: res.Message, Cart: c}, nil
	}

	e.logger.Info("coupon applied",
		"cart_id", c.ID.String(),
		"coupon_id", cp.ID.String(),
		"discount", res.Discount.String(),
	)
	e.plugins.EmitCouponApplied(ctx, c, cp, res.Discount)

	return &ApplyResult{
		Success:  true,
		Discount: res.Discount,
		CouponID: res.CouponID,
		Cart:     c,
	}, nil
}

// RemoveCoupon detaches the applied coupon and suppresses auto-apply for the
// rest of the cart's life.
func (e *Commerce) RemoveCoupon(ctx context.Context, cartID id.CartID) (*cart.Cart, error) {
	var removed id.CouponID
	c, err := e.mutate(ctx, e.loadCart(cartID), func(c *cart.Cart) error {
		if !c.HasCoupon() {
			return ValidationError{Field: "coupon", Message: "No coupon to remove", Err: ErrNoCouponToRemove}
		}
		removed = c.CouponID
		c.ClearCoupon(true)
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("coupon removed", "cart_id", c.ID.String(), "coupon_id", removed.String())
	e.plugins.EmitCouponRemoved(ctx, c, removed)

	return c, nil
}

// revalidateCoupon re-evaluates the applied coupon after the lines changed.
// A coupon that still qualifies has its discount and tags refreshed; one
// that no longer qualifies is detached without setting the removed flag.
func (e *Commerce) revalidateCoupon(ctx context.Context, c *cart.Cart) (*couponDetach, error) {
	if !c.HasCoupon() {
		return nil, nil
	}

	cp, err := e.store.GetCoupon(ctx, c.CouponID)
	if err != nil {
		if IsNotFound(err) {
			c.ClearCoupon(false)
			return &couponDetach{reason: string(coupon.ReasonInvalidCode)}, nil
		}
		return nil, err
	}

	res, err := e.coupons.Evaluate(ctx, cp, c)
	if err != nil {
		if re, ok := coupon.AsRejected(err); ok {
			e.logger.Debug("applied coupon no longer qualifies",
				"cart_id", c.ID.String(),
				"coupon_id", cp.ID.String(),
				"reason", re.Text(),
			)
			c.ClearCoupon(false)
			return &couponDetach{code: cp.Code, reason: re.Text()}, nil
		}
		return nil, err
	}
	if !res.Success {
		c.ClearCoupon(false)
		return &couponDetach{code: cp.Code, reason: res.Message}, nil
	}

	c.ApplyCoupon(res.CouponID, res.Discount, res.EligibleItems)
	return nil, nil
}

func (e *Commerce) emitDetached(ctx context.Context, c *cart.Cart, d *couponDetach) {
	if d == nil {
		return
	}
	e.plugins.EmitCouponRejected(ctx, c, d.code, d.reason)
}

// tryAutoApply attaches the newest qualifying auto-apply coupon. It returns
// the saved cart, or nil when nothing was applied. Errors are logged and
// discarded.
func (e *Commerce) tryAutoApply(ctx context.Context, c *cart.Cart) *cart.Cart {
	if !e.autoApply || c.HasCoupon() || c.CouponRemoved || len(c.Items) == 0 {
		return nil
	}
	if _, ok := c.Buyer.ContactID(); !ok {
		return nil
	}

	candidates, err := e.store.ListCoupons(ctx, c.BusinessID, coupon.ListOpts{AutoApply: true, ActiveOnly: true})
	if err != nil {
		e.logger.Debug("auto-apply: list coupons failed", "cart_id", c.ID.String(), "error", err)
		return nil
	}

	cp, res, err := e.coupons.FirstApplicable(ctx, candidates, c)
	if err != nil {
		e.logger.Debug("auto-apply: evaluation failed", "cart_id", c.ID.String(), "error", err)
		return nil
	}
	if cp == nil {
		return nil
	}

	updated := c.Clone()
	updated.ApplyCoupon(res.CouponID, res.Discount, res.EligibleItems)
	updated.Stamp(e.clock())
	if err := e.store.UpdateCart(ctx, updated); err != nil {
		e.logger.Debug("auto-apply: save failed", "cart_id", c.ID.String(), "error", err)
		return nil
	}

	e.logger.Info("coupon auto-applied",
		"cart_id", updated.ID.String(),
		"coupon_id", cp.ID.String(),
		"discount", res.Discount.String(),
	)
	e.plugins.EmitCouponApplied(ctx, updated, cp, res.Discount)

	return updated
}

// couponRejection converts a coupon rejection into the user-facing error.
func couponRejection(re *coupon.RejectedError) error {
	return ValidationError{Field: "coupon", Message: re.Text(), Err: re}
}
