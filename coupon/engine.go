package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/xraph/commerce/cart"
	"github.com/xraph/commerce/id"
	"github.com/xraph/commerce/types"
)

// Reason is the machine-usable string explaining a coupon rejection.
type Reason string

const (
	ReasonInvalidCode        Reason = "Invalid coupon code"
	ReasonExpired            Reason = "Coupon Expired"
	ReasonNotApplicable      Reason = "Coupon not applicable"
	ReasonLimitExceeded      Reason = "Coupon limit exceed"
	ReasonBuyerLimitExceeded Reason = "Coupon usage limit reached for this customer"
)

// ErrCheckUnavailable is returned by an extra check that could not reach a
// verdict, for example because it timed out. It is reported as a fault and
// never as a rejection.
var ErrCheckUnavailable = errors.New("coupon: eligibility check unavailable")

// MessageNoEligibleItems accompanies a soft failure when every line is excluded.
const MessageNoEligibleItems = "No eligible items in cart for this coupon"

// RejectedError is returned when a coupon fails one of the hard checks.
type RejectedError struct {
	Reason   Reason
	CouponID id.CouponID
	// Message overrides Reason in the error text, for validator plugins.
	Message string
}

// Error implements error.
func (e *RejectedError) Error() string {
	return "commerce: coupon rejected: " + e.Text()
}

// Text returns the human-readable rejection message.
func (e *RejectedError) Text() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Reason)
}

// AsRejected extracts a RejectedError from err.
func AsRejected(err error) (*RejectedError, bool) {
	var re *RejectedError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// Result is the outcome of evaluating a coupon against a cart.
type Result struct {
	Success       bool            `json:"success"`
	CouponID      id.CouponID     `json:"coupon_id"`
	Discount      types.Money     `json:"discount"`
	EligibleTotal types.Money     `json:"eligible_total"`
	EligibleItems []id.CartItemID `json:"-"`
	Message       string          `json:"message,omitempty"`
}

// Check is an extra rule run after the built-in ones. A non-nil error
// rejects the coupon with the error's text, unless it wraps
// ErrCheckUnavailable or a context error.
type Check func(ctx context.Context, c *Coupon, crt *cart.Cart) error

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithClock overrides the time source.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// WithCheck appends an extra eligibility rule.
func WithCheck(c Check) EngineOption {
	return func(e *Engine) { e.checks = append(e.checks, c) }
}

// Engine validates coupons against carts and computes the discount.
type Engine struct {
	usage  UsageCounter
	now    func() time.Time
	checks []Check
}

// NewEngine creates an Engine counting usage through u.
func NewEngine(u UsageCounter, opts ...EngineOption) *Engine {
	e := &Engine{usage: u, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs the checks in order; the first failure wins. Hard failures
// are returned as *RejectedError. A cart whose every line is excluded gives
// a Result with Success false and no error.
func (e *Engine) Evaluate(ctx context.Context, c *Coupon, crt *cart.Cart) (*Result, error) {
	if c == nil || !c.IsActive {
		return nil, &RejectedError{Reason: ReasonInvalidCode}
	}
	reject := func(r Reason) error { return &RejectedError{Reason: r, CouponID: c.ID} }

	if c.BusinessID != "" && c.BusinessID != crt.BusinessID {
		return nil, reject(ReasonInvalidCode)
	}

	now := e.now().UTC()
	if c.ValidFrom != nil && c.ValidFrom.After(now) {
		return nil, reject(ReasonInvalidCode)
	}
	if end, ok := c.ValidToEnd(); ok && now.After(end) {
		return nil, reject(ReasonExpired)
	}

	if crt.LineTotal().LessThan(c.MinCartValue) {
		return nil, reject(ReasonNotApplicable)
	}

	if c.AvailableLimit != nil {
		used, err := e.usage.CountCouponUsage(ctx, c.ID, "")
		if err != nil {
			return nil, errors.Wrap(err, "count coupon usage")
		}
		if used >= *c.AvailableLimit {
			return nil, reject(ReasonLimitExceeded)
		}
	}

	if c.UsageLimit != nil {
		if contactID, ok := crt.Buyer.ContactID(); ok {
			used, err := e.usage.CountCouponUsage(ctx, c.ID, contactID)
			if err != nil {
				return nil, errors.Wrap(err, "count buyer coupon usage")
			}
			if used >= *c.UsageLimit {
				return nil, reject(ReasonBuyerLimitExceeded)
			}
		}
	}

	for _, check := range e.checks {
		if err := check(ctx, c, crt); err != nil {
			if checkFault(ctx, err) {
				return nil, errors.Wrap(err, "coupon check")
			}
			return nil, &RejectedError{Reason: ReasonNotApplicable, CouponID: c.ID, Message: err.Error()}
		}
	}

	var eligible types.Money
	var lines []id.CartItemID
	for _, it := range crt.Items {
		if c.Excludes(it.Kind, it.ItemID.String()) {
			continue
		}
		eligible = eligible.Add(it.FinalPrice)
		lines = append(lines, it.ID)
	}
	if !eligible.IsPositive() {
		return &Result{CouponID: c.ID, Message: MessageNoEligibleItems}, nil
	}

	return &Result{
		Success:       true,
		CouponID:      c.ID,
		Discount:      Discount(c, eligible),
		EligibleTotal: eligible,
		EligibleItems: lines,
	}, nil
}

func checkFault(ctx context.Context, err error) bool {
	return ctx.Err() != nil ||
		errors.Is(err, ErrCheckUnavailable) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// Discount computes the coupon discount on an eligible total. It never
// exceeds the eligible total and is never negative.
func Discount(c *Coupon, eligible types.Money) types.Money {
	var d types.Money
	switch c.DiscountType {
	case types.DiscountFlat:
		d = types.NewMoney(c.DiscountValue).Round().Min(eligible)
	case types.DiscountPercentage:
		d = eligible.Percent(c.DiscountValue).Round()
		if c.MaxDiscount != nil {
			d = d.Min(*c.MaxDiscount)
		}
		d = d.Min(eligible)
	}
	return d.NonNegative()
}

// FirstApplicable returns the first candidate that applies successfully,
// or nil. Candidates are expected newest first. Rejections are skipped;
// store errors abort.
func (e *Engine) FirstApplicable(ctx context.Context, candidates []*Coupon, crt *cart.Cart) (*Coupon, *Result, error) {
	for _, c := range candidates {
		res, err := e.Evaluate(ctx, c, crt)
		if err != nil {
			if _, ok := AsRejected(err); ok {
				continue
			}
			return nil, nil, err
		}
		if res.Success {
			return c, res, nil
		}
	}
	return nil, nil, nil
}
