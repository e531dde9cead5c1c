// Package audithook bridges Commerce lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not depend on a
// particular audit system. Callers inject a RecorderFunc adapter at wiring
// time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-faster/errors"

	"github.com/xraph/commerce/cart"
	"github.com/xraph/commerce/coupon"
	"github.com/xraph/commerce/id"
	"github.com/xraph/commerce/order"
	"github.com/xraph/commerce/plugin"
	"github.com/xraph/commerce/types"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin            = (*Extension)(nil)
	_ plugin.OnCartCreated     = (*Extension)(nil)
	_ plugin.OnCartItemAdded   = (*Extension)(nil)
	_ plugin.OnCartItemUpdated = (*Extension)(nil)
	_ plugin.OnCartItemRemoved = (*Extension)(nil)
	_ plugin.OnCartAbandoned   = (*Extension)(nil)
	_ plugin.OnCartCancelled   = (*Extension)(nil)
	_ plugin.OnCouponApplied   = (*Extension)(nil)
	_ plugin.OnCouponRemoved   = (*Extension)(nil)
	_ plugin.OnCouponRejected  = (*Extension)(nil)
	_ plugin.OnOrderPlaced     = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Commerce lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Cart lifecycle hooks
// ──────────────────────────────────────────────────

// OnCartCreated implements plugin.OnCartCreated.
func (e *Extension) OnCartCreated(ctx context.Context, c *cart.Cart) error {
	return e.record(ctx, ActionCartCreated, SeverityInfo, OutcomeSuccess,
		ResourceCart, c.ID.String(), CategoryCart, nil,
		"business_id", c.BusinessID,
		"buyer", c.Buyer.Key(),
		"channel", string(c.Channel),
	)
}

// OnCartItemAdded implements plugin.OnCartItemAdded.
func (e *Extension) OnCartItemAdded(ctx context.Context, c *cart.Cart, item *cart.Item) error {
	return e.record(ctx, ActionItemAdded, SeverityInfo, OutcomeSuccess,
		ResourceCartItem, item.ID.String(), CategoryCart, nil,
		"cart_id", c.ID.String(),
		"kind", string(item.Kind),
		"item_id", item.ItemID.String(),
		"quantity", item.Quantity,
		"final_price", item.FinalPrice.String(),
	)
}

// OnCartItemUpdated implements plugin.OnCartItemUpdated.
func (e *Extension) OnCartItemUpdated(ctx context.Context, c *cart.Cart, item *cart.Item) error {
	return e.record(ctx, ActionItemUpdated, SeverityInfo, OutcomeSuccess,
		ResourceCartItem, item.ID.String(), CategoryCart, nil,
		"cart_id", c.ID.String(),
		"quantity", item.Quantity,
		"final_price", item.FinalPrice.String(),
	)
}

// OnCartItemRemoved implements plugin.OnCartItemRemoved.
func (e *Extension) OnCartItemRemoved(ctx context.Context, c *cart.Cart, itemID id.CartItemID) error {
	return e.record(ctx, ActionItemRemoved, SeverityInfo, OutcomeSuccess,
		ResourceCartItem, itemID.String(), CategoryCart, nil,
		"cart_id", c.ID.String(),
	)
}

// OnCartAbandoned implements plugin.OnCartAbandoned.
func (e *Extension) OnCartAbandoned(ctx context.Context, c *cart.Cart) error {
	return e.record(ctx, ActionCartAbandoned, SeverityInfo, OutcomeSuccess,
		ResourceCart, c.ID.String(), CategoryCart, nil,
		"business_id", c.BusinessID,
		"items", len(c.Items),
	)
}

// OnCartCancelled implements plugin.OnCartCancelled.
func (e *Extension) OnCartCancelled(ctx context.Context, c *cart.Cart) error {
	return e.record(ctx, ActionCartCancelled, SeverityWarning, OutcomeSuccess,
		ResourceCart, c.ID.String(), CategoryCart, nil,
		"business_id", c.BusinessID,
		"created_by", c.Buyer.CreatedBy(),
	)
}

// ──────────────────────────────────────────────────
// Coupon lifecycle hooks
// ──────────────────────────────────────────────────

// OnCouponApplied implements plugin.OnCouponApplied.
func (e *Extension) OnCouponApplied(ctx context.Context, c *cart.Cart, cp *coupon.Coupon, discount types.Money) error {
	return e.record(ctx, ActionCouponApplied, SeverityInfo, OutcomeSuccess,
		ResourceCoupon, cp.ID.String(), CategoryPromotion, nil,
		"cart_id", c.ID.String(),
		"code", cp.Code,
		"discount", discount.String(),
	)
}

// OnCouponRemoved implements plugin.OnCouponRemoved.
func (e *Extension) OnCouponRemoved(ctx context.Context, c *cart.Cart, couponID id.CouponID) error {
	return e.record(ctx, ActionCouponRemoved, SeverityInfo, OutcomeSuccess,
		ResourceCoupon, couponID.String(), CategoryPromotion, nil,
		"cart_id", c.ID.String(),
	)
}

// OnCouponRejected implements plugin.OnCouponRejected.
func (e *Extension) OnCouponRejected(ctx context.Context, c *cart.Cart, code, reason string) error {
	return e.record(ctx, ActionCouponRejected, SeverityWarning, OutcomeFailure,
		ResourceCoupon, "", CategoryPromotion, errors.New(reason),
		"cart_id", c.ID.String(),
		"code", code,
	)
}

// ──────────────────────────────────────────────────
// Order lifecycle hooks
// ──────────────────────────────────────────────────

// OnOrderPlaced implements plugin.OnOrderPlaced.
func (e *Extension) OnOrderPlaced(ctx context.Context, o *order.Order) error {
	return e.record(ctx, ActionOrderPlaced, SeverityInfo, OutcomeSuccess,
		ResourceOrder, o.ID.String(), CategorySales, nil,
		"cart_id", o.CartID.String(),
		"business_id", o.BusinessID,
		"coupon_code", o.CouponCode,
		"total", o.Total.String(),
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
