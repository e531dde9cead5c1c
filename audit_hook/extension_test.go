package audithook_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audithook "github.com/xraph/commerce/audit_hook"
	"github.com/xraph/commerce/cart"
	"github.com/xraph/commerce/coupon"
	"github.com/xraph/commerce/id"
	"github.com/xraph/commerce/order"
	"github.com/xraph/commerce/types"
)

type captured struct {
	events []*audithook.AuditEvent
}

func (c *captured) Record(_ context.Context, evt *audithook.AuditEvent) error {
	c.events = append(c.events, evt)
	return nil
}

func testCart() *cart.Cart {
	return &cart.Cart{
		ID:         id.NewCartID(),
		BusinessID: "biz_1",
		Buyer:      cart.Contact("c1"),
		Channel:    cart.ChannelStorefront,
		Status:     cart.StatusActive,
	}
}

func TestExtensionRecordsLifecycle(t *testing.T) {
	ctx := context.Background()
	rec := &captured{}
	ext := audithook.New(rec)
	c := testCart()

	require.NoError(t, ext.OnCartCreated(ctx, c))
	cp := &coupon.Coupon{ID: id.NewCouponID(), Code: "SAVE10"}
	require.NoError(t, ext.OnCouponApplied(ctx, c, cp, types.MustParseMoney("10")))
	require.NoError(t, ext.OnCouponRejected(ctx, c, "BOGUS", "Invalid coupon code"))

	o := order.FromCart(c, "SAVE10", c.CreatedAt)
	require.NoError(t, ext.OnOrderPlaced(ctx, o))

	require.Len(t, rec.events, 4)

	created := rec.events[0]
	assert.Equal(t, audithook.ActionCartCreated, created.Action)
	assert.Equal(t, audithook.ResourceCart, created.Resource)
	assert.Equal(t, c.ID.String(), created.ResourceID)
	assert.Equal(t, "biz_1", created.Metadata["business_id"])
	assert.Equal(t, audithook.OutcomeSuccess, created.Outcome)

	applied := rec.events[1]
	assert.Equal(t, audithook.CategoryPromotion, applied.Category)
	assert.Equal(t, "10.00", applied.Metadata["discount"])

	rejected := rec.events[2]
	assert.Equal(t, audithook.OutcomeFailure, rejected.Outcome)
	assert.Equal(t, audithook.SeverityWarning, rejected.Severity)
	assert.Equal(t, "Invalid coupon code", rejected.Reason)
	assert.Equal(t, "BOGUS", rejected.Metadata["code"])

	placed := rec.events[3]
	assert.Equal(t, audithook.ActionOrderPlaced, placed.Action)
	assert.Equal(t, o.ID.String(), placed.ResourceID)
	assert.Equal(t, "SAVE10", placed.Metadata["coupon_code"])
}

func TestExtensionActionFilters(t *testing.T) {
	ctx := context.Background()
	c := testCart()

	t.Run("enabled allow-list", func(t *testing.T) {
		rec := &captured{}
		ext := audithook.New(rec, audithook.WithActions(audithook.ActionCartAbandoned))

		require.NoError(t, ext.OnCartCreated(ctx, c))
		require.NoError(t, ext.OnCartAbandoned(ctx, c))

		require.Len(t, rec.events, 1)
		assert.Equal(t, audithook.ActionCartAbandoned, rec.events[0].Action)
	})

	t.Run("disabled deny-list", func(t *testing.T) {
		rec := &captured{}
		ext := audithook.New(rec, audithook.WithoutActions(audithook.ActionItemRemoved))

		require.NoError(t, ext.OnCartItemRemoved(ctx, c, id.NewCartItemID()))
		require.NoError(t, ext.OnCartCancelled(ctx, c))

		require.Len(t, rec.events, 1)
		assert.Equal(t, audithook.ActionCartCancelled, rec.events[0].Action)
	})

	t.Run("promotion and sales only", func(t *testing.T) {
		rec := &captured{}
		ext := audithook.New(rec,
			audithook.WithCategories(audithook.CategoryPromotion, audithook.CategorySales),
			audithook.WithoutActions(audithook.ActionCouponRemoved),
		)

		item := &cart.Item{ID: id.NewCartItemID(), Kind: types.KindService, ItemID: id.NewServiceID(), Quantity: 1}
		require.NoError(t, ext.OnCartItemAdded(ctx, c, item))
		require.NoError(t, ext.OnCouponRemoved(ctx, c, id.NewCouponID()))
		require.NoError(t, ext.OnCouponRejected(ctx, c, "SAVE50", string(coupon.ReasonExpired)))
		require.NoError(t, ext.OnOrderPlaced(ctx, order.FromCart(c, "", time.Now())))

		require.Len(t, rec.events, 2)
		assert.Equal(t, audithook.ActionCouponRejected, rec.events[0].Action)
		assert.Equal(t, string(coupon.ReasonExpired), rec.events[0].Reason)
		assert.Equal(t, audithook.OutcomeFailure, rec.events[0].Outcome)
		assert.Equal(t, audithook.ActionOrderPlaced, rec.events[1].Action)
		assert.Equal(t, audithook.CategorySales, rec.events[1].Category)
	})
}

func TestExtensionSwallowsRecorderFailure(t *testing.T) {
	ext := audithook.New(audithook.RecorderFunc(func(context.Context, *audithook.AuditEvent) error {
		return errors.New("backend down")
	}))

	err := ext.OnCouponRemoved(context.Background(), testCart(), id.NewCouponID())
	assert.NoError(t, err)
	assert.Equal(t, "audit-hook", ext.Name())
}
