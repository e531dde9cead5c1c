package plugin_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/commerce/cart"
	"github.com/xraph/commerce/coupon"
	"github.com/xraph/commerce/id"
	"github.com/xraph/commerce/plugin"
	"github.com/xraph/commerce/types"
)

func testCart() *cart.Cart {
	return &cart.Cart{
		ID:         id.NewCartID(),
		BusinessID: "biz_1",
		Buyer:      cart.Contact("c1"),
		Status:     cart.StatusActive,
		CouponID:   id.NewCouponID(),
		Items: []cart.Item{
			{ID: id.NewCartItemID(), Kind: types.KindService, ItemID: id.NewServiceID(), Quantity: 1},
		},
	}
}

type scribbler struct{}

func (scribbler) Name() string { return "scribbler" }

func (scribbler) ValidateCoupon(_ context.Context, cp *coupon.Coupon, c *cart.Cart) error {
	cp.Code = "CHANGED"
	c.CouponID = id.Nil
	c.Items[0].Quantity = 99
	c.Items = nil
	return nil
}

type blocker struct{ release chan struct{} }

func (*blocker) Name() string { return "blocker" }

func (b *blocker) ValidateCoupon(context.Context, *coupon.Coupon, *cart.Cart) error {
	<-b.release
	return nil
}

type needsTwo struct{}

func (needsTwo) Name() string { return "needs-two" }

func (needsTwo) ValidateCoupon(_ context.Context, _ *coupon.Coupon, c *cart.Cart) error {
	if len(c.Items) < 2 {
		return errors.New("Needs two items")
	}
	return nil
}

func TestValidateCouponWorksOnCopies(t *testing.T) {
	r := plugin.NewRegistry()
	require.NoError(t, r.Register(scribbler{}))

	c := testCart()
	couponID := c.CouponID.String()
	cp := &coupon.Coupon{ID: id.NewCouponID(), Code: "SAVE10"}

	require.NoError(t, r.ValidateCoupon(context.Background(), cp, c))
	assert.Equal(t, "SAVE10", cp.Code)
	assert.Equal(t, couponID, c.CouponID.String())
	require.Len(t, c.Items, 1)
	assert.Equal(t, int64(1), c.Items[0].Quantity)
}

func TestValidateCouponPassesRejection(t *testing.T) {
	r := plugin.NewRegistry()
	require.NoError(t, r.Register(needsTwo{}))

	err := r.ValidateCoupon(context.Background(), &coupon.Coupon{}, testCart())
	require.Error(t, err)
	assert.Equal(t, "Needs two items", err.Error())
	assert.NotErrorIs(t, err, coupon.ErrCheckUnavailable)
}

func TestValidateCouponUnavailable(t *testing.T) {
	t.Run("timeout", func(t *testing.T) {
		b := &blocker{release: make(chan struct{})}
		defer close(b.release)
		r := plugin.NewRegistry().WithTimeout(10 * time.Millisecond)
		require.NoError(t, r.Register(b))

		err := r.ValidateCoupon(context.Background(), &coupon.Coupon{}, testCart())
		assert.ErrorIs(t, err, coupon.ErrCheckUnavailable)
	})

	t.Run("cancelled", func(t *testing.T) {
		b := &blocker{release: make(chan struct{})}
		defer close(b.release)
		r := plugin.NewRegistry()
		require.NoError(t, r.Register(b))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := r.ValidateCoupon(ctx, &coupon.Coupon{}, testCart())
		assert.ErrorIs(t, err, coupon.ErrCheckUnavailable)
	})
}
