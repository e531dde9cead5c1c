package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/commerce"
	"github.com/xraph/commerce/cart"
	"github.com/xraph/commerce/catalog"
	"github.com/xraph/commerce/coupon"
	"github.com/xraph/commerce/id"
	"github.com/xraph/commerce/order"
	"github.com/xraph/commerce/store/memory"
	"github.com/xraph/commerce/types"
)

func newCart(businessID string, buyer cart.BuyerIdentity) *cart.Cart {
	c := &cart.Cart{
		ID:         id.NewCartID(),
		BusinessID: businessID,
		Buyer:      buyer,
		Channel:    cart.ChannelStorefront,
		Status:     cart.StatusActive,
	}
	c.Stamp(time.Now())
	return c
}

func TestCartSingleActivePerIdentity(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	first := newCart("biz_1", cart.Contact("c1"))
	require.NoError(t, s.CreateCart(ctx, first))

	err := s.CreateCart(ctx, newCart("biz_1", cart.Contact("c1")))
	assert.ErrorIs(t, err, commerce.ErrActiveCartExists)

	// Other business and other identity are independent.
	require.NoError(t, s.CreateCart(ctx, newCart("biz_2", cart.Contact("c1"))))
	require.NoError(t, s.CreateCart(ctx, newCart("biz_1", cart.Anonymous("c1"))))

	found, err := s.FindActiveCart(ctx, "biz_1", cart.Contact("c1"))
	require.NoError(t, err)
	assert.Equal(t, first.ID.String(), found.ID.String())

	// Completing the cart frees the slot.
	found.Status = cart.StatusCompleted
	require.NoError(t, s.UpdateCart(ctx, found))

	_, err = s.FindActiveCart(ctx, "biz_1", cart.Contact("c1"))
	assert.ErrorIs(t, err, commerce.ErrCartNotFound)
	require.NoError(t, s.CreateCart(ctx, newCart("biz_1", cart.Contact("c1"))))
}

func TestCartOptimisticVersion(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	c := newCart("biz_1", cart.Contact("c1"))
	require.NoError(t, s.CreateCart(ctx, c))

	a, err := s.GetCart(ctx, c.ID)
	require.NoError(t, err)
	b, err := s.GetCart(ctx, c.ID)
	require.NoError(t, err)

	require.NoError(t, s.UpdateCart(ctx, a))
	assert.Equal(t, int64(1), a.Version)

	err = s.UpdateCart(ctx, b)
	assert.ErrorIs(t, err, commerce.ErrCartConflict)

	err = s.UpdateCart(ctx, newCart("biz_1", cart.Contact("c9")))
	assert.ErrorIs(t, err, commerce.ErrCartNotFound)
}

func TestCartReadsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	c := newCart("biz_1", cart.Contact("c1"))
	c.Items = []cart.Item{{ID: id.NewCartItemID(), Kind: types.KindProduct, ItemID: id.NewProductID(), Quantity: 1}}
	require.NoError(t, s.CreateCart(ctx, c))

	got, err := s.GetCart(ctx, c.ID)
	require.NoError(t, err)
	got.Items[0].Quantity = 99
	c.Items[0].Quantity = 42

	again, err := s.GetCart(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), again.Items[0].Quantity)
}

func TestFindCartByItem(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	lineID := id.NewCartItemID()
	c := newCart("biz_1", cart.Contact("c1"))
	c.Items = []cart.Item{{ID: lineID, Kind: types.KindService, ItemID: id.NewServiceID(), Quantity: 1}}
	require.NoError(t, s.CreateCart(ctx, c))

	found, err := s.FindCartByItem(ctx, lineID)
	require.NoError(t, err)
	assert.Equal(t, c.ID.String(), found.ID.String())

	_, err = s.FindCartByItem(ctx, id.NewCartItemID())
	assert.ErrorIs(t, err, commerce.ErrCartItemNotFound)
}

func TestCountCouponUsage(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	couponID := id.NewCouponID()

	for _, buyer := range []cart.BuyerIdentity{
		cart.Contact("c1"),
		cart.Contact("c2"),
		cart.Staff("staff_1", "c1"),
	} {
		c := newCart("biz_1", buyer)
		c.CouponID = couponID
		require.NoError(t, s.CreateCart(ctx, c))
		c.Status = cart.StatusCompleted
		require.NoError(t, s.UpdateCart(ctx, c))
	}

	// Active carts do not count.
	pending := newCart("biz_1", cart.Contact("c1"))
	pending.CouponID = couponID
	require.NoError(t, s.CreateCart(ctx, pending))

	total, err := s.CountCouponUsage(ctx, couponID, "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	perBuyer, err := s.CountCouponUsage(ctx, couponID, "c1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), perBuyer)
}

func TestAdjustProductStock(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	p := &catalog.Product{ID: id.NewProductID(), BusinessID: "biz_1", Name: "Soap", StockQty: 5}
	require.NoError(t, s.CreateProduct(ctx, p))

	require.NoError(t, s.AdjustProductStock(ctx, p.ID, -3))
	assert.ErrorIs(t, s.AdjustProductStock(ctx, p.ID, -3), commerce.ErrOutOfStock)
	require.NoError(t, s.AdjustProductStock(ctx, p.ID, 1))

	got, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.StockQty)

	assert.ErrorIs(t, s.AdjustProductStock(ctx, id.NewProductID(), 1), commerce.ErrProductNotFound)
}

func TestCouponByCodePrefersBusiness(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	platform := &coupon.Coupon{ID: id.NewCouponID(), Code: "SAVE", IsActive: true}
	own := &coupon.Coupon{ID: id.NewCouponID(), BusinessID: "biz_1", Code: "SAVE", IsActive: true}
	require.NoError(t, s.CreateCoupon(ctx, platform))
	require.NoError(t, s.CreateCoupon(ctx, own))

	got, err := s.GetCouponByCode(ctx, "biz_1", "SAVE")
	require.NoError(t, err)
	assert.Equal(t, own.ID.String(), got.ID.String())

	got, err = s.GetCouponByCode(ctx, "biz_2", "SAVE")
	require.NoError(t, err)
	assert.Equal(t, platform.ID.String(), got.ID.String())

	_, err = s.GetCouponByCode(ctx, "biz_1", "NOPE")
	assert.ErrorIs(t, err, commerce.ErrCouponNotFound)

	dup := &coupon.Coupon{ID: id.NewCouponID(), BusinessID: "biz_1", Code: "SAVE"}
	assert.ErrorIs(t, s.CreateCoupon(ctx, dup), commerce.ErrCouponCodeTaken)
}

func TestListCouponsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	older := &coupon.Coupon{ID: id.NewCouponID(), BusinessID: "biz_1", Code: "OLD", IsActive: true, AutoApply: true}
	older.Stamp(base)
	newer := &coupon.Coupon{ID: id.NewCouponID(), Code: "NEW", IsActive: true, AutoApply: true}
	newer.Stamp(base.Add(time.Hour))
	manual := &coupon.Coupon{ID: id.NewCouponID(), BusinessID: "biz_1", Code: "MANUAL", IsActive: true}
	manual.Stamp(base.Add(2 * time.Hour))
	foreign := &coupon.Coupon{ID: id.NewCouponID(), BusinessID: "biz_2", Code: "OTHER", IsActive: true, AutoApply: true}
	foreign.Stamp(base.Add(3 * time.Hour))

	for _, c := range []*coupon.Coupon{older, newer, manual, foreign} {
		require.NoError(t, s.CreateCoupon(ctx, c))
	}

	auto, err := s.ListCoupons(ctx, "biz_1", coupon.ListOpts{AutoApply: true, ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, auto, 2)
	assert.Equal(t, "NEW", auto[0].Code)
	assert.Equal(t, "OLD", auto[1].Code)

	all, err := s.ListCoupons(ctx, "biz_1", coupon.ListOpts{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "NEW", all[0].Code)

	require.NoError(t, s.DeleteCoupon(ctx, manual.ID))
	assert.ErrorIs(t, s.DeleteCoupon(ctx, manual.ID), commerce.ErrCouponNotFound)
}

func TestOrders(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	c := newCart("biz_1", cart.Contact("c1"))
	o := order.FromCart(c, "", time.Now())
	require.NoError(t, s.CreateOrder(ctx, o))
	assert.ErrorIs(t, s.CreateOrder(ctx, o), commerce.ErrAlreadyExists)

	got, err := s.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID.String(), got.CartID.String())

	mine, err := s.ListOrders(ctx, "biz_1", order.ListOpts{ContactID: "c1"})
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	theirs, err := s.ListOrders(ctx, "biz_1", order.ListOpts{ContactID: "c2"})
	require.NoError(t, err)
	assert.Empty(t, theirs)

	_, err = s.GetOrder(ctx, id.NewOrderID())
	assert.ErrorIs(t, err, commerce.ErrOrderNotFound)
}

func TestClosedStoreRejectsWrites(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	c := newCart("biz_1", cart.Contact("c1"))
	require.NoError(t, s.CreateCart(ctx, c))
	require.NoError(t, s.Ping(ctx))
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.Ping(ctx), commerce.ErrStoreClosed)
	assert.ErrorIs(t, s.CreateCart(ctx, newCart("biz_1", cart.Contact("c2"))), commerce.ErrStoreClosed)
	assert.ErrorIs(t, s.UpdateCart(ctx, c), commerce.ErrStoreClosed)
	assert.ErrorIs(t, s.CreateOrder(ctx, order.FromCart(c, "", time.Now())), commerce.ErrStoreClosed)
	assert.ErrorIs(t, s.AdjustProductStock(ctx, id.NewProductID(), -1), commerce.ErrStoreClosed)

	got, err := s.GetCart(ctx, c.ID)
	require.NoError(t, err, "reads keep working after close")
	assert.Equal(t, c.ID.String(), got.ID.String())
}
