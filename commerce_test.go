package commerce_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
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

const biz = "biz_1"

var fixedNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	ctx     context.Context
	store   *memory.Store
	eng     *commerce.Commerce
	product *catalog.Product
	service *catalog.Service
}

func newFixture(t *testing.T, opts ...commerce.Option) *fixture {
	t.Helper()
	f := &fixture{ctx: context.Background(), store: memory.New()}
	opts = append([]commerce.Option{commerce.WithClock(func() time.Time { return fixedNow })}, opts...)
	f.eng = commerce.New(f.store, opts...)
	require.NoError(t, f.eng.Start(f.ctx))
	t.Cleanup(func() { _ = f.eng.Stop() })

	f.product = &catalog.Product{
		BusinessID: biz, Name: "Shampoo",
		SellingPrice: types.MustParseMoney("100.00"), StockQty: 5, IsActive: true,
	}
	require.NoError(t, f.eng.CreateProduct(f.ctx, f.product))

	f.service = &catalog.Service{
		BusinessID: biz, Name: "Haircut",
		Price: types.MustParseMoney("40.00"), IsActive: true,
	}
	require.NoError(t, f.eng.CreateService(f.ctx, f.service))
	return f
}

func (f *fixture) coupon(t *testing.T, code, value, minCart string, mutate ...func(*coupon.Coupon)) *coupon.Coupon {
	t.Helper()
	c := &coupon.Coupon{
		BusinessID: biz, Code: code, Name: code, IsActive: true,
		DiscountType: types.DiscountFlat, DiscountValue: decimal.RequireFromString(value),
		MinCartValue: types.MustParseMoney(minCart),
	}
	for _, m := range mutate {
		m(c)
	}
	require.NoError(t, f.eng.CreateCoupon(f.ctx, c))
	return c
}

func (f *fixture) add(t *testing.T, buyer cart.BuyerIdentity, kind types.ItemKind, itemID id.ID, qty int64) *cart.Cart {
	t.Helper()
	channel := cart.ChannelStorefront
	if buyer.Kind == cart.IdentityStaff {
		channel = cart.ChannelBackOffice
	}
	c, err := f.eng.AddToCart(f.ctx, commerce.AddToCartInput{
		BusinessID: biz, Buyer: buyer, Channel: channel, Kind: kind, ItemID: itemID.String(), Quantity: qty,
	})
	require.NoError(t, err)
	return c
}

func validationMessage(t *testing.T, err error) string {
	t.Helper()
	var ve commerce.ValidationError
	require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
	return ve.Message
}

// ──────────────────────────────────────────────────
// Scenarios
// ──────────────────────────────────────────────────

func TestAddApplyRemoveScenario(t *testing.T) {
	f := newFixture(t)
	buyer := cart.Contact("contact_1")
	save := f.coupon(t, "SAVE50", "50", "200", func(c *coupon.Coupon) { c.AutoApply = true })

	c := f.add(t, buyer, types.KindProduct, f.product.ID, 3)
	require.Len(t, c.Items, 1)
	assert.Equal(t, "300.00", c.Items[0].FinalPrice.String())

	res, err := f.eng.ApplyCoupon(f.ctx, c.ID, "save50")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "50.00", res.Discount.String())
	assert.Equal(t, save.ID.String(), res.Cart.CouponID.String())
	assert.Equal(t, save.ID.String(), res.Cart.Items[0].CouponID.String())
	assert.Equal(t, "250.00", res.Cart.Total.String())

	c, err = f.eng.RemoveCoupon(f.ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, c.HasCoupon())
	assert.True(t, c.CouponRemoved)
	assert.True(t, c.Items[0].CouponID.IsNil())

	got, err := f.eng.GetActiveCart(f.ctx, biz, buyer)
	require.NoError(t, err)
	assert.False(t, got.HasCoupon(), "auto-apply must stay suppressed after removal")

	_, err = f.eng.RemoveCoupon(f.ctx, c.ID)
	assert.ErrorIs(t, err, commerce.ErrNoCouponToRemove)
	assert.Equal(t, "No coupon to remove", validationMessage(t, err))
}

func TestAutoApply(t *testing.T) {
	f := newFixture(t)
	older := f.coupon(t, "OLDER", "5", "0", func(c *coupon.Coupon) { c.AutoApply = true })
	newer := f.coupon(t, "NEWER", "10", "0", func(c *coupon.Coupon) { c.AutoApply = true })
	f.coupon(t, "MANUAL", "90", "0")
	f.coupon(t, "BIG", "20", "1000", func(c *coupon.Coupon) { c.AutoApply = true })

	buyer := cart.Contact("contact_1")
	f.add(t, buyer, types.KindService, f.service.ID, 1)

	got, err := f.eng.GetActiveCart(f.ctx, biz, buyer)
	require.NoError(t, err)
	require.True(t, got.HasCoupon())
	assert.Equal(t, newer.ID.String(), got.CouponID.String(), "newest qualifying coupon wins")
	assert.NotEqual(t, older.ID.String(), got.CouponID.String())
	assert.Equal(t, "30.00", got.Total.String())

	stored, err := f.eng.GetCart(f.ctx, got.ID)
	require.NoError(t, err)
	assert.Equal(t, newer.ID.String(), stored.CouponID.String(), "auto-applied coupon is persisted")
}

func TestAutoApplySkipsAnonymousAndDisabled(t *testing.T) {
	f := newFixture(t)
	f.coupon(t, "AUTO", "5", "0", func(c *coupon.Coupon) { c.AutoApply = true })

	anon := cart.Anonymous("session_1")
	f.add(t, anon, types.KindService, f.service.ID, 1)
	got, err := f.eng.GetActiveCart(f.ctx, biz, anon)
	require.NoError(t, err)
	assert.False(t, got.HasCoupon())

	off := newFixture(t, commerce.WithAutoApply(false))
	off.coupon(t, "AUTO", "5", "0", func(c *coupon.Coupon) { c.AutoApply = true })
	buyer := cart.Contact("contact_1")
	off.add(t, buyer, types.KindService, off.service.ID, 1)
	got, err = off.eng.GetActiveCart(off.ctx, biz, buyer)
	require.NoError(t, err)
	assert.False(t, got.HasCoupon())
}

func TestUsageLimitPerBuyer(t *testing.T) {
	f := newFixture(t)
	limit := int64(1)
	f.coupon(t, "ONCE", "10", "0", func(c *coupon.Coupon) { c.UsageLimit = &limit })
	buyer := cart.Contact("contact_1")

	c := f.add(t, buyer, types.KindProduct, f.product.ID, 1)
	_, err := f.eng.ApplyCoupon(f.ctx, c.ID, "ONCE")
	require.NoError(t, err)
	_, err = f.eng.Checkout(f.ctx, c.ID)
	require.NoError(t, err)

	next := f.add(t, buyer, types.KindProduct, f.product.ID, 1)
	assert.NotEqual(t, c.ID.String(), next.ID.String(), "a completed cart is never reused")

	_, err = f.eng.ApplyCoupon(f.ctx, next.ID, "ONCE")
	require.Error(t, err)
	assert.Equal(t, string(coupon.ReasonBuyerLimitExceeded), validationMessage(t, err))

	other := f.add(t, cart.Contact("contact_2"), types.KindProduct, f.product.ID, 1)
	_, err = f.eng.ApplyCoupon(f.ctx, other.ID, "ONCE")
	assert.NoError(t, err, "the limit is per buyer")
}

func TestAvailableLimit(t *testing.T) {
	f := newFixture(t)
	limit := int64(1)
	f.coupon(t, "FIRST", "10", "0", func(c *coupon.Coupon) { c.AvailableLimit = &limit })

	c := f.add(t, cart.Contact("contact_1"), types.KindService, f.service.ID, 1)
	_, err := f.eng.ApplyCoupon(f.ctx, c.ID, "FIRST")
	require.NoError(t, err)
	_, err = f.eng.Checkout(f.ctx, c.ID)
	require.NoError(t, err)

	other := f.add(t, cart.Contact("contact_2"), types.KindService, f.service.ID, 1)
	_, err = f.eng.ApplyCoupon(f.ctx, other.ID, "FIRST")
	assert.Equal(t, string(coupon.ReasonLimitExceeded), validationMessage(t, err))
}

func TestStockClamp(t *testing.T) {
	f := newFixture(t)
	f.product.StockQty = 2
	require.NoError(t, f.eng.UpdateProduct(f.ctx, f.product))

	c := f.add(t, cart.Contact("contact_1"), types.KindProduct, f.product.ID, 5)
	require.Len(t, c.Items, 1)
	assert.Equal(t, int64(2), c.Items[0].Quantity)
	assert.Equal(t, "200.00", c.Items[0].FinalPrice.String())

	f.product.StockQty = 0
	require.NoError(t, f.eng.UpdateProduct(f.ctx, f.product))
	_, err := f.eng.AddToCart(f.ctx, commerce.AddToCartInput{
		BusinessID: biz, Buyer: cart.Contact("contact_2"),
		Kind: types.KindProduct, ItemID: f.product.ID.String(), Quantity: 1,
	})
	assert.ErrorIs(t, err, commerce.ErrOutOfStock)
	assert.True(t, commerce.IsValidation(err))
}

// ──────────────────────────────────────────────────
// Cart operations
// ──────────────────────────────────────────────────

func TestAddToCartOverwritesLine(t *testing.T) {
	f := newFixture(t)
	buyer := cart.Contact("contact_1")

	f.add(t, buyer, types.KindProduct, f.product.ID, 3)
	c := f.add(t, buyer, types.KindProduct, f.product.ID, 1)
	require.Len(t, c.Items, 1, "re-adding never duplicates a line")
	assert.Equal(t, int64(1), c.Items[0].Quantity, "last write wins")

	c = f.add(t, buyer, types.KindService, f.service.ID, 4)
	require.Len(t, c.Items, 2)
	assert.Equal(t, int64(1), c.ItemByID(c.Items[1].ID).Quantity, "services are not stackable")
	assert.Equal(t, "140.00", c.Total.String())
}

func TestAddToCartValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		in   commerce.AddToCartInput
		want error
	}{
		{
			name: "missing business",
			in:   commerce.AddToCartInput{Buyer: cart.Contact("c"), Kind: types.KindProduct, ItemID: f.product.ID.String()},
			want: commerce.ErrInvalidInput,
		},
		{
			name: "missing identity",
			in:   commerce.AddToCartInput{BusinessID: biz, Kind: types.KindProduct, ItemID: f.product.ID.String()},
			want: commerce.ErrMissingBuyerIdentity,
		},
		{
			name: "back office needs staff",
			in: commerce.AddToCartInput{
				BusinessID: biz, Buyer: cart.Contact("c"), Channel: cart.ChannelBackOffice,
				Kind: types.KindProduct, ItemID: f.product.ID.String(),
			},
			want: commerce.ErrMissingBuyerIdentity,
		},
		{
			name: "unknown item",
			in:   commerce.AddToCartInput{BusinessID: biz, Buyer: cart.Contact("c"), Kind: types.KindProduct, ItemID: id.NewProductID().String()},
			want: commerce.ErrProductNotFound,
		},
		{
			name: "item of another business",
			in:   commerce.AddToCartInput{BusinessID: "biz_2", Buyer: cart.Contact("c"), Kind: types.KindProduct, ItemID: f.product.ID.String()},
			want: commerce.ErrProductNotFound,
		},
		{
			name: "malformed id",
			in:   commerce.AddToCartInput{BusinessID: biz, Buyer: cart.Contact("c"), Kind: types.KindService, ItemID: "nope"},
			want: commerce.ErrInvalidInput,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.eng.AddToCart(f.ctx, tt.in)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, commerce.IsValidation(err))
		})
	}

	_, err := f.eng.AddToCart(f.ctx, commerce.AddToCartInput{
		BusinessID: biz, Buyer: cart.Contact("c"), Kind: "voucher", ItemID: f.product.ID.String(),
	})
	assert.ErrorIs(t, err, commerce.ErrInvalidItemKind)
	assert.False(t, commerce.IsValidation(err), "an unknown kind is a server fault")
}

func TestCatalogRejectsNegativeTerms(t *testing.T) {
	f := newFixture(t)
	product := func(mutate func(*catalog.Product)) *catalog.Product {
		p := &catalog.Product{
			BusinessID: biz, Name: "Conditioner", SellingPrice: types.MustParseMoney("100"),
			IncludeTax: true, TaxRate: decimal.NewFromInt(18), StockQty: 1, IsActive: true,
		}
		mutate(p)
		return p
	}

	tests := []struct {
		field  string
		mutate func(*catalog.Product)
	}{
		{"tax_rate", func(p *catalog.Product) { p.TaxRate = decimal.NewFromInt(-150) }},
		{"discount_value", func(p *catalog.Product) {
			p.DiscountType = types.DiscountFlat
			p.DiscountValue = decimal.NewFromInt(-5)
		}},
		{"max_discount", func(p *catalog.Product) {
			m := types.MustParseMoney("-1")
			p.MaxDiscount = &m
		}},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			err := f.eng.CreateProduct(f.ctx, product(tt.mutate))
			require.ErrorIs(t, err, commerce.ErrInvalidInput)
			var ve commerce.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
		})
	}

	svc := &catalog.Service{
		BusinessID: biz, Name: "Massage", Price: types.MustParseMoney("50"),
		IncludeTax: true, TaxRate: decimal.NewFromInt(-150), IsActive: true,
	}
	assert.ErrorIs(t, f.eng.CreateService(f.ctx, svc), commerce.ErrInvalidInput)

	f.product.IncludeTax = true
	f.product.TaxRate = decimal.NewFromInt(-150)
	assert.ErrorIs(t, f.eng.UpdateProduct(f.ctx, f.product), commerce.ErrInvalidInput)

	// A negative rate that reaches the store directly still prices at or above zero.
	require.NoError(t, f.store.UpdateProduct(f.ctx, f.product))
	c := f.add(t, cart.Contact("contact_1"), types.KindProduct, f.product.ID, 1)
	require.Len(t, c.Items, 1)
	assert.Equal(t, "0.00", c.Items[0].TaxAmount.String())
	assert.Equal(t, "100.00", c.Items[0].FinalPrice.String())
}

func TestBackOfficeCartsAreScopedByStaff(t *testing.T) {
	f := newFixture(t)

	a := f.add(t, cart.Staff("staff_1", "contact_1"), types.KindService, f.service.ID, 1)
	b := f.add(t, cart.Staff("staff_2", "contact_1"), types.KindService, f.service.ID, 1)
	assert.NotEqual(t, a.ID.String(), b.ID.String())

	again := f.add(t, cart.Staff("staff_1", "contact_1"), types.KindProduct, f.product.ID, 1)
	assert.Equal(t, a.ID.String(), again.ID.String())
	assert.Len(t, again.Items, 2)
}

func TestUpdateCartItem(t *testing.T) {
	f := newFixture(t)
	c := f.add(t, cart.Contact("contact_1"), types.KindProduct, f.product.ID, 1)
	lineID := c.Items[0].ID

	status, c, err := f.eng.UpdateCartItem(f.ctx, lineID, 4)
	require.NoError(t, err)
	assert.Equal(t, commerce.ItemUpdated, status)
	assert.Equal(t, int64(4), c.Items[0].Quantity)
	assert.Equal(t, "400.00", c.Total.String())

	_, _, err = f.eng.UpdateCartItem(f.ctx, lineID, 6)
	assert.ErrorIs(t, err, commerce.ErrOutOfStock, "updates never clamp")

	status, c, err = f.eng.UpdateCartItem(f.ctx, lineID, 0)
	require.NoError(t, err)
	assert.Equal(t, commerce.ItemRemoved, status)
	assert.Empty(t, c.Items)

	_, _, err = f.eng.UpdateCartItem(f.ctx, lineID, 1)
	assert.True(t, commerce.IsNotFound(err))
}

func TestUpdateRecomputesFromCatalog(t *testing.T) {
	f := newFixture(t)
	c := f.add(t, cart.Contact("contact_1"), types.KindProduct, f.product.ID, 2)

	f.product.SellingPrice = types.MustParseMoney("80")
	f.product.IncludeTax = true
	f.product.TaxRate = decimal.NewFromInt(10)
	require.NoError(t, f.eng.UpdateProduct(f.ctx, f.product))

	_, c, err := f.eng.UpdateCartItem(f.ctx, c.Items[0].ID, 2)
	require.NoError(t, err)
	assert.Equal(t, "160.00", c.Items[0].ActualPrice.String())
	assert.Equal(t, "16.00", c.Items[0].TaxAmount.String())
	assert.Equal(t, "176.00", c.Items[0].FinalPrice.String())
}

func TestRemovingLineDetachesUnqualifiedCoupon(t *testing.T) {
	f := newFixture(t)
	f.coupon(t, "SAVE50", "50", "200")
	buyer := cart.Contact("contact_1")

	f.add(t, buyer, types.KindProduct, f.product.ID, 2)
	c := f.add(t, buyer, types.KindService, f.service.ID, 1)
	_, err := f.eng.ApplyCoupon(f.ctx, c.ID, "SAVE50")
	require.NoError(t, err)

	var serviceLine id.CartItemID
	for _, it := range c.Items {
		if it.Kind == types.KindService {
			serviceLine = it.ID
		}
	}
	c, err = f.eng.RemoveCartItem(f.ctx, serviceLine)
	require.NoError(t, err)
	assert.True(t, c.HasCoupon(), "200.00 still meets the minimum")
	assert.Equal(t, "150.00", c.Total.String())

	_, c, err = f.eng.UpdateCartItem(f.ctx, c.Items[0].ID, 1)
	require.NoError(t, err)
	assert.False(t, c.HasCoupon())
	assert.False(t, c.CouponRemoved, "a system detach does not suppress auto-apply")
	assert.Equal(t, "100.00", c.Total.String())
}

func TestDeleteAndCancelCart(t *testing.T) {
	f := newFixture(t)
	buyer := cart.Contact("contact_1")
	c := f.add(t, buyer, types.KindService, f.service.ID, 1)

	abandoned, err := f.eng.DeleteCart(f.ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, cart.StatusAbandoned, abandoned.Status)

	_, err = f.eng.GetActiveCart(f.ctx, biz, buyer)
	assert.ErrorIs(t, err, commerce.ErrCartNotFound)

	_, err = f.eng.DeleteCart(f.ctx, c.ID)
	assert.ErrorIs(t, err, commerce.ErrCartNotActive)

	fresh := f.add(t, buyer, types.KindService, f.service.ID, 1)
	assert.NotEqual(t, c.ID.String(), fresh.ID.String())

	cancelled, err := f.eng.CancelCart(f.ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, cart.StatusCancelled, cancelled.Status)
}

// ──────────────────────────────────────────────────
// Coupons
// ──────────────────────────────────────────────────

func TestApplyCouponRejections(t *testing.T) {
	f := newFixture(t)
	past := fixedNow.Add(-48 * time.Hour)
	future := fixedNow.Add(48 * time.Hour)
	f.coupon(t, "OLD", "5", "0", func(c *coupon.Coupon) { c.ValidTo = &past })
	f.coupon(t, "SOON", "5", "0", func(c *coupon.Coupon) { c.ValidFrom = &future })
	f.coupon(t, "OFF", "5", "0", func(c *coupon.Coupon) { c.IsActive = false })
	f.coupon(t, "BIG", "5", "1000")

	c := f.add(t, cart.Contact("contact_1"), types.KindService, f.service.ID, 1)

	tests := map[string]coupon.Reason{
		"UNKNOWN": coupon.ReasonInvalidCode,
		"OLD":     coupon.ReasonExpired,
		"SOON":    coupon.ReasonInvalidCode,
		"OFF":     coupon.ReasonInvalidCode,
		"BIG":     coupon.ReasonNotApplicable,
		"  ":      coupon.ReasonInvalidCode,
	}
	for code, want := range tests {
		t.Run(code, func(t *testing.T) {
			_, err := f.eng.ApplyCoupon(f.ctx, c.ID, code)
			assert.Equal(t, string(want), validationMessage(t, err))
		})
	}

	stored, err := f.eng.GetCart(f.ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, stored.HasCoupon())
}

func TestApplyCouponNoEligibleItems(t *testing.T) {
	f := newFixture(t)
	f.coupon(t, "NOSHAMPOO", "10", "0", func(c *coupon.Coupon) {
		c.ExcludedProductIDs = []string{f.product.ID.String()}
	})
	c := f.add(t, cart.Contact("contact_1"), types.KindProduct, f.product.ID, 1)

	res, err := f.eng.ApplyCoupon(f.ctx, c.ID, "noshampoo")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, coupon.MessageNoEligibleItems, res.Message)
	assert.False(t, res.Cart.HasCoupon())
}

func TestApplyCouponExclusionTagsEligibleLines(t *testing.T) {
	f := newFixture(t)
	pct := f.coupon(t, "TENPCT", "10", "0", func(c *coupon.Coupon) {
		c.DiscountType = types.DiscountPercentage
		c.ExcludedProductIDs = []string{f.product.ID.String()}
	})
	buyer := cart.Contact("contact_1")
	f.add(t, buyer, types.KindProduct, f.product.ID, 1)
	c := f.add(t, buyer, types.KindService, f.service.ID, 1)

	res, err := f.eng.ApplyCoupon(f.ctx, c.ID, "TENPCT")
	require.NoError(t, err)
	assert.Equal(t, "4.00", res.Discount.String())
	for _, it := range res.Cart.Items {
		if it.Kind == types.KindService {
			assert.Equal(t, pct.ID.String(), it.CouponID.String())
		} else {
			assert.True(t, it.CouponID.IsNil())
		}
	}
	assert.Equal(t, "136.00", res.Cart.Total.String())
}

func TestPlatformCoupon(t *testing.T) {
	f := newFixture(t)
	platform := &coupon.Coupon{
		Code: "WELCOME", Name: "Welcome", IsActive: true,
		DiscountType: types.DiscountFlat, DiscountValue: decimal.NewFromInt(5),
	}
	require.NoError(t, f.eng.CreateCoupon(f.ctx, platform))
	assert.Equal(t, coupon.ScopePlatform, platform.Scope)

	c := f.add(t, cart.Contact("contact_1"), types.KindService, f.service.ID, 1)
	res, err := f.eng.ApplyCoupon(f.ctx, c.ID, "welcome")
	require.NoError(t, err)
	assert.True(t, res.Success)
}

type minItemsValidator struct{ min int }

func (minItemsValidator) Name() string { return "min-items" }

func (v minItemsValidator) ValidateCoupon(_ context.Context, _ *coupon.Coupon, c *cart.Cart) error {
	if len(c.Items) < v.min {
		return errors.New("Add another item to use this coupon")
	}
	return nil
}

func TestCouponValidatorPlugin(t *testing.T) {
	f := newFixture(t, commerce.WithPlugin(minItemsValidator{min: 2}))
	f.coupon(t, "PAIR", "5", "0")
	buyer := cart.Contact("contact_1")

	c := f.add(t, buyer, types.KindService, f.service.ID, 1)
	_, err := f.eng.ApplyCoupon(f.ctx, c.ID, "PAIR")
	assert.Equal(t, "Add another item to use this coupon", validationMessage(t, err))

	c = f.add(t, buyer, types.KindProduct, f.product.ID, 1)
	_, err = f.eng.ApplyCoupon(f.ctx, c.ID, "PAIR")
	assert.NoError(t, err)
}

// stallingValidator blocks past the plugin timeout once stall is set, then
// reads the cart it was handed.
type stallingValidator struct {
	stall   atomic.Bool
	stalled chan struct{}
}

func (*stallingValidator) Name() string { return "stalling" }

func (v *stallingValidator) ValidateCoupon(_ context.Context, _ *coupon.Coupon, c *cart.Cart) error {
	if v.stall.Load() {
		defer func() { v.stalled <- struct{}{} }()
		time.Sleep(100 * time.Millisecond)
	}
	for _, it := range c.Items {
		_ = it.CouponID.String()
	}
	_ = c.CouponID.String()
	return nil
}

func TestStalledValidatorKeepsCoupon(t *testing.T) {
	v := &stallingValidator{stalled: make(chan struct{}, 4)}
	f := newFixture(t, commerce.WithPlugin(v), commerce.WithPluginTimeout(20*time.Millisecond))
	f.coupon(t, "SAVE10", "10", "0")
	buyer := cart.Contact("contact_1")

	c := f.add(t, buyer, types.KindService, f.service.ID, 1)
	_, err := f.eng.ApplyCoupon(f.ctx, c.ID, "SAVE10")
	require.NoError(t, err)

	v.stall.Store(true)
	_, err = f.eng.AddToCart(f.ctx, commerce.AddToCartInput{
		BusinessID: biz, Buyer: buyer, Kind: types.KindProduct, ItemID: f.product.ID.String(), Quantity: 1,
	})
	assert.ErrorIs(t, err, coupon.ErrCheckUnavailable)
	assert.False(t, commerce.IsValidation(err), "a stalled validator is not a user error")

	stored, err := f.eng.GetCart(f.ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, stored.HasCoupon())
	assert.False(t, stored.CouponRemoved)
	assert.Len(t, stored.Items, 1)

	select {
	case <-v.stalled:
	case <-time.After(time.Second):
		t.Fatal("validator never finished")
	}
}

// ──────────────────────────────────────────────────
// Checkout
// ──────────────────────────────────────────────────

func TestCheckout(t *testing.T) {
	f := newFixture(t)
	f.coupon(t, "SAVE50", "50", "200")
	buyer := cart.Contact("contact_1")

	f.add(t, buyer, types.KindProduct, f.product.ID, 3)
	c := f.add(t, buyer, types.KindService, f.service.ID, 1)
	_, err := f.eng.ApplyCoupon(f.ctx, c.ID, "SAVE50")
	require.NoError(t, err)

	o, err := f.eng.Checkout(f.ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPlaced, o.Status)
	assert.Equal(t, "SAVE50", o.CouponCode)
	assert.Equal(t, "340.00", o.ItemsTotal.String())
	assert.Equal(t, "50.00", o.CouponTotal.String())
	assert.Equal(t, "290.00", o.Total.String())
	assert.Len(t, o.Items, 2)
	assert.Equal(t, fixedNow, o.PlacedAt)

	p, err := f.eng.GetProduct(f.ctx, f.product.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), p.StockQty)

	stored, err := f.eng.GetCart(f.ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, cart.StatusCompleted, stored.Status)

	got, err := f.eng.GetOrder(f.ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.Total.String(), got.Total.String())

	_, err = f.eng.Checkout(f.ctx, c.ID)
	assert.ErrorIs(t, err, commerce.ErrCartNotActive)
}

func TestCheckoutFailures(t *testing.T) {
	f := newFixture(t)
	buyer := cart.Contact("contact_1")

	empty, err := f.eng.GetOrCreateCart(f.ctx, biz, buyer, cart.ChannelStorefront)
	require.NoError(t, err)
	_, err = f.eng.Checkout(f.ctx, empty.ID)
	assert.ErrorIs(t, err, commerce.ErrEmptyCart)

	c := f.add(t, buyer, types.KindProduct, f.product.ID, 4)
	require.NoError(t, f.store.AdjustProductStock(f.ctx, f.product.ID, -3))

	_, err = f.eng.Checkout(f.ctx, c.ID)
	assert.ErrorIs(t, err, commerce.ErrOutOfStock)

	p, err := f.eng.GetProduct(f.ctx, f.product.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), p.StockQty, "failed checkout leaves stock untouched")

	stored, err := f.eng.GetCart(f.ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, cart.StatusActive, stored.Status)
}

func TestCheckoutRevalidatesCoupon(t *testing.T) {
	f := newFixture(t)
	cp := f.coupon(t, "SAVE10", "10", "0")
	c := f.add(t, cart.Contact("contact_1"), types.KindService, f.service.ID, 1)
	_, err := f.eng.ApplyCoupon(f.ctx, c.ID, "SAVE10")
	require.NoError(t, err)

	cp.IsActive = false
	require.NoError(t, f.eng.UpdateCoupon(f.ctx, cp))

	_, err = f.eng.Checkout(f.ctx, c.ID)
	assert.Equal(t, string(coupon.ReasonInvalidCode), validationMessage(t, err))
}

// ──────────────────────────────────────────────────
// Concurrency
// ──────────────────────────────────────────────────

// conflictingStore fails the first n cart writes with a version conflict.
type conflictingStore struct {
	*memory.Store
	mu        sync.Mutex
	conflicts int
	writes    int
}

func (s *conflictingStore) UpdateCart(ctx context.Context, c *cart.Cart) error {
	s.mu.Lock()
	s.writes++
	if s.conflicts > 0 {
		s.conflicts--
		s.mu.Unlock()
		return commerce.ErrCartConflict
	}
	s.mu.Unlock()
	return s.Store.UpdateCart(ctx, c)
}

func TestMutationRetriesOnConflict(t *testing.T) {
	ctx := context.Background()
	s := &conflictingStore{Store: memory.New()}
	eng := commerce.New(s, commerce.WithMutationRetries(2))

	svc := &catalog.Service{BusinessID: biz, Name: "Haircut", Price: types.MustParseMoney("40"), IsActive: true}
	require.NoError(t, eng.CreateService(ctx, svc))

	in := commerce.AddToCartInput{BusinessID: biz, Buyer: cart.Contact("c1"), Kind: types.KindService, ItemID: svc.ID.String()}

	s.conflicts = 2
	c, err := eng.AddToCart(ctx, in)
	require.NoError(t, err)
	assert.Len(t, c.Items, 1)
	assert.Equal(t, 3, s.writes)

	s.conflicts = 3
	_, err = eng.AddToCart(ctx, in)
	assert.ErrorIs(t, err, commerce.ErrCartConflict)
	assert.True(t, commerce.IsConflict(err))
	assert.True(t, commerce.IsRetryable(err))
}

func TestConcurrentAddsKeepOneCart(t *testing.T) {
	f := newFixture(t, commerce.WithMutationRetries(50))
	buyer := cart.Contact("contact_1")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(qty int64) {
			defer wg.Done()
			_, err := f.eng.AddToCart(f.ctx, commerce.AddToCartInput{
				BusinessID: biz, Buyer: buyer, Kind: types.KindProduct,
				ItemID: f.product.ID.String(), Quantity: qty,
			})
			assert.NoError(t, err)
		}(int64(i%5 + 1))
	}
	wg.Wait()

	carts, err := f.eng.ListCarts(f.ctx, biz, cart.ListOpts{Status: cart.StatusActive})
	require.NoError(t, err)
	require.Len(t, carts, 1)
	assert.Len(t, carts[0].Items, 1)
}

// ──────────────────────────────────────────────────
// Plugins
// ──────────────────────────────────────────────────

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) Name() string { return "recorder" }

func (r *recorder) add(ev string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) OnCartCreated(context.Context, *cart.Cart) error { return r.add("cart.created") }
func (r *recorder) OnCartItemAdded(context.Context, *cart.Cart, *cart.Item) error {
	return r.add("item.added")
}
func (r *recorder) OnCouponApplied(context.Context, *cart.Cart, *coupon.Coupon, types.Money) error {
	return r.add("coupon.applied")
}
func (r *recorder) OnCouponRejected(_ context.Context, _ *cart.Cart, _ string, reason string) error {
	return r.add("coupon.rejected:" + reason)
}
func (r *recorder) OnOrderPlaced(context.Context, *order.Order) error { return r.add("order.placed") }

func TestPluginHooks(t *testing.T) {
	rec := &recorder{}
	f := newFixture(t, commerce.WithPlugin(rec))
	f.coupon(t, "SAVE5", "5", "0")

	c := f.add(t, cart.Contact("contact_1"), types.KindService, f.service.ID, 1)
	_, err := f.eng.ApplyCoupon(f.ctx, c.ID, "NOPE")
	require.Error(t, err)
	_, err = f.eng.ApplyCoupon(f.ctx, c.ID, "SAVE5")
	require.NoError(t, err)
	_, err = f.eng.Checkout(f.ctx, c.ID)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"cart.created",
		"item.added",
		"coupon.rejected:Invalid coupon code",
		"coupon.applied",
		"order.placed",
	}, rec.events)
}
