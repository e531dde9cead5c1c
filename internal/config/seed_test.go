package config

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/commerce"
	"github.com/xraph/commerce/catalog"
	"github.com/xraph/commerce/coupon"
	"github.com/xraph/commerce/store/memory"
	"github.com/xraph/commerce/types"
)

const seedYAML = `
businesses:
  - id: biz-1
    products:
      - key: shampoo
        name: Shampoo
        sku: SH-1
        price: "100"
        stock: 5
        discount_type: percentage
        discount_value: "10"
        include_tax: true
        tax_rate: "18"
    services:
      - key: haircut
        name: Haircut
        price: "40.50"
        duration_minutes: 30
    combos:
      - key: spa-day
        name: Spa Day
        price: "120"
        components:
          - kind: product
            item: shampoo
            quantity: 2
          - kind: service
            item: haircut
    coupons:
      - code: save50
        name: Save 50
        discount_type: flat
        discount_value: "50"
        min_cart_value: "200"
        usage_limit: 1
        valid_to: "2026-12-31"
        excluded_products: [shampoo]
coupons:
  - code: welcome10
    name: Welcome
    discount_type: percentage
    discount_value: "10"
    max_discount: "25"
    auto_apply: true
`

func TestSeedApply(t *testing.T) {
	path := writeFile(t, "seed.yaml", seedYAML)
	seed, err := LoadSeed(path)
	require.NoError(t, err)

	ctx := context.Background()
	eng := commerce.New(memory.New())

	stats, err := seed.Apply(ctx, eng)
	require.NoError(t, err)
	assert.Equal(t, SeedStats{Products: 1, Services: 1, Combos: 1, Coupons: 2}, stats)

	products, err := eng.ListProducts(ctx, "biz-1", catalog.ListOpts{})
	require.NoError(t, err)
	require.Len(t, products, 1)
	p := products[0]
	assert.Equal(t, "100.00", p.SellingPrice.String())
	assert.Equal(t, types.DiscountPercentage, p.DiscountType)
	assert.True(t, p.DiscountValue.Equal(decimal.NewFromInt(10)))
	assert.True(t, p.TaxRate.Equal(decimal.NewFromInt(18)))
	assert.True(t, p.IncludeTax)
	assert.True(t, p.IsActive)
	assert.Equal(t, int64(5), p.StockQty)

	services, err := eng.ListServices(ctx, "biz-1", catalog.ListOpts{})
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, "40.50", services[0].Price.String())

	combos, err := eng.ListCombos(ctx, "biz-1", catalog.ListOpts{})
	require.NoError(t, err)
	require.Len(t, combos, 1)
	require.Len(t, combos[0].Components, 2)
	assert.Equal(t, p.ID.String(), combos[0].Components[0].ItemID)
	assert.Equal(t, int64(2), combos[0].Components[0].Quantity)
	assert.Equal(t, services[0].ID.String(), combos[0].Components[1].ItemID)
	assert.Equal(t, int64(1), combos[0].Components[1].Quantity)

	save, err := eng.GetCouponByCode(ctx, "biz-1", "SAVE50")
	require.NoError(t, err)
	assert.Equal(t, coupon.ScopeBusiness, save.Scope)
	assert.Equal(t, "200.00", save.MinCartValue.String())
	assert.Equal(t, []string{p.ID.String()}, save.ExcludedProductIDs)
	require.NotNil(t, save.UsageLimit)
	assert.Equal(t, int64(1), *save.UsageLimit)
	require.NotNil(t, save.ValidTo)
	assert.Equal(t, 2026, save.ValidTo.Year())

	welcome, err := eng.GetCouponByCode(ctx, "biz-1", "welcome10")
	require.NoError(t, err)
	assert.Equal(t, coupon.ScopePlatform, welcome.Scope)
	assert.True(t, welcome.AutoApply)
	require.NotNil(t, welcome.MaxDiscount)
	assert.Equal(t, "25.00", welcome.MaxDiscount.String())
}

func TestSeedApplyErrors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		seed Seed
		want string
	}{
		{
			name: "business without id",
			seed: Seed{Businesses: []BusinessSeed{{}}},
			want: "business without id",
		},
		{
			name: "bad price",
			seed: Seed{Businesses: []BusinessSeed{{
				ID:       "biz-1",
				Products: []ProductSeed{{Name: "Broken", Price: "ten"}},
			}}},
			want: `seed product "Broken": price`,
		},
		{
			name: "bad date",
			seed: Seed{Coupons: []CouponSeed{{
				Code: "X", DiscountType: "flat", DiscountValue: "5", ValidFrom: "tomorrow",
			}}},
			want: "valid_from",
		},
		{
			name: "rejected by engine",
			seed: Seed{Coupons: []CouponSeed{{Code: "X", DiscountType: "bogus"}}},
			want: `seed coupon "X"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.seed.Apply(ctx, commerce.New(memory.New()))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestLoadSeedErrors(t *testing.T) {
	_, err := LoadSeed(writeFile(t, "bad.yaml", "businesses: {"))
	assert.ErrorContains(t, err, "parsing seed")
}
