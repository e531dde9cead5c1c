package catalog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/commerce"
	"github.com/xraph/commerce/catalog"
	"github.com/xraph/commerce/id"
	"github.com/xraph/commerce/pricing"
	"github.com/xraph/commerce/store/memory"
	"github.com/xraph/commerce/types"
)

func seedCatalog(t *testing.T) (*catalog.Resolver, *catalog.Product, *catalog.Service, *catalog.Combo) {
	t.Helper()
	ctx := context.Background()
	s := memory.New()

	p := &catalog.Product{
		ID: id.NewProductID(), BusinessID: "biz_1", Name: "Shampoo",
		SellingPrice: types.MustParseMoney("100"), IncludeTax: true,
		TaxRate: decimal.NewFromInt(10), StockQty: 2, IsActive: true,
	}
	svc := &catalog.Service{
		ID: id.NewServiceID(), BusinessID: "biz_1", Name: "Haircut",
		Price: types.MustParseMoney("40"), IncludeTax: true,
		TaxRate: decimal.NewFromInt(5), IsActive: true,
	}
	combo := &catalog.Combo{
		ID: id.NewComboID(), BusinessID: "biz_1", Name: "Spa day",
		ComboPrice: types.MustParseMoney("120"), IsActive: true,
	}
	require.NoError(t, s.CreateProduct(ctx, p))
	require.NoError(t, s.CreateService(ctx, svc))
	require.NoError(t, s.CreateCombo(ctx, combo))
	return catalog.NewResolver(s), p, svc, combo
}

func TestResolveProduct(t *testing.T) {
	r, p, _, _ := seedCatalog(t)

	v, err := r.Resolve(context.Background(), types.KindProduct, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "100.00", v.UnitPrice.String())
	assert.Equal(t, "biz_1", v.BusinessID)
	require.NotNil(t, v.StockQty)
	assert.Equal(t, int64(2), *v.StockQty)

	qty, err := v.ClampQuantity(5)
	require.NoError(t, err)
	assert.Equal(t, int64(2), qty, "clamped to stock")

	qty, err = v.ClampQuantity(0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), qty)

	assert.ErrorIs(t, v.CheckStock(3), catalog.ErrOutOfStock)
	assert.NoError(t, v.CheckStock(2))

	b, err := v.Price(2)
	require.NoError(t, err)
	assert.Equal(t, "200.00", b.Actual.String())
	assert.Equal(t, "20.00", b.Tax.String())
	assert.Equal(t, "220.00", b.Final.String())
}

func TestResolveOutOfStock(t *testing.T) {
	r, p, _, _ := seedCatalog(t)
	zero := int64(0)

	v, err := r.Resolve(context.Background(), types.KindProduct, p.ID)
	require.NoError(t, err)
	v.StockQty = &zero

	_, err = v.ClampQuantity(1)
	assert.ErrorIs(t, err, catalog.ErrOutOfStock)
}

func TestResolveServiceAndCombo(t *testing.T) {
	r, _, svc, combo := seedCatalog(t)
	ctx := context.Background()

	v, err := r.Resolve(ctx, types.KindService, svc.ID)
	require.NoError(t, err)
	assert.Nil(t, v.StockQty)
	qty, err := v.ClampQuantity(4)
	require.NoError(t, err)
	assert.Equal(t, int64(1), qty, "services are not stackable")

	v, err = r.Resolve(ctx, types.KindCombo, combo.ID)
	require.NoError(t, err)
	assert.Equal(t, "120.00", v.UnitPrice.String())
	assert.False(t, v.IncludeTax)
	qty, err = v.ClampQuantity(3)
	require.NoError(t, err)
	assert.Equal(t, int64(1), qty)
}

func TestResolveErrors(t *testing.T) {
	r, p, _, _ := seedCatalog(t)
	ctx := context.Background()

	_, err := r.Resolve(ctx, types.KindProduct, id.NewProductID())
	assert.True(t, commerce.IsNotFound(err))

	_, err = r.Resolve(ctx, types.ItemKind("voucher"), p.ID)
	assert.True(t, errors.Is(err, pricing.ErrInvalidItemKind))

	_, err = catalog.ParseItemID(types.KindService, p.ID.String())
	assert.Error(t, err, "product id is not a service id")

	got, err := catalog.ParseItemID(types.KindProduct, p.ID.String())
	require.NoError(t, err)
	assert.Equal(t, p.ID.String(), got.String())
}

func TestResolveInactive(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	p := &catalog.Product{
		ID: id.NewProductID(), BusinessID: "biz_1", Name: "Retired",
		SellingPrice: types.MustParseMoney("10"), StockQty: 4,
	}
	require.NoError(t, s.CreateProduct(ctx, p))

	_, err := catalog.NewResolver(s).Resolve(ctx, types.KindProduct, p.ID)
	assert.ErrorIs(t, err, catalog.ErrItemUnavailable)
}
