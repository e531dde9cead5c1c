package observability_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/commerce/cart"
	"github.com/xraph/commerce/coupon"
	"github.com/xraph/commerce/id"
	"github.com/xraph/commerce/observability"
	"github.com/xraph/commerce/order"
	"github.com/xraph/commerce/types"
)

type counter struct{ n float64 }

func (c *counter) Inc()          { c.n++ }
func (c *counter) Add(v float64) { c.n += v }

type histogram struct{ values []float64 }

func (h *histogram) Observe(v float64) { h.values = append(h.values, v) }

type factory struct {
	counters   map[string]*counter
	histograms map[string]*histogram
}

func newFactory() *factory {
	return &factory{
		counters:   make(map[string]*counter),
		histograms: make(map[string]*histogram),
	}
}

func (f *factory) Counter(name string) observability.Counter {
	c := &counter{}
	f.counters[name] = c
	return c
}

func (f *factory) Histogram(name string) observability.Histogram {
	h := &histogram{}
	f.histograms[name] = h
	return h
}

func TestMetricsExtension(t *testing.T) {
	ctx := context.Background()
	f := newFactory()
	m := observability.NewMetricsExtension(f)

	c := &cart.Cart{ID: id.NewCartID(), BusinessID: "biz_1", Buyer: cart.Contact("c1"), Status: cart.StatusActive}
	line := &cart.Item{ID: id.NewCartItemID(), Kind: types.KindProduct, ItemID: id.NewProductID(), Quantity: 3}
	c.Items = []cart.Item{*line}

	require.NoError(t, m.OnCartCreated(ctx, c))
	require.NoError(t, m.OnCartItemAdded(ctx, c, line))
	require.NoError(t, m.OnCartItemUpdated(ctx, c, line))
	require.NoError(t, m.OnCouponApplied(ctx, c, &coupon.Coupon{ID: id.NewCouponID()}, types.MustParseMoney("12.50")))
	require.NoError(t, m.OnCouponRejected(ctx, c, "BAD", "Invalid coupon code"))
	require.NoError(t, m.OnCartItemRemoved(ctx, c, line.ID))
	require.NoError(t, m.OnCartAbandoned(ctx, c))

	o := order.FromCart(c, "", time.Now())
	require.NoError(t, m.OnOrderPlaced(ctx, o))

	assert.Equal(t, float64(1), f.counters["commerce.cart.created"].n)
	assert.Equal(t, float64(1), f.counters["commerce.cart.item.added"].n)
	assert.Equal(t, float64(1), f.counters["commerce.cart.item.updated"].n)
	assert.Equal(t, float64(1), f.counters["commerce.cart.item.removed"].n)
	assert.Equal(t, float64(1), f.counters["commerce.cart.abandoned"].n)
	assert.Equal(t, float64(0), f.counters["commerce.cart.cancelled"].n)
	assert.Equal(t, float64(1), f.counters["commerce.coupon.applied"].n)
	assert.Equal(t, float64(1), f.counters["commerce.coupon.rejected"].n)
	assert.Equal(t, float64(1), f.counters["commerce.order.placed"].n)

	assert.Equal(t, []float64{3}, f.histograms["commerce.cart.item.quantity"].values)
	assert.Equal(t, []float64{12.5}, f.histograms["commerce.coupon.discount"].values)
	assert.Equal(t, []float64{1}, f.histograms["commerce.order.lines"].values)
	assert.Equal(t, "observability-metrics", m.Name())
}
