package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/commerce"
	"github.com/xraph/commerce/api"
	"github.com/xraph/commerce/cart"
	"github.com/xraph/commerce/catalog"
	"github.com/xraph/commerce/coupon"
	"github.com/xraph/commerce/store/memory"
	"github.com/xraph/commerce/types"
)

const business = "biz_1"

type fixture struct {
	srv     http.Handler
	product *catalog.Product
	service *catalog.Service
}

func setup(t *testing.T, opts ...commerce.Option) *fixture {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	opts = append([]commerce.Option{commerce.WithClock(func() time.Time { return now })}, opts...)
	eng := commerce.New(memory.New(), opts...)

	p := &catalog.Product{
		BusinessID:   business,
		Name:         "Shampoo",
		SellingPrice: types.MustParseMoney("100"),
		StockQty:     5,
		IsActive:     true,
	}
	require.NoError(t, eng.CreateProduct(ctx, p))

	s := &catalog.Service{
		BusinessID: business,
		Name:       "Haircut",
		Price:      types.MustParseMoney("40"),
		IsActive:   true,
	}
	require.NoError(t, eng.CreateService(ctx, s))

	require.NoError(t, eng.CreateCoupon(ctx, &coupon.Coupon{
		BusinessID:    business,
		Code:          "save50",
		DiscountType:  types.DiscountFlat,
		DiscountValue: decimal.NewFromInt(50),
		MinCartValue:  types.MustParseMoney("200"),
		IsActive:      true,
	}))

	h := api.NewHandler(eng, api.WithAnonymousIDGenerator(func() string { return "anon-fixed" }))
	return &fixture{srv: h.Router(), product: p, service: s}
}

func (f *fixture) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)
	return rec
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	m := decodeMap(t, rec)
	e, ok := m["error"].(map[string]any)
	require.True(t, ok, "expected error envelope, got %s", rec.Body.String())
	return e
}

func TestCartCouponFlow(t *testing.T) {
	f := setup(t)

	rec := f.do(t, http.MethodPost, "/businesses/biz_1/cart/items", map[string]any{
		"kind":       "product",
		"item_id":    f.product.ID.String(),
		"quantity":   3,
		"contact_id": "c1",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	added := decodeMap(t, rec)
	cartID, _ := added["cart_id"].(string)
	require.NotEmpty(t, cartID)
	assert.Empty(t, rec.Header().Get(api.HeaderAnonymousID))

	cartBody, _ := added["cart"].(map[string]any)
	assert.Equal(t, "300.00", cartBody["total"])

	rec = f.do(t, http.MethodPost, "/carts/"+cartID+"/coupon", map[string]string{"code": "SAVE50"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	applied := decodeMap(t, rec)
	assert.Equal(t, true, applied["success"])
	assert.Equal(t, "50.00", applied["discount"])

	rec = f.do(t, http.MethodDelete, "/carts/"+cartID+"/coupon", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeMap(t, rec)["success"])

	rec = f.do(t, http.MethodGet, "/businesses/biz_1/cart?contact_id=c1", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeMap(t, rec)
	assert.Equal(t, cartID, got["id"])
	assert.Equal(t, true, got["coupon_removed"])
	assert.Equal(t, "", got["coupon_id"])
	assert.Equal(t, "0.00", got["coupon_discount"])

	rec = f.do(t, http.MethodDelete, "/carts/"+cartID+"/coupon", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No coupon to remove", errorOf(t, rec)["message"])
}

func TestAddToCartMintsAnonymousID(t *testing.T) {
	f := setup(t)

	rec := f.do(t, http.MethodPost, "/businesses/biz_1/cart/items", map[string]any{
		"kind":    "service",
		"item_id": f.service.ID.String(),
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "anon-fixed", rec.Header().Get(api.HeaderAnonymousID))
	assert.Equal(t, "anon-fixed", decodeMap(t, rec)["anonymous_id"])

	rec = f.do(t, http.MethodGet, "/businesses/biz_1/cart", nil, map[string]string{
		api.HeaderAnonymousID: "anon-fixed",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	items, _ := decodeMap(t, rec)["items"].([]any)
	assert.Len(t, items, 1)
}

func TestUpdateAndRemoveItem(t *testing.T) {
	f := setup(t)

	rec := f.do(t, http.MethodPost, "/businesses/biz_1/cart/items", map[string]any{
		"kind":       "product",
		"item_id":    f.product.ID.String(),
		"quantity":   1,
		"contact_id": "c1",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cartBody, _ := decodeMap(t, rec)["cart"].(map[string]any)
	items, _ := cartBody["items"].([]any)
	require.Len(t, items, 1)
	lineID, _ := items[0].(map[string]any)["id"].(string)

	rec = f.do(t, http.MethodPatch, "/cart-items/"+lineID, map[string]int{"quantity": 2}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "updated", decodeMap(t, rec)["status"])

	rec = f.do(t, http.MethodPatch, "/cart-items/"+lineID, map[string]int{"quantity": 9}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "out of stock", errorOf(t, rec)["message"])

	rec = f.do(t, http.MethodPatch, "/cart-items/"+lineID, map[string]int{"quantity": 0}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "removed", decodeMap(t, rec)["status"])

	rec = f.do(t, http.MethodDelete, "/cart-items/"+lineID, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", errorOf(t, rec)["type"])
}

func TestCheckoutAndGetOrder(t *testing.T) {
	f := setup(t)

	rec := f.do(t, http.MethodPost, "/businesses/biz_1/cart/items", map[string]any{
		"kind":       "product",
		"item_id":    f.product.ID.String(),
		"quantity":   2,
		"contact_id": "c1",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cartID, _ := decodeMap(t, rec)["cart_id"].(string)

	rec = f.do(t, http.MethodPost, "/carts/"+cartID+"/checkout", nil, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	o := decodeMap(t, rec)
	assert.Equal(t, "200.00", o["total"])
	orderID, _ := o["id"].(string)

	rec = f.do(t, http.MethodGet, "/orders/"+orderID, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, cartID, decodeMap(t, rec)["cart_id"])

	rec = f.do(t, http.MethodPost, "/carts/"+cartID+"/checkout", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	f := setup(t)

	tests := []struct {
		name    string
		method  string
		path    string
		body    any
		headers map[string]string
		status  int
		errType string
	}{
		{
			name:    "missing identity",
			method:  http.MethodGet,
			path:    "/businesses/biz_1/cart",
			status:  http.StatusBadRequest,
			errType: "invalid_request",
		},
		{
			name:    "no active cart",
			method:  http.MethodGet,
			path:    "/businesses/biz_1/cart?contact_id=nobody",
			status:  http.StatusNotFound,
			errType: "not_found",
		},
		{
			name:    "back office without staff user",
			method:  http.MethodPost,
			path:    "/businesses/biz_1/cart/items",
			body:    map[string]any{"kind": "service", "item_id": f.service.ID.String(), "channel": "back_office"},
			status:  http.StatusBadRequest,
			errType: "invalid_request",
		},
		{
			name:    "invalid item kind is a server fault",
			method:  http.MethodPost,
			path:    "/businesses/biz_1/cart/items",
			body:    map[string]any{"kind": "gift_card", "item_id": "x", "contact_id": "c1"},
			status:  http.StatusInternalServerError,
			errType: "server_error",
		},
		{
			name:    "malformed cart id",
			method:  http.MethodPost,
			path:    "/carts/not-an-id/coupon",
			body:    map[string]string{"code": "SAVE50"},
			status:  http.StatusBadRequest,
			errType: "invalid_request",
		},
		{
			name:    "item of another business",
			method:  http.MethodPost,
			path:    "/businesses/biz_2/cart/items",
			body:    map[string]any{"kind": "product", "item_id": f.product.ID.String(), "contact_id": "c1"},
			status:  http.StatusNotFound,
			errType: "not_found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, tt.method, tt.path, tt.body, tt.headers)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			e := errorOf(t, rec)
			assert.Equal(t, tt.errType, e["type"])
			assert.Equal(t, float64(tt.status), e["code"])
		})
	}
}

type stalledValidator struct{ release chan struct{} }

func (*stalledValidator) Name() string { return "stalled" }

func (v *stalledValidator) ValidateCoupon(context.Context, *coupon.Coupon, *cart.Cart) error {
	<-v.release
	return nil
}

func TestStalledValidatorIsUnavailable(t *testing.T) {
	v := &stalledValidator{release: make(chan struct{})}
	defer close(v.release)
	f := setup(t, commerce.WithPlugin(v), commerce.WithPluginTimeout(10*time.Millisecond))

	rec := f.do(t, http.MethodPost, "/businesses/biz_1/cart/items", map[string]any{
		"kind": "product", "item_id": f.product.ID.String(), "quantity": 3, "contact_id": "c1",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cartID, _ := decodeMap(t, rec)["cart_id"].(string)

	rec = f.do(t, http.MethodPost, "/carts/"+cartID+"/coupon", map[string]string{"code": "SAVE50"}, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code, rec.Body.String())
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	e := errorOf(t, rec)
	assert.Equal(t, "unavailable", e["type"])
	assert.Equal(t, "service temporarily unavailable", e["message"])
}

func TestApplyUnknownCoupon(t *testing.T) {
	f := setup(t)

	rec := f.do(t, http.MethodPost, "/businesses/biz_1/cart/items", map[string]any{
		"kind":       "product",
		"item_id":    f.product.ID.String(),
		"contact_id": "c1",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cartID, _ := decodeMap(t, rec)["cart_id"].(string)

	rec = f.do(t, http.MethodPost, "/carts/"+cartID+"/coupon", map[string]string{"code": "NOPE"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid coupon code", errorOf(t, rec)["message"])

	// Cart value 100 is below the 200 minimum.
	rec = f.do(t, http.MethodPost, "/carts/"+cartID+"/coupon", map[string]string{"code": "save50"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Coupon not applicable", errorOf(t, rec)["message"])
}

func TestStaffDeleteCancelsCart(t *testing.T) {
	f := setup(t)
	staff := map[string]string{api.HeaderStaffUserID: "staff_1"}

	rec := f.do(t, http.MethodPost, "/businesses/biz_1/cart/items", map[string]any{
		"kind":       "service",
		"item_id":    f.service.ID.String(),
		"contact_id": "c1",
	}, staff)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeMap(t, rec)
	cartID, _ := body["cart_id"].(string)
	cartBody, _ := body["cart"].(map[string]any)
	assert.Equal(t, "back_office", cartBody["channel"])

	rec = f.do(t, http.MethodDelete, "/carts/"+cartID, nil, staff)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/businesses/biz_1/cart?contact_id=c1", nil, staff)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
