package commerce

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xraph/commerce/cart"
	"github.com/xraph/commerce/catalog"
	"github.com/xraph/commerce/coupon"
	"github.com/xraph/commerce/id"
	"github.com/xraph/commerce/order"
	"github.com/xraph/commerce/types"
)

// ──────────────────────────────────────────────────
// Catalog administration
// ──────────────────────────────────────────────────

// CreateProduct stores a new product.
func (e *Commerce) CreateProduct(ctx context.Context, p *catalog.Product) error {
	if p.ID.IsNil() {
		p.ID = id.NewProductID()
	}
	if err := validateCatalogItem(catalogTerms{p.BusinessID, p.Name, p.SellingPrice, p.DiscountType, p.DiscountValue, p.MaxDiscount, p.TaxRate}); err != nil {
		return err
	}
	if p.StockQty < 0 {
		return ValidationError{Field: "stock_qty", Message: "must not be negative", Err: ErrInvalidInput}
	}
	p.Stamp(e.clock())
	return e.store.CreateProduct(ctx, p)
}

// GetProduct retrieves a product.
func (e *Commerce) GetProduct(ctx context.Context, productID id.ProductID) (*catalog.Product, error) {
	return e.store.GetProduct(ctx, productID)
}

// UpdateProduct saves changes to a product.
func (e *Commerce) UpdateProduct(ctx context.Context, p *catalog.Product) error {
	if err := validateCatalogItem(catalogTerms{p.BusinessID, p.Name, p.SellingPrice, p.DiscountType, p.DiscountValue, p.MaxDiscount, p.TaxRate}); err != nil {
		return err
	}
	p.Stamp(e.clock())
	return e.store.UpdateProduct(ctx, p)
}

// ListProducts lists a business's products.
func (e *Commerce) ListProducts(ctx context.Context, businessID string, opts catalog.ListOpts) ([]*catalog.Product, error) {
	return e.store.ListProducts(ctx, businessID, opts)
}

// CreateService stores a new service.
func (e *Commerce) CreateService(ctx context.Context, s *catalog.Service) error {
	if s.ID.IsNil() {
		s.ID = id.NewServiceID()
	}
	if err := validateCatalogItem(catalogTerms{s.BusinessID, s.Name, s.Price, s.DiscountType, s.DiscountValue, s.MaxDiscount, s.TaxRate}); err != nil {
		return err
	}
	s.Stamp(e.clock())
	return e.store.CreateService(ctx, s)
}

// GetService retrieves a service.
func (e *Commerce) GetService(ctx context.Context, serviceID id.ServiceID) (*catalog.Service, error) {
	return e.store.GetService(ctx, serviceID)
}

// UpdateService saves changes to a service.
func (e *Commerce) UpdateService(ctx context.Context, s *catalog.Service) error {
	if err := validateCatalogItem(catalogTerms{s.BusinessID, s.Name, s.Price, s.DiscountType, s.DiscountValue, s.MaxDiscount, s.TaxRate}); err != nil {
		return err
	}
	s.Stamp(e.clock())
	return e.store.UpdateService(ctx, s)
}

// ListServices lists a business's services.
func (e *Commerce) ListServices(ctx context.Context, businessID string, opts catalog.ListOpts) ([]*catalog.Service, error) {
	return e.store.ListServices(ctx, businessID, opts)
}

// CreateCombo stores a new combo.
func (e *Commerce) CreateCombo(ctx context.Context, c *catalog.Combo) error {
	if c.ID.IsNil() {
		c.ID = id.NewComboID()
	}
	if err := validateCatalogItem(catalogTerms{c.BusinessID, c.Name, c.ComboPrice, c.DiscountType, c.DiscountValue, c.MaxDiscount, decimal.Zero}); err != nil {
		return err
	}
	c.Stamp(e.clock())
	return e.store.CreateCombo(ctx, c)
}

// GetCombo retrieves a combo.
func (e *Commerce) GetCombo(ctx context.Context, comboID id.ComboID) (*catalog.Combo, error) {
	return e.store.GetCombo(ctx, comboID)
}

// UpdateCombo saves changes to a combo.
func (e *Commerce) UpdateCombo(ctx context.Context, c *catalog.Combo) error {
	if err := validateCatalogItem(catalogTerms{c.BusinessID, c.Name, c.ComboPrice, c.DiscountType, c.DiscountValue, c.MaxDiscount, decimal.Zero}); err != nil {
		return err
	}
	c.Stamp(e.clock())
	return e.store.UpdateCombo(ctx, c)
}

// ListCombos lists a business's combos.
func (e *Commerce) ListCombos(ctx context.Context, businessID string, opts catalog.ListOpts) ([]*catalog.Combo, error) {
	return e.store.ListCombos(ctx, businessID, opts)
}

// catalogTerms is the part of a catalog item checked before it is stored.
type catalogTerms struct {
	businessID    string
	name          string
	price         types.Money
	discountType  types.DiscountType
	discountValue decimal.Decimal
	maxDiscount   *types.Money
	taxRate       decimal.Decimal
}

func validateCatalogItem(t catalogTerms) error {
	if strings.TrimSpace(t.businessID) == "" {
		return ValidationError{Field: "business_id", Message: "is required", Err: ErrInvalidInput}
	}
	if strings.TrimSpace(t.name) == "" {
		return ValidationError{Field: "name", Message: "is required", Err: ErrInvalidInput}
	}
	if t.price.IsNegative() {
		return ValidationError{Field: "price", Message: "must not be negative", Err: ErrInvalidInput}
	}
	if !t.discountType.Valid() {
		return ValidationError{Field: "discount_type", Message: "unknown discount type", Err: ErrInvalidInput}
	}
	if t.discountValue.IsNegative() {
		return ValidationError{Field: "discount_value", Message: "must not be negative", Err: ErrInvalidInput}
	}
	if t.maxDiscount != nil && t.maxDiscount.IsNegative() {
		return ValidationError{Field: "max_discount", Message: "must not be negative", Err: ErrInvalidInput}
	}
	// A negative rate would push the final price below zero.
	if t.taxRate.IsNegative() {
		return ValidationError{Field: "tax_rate", Message: "must not be negative", Err: ErrInvalidInput}
	}
	return nil
}

// ──────────────────────────────────────────────────
// Coupon administration
// ──────────────────────────────────────────────────

// CreateCoupon stores a new coupon. The code is normalized to upper case.
func (e *Commerce) CreateCoupon(ctx context.Context, c *coupon.Coupon) error {
	if c.ID.IsNil() {
		c.ID = id.NewCouponID()
	}
	if err := e.prepareCoupon(c); err != nil {
		return err
	}
	c.Stamp(e.clock())
	return e.store.CreateCoupon(ctx, c)
}

// GetCoupon retrieves a coupon by id.
func (e *Commerce) GetCoupon(ctx context.Context, couponID id.CouponID) (*coupon.Coupon, error) {
	return e.store.GetCoupon(ctx, couponID)
}

// GetCouponByCode retrieves the coupon a buyer at businessID would get for code.
func (e *Commerce) GetCouponByCode(ctx context.Context, businessID, code string) (*coupon.Coupon, error) {
	return e.store.GetCouponByCode(ctx, businessID, coupon.NormalizeCode(code))
}

// UpdateCoupon saves changes to a coupon.
func (e *Commerce) UpdateCoupon(ctx context.Context, c *coupon.Coupon) error {
	if err := e.prepareCoupon(c); err != nil {
		return err
	}
	c.Stamp(e.clock())
	return e.store.UpdateCoupon(ctx, c)
}

// ListCoupons lists business and platform coupons, newest first.
func (e *Commerce) ListCoupons(ctx context.Context, businessID string, opts coupon.ListOpts) ([]*coupon.Coupon, error) {
	return e.store.ListCoupons(ctx, businessID, opts)
}

// DeleteCoupon removes a coupon.
func (e *Commerce) DeleteCoupon(ctx context.Context, couponID id.CouponID) error {
	return e.store.DeleteCoupon(ctx, couponID)
}

func (e *Commerce) prepareCoupon(c *coupon.Coupon) error {
	c.Code = coupon.NormalizeCode(c.Code)
	if c.Code == "" {
		return ValidationError{Field: "code", Message: "is required", Err: ErrInvalidInput}
	}
	switch c.DiscountType {
	case types.DiscountFlat:
	case types.DiscountPercentage:
		if c.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
			return ValidationError{Field: "discount_value", Message: "percentage must not exceed 100", Err: ErrInvalidInput}
		}
	default:
		return ValidationError{Field: "discount_type", Message: "must be flat or percentage", Err: ErrInvalidInput}
	}
	if c.DiscountValue.IsNegative() {
		return ValidationError{Field: "discount_value", Message: "must not be negative", Err: ErrInvalidInput}
	}
	if c.ValidFrom != nil && c.ValidTo != nil && c.ValidTo.Before(*c.ValidFrom) {
		return ValidationError{Field: "valid_to", Message: "must not precede valid_from", Err: ErrInvalidInput}
	}
	c.Scope = coupon.ScopeOf(c.BusinessID)
	return nil
}

// ──────────────────────────────────────────────────
// Read models
// ──────────────────────────────────────────────────

// GetCart retrieves a cart by id regardless of status.
func (e *Commerce) GetCart(ctx context.Context, cartID id.CartID) (*cart.Cart, error) {
	return e.store.GetCart(ctx, cartID)
}

// ListCarts lists a business's carts.
func (e *Commerce) ListCarts(ctx context.Context, businessID string, opts cart.ListOpts) ([]*cart.Cart, error) {
	return e.store.ListCarts(ctx, businessID, opts)
}

// GetOrder retrieves an order.
func (e *Commerce) GetOrder(ctx context.Context, orderID id.OrderID) (*order.Order, error) {
	return e.store.GetOrder(ctx, orderID)
}

// ListOrders lists a business's orders, newest first.
func (e *Commerce) ListOrders(ctx context.Context, businessID string, opts order.ListOpts) ([]*order.Order, error) {
	return e.store.ListOrders(ctx, businessID, opts)
}
