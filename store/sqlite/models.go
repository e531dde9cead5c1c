package sqlite

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xraph/grove"

	"github.com/xraph/commerce/cart"
	"github.com/xraph/commerce/catalog"
	"github.com/xraph/commerce/coupon"
	"github.com/xraph/commerce/id"
	"github.com/xraph/commerce/order"
	"github.com/xraph/commerce/types"
)

// ==================== Catalog models ====================

type productModel struct {
	grove.BaseModel `grove:"table:commerce_products"`

	ID            string    `grove:"id,pk"`
	BusinessID    string    `grove:"business_id"`
	Name          string    `grove:"name"`
	SKU           string    `grove:"sku"`
	SellingPrice  string    `grove:"selling_price"`
	DiscountType  string    `grove:"discount_type"`
	DiscountValue string    `grove:"discount_value"`
	MaxDiscount   *string   `grove:"max_discount"`
	IncludeTax    bool      `grove:"include_tax"`
	TaxRate       string    `grove:"tax_rate"`
	StockQty      int64     `grove:"stock_qty"`
	IsActive      bool      `grove:"is_active"`
	Metadata      string    `grove:"metadata"`
	CreatedAt     time.Time `grove:"created_at"`
	UpdatedAt     time.Time `grove:"updated_at"`
}

func toProductModel(p *catalog.Product) *productModel {
	return &productModel{
		ID:            p.ID.String(),
		BusinessID:    p.BusinessID,
		Name:          p.Name,
		SKU:           p.SKU,
		SellingPrice:  p.SellingPrice.String(),
		DiscountType:  string(p.DiscountType),
		DiscountValue: p.DiscountValue.String(),
		MaxDiscount:   moneyPtrString(p.MaxDiscount),
		IncludeTax:    p.IncludeTax,
		TaxRate:       p.TaxRate.String(),
		StockQty:      p.StockQty,
		IsActive:      p.IsActive,
		Metadata:      encodeJSON(p.Metadata),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func fromProductModel(m *productModel) (*catalog.Product, error) {
	productID, err := id.ParseProductID(m.ID)
	if err != nil {
		return nil, err
	}
	var d decoder
	p := &catalog.Product{
		Entity:        types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:            productID,
		BusinessID:    m.BusinessID,
		Name:          m.Name,
		SKU:           m.SKU,
		SellingPrice:  d.money(m.SellingPrice),
		DiscountType:  types.DiscountType(m.DiscountType),
		DiscountValue: d.decimal(m.DiscountValue),
		MaxDiscount:   d.moneyPtr(m.MaxDiscount),
		IncludeTax:    m.IncludeTax,
		TaxRate:       d.decimal(m.TaxRate),
		StockQty:      m.StockQty,
		IsActive:      m.IsActive,
		Metadata:      decodeMetadata(m.Metadata),
	}
	return p, d.err
}

type serviceModel struct {
	grove.BaseModel `grove:"table:commerce_services"`

	ID              string    `grove:"id,pk"`
	BusinessID      string    `grove:"business_id"`
	Name            string    `grove:"name"`
	Price           string    `grove:"price"`
	DiscountType    string    `grove:"discount_type"`
	DiscountValue   string    `grove:"discount_value"`
	MaxDiscount     *string   `grove:"max_discount"`
	IncludeTax      bool      `grove:"include_tax"`
	TaxRate         string    `grove:"tax_rate"`
	DurationMinutes int       `grove:"duration_minutes"`
	IsActive        bool      `grove:"is_active"`
	Metadata        string    `grove:"metadata"`
	CreatedAt       time.Time `grove:"created_at"`
	UpdatedAt       time.Time `grove:"updated_at"`
}

func toServiceModel(s *catalog.Service) *serviceModel {
	return &serviceModel{
		ID:              s.ID.String(),
		BusinessID:      s.BusinessID,
		Name:            s.Name,
		Price:           s.Price.String(),
		DiscountType:    string(s.DiscountType),
		DiscountValue:   s.DiscountValue.String(),
		MaxDiscount:     moneyPtrString(s.MaxDiscount),
		IncludeTax:      s.IncludeTax,
		TaxRate:         s.TaxRate.String(),
		DurationMinutes: s.DurationMinutes,
		IsActive:        s.IsActive,
		Metadata:        encodeJSON(s.Metadata),
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

func fromServiceModel(m *serviceModel) (*catalog.Service, error) {
	serviceID, err := id.ParseServiceID(m.ID)
	if err != nil {
		return nil, err
	}
	var d decoder
	s := &catalog.Service{
		Entity:          types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:              serviceID,
		BusinessID:      m.BusinessID,
		Name:            m.Name,
		Price:           d.money(m.Price),
		DiscountType:    types.DiscountType(m.DiscountType),
		DiscountValue:   d.decimal(m.DiscountValue),
		MaxDiscount:     d.moneyPtr(m.MaxDiscount),
		IncludeTax:      m.IncludeTax,
		TaxRate:         d.decimal(m.TaxRate),
		DurationMinutes: m.DurationMinutes,
		IsActive:        m.IsActive,
		Metadata:        decodeMetadata(m.Metadata),
	}
	return s, d.err
}

type comboModel struct {
	grove.BaseModel `grove:"table:commerce_combos"`

	ID            string          `grove:"id,pk"`
	BusinessID    string          `grove:"business_id"`
	Name          string          `grove:"name"`
	ComboPrice    string          `grove:"combo_price"`
	DiscountType  string          `grove:"discount_type"`
	DiscountValue string          `grove:"discount_value"`
	MaxDiscount   *string         `grove:"max_discount"`
	Components    json.RawMessage `grove:"components"`
	IsActive      bool            `grove:"is_active"`
	Metadata      string          `grove:"metadata"`
	CreatedAt     time.Time       `grove:"created_at"`
	UpdatedAt     time.Time       `grove:"updated_at"`
}

func toComboModel(c *catalog.Combo) *comboModel {
	components, _ := json.Marshal(c.Components) //nolint:errcheck // best-effort

	return &comboModel{
		ID:            c.ID.String(),
		BusinessID:    c.BusinessID,
		Name:          c.Name,
		ComboPrice:    c.ComboPrice.String(),
		DiscountType:  string(c.DiscountType),
		DiscountValue: c.DiscountValue.String(),
		MaxDiscount:   moneyPtrString(c.MaxDiscount),
		Components:    components,
		IsActive:      c.IsActive,
		Metadata:      encodeJSON(c.Metadata),
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func fromComboModel(m *comboModel) (*catalog.Combo, error) {
	comboID, err := id.ParseComboID(m.ID)
	if err != nil {
		return nil, err
	}

	var components []catalog.Component
	if len(m.Components) > 0 {
		_ = json.Unmarshal(m.Components, &components) //nolint:errcheck // best-effort
	}

	var d decoder
	c := &catalog.Combo{
		Entity:        types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:            comboID,
		BusinessID:    m.BusinessID,
		Name:          m.Name,
		ComboPrice:    d.money(m.ComboPrice),
		DiscountType:  types.DiscountType(m.DiscountType),
		DiscountValue: d.decimal(m.DiscountValue),
		MaxDiscount:   d.moneyPtr(m.MaxDiscount),
		Components:    components,
		IsActive:      m.IsActive,
		Metadata:      decodeMetadata(m.Metadata),
	}
	return c, d.err
}

// ==================== Coupon models ====================

type couponModel struct {
	grove.BaseModel `grove:"table:commerce_coupons"`

	ID                 string     `grove:"id,pk"`
	BusinessID         string     `grove:"business_id"`
	Scope              string     `grove:"scope"`
	Code               string     `grove:"code"`
	Name               string     `grove:"name"`
	DiscountType       string     `grove:"discount_type"`
	DiscountValue      string     `grove:"discount_value"`
	MaxDiscount        *string    `grove:"max_discount"`
	MinCartValue       string     `grove:"min_cart_value"`
	AvailableLimit     *int64     `grove:"available_limit"`
	UsageLimit         *int64     `grove:"usage_limit"`
	ValidFrom          *time.Time `grove:"valid_from"`
	ValidTo            *time.Time `grove:"valid_to"`
	IsActive           bool       `grove:"is_active"`
	AutoApply          bool       `grove:"auto_apply"`
	ExcludedProductIDs string     `grove:"excluded_product_ids"`
	ExcludedServiceIDs string     `grove:"excluded_service_ids"`
	Metadata           string     `grove:"metadata"`
	CreatedAt          time.Time  `grove:"created_at"`
	UpdatedAt          time.Time  `grove:"updated_at"`
}

func toCouponModel(c *coupon.Coupon) *couponModel {
	return &couponModel{
		ID:                 c.ID.String(),
		BusinessID:         c.BusinessID,
		Scope:              string(c.Scope),
		Code:               c.Code,
		Name:               c.Name,
		DiscountType:       string(c.DiscountType),
		DiscountValue:      c.DiscountValue.String(),
		MaxDiscount:        moneyPtrString(c.MaxDiscount),
		MinCartValue:       c.MinCartValue.String(),
		AvailableLimit:     c.AvailableLimit,
		UsageLimit:         c.UsageLimit,
		ValidFrom:          c.ValidFrom,
		ValidTo:            c.ValidTo,
		IsActive:           c.IsActive,
		AutoApply:          c.AutoApply,
		ExcludedProductIDs: encodeJSON(c.ExcludedProductIDs),
		ExcludedServiceIDs: encodeJSON(c.ExcludedServiceIDs),
		Metadata:           encodeJSON(c.Metadata),
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}

func fromCouponModel(m *couponModel) (*coupon.Coupon, error) {
	couponID, err := id.ParseCouponID(m.ID)
	if err != nil {
		return nil, err
	}
	var d decoder
	c := &coupon.Coupon{
		Entity:             types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:                 couponID,
		BusinessID:         m.BusinessID,
		Scope:              coupon.Scope(m.Scope),
		Code:               m.Code,
		Name:               m.Name,
		DiscountType:       types.DiscountType(m.DiscountType),
		DiscountValue:      d.decimal(m.DiscountValue),
		MaxDiscount:        d.moneyPtr(m.MaxDiscount),
		MinCartValue:       d.money(m.MinCartValue),
		AvailableLimit:     m.AvailableLimit,
		UsageLimit:         m.UsageLimit,
		ValidFrom:          m.ValidFrom,
		ValidTo:            m.ValidTo,
		IsActive:           m.IsActive,
		AutoApply:          m.AutoApply,
		ExcludedProductIDs: decodeIDs(m.ExcludedProductIDs),
		ExcludedServiceIDs: decodeIDs(m.ExcludedServiceIDs),
		Metadata:           decodeMetadata(m.Metadata),
	}
	return c, d.err
}

// ==================== Cart models ====================

type cartModel struct {
	grove.BaseModel `grove:"table:commerce_carts"`

	ID             string          `grove:"id,pk"`
	BusinessID     string          `grove:"business_id"`
	IdentityKind   string          `grove:"identity_kind"`
	IdentityID     string          `grove:"identity_id"`
	OnBehalfOf     string          `grove:"on_behalf_of"`
	IdentityKey    string          `grove:"identity_key"`
	ContactID      string          `grove:"contact_id"`
	Channel        string          `grove:"channel"`
	Status         string          `grove:"status"`
	Items          json.RawMessage `grove:"items"`
	CouponID       string          `grove:"coupon_id"`
	CouponDiscount string          `grove:"coupon_discount"`
	CouponRemoved  bool            `grove:"coupon_removed"`
	Subtotal       string          `grove:"subtotal"`
	DiscountTotal  string          `grove:"discount_total"`
	TaxTotal       string          `grove:"tax_total"`
	ItemsTotal     string          `grove:"items_total"`
	Total          string          `grove:"total"`
	Version        int64           `grove:"version"`
	Metadata       string          `grove:"metadata"`
	CreatedAt      time.Time       `grove:"created_at"`
	UpdatedAt      time.Time       `grove:"updated_at"`
}

func toCartModel(c *cart.Cart) *cartModel {
	items, _ := json.Marshal(c.Items) //nolint:errcheck // best-effort
	contactID, _ := c.Buyer.ContactID()

	return &cartModel{
		ID:             c.ID.String(),
		BusinessID:     c.BusinessID,
		IdentityKind:   string(c.Buyer.Kind),
		IdentityID:     c.Buyer.ID,
		OnBehalfOf:     c.Buyer.OnBehalfOf,
		IdentityKey:    c.Buyer.Key(),
		ContactID:      contactID,
		Channel:        string(c.Channel),
		Status:         string(c.Status),
		Items:          items,
		CouponID:       c.CouponID.String(),
		CouponDiscount: c.CouponDiscount.String(),
		CouponRemoved:  c.CouponRemoved,
		Subtotal:       c.Subtotal.String(),
		DiscountTotal:  c.DiscountTotal.String(),
		TaxTotal:       c.TaxTotal.String(),
		ItemsTotal:     c.ItemsTotal.String(),
		Total:          c.Total.String(),
		Version:        c.Version,
		Metadata:       encodeJSON(c.Metadata),
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func fromCartModel(m *cartModel) (*cart.Cart, error) {
	cartID, err := id.ParseCartID(m.ID)
	if err != nil {
		return nil, err
	}
	couponID, err := id.ParseOptional(m.CouponID)
	if err != nil {
		return nil, err
	}

	items := make([]cart.Item, 0)
	if len(m.Items) > 0 {
		if err := json.Unmarshal(m.Items, &items); err != nil {
			return nil, err
		}
	}

	var d decoder
	c := &cart.Cart{
		Entity:     types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:         cartID,
		BusinessID: m.BusinessID,
		Buyer: cart.BuyerIdentity{
			Kind:       cart.IdentityKind(m.IdentityKind),
			ID:         m.IdentityID,
			OnBehalfOf: m.OnBehalfOf,
		},
		Channel:        cart.Channel(m.Channel),
		Status:         cart.Status(m.Status),
		Items:          items,
		CouponID:       couponID,
		CouponDiscount: d.money(m.CouponDiscount),
		CouponRemoved:  m.CouponRemoved,
		Subtotal:       d.money(m.Subtotal),
		DiscountTotal:  d.money(m.DiscountTotal),
		TaxTotal:       d.money(m.TaxTotal),
		ItemsTotal:     d.money(m.ItemsTotal),
		Total:          d.money(m.Total),
		Version:        m.Version,
		Metadata:       decodeMetadata(m.Metadata),
	}
	return c, d.err
}

// ==================== Order models ====================

type orderModel struct {
	grove.BaseModel `grove:"table:commerce_orders"`

	ID           string          `grove:"id,pk"`
	BusinessID   string          `grove:"business_id"`
	CartID       string          `grove:"cart_id"`
	IdentityKind string          `grove:"identity_kind"`
	IdentityID   string          `grove:"identity_id"`
	OnBehalfOf   string          `grove:"on_behalf_of"`
	ContactID    string          `grove:"contact_id"`
	Channel      string          `grove:"channel"`
	Status       string          `grove:"status"`
	Items        json.RawMessage `grove:"items"`
	CouponID     string          `grove:"coupon_id"`
	CouponCode   string          `grove:"coupon_code"`
	Subtotal     string          `grove:"subtotal"`
	Discount     string          `grove:"discount_total"`
	Tax          string          `grove:"tax_total"`
	ItemsTotal   string          `grove:"items_total"`
	CouponTotal  string          `grove:"coupon_discount"`
	Total        string          `grove:"total"`
	PlacedAt     time.Time       `grove:"placed_at"`
	Metadata     string          `grove:"metadata"`
	CreatedAt    time.Time       `grove:"created_at"`
	UpdatedAt    time.Time       `grove:"updated_at"`
}

func toOrderModel(o *order.Order) *orderModel {
	items, _ := json.Marshal(o.Items) //nolint:errcheck // best-effort
	contactID, _ := o.Buyer.ContactID()

	return &orderModel{
		ID:           o.ID.String(),
		BusinessID:   o.BusinessID,
		CartID:       o.CartID.String(),
		IdentityKind: string(o.Buyer.Kind),
		IdentityID:   o.Buyer.ID,
		OnBehalfOf:   o.Buyer.OnBehalfOf,
		ContactID:    contactID,
		Channel:      string(o.Channel),
		Status:       string(o.Status),
		Items:        items,
		CouponID:     o.CouponID.String(),
		CouponCode:   o.CouponCode,
		Subtotal:     o.Subtotal.String(),
		Discount:     o.Discount.String(),
		Tax:          o.Tax.String(),
		ItemsTotal:   o.ItemsTotal.String(),
		CouponTotal:  o.CouponTotal.String(),
		Total:        o.Total.String(),
		PlacedAt:     o.PlacedAt,
		Metadata:     encodeJSON(o.Metadata),
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
}

func fromOrderModel(m *orderModel) (*order.Order, error) {
	orderID, err := id.ParseOrderID(m.ID)
	if err != nil {
		return nil, err
	}
	cartID, err := id.ParseCartID(m.CartID)
	if err != nil {
		return nil, err
	}
	couponID, err := id.ParseOptional(m.CouponID)
	if err != nil {
		return nil, err
	}

	var items []cart.Item
	if len(m.Items) > 0 {
		if err := json.Unmarshal(m.Items, &items); err != nil {
			return nil, err
		}
	}

	var d decoder
	o := &order.Order{
		Entity:     types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:         orderID,
		BusinessID: m.BusinessID,
		CartID:     cartID,
		Buyer: cart.BuyerIdentity{
			Kind:       cart.IdentityKind(m.IdentityKind),
			ID:         m.IdentityID,
			OnBehalfOf: m.OnBehalfOf,
		},
		Channel:     cart.Channel(m.Channel),
		Status:      order.Status(m.Status),
		Items:       items,
		CouponID:    couponID,
		CouponCode:  m.CouponCode,
		Subtotal:    d.money(m.Subtotal),
		Discount:    d.money(m.Discount),
		Tax:         d.money(m.Tax),
		ItemsTotal:  d.money(m.ItemsTotal),
		CouponTotal: d.money(m.CouponTotal),
		Total:       d.money(m.Total),
		PlacedAt:    m.PlacedAt,
		Metadata:    decodeMetadata(m.Metadata),
	}
	return o, d.err
}

// ==================== Conversion helpers ====================

// decoder parses decimal columns and keeps the first error.
type decoder struct {
	err error
}

func (d *decoder) money(s string) types.Money {
	if s == "" {
		return types.Zero()
	}
	m, err := types.ParseMoney(s)
	if err != nil && d.err == nil {
		d.err = err
	}
	return m
}

func (d *decoder) moneyPtr(s *string) *types.Money {
	if s == nil {
		return nil
	}
	m := d.money(*s)
	return &m
}

func (d *decoder) decimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	v, err := decimal.NewFromString(s)
	if err != nil && d.err == nil {
		d.err = err
	}
	return v
}

func moneyPtrString(m *types.Money) *string {
	if m == nil {
		return nil
	}
	s := m.String()
	return &s
}

// encodeJSON renders v for a TEXT column holding JSON.
func encodeJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" {
		return ""
	}
	return string(b)
}

func decodeMetadata(s string) map[string]string {
	if s == "" {
		return nil
	}
	var out map[string]string
	_ = json.Unmarshal([]byte(s), &out) //nolint:errcheck // best-effort
	return out
}

func decodeIDs(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	_ = json.Unmarshal([]byte(s), &out) //nolint:errcheck // best-effort
	return out
}
