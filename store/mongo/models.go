package mongo

import (
	"fmt"
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

	ID            string            `grove:"id,pk"          bson:"_id"`
	BusinessID    string            `grove:"business_id"    bson:"business_id"`
	Name          string            `grove:"name"           bson:"name"`
	SKU           string            `grove:"sku"            bson:"sku,omitempty"`
	SellingPrice  string            `grove:"selling_price"  bson:"selling_price"`
	DiscountType  string            `grove:"discount_type"  bson:"discount_type,omitempty"`
	DiscountValue string            `grove:"discount_value" bson:"discount_value"`
	MaxDiscount   *string           `grove:"max_discount"   bson:"max_discount,omitempty"`
	IncludeTax    bool              `grove:"include_tax"    bson:"include_tax"`
	TaxRate       string            `grove:"tax_rate"       bson:"tax_rate"`
	StockQty      int64             `grove:"stock_qty"      bson:"stock_qty"`
	IsActive      bool              `grove:"is_active"      bson:"is_active"`
	Metadata      map[string]string `grove:"metadata"       bson:"metadata,omitempty"`
	CreatedAt     time.Time         `grove:"created_at"     bson:"created_at"`
	UpdatedAt     time.Time         `grove:"updated_at"     bson:"updated_at"`
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
		Metadata:      p.Metadata,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func fromProductModel(m *productModel) (*catalog.Product, error) {
	productID, err := id.ParseProductID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse product id %q: %w", m.ID, err)
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
		Metadata:      m.Metadata,
	}
	return p, d.err
}

type serviceModel struct {
	grove.BaseModel `grove:"table:commerce_services"`

	ID              string            `grove:"id,pk"            bson:"_id"`
	BusinessID      string            `grove:"business_id"      bson:"business_id"`
	Name            string            `grove:"name"             bson:"name"`
	Price           string            `grove:"price"            bson:"price"`
	DiscountType    string            `grove:"discount_type"    bson:"discount_type,omitempty"`
	DiscountValue   string            `grove:"discount_value"   bson:"discount_value"`
	MaxDiscount     *string           `grove:"max_discount"     bson:"max_discount,omitempty"`
	IncludeTax      bool              `grove:"include_tax"      bson:"include_tax"`
	TaxRate         string            `grove:"tax_rate"         bson:"tax_rate"`
	DurationMinutes int               `grove:"duration_minutes" bson:"duration_minutes"`
	IsActive        bool              `grove:"is_active"        bson:"is_active"`
	Metadata        map[string]string `grove:"metadata"         bson:"metadata,omitempty"`
	CreatedAt       time.Time         `grove:"created_at"       bson:"created_at"`
	UpdatedAt       time.Time         `grove:"updated_at"       bson:"updated_at"`
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
		Metadata:        s.Metadata,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

func fromServiceModel(m *serviceModel) (*catalog.Service, error) {
	serviceID, err := id.ParseServiceID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse service id %q: %w", m.ID, err)
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
		Metadata:        m.Metadata,
	}
	return s, d.err
}

type comboModel struct {
	grove.BaseModel `grove:"table:commerce_combos"`

	ID            string              `grove:"id,pk"          bson:"_id"`
	BusinessID    string              `grove:"business_id"    bson:"business_id"`
	Name          string              `grove:"name"           bson:"name"`
	ComboPrice    string              `grove:"combo_price"    bson:"combo_price"`
	DiscountType  string              `grove:"discount_type"  bson:"discount_type,omitempty"`
	DiscountValue string              `grove:"discount_value" bson:"discount_value"`
	MaxDiscount   *string             `grove:"max_discount"   bson:"max_discount,omitempty"`
	Components    []catalog.Component `grove:"components"     bson:"components"`
	IsActive      bool                `grove:"is_active"      bson:"is_active"`
	Metadata      map[string]string   `grove:"metadata"       bson:"metadata,omitempty"`
	CreatedAt     time.Time           `grove:"created_at"     bson:"created_at"`
	UpdatedAt     time.Time           `grove:"updated_at"     bson:"updated_at"`
}

func toComboModel(c *catalog.Combo) *comboModel {
	return &comboModel{
		ID:            c.ID.String(),
		BusinessID:    c.BusinessID,
		Name:          c.Name,
		ComboPrice:    c.ComboPrice.String(),
		DiscountType:  string(c.DiscountType),
		DiscountValue: c.DiscountValue.String(),
		MaxDiscount:   moneyPtrString(c.MaxDiscount),
		Components:    c.Components,
		IsActive:      c.IsActive,
		Metadata:      c.Metadata,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func fromComboModel(m *comboModel) (*catalog.Combo, error) {
	comboID, err := id.ParseComboID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse combo id %q: %w", m.ID, err)
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
		Components:    m.Components,
		IsActive:      m.IsActive,
		Metadata:      m.Metadata,
	}
	return c, d.err
}

// ==================== Coupon models ====================

type couponModel struct {
	grove.BaseModel `grove:"table:commerce_coupons"`

	ID                 string            `grove:"id,pk"                bson:"_id"`
	BusinessID         string            `grove:"business_id"          bson:"business_id"`
	Scope              string            `grove:"scope"                bson:"scope"`
	Code               string            `grove:"code"                 bson:"code"`
	Name               string            `grove:"name"                 bson:"name"`
	DiscountType       string            `grove:"discount_type"        bson:"discount_type"`
	DiscountValue      string            `grove:"discount_value"       bson:"discount_value"`
	MaxDiscount        *string           `grove:"max_discount"         bson:"max_discount,omitempty"`
	MinCartValue       string            `grove:"min_cart_value"       bson:"min_cart_value"`
	AvailableLimit     *int64            `grove:"available_limit"      bson:"available_limit,omitempty"`
	UsageLimit         *int64            `grove:"usage_limit"          bson:"usage_limit,omitempty"`
	ValidFrom          *time.Time        `grove:"valid_from"           bson:"valid_from,omitempty"`
	ValidTo            *time.Time        `grove:"valid_to"             bson:"valid_to,omitempty"`
	IsActive           bool              `grove:"is_active"            bson:"is_active"`
	AutoApply          bool              `grove:"auto_apply"           bson:"auto_apply"`
	ExcludedProductIDs []string          `grove:"excluded_product_ids" bson:"excluded_product_ids,omitempty"`
	ExcludedServiceIDs []string          `grove:"excluded_service_ids" bson:"excluded_service_ids,omitempty"`
	Metadata           map[string]string `grove:"metadata"             bson:"metadata,omitempty"`
	CreatedAt          time.Time         `grove:"created_at"           bson:"created_at"`
	UpdatedAt          time.Time         `grove:"updated_at"           bson:"updated_at"`
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
		ExcludedProductIDs: c.ExcludedProductIDs,
		ExcludedServiceIDs: c.ExcludedServiceIDs,
		Metadata:           c.Metadata,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}

func fromCouponModel(m *couponModel) (*coupon.Coupon, error) {
	couponID, err := id.ParseCouponID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse coupon id %q: %w", m.ID, err)
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
		ExcludedProductIDs: m.ExcludedProductIDs,
		ExcludedServiceIDs: m.ExcludedServiceIDs,
		Metadata:           m.Metadata,
	}
	return c, d.err
}

// ==================== Cart models ====================

type cartModel struct {
	grove.BaseModel `grove:"table:commerce_carts"`

	ID             string            `grove:"id,pk"           bson:"_id"`
	BusinessID     string            `grove:"business_id"     bson:"business_id"`
	Buyer          buyerModel        `grove:"buyer"           bson:"buyer"`
	IdentityKey    string            `grove:"identity_key"    bson:"identity_key"`
	ContactID      string            `grove:"contact_id"      bson:"contact_id,omitempty"`
	Channel        string            `grove:"channel"         bson:"channel"`
	Status         string            `grove:"status"          bson:"status"`
	Items          []itemModel       `grove:"items"           bson:"items"`
	CouponID       string            `grove:"coupon_id"       bson:"coupon_id,omitempty"`
	CouponDiscount string            `grove:"coupon_discount" bson:"coupon_discount"`
	CouponRemoved  bool              `grove:"coupon_removed"  bson:"coupon_removed"`
	Subtotal       string            `grove:"subtotal"        bson:"subtotal"`
	DiscountTotal  string            `grove:"discount_total"  bson:"discount_total"`
	TaxTotal       string            `grove:"tax_total"       bson:"tax_total"`
	ItemsTotal     string            `grove:"items_total"     bson:"items_total"`
	Total          string            `grove:"total"           bson:"total"`
	Version        int64             `grove:"version"         bson:"version"`
	Metadata       map[string]string `grove:"metadata"        bson:"metadata,omitempty"`
	CreatedAt      time.Time         `grove:"created_at"      bson:"created_at"`
	UpdatedAt      time.Time         `grove:"updated_at"      bson:"updated_at"`
}

type buyerModel struct {
	Kind       string `bson:"kind"`
	ID         string `bson:"id"`
	OnBehalfOf string `bson:"on_behalf_of,omitempty"`
}

type itemModel struct {
	ID             string         `bson:"id"`
	Kind           string         `bson:"kind"`
	ItemID         string         `bson:"item_id"`
	Name           string         `bson:"name"`
	Quantity       int64          `bson:"quantity"`
	ActualPrice    string         `bson:"actual_price"`
	DiscountAmount string         `bson:"discount_amount"`
	TaxAmount      string         `bson:"tax_amount"`
	FinalPrice     string         `bson:"final_price"`
	CouponID       string         `bson:"coupon_id,omitempty"`
	Schedule       *cart.Schedule `bson:"schedule,omitempty"`
	CreatedAt      time.Time      `bson:"created_at"`
	UpdatedAt      time.Time      `bson:"updated_at"`
}

func toBuyerModel(b cart.BuyerIdentity) buyerModel {
	return buyerModel{Kind: string(b.Kind), ID: b.ID, OnBehalfOf: b.OnBehalfOf}
}

func fromBuyerModel(m buyerModel) cart.BuyerIdentity {
	return cart.BuyerIdentity{Kind: cart.IdentityKind(m.Kind), ID: m.ID, OnBehalfOf: m.OnBehalfOf}
}

func toItemModels(items []cart.Item) []itemModel {
	out := make([]itemModel, len(items))
	for i, it := range items {
		out[i] = itemModel{
			ID:             it.ID.String(),
			Kind:           string(it.Kind),
			ItemID:         it.ItemID.String(),
			Name:           it.Name,
			Quantity:       it.Quantity,
			ActualPrice:    it.ActualPrice.String(),
			DiscountAmount: it.DiscountAmount.String(),
			TaxAmount:      it.TaxAmount.String(),
			FinalPrice:     it.FinalPrice.String(),
			CouponID:       it.CouponID.String(),
			Schedule:       it.Schedule,
			CreatedAt:      it.CreatedAt,
			UpdatedAt:      it.UpdatedAt,
		}
	}
	return out
}

func fromItemModels(models []itemModel, d *decoder) ([]cart.Item, error) {
	out := make([]cart.Item, len(models))
	for i, m := range models {
		lineID, err := id.ParseCartItemID(m.ID)
		if err != nil {
			return nil, fmt.Errorf("parse cart item id %q: %w", m.ID, err)
		}
		itemID, err := id.ParseItemRef(m.ItemID)
		if err != nil {
			return nil, fmt.Errorf("parse item id %q: %w", m.ItemID, err)
		}
		couponID, err := id.ParseOptional(m.CouponID)
		if err != nil {
			return nil, fmt.Errorf("parse coupon id %q: %w", m.CouponID, err)
		}
		out[i] = cart.Item{
			ID:             lineID,
			Kind:           types.ItemKind(m.Kind),
			ItemID:         itemID,
			Name:           m.Name,
			Quantity:       m.Quantity,
			ActualPrice:    d.money(m.ActualPrice),
			DiscountAmount: d.money(m.DiscountAmount),
			TaxAmount:      d.money(m.TaxAmount),
			FinalPrice:     d.money(m.FinalPrice),
			CouponID:       couponID,
			Schedule:       m.Schedule,
			CreatedAt:      m.CreatedAt,
			UpdatedAt:      m.UpdatedAt,
		}
	}
	return out, nil
}

func toCartModel(c *cart.Cart) *cartModel {
	contactID, _ := c.Buyer.ContactID()

	return &cartModel{
		ID:             c.ID.String(),
		BusinessID:     c.BusinessID,
		Buyer:          toBuyerModel(c.Buyer),
		IdentityKey:    c.Buyer.Key(),
		ContactID:      contactID,
		Channel:        string(c.Channel),
		Status:         string(c.Status),
		Items:          toItemModels(c.Items),
		CouponID:       c.CouponID.String(),
		CouponDiscount: c.CouponDiscount.String(),
		CouponRemoved:  c.CouponRemoved,
		Subtotal:       c.Subtotal.String(),
		DiscountTotal:  c.DiscountTotal.String(),
		TaxTotal:       c.TaxTotal.String(),
		ItemsTotal:     c.ItemsTotal.String(),
		Total:          c.Total.String(),
		Version:        c.Version,
		Metadata:       c.Metadata,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func fromCartModel(m *cartModel) (*cart.Cart, error) {
	cartID, err := id.ParseCartID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse cart id %q: %w", m.ID, err)
	}
	couponID, err := id.ParseOptional(m.CouponID)
	if err != nil {
		return nil, fmt.Errorf("parse coupon id %q: %w", m.CouponID, err)
	}

	var d decoder
	items, err := fromItemModels(m.Items, &d)
	if err != nil {
		return nil, err
	}

	c := &cart.Cart{
		Entity:         types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:             cartID,
		BusinessID:     m.BusinessID,
		Buyer:          fromBuyerModel(m.Buyer),
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
		Metadata:       m.Metadata,
	}
	return c, d.err
}

// ==================== Order models ====================

type orderModel struct {
	grove.BaseModel `grove:"table:commerce_orders"`

	ID          string            `grove:"id,pk"           bson:"_id"`
	BusinessID  string            `grove:"business_id"     bson:"business_id"`
	CartID      string            `grove:"cart_id"         bson:"cart_id"`
	Buyer       buyerModel        `grove:"buyer"           bson:"buyer"`
	ContactID   string            `grove:"contact_id"      bson:"contact_id,omitempty"`
	Channel     string            `grove:"channel"         bson:"channel"`
	Status      string            `grove:"status"          bson:"status"`
	Items       []itemModel       `grove:"items"           bson:"items"`
	CouponID    string            `grove:"coupon_id"       bson:"coupon_id,omitempty"`
	CouponCode  string            `grove:"coupon_code"     bson:"coupon_code,omitempty"`
	Subtotal    string            `grove:"subtotal"        bson:"subtotal"`
	Discount    string            `grove:"discount_total"  bson:"discount_total"`
	Tax         string            `grove:"tax_total"       bson:"tax_total"`
	ItemsTotal  string            `grove:"items_total"     bson:"items_total"`
	CouponTotal string            `grove:"coupon_discount" bson:"coupon_discount"`
	Total       string            `grove:"total"           bson:"total"`
	PlacedAt    time.Time         `grove:"placed_at"       bson:"placed_at"`
	Metadata    map[string]string `grove:"metadata"        bson:"metadata,omitempty"`
	CreatedAt   time.Time         `grove:"created_at"      bson:"created_at"`
	UpdatedAt   time.Time         `grove:"updated_at"      bson:"updated_at"`
}

func toOrderModel(o *order.Order) *orderModel {
	contactID, _ := o.Buyer.ContactID()

	return &orderModel{
		ID:          o.ID.String(),
		BusinessID:  o.BusinessID,
		CartID:      o.CartID.String(),
		Buyer:       toBuyerModel(o.Buyer),
		ContactID:   contactID,
		Channel:     string(o.Channel),
		Status:      string(o.Status),
		Items:       toItemModels(o.Items),
		CouponID:    o.CouponID.String(),
		CouponCode:  o.CouponCode,
		Subtotal:    o.Subtotal.String(),
		Discount:    o.Discount.String(),
		Tax:         o.Tax.String(),
		ItemsTotal:  o.ItemsTotal.String(),
		CouponTotal: o.CouponTotal.String(),
		Total:       o.Total.String(),
		PlacedAt:    o.PlacedAt,
		Metadata:    o.Metadata,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

func fromOrderModel(m *orderModel) (*order.Order, error) {
	orderID, err := id.ParseOrderID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse order id %q: %w", m.ID, err)
	}
	cartID, err := id.ParseCartID(m.CartID)
	if err != nil {
		return nil, fmt.Errorf("parse cart id %q: %w", m.CartID, err)
	}
	couponID, err := id.ParseOptional(m.CouponID)
	if err != nil {
		return nil, fmt.Errorf("parse coupon id %q: %w", m.CouponID, err)
	}

	var d decoder
	items, err := fromItemModels(m.Items, &d)
	if err != nil {
		return nil, err
	}

	o := &order.Order{
		Entity:      types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:          orderID,
		BusinessID:  m.BusinessID,
		CartID:      cartID,
		Buyer:       fromBuyerModel(m.Buyer),
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
		Metadata:    m.Metadata,
	}
	return o, d.err
}

// ==================== Conversion helpers ====================

// decoder parses decimal strings and keeps the first error.
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
