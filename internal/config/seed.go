package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/xraph/commerce"
	"github.com/xraph/commerce/catalog"
	"github.com/xraph/commerce/coupon"
	"github.com/xraph/commerce/id"
	"github.com/xraph/commerce/types"
)

// Seed is a catalog and coupon fixture loaded at startup. Money and
// decimal values are strings so no float parsing is involved.
type Seed struct {
	Businesses []BusinessSeed `yaml:"businesses"`
	// Coupons here are platform coupons, redeemable at every business.
	Coupons []CouponSeed `yaml:"coupons"`
}

// BusinessSeed groups one business's catalog and coupons.
type BusinessSeed struct {
	ID       string        `yaml:"id"`
	Products []ProductSeed `yaml:"products"`
	Services []ServiceSeed `yaml:"services"`
	Combos   []ComboSeed   `yaml:"combos"`
	Coupons  []CouponSeed  `yaml:"coupons"`
}

// Pricing holds the discount and tax fields shared by catalog seeds.
type Pricing struct {
	DiscountType  string `yaml:"discount_type"`
	DiscountValue string `yaml:"discount_value"`
	MaxDiscount   string `yaml:"max_discount"`
	IncludeTax    bool   `yaml:"include_tax"`
	TaxRate       string `yaml:"tax_rate"`
}

// ProductSeed describes a product. Key names the item for coupon exclusions
// and combo components.
type ProductSeed struct {
	Key      string  `yaml:"key"`
	ID       string  `yaml:"id"`
	Name     string  `yaml:"name"`
	SKU      string  `yaml:"sku"`
	Price    string  `yaml:"price"`
	Stock    int64   `yaml:"stock"`
	Inactive bool    `yaml:"inactive"`
	Pricing  Pricing `yaml:",inline"`
}

// ServiceSeed describes a service.
type ServiceSeed struct {
	Key             string  `yaml:"key"`
	ID              string  `yaml:"id"`
	Name            string  `yaml:"name"`
	Price           string  `yaml:"price"`
	DurationMinutes int     `yaml:"duration_minutes"`
	Inactive        bool    `yaml:"inactive"`
	Pricing         Pricing `yaml:",inline"`
}

// ComboSeed describes a combo.
type ComboSeed struct {
	Key           string          `yaml:"key"`
	ID            string          `yaml:"id"`
	Name          string          `yaml:"name"`
	Price         string          `yaml:"price"`
	DiscountType  string          `yaml:"discount_type"`
	DiscountValue string          `yaml:"discount_value"`
	MaxDiscount   string          `yaml:"max_discount"`
	Components    []ComponentSeed `yaml:"components"`
	Inactive      bool            `yaml:"inactive"`
}

// ComponentSeed references a product or service by key or id.
type ComponentSeed struct {
	Kind     string `yaml:"kind"`
	Item     string `yaml:"item"`
	Quantity int64  `yaml:"quantity"`
}

// CouponSeed describes a coupon. Exclusions reference catalog keys or ids.
type CouponSeed struct {
	Code             string   `yaml:"code"`
	Name             string   `yaml:"name"`
	DiscountType     string   `yaml:"discount_type"`
	DiscountValue    string   `yaml:"discount_value"`
	MaxDiscount      string   `yaml:"max_discount"`
	MinCartValue     string   `yaml:"min_cart_value"`
	AvailableLimit   *int64   `yaml:"available_limit"`
	UsageLimit       *int64   `yaml:"usage_limit"`
	ValidFrom        string   `yaml:"valid_from"`
	ValidTo          string   `yaml:"valid_to"`
	Inactive         bool     `yaml:"inactive"`
	AutoApply        bool     `yaml:"auto_apply"`
	ExcludedProducts []string `yaml:"excluded_products"`
	ExcludedServices []string `yaml:"excluded_services"`
}

// LoadSeed reads a seed file.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed %s: %w", path, err)
	}
	var s Seed
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing seed: %w", err)
	}
	return &s, nil
}

// SeedStats counts what Apply created.
type SeedStats struct {
	Products int
	Services int
	Combos   int
	Coupons  int
}

// Apply creates every seeded entity through the engine.
func (s *Seed) Apply(ctx context.Context, eng *commerce.Commerce) (SeedStats, error) {
	var stats SeedStats
	for _, b := range s.Businesses {
		if b.ID == "" {
			return stats, fmt.Errorf("seed: business without id")
		}
		keys := make(map[string]string)

		for _, ps := range b.Products {
			p, err := ps.build(b.ID)
			if err != nil {
				return stats, fmt.Errorf("seed product %q: %w", ps.Name, err)
			}
			if err := eng.CreateProduct(ctx, p); err != nil {
				return stats, fmt.Errorf("seed product %q: %w", ps.Name, err)
			}
			remember(keys, ps.Key, p.ID)
			stats.Products++
		}

		for _, ss := range b.Services {
			svc, err := ss.build(b.ID)
			if err != nil {
				return stats, fmt.Errorf("seed service %q: %w", ss.Name, err)
			}
			if err := eng.CreateService(ctx, svc); err != nil {
				return stats, fmt.Errorf("seed service %q: %w", ss.Name, err)
			}
			remember(keys, ss.Key, svc.ID)
			stats.Services++
		}

		for _, cs := range b.Combos {
			c, err := cs.build(b.ID, keys)
			if err != nil {
				return stats, fmt.Errorf("seed combo %q: %w", cs.Name, err)
			}
			if err := eng.CreateCombo(ctx, c); err != nil {
				return stats, fmt.Errorf("seed combo %q: %w", cs.Name, err)
			}
			remember(keys, cs.Key, c.ID)
			stats.Combos++
		}

		for _, cs := range b.Coupons {
			if err := applyCoupon(ctx, eng, cs, b.ID, keys); err != nil {
				return stats, err
			}
			stats.Coupons++
		}
	}

	for _, cs := range s.Coupons {
		if err := applyCoupon(ctx, eng, cs, "", nil); err != nil {
			return stats, err
		}
		stats.Coupons++
	}
	return stats, nil
}

func applyCoupon(ctx context.Context, eng *commerce.Commerce, cs CouponSeed, businessID string, keys map[string]string) error {
	c, err := cs.build(businessID, keys)
	if err != nil {
		return fmt.Errorf("seed coupon %q: %w", cs.Code, err)
	}
	if err := eng.CreateCoupon(ctx, c); err != nil {
		return fmt.Errorf("seed coupon %q: %w", cs.Code, err)
	}
	return nil
}

func remember(keys map[string]string, key string, v id.ID) {
	if key != "" {
		keys[key] = v.String()
	}
}

// ──────────────────────────────────────────────────
// Builders
// ──────────────────────────────────────────────────

func (ps ProductSeed) build(businessID string) (*catalog.Product, error) {
	var (
		d   fieldDecoder
		err error
	)
	p := &catalog.Product{
		BusinessID:   businessID,
		Name:         ps.Name,
		SKU:          ps.SKU,
		SellingPrice: d.money("price", ps.Price),
		StockQty:     ps.Stock,
		IsActive:     !ps.Inactive,
	}
	p.DiscountType, p.DiscountValue, p.MaxDiscount = d.discount(ps.Pricing.DiscountType, ps.Pricing.DiscountValue, ps.Pricing.MaxDiscount)
	p.IncludeTax = ps.Pricing.IncludeTax
	p.TaxRate = d.decimal("tax_rate", ps.Pricing.TaxRate)
	if p.ID, err = id.ParseOptional(ps.ID); err != nil {
		return nil, err
	}
	return p, d.err
}

func (ss ServiceSeed) build(businessID string) (*catalog.Service, error) {
	var (
		d   fieldDecoder
		err error
	)
	svc := &catalog.Service{
		BusinessID:      businessID,
		Name:            ss.Name,
		Price:           d.money("price", ss.Price),
		DurationMinutes: ss.DurationMinutes,
		IsActive:        !ss.Inactive,
	}
	svc.DiscountType, svc.DiscountValue, svc.MaxDiscount = d.discount(ss.Pricing.DiscountType, ss.Pricing.DiscountValue, ss.Pricing.MaxDiscount)
	svc.IncludeTax = ss.Pricing.IncludeTax
	svc.TaxRate = d.decimal("tax_rate", ss.Pricing.TaxRate)
	if svc.ID, err = id.ParseOptional(ss.ID); err != nil {
		return nil, err
	}
	return svc, d.err
}

func (cs ComboSeed) build(businessID string, keys map[string]string) (*catalog.Combo, error) {
	var (
		d   fieldDecoder
		err error
	)
	c := &catalog.Combo{
		BusinessID: businessID,
		Name:       cs.Name,
		ComboPrice: d.money("price", cs.Price),
		IsActive:   !cs.Inactive,
	}
	c.DiscountType, c.DiscountValue, c.MaxDiscount = d.discount(cs.DiscountType, cs.DiscountValue, cs.MaxDiscount)
	for _, comp := range cs.Components {
		qty := comp.Quantity
		if qty <= 0 {
			qty = 1
		}
		c.Components = append(c.Components, catalog.Component{
			Kind:     types.ItemKind(comp.Kind),
			ItemID:   lookup(keys, comp.Item),
			Quantity: qty,
		})
	}
	if c.ID, err = id.ParseOptional(cs.ID); err != nil {
		return nil, err
	}
	return c, d.err
}

func (cs CouponSeed) build(businessID string, keys map[string]string) (*coupon.Coupon, error) {
	var d fieldDecoder
	c := &coupon.Coupon{
		BusinessID:     businessID,
		Code:           cs.Code,
		Name:           cs.Name,
		DiscountType:   types.DiscountType(cs.DiscountType),
		DiscountValue:  d.decimal("discount_value", cs.DiscountValue),
		MaxDiscount:    d.moneyPtr("max_discount", cs.MaxDiscount),
		MinCartValue:   d.money("min_cart_value", cs.MinCartValue),
		AvailableLimit: cs.AvailableLimit,
		UsageLimit:     cs.UsageLimit,
		ValidFrom:      d.date("valid_from", cs.ValidFrom),
		ValidTo:        d.date("valid_to", cs.ValidTo),
		IsActive:       !cs.Inactive,
		AutoApply:      cs.AutoApply,
	}
	for _, ref := range cs.ExcludedProducts {
		c.ExcludedProductIDs = append(c.ExcludedProductIDs, lookup(keys, ref))
	}
	for _, ref := range cs.ExcludedServices {
		c.ExcludedServiceIDs = append(c.ExcludedServiceIDs, lookup(keys, ref))
	}
	return c, d.err
}

func lookup(keys map[string]string, ref string) string {
	if v, ok := keys[ref]; ok {
		return v
	}
	return ref
}

// fieldDecoder parses string fields and keeps the first error.
type fieldDecoder struct {
	err error
}

func (d *fieldDecoder) fail(field string, err error) {
	if d.err == nil {
		d.err = fmt.Errorf("%s: %w", field, err)
	}
}

func (d *fieldDecoder) money(field, raw string) types.Money {
	if raw == "" {
		return types.Zero()
	}
	m, err := types.ParseMoney(raw)
	if err != nil {
		d.fail(field, err)
	}
	return m
}

func (d *fieldDecoder) moneyPtr(field, raw string) *types.Money {
	if raw == "" {
		return nil
	}
	m := d.money(field, raw)
	return &m
}

func (d *fieldDecoder) decimal(field, raw string) decimal.Decimal {
	if raw == "" {
		return decimal.Zero
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		d.fail(field, err)
	}
	return v
}

func (d *fieldDecoder) discount(kind, value, maxDiscount string) (types.DiscountType, decimal.Decimal, *types.Money) {
	return types.DiscountType(kind), d.decimal("discount_value", value), d.moneyPtr("max_discount", maxDiscount)
}

// date accepts RFC 3339 timestamps or plain YYYY-MM-DD dates (UTC midnight).
func (d *fieldDecoder) date(field, raw string) *time.Time {
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t
		}
	}
	d.fail(field, fmt.Errorf("invalid date %q", raw))
	return nil
}
