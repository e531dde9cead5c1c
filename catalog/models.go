// Package catalog models the purchasable items of a business (products,
// services and combos) and resolves them into a uniform pricing view.
package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/xraph/commerce/id"
	"github.com/xraph/commerce/types"
)

// Product is a stock-tracked item.
type Product struct {
	types.Entity
	ID            id.ProductID       `json:"id"`
	BusinessID    string             `json:"business_id"`
	Name          string             `json:"name"`
	SKU           string             `json:"sku,omitempty"`
	SellingPrice  types.Money        `json:"selling_price"`
	DiscountType  types.DiscountType `json:"discount_type,omitempty"`
	DiscountValue decimal.Decimal    `json:"discount_value"`
	MaxDiscount   *types.Money       `json:"max_discount,omitempty"`
	IncludeTax    bool               `json:"include_tax"`
	TaxRate       decimal.Decimal    `json:"tax_rate"`
	StockQty      int64              `json:"stock_qty"`
	IsActive      bool               `json:"is_active"`
	Metadata      map[string]string  `json:"metadata,omitempty"`
}

// Service is a bookable, non-stackable item.
type Service struct {
	types.Entity
	ID              id.ServiceID       `json:"id"`
	BusinessID      string             `json:"business_id"`
	Name            string             `json:"name"`
	Price           types.Money        `json:"price"`
	DiscountType    types.DiscountType `json:"discount_type,omitempty"`
	DiscountValue   decimal.Decimal    `json:"discount_value"`
	MaxDiscount     *types.Money       `json:"max_discount,omitempty"`
	IncludeTax      bool               `json:"include_tax"`
	TaxRate         decimal.Decimal    `json:"tax_rate"`
	DurationMinutes int                `json:"duration_minutes,omitempty"`
	IsActive        bool               `json:"is_active"`
	Metadata        map[string]string  `json:"metadata,omitempty"`
}

// Combo bundles products and services at a single price. Combos carry no
// tax configuration and are always priced untaxed.
type Combo struct {
	types.Entity
	ID            id.ComboID         `json:"id"`
	BusinessID    string             `json:"business_id"`
	Name          string             `json:"name"`
	ComboPrice    types.Money        `json:"combo_price"`
	DiscountType  types.DiscountType `json:"discount_type,omitempty"`
	DiscountValue decimal.Decimal    `json:"discount_value"`
	MaxDiscount   *types.Money       `json:"max_discount,omitempty"`
	Components    []Component        `json:"components,omitempty"`
	IsActive      bool               `json:"is_active"`
	Metadata      map[string]string  `json:"metadata,omitempty"`
}

// Component is one member of a combo.
type Component struct {
	Kind     types.ItemKind `json:"kind" bson:"kind"`
	ItemID   string         `json:"item_id" bson:"item_id"`
	Quantity int64          `json:"quantity" bson:"quantity"`
}

// ListOpts filters catalog listings.
type ListOpts struct {
	ActiveOnly bool
	Limit      int
	Offset     int
}
