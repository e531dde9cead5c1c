package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xraph/commerce/id"
	"github.com/xraph/commerce/pricing"
	"github.com/xraph/commerce/types"
)

var (
	// ErrOutOfStock means the requested quantity cannot be satisfied.
	ErrOutOfStock = errors.New("commerce: out of stock")
	// ErrItemUnavailable means the item exists but is not offered for sale.
	ErrItemUnavailable = errors.New("commerce: item unavailable")
)

// PricingView is the kind-independent pricing projection of a catalog item.
type PricingView struct {
	Kind          types.ItemKind
	ItemID        id.ID
	BusinessID    string
	Name          string
	UnitPrice     types.Money
	DiscountType  types.DiscountType
	DiscountValue decimal.Decimal
	MaxDiscount   *types.Money
	IncludeTax    bool
	TaxRate       decimal.Decimal
	// StockQty is set for products only.
	StockQty *int64
}

// ClampQuantity returns the quantity a new line may carry. Requests below
// one become one. Products are clamped to available stock and fail with
// ErrOutOfStock when none is left; services and combos are always one.
func (v *PricingView) ClampQuantity(requested int64) (int64, error) {
	if !v.Kind.Stackable() {
		return 1, nil
	}
	qty := requested
	if qty < 1 {
		qty = 1
	}
	if v.StockQty != nil {
		if *v.StockQty < qty {
			qty = *v.StockQty
		}
		if qty <= 0 {
			return 0, ErrOutOfStock
		}
	}
	return qty, nil
}

// CheckStock verifies qty is available without clamping.
func (v *PricingView) CheckStock(qty int64) error {
	if v.StockQty != nil && qty > *v.StockQty {
		return ErrOutOfStock
	}
	return nil
}

// Input builds the calculator input for qty units.
func (v *PricingView) Input(qty int64) pricing.Input {
	return pricing.Input{
		BasePrice:     v.UnitPrice,
		DiscountType:  v.DiscountType,
		DiscountValue: v.DiscountValue,
		MaxDiscount:   v.MaxDiscount,
		IncludeTax:    v.IncludeTax,
		TaxRate:       v.TaxRate,
		Quantity:      qty,
	}
}

// Price computes the line breakdown for qty units.
func (v *PricingView) Price(qty int64) (pricing.Breakdown, error) {
	return pricing.ForKind(v.Kind, v.Input(qty))
}

// Resolver looks up catalog items and projects them into PricingViews.
type Resolver struct {
	store Store
}

// NewResolver creates a Resolver over the given store.
func NewResolver(s Store) *Resolver {
	return &Resolver{store: s}
}

// ParseItemID parses raw as an identifier of the given kind.
func ParseItemID(kind types.ItemKind, raw string) (id.ID, error) {
	switch kind {
	case types.KindProduct:
		return id.ParseProductID(raw)
	case types.KindService:
		return id.ParseServiceID(raw)
	case types.KindCombo:
		return id.ParseComboID(raw)
	default:
		return id.Nil, errors.Wrapf(pricing.ErrInvalidItemKind, "kind %q", kind)
	}
}

// Resolve fetches the item of the given kind. Store not-found errors are
// returned unchanged; inactive items yield ErrItemUnavailable.
func (r *Resolver) Resolve(ctx context.Context, kind types.ItemKind, itemID id.ID) (*PricingView, error) {
	switch kind {
	case types.KindProduct:
		p, err := r.store.GetProduct(ctx, itemID)
		if err != nil {
			return nil, err
		}
		if !p.IsActive {
			return nil, ErrItemUnavailable
		}
		stock := p.StockQty
		return &PricingView{
			Kind:          kind,
			ItemID:        p.ID,
			BusinessID:    p.BusinessID,
			Name:          p.Name,
			UnitPrice:     p.SellingPrice,
			DiscountType:  p.DiscountType,
			DiscountValue: p.DiscountValue,
			MaxDiscount:   p.MaxDiscount,
			IncludeTax:    p.IncludeTax,
			TaxRate:       p.TaxRate,
			StockQty:      &stock,
		}, nil

	case types.KindService:
		s, err := r.store.GetService(ctx, itemID)
		if err != nil {
			return nil, err
		}
		if !s.IsActive {
			return nil, ErrItemUnavailable
		}
		return &PricingView{
			Kind:          kind,
			ItemID:        s.ID,
			BusinessID:    s.BusinessID,
			Name:          s.Name,
			UnitPrice:     s.Price,
			DiscountType:  s.DiscountType,
			DiscountValue: s.DiscountValue,
			MaxDiscount:   s.MaxDiscount,
			IncludeTax:    s.IncludeTax,
			TaxRate:       s.TaxRate,
		}, nil

	case types.KindCombo:
		c, err := r.store.GetCombo(ctx, itemID)
		if err != nil {
			return nil, err
		}
		if !c.IsActive {
			return nil, ErrItemUnavailable
		}
		return &PricingView{
			Kind:          kind,
			ItemID:        c.ID,
			BusinessID:    c.BusinessID,
			Name:          c.Name,
			UnitPrice:     c.ComboPrice,
			DiscountType:  c.DiscountType,
			DiscountValue: c.DiscountValue,
			MaxDiscount:   c.MaxDiscount,
		}, nil

	default:
		return nil, errors.Wrapf(pricing.ErrInvalidItemKind, "kind %q", kind)
	}
}
