// Package pricing computes per-line prices for cart items.
//
// Every step works on exact decimals. Intermediate unit values are rounded
// half-up to two places, then each of the four scaled fields is re-rounded
// independently after multiplying by the quantity.
package pricing

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xraph/commerce/types"
)

// ErrInvalidItemKind is returned for an item kind the calculator does not
// know. It indicates a programming or data error.
var ErrInvalidItemKind = errors.New("commerce: invalid item kind")

// Input is the pricing view of one catalog item.
type Input struct {
	BasePrice     types.Money
	DiscountType  types.DiscountType
	DiscountValue decimal.Decimal
	MaxDiscount   *types.Money
	IncludeTax    bool
	TaxRate       decimal.Decimal
	Quantity      int64
}

// Breakdown is the computed price of a line, already scaled to Quantity.
type Breakdown struct {
	Quantity int64       `json:"quantity"`
	Actual   types.Money `json:"actual_price"`
	Discount types.Money `json:"discount_amount"`
	Tax      types.Money `json:"tax_amount"`
	Final    types.Money `json:"final_price"`
}

// Compute prices a line. It never fails; quantity is clamped to at least 1.
func Compute(in Input) Breakdown {
	qty := in.Quantity
	if qty < 1 {
		qty = 1
	}

	base := in.BasePrice.Round()

	var discount types.Money
	switch in.DiscountType {
	case types.DiscountPercentage:
		discount = base.Percent(in.DiscountValue).Round()
	case types.DiscountFlat:
		discount = types.NewMoney(in.DiscountValue).Round()
	}
	if in.MaxDiscount != nil {
		discount = discount.Min(*in.MaxDiscount)
	}
	// Discount may never exceed the line's own price.
	discount = discount.Min(base).NonNegative()

	after := base.Sub(discount).NonNegative()

	var tax types.Money
	if in.IncludeTax {
		tax = after.Percent(in.TaxRate).Round().NonNegative()
	}
	final := after.Add(tax)

	return Breakdown{
		Quantity: qty,
		Actual:   base.MulInt(qty).Round(),
		Discount: discount.MulInt(qty).Round(),
		Tax:      tax.MulInt(qty).Round(),
		Final:    final.MulInt(qty).Round(),
	}
}

// ForKind prices a line for the given item kind. Combos are never taxed.
func ForKind(kind types.ItemKind, in Input) (Breakdown, error) {
	if !kind.Valid() {
		return Breakdown{}, errors.Wrapf(ErrInvalidItemKind, "kind %q", kind)
	}
	if kind == types.KindCombo {
		in.IncludeTax = false
		in.TaxRate = decimal.Zero
	}
	return Compute(in), nil
}
