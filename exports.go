package commerce

import (
	"github.com/xraph/commerce/cart"
	"github.com/xraph/commerce/types"
)

// Re-export common types for convenience so users don't have to import the
// types and cart packages for everyday calls.

// Money is re-exported from types package.
type Money = types.Money

// Entity is re-exported from types package.
type Entity = types.Entity

// ItemKind is re-exported from types package.
type ItemKind = types.ItemKind

// BuyerIdentity is re-exported from cart package.
type BuyerIdentity = cart.BuyerIdentity

// Re-export item kinds
const (
	KindProduct = types.KindProduct
	KindService = types.KindService
	KindCombo   = types.KindCombo
)

// Re-export Money constructors
var (
	ParseMoney     = types.ParseMoney
	MustParseMoney = types.MustParseMoney
	MoneyFromInt   = types.MoneyFromInt
	Zero           = types.Zero
	Sum            = types.Sum
)

// Re-export identity constructors
var (
	Contact         = cart.Contact
	Anonymous       = cart.Anonymous
	Staff           = cart.Staff
	ResolveIdentity = cart.ResolveIdentity
)

// Re-export Entity constructor
var NewEntity = types.NewEntity
