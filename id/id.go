// Package id defines the identifiers of carts, cart lines, catalog items,
// coupons and orders.
//
// Every identifier is a TypeID: "prefix_suffix", where the prefix names the
// kind of record and the suffix is a UUIDv7, so ids sort by creation time.
// Catalog ids are what a cart line points at, which is why a line id and
// the item id it references always carry different prefixes.
package id

import (
	"database/sql/driver"

	"github.com/go-faster/errors"
	"go.jetify.com/typeid/v2"
)

// Prefix identifies the kind of record an ID belongs to.
type Prefix string

const (
	PrefixCart     Prefix = "cart"
	PrefixCartItem Prefix = "cli"
	PrefixCoupon   Prefix = "cpn"
	PrefixProduct  Prefix = "prod"
	PrefixService  Prefix = "svc"
	PrefixCombo    Prefix = "cmb"
	PrefixOrder    Prefix = "ord"
)

// known maps every prefix this module mints to whether it names a catalog
// item a cart line can reference.
var known = map[Prefix]bool{
	PrefixCart:     false,
	PrefixCartItem: false,
	PrefixCoupon:   false,
	PrefixProduct:  true,
	PrefixService:  true,
	PrefixCombo:    true,
	PrefixOrder:    false,
}

var (
	// ErrEmpty is returned when parsing an empty string with a non-optional parser.
	ErrEmpty = errors.New("id: empty")
	// ErrUnknownPrefix is returned for a well-formed TypeID minted elsewhere.
	ErrUnknownPrefix = errors.New("id: unknown prefix")
	// ErrPrefixMismatch is returned when an id of one kind is passed where another is expected.
	ErrPrefixMismatch = errors.New("id: prefix mismatch")
)

// Valid reports whether p is one of the commerce prefixes.
func (p Prefix) Valid() bool {
	_, ok := known[p]
	return ok
}

// Catalog reports whether p names a product, service or combo.
func (p Prefix) Catalog() bool { return known[p] }

// ID identifies one commerce record. The zero value is Nil.
//
//nolint:recvcheck // UnmarshalText and Scan need pointer receivers.
type ID struct {
	inner typeid.TypeID
	valid bool
}

// Nil is the zero ID, used for an unset optional reference such as the
// coupon of a cart without one.
var Nil ID

// New mints an ID with the given prefix. An invalid prefix is a programming
// error and panics.
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(errors.Wrapf(err, "id: generate %q", prefix))
	}
	return ID{inner: tid, valid: true}
}

// Parse parses any well-formed TypeID, whatever its prefix.
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, ErrEmpty
	}
	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, errors.Wrapf(err, "id: parse %q", s)
	}
	return ID{inner: tid, valid: true}, nil
}

// ParseWithPrefix parses s and requires it to carry the expected prefix.
func ParseWithPrefix(s string, expected Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}
	if got := parsed.Prefix(); got != expected {
		return Nil, errors.Wrapf(ErrPrefixMismatch, "want %s, got %s", expected, got)
	}
	return parsed, nil
}

// ParseAny parses s as an id of any commerce record. Ids with foreign
// prefixes are rejected.
func ParseAny(s string) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}
	if !parsed.Prefix().Valid() {
		return Nil, errors.Wrapf(ErrUnknownPrefix, "%q", parsed.Prefix())
	}
	return parsed, nil
}

// ParseItemRef parses the catalog item a cart line points at: a product,
// service or combo id.
func ParseItemRef(s string) (ID, error) {
	parsed, err := ParseAny(s)
	if err != nil {
		return Nil, err
	}
	if !parsed.Prefix().Catalog() {
		return Nil, errors.Wrapf(ErrPrefixMismatch, "%s is not a catalog item", parsed.Prefix())
	}
	return parsed, nil
}

// ParseOptional parses s, returning Nil for the empty string.
func ParseOptional(s string) (ID, error) {
	if s == "" {
		return Nil, nil
	}
	return Parse(s)
}

// The aliases document which record an ID field refers to.
type (
	CartID     = ID
	CartItemID = ID
	CouponID   = ID
	ProductID  = ID
	ServiceID  = ID
	ComboID    = ID
	OrderID    = ID
)

func NewCartID() ID     { return New(PrefixCart) }
func NewCartItemID() ID { return New(PrefixCartItem) }
func NewCouponID() ID   { return New(PrefixCoupon) }
func NewProductID() ID  { return New(PrefixProduct) }
func NewServiceID() ID  { return New(PrefixService) }
func NewComboID() ID    { return New(PrefixCombo) }
func NewOrderID() ID    { return New(PrefixOrder) }

func ParseCartID(s string) (ID, error)     { return ParseWithPrefix(s, PrefixCart) }
func ParseCartItemID(s string) (ID, error) { return ParseWithPrefix(s, PrefixCartItem) }
func ParseCouponID(s string) (ID, error)   { return ParseWithPrefix(s, PrefixCoupon) }
func ParseProductID(s string) (ID, error)  { return ParseWithPrefix(s, PrefixProduct) }
func ParseServiceID(s string) (ID, error)  { return ParseWithPrefix(s, PrefixService) }
func ParseComboID(s string) (ID, error)    { return ParseWithPrefix(s, PrefixCombo) }
func ParseOrderID(s string) (ID, error)    { return ParseWithPrefix(s, PrefixOrder) }

// String returns "prefix_suffix", or "" for Nil.
func (i ID) String() string {
	if !i.valid {
		return ""
	}
	return i.inner.String()
}

// Prefix returns the record kind, or "" for Nil.
func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}
	return Prefix(i.inner.Prefix())
}

// IsNil reports whether i is unset.
func (i ID) IsNil() bool { return !i.valid }

// MarshalText encodes Nil as the empty string so optional references
// serialize as "".
func (i ID) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText accepts "" as Nil.
func (i *ID) UnmarshalText(data []byte) error {
	parsed, err := ParseOptional(string(data))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// Value stores Nil as NULL so optional columns such as carts.coupon_id stay
// empty.
func (i ID) Value() (driver.Value, error) {
	if !i.valid {
		return nil, nil //nolint:nilnil // NULL
	}
	return i.inner.String(), nil
}

// Scan reads a TEXT column; NULL and "" become Nil.
func (i *ID) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*i = Nil
		return nil
	case string:
		return i.UnmarshalText([]byte(v))
	case []byte:
		return i.UnmarshalText(v)
	default:
		return errors.Errorf("id: cannot scan %T", src)
	}
}
