// Package types provides common types used across the commerce packages.
package types

import (
	"database/sql/driver"
	"encoding/json"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fractional digits every monetary value is
// rounded to.
const MoneyScale = 2

var hundred = decimal.NewFromInt(100)

// Money represents an exact monetary amount in the business's currency.
// Arithmetic is decimal-only. Rounding is half-up to two places and only
// happens where a caller asks for it via Round.
//
// Examples:
//   - MustParseMoney("49.90")
//   - MoneyFromInt(300) = 300.00
type Money struct {
	d decimal.Decimal
}

// Constructors

// NewMoney wraps a decimal value.
func NewMoney(d decimal.Decimal) Money { return Money{d: d} }

// MoneyFromInt creates a Money value of whole units.
func MoneyFromInt(units int64) Money { return Money{d: decimal.NewFromInt(units)} }

// ParseMoney parses a decimal string such as "99.995".
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Money{}, errors.Wrapf(err, "money: parse %q", s)
	}
	return Money{d: d}, nil
}

// MustParseMoney is like ParseMoney but panics on error.
func MustParseMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns a zero Money value.
func Zero() Money { return Money{} }

// Decimal returns the underlying decimal value.
func (m Money) Decimal() decimal.Decimal { return m.d }

// Arithmetic operations

// Add adds two Money values.
func (m Money) Add(other Money) Money { return Money{d: m.d.Add(other.d)} }

// Sub subtracts another Money value.
func (m Money) Sub(other Money) Money { return Money{d: m.d.Sub(other.d)} }

// MulInt multiplies the Money by a quantity.
func (m Money) MulInt(qty int64) Money { return Money{d: m.d.Mul(decimal.NewFromInt(qty))} }

// Percent returns m * rate / 100 without rounding.
func (m Money) Percent(rate decimal.Decimal) Money {
	return Money{d: m.d.Mul(rate).Div(hundred)}
}

// Round rounds half-up (away from zero) to two decimal places.
func (m Money) Round() Money { return Money{d: m.d.Round(MoneyScale)} }

// NonNegative floors the value at zero.
func (m Money) NonNegative() Money {
	if m.d.IsNegative() {
		return Money{}
	}
	return m
}

// Negate returns the negative of the Money value.
func (m Money) Negate() Money { return Money{d: m.d.Neg()} }

// Comparison methods

// IsZero returns true if the amount is zero.
func (m Money) IsZero() bool { return m.d.IsZero() }

// IsPositive returns true if the amount is greater than zero.
func (m Money) IsPositive() bool { return m.d.IsPositive() }

// IsNegative returns true if the amount is less than zero.
func (m Money) IsNegative() bool { return m.d.IsNegative() }

// Cmp compares two values: -1, 0 or +1.
func (m Money) Cmp(other Money) int { return m.d.Cmp(other.d) }

// Equal returns true if both values are numerically equal ("1.5" == "1.50").
func (m Money) Equal(other Money) bool { return m.d.Equal(other.d) }

// LessThan returns true if this Money is less than other.
func (m Money) LessThan(other Money) bool { return m.d.LessThan(other.d) }

// GreaterThan returns true if this Money is greater than other.
func (m Money) GreaterThan(other Money) bool { return m.d.GreaterThan(other.d) }

// Min returns the smaller of two Money values.
func (m Money) Min(other Money) Money {
	if m.d.LessThan(other.d) {
		return m
	}
	return other
}

// Max returns the larger of two Money values.
func (m Money) Max(other Money) Money {
	if m.d.GreaterThan(other.d) {
		return m
	}
	return other
}

// Formatting and encoding

// String returns the amount with exactly two fractional digits, e.g. "300.00".
func (m Money) String() string { return m.d.StringFixed(MoneyScale) }

// MarshalJSON encodes the amount as a fixed-point string so no binary
// floating point crosses the wire.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts both "12.50" and 12.50.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*m = Money{}
		return nil
	}
	parsed, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (m Money) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Money) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*m = Money{}
		return nil
	}
	parsed, err := ParseMoney(string(data))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Value implements driver.Valuer for NUMERIC and TEXT columns.
func (m Money) Value() (driver.Value, error) { return m.String(), nil }

// Scan implements sql.Scanner.
func (m *Money) Scan(src any) error {
	if src == nil {
		*m = Money{}
		return nil
	}
	var d decimal.Decimal
	if err := d.Scan(src); err != nil {
		return errors.Wrap(err, "money: scan")
	}
	*m = Money{d: d}
	return nil
}

// Sum calculates the sum of multiple Money values.
func Sum(values ...Money) Money {
	var total Money
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
