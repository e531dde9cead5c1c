package types

// DiscountType selects how a discount value is interpreted.
type DiscountType string

const (
	// DiscountNone means no discount is configured.
	DiscountNone DiscountType = ""
	// DiscountFlat subtracts a fixed amount.
	DiscountFlat DiscountType = "flat"
	// DiscountPercentage subtracts a percentage of the amount.
	DiscountPercentage DiscountType = "percentage"
)

// Valid reports whether t is a known discount type.
func (t DiscountType) Valid() bool {
	switch t {
	case DiscountNone, DiscountFlat, DiscountPercentage:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t DiscountType) String() string { return string(t) }
