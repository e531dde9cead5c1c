package types

// ItemKind tags which catalog entity a cart line refers to.
type ItemKind string

const (
	// KindProduct is a stock-tracked physical item.
	KindProduct ItemKind = "product"
	// KindService is a bookable service. Quantity is always 1.
	KindService ItemKind = "service"
	// KindCombo is a bundle sold at a combo price. Quantity is always 1.
	KindCombo ItemKind = "combo"
)

// Valid reports whether k is a known item kind.
func (k ItemKind) Valid() bool {
	switch k {
	case KindProduct, KindService, KindCombo:
		return true
	default:
		return false
	}
}

// Stackable reports whether a single line may carry a quantity above 1.
func (k ItemKind) Stackable() bool { return k == KindProduct }

// String returns the string representation.
func (k ItemKind) String() string { return string(k) }
