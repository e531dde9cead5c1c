package commerce

import (
	"fmt"

	"github.com/go-faster/errors"

	"github.com/xraph/commerce/cart"
	"github.com/xraph/commerce/catalog"
	"github.com/xraph/commerce/coupon"
	"github.com/xraph/commerce/pricing"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound      = errors.New("commerce: not found")
	ErrAlreadyExists = errors.New("commerce: already exists")
	ErrInvalidInput  = errors.New("commerce: invalid input")

	// Catalog errors
	ErrProductNotFound = errors.New("commerce: product not found")
	ErrServiceNotFound = errors.New("commerce: service not found")
	ErrComboNotFound   = errors.New("commerce: combo not found")
	ErrOutOfStock      = catalog.ErrOutOfStock
	ErrItemUnavailable = catalog.ErrItemUnavailable
	ErrInvalidItemKind = pricing.ErrInvalidItemKind

	// Cart errors
	ErrCartNotFound         = errors.New("commerce: cart not found")
	ErrCartItemNotFound     = errors.New("commerce: cart item not found")
	ErrCartNotActive        = errors.New("commerce: cart is not active")
	ErrCartConflict         = errors.New("commerce: cart was modified concurrently")
	ErrActiveCartExists     = errors.New("commerce: active cart already exists")
	ErrEmptyCart            = errors.New("commerce: cart is empty")
	ErrMissingBuyerIdentity = cart.ErrMissingBuyerIdentity
	ErrInvalidChannel       = cart.ErrInvalidChannel

	// Coupon errors
	ErrCouponNotFound         = errors.New("commerce: coupon not found")
	ErrCouponCodeTaken        = errors.New("commerce: coupon code already exists")
	ErrNoCouponToRemove       = errors.New("commerce: no coupon to remove")
	ErrCouponNotEligible      = errors.New("commerce: coupon not eligible")
	ErrCouponCheckUnavailable = coupon.ErrCheckUnavailable

	// Order errors
	ErrOrderNotFound = errors.New("commerce: order not found")

	// Store errors
	ErrStoreNotReady = errors.New("commerce: store not ready")
	ErrStoreClosed   = errors.New("commerce: store is closed")
)

// ValidationError is a user-correctable failure. Err, when set, is the
// underlying sentinel so errors.Is keeps working through it.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("commerce: validation failed for %s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying cause.
func (e ValidationError) Unwrap() error { return e.Err }

// NewValidationError builds a ValidationError wrapping cause.
func NewValidationError(field, message string, cause error) error {
	return ValidationError{Field: field, Message: message, Err: cause}
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrServiceNotFound) ||
		errors.Is(err, ErrComboNotFound) ||
		errors.Is(err, ErrCartNotFound) ||
		errors.Is(err, ErrCartItemNotFound) ||
		errors.Is(err, ErrCouponNotFound) ||
		errors.Is(err, ErrOrderNotFound)
}

// IsValidation returns true if the error is user-correctable.
func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// IsOutOfStock returns true if the requested quantity cannot be satisfied.
func IsOutOfStock(err error) bool {
	return errors.Is(err, ErrOutOfStock)
}

// IsConflict returns true if the error reports a state conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrCartConflict) ||
		errors.Is(err, ErrActiveCartExists) ||
		errors.Is(err, ErrCartNotActive) ||
		errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrCouponCodeTaken)
}

// IsRetryable returns true if the error is temporary and the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrCartConflict) ||
		errors.Is(err, ErrStoreNotReady) ||
		errors.Is(err, ErrCouponCheckUnavailable)
}
