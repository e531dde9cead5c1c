package audithook

// Action constants for audit events.
const (
	// Cart actions
	ActionCartCreated   = "cart.created"
	ActionCartAbandoned = "cart.abandoned"
	ActionCartCancelled = "cart.cancelled"

	// Cart line actions
	ActionItemAdded   = "cart.item.added"
	ActionItemUpdated = "cart.item.updated"
	ActionItemRemoved = "cart.item.removed"

	// Coupon actions
	ActionCouponApplied  = "coupon.applied"
	ActionCouponRemoved  = "coupon.removed"
	ActionCouponRejected = "coupon.rejected"

	// Order actions
	ActionOrderPlaced = "order.placed"
)

// Resource constants for audit events.
const (
	ResourceCart     = "cart"
	ResourceCartItem = "cart_item"
	ResourceCoupon   = "coupon"
	ResourceOrder    = "order"
)

// Category constants for audit events.
const (
	CategoryCart      = "cart"
	CategoryPromotion = "promotion"
	CategorySales     = "sales"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
