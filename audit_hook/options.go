package audithook

import "log/slog"

// Option configures an Extension.
type Option func(*Extension)

// actionCategory groups every audited action by the trail it belongs to.
var actionCategory = map[string]string{
	ActionCartCreated:    CategoryCart,
	ActionCartAbandoned:  CategoryCart,
	ActionCartCancelled:  CategoryCart,
	ActionItemAdded:      CategoryCart,
	ActionItemUpdated:    CategoryCart,
	ActionItemRemoved:    CategoryCart,
	ActionCouponApplied:  CategoryPromotion,
	ActionCouponRemoved:  CategoryPromotion,
	ActionCouponRejected: CategoryPromotion,
	ActionOrderPlaced:    CategorySales,
}

// WithLogger sets the logger used when the recorder fails.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extension) { e.logger = logger }
}

// WithActions records only the listed actions.
func WithActions(actions ...string) Option {
	return func(e *Extension) {
		e.enabled = make(map[string]bool, len(actions))
		for _, a := range actions {
			e.enabled[a] = true
		}
	}
}

// WithCategories records only actions in the listed categories, e.g.
// CategoryPromotion and CategorySales to keep coupon and order events but
// drop per-line cart churn.
func WithCategories(categories ...string) Option {
	return func(e *Extension) {
		keep := make(map[string]bool, len(categories))
		for _, c := range categories {
			keep[c] = true
		}
		e.enabled = make(map[string]bool)
		for action, category := range actionCategory {
			if keep[category] {
				e.enabled[action] = true
			}
		}
	}
}

// WithoutActions skips the listed actions. Applied after WithActions or
// WithCategories it narrows their selection further.
func WithoutActions(actions ...string) Option {
	return func(e *Extension) {
		if e.enabled == nil {
			e.enabled = make(map[string]bool, len(actionCategory))
			for action := range actionCategory {
				e.enabled[action] = true
			}
		}
		for _, a := range actions {
			delete(e.enabled, a)
		}
	}
}
