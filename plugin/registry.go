package plugin

import (
	"context"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/go-faster/errors"

	"github.com/xraph/commerce/cart"
	"github.com/xraph/commerce/coupon"
	"github.com/xraph/commerce/id"
	"github.com/xraph/commerce/order"
	"github.com/xraph/commerce/types"
)

// DefaultTimeout bounds a single plugin call.
const DefaultTimeout = 5 * time.Second

// ErrTimeout is returned when a plugin call outlives the registry timeout.
var ErrTimeout = errors.New("plugin: timeout")

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	// Type-cached plugin lists for efficient dispatch
	onInit            []OnInit
	onShutdown        []OnShutdown
	onCartCreated     []OnCartCreated
	onCartItemAdded   []OnCartItemAdded
	onCartItemUpdated []OnCartItemUpdated
	onCartItemRemoved []OnCartItemRemoved
	onCartAbandoned   []OnCartAbandoned
	onCartCancelled   []OnCartCancelled
	onCouponApplied   []OnCouponApplied
	onCouponRemoved   []OnCouponRemoved
	onCouponRejected  []OnCouponRejected
	onOrderPlaced     []OnOrderPlaced
	couponValidators  []CouponValidator
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-call plugin timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return errors.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnCartCreated); ok {
		r.onCartCreated = append(r.onCartCreated, v)
	}
	if v, ok := p.(OnCartItemAdded); ok {
		r.onCartItemAdded = append(r.onCartItemAdded, v)
	}
	if v, ok := p.(OnCartItemUpdated); ok {
		r.onCartItemUpdated = append(r.onCartItemUpdated, v)
	}
	if v, ok := p.(OnCartItemRemoved); ok {
		r.onCartItemRemoved = append(r.onCartItemRemoved, v)
	}
	if v, ok := p.(OnCartAbandoned); ok {
		r.onCartAbandoned = append(r.onCartAbandoned, v)
	}
	if v, ok := p.(OnCartCancelled); ok {
		r.onCartCancelled = append(r.onCartCancelled, v)
	}
	if v, ok := p.(OnCouponApplied); ok {
		r.onCouponApplied = append(r.onCouponApplied, v)
	}
	if v, ok := p.(OnCouponRemoved); ok {
		r.onCouponRemoved = append(r.onCouponRemoved, v)
	}
	if v, ok := p.(OnCouponRejected); ok {
		r.onCouponRejected = append(r.onCouponRejected, v)
	}
	if v, ok := p.(OnOrderPlaced); ok {
		r.onOrderPlaced = append(r.onOrderPlaced, v)
	}
	if v, ok := p.(CouponValidator); ok {
		r.couponValidators = append(r.couponValidators, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", r.getImplementedInterfaces(p),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnCartCreated)(nil)).Elem(), "OnCartCreated")
	checkInterface(reflect.TypeOf((*OnCartItemAdded)(nil)).Elem(), "OnCartItemAdded")
	checkInterface(reflect.TypeOf((*OnCartItemUpdated)(nil)).Elem(), "OnCartItemUpdated")
	checkInterface(reflect.TypeOf((*OnCartItemRemoved)(nil)).Elem(), "OnCartItemRemoved")
	checkInterface(reflect.TypeOf((*OnCartAbandoned)(nil)).Elem(), "OnCartAbandoned")
	checkInterface(reflect.TypeOf((*OnCartCancelled)(nil)).Elem(), "OnCartCancelled")
	checkInterface(reflect.TypeOf((*OnCouponApplied)(nil)).Elem(), "OnCouponApplied")
	checkInterface(reflect.TypeOf((*OnCouponRemoved)(nil)).Elem(), "OnCouponRemoved")
	checkInterface(reflect.TypeOf((*OnCouponRejected)(nil)).Elem(), "OnCouponRejected")
	checkInterface(reflect.TypeOf((*OnOrderPlaced)(nil)).Elem(), "OnOrderPlaced")
	checkInterface(reflect.TypeOf((*CouponValidator)(nil)).Elem(), "CouponValidator")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, engine)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitCartCreated emits a cart created event.
func (r *Registry) EmitCartCreated(ctx context.Context, c *cart.Cart) {
	r.mu.RLock()
	plugins := r.onCartCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnCartCreated(ctx, c)
		}); err != nil {
			r.logger.Warn("plugin OnCartCreated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitCartItemAdded emits a cart item added event.
func (r *Registry) EmitCartItemAdded(ctx context.Context, c *cart.Cart, item *cart.Item) {
	r.mu.RLock()
	plugins := r.onCartItemAdded
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnCartItemAdded(ctx, c, item)
		}); err != nil {
			r.logger.Warn("plugin OnCartItemAdded failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitCartItemUpdated emits a cart item updated event.
func (r *Registry) EmitCartItemUpdated(ctx context.Context, c *cart.Cart, item *cart.Item) {
	r.mu.RLock()
	plugins := r.onCartItemUpdated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnCartItemUpdated(ctx, c, item)
		}); err != nil {
			r.logger.Warn("plugin OnCartItemUpdated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitCartItemRemoved emits a cart item removed event.
func (r *Registry) EmitCartItemRemoved(ctx context.Context, c *cart.Cart, itemID id.CartItemID) {
	r.mu.RLock()
	plugins := r.onCartItemRemoved
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnCartItemRemoved(ctx, c, itemID)
		}); err != nil {
			r.logger.Warn("plugin OnCartItemRemoved failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitCartAbandoned emits a cart abandoned event.
func (r *Registry) EmitCartAbandoned(ctx context.Context, c *cart.Cart) {
	r.mu.RLock()
	plugins := r.onCartAbandoned
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnCartAbandoned(ctx, c)
		}); err != nil {
			r.logger.Warn("plugin OnCartAbandoned failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitCartCancelled emits a cart cancelled event.
func (r *Registry) EmitCartCancelled(ctx context.Context, c *cart.Cart) {
	r.mu.RLock()
	plugins := r.onCartCancelled
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnCartCancelled(ctx, c)
		}); err != nil {
			r.logger.Warn("plugin OnCartCancelled failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitCouponApplied emits a coupon applied event.
func (r *Registry) EmitCouponApplied(ctx context.Context, c *cart.Cart, cp *coupon.Coupon, discount types.Money) {
	r.mu.RLock()
	plugins := r.onCouponApplied
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnCouponApplied(ctx, c, cp, discount)
		}); err != nil {
			r.logger.Warn("plugin OnCouponApplied failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitCouponRemoved emits a coupon removed event.
func (r *Registry) EmitCouponRemoved(ctx context.Context, c *cart.Cart, couponID id.CouponID) {
	r.mu.RLock()
	plugins := r.onCouponRemoved
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnCouponRemoved(ctx, c, couponID)
		}); err != nil {
			r.logger.Warn("plugin OnCouponRemoved failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitCouponRejected emits a coupon rejected event.
func (r *Registry) EmitCouponRejected(ctx context.Context, c *cart.Cart, code, reason string) {
	r.mu.RLock()
	plugins := r.onCouponRejected
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnCouponRejected(ctx, c, code, reason)
		}); err != nil {
			r.logger.Warn("plugin OnCouponRejected failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitOrderPlaced emits an order placed event.
func (r *Registry) EmitOrderPlaced(ctx context.Context, o *order.Order) {
	r.mu.RLock()
	plugins := r.onOrderPlaced
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnOrderPlaced(ctx, o)
		}); err != nil {
			r.logger.Warn("plugin OnOrderPlaced failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// ValidateCoupon runs every CouponValidator and returns the first
// rejection. Each validator sees its own copy of the cart and coupon, since a
// call that times out keeps running after ValidateCoupon returns. A timeout
// or cancellation is reported as coupon.ErrCheckUnavailable.
func (r *Registry) ValidateCoupon(ctx context.Context, cp *coupon.Coupon, c *cart.Cart) error {
	r.mu.RLock()
	validators := r.couponValidators
	r.mu.RUnlock()

	for _, v := range validators {
		snapshot, cpCopy := c.Clone(), *cp
		err := r.callWithTimeout(ctx, v.Name(), func() error {
			return v.ValidateCoupon(ctx, &cpCopy, snapshot)
		})
		if err == nil {
			continue
		}
		if errors.Is(err, ErrTimeout) || ctx.Err() != nil {
			r.logger.Warn("coupon validator unavailable",
				"plugin", v.Name(),
				"error", err,
			)
			return errors.Wrapf(coupon.ErrCheckUnavailable, "validator %s: %v", v.Name(), err)
		}
		return err
	}
	return nil
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block a cart request.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(r.timeout):
		return errors.Wrapf(ErrTimeout, "plugin %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
