package commerce

import (
	"context"
	"strings"

	"github.com/go-faster/errors"

	"github.com/xraph/commerce/cart"
	"github.com/xraph/commerce/catalog"
	"github.com/xraph/commerce/id"
	"github.com/xraph/commerce/types"
)

// Update-cart-item outcomes.
const (
	ItemUpdated = "updated"
	ItemRemoved = "removed"
)

// errNoChange aborts a mutation without writing the cart.
var errNoChange = errors.New("commerce: no change")

// AddToCartInput describes an add-to-cart request.
type AddToCartInput struct {
	BusinessID string
	Buyer      cart.BuyerIdentity
	Channel    cart.Channel
	Kind       types.ItemKind
	ItemID     string
	Quantity   int64
	Schedule   *cart.Schedule
}

// ──────────────────────────────────────────────────
// Cart lookup
// ──────────────────────────────────────────────────

// GetOrCreateCart returns the buyer's active cart at the business, creating
// it when none exists.
func (e *Commerce) GetOrCreateCart(ctx context.Context, businessID string, buyer cart.BuyerIdentity, channel cart.Channel) (*cart.Cart, error) {
	if err := validateCartScope(businessID, buyer, channel); err != nil {
		return nil, err
	}
	c, _, err := e.findOrCreate(ctx, businessID, buyer, channel)
	return c, err
}

func validateCartScope(businessID string, buyer cart.BuyerIdentity, channel cart.Channel) error {
	if strings.TrimSpace(businessID) == "" {
		return ValidationError{Field: "business_id", Message: "is required", Err: ErrInvalidInput}
	}
	if !channel.Valid() {
		return ValidationError{Field: "channel", Message: "unknown channel", Err: ErrInvalidChannel}
	}
	if err := buyer.Validate(); err != nil {
		return ValidationError{Field: "buyer", Message: "buyer identity is required", Err: ErrMissingBuyerIdentity}
	}
	if channel == cart.ChannelBackOffice && buyer.Kind != cart.IdentityStaff {
		return ValidationError{Field: "buyer", Message: "back office carts require a staff user", Err: ErrMissingBuyerIdentity}
	}
	return nil
}

// findOrCreate loads the active cart or creates it. Losing a creation race
// falls back to reading the winner.
func (e *Commerce) findOrCreate(ctx context.Context, businessID string, buyer cart.BuyerIdentity, channel cart.Channel) (*cart.Cart, bool, error) {
	c, err := e.store.FindActiveCart(ctx, businessID, buyer)
	if err == nil {
		return c, false, nil
	}
	if !errors.Is(err, ErrCartNotFound) {
		return nil, false, err
	}

	c = &cart.Cart{
		ID:         id.NewCartID(),
		BusinessID: businessID,
		Buyer:      buyer,
		Channel:    channel,
		Status:     cart.StatusActive,
	}
	c.Stamp(e.clock())
	c.Recompute()

	if err := e.store.CreateCart(ctx, c); err != nil {
		if errors.Is(err, ErrActiveCartExists) {
			existing, findErr := e.store.FindActiveCart(ctx, businessID, buyer)
			return existing, false, findErr
		}
		return nil, false, err
	}

	e.logger.Info("cart created",
		"cart_id", c.ID.String(),
		"business_id", businessID,
		"identity", buyer.Key(),
		"channel", channel,
	)
	e.plugins.EmitCartCreated(ctx, c)

	return c, true, nil
}

// mutate runs a read-modify-write on one cart. load is re-run on every
// attempt; fn must be safe to repeat. A write that loses the optimistic
// version race is retried up to the configured limit.
func (e *Commerce) mutate(ctx context.Context, load func(context.Context) (*cart.Cart, error), fn func(*cart.Cart) error) (*cart.Cart, error) {
	for attempt := 0; ; attempt++ {
		c, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if !c.IsActive() {
			return nil, ValidationError{Field: "cart", Message: "cart is not active", Err: ErrCartNotActive}
		}

		if err := fn(c); err != nil {
			if errors.Is(err, errNoChange) {
				return c, nil
			}
			return nil, err
		}

		c.Recompute()
		c.Stamp(e.clock())

		err = e.store.UpdateCart(ctx, c)
		if err == nil {
			return c, nil
		}
		if IsRetryable(err) && attempt < e.retries {
			e.logger.Debug("cart write conflict, retrying",
				"cart_id", c.ID.String(),
				"attempt", attempt+1,
			)
			continue
		}
		return nil, err
	}
}

// ──────────────────────────────────────────────────
// Cart operations
// ──────────────────────────────────────────────────

// AddToCart adds an item to the buyer's active cart, creating the cart if
// needed. Re-adding an item overwrites its line with the new quantity.
func (e *Commerce) AddToCart(ctx context.Context, in AddToCartInput) (*cart.Cart, error) {
	if in.Channel == "" {
		in.Channel = cart.ChannelStorefront
	}
	if err := validateCartScope(in.BusinessID, in.Buyer, in.Channel); err != nil {
		return nil, err
	}

	itemID, err := catalog.ParseItemID(in.Kind, in.ItemID)
	if err != nil {
		if errors.Is(err, ErrInvalidItemKind) {
			e.logger.Error("add to cart: invalid item kind", "kind", in.Kind)
			return nil, err
		}
		return nil, ValidationError{Field: "item_id", Message: "invalid item id", Err: ErrInvalidInput}
	}

	view, err := e.resolveForBusiness(ctx, in.BusinessID, in.Kind, itemID)
	if err != nil {
		return nil, err
	}

	qty, err := view.ClampQuantity(in.Quantity)
	if err != nil {
		return nil, outOfStock(err)
	}
	price, err := view.Price(qty)
	if err != nil {
		e.logger.Error("add to cart: pricing failed", "kind", in.Kind, "error", err)
		return nil, err
	}

	var (
		line     cart.Item
		detached *couponDetach
	)
	load := func(ctx context.Context) (*cart.Cart, error) {
		c, _, err := e.findOrCreate(ctx, in.BusinessID, in.Buyer, in.Channel)
		return c, err
	}
	c, err := e.mutate(ctx, load, func(c *cart.Cart) error {
		now := e.clock()
		if existing := c.FindItem(in.Kind, view.ItemID); existing != nil {
			line = *existing
		} else {
			line = cart.Item{
				ID:        id.NewCartItemID(),
				Kind:      in.Kind,
				ItemID:    view.ItemID,
				CreatedAt: now,
			}
		}
		line.Name = view.Name
		line.ApplyPrice(price)
		if in.Schedule != nil {
			s := *in.Schedule
			line.Schedule = &s
		}
		line.UpdatedAt = now
		c.Upsert(line)

		var err error
		detached, err = e.revalidateCoupon(ctx, c)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.logger.Debug("cart item added",
		"cart_id", c.ID.String(),
		"line_id", line.ID.String(),
		"kind", in.Kind,
		"quantity", line.Quantity,
	)
	e.plugins.EmitCartItemAdded(ctx, c, &line)
	e.emitDetached(ctx, c, detached)

	return c, nil
}

// UpdateCartItem sets a line's quantity. A quantity of zero or less removes
// the line. Prices are recomputed from the current catalog, and products
// must have the full quantity in stock.
func (e *Commerce) UpdateCartItem(ctx context.Context, lineID id.CartItemID, quantity int64) (string, *cart.Cart, error) {
	if quantity <= 0 {
		c, err := e.RemoveCartItem(ctx, lineID)
		if err != nil {
			return "", nil, err
		}
		return ItemRemoved, c, nil
	}

	var (
		line     cart.Item
		detached *couponDetach
	)
	c, err := e.mutate(ctx, e.loadByItem(lineID), func(c *cart.Cart) error {
		existing := c.ItemByID(lineID)
		if existing == nil {
			return ErrCartItemNotFound
		}
		view, err := e.resolveForBusiness(ctx, c.BusinessID, existing.Kind, existing.ItemID)
		if err != nil {
			return err
		}
		qty := quantity
		if !existing.Kind.Stackable() {
			qty = 1
		}
		if err := view.CheckStock(qty); err != nil {
			return outOfStock(err)
		}
		price, err := view.Price(qty)
		if err != nil {
			e.logger.Error("update cart item: pricing failed", "kind", existing.Kind, "error", err)
			return err
		}

		line = *existing
		line.Name = view.Name
		line.ApplyPrice(price)
		line.UpdatedAt = e.clock()
		c.Upsert(line)

		detached, err = e.revalidateCoupon(ctx, c)
		return err
	})
	if err != nil {
		return "", nil, err
	}

	e.plugins.EmitCartItemUpdated(ctx, c, &line)
	e.emitDetached(ctx, c, detached)

	return ItemUpdated, c, nil
}

// RemoveCartItem deletes a line from its cart.
func (e *Commerce) RemoveCartItem(ctx context.Context, lineID id.CartItemID) (*cart.Cart, error) {
	var detached *couponDetach
	c, err := e.mutate(ctx, e.loadByItem(lineID), func(c *cart.Cart) error {
		if !c.RemoveItem(lineID) {
			return ErrCartItemNotFound
		}
		var err error
		detached, err = e.revalidateCoupon(ctx, c)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.plugins.EmitCartItemRemoved(ctx, c, lineID)
	e.emitDetached(ctx, c, detached)

	return c, nil
}

// DeleteCart marks an active cart abandoned. Carts are never hard-deleted.
func (e *Commerce) DeleteCart(ctx context.Context, cartID id.CartID) (*cart.Cart, error) {
	c, err := e.mutate(ctx, e.loadCart(cartID), func(c *cart.Cart) error {
		c.Status = cart.StatusAbandoned
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("cart abandoned", "cart_id", c.ID.String(), "business_id", c.BusinessID)
	e.plugins.EmitCartAbandoned(ctx, c)

	return c, nil
}

// CancelCart marks an active cart cancelled. It is the staff-side
// counterpart of DeleteCart.
func (e *Commerce) CancelCart(ctx context.Context, cartID id.CartID) (*cart.Cart, error) {
	c, err := e.mutate(ctx, e.loadCart(cartID), func(c *cart.Cart) error {
		c.Status = cart.StatusCancelled
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("cart cancelled", "cart_id", c.ID.String(), "business_id", c.BusinessID)
	e.plugins.EmitCartCancelled(ctx, c)

	return c, nil
}

// GetActiveCart fetches the buyer's active cart. When the buyer is a known
// contact, no coupon is applied and none was explicitly removed, the newest
// qualifying auto-apply coupon is attached. Auto-apply failures never fail
// the read.
func (e *Commerce) GetActiveCart(ctx context.Context, businessID string, buyer cart.BuyerIdentity) (*cart.Cart, error) {
	if strings.TrimSpace(businessID) == "" {
		return nil, ValidationError{Field: "business_id", Message: "is required", Err: ErrInvalidInput}
	}
	if err := buyer.Validate(); err != nil {
		return nil, ValidationError{Field: "buyer", Message: "buyer identity is required", Err: ErrMissingBuyerIdentity}
	}

	c, err := e.store.FindActiveCart(ctx, businessID, buyer)
	if err != nil {
		return nil, err
	}

	if applied := e.tryAutoApply(ctx, c); applied != nil {
		return applied, nil
	}
	return c, nil
}

func (e *Commerce) loadCart(cartID id.CartID) func(context.Context) (*cart.Cart, error) {
	return func(ctx context.Context) (*cart.Cart, error) {
		return e.store.GetCart(ctx, cartID)
	}
}

func (e *Commerce) loadByItem(lineID id.CartItemID) func(context.Context) (*cart.Cart, error) {
	return func(ctx context.Context) (*cart.Cart, error) {
		return e.store.FindCartByItem(ctx, lineID)
	}
}

// resolveForBusiness resolves a catalog item and maps lookup failures to
// validation errors. Items of another business are reported as not found.
func (e *Commerce) resolveForBusiness(ctx context.Context, businessID string, kind types.ItemKind, itemID id.ID) (*catalog.PricingView, error) {
	view, err := e.resolver.Resolve(ctx, kind, itemID)
	switch {
	case err == nil:
	case errors.Is(err, ErrInvalidItemKind):
		e.logger.Error("resolve item: invalid item kind", "kind", kind)
		return nil, err
	case errors.Is(err, ErrItemUnavailable):
		return nil, ValidationError{Field: "item_id", Message: "item is not available", Err: err}
	case IsNotFound(err):
		return nil, ValidationError{Field: "item_id", Message: "item not found", Err: err}
	default:
		return nil, err
	}

	if view.BusinessID != businessID {
		return nil, ValidationError{Field: "item_id", Message: "item not found", Err: notFoundFor(kind)}
	}
	return view, nil
}

func notFoundFor(kind types.ItemKind) error {
	switch kind {
	case types.KindService:
		return ErrServiceNotFound
	case types.KindCombo:
		return ErrComboNotFound
	default:
		return ErrProductNotFound
	}
}

func outOfStock(err error) error {
	if errors.Is(err, ErrOutOfStock) {
		return ValidationError{Field: "quantity", Message: "out of stock", Err: ErrOutOfStock}
	}
	return err
}
