package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"

	"github.com/xraph/commerce"
	"github.com/xraph/commerce/cart"
	"github.com/xraph/commerce/id"
	"github.com/xraph/commerce/types"
)

// addToCartRequest is the JSON body for POST /businesses/{businessID}/cart/items.
type addToCartRequest struct {
	Kind        string         `json:"kind"`
	ItemID      string         `json:"item_id"`
	Quantity    int64          `json:"quantity"`
	Channel     string         `json:"channel,omitempty"`
	ContactID   string         `json:"contact_id,omitempty"`
	AnonymousID string         `json:"anonymous_id,omitempty"`
	Schedule    *cart.Schedule `json:"schedule,omitempty"`
}

type addToCartResponse struct {
	CartID      string     `json:"cart_id"`
	AnonymousID string     `json:"anonymous_id,omitempty"`
	Cart        *cart.Cart `json:"cart"`
}

// updateCartItemRequest is the JSON body for PATCH /cart-items/{itemID}.
type updateCartItemRequest struct {
	Quantity int64 `json:"quantity"`
}

type successResponse struct {
	Success bool `json:"success"`
}

// GetCart handles GET /businesses/{businessID}/cart.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	buyer, _, err := h.identity(r, q.Get("channel"), q.Get("contact_id"), q.Get("anonymous_id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	c, err := h.engine.GetActiveCart(r.Context(), chi.URLParam(r, "businessID"), buyer)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// AddToCart handles POST /businesses/{businessID}/cart/items.
// A storefront request without any identity gets a fresh anonymous id,
// returned in the body and the X-Anonymous-ID header.
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req addToCartRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	channel := h.channel(r, req.Channel)
	anonymousID := req.AnonymousID
	if anonymousID == "" {
		anonymousID = r.Header.Get(HeaderAnonymousID)
	}
	if channel == cart.ChannelStorefront && strings.TrimSpace(req.ContactID) == "" && strings.TrimSpace(anonymousID) == "" {
		anonymousID = h.newID()
	}

	buyer, _, err := h.identity(r, string(channel), req.ContactID, anonymousID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	c, err := h.engine.AddToCart(r.Context(), commerce.AddToCartInput{
		BusinessID: chi.URLParam(r, "businessID"),
		Buyer:      buyer,
		Channel:    channel,
		Kind:       types.ItemKind(req.Kind),
		ItemID:     req.ItemID,
		Quantity:   req.Quantity,
		Schedule:   req.Schedule,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp := addToCartResponse{CartID: c.ID.String(), Cart: c}
	if buyer.Kind == cart.IdentityAnonymous {
		resp.AnonymousID = buyer.ID
		w.Header().Set(HeaderAnonymousID, buyer.ID)
	}
	writeJSON(w, http.StatusOK, resp)
}

// UpdateCartItem handles PATCH /cart-items/{itemID}.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	lineID, ok := h.pathID(w, r, "itemID", id.ParseCartItemID)
	if !ok {
		return
	}
	var req updateCartItemRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	status, _, err := h.engine.UpdateCartItem(r.Context(), lineID, req.Quantity)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

// RemoveCartItem handles DELETE /cart-items/{itemID}.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	lineID, ok := h.pathID(w, r, "itemID", id.ParseCartItemID)
	if !ok {
		return
	}
	if _, err := h.engine.RemoveCartItem(r.Context(), lineID); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// DeleteCart handles DELETE /carts/{cartID}. Staff requests cancel the
// cart; buyer requests abandon it.
func (h *Handler) DeleteCart(w http.ResponseWriter, r *http.Request) {
	cartID, ok := h.pathID(w, r, "cartID", id.ParseCartID)
	if !ok {
		return
	}

	var err error
	if r.Header.Get(HeaderStaffUserID) != "" {
		_, err = h.engine.CancelCart(r.Context(), cartID)
	} else {
		_, err = h.engine.DeleteCart(r.Context(), cartID)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// ──────────────────────────────────────────────────
// Request helpers
// ──────────────────────────────────────────────────

// channel picks the sales channel: explicit value first, then back office
// whenever a staff user header is present.
func (h *Handler) channel(r *http.Request, raw string) cart.Channel {
	if raw != "" {
		return cart.Channel(raw)
	}
	if r.Header.Get(HeaderStaffUserID) != "" {
		return cart.ChannelBackOffice
	}
	return cart.ChannelStorefront
}

func (h *Handler) identity(r *http.Request, rawChannel, contactID, anonymousID string) (cart.BuyerIdentity, cart.Channel, error) {
	channel := h.channel(r, rawChannel)
	if anonymousID == "" {
		anonymousID = r.Header.Get(HeaderAnonymousID)
	}
	buyer, err := cart.ResolveIdentity(channel, contactID, anonymousID, r.Header.Get(HeaderStaffUserID))
	if err != nil {
		if errors.Is(err, cart.ErrInvalidChannel) {
			return cart.BuyerIdentity{}, channel, commerce.NewValidationError("channel", "unknown channel", err)
		}
		return cart.BuyerIdentity{}, channel, commerce.NewValidationError("buyer", "buyer identity is required", err)
	}
	return buyer, channel, nil
}

// pathID parses a typed id URL parameter, writing a 400 when it is malformed.
func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, param string, parse func(string) (id.ID, error)) (id.ID, bool) {
	v, err := parse(chi.URLParam(r, param))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid "+param)
		return id.Nil, false
	}
	return v, true
}
