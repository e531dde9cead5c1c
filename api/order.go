package api

import (
	"net/http"

	"github.com/xraph/commerce/id"
)

// Checkout handles POST /carts/{cartID}/checkout.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	cartID, ok := h.pathID(w, r, "cartID", id.ParseCartID)
	if !ok {
		return
	}
	o, err := h.engine.Checkout(r.Context(), cartID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

// GetOrder handles GET /orders/{orderID}.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.pathID(w, r, "orderID", id.ParseOrderID)
	if !ok {
		return
	}
	o, err := h.engine.GetOrder(r.Context(), orderID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}
