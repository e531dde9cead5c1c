package api

import (
	"net/http"

	"github.com/xraph/commerce/id"
)

// applyCouponRequest is the JSON body for POST /carts/{cartID}/coupon.
type applyCouponRequest struct {
	Code string `json:"code"`
}

// ApplyCoupon handles POST /carts/{cartID}/coupon.
// A coupon with no eligible lines answers 200 with success false.
func (h *Handler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	cartID, ok := h.pathID(w, r, "cartID", id.ParseCartID)
	if !ok {
		return
	}
	var req applyCouponRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.engine.ApplyCoupon(r.Context(), cartID, req.Code)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// RemoveCoupon handles DELETE /carts/{cartID}/coupon.
func (h *Handler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	cartID, ok := h.pathID(w, r, "cartID", id.ParseCartID)
	if !ok {
		return
	}
	if _, err := h.engine.RemoveCoupon(r.Context(), cartID); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}
