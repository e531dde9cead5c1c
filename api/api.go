// Package api exposes the cart, coupon and checkout operations over HTTP.
package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/xraph/commerce"
)

// Header names used by the cart endpoints.
const (
	HeaderStaffUserID = "X-Staff-User-ID"
	HeaderAnonymousID = "X-Anonymous-ID"
)

// Handler holds all API handler state.
type Handler struct {
	engine *commerce.Commerce
	logger *slog.Logger
	newID  func() string
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger used for server faults.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

// WithAnonymousIDGenerator overrides how anonymous session ids are minted.
func WithAnonymousIDGenerator(fn func() string) Option {
	return func(h *Handler) { h.newID = fn }
}

// NewHandler creates a new API handler.
func NewHandler(engine *commerce.Commerce, opts ...Option) *Handler {
	h := &Handler{
		engine: engine,
		logger: slog.Default(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes mounts the commerce routes.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/businesses/{businessID}", func(r chi.Router) {
		r.Get("/cart", h.GetCart)
		r.Post("/cart/items", h.AddToCart)
	})

	r.Patch("/cart-items/{itemID}", h.UpdateCartItem)
	r.Delete("/cart-items/{itemID}", h.RemoveCartItem)

	r.Delete("/carts/{cartID}", h.DeleteCart)
	r.Post("/carts/{cartID}/coupon", h.ApplyCoupon)
	r.Delete("/carts/{cartID}/coupon", h.RemoveCoupon)
	r.Post("/carts/{cartID}/checkout", h.Checkout)

	r.Get("/orders/{orderID}", h.GetOrder)

	r.Get("/health", h.Health)
}

// Router returns a standalone router with the commerce routes and the
// standard middleware stack.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	h.Routes(r)
	return r
}

// Health reports whether the backing store is reachable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Store().Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ──────────────────────────────────────────────────
// Response helpers
// ──────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // client went away
	}
}

func writeError(w http.ResponseWriter, status int, errType, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": message,
			"type":    errType,
			"code":    status,
		},
	})
}

// fail maps an engine error onto a status code and error envelope.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, commerce.ErrInvalidItemKind):
		h.logger.Error("invalid item kind", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal server error")
	case commerce.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", message(err))
	case commerce.IsValidation(err):
		writeError(w, http.StatusBadRequest, "invalid_request", message(err))
	case commerce.IsConflict(err):
		writeError(w, http.StatusConflict, "conflict", message(err))
	case commerce.IsRetryable(err):
		h.logger.Warn("request temporarily unavailable", "path", r.URL.Path, "error", err)
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, "unavailable", "service temporarily unavailable")
	default:
		h.logger.Error("request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal server error")
	}
}

// message prefers the human-readable text of a ValidationError.
func message(err error) string {
	var ve commerce.ValidationError
	if errors.As(err, &ve) && ve.Message != "" {
		return ve.Message
	}
	return err.Error()
}

func decode(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return commerce.NewValidationError("body", "invalid JSON body", commerce.ErrInvalidInput)
	}
	return nil
}
