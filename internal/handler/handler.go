// Package handler provides the HTTP surface of the storefront gateway:
// REST routes for a UI and an MCP endpoint for agents.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"storefront/internal/cart"
	"storefront/internal/model"
	"storefront/internal/notify"
	"storefront/internal/session"
	"storefront/internal/storeapi"
	"storefront/internal/wishlist"
)

// Deps are the storefront components the handlers drive.
type Deps struct {
	Cart          *cart.Cart
	Wishlist      *wishlist.Wishlist
	Session       *session.Session
	Store         *storeapi.Client
	Notifications *notify.Buffer
	Metrics       http.Handler // optional, served at /metrics
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	Deps
	logger *slog.Logger
}

// New creates a new Handler.
func New(deps Deps, logger *slog.Logger) *Handler {
	return &Handler{Deps: deps, logger: logger}
}

// RegisterRoutes registers all HTTP routes with the given ServeMux.
// Uses Go 1.22+ method routing patterns.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Session
	mux.HandleFunc("GET /api/session", h.handleGetSession)
	mux.HandleFunc("POST /api/session/login", h.handleLogin)
	mux.HandleFunc("POST /api/session/logout", h.handleLogout)
	mux.HandleFunc("POST /api/session/guest", h.handleGuest)
	mux.HandleFunc("POST /api/session/signup", h.handleSignup)
	mux.HandleFunc("POST /api/session/verified", h.handleVerified)

	// Cart
	mux.HandleFunc("GET /api/cart", h.handleGetCart)
	mux.HandleFunc("POST /api/cart/items", h.handleAddItem)
	mux.HandleFunc("PUT /api/cart/items/{store}/{product}", h.handleUpdateItem)
	mux.HandleFunc("DELETE /api/cart/items/{store}/{product}", h.handleRemoveItem)
	mux.HandleFunc("DELETE /api/cart", h.handleClearCart)
	mux.HandleFunc("POST /api/cart/sync", h.handleSyncCart)
	mux.HandleFunc("POST /api/checkout", h.handleCheckout)

	// Wishlist
	mux.HandleFunc("GET /api/wishlist", h.handleGetWishlist)
	mux.HandleFunc("POST /api/wishlist:sync", h.handleSyncWishlist)
	mux.HandleFunc("POST /api/wishlist/{id}", h.handleAddWishlist)
	mux.HandleFunc("DELETE /api/wishlist/{id}", h.handleRemoveWishlist)

	// Catalog
	mux.HandleFunc("GET /api/categories", h.handleListCategories)
	mux.HandleFunc("GET /api/categories/{slug}", h.handleGetCategory)
	mux.HandleFunc("GET /api/categories/{category}/stores", h.handleStoresByCategory)
	mux.HandleFunc("GET /api/stores", h.handleListStores)
	mux.HandleFunc("GET /api/stores/{id}", h.handleGetStore)
	mux.HandleFunc("GET /api/stores/{id}/products", h.handleGetStoreProducts)
	mux.HandleFunc("GET /api/stores/{id}/reviews", h.handleGetStoreReviews)
	mux.HandleFunc("GET /api/products/{id}", h.handleGetProduct)
	mux.HandleFunc("GET /api/home", h.handleGetHome)

	// Account
	mux.HandleFunc("GET /api/account", h.handleGetAccount)
	mux.HandleFunc("PUT /api/account", h.handleUpdateAccount)
	mux.HandleFunc("PUT /api/account/password", h.handleUpdatePassword)
	mux.HandleFunc("GET /api/account/addresses", h.handleListAddresses)
	mux.HandleFunc("POST /api/account/addresses", h.handleCreateAddress)
	mux.HandleFunc("GET /api/account/addresses/{id}", h.handleGetAddress)
	mux.HandleFunc("PUT /api/account/addresses/{id}", h.handleUpdateAddress)
	mux.HandleFunc("DELETE /api/account/addresses/{id}", h.handleDeleteAddress)

	mux.HandleFunc("GET /api/notifications", h.handleNotifications)

	// MCP transport - JSON-RPC endpoint using official MCP SDK
	mux.Handle("/mcp", h.NewMCPHandler())

	if h.Metrics != nil {
		mux.Handle("GET /metrics", h.Metrics)
	}

	// Health check
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /healthz", h.handleHealth)
}

// === Response Helpers ===

// writeJSON sends a JSON response with the given status code.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeResult sends a storefront Result with the status its kind maps to.
func (h *Handler) writeResult(w http.ResponseWriter, res *model.Result) {
	h.writeJSON(w, res.HTTPStatus(), res)
}

// writeError sends a Go-level error as a failed Result.
// Uses errors.As() to unwrap error chains (e.g., fmt.Errorf wrapping).
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var modelErr *model.Error
	if !errors.As(err, &modelErr) {
		h.logger.Error("internal error", slog.String("error", err.Error()))
	}
	h.writeResult(w, model.FromError(err))
}

// MaxRequestBodySize limits JSON request bodies to 1MB to prevent DoS.
const MaxRequestBodySize = 1 << 20 // 1MB

// decodeJSON reads JSON from request body into v.
// Limits body size to MaxRequestBodySize to prevent memory exhaustion.
// Returns a validation error if decoding fails.
func decodeJSON(r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(nil, r.Body, MaxRequestBodySize)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		// Don't expose internal error details to client
		return model.NewValidationError("body", "invalid JSON")
	}
	return nil
}

// handleHealth returns a simple health check response.
// GET /health, GET /healthz
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

type healthResponse struct {
	Status string `json:"status"`
}

// handleNotifications drains pending user-facing messages.
// GET /api/notifications
func (h *Handler) handleNotifications(w http.ResponseWriter, r *http.Request) {
	pending := []notify.Notification{}
	if h.Notifications != nil {
		pending = h.Notifications.Drain()
	}
	h.writeJSON(w, http.StatusOK, notificationsResponse{Notifications: pending})
}

type notificationsResponse struct {
	Notifications []notify.Notification `json:"notifications"`
}
