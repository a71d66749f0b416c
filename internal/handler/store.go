package handler

import (
	"encoding/json"
	"net/http"

	"storefront/internal/storeapi"
)

// === Catalog ===

// GET /api/categories
func (h *Handler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	h.writeResult(w, h.Store.ListCategories(r.Context()))
}

// GET /api/categories/{slug}
func (h *Handler) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	h.writeResult(w, h.Store.GetCategory(r.Context(), r.PathValue("slug")))
}

// GET /api/categories/{category}/stores, by id or slug
func (h *Handler) handleStoresByCategory(w http.ResponseWriter, r *http.Request) {
	h.writeResult(w, h.Store.StoresByCategory(r.Context(), r.PathValue("category")))
}

// GET /api/stores
func (h *Handler) handleListStores(w http.ResponseWriter, r *http.Request) {
	h.writeResult(w, h.Store.ListStores(r.Context()))
}

// GET /api/products/{id}
func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	h.writeResult(w, h.Store.GetProduct(r.Context(), r.PathValue("id")))
}

// GET /api/stores/{id}
func (h *Handler) handleGetStore(w http.ResponseWriter, r *http.Request) {
	h.writeResult(w, h.Store.GetStore(r.Context(), r.PathValue("id")))
}

// GET /api/stores/{id}/products
func (h *Handler) handleGetStoreProducts(w http.ResponseWriter, r *http.Request) {
	h.writeResult(w, h.Store.GetStoreProducts(r.Context(), r.PathValue("id")))
}

// GET /api/stores/{id}/reviews
func (h *Handler) handleGetStoreReviews(w http.ResponseWriter, r *http.Request) {
	h.writeResult(w, h.Store.GetStoreReviews(r.Context(), r.PathValue("id")))
}

// GET /api/home
func (h *Handler) handleGetHome(w http.ResponseWriter, r *http.Request) {
	h.writeResult(w, h.Store.GetHomePage(r.Context()))
}

// === Account ===

// GET /api/account
func (h *Handler) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	h.writeResult(w, h.Store.GetAccount(r.Context()))
}

// PUT /api/account
func (h *Handler) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	var profile json.RawMessage
	if err := decodeJSON(r, &profile); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeResult(w, h.Store.UpdateAccount(r.Context(), profile))
}

// PUT /api/account/password
func (h *Handler) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	var change storeapi.PasswordChange
	if err := decodeJSON(r, &change); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeResult(w, h.Store.UpdatePassword(r.Context(), change))
}

// GET /api/account/addresses
func (h *Handler) handleListAddresses(w http.ResponseWriter, r *http.Request) {
	h.writeResult(w, h.Store.ListAddresses(r.Context()))
}

// POST /api/account/addresses
func (h *Handler) handleCreateAddress(w http.ResponseWriter, r *http.Request) {
	var addr storeapi.Address
	if err := decodeJSON(r, &addr); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeResult(w, h.Store.CreateAddress(r.Context(), addr))
}

// GET /api/account/addresses/{id}
func (h *Handler) handleGetAddress(w http.ResponseWriter, r *http.Request) {
	h.writeResult(w, h.Store.GetAddress(r.Context(), r.PathValue("id")))
}

// PUT /api/account/addresses/{id}
func (h *Handler) handleUpdateAddress(w http.ResponseWriter, r *http.Request) {
	var addr storeapi.Address
	if err := decodeJSON(r, &addr); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeResult(w, h.Store.UpdateAddress(r.Context(), r.PathValue("id"), addr))
}

// DELETE /api/account/addresses/{id}
func (h *Handler) handleDeleteAddress(w http.ResponseWriter, r *http.Request) {
	h.writeResult(w, h.Store.DeleteAddress(r.Context(), r.PathValue("id")))
}
