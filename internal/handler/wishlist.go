package handler

import (
	"net/http"

	"storefront/internal/model"
)

type wishlistResponse struct {
	*model.Result
	Items []model.ID `json:"items"`
}

// handleGetWishlist lists saved product ids.
// GET /api/wishlist
func (h *Handler) handleGetWishlist(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, wishlistResponse{Result: model.OK(nil), Items: h.Wishlist.Items()})
}

// handleSyncWishlist loads the server wishlist.
// POST /api/wishlist:sync
func (h *Handler) handleSyncWishlist(w http.ResponseWriter, r *http.Request) {
	h.writeWishlistResult(w, h.Wishlist.Load(r.Context()))
}

// handleAddWishlist saves a product.
// POST /api/wishlist/{id}
func (h *Handler) handleAddWishlist(w http.ResponseWriter, r *http.Request) {
	h.writeWishlistResult(w, h.Wishlist.Add(r.Context(), model.ID(r.PathValue("id"))))
}

// handleRemoveWishlist drops a saved product.
// DELETE /api/wishlist/{id}
func (h *Handler) handleRemoveWishlist(w http.ResponseWriter, r *http.Request) {
	h.writeWishlistResult(w, h.Wishlist.Remove(r.Context(), model.ID(r.PathValue("id"))))
}

func (h *Handler) writeWishlistResult(w http.ResponseWriter, res *model.Result) {
	h.writeJSON(w, res.HTTPStatus(), wishlistResponse{Result: res, Items: h.Wishlist.Items()})
}
