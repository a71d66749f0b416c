package handler

import (
	"log/slog"
	"net/http"

	"storefront/internal/cart"
	"storefront/internal/model"
)

// addItemRequest is the body of POST /api/cart/items.
// ReplaceCart answers the cross-store question up front.
type addItemRequest struct {
	Product     cart.Product `json:"product"`
	ProductID   model.ID     `json:"product_id"`
	StoreID     model.ID     `json:"store_id"`
	Quantity    int          `json:"quantity"`
	ReplaceCart bool         `json:"replace_cart"`
}

type quantityRequest struct {
	Quantity *int `json:"quantity"`
}

// handleGetCart returns the cart with its derived totals.
// GET /api/cart
func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.Cart.View())
}

// handleAddItem adds a product to the cart.
// POST /api/cart/items
func (h *Handler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if req.Product.ID.IsZero() {
		req.Product.ID = req.ProductID
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	h.logger.InfoContext(ctx, "adding to cart",
		slog.String("product_id", req.Product.ID.String()),
		slog.String("store_id", req.StoreID.String()),
		slog.Int("quantity", req.Quantity),
		slog.Bool("replace_cart", req.ReplaceCart),
	)

	res := h.Cart.Add(ctx, req.Product, req.StoreID, req.Quantity, cart.Always(req.ReplaceCart))
	h.writeCartResult(w, res)
}

// handleUpdateItem sets a line's quantity. 0 removes the line.
// PUT /api/cart/items/{store}/{product}
func (h *Handler) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	storeID, productID := model.ID(r.PathValue("store")), model.ID(r.PathValue("product"))

	var req quantityRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if req.Quantity == nil {
		h.writeError(w, model.NewValidationError("quantity", "Quantity is required"))
		return
	}

	res := h.Cart.UpdateQuantity(ctx, productID, storeID, *req.Quantity)
	h.writeCartResult(w, res)
}

// handleRemoveItem deletes a line.
// DELETE /api/cart/items/{store}/{product}
func (h *Handler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	res := h.Cart.Remove(r.Context(), model.ID(r.PathValue("product")), model.ID(r.PathValue("store")))
	h.writeCartResult(w, res)
}

// handleClearCart empties the cart.
// DELETE /api/cart
func (h *Handler) handleClearCart(w http.ResponseWriter, r *http.Request) {
	h.writeCartResult(w, h.Cart.Clear(r.Context()))
}

// handleSyncCart replaces the local cart with the server's.
// POST /api/cart/sync
func (h *Handler) handleSyncCart(w http.ResponseWriter, r *http.Request) {
	h.writeCartResult(w, h.Cart.Sync(r.Context()))
}

// handleCheckout places an order for the current cart.
// POST /api/checkout
func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var details cart.CheckoutDetails
	if err := decodeJSON(r, &details); err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "checkout requested", slog.Int("items", h.Cart.Count()))
	h.writeResult(w, h.Cart.Checkout(ctx, h.Session, details))
}

// cartResponse is a mutation outcome plus the cart after it.
type cartResponse struct {
	*model.Result
	Cart cart.Snapshot `json:"cart"`
}

func (h *Handler) writeCartResult(w http.ResponseWriter, res *model.Result) {
	h.writeJSON(w, res.HTTPStatus(), cartResponse{Result: res, Cart: h.Cart.View()})
}
