package storeapi

import (
	"context"
	"net/http"

	"storefront/internal/api"
	"storefront/internal/model"
)

// Cart and wishlist calls are silent: the cart and wishlist layers decide
// what the user is told.

type addToCartRequest struct {
	ProductID model.ID `json:"product_id"`
	Quantity  int      `json:"quantity"`
	StoreID   model.ID `json:"store_id"`
}

type updateCartRequest struct {
	Key      model.ID `json:"key"`
	Quantity int      `json:"quantity"`
}

// AddToCart posts one line to the remote cart.
func (c *Client) AddToCart(ctx context.Context, productID, storeID model.ID, quantity int) *model.Result {
	body := addToCartRequest{ProductID: productID, Quantity: quantity, StoreID: storeID}
	return c.do(ctx, http.MethodPost, pathCart, body, api.AuthAuto, true)
}

// UpdateCart sets the quantity for the line keyed by product id.
func (c *Client) UpdateCart(ctx context.Context, key model.ID, quantity int) *model.Result {
	return c.do(ctx, http.MethodPut, pathCart, updateCartRequest{Key: key, Quantity: quantity}, api.AuthAuto, true)
}

// RemoveFromCart deletes the line keyed by product id.
func (c *Client) RemoveFromCart(ctx context.Context, key model.ID) *model.Result {
	return c.do(ctx, http.MethodDelete, pathCart+"/"+segment(key.String()), nil, api.AuthAuto, true)
}

// EmptyCart deletes every line.
func (c *Client) EmptyCart(ctx context.Context) *model.Result {
	return c.do(ctx, http.MethodDelete, pathCartEmpty, nil, api.AuthAuto, true)
}

// GetCart fetches the canonical remote cart.
func (c *Client) GetCart(ctx context.Context) *model.Result {
	return c.do(ctx, http.MethodGet, pathCart, nil, api.AuthAuto, true)
}

// SubmitCheckout places an order.
func (c *Client) SubmitCheckout(ctx context.Context, order interface{}) *model.Result {
	return c.do(ctx, http.MethodPost, pathCheckout, order, api.AuthAuto, true)
}

// GetWishlist fetches the remote wishlist.
func (c *Client) GetWishlist(ctx context.Context) *model.Result {
	return c.do(ctx, http.MethodGet, pathWishlist, nil, api.AuthAuto, true)
}

// AddToWishlist saves a product.
func (c *Client) AddToWishlist(ctx context.Context, productID model.ID) *model.Result {
	return c.do(ctx, http.MethodPost, pathWishlist+"/"+segment(productID.String()), nil, api.AuthAuto, true)
}

// RemoveFromWishlist drops a product.
func (c *Client) RemoveFromWishlist(ctx context.Context, productID model.ID) *model.Result {
	return c.do(ctx, http.MethodDelete, pathWishlist+"/"+segment(productID.String()), nil, api.AuthAuto, true)
}
