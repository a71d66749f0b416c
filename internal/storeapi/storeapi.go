// Package storeapi wraps the storefront REST endpoints in typed calls.
package storeapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"storefront/internal/api"
	"storefront/internal/model"
)

// Endpoint paths.
const (
	pathStore       = "/store/"
	pathHomePage    = "/home_page_builder"
	pathAccount     = "/account"
	pathPassword    = "/account/password"
	pathAddress     = "/account/address"
	pathCart        = "/cart"
	pathCartEmpty   = "/cart/empty"
	pathWishlist    = "/wishlist"
	pathCheckout    = "/checkout"
	pathLogin       = "/login"
	pathLogout      = "/logout"
	pathRegister    = "/register"
	msgStoreMissing = "Store not found"
)

// Doer is the slice of api.Client this package needs.
type Doer interface {
	Do(ctx context.Context, req api.Request) *model.Result
}

// Client exposes the backend endpoints.
type Client struct {
	api          Doer
	logger       *slog.Logger
	mockFallback bool
}

// Option configures a Client.
type Option func(*Client)

// WithMockFallback serves built-in store data when the backend is
// unreachable. Development only.
func WithMockFallback(enabled bool) Option {
	return func(c *Client) { c.mockFallback = enabled }
}

// New creates a Client on top of the API layer.
func New(doer Doer, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{api: doer, logger: logger}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, auth api.AuthMode, silent bool) *model.Result {
	return c.api.Do(ctx, api.Request{
		Method: method,
		Path:   path,
		Body:   body,
		Auth:   auth,
		Silent: silent,
	})
}

// segment escapes one path element. Empty ids are rejected by callers.
func segment(id string) string {
	return url.PathEscape(strings.TrimSpace(id))
}

// === Store browsing ===

// GetStore fetches GET /store/:id.
func (c *Client) GetStore(ctx context.Context, id string) *model.Result {
	if strings.TrimSpace(id) == "" {
		return model.FromError(model.NewValidationError("store_id", "Invalid store id"))
	}

	res := c.do(ctx, http.MethodGet, pathStore+segment(id), nil, api.AuthAuto, c.mockFallback)
	if res.Success || !c.mockFallback {
		return res
	}

	c.logger.Warn("store request failed, serving mock data",
		slog.String("store_id", id),
		slog.String("message", res.Message),
	)
	if s, ok := mockStore(id); ok {
		return model.OKWith(s)
	}
	return model.Fail(model.FailureNotFound, msgStoreMissing)
}

// GetStoreProducts fetches GET /store/:id/products. With mock fallback a
// failed request yields an empty list.
func (c *Client) GetStoreProducts(ctx context.Context, id string) *model.Result {
	if strings.TrimSpace(id) == "" {
		return model.FromError(model.NewValidationError("store_id", "Invalid store id"))
	}

	res := c.do(ctx, http.MethodGet, pathStore+segment(id)+"/products", nil, api.AuthAuto, c.mockFallback)
	if res.Success || !c.mockFallback {
		return res
	}

	c.logger.Warn("products request failed, serving empty list",
		slog.String("store_id", id),
		slog.String("message", res.Message),
	)
	return model.OK(json.RawMessage(`[]`))
}

// storeReviews is the subset of a store payload that may carry reviews.
type storeReviews struct {
	Reviews      []json.RawMessage `json:"reviews"`
	Items        []json.RawMessage `json:"items"`
	TotalReviews json.RawMessage   `json:"total_reviews"`
}

// GetStoreReviews reads reviews embedded in the store payload. The backend
// has no dedicated reviews endpoint; anything unexpected yields an empty
// list.
func (c *Client) GetStoreReviews(ctx context.Context, id string) *model.Result {
	empty := model.OK(json.RawMessage(`[]`))

	res := c.do(ctx, http.MethodGet, pathStore+segment(id), nil, api.AuthAuto, true)
	if !res.Success {
		c.logger.Debug("store reviews unavailable",
			slog.String("store_id", id),
			slog.String("message", res.Message),
		)
		return empty
	}

	var sr storeReviews
	if err := res.Decode(&sr); err != nil {
		return empty
	}
	switch {
	case len(sr.Reviews) > 0:
		return model.OKWith(sr.Reviews)
	case len(sr.Items) > 0:
		return model.OKWith(sr.Items)
	default:
		return empty
	}
}

// GetHomePage fetches the home page builder layout.
func (c *Client) GetHomePage(ctx context.Context) *model.Result {
	return c.do(ctx, http.MethodGet, pathHomePage, nil, api.AuthAuto, false)
}

// === Authentication ===

// Login posts credentials with the client token.
func (c *Client) Login(ctx context.Context, email, password string) *model.Result {
	body := map[string]string{"email": email, "password": password}
	return c.do(ctx, http.MethodPost, pathLogin, body, api.AuthClient, true)
}

// Register posts a signup payload with the client token.
func (c *Client) Register(ctx context.Context, payload interface{}) *model.Result {
	return c.do(ctx, http.MethodPost, pathRegister, payload, api.AuthClient, true)
}

// Logout invalidates the user token server side.
func (c *Client) Logout(ctx context.Context) *model.Result {
	return c.do(ctx, http.MethodPost, pathLogout, nil, api.AuthUser, true)
}
