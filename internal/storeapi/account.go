package storeapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"storefront/internal/api"
	"storefront/internal/model"
)

// Address is passed through to the backend untouched.
type Address = json.RawMessage

// PasswordChange is the body of PUT /account/password.
type PasswordChange struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
	Confirm     string `json:"confirm"`
}

// GetAccount returns the signed-in user's profile.
func (c *Client) GetAccount(ctx context.Context) *model.Result {
	res := c.do(ctx, http.MethodGet, pathAccount, nil, api.AuthUser, false)
	if !res.Success {
		return res
	}

	var wrapped struct {
		User json.RawMessage `json:"user"`
	}
	if json.Unmarshal(res.Data, &wrapped) == nil && len(wrapped.User) > 0 && string(wrapped.User) != "null" {
		res.Data = wrapped.User
	}
	return res
}

// UpdateAccount sends profile changes.
func (c *Client) UpdateAccount(ctx context.Context, profile json.RawMessage) *model.Result {
	return c.do(ctx, http.MethodPut, pathAccount, profile, api.AuthUser, false)
}

// UpdatePassword changes the password.
func (c *Client) UpdatePassword(ctx context.Context, change PasswordChange) *model.Result {
	if change.OldPassword == "" {
		return model.FromError(model.NewValidationError("old_password", "Current password is required"))
	}
	if len(change.NewPassword) < 6 {
		return model.FromError(model.NewValidationError("new_password", "Password must be at least 6 characters"))
	}
	if change.NewPassword != change.Confirm {
		return model.FromError(model.NewValidationError("confirm", "Passwords do not match"))
	}
	return c.do(ctx, http.MethodPut, pathPassword, change, api.AuthUser, false)
}

// ListAddresses returns the user's addresses. Payloads that are not a list
// come back as an empty list.
func (c *Client) ListAddresses(ctx context.Context) *model.Result {
	res := c.do(ctx, http.MethodGet, pathAddress, nil, api.AuthUser, false)
	if !res.Success {
		return res
	}

	var list []json.RawMessage
	if err := json.Unmarshal(res.Data, &list); err != nil || list == nil {
		res.Data = json.RawMessage(`[]`)
	}
	return res
}

// GetAddress fetches one address.
func (c *Client) GetAddress(ctx context.Context, id string) *model.Result {
	id, bad := addressID(id)
	if bad != nil {
		return bad
	}
	return c.do(ctx, http.MethodGet, pathAddress+"/"+segment(id), nil, api.AuthUser, false)
}

// CreateAddress adds an address.
func (c *Client) CreateAddress(ctx context.Context, addr Address) *model.Result {
	return c.do(ctx, http.MethodPost, pathAddress, addr, api.AuthUser, false)
}

// UpdateAddress replaces an address.
func (c *Client) UpdateAddress(ctx context.Context, id string, addr Address) *model.Result {
	id, bad := addressID(id)
	if bad != nil {
		return bad
	}
	return c.do(ctx, http.MethodPut, pathAddress+"/"+segment(id), addr, api.AuthUser, false)
}

// DeleteAddress removes an address.
func (c *Client) DeleteAddress(ctx context.Context, id string) *model.Result {
	id, bad := addressID(id)
	if bad != nil {
		return bad
	}
	return c.do(ctx, http.MethodDelete, pathAddress+"/"+segment(id), nil, api.AuthUser, false)
}

func addressID(id string) (string, *model.Result) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", model.FromError(model.NewValidationError("address_id", "Invalid address id"))
	}
	return id, nil
}
