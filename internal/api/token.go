package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"storefront/internal/model"
	"storefront/internal/storage"
)

var errTransport = errors.New("token endpoint unreachable")

type clientCredentialsRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	GrantType    string `json:"grant_type"`
}

// tokenPayload covers {"data":{"access_token":...}}, {"access_token":...}
// and {"token":...}.
type tokenPayload struct {
	AccessToken string `json:"access_token"`
	Token       string `json:"token"`
}

func (p tokenPayload) value() string {
	if p.AccessToken != "" {
		return p.AccessToken
	}
	return p.Token
}

// ClientToken returns the stored client-credentials token, fetching one
// when none is stored.
func (c *Client) ClientToken(ctx context.Context) (string, error) {
	tok, err := storage.GetString(ctx, c.store, storage.KeyClientToken)
	if err != nil {
		c.logger.Warn("reading client token", slog.String("error", err.Error()))
	}
	if tok != "" {
		return tok, nil
	}
	return c.RefreshClientToken(ctx)
}

// RefreshClientToken fetches a new client-credentials token and persists it,
// replacing any stored one. Concurrent callers share one network call.
func (c *Client) RefreshClientToken(ctx context.Context) (string, error) {
	v, err, shared := c.tokenFlight.Do(storage.KeyClientToken, func() (interface{}, error) {
		// One caller's cancellation must not fail the others waiting here.
		return c.fetchClientToken(context.WithoutCancel(ctx))
	})
	if err != nil {
		return "", err
	}
	if shared {
		c.logger.Debug("client token fetch shared")
	}
	return v.(string), nil
}

func (c *Client) fetchClientToken(ctx context.Context) (string, error) {
	res := c.send(ctx, Request{
		Method: http.MethodPost,
		Path:   pathClientToken,
		Body: clientCredentialsRequest{
			ClientID:     c.clientID,
			ClientSecret: c.clientSecret,
			GrantType:    "client_credentials",
		},
		Auth: AuthNone,
	}, "")

	if res.Kind == model.FailureNetwork {
		c.metrics.RecordTokenRefresh(false)
		return "", errTransport
	}
	if !res.Success {
		c.metrics.RecordTokenRefresh(false)
		c.logger.Error("client token request rejected",
			slog.Int("status", res.Status),
			slog.String("message", res.Message),
		)
		return "", model.NewUnauthorizedError(res.Message)
	}

	var payload tokenPayload
	if len(res.Data) > 0 {
		_ = json.Unmarshal(res.Data, &payload)
	}
	tok := payload.value()
	if tok == "" {
		c.metrics.RecordTokenRefresh(false)
		return "", model.NewUnauthorizedError("empty access token from token endpoint")
	}

	if err := c.store.Set(ctx, storage.KeyClientToken, []byte(tok)); err != nil {
		c.metrics.RecordTokenRefresh(false)
		return "", model.NewStorageError(storage.KeyClientToken, err)
	}

	c.metrics.RecordTokenRefresh(true)
	c.logger.Info("client token obtained")
	return tok, nil
}

// UserToken returns the stored user token or "".
func (c *Client) UserToken(ctx context.Context) string {
	tok, err := storage.GetString(ctx, c.store, storage.KeyAuthToken)
	if err != nil {
		c.logger.Warn("reading user token", slog.String("error", err.Error()))
		return ""
	}
	return tok
}

// SetUserToken persists the user token issued at login.
func (c *Client) SetUserToken(ctx context.Context, token string) error {
	if token == "" {
		return c.ClearUserToken(ctx)
	}
	if err := c.store.Set(ctx, storage.KeyAuthToken, []byte(token)); err != nil {
		return model.NewStorageError(storage.KeyAuthToken, err)
	}
	return nil
}

// ClearUserToken removes the user token. The client token is kept.
func (c *Client) ClearUserToken(ctx context.Context) error {
	if err := c.store.Delete(ctx, storage.KeyAuthToken); err != nil {
		return fmt.Errorf("clearing user token: %w", err)
	}
	return nil
}

// OnUserTokenExpired registers fn to run after the backend rejects the user
// token for good and it has been removed.
func (c *Client) OnUserTokenExpired(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onExpired = append(c.onExpired, fn)
}

func (c *Client) expireUserToken(ctx context.Context) {
	if err := c.ClearUserToken(ctx); err != nil {
		c.logger.Warn("expiring user token", slog.String("error", err.Error()))
	}
	c.logger.Info("user token expired")

	c.mu.RLock()
	hooks := append([]func(){}, c.onExpired...)
	c.mu.RUnlock()
	for _, fn := range hooks {
		fn()
	}
}
