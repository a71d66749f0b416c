// Package api is the storefront's HTTP layer. It injects bearer tokens,
// refreshes the client-credentials token once on 401, and turns every
// outcome into a *model.Result.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"storefront/internal/metrics"
	"storefront/internal/model"
	"storefront/internal/notify"
	"storefront/internal/storage"
)

const (
	pathClientToken = "/oauth2/token/client_credentials"
	maxBodyBytes    = 4 << 20

	// HeaderRequestID is sent on every backend request.
	HeaderRequestID = "X-Request-ID"
)

// AuthMode selects which bearer token a request carries.
type AuthMode int

const (
	// AuthAuto prefers the user token and falls back to the client token.
	AuthAuto AuthMode = iota
	// AuthClient always uses the client-credentials token.
	AuthClient
	// AuthUser requires a user token and fails closed without one.
	AuthUser
	// AuthNone sends no bearer.
	AuthNone
)

func (m AuthMode) String() string {
	switch m {
	case AuthClient:
		return "client"
	case AuthUser:
		return "user"
	case AuthNone:
		return "none"
	default:
		return "auto"
	}
}

// Request describes one backend call. Path is relative to the base URL.
type Request struct {
	Method string
	Path   string
	Body   interface{} // marshaled as JSON; json.RawMessage is sent as is
	Header http.Header // per-call overrides
	Auth   AuthMode
	Silent bool // suppress failure notifications
}

// Config is the backend connection configuration.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
	Transport    http.RoundTripper
	RateLimit    float64 // requests per second, 0 = unlimited
	RateBurst    int
}

// Client talks to the storefront REST backend.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	store        storage.Store
	logger       *slog.Logger
	notifier     notify.Notifier
	metrics      metrics.Recorder
	limiter      *rate.Limiter

	tokenFlight singleflight.Group

	mu        sync.RWMutex
	onExpired []func()
}

// Option configures a Client.
type Option func(*Client)

// WithNotifier routes failure notifications to n.
func WithNotifier(n notify.Notifier) Option {
	return func(c *Client) { c.notifier = n }
}

// WithMetrics records request metrics into r.
func WithMetrics(r metrics.Recorder) Option {
	return func(c *Client) { c.metrics = r }
}

// WithHTTPClient replaces the HTTP client built from Config.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a client. Tokens are read from and written to store.
func New(cfg Config, store storage.Store, logger *slog.Logger, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		httpClient:   &http.Client{Timeout: timeout, Transport: cfg.Transport},
		store:        store,
		logger:       logger,
		notifier:     notify.Discard,
		metrics:      metrics.Nop{},
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get is shorthand for a GET with the given auth mode.
func (c *Client) Get(ctx context.Context, path string, auth AuthMode) *model.Result {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Auth: auth})
}

// Post is shorthand for a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body interface{}, auth AuthMode) *model.Result {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body, Auth: auth})
}

// Put is shorthand for a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body interface{}, auth AuthMode) *model.Result {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body, Auth: auth})
}

// Delete is shorthand for a DELETE.
func (c *Client) Delete(ctx context.Context, path string, auth AuthMode) *model.Result {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path, Auth: auth})
}

// Do performs req and never panics. Failures are announced through the
// notifier unless req.Silent is set.
func (c *Client) Do(ctx context.Context, req Request) (res *model.Result) {
	defer func() {
		if rec := recover(); rec != nil {
			c.logger.Error("panic during backend request",
				slog.String("method", req.Method),
				slog.String("path", req.Path),
				slog.Any("panic", rec),
			)
			res = model.Fail(model.FailureInternal, MsgUnexpected)
		}
		if !req.Silent {
			notifyFailure(c.notifier, res)
		}
	}()

	return c.do(ctx, req)
}

func (c *Client) do(ctx context.Context, req Request) *model.Result {
	if req.Method == "" {
		req.Method = http.MethodGet
	}

	token, usedUser, failed := c.selectToken(ctx, req)
	if failed != nil {
		return failed
	}

	res := c.send(ctx, req, token)
	if res.Status != http.StatusUnauthorized || token == "" {
		return res
	}

	// User-scoped endpoints cannot be satisfied by a client token.
	if req.Auth == AuthUser {
		c.expireUserToken(ctx)
		return res
	}

	c.logger.Info("backend rejected token, refreshing client token",
		slog.String("path", req.Path),
		slog.Bool("user_token", usedUser),
	)
	fresh, err := c.RefreshClientToken(ctx)
	if err != nil {
		if usedUser {
			c.expireUserToken(ctx)
		}
		return tokenFailure(err)
	}

	retry := c.send(ctx, req, fresh)
	if retry.Status == http.StatusUnauthorized && usedUser {
		c.expireUserToken(ctx)
	}
	return retry
}

// selectToken picks the bearer for req. A non-nil Result means the request
// must not be sent.
func (c *Client) selectToken(ctx context.Context, req Request) (token string, usedUser bool, failed *model.Result) {
	if isTokenPath(req.Path) || req.Auth == AuthNone {
		return "", false, nil
	}

	if req.Auth == AuthAuto || req.Auth == AuthUser {
		if ut := c.UserToken(ctx); ut != "" {
			return ut, true, nil
		}
		if req.Auth == AuthUser {
			return "", false, model.Fail(model.FailureAuth, MsgUserAuthMissing)
		}
	}

	ct, err := c.ClientToken(ctx)
	if err != nil {
		return "", false, tokenFailure(err)
	}
	return ct, false, nil
}

func tokenFailure(err error) *model.Result {
	if errors.Is(err, errTransport) {
		return model.Fail(model.FailureNetwork, MsgNetwork)
	}
	res := model.Fail(model.FailureAuth, MsgClientAuth)
	res.Status = http.StatusUnauthorized
	return res
}

// send performs a single HTTP exchange with the given bearer.
func (c *Client) send(ctx context.Context, req Request, token string) *model.Result {
	httpReq, err := c.newRequest(ctx, req, token)
	if err != nil {
		c.logger.Error("building backend request",
			slog.String("path", req.Path),
			slog.String("error", err.Error()),
		)
		return model.Fail(model.FailureInternal, MsgUnexpected)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return model.Fail(model.FailureNetwork, MsgNetwork)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.RecordRequest(req.Method, 0, time.Since(start))
		c.logger.Warn("backend unreachable",
			slog.String("method", req.Method),
			slog.String("path", req.Path),
			slog.String("request_id", httpReq.Header.Get(HeaderRequestID)),
			slog.String("error", err.Error()),
		)
		return model.Fail(model.FailureNetwork, MsgNetwork)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	elapsed := time.Since(start)
	c.metrics.RecordRequest(req.Method, resp.StatusCode, elapsed)
	if err != nil {
		return model.Fail(model.FailureNetwork, MsgNetwork)
	}

	c.logger.Debug("backend response",
		slog.String("method", req.Method),
		slog.String("path", req.Path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", elapsed),
		slog.String("request_id", httpReq.Header.Get(HeaderRequestID)),
	)

	res := toResult(resp.StatusCode, body)
	if !res.Success && resp.StatusCode >= 400 {
		c.logger.Warn("backend error response",
			slog.String("method", req.Method),
			slog.String("path", req.Path),
			slog.Int("status", resp.StatusCode),
			slog.String("message", res.Message),
		)
	}
	return res
}

func (c *Client) newRequest(ctx context.Context, req Request, token string) (*http.Request, error) {
	if !strings.HasPrefix(req.Path, "/") {
		return nil, fmt.Errorf("path %q must be absolute", req.Path)
	}

	var bodyReader io.Reader
	if req.Body != nil {
		var raw []byte
		switch b := req.Body.(type) {
		case json.RawMessage:
			raw = b
		case []byte:
			raw = b
		default:
			var err error
			raw, err = json.Marshal(b)
			if err != nil {
				return nil, fmt.Errorf("marshaling request: %w", err)
			}
		}
		bodyReader = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, bodyReader)
	if err != nil {
		return nil, err
	}

	if bodyReader != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(HeaderRequestID, uuid.NewString())
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	for k, vs := range req.Header {
		httpReq.Header.Del(k)
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	return httpReq, nil
}

func isTokenPath(path string) bool {
	return strings.Contains(path, "/oauth2/token")
}
