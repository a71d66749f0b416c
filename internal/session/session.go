// Package session tracks who is shopping: a signed-in account, a guest or
// nobody. It owns the persisted profile and drives the user token through
// the API layer.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"storefront/internal/model"
	"storefront/internal/notify"
	"storefront/internal/storage"
)

// User-facing session messages.
const (
	MsgLoginOK        = "Login successful"
	MsgLoginFailed    = "Login failed. Please check your credentials."
	MsgNoToken        = "Login failed: no token received."
	MsgRegistered     = "Registration successful. Please verify your email."
	MsgRegisterFailed = "Registration failed"
	MsgLoggedOut      = "Logged out"
	MsgGuest          = "Continuing as guest"
	MsgPasswordShort  = "Password must be at least 6 characters"
	MsgPasswordMatch  = "Passwords do not match"
	MsgEmailRequired  = "Email is required"
)

const minPasswordLen = 6

// Backend is the slice of storeapi.Client the session calls.
type Backend interface {
	Login(ctx context.Context, email, password string) *model.Result
	Register(ctx context.Context, payload interface{}) *model.Result
	Logout(ctx context.Context) *model.Result
}

// Tokens is the user-token half of api.Client.
type Tokens interface {
	UserToken(ctx context.Context) string
	SetUserToken(ctx context.Context, token string) error
	ClearUserToken(ctx context.Context) error
	OnUserTokenExpired(fn func())
}

// Profile is the shopper as the backend describes them.
type Profile struct {
	ID        model.ID `json:"id"`
	Firstname string   `json:"firstname,omitempty"`
	Lastname  string   `json:"lastname,omitempty"`
	Username  string   `json:"username,omitempty"`
	Email     string   `json:"email,omitempty"`
	Telephone string   `json:"telephone,omitempty"`
	Fax       string   `json:"fax,omitempty"`
	Name      string   `json:"name,omitempty"`
	Avatar    string   `json:"avatar,omitempty"`
	IsGuest   bool     `json:"isGuest,omitempty"`
}

// Guest is the profile used by ContinueAsGuest.
var Guest = Profile{ID: "guest", Name: "Guest", IsGuest: true}

// DisplayName is Name, else first and last name, else username or email.
func (p Profile) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	if full := strings.TrimSpace(p.Firstname + " " + p.Lastname); full != "" {
		return full
	}
	if p.Username != "" {
		return p.Username
	}
	return p.Email
}

// Signup is the registration form.
type Signup struct {
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Telephone string `json:"telephone"`
	Fax       string `json:"fax"`
	Password  string `json:"password"`
	Confirm   string `json:"confirm"`
}

// Session is safe for concurrent use.
type Session struct {
	backend  Backend
	tokens   Tokens
	store    storage.Store
	logger   *slog.Logger
	notifier notify.Notifier

	mu      sync.RWMutex
	current *Profile
}

// Option configures a Session.
type Option func(*Session)

// WithNotifier routes user-facing messages to n.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Session) { s.notifier = n }
}

// New restores the persisted profile and subscribes to user-token expiry.
func New(ctx context.Context, backend Backend, tokens Tokens, store storage.Store, logger *slog.Logger, opts ...Option) *Session {
	s := &Session{
		backend:  backend,
		tokens:   tokens,
		store:    store,
		logger:   logger,
		notifier: notify.Discard,
	}
	for _, opt := range opts {
		opt(s)
	}

	var p Profile
	found, err := storage.GetJSON(ctx, store, storage.KeyUser, &p)
	switch {
	case err != nil:
		logger.Warn("discarding unreadable saved profile", slog.String("error", err.Error()))
	case found:
		s.current = &p
	}

	tokens.OnUserTokenExpired(s.expire)
	return s
}

// Current returns the active profile, if any.
func (s *Session) Current() (Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Profile{}, false
	}
	return *s.current, true
}

// IsGuest reports whether nobody is signed in to an account, either in
// guest mode or with no profile at all.
func (s *Session) IsGuest() bool {
	p, ok := s.Current()
	return !ok || p.IsGuest
}

// IsAuthenticated reports whether an account is signed in with a token.
func (s *Session) IsAuthenticated(ctx context.Context) bool {
	p, ok := s.Current()
	return ok && !p.IsGuest && s.tokens.UserToken(ctx) != ""
}

// TokenExpiry reads the exp claim of the user token without verifying it.
// ok is false for opaque tokens or tokens without exp.
func (s *Session) TokenExpiry(ctx context.Context) (time.Time, bool) {
	tok := s.tokens.UserToken(ctx)
	if tok == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Login authenticates with email and password. On success the user token
// and profile are stored and the profile is returned as data.
func (s *Session) Login(ctx context.Context, email, password string) *model.Result {
	email = strings.TrimSpace(email)
	if email == "" {
		return model.FromError(model.NewValidationError("email", MsgEmailRequired))
	}
	if password == "" {
		return model.FromError(model.NewValidationError("password", "Password is required"))
	}

	res := s.backend.Login(ctx, email, password)
	if !res.Success {
		s.logger.Info("login rejected", slog.String("message", res.Message))
		s.notifier.Notify(notify.LevelError, flatten(res, MsgLoginFailed))
		return res
	}

	token, profile := parseLogin(res.Data)
	if token == "" {
		s.logger.Warn("login response carried no token")
		s.notifier.Notify(notify.LevelError, MsgNoToken)
		return model.Fail(model.FailureAuth, MsgNoToken)
	}
	if profile.Email == "" {
		profile.Email = email
	}

	if err := s.tokens.SetUserToken(ctx, token); err != nil {
		s.logger.Error("storing user token", slog.String("error", err.Error()))
		return model.FromError(err)
	}
	if err := s.setProfile(ctx, &profile); err != nil {
		return model.FromError(err)
	}

	s.logger.Info("logged in", slog.String("user_id", profile.ID.String()))
	s.notifier.Notify(notify.LevelSuccess, MsgLoginOK)
	out := model.OKWith(profile)
	out.Message = MsgLoginOK
	return out
}

// Register submits a signup. Success returns the pending profile as data;
// the shopper is not signed in until CompleteSignup.
func (s *Session) Register(ctx context.Context, form Signup) *model.Result {
	form.Email = strings.TrimSpace(form.Email)
	if errs := validateSignup(form); len(errs) > 0 {
		res := model.Fail(model.FailureValidation, strings.Join(errs.messages(), " "))
		res.Errors = errs
		s.notifier.Notify(notify.LevelError, res.Message)
		return res
	}

	res := s.backend.Register(ctx, form)
	if !res.Success {
		s.logger.Info("registration rejected", slog.String("message", res.Message))
		msg := flatten(res, MsgRegisterFailed)
		s.notifier.Notify(notify.LevelError, msg)
		res.Message = msg
		return res
	}

	pending := Profile{
		Firstname: form.Firstname,
		Lastname:  form.Lastname,
		Username:  form.Username,
		Email:     form.Email,
		Telephone: form.Telephone,
		Fax:       form.Fax,
	}
	var created Profile
	if res.Decode(&created) == nil && !created.ID.IsZero() {
		pending.ID = created.ID
	}
	pending.Name = pending.DisplayName()

	s.notifier.Notify(notify.LevelSuccess, MsgRegistered)
	out := model.OKWith(pending)
	out.Message = MsgRegistered
	return out
}

// CompleteSignup makes a verified profile current. token may be empty when
// verification did not issue one.
func (s *Session) CompleteSignup(ctx context.Context, profile Profile, token string) *model.Result {
	if profile.Email == "" && profile.ID.IsZero() {
		return model.FromError(model.NewValidationError("email", MsgEmailRequired))
	}
	profile.IsGuest = false
	if profile.Name == "" {
		profile.Name = profile.DisplayName()
	}

	if token != "" {
		if err := s.tokens.SetUserToken(ctx, token); err != nil {
			return model.FromError(err)
		}
	}
	if err := s.setProfile(ctx, &profile); err != nil {
		return model.FromError(err)
	}
	s.logger.Info("signup completed", slog.String("email", profile.Email))
	return model.OKWith(profile)
}

// ContinueAsGuest drops any user token and switches to the guest profile.
func (s *Session) ContinueAsGuest(ctx context.Context) *model.Result {
	if err := s.tokens.ClearUserToken(ctx); err != nil {
		s.logger.Warn("clearing user token", slog.String("error", err.Error()))
	}
	guest := Guest
	if err := s.setProfile(ctx, &guest); err != nil {
		return model.FromError(err)
	}
	s.notifier.Notify(notify.LevelInfo, MsgGuest)
	return model.OKWith(guest)
}

// Logout tells the backend when there is a user token, then always clears
// the profile and user token. The client token survives.
func (s *Session) Logout(ctx context.Context) *model.Result {
	if s.tokens.UserToken(ctx) != "" {
		if res := s.backend.Logout(ctx); !res.Success {
			s.logger.Warn("server logout failed", slog.String("message", res.Message))
		}
	}

	s.clear(ctx)
	s.logger.Info("logged out")
	s.notifier.Notify(notify.LevelInfo, MsgLoggedOut)
	res := model.OK(nil)
	res.Message = MsgLoggedOut
	return res
}

func (s *Session) clear(ctx context.Context) {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()

	if err := s.store.Delete(ctx, storage.KeyUser); err != nil {
		s.logger.Warn("clearing profile", slog.String("error", err.Error()))
	}
	if err := s.tokens.ClearUserToken(ctx); err != nil {
		s.logger.Warn("clearing user token", slog.String("error", err.Error()))
	}
}

// expire runs after the API layer has dropped a rejected user token.
func (s *Session) expire() {
	ctx := context.Background()
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
	if err := s.store.Delete(ctx, storage.KeyUser); err != nil {
		s.logger.Warn("clearing profile", slog.String("error", err.Error()))
	}
	s.logger.Info("session expired")
}

func (s *Session) setProfile(ctx context.Context, p *Profile) error {
	if err := storage.SetJSON(ctx, s.store, storage.KeyUser, p); err != nil {
		s.logger.Error("persisting profile", slog.String("error", err.Error()))
		return model.NewStorageError(storage.KeyUser, err)
	}
	s.mu.Lock()
	s.current = p
	s.mu.Unlock()
	return nil
}

type fieldErrors map[string][]string

func (f fieldErrors) add(field, msg string) { f[field] = append(f[field], msg) }

func (f fieldErrors) messages() []string {
	return (&model.Result{Errors: f}).FieldMessages()
}

func validateSignup(form Signup) fieldErrors {
	errs := fieldErrors{}
	if form.Email == "" {
		errs.add("email", MsgEmailRequired)
	}
	if len(form.Password) < minPasswordLen {
		errs.add("password", MsgPasswordShort)
	}
	if form.Password != form.Confirm {
		errs.add("confirm", MsgPasswordMatch)
	}
	return errs
}

// flatten joins field errors into one line, else the server message.
func flatten(res *model.Result, def string) string {
	if msgs := res.FieldMessages(); len(msgs) > 0 {
		return strings.Join(msgs, " ")
	}
	if res.Message != "" {
		return res.Message
	}
	return def
}

// loginPayload is one level of a login response.
type loginPayload struct {
	AccessToken string          `json:"access_token"`
	Token       string          `json:"token"`
	User        json.RawMessage `json:"user"`
	Data        json.RawMessage `json:"data"`
}

// parseLogin finds the token and profile in data, which is either the
// envelope's data object or the whole body.
func parseLogin(data json.RawMessage) (string, Profile) {
	var outer loginPayload
	if len(data) == 0 || json.Unmarshal(data, &outer) != nil {
		return "", Profile{}
	}

	var inner loginPayload
	hasInner := len(outer.Data) > 0 && json.Unmarshal(outer.Data, &inner) == nil

	token := firstNonEmpty(inner.AccessToken, inner.Token, outer.AccessToken, outer.Token)

	var profile Profile
	switch {
	case hasInner && decodeProfile(inner.User, &profile):
	case decodeProfile(outer.User, &profile):
	case hasInner && decodeProfile(outer.Data, &profile):
	default:
		decodeProfile(data, &profile)
	}
	return token, profile
}

func decodeProfile(raw json.RawMessage, p *Profile) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return false
	}
	var wire struct {
		Profile
		CustomerID model.ID `json:"customer_id"`
		UserID     model.ID `json:"user_id"`
	}
	if json.Unmarshal(raw, &wire) != nil {
		return false
	}
	*p = wire.Profile
	if p.ID.IsZero() {
		p.ID = firstID(wire.CustomerID, wire.UserID)
	}
	if p.Name == "" {
		p.Name = p.DisplayName()
	}
	return !p.ID.IsZero() || p.Email != "" || p.Name != ""
}

func firstNonEmpty(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}
	return ""
}

func firstID(ids ...model.ID) model.ID {
	for _, id := range ids {
		if !id.IsZero() {
			return id
		}
	}
	return ""
}
