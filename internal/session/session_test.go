package session

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/model"
	"storefront/internal/notify"
	"storefront/internal/storage"
)

type mockBackend struct {
	LoginFunc    func(email, password string) *model.Result
	RegisterFunc func(payload interface{}) *model.Result
	LogoutFunc   func() *model.Result

	logoutCalls int
}

func (m *mockBackend) Login(_ context.Context, email, password string) *model.Result {
	if m.LoginFunc != nil {
		return m.LoginFunc(email, password)
	}
	return model.OK(nil)
}

func (m *mockBackend) Register(_ context.Context, payload interface{}) *model.Result {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(payload)
	}
	return model.OK(nil)
}

func (m *mockBackend) Logout(context.Context) *model.Result {
	m.logoutCalls++
	if m.LogoutFunc != nil {
		return m.LogoutFunc()
	}
	return model.OK(nil)
}

// storeTokens keeps the user token in the same store the session uses,
// like api.Client does.
type storeTokens struct {
	store storage.Store
	hooks []func()
}

func (s *storeTokens) UserToken(ctx context.Context) string {
	tok, _ := storage.GetString(ctx, s.store, storage.KeyAuthToken)
	return tok
}

func (s *storeTokens) SetUserToken(ctx context.Context, token string) error {
	return s.store.Set(ctx, storage.KeyAuthToken, []byte(token))
}

func (s *storeTokens) ClearUserToken(ctx context.Context) error {
	return s.store.Delete(ctx, storage.KeyAuthToken)
}

func (s *storeTokens) OnUserTokenExpired(fn func()) { s.hooks = append(s.hooks, fn) }

func (s *storeTokens) expire(ctx context.Context) {
	_ = s.ClearUserToken(ctx)
	for _, fn := range s.hooks {
		fn()
	}
}

type fixture struct {
	session *Session
	backend *mockBackend
	tokens  *storeTokens
	store   storage.Store
	notes   *notify.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := storage.NewMemory(0)
	f := &fixture{
		backend: &mockBackend{},
		tokens:  &storeTokens{store: store},
		store:   store,
		notes:   notify.NewBuffer(20),
	}
	f.session = f.restart()
	return f
}

func (f *fixture) restart() *Session {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.session = New(context.Background(), f.backend, f.tokens, f.store, logger, WithNotifier(f.notes))
	return f.session
}

func (f *fixture) has(key string) bool {
	_, err := f.store.Get(context.Background(), key)
	return err == nil
}

func TestLogin_TokenShapes(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		wantToken string
		wantID    model.ID
		wantName  string
	}{
		{
			name:      "nested data",
			payload:   `{"data":{"access_token":"tok-1","user":{"id":7,"firstname":"Ann","lastname":"Lee","email":"ann@example.com"}}}`,
			wantToken: "tok-1",
			wantID:    "7",
			wantName:  "Ann Lee",
		},
		{
			name:      "top level",
			payload:   `{"token":"tok-2","user":{"customer_id":"12","name":"Bo"}}`,
			wantToken: "tok-2",
			wantID:    "12",
			wantName:  "Bo",
		},
		{
			name:      "profile is data",
			payload:   `{"access_token":"tok-3","data":{"id":3,"username":"cee"}}`,
			wantToken: "tok-3",
			wantID:    "3",
			wantName:  "cee",
		},
		{
			name:      "flat body",
			payload:   `{"token":"tok-4","id":4,"email":"d@example.com"}`,
			wantToken: "tok-4",
			wantID:    "4",
			wantName:  "d@example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.backend.LoginFunc = func(string, string) *model.Result {
				return model.OK(json.RawMessage(tt.payload))
			}

			res := f.session.Login(context.Background(), "x@example.com", "secret")

			require.True(t, res.Success, res.Message)
			assert.Equal(t, tt.wantToken, f.tokens.UserToken(context.Background()))
			p, ok := f.session.Current()
			require.True(t, ok)
			assert.Equal(t, tt.wantID, p.ID)
			assert.Equal(t, tt.wantName, p.Name)
			assert.False(t, f.session.IsGuest())
			assert.True(t, f.session.IsAuthenticated(context.Background()))
			assert.True(t, f.has(storage.KeyUser))
		})
	}
}

func TestLogin_Failures(t *testing.T) {
	t.Run("rejected", func(t *testing.T) {
		f := newFixture(t)
		f.backend.LoginFunc = func(string, string) *model.Result {
			return model.Fail(model.FailureAuth, "Invalid credentials")
		}

		res := f.session.Login(context.Background(), "a@example.com", "bad")

		assert.False(t, res.Success)
		_, ok := f.session.Current()
		assert.False(t, ok)
		notes := f.notes.Drain()
		require.Len(t, notes, 1)
		assert.Equal(t, "Invalid credentials", notes[0].Message)
	})

	t.Run("no token", func(t *testing.T) {
		f := newFixture(t)
		f.backend.LoginFunc = func(string, string) *model.Result {
			return model.OK(json.RawMessage(`{"user":{"id":1}}`))
		}

		res := f.session.Login(context.Background(), "a@example.com", "pw")

		assert.Equal(t, model.FailureAuth, res.Kind)
		assert.Equal(t, MsgNoToken, res.Message)
		assert.False(t, f.has(storage.KeyUser))
	})

	t.Run("missing input", func(t *testing.T) {
		f := newFixture(t)
		assert.Equal(t, model.FailureValidation, f.session.Login(context.Background(), " ", "pw").Kind)
		assert.Equal(t, model.FailureValidation, f.session.Login(context.Background(), "a@example.com", "").Kind)
	})
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)
	called := false
	f.backend.RegisterFunc = func(interface{}) *model.Result {
		called = true
		return model.OK(nil)
	}

	res := f.session.Register(context.Background(), Signup{Email: "", Password: "abc", Confirm: "abd"})

	assert.False(t, called)
	assert.Equal(t, model.FailureValidation, res.Kind)
	assert.Equal(t, []string{MsgPasswordMatch}, res.Errors["confirm"])
	assert.Equal(t, []string{MsgEmailRequired}, res.Errors["email"])
	assert.Equal(t, []string{MsgPasswordShort}, res.Errors["password"])
	assert.Equal(t, MsgPasswordMatch+" "+MsgEmailRequired+" "+MsgPasswordShort, res.Message)
}

func TestRegister_Payload(t *testing.T) {
	f := newFixture(t)
	var sent map[string]interface{}
	f.backend.RegisterFunc = func(payload interface{}) *model.Result {
		raw, _ := json.Marshal(payload)
		_ = json.Unmarshal(raw, &sent)
		return model.OK(json.RawMessage(`{"customer_id":55}`))
	}

	res := f.session.Register(context.Background(), Signup{
		Firstname: "Ann",
		Lastname:  "Lee",
		Username:  "ann",
		Email:     " ann@example.com ",
		Telephone: "555",
		Password:  "secret1",
		Confirm:   "secret1",
	})

	require.True(t, res.Success)
	assert.Equal(t, "", sent["fax"])
	assert.Equal(t, "ann@example.com", sent["email"])
	assert.Equal(t, "secret1", sent["confirm"])
	for _, k := range []string{"firstname", "lastname", "username", "telephone", "password"} {
		assert.Contains(t, sent, k)
	}

	var pending Profile
	require.NoError(t, res.Decode(&pending))
	assert.Equal(t, "Ann Lee", pending.Name)

	_, ok := f.session.Current()
	assert.False(t, ok, "registration must not sign the user in")
}

func TestRegister_ServerFieldErrorsFlattened(t *testing.T) {
	f := newFixture(t)
	f.backend.RegisterFunc = func(interface{}) *model.Result {
		res := model.Fail(model.FailureValidation, "Validation failed.")
		res.Errors = map[string][]string{
			"email":    {"E-Mail Address is already registered!"},
			"username": {"Username taken"},
		}
		return res
	}

	res := f.session.Register(context.Background(), Signup{Email: "a@b.c", Password: "secret", Confirm: "secret"})

	assert.False(t, res.Success)
	assert.Equal(t, "E-Mail Address is already registered! Username taken", res.Message)
}

func TestCompleteSignup(t *testing.T) {
	f := newFixture(t)

	res := f.session.CompleteSignup(context.Background(), Profile{ID: "9", Firstname: "Ann", Email: "ann@example.com"}, "tok")

	require.True(t, res.Success)
	p, ok := f.session.Current()
	require.True(t, ok)
	assert.Equal(t, "Ann", p.Name)
	assert.True(t, f.session.IsAuthenticated(context.Background()))
}

func TestGuest(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.tokens.SetUserToken(context.Background(), "old"))

	res := f.session.ContinueAsGuest(context.Background())

	require.True(t, res.Success)
	p, _ := f.session.Current()
	assert.Equal(t, Guest, p)
	assert.True(t, f.session.IsGuest())
	assert.False(t, f.session.IsAuthenticated(context.Background()))
	assert.Empty(t, f.tokens.UserToken(context.Background()))

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"guest","name":"Guest","isGuest":true}`, string(out))
}

func TestLogout_KeepsClientToken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.store.Set(ctx, storage.KeyClientToken, []byte("client")))
	f.backend.LoginFunc = func(string, string) *model.Result {
		return model.OK(json.RawMessage(`{"access_token":"user","user":{"id":1}}`))
	}
	f.session.Login(ctx, "a@example.com", "pw")

	f.backend.LogoutFunc = func() *model.Result { return model.Fail(model.FailureNetwork, "offline") }
	res := f.session.Logout(ctx)

	assert.True(t, res.Success)
	assert.Equal(t, 1, f.backend.logoutCalls)
	assert.False(t, f.has(storage.KeyUser))
	assert.False(t, f.has(storage.KeyAuthToken))
	assert.True(t, f.has(storage.KeyClientToken))
	_, ok := f.session.Current()
	assert.False(t, ok)
}

func TestLogout_GuestSkipsBackend(t *testing.T) {
	f := newFixture(t)
	f.session.ContinueAsGuest(context.Background())

	f.session.Logout(context.Background())

	assert.Zero(t, f.backend.logoutCalls)
}

func TestRestoreAndCorruptProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.session.CompleteSignup(ctx, Profile{ID: "1", Email: "a@example.com"}, "")

	restored := f.restart()
	p, ok := restored.Current()
	require.True(t, ok)
	assert.Equal(t, model.ID("1"), p.ID)

	require.NoError(t, f.store.Set(ctx, storage.KeyUser, []byte(`{"id":`)))
	corrupt := f.restart()
	_, ok = corrupt.Current()
	assert.False(t, ok)
}

func TestUserTokenExpiryDropsProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.session.CompleteSignup(ctx, Profile{ID: "1", Email: "a@example.com"}, "tok")

	f.tokens.expire(ctx)

	_, ok := f.session.Current()
	assert.False(t, ok)
	assert.False(t, f.has(storage.KeyUser))
}

func TestTokenExpiry(t *testing.T) {
	ctx := context.Background()
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-key"))
	require.NoError(t, err)

	f := newFixture(t)
	require.NoError(t, f.tokens.SetUserToken(ctx, signed))
	got, ok := f.session.TokenExpiry(ctx)
	require.True(t, ok)
	assert.True(t, exp.Equal(got))

	require.NoError(t, f.tokens.SetUserToken(ctx, "opaque-token"))
	_, ok = f.session.TokenExpiry(ctx)
	assert.False(t, ok)

	require.NoError(t, f.tokens.ClearUserToken(ctx))
	_, ok = f.session.TokenExpiry(ctx)
	assert.False(t, ok)
}
