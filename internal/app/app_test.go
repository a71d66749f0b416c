package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/cart"
	"storefront/internal/config"
	"storefront/internal/model"
	"storefront/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		Port:        "0",
		Environment: "development",
		API: config.APIConfig{
			BaseURL:      baseURL,
			ClientID:     "id",
			ClientSecret: "secret",
			Timeout:      5 * time.Second,
		},
		Storage: config.StorageConfig{Driver: "memory"},
	}
}

func TestNewWiresGatewayAgainstBackend(t *testing.T) {
	var tokenCalls, cartCalls atomic.Int32
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/oauth2/token/client_credentials":
			tokenCalls.Add(1)
			io.WriteString(w, `{"success":1,"data":{"access_token":"client-tok"}}`)
		case "/cart":
			cartCalls.Add(1)
			if r.Header.Get("Authorization") != "Bearer client-tok" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			io.WriteString(w, `{"success":1}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer backend.Close()

	a, err := New(context.Background(), testConfig(backend.URL), testLogger())
	require.NoError(t, err)
	defer a.Close()

	mux := http.NewServeMux()
	a.Handler().RegisterRoutes(mux)

	body := `{"product":{"id":3,"name":"Mug","price":"4.50"},"store_id":"S1","quantity":2}`
	req := httptest.NewRequest(http.MethodPost, "/api/cart/items", strings.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, int32(1), tokenCalls.Load())
	assert.Equal(t, int32(1), cartCalls.Load())
	assert.Equal(t, 2, a.Cart.Count())
	assert.Equal(t, 9.0, a.Cart.Total())

	var saved []cart.LineItem
	found, err := storage.GetJSON(context.Background(), a.Store, storage.KeyCart, &saved)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, saved, 1)
	assert.Equal(t, model.ID("3"), saved[0].Product.ID)
}

func TestNewFailureReachesNotifications(t *testing.T) {
	a, err := New(context.Background(), testConfig("http://127.0.0.1:1"), testLogger(),
		WithHTTPClient(&http.Client{Timeout: time.Second}))
	require.NoError(t, err)

	res := a.StoreAPI.GetHomePage(context.Background())
	assert.False(t, res.Success)
	assert.Equal(t, model.FailureNetwork, res.Kind)

	notes := a.Notifications.Drain()
	require.Len(t, notes, 1)
	assert.Equal(t, res.Message, notes[0].Message)
}

func TestNewRestoresFromStore(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory(0)
	require.NoError(t, storage.SetJSON(ctx, store, storage.KeyCart, []cart.LineItem{
		{Product: cart.Product{ID: "1", Name: "Pen", Price: 1.25}, StoreID: "A", Quantity: 4},
	}))
	require.NoError(t, storage.SetJSON(ctx, store, storage.KeyWishlist, []model.ID{"9"}))
	require.NoError(t, storage.SetJSON(ctx, store, storage.KeyUser, map[string]string{"id": "u1", "email": "a@b.c"}))

	a, err := New(ctx, testConfig("http://backend.invalid"), testLogger(), WithStore(store))
	require.NoError(t, err)

	assert.Equal(t, 4, a.Cart.Count())
	assert.True(t, a.Wishlist.Contains("9"))
	profile, ok := a.Session.Current()
	require.True(t, ok)
	assert.Equal(t, model.ID("u1"), profile.ID)
}

func TestNewUnknownDriver(t *testing.T) {
	cfg := testConfig("http://backend.invalid")
	cfg.Storage.Driver = "etcd"

	_, err := New(context.Background(), cfg, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening storage")
}

func TestNewAppliesStorageTTL(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig("http://backend.invalid")
	cfg.Storage.TTL = 20 * time.Millisecond

	a, err := New(ctx, cfg, testLogger())
	require.NoError(t, err)

	require.NoError(t, a.Store.Set(ctx, storage.KeyCart, []byte(`[]`)))
	time.Sleep(60 * time.Millisecond)

	_, err = a.Store.Get(ctx, storage.KeyCart)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMetricsEndpoint(t *testing.T) {
	a, err := New(context.Background(), testConfig("http://backend.invalid"), testLogger())
	require.NoError(t, err)

	mux := http.NewServeMux()
	a.Handler().RegisterRoutes(mux)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestCloseMemoryStore(t *testing.T) {
	a, err := New(context.Background(), testConfig("http://backend.invalid"), testLogger())
	require.NoError(t, err)
	assert.NoError(t, a.Close())
}
