// Package app assembles the storefront components from configuration.
// Both the gateway and the CLI build on it.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"storefront/internal/api"
	"storefront/internal/cart"
	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/metrics"
	"storefront/internal/notify"
	"storefront/internal/session"
	"storefront/internal/storage"
	"storefront/internal/storeapi"
	"storefront/internal/transport"
	"storefront/internal/wishlist"
)

// App holds the wired components.
type App struct {
	Store         storage.Store
	API           *api.Client
	StoreAPI      *storeapi.Client
	Cart          *cart.Cart
	Wishlist      *wishlist.Wishlist
	Session       *session.Session
	Notifications *notify.Buffer
	Registry      *prometheus.Registry

	logger *slog.Logger
}

// Option adjusts how the App is built.
type Option func(*options)

type options struct {
	httpClient *http.Client
	store      storage.Store
}

// WithHTTPClient replaces the outbound client built from configuration.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithStore uses s instead of opening the configured driver.
func WithStore(s storage.Store) Option {
	return func(o *options) { o.store = s }
}

// New builds every component from cfg. Nothing is fetched from the
// backend; state is restored from storage only.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	store := o.store
	if store == nil {
		var err error
		store, err = storage.Open(storage.Options{
			Driver:    cfg.Storage.Driver,
			Dir:       cfg.Storage.Dir,
			RedisAddr: cfg.Storage.RedisAddr,
			RedisDB:   cfg.Storage.RedisDB,
			Prefix:    cfg.Storage.Prefix,
			TTL:       cfg.Storage.TTL,
		})
		if err != nil {
			return nil, fmt.Errorf("opening storage: %w", err)
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewCollector(registry)

	notes := notify.NewBuffer(0)
	notifier := notify.Multi{notes, notify.Log{Logger: logger}}

	apiOpts := []api.Option{
		api.WithNotifier(notifier),
		api.WithMetrics(recorder),
	}
	if o.httpClient != nil {
		apiOpts = append(apiOpts, api.WithHTTPClient(o.httpClient))
	}
	client := api.New(api.Config{
		BaseURL:      cfg.API.BaseURL,
		ClientID:     cfg.API.ClientID,
		ClientSecret: cfg.API.ClientSecret,
		Timeout:      cfg.API.Timeout,
		RateLimit:    cfg.API.RateLimit,
		RateBurst:    cfg.API.RateBurst,
		Transport: transport.New(transport.Options{
			ChromeTLS: cfg.API.ChromeTLS,
			UserAgent: cfg.API.UserAgent,
		}),
	}, store, logger, apiOpts...)

	backend := storeapi.New(client, logger, storeapi.WithMockFallback(cfg.MockFallback))

	a := &App{
		Store:         store,
		API:           client,
		StoreAPI:      backend,
		Cart:          cart.New(ctx, backend, store, logger, cart.WithNotifier(notifier), cart.WithMetrics(recorder)),
		Wishlist:      wishlist.New(ctx, backend, store, logger, wishlist.WithNotifier(notifier)),
		Session:       session.New(ctx, backend, client, store, logger, session.WithNotifier(notifier)),
		Notifications: notes,
		Registry:      registry,
		logger:        logger,
	}

	logger.Debug("storefront assembled",
		slog.String("storage", withDefault(cfg.Storage.Driver, "file")),
		slog.Bool("chrome_tls", cfg.API.ChromeTLS),
		slog.Bool("mock_fallback", cfg.MockFallback),
		slog.Int("cart_lines", len(a.Cart.Items())),
	)
	return a, nil
}

// Handler returns the gateway handler over the App's components.
func (a *App) Handler() *handler.Handler {
	return handler.New(handler.Deps{
		Cart:          a.Cart,
		Wishlist:      a.Wishlist,
		Session:       a.Session,
		Store:         a.StoreAPI,
		Notifications: a.Notifications,
		Metrics:       metrics.Handler(a.Registry),
	}, a.logger)
}

// Close releases the storage driver when it holds a connection.
func (a *App) Close() error {
	if c, ok := a.Store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func withDefault(value, def string) string {
	if value == "" {
		return def
	}
	return value
}
