// Storefront gateway - serves the local cart, wishlist and session over
// REST and MCP, backed by the storefront REST API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/app"
	"storefront/internal/config"
	"storefront/internal/middleware"
)

const shutdownGrace = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := initLogger(cfg.Environment, cfg.LogLevel)

	logger.Info("configuration loaded",
		slog.String("environment", cfg.Environment),
		slog.String("api_base_url", cfg.API.BaseURL),
		slog.String("storage_driver", cfg.Storage.Driver),
		slog.Bool("mock_fallback", cfg.MockFallback),
	)

	storefront, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("building storefront: %w", err)
	}
	defer storefront.Close()

	return serve(ctx, newServer(cfg.Port, storefront, logger), logger)
}

// newServer mounts the gateway routes behind the middleware chain.
// Recovery is outermost so it also catches panics in logging.
func newServer(port string, storefront *app.App, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	storefront.Handler().RegisterRoutes(mux)

	return &http.Server{
		Addr: ":" + port,
		Handler: middleware.Chain(
			middleware.Recovery(logger),
			middleware.RequestID(),
			middleware.Logging(logger),
		)(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

// serve runs server until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, server *http.Server, logger *slog.Logger) error {
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("addr", server.Addr))
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		server.Close()
		return fmt.Errorf("shutdown error: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// initLogger uses JSON in production for Cloud Logging and text elsewhere.
// Debug level adds source locations.
func initLogger(environment, levelName string) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelName)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level <= slog.LevelDebug,
	}
	if environment == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
