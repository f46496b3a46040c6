package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"transitrouter.dev/raptor/internal/clock"
	"transitrouter.dev/raptor/internal/httpapi"
)

// runServe implements `router serve -config=FILE [-addr=:8080]`: boots the
// HTTP surface over the loaded feed with conservative server timeouts and
// signal-driven graceful shutdown.
func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to the router config file")
	addr := fs.String("addr", ":8080", "http listen address")
	rateLimit := fs.Int("rate-limit", 0, "requests per second per api key, 0 disables rate limiting")
	apiKeys := fs.String("api-keys", "", "comma-separated list of accepted api keys, empty disables the check")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *configPath == "" {
		return fmt.Errorf("usage: router serve -config=FILE [-addr=:8080]")
	}

	b, err := loadBase(*configPath)
	if err != nil {
		return err
	}

	logger := slog.Default()
	api := httpapi.New(b.router, logger, clock.RealClock{}, b.metrics, func() bool { return true })
	api.APIKeys = ParseAPIKeys(*apiKeys)

	var rl *httpapi.RateLimitMiddleware
	if *rateLimit > 0 {
		rl = httpapi.NewRateLimitMiddleware(*rateLimit, time.Second, nil, clock.RealClock{})
		defer rl.Stop()
	}

	srv := &http.Server{
		Addr:         *addr,
		Handler:      api.Routes(rl),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", *addr))
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down http server: %w", err)
		}
	}
	return nil
}
