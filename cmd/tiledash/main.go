package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"tiledash/internal/cache"
	"tiledash/internal/cli"
	apphttp "tiledash/internal/http"
	"tiledash/internal/log"
	"tiledash/internal/quotes"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()
	store, closeStore, err := cli.OpenStore(ctx, logger, cfg)
	if err != nil {
		logger.Error("Failed to open store", log.FieldError, err.Error(), "backend", cfg.DataBackend)
		os.Exit(1)
	}

	// Quotes refresh in the background; the API only reads the cache.
	refresher := quotes.NewRefresher(
		quotes.NewYahooProvider(cfg.QuoteBaseURL, &http.Client{Timeout: 10 * time.Second}),
		store,
		quotes.RefresherConfig{Interval: cfg.QuoteRefreshInterval, TTL: cfg.QuoteCacheTTL},
		logger)
	if err := refresher.Start(ctx); err != nil {
		logger.Error("Failed to start quote refresher", log.FieldError, err.Error())
		os.Exit(1)
	}

	caches := cache.NewManager(logger)
	caches.Register(refresher.Cache())
	caches.StartCleanup(cfg.QuoteCacheTTL)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Store:              store,
		Quotes:             refresher,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		RequestTimeout:     cfg.RequestTimeout,
		DueSoonDays:        cfg.DueSoonDays,
	})

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = cfg.RequestTimeout + 5*time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err.Error())
		}
		refresher.Stop()
		caches.Stop()
		if err := closeStore(); err != nil {
			logger.Error("Failed to close store", log.FieldError, err.Error())
		}
	})

	logger.Info("Starting tiledash server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"symbols", len(store.StockSymbols()))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
