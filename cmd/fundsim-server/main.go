// Package main runs the fundsim JSON API and WebSocket server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/venturelab/fundsim-go/internal/config"
	"github.com/venturelab/fundsim-go/internal/logging"
	"github.com/venturelab/fundsim-go/internal/server"
	"github.com/venturelab/fundsim-go/pkg/marketdata"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer logger.Sync()

	logger.Info("starting fundsim server", zap.String("config", cfg.String()))

	market, closeMarket, err := buildMarketClient(cfg, logger)
	if err != nil {
		return err
	}
	defer closeMarket()

	srv := server.New(server.Config{
		AllowedOrigins: cfg.AllowedOrigins,
		Workers:        cfg.Workers,
		MaxTrials:      cfg.MaxTrials,
		MaxTargets:     cfg.MaxTargets,
		RateRPS:        cfg.RateRPS,
		RateBurst:      cfg.RateBurst,
	}, logger, market)

	// No blanket read or write timeouts; the websocket stream manages
	// its own per-frame deadlines.
	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("stopped")
	return nil
}

// buildMarketClient assembles the macro indicator client: Redis-backed
// cache when FUNDSIM_REDIS_ADDR is set, in-process cache otherwise. An
// unreachable Redis fails startup rather than degrading silently.
func buildMarketClient(cfg *config.Config, logger *zap.Logger) (*marketdata.Client, func(), error) {
	opts := []marketdata.Option{marketdata.WithTTL(cfg.MarketDataTTL)}
	if cfg.MarketDataURL != "" {
		opts = append(opts, marketdata.WithBaseURL(cfg.MarketDataURL))
	}
	closer := func() {}
	if cfg.RedisAddr != "" {
		cache := marketdata.NewRedisCache(cfg.RedisAddr)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := cache.Ping(ctx); err != nil {
			return nil, nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
		}
		logger.Info("indicator cache on redis", zap.String("addr", cfg.RedisAddr))
		opts = append(opts, marketdata.WithCache(cache))
		closer = func() { cache.Close() }
	}
	return marketdata.New(opts...), closer, nil
}
