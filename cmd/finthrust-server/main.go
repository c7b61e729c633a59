package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"finthrust/internal/backtest"
	"finthrust/internal/config"
	"finthrust/internal/httpapi"
	"finthrust/internal/marketdata"
	"finthrust/internal/params"
	"finthrust/internal/portfolio"
	"finthrust/internal/store"
	"finthrust/internal/strategy"
	"finthrust/internal/strategy/builtins"
	"finthrust/internal/util"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfgPath := "config/finthrust.yaml"
	if p := os.Getenv("FINTHRUST_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	// Stores.
	bars := store.NewParquetStore(cfg.Storage.DataDir)
	txs, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("opening sqlite store: %v", err)
	}
	defer txs.Close()

	paramStore := params.NewStore(cfg.Storage.ParamsPath, logger)

	// Strategies.
	registry := strategy.NewRegistry()
	builtins.Register(registry)

	// Market data for portfolio valuation.
	prices := marketdata.NewAlphaVantageClient(
		cfg.AlphaVantage.BaseURL,
		cfg.AlphaVantage.APIKey,
		cfg.AlphaVantage.RateLimitPerMin,
		logger,
	)

	srv := httpapi.NewServer(
		txs,
		backtest.NewRunner(bars, registry, logger),
		portfolio.NewValuer(prices),
		registry,
		paramStore,
		cfg.Backtest.Market,
		logger,
	)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: srv.Handler(),
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		logger.Info("finthrust server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down finthrust server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
