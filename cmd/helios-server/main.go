package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	osignal "os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"helios/internal/backtest"
	"helios/internal/config"
	"helios/internal/httpapi"
	"helios/internal/provider"
	"helios/internal/signal"
	"helios/internal/store"
	"helios/internal/util"
)

func main() {
	godotenv.Load()

	cfgPath := "config/helios.yaml"
	if p := os.Getenv("HELIOS_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level)
	util.SetDefault(logger)

	pstore := store.NewParquetStore(cfg.Storage.DataDir)
	results, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("failed to open result store: %v", err)
	}
	defer results.Close()

	engine := backtest.NewEngine(signal.NewRegistry(cfg.Thresholds()), logger)
	data := provider.NewStoreProvider(pstore, pstore)
	api := httpapi.NewBacktestServer(engine, data, data, pstore, results, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: api.Handler(),
	}

	ctx, cancel := osignal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("helios-server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
	logger.Info("helios-server stopped")
}
