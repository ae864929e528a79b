package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"posh-assistant-backend/internal/config"
	"posh-assistant-backend/internal/logging"
	"posh-assistant-backend/internal/server"
)

func main() {
	cfg := config.Load()
	if err := logging.InitLogger(cfg.LogDir, cfg.LogLevel); err != nil {
		log.Fatalf("failed to initialise logging: %v", err)
	}
	defer logging.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := server.NewServer(ctx, cfg)
	if err != nil {
		logging.ErrorLogger.Error("failed to create server", zap.Error(err))
		logging.Sync()
		os.Exit(1)
	}
	defer s.Close()

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logging.AppLogger.Info("POSH assistant listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.ErrorLogger.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logging.AppLogger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.ErrorLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
