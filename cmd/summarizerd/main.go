package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joseph-ayodele/discharge-summarizer/internal/app"
	"github.com/joseph-ayodele/discharge-summarizer/internal/common"
	"github.com/joseph-ayodele/discharge-summarizer/internal/server"
)

func main() {
	cfg, err := common.LoadConfig()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := common.NewLogger(cfg.Log, os.Stdout)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	// Context with signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("wire app", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	srv := server.New(server.Config{
		UploadField:    cfg.Server.UploadField,
		MaxUploadBytes: cfg.Server.MaxUploadBytes(),
	}, a.Processor, a.Exporter, logger)

	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	errc := make(chan error, 2)
	go func() {
		logger.Info("http serving", "addr", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	var health *server.HealthGRPC
	if cfg.Server.HealthGRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.Server.HealthGRPCAddr)
		if err != nil {
			logger.Error("listen grpc health", "addr", cfg.Server.HealthGRPCAddr, "error", err)
			os.Exit(1)
		}
		health = server.NewHealthGRPC(logger)
		go func() {
			logger.Info("grpc health serving", "addr", cfg.Server.HealthGRPCAddr)
			if err := health.Serve(lis); err != nil {
				errc <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down...")
	case err := <-errc:
		logger.Error("server failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	if health != nil {
		health.Stop(shutdownCtx)
	}
	logger.Info("stopped.")
}
