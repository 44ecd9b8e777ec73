// Card scanner server - watches the table camera, recognises settled cards
// and serves matches over HTTP, WebSocket and gRPC health.
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

	"github.com/GriffinCanCode/cardscan/internal/capture"
	"github.com/GriffinCanCode/cardscan/internal/catalog"
	"github.com/GriffinCanCode/cardscan/internal/config"
	apperrors "github.com/GriffinCanCode/cardscan/internal/errors"
	"github.com/GriffinCanCode/cardscan/internal/pipeline"
	"github.com/GriffinCanCode/cardscan/internal/resilience"
	"github.com/GriffinCanCode/cardscan/internal/scanner"
	"github.com/GriffinCanCode/cardscan/internal/server"
	"github.com/GriffinCanCode/cardscan/internal/vision"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cat, stats, err := catalog.Load(ctx, cfg.CatalogDir, catalog.Options{
		Workers:    cfg.CatalogWorkers,
		Extensions: cfg.CatalogExtensions,
	})
	if err != nil {
		slog.Error("failed to load catalog", "dir", cfg.CatalogDir, "error", err)
		os.Exit(1)
	}
	slog.Info("catalog loaded", "entries", stats.Loaded, "skipped", stats.Skipped,
		"sets", stats.Sets, "duration", stats.Duration)

	finder, err := vision.New(cfg.DetectionStrategy)
	if err != nil {
		slog.Error("failed to create quad finder", "error", err)
		os.Exit(1)
	}

	src, err := capture.Open(ctx, cfg)
	if err != nil {
		slog.Error("failed to open frame source", "error", err)
		os.Exit(1)
	}
	defer func() { _ = src.Close() }()

	det := scanner.NewDetector(scanner.Config{
		HistorySize:          cfg.HistorySize,
		MotionThreshold:      cfg.MotionThreshold,
		BackgroundSimilarity: cfg.BackgroundSimilarity,
	}, finder)

	// gRPC health reflects whether frames are flowing
	grpcServer, healthSrv := server.NewGRPC()
	pipe := pipeline.New(pipeline.Config{
		FrameRate: cfg.FrameRate,
		TopK:      cfg.TopK,
		Breaker:   resilience.CameraConfig(),
		OnHealth:  server.HealthReporter(healthSrv),
	}, src, det, cat)

	srv := server.New(pipe)
	go func() {
		err := server.RunServing(healthSrv, func() error { return pipe.Run(ctx) })
		if err != nil && !apperrors.IsCode(err, apperrors.Cancelled) {
			slog.Error("pipeline error", "error", err)
		}
	}()

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		slog.Error("failed to listen", "addr", cfg.GRPCAddr, "error", err)
		os.Exit(1)
	}
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			slog.Error("grpc server error", "error", err)
		}
	}()

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("card scanner starting", "http", cfg.HTTPAddr, "grpc", cfg.GRPCAddr,
			"strategy", cfg.DetectionStrategy, "catalog", cat.Len())
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	slog.Info("shutting down...")
	pipe.Stop()
	cancel()
	healthSrv.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}
	grpcServer.GracefulStop()
	slog.Info("shutdown complete")
}

// loadConfig reads CONFIG_FILE when set, otherwise defaults plus env.
func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		var err error
		if cfg, err = config.LoadFile(path); err != nil {
			return nil, err
		}
	}
	return cfg, cfg.Validate()
}

func parseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
