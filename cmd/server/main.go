package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/flowradar/flowradar/internal/config"
	"github.com/flowradar/flowradar/internal/explain"
	"github.com/flowradar/flowradar/internal/metrics"
	"github.com/flowradar/flowradar/internal/notify"
	"github.com/flowradar/flowradar/internal/radar"
	"github.com/flowradar/flowradar/internal/server"
	"github.com/flowradar/flowradar/internal/sources"
	"github.com/flowradar/flowradar/internal/ws"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Setup logger
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	// Load config
	cfg, err := config.Load(os.Getenv("RADAR_CONFIG"))
	if err != nil {
		logger.Error("failed to load config", zap.Error(err))
		return 1
	}

	logger.Info("configuration loaded",
		zap.String("port", cfg.Server.Port),
		zap.String("baseURL", cfg.Sources.BaseURL),
		zap.Int("workers", cfg.Scan.Workers),
		zap.Int("scanIntervalSeconds", cfg.Scan.IntervalSeconds),
		zap.Bool("wsEnabled", cfg.Server.WSEnabled),
		zap.Bool("explainerEnabled", cfg.Explainer.Enabled),
	)

	// Upstream feed clients share one rate-limited HTTP client
	client := sources.NewClient("feeds", sources.ClientConfig{
		BaseURL:       cfg.Sources.BaseURL,
		APIKey:        cfg.Sources.APIKey,
		Timeout:       time.Duration(cfg.Sources.TimeoutSec) * time.Second,
		RetryCount:    cfg.Sources.RetryCount,
		RetryDelay:    time.Duration(cfg.Sources.RetryDelaySec) * time.Second,
		RatePerSecond: cfg.Sources.RatePerSecond,
	}, logger)

	gateway := sources.NewGateway(
		sources.NewFlowAlertClient(client),
		sources.NewUnusualVolumeClient(client),
		sources.NewMomentumClient(client),
		sources.NewGexClient(client),
		cfg.FetchTimeout(),
		logger,
	)

	// Explainer is optional; nil means templated rationale only
	var explainer radar.Explainer
	if cfg.Explainer.Enabled {
		explainer = explain.NewClient(&explain.Config{
			Enabled: true,
			URL:     cfg.Explainer.URL,
			APIKey:  cfg.Explainer.APIKey,
			Timeout: cfg.ExplainTimeout(),
		}, logger)
	}
	synthesizer := radar.NewSynthesizer(explainer, cfg.ExplainTimeout(), logger)

	registry := metrics.NewRegistry()
	scanner := radar.New(gateway, synthesizer, cfg.Scan.Workers, registry, logger)

	// Notifications (validated in config.Load)
	notifier := notify.New(cfg.NotifySettings(), logger)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// WebSocket components (optional)
	var hub *ws.Hub
	var publisher *ws.Publisher
	if cfg.Server.WSEnabled {
		hub = ws.NewHub(logger)
		go hub.Run(ctx)

		publisher, err = ws.NewPublisher(hub)
		if err != nil {
			logger.Error("failed to create ws publisher", zap.Error(err))
			return 1
		}
		logger.Info("WebSocket enabled")
	}

	// Background scan loop (optional)
	if cfg.Scan.IntervalSeconds > 0 {
		loop := newScanLoop(scanner, cfg, publisher, notifier, logger)
		go loop.Run(ctx)
	}

	srv := server.NewServer(scanner, cfg.ScanSettings(), hub, registry.Handler(), logger)
	router := server.NewRouter(srv, logger)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSec) * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Cancel context to stop background components
	cancel()

	// Graceful HTTP server shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
		return 1
	}

	logger.Info("server stopped")
	return 0
}
