// Package server exposes the opportunity radar over HTTP: scan on demand,
// rolling stats, filter presets, health, Prometheus metrics, and the
// WebSocket stream.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/flowradar/flowradar/internal/radar"
	"github.com/flowradar/flowradar/internal/ws"
)

type Server struct {
	radar    *radar.Radar
	defaults radar.ScanSettings
	hub      *ws.Hub
	metrics  http.Handler
	logger   *zap.Logger
}

func NewServer(r *radar.Radar, defaults radar.ScanSettings, hub *ws.Hub, metrics http.Handler, logger *zap.Logger) *Server {
	return &Server{
		radar:    r,
		defaults: defaults,
		hub:      hub,
		metrics:  metrics,
		logger:   logger,
	}
}

func NewRouter(server *Server, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(corsMiddleware)
	r.Use(zapLoggerMiddleware(logger))

	r.Get("/radar", server.handleRadar)
	r.Get("/radar-stats", server.handleStats)
	r.Get("/presets", server.handlePresets)
	r.Get("/healthz", server.handleHealth)

	if server.metrics != nil {
		r.Handle("/metrics", server.metrics)
	}
	if server.hub != nil {
		r.Get("/ws", server.hub.ServeWS)
	}

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func zapLoggerMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("query", r.URL.RawQuery),
			)
			next.ServeHTTP(w, r)
		})
	}
}
