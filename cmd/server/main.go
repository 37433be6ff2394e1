// sockchat - single-room WebSocket chat backend
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/sockchat/sockchat/internal/api"
	"github.com/sockchat/sockchat/internal/chatlog"
	"github.com/sockchat/sockchat/internal/config"
	"github.com/sockchat/sockchat/internal/gateway"
	"github.com/sockchat/sockchat/internal/identity"
	"github.com/sockchat/sockchat/internal/middleware"
	"github.com/sockchat/sockchat/internal/registry"
	"github.com/sockchat/sockchat/internal/router"
	"github.com/sockchat/sockchat/internal/store"
	"github.com/sockchat/sockchat/internal/transport"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "auth_mode", cfg.AuthMode, "dev", cfg.IsDevelopment())

	// Initialize dependencies.
	st, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("Failed to close store", "error", closeErr)
		}
	}()

	if err := st.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	var verifier identity.Verifier
	if cfg.AuthMode == config.AuthModeToken {
		verifier = identity.NewTokenVerifier([]byte(cfg.TokenSecret))
	} else {
		verifier = identity.NewSessionVerifier(st)
	}

	gw := gateway.NewLocal()
	rt := router.New(verifier, registry.New(st), chatlog.New(st), gw, cfg.AuthMode, cfg.HistoryLimit)
	wsHandler := transport.NewWebSocketHandler(rt, gw)
	registerHandler := api.NewRegisterHandler(st, cfg.RegistrationSecret, cfg.SessionTTL)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS([]string{"*"}))

	// Session registration side channel (session auth mode).
	if cfg.AuthMode == config.AuthModeSession {
		registerHandler.RegisterRoutes(r)
	}

	// WebSocket endpoint.
	r.Get("/ws", wsHandler.ServeHTTP)

	// Create server. WriteTimeout stays 0 so long-lived sockets are
	// not cut off.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
	slog.Info("Server stopped")
}
