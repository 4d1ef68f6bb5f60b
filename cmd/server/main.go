package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Resham8/SketchFlow/internal/auth"
	"github.com/Resham8/SketchFlow/internal/config"
	httpHandler "github.com/Resham8/SketchFlow/internal/delivery/http"
	"github.com/Resham8/SketchFlow/internal/middleware"
	"github.com/Resham8/SketchFlow/internal/relay"
	"github.com/Resham8/SketchFlow/internal/store"
)

func main() {
	// Load .env file (ignore error if not exists, e.g. in production)
	_ = godotenv.Load()

	cfg := config.LoadFromEnv()

	if cfg.LogLevel == "silent" || cfg.LogLevel == "off" {
		log.SetOutput(io.Discard)
	}

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	// Initialize dependencies
	shapeStore, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Open shape store: %v", err)
	}
	defer shapeStore.Close()

	verifier := auth.NewVerifier(cfg.JWTSecret)
	registry := relay.NewRegistry()
	roomRelay := relay.New(registry, shapeStore)

	relayCtx, stopRelay := context.WithCancel(context.Background())
	defer stopRelay()
	go roomRelay.Run(relayCtx)

	handler := httpHandler.NewHandler(roomRelay, verifier, shapeStore, cfg.AllowedOrigins)

	apiLimiter := middleware.NewIPRateLimiter(cfg.RateLimitAPI, 20)
	wsLimiter := middleware.NewIPRateLimiter(cfg.RateLimitWS, 10)

	// Setup routes
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", middleware.RateLimitFunc(wsLimiter, handler.HandleWebSocket))
	mux.HandleFunc("GET /rooms/{roomId}/shapes", middleware.RateLimitFunc(apiLimiter, handler.HandleListShapes))

	securedHandler := middleware.SecurityHeaders(mux)

	// No WriteTimeout: websocket connections outlive any sane value
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           securedHandler,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("SketchFlow relay running at http://localhost:%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	stopRelay()

	log.Println("Server exited gracefully")
}
