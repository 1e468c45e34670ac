// Package server provides HTTP server initialization and lifecycle management
// for the Sous webhook and admin API.
package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/scrypster/sous/internal/config"
	"github.com/scrypster/sous/internal/metrics"
	"github.com/scrypster/sous/internal/storage"
	"github.com/scrypster/sous/internal/turns"
	"github.com/scrypster/sous/web/handlers"
)

// securityHeadersMiddleware adds security headers to all HTTP responses.
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// Deps carries the wired pipeline components the server exposes over HTTP.
type Deps struct {
	Dispatcher handlers.TurnHandler
	Sender     handlers.ReplySender
	Store      storage.UserStore
	Registry   *turns.Registry
	Metrics    *metrics.Collector
}

// Start initializes and starts the HTTP server. Returns the actual address
// being listened on (useful for testing with port 0) and the WebSocketHub for
// activity broadcasts. The server shuts down when ctx is cancelled.
func Start(ctx context.Context, cfg *config.Config, deps Deps) (string, *handlers.WebSocketHub) {
	mux := http.NewServeMux()

	wsHub := handlers.NewWebSocketHub(nil)
	go wsHub.Run()

	// 10 req/sec sustained per sender, burst of 20. Twilio retries shed
	// deliveries.
	rateLimiter := handlers.NewSenderLimiter(10.0, 20)

	webhookHandler := handlers.NewWebhookHandler(
		deps.Dispatcher, deps.Sender, deps.Store, deps.Registry, deps.Metrics, wsHub, cfg)
	prefsHandler := handlers.NewPreferencesHandler(deps.Store)
	statsHandler := handlers.NewStatsHandler(deps.Store, deps.Registry)

	// Webhook endpoint. Authenticated by Twilio signature, not by API token.
	mux.Handle("/whatsapp", webhookHandler)

	// Admin API routes (require auth in production mode).
	apiMux := http.NewServeMux()
	apiMux.HandleFunc("GET /api/users/{phone}/preferences", prefsHandler.Get)
	apiMux.HandleFunc("PUT /api/users/{phone}/preferences", prefsHandler.Update)
	apiMux.HandleFunc("/api/stats", statsHandler.GetStats)
	mux.Handle("/api/", handlers.RequireAuth(apiMux, cfg))

	// Health endpoint, no auth required, used by monitoring.
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","version":"1.0.0"}`))
	})

	// Prometheus metrics, no auth, meant for a scraper on the local network.
	mux.Handle("/metrics", deps.Metrics.Handler())

	// Live activity feed for operator dashboards.
	mux.Handle("/ws", wsHub)

	handler := handlers.RateLimitMiddleware(mux, rateLimiter)
	handler = securityHeadersMiddleware(handler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatalf("Failed to listen on %s: %v", addr, err)
	}

	actualAddr := listener.Addr().String()

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("Server error: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
		wsHub.Stop()
	}()

	return actualAddr, wsHub
}
