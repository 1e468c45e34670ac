// Package handlers provides the HTTP surface of Sous: the Twilio webhook,
// the admin API and the live activity WebSocket.
package handlers

import (
	"crypto/subtle"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/scrypster/sous/internal/config"
)

// RequireAuth is middleware that enforces API token authentication in
// production mode. In development mode, all requests are allowed through.
func RequireAuth(next http.Handler, cfg *config.Config) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cfg.Security.SecurityMode == "development" {
			next.ServeHTTP(w, r)
			return
		}

		expected := cfg.Security.APIToken
		if expected == "" {
			writeUnauthorized(w)
			return
		}

		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
			writeUnauthorized(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	http.Error(w, `{"error":"unauthorized","code":"UNAUTHORIZED"}`,
		http.StatusUnauthorized)
}

// senderLimiterCacheSize bounds how many senders hold a live limiter at
// once. Evicting an idle sender just resets their bucket to a full burst.
const senderLimiterCacheSize = 1024

// SenderLimiter rate-limits requests per WhatsApp sender rather than
// globally, so one user pasting their whole shopping history cannot starve
// everyone else's turns. Webhook posts are keyed by the Twilio From number;
// anything else falls back to the client IP.
type SenderLimiter struct {
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
	limiters *lru.Cache[string, *rate.Limiter]
}

// NewSenderLimiter creates a per-sender limiter.
// reqPerSec is the sustained rate per sender, burst the maximum burst size.
func NewSenderLimiter(reqPerSec float64, burst int) *SenderLimiter {
	cache, _ := lru.New[string, *rate.Limiter](senderLimiterCacheSize)
	return &SenderLimiter{
		rate:     rate.Every(time.Duration(float64(time.Second) / reqPerSec)),
		burst:    burst,
		limiters: cache,
	}
}

// allow reports whether the sender identified by key may proceed.
func (sl *SenderLimiter) allow(key string) bool {
	sl.mu.Lock()
	limiter, ok := sl.limiters.Get(key)
	if !ok {
		limiter = rate.NewLimiter(sl.rate, sl.burst)
		sl.limiters.Add(key, limiter)
	}
	sl.mu.Unlock()
	return limiter.Allow()
}

// senderKey identifies who is knocking. The parsed form is cached on the
// request, so the webhook handler's own ParseForm call sees the same data.
func senderKey(r *http.Request) string {
	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err == nil {
			if from := r.PostForm.Get("From"); from != "" {
				return from
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimitMiddleware sheds requests from senders over their budget. Twilio
// retries rejected webhook deliveries, so answering 429 here is safe.
func RateLimitMiddleware(next http.Handler, sl *SenderLimiter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !sl.allow(senderKey(r)) {
			w.Header().Set("Content-Type", "application/json")
			http.Error(w, `{"error":"rate limit exceeded","code":"RATE_LIMITED"}`,
				http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
