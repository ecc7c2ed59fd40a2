/*
Copyright 2025 The AlaudaDevops Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package server

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Idle clients are evicted so the limiter map does not grow with every
// address ever seen. Generation runs against large repositories can take a
// while, so the idle window is generous.
const (
	clientIdleTTL     = 15 * time.Minute
	clientSweepPeriod = 5 * time.Minute
)

// clientLimiter keeps one token bucket per client address
type clientLimiter struct {
	mu        sync.Mutex
	perMinute int
	clients   map[string]*limitedClient
}

type limitedClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newClientLimiter(requestsPerMinute int) *clientLimiter {
	return &clientLimiter{
		perMinute: requestsPerMinute,
		clients:   make(map[string]*limitedClient),
	}
}

// allow reports whether the client at addr may proceed, creating its bucket
// on first sight. Refill is spread across the minute; the burst equals the
// full per-minute budget.
func (cl *clientLimiter) allow(addr string) bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	c, ok := cl.clients[addr]
	if !ok {
		c = &limitedClient{limiter: rate.NewLimiter(rate.Limit(cl.perMinute)/60, cl.perMinute)}
		cl.clients[addr] = c
	}
	c.lastSeen = time.Now()
	return c.limiter.Allow()
}

// evictIdle drops clients not seen since cutoff and returns how many went
func (cl *clientLimiter) evictIdle(cutoff time.Time) int {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	evicted := 0
	for addr, c := range cl.clients {
		if c.lastSeen.Before(cutoff) {
			delete(cl.clients, addr)
			evicted++
		}
	}
	return evicted
}

// sweep evicts idle clients periodically until ctx is cancelled
func (cl *clientLimiter) sweep(ctx context.Context, logger *logrus.Logger) {
	ticker := time.NewTicker(clientSweepPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := cl.evictIdle(time.Now().Add(-clientIdleTTL)); n > 0 {
				logger.Debugf("Evicted %d idle rate limit clients", n)
			}
		}
	}
}

// rateLimitMiddleware rejects clients over their per-minute request budget
// with 429 and counts the rejections. The eviction sweeper runs until ctx is
// cancelled, i.e. for the lifetime of the server.
func rateLimitMiddleware(ctx context.Context, enabled bool, requestsPerMinute int, logger *logrus.Logger) func(http.Handler) http.Handler {
	if !enabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	limiter := newClientLimiter(requestsPerMinute)
	go limiter.sweep(ctx, logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			addr := getClientIP(r)
			if !limiter.allow(addr) {
				RateLimitedTotal.Inc()
				logger.Warnf("Rate limit exceeded for %s on %s", addr, r.URL.Path)
				http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// loggingMiddleware logs each request with its status and duration. Requests
// to quietPaths (health probes, metrics scrapes) arrive every few seconds and
// are logged at debug level to keep them out of the request log.
func loggingMiddleware(logger *logrus.Logger, quietPaths ...string) func(http.Handler) http.Handler {
	quiet := make(map[string]bool, len(quietPaths))
	for _, p := range quietPaths {
		quiet[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Wrap response writer to capture status code
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			entry := logger.WithFields(logrus.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      wrapped.statusCode,
				"duration_ms": time.Since(start).Milliseconds(),
				"ip":          getClientIP(r),
			})
			if quiet[r.URL.Path] {
				entry.Debug("HTTP request")
				return
			}
			entry.Info("HTTP request")
		})
	}
}

// recoveryMiddleware turns handler panics into 500 responses
func recoveryMiddleware(logger *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.WithFields(logrus.Fields{
						"method": r.Method,
						"path":   r.URL.Path,
					}).Errorf("Panic recovered: %v", err)
					http.Error(w, "Internal server error", http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// securityHeadersMiddleware adds security headers
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// getClientIP extracts the client address from proxy headers, falling back
// to the connection's remote address
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// First hop is the original client
		addr, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(addr)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
