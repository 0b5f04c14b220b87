// Package http exposes the sales journal and dashboard views as a JSON API.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"tally/internal/cache"
	"tally/internal/catalog"
	"tally/internal/journal"
	"tally/internal/kv"
	applog "tally/internal/log"
	"tally/internal/services"
)

// Options carries the knobs the server needs beyond its collaborators.
type Options struct {
	ThemeKey string
	TopItems int
	CacheTTL time.Duration

	// Changes signals that the journal contents moved; every cached
	// dashboard view is purged when it fires.
	Changes <-chan struct{}
}

type Server struct {
	http.Server
	sales       *services.SalesService
	journal     *journal.Store
	catalog     *catalog.Catalog
	settings    kv.Store
	opts        Options
	rateLimiter *rateLimiter

	// Cached dashboard responses, purged on journal change.
	dashCache    *cache.LRUCache[[]byte]
	cacheManager *cache.Manager

	stopInvalidate chan struct{}
	shutdownOnce   sync.Once
}

// Simple in-memory rate limiter
type rateLimiter struct {
	mu           sync.Mutex
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients:     make(map[string]*clientInfo),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries removes client entries older than 10 minutes
func (rl *rateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		close(rl.stopCleanup)
	})
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]

	if !exists {
		rl.clients[clientIP] = &clientInfo{
			lastRequest: now,
			requests:    1,
		}
		return true
	}

	// Reset counter if more than 1 minute has passed
	if now.Sub(client.lastRequest) > time.Minute {
		client.requests = 1
		client.lastRequest = now
		return true
	}

	// Allow up to 60 requests per minute
	client.requests++
	client.lastRequest = now

	return client.requests <= 60
}

// NewServer configures routes and caching, returning a ready-to-run server.
func NewServer(addr string, sales *services.SalesService, store *journal.Store, cat *catalog.Catalog, settings kv.Store, opts Options) *Server {
	if opts.TopItems <= 0 {
		opts.TopItems = 5
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 30 * time.Second
	}
	if opts.ThemeKey == "" {
		opts.ThemeKey = "pos_theme"
	}

	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		sales:          sales,
		journal:        store,
		catalog:        cat,
		settings:       settings,
		opts:           opts,
		rateLimiter:    newRateLimiter(),
		dashCache:      cache.NewLRUCache[[]byte](50, opts.CacheTTL),
		cacheManager:   cache.NewManager(),
		stopInvalidate: make(chan struct{}),
	}

	s.cacheManager.Register(s.dashCache)
	s.cacheManager.StartCleanup(10 * time.Minute)
	go s.watchChanges()

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("POST /api/sales", s.withSecurityHeaders(s.handleCreateSale))
	mux.HandleFunc("GET /api/sales", s.withSecurityHeaders(s.handleListSales))
	mux.HandleFunc("DELETE /api/sales/{id}", s.withSecurityHeaders(s.handleDeleteSale))

	mux.HandleFunc("GET /api/dashboard/summary", s.withSecurityHeaders(s.handleSummary))
	mux.HandleFunc("GET /api/dashboard/top-items", s.withSecurityHeaders(s.handleTopItems))
	mux.HandleFunc("GET /api/dashboard/by-product", s.withSecurityHeaders(s.handleByProduct))
	mux.HandleFunc("GET /api/dashboard/over-time", s.withSecurityHeaders(s.handleOverTime))
	mux.HandleFunc("GET /api/dashboard/by-category", s.withSecurityHeaders(s.handleByCategory))

	mux.HandleFunc("GET /api/catalog", s.withSecurityHeaders(s.handleCatalog))

	mux.HandleFunc("GET /api/theme", s.withSecurityHeaders(s.handleGetTheme))
	mux.HandleFunc("PUT /api/theme", s.withSecurityHeaders(s.handlePutTheme))

	return s
}

// watchChanges purges cached dashboard views whenever the journal moves.
func (s *Server) watchChanges() {
	if s.opts.Changes == nil {
		return
	}
	for {
		select {
		case _, ok := <-s.opts.Changes:
			if !ok {
				return
			}
			s.dashCache.Purge()
		case <-s.stopInvalidate:
			return
		}
	}
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		close(s.stopInvalidate)
		s.cacheManager.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting, and request
// logging to responses.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		started := applog.NewFields().
			WithComponent(applog.ComponentHTTP).
			WithRequestID(requestID).
			WithClientIP(clientIP).
			WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent"))
		slog.InfoContext(ctx, "Request started", started.ToSlice()...)

		// Rate limit the mutating methods only.
		if (r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodDelete) && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		completed := applog.NewFields().
			WithComponent(applog.ComponentHTTP).
			WithRequestID(requestID).
			WithClientIP(clientIP).
			WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "").
			WithHTTPResponse(rw.statusCode, duration.Milliseconds(), rw.statusCode < 400)
		slog.InfoContext(ctx, "Request completed", completed.ToSlice()...)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
