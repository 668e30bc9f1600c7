// Package server provides the HTTP REST API for the guidance engine.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/crna-guide/internal/config"
	"github.com/jonathan/crna-guide/internal/guidance"
	"github.com/jonathan/crna-guide/internal/metrics"
	"github.com/jonathan/crna-guide/internal/server/middleware"
	"github.com/jonathan/crna-guide/internal/server/ratelimit"
	"github.com/jonathan/crna-guide/internal/types"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// maxBodyBytes bounds snapshot request bodies.
const maxBodyBytes = 1 << 20

// shutdownTimeout bounds graceful shutdown once the context is cancelled.
const shutdownTimeout = 30 * time.Second

// SnapshotStore persists applicant snapshots. *db.DB satisfies it.
type SnapshotStore interface {
	GetSnapshot(ctx context.Context, userID uuid.UUID) (*types.RawSnapshot, error)
	SaveSnapshot(ctx context.Context, raw *types.RawSnapshot) (uuid.UUID, error)
	DeleteSnapshot(ctx context.Context, userID uuid.UUID) (bool, error)
	Ping(ctx context.Context) error
}

// Cache stores computed guidance. *cache.GuidanceCache satisfies it.
type Cache interface {
	Get(ctx context.Context, key string) (*types.GuidanceState, bool, error)
	Set(ctx context.Context, key string, state *types.GuidanceState) error
	Invalidate(ctx context.Context, userID string) (int64, error)
	Ping(ctx context.Context) error
}

// Options wires the server's collaborators. Engine is required; Store and Cache are
// optional and leave their endpoints or lookups disabled when nil.
type Options struct {
	Config   config.ServerConfig
	Engine   *guidance.Engine
	Store    SnapshotStore
	Cache    Cache
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	handler     http.Handler
	engine      *guidance.Engine
	store       SnapshotStore
	cache       Cache
	metrics     *metrics.Metrics
	logger      *zap.Logger
	rateLimiter *ratelimit.Limiter
}

// New creates a new server instance
func New(opts Options) (*Server, error) {
	if opts.Engine == nil {
		return nil, fmt.Errorf("engine is required")
	}

	s := &Server{
		engine:  opts.Engine,
		store:   opts.Store,
		cache:   opts.Cache,
		metrics: opts.Metrics,
		logger:  opts.Logger,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	gatherer := opts.Gatherer
	if s.metrics == nil {
		reg := prometheus.NewRegistry()
		s.metrics = metrics.New(reg)
		gatherer = reg
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	s.rateLimiter = ratelimit.NewLimiter(ratelimit.FromConfig(opts.Config.RateLimit))

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/guidance", s.handleGuidance)
	mux.HandleFunc("POST /v1/readiness", s.handleReadiness)
	mux.HandleFunc("GET /v1/catalog", s.handleCatalog)

	// Stored snapshots
	mux.HandleFunc("GET /v1/users/{id}/guidance", s.handleUserGuidance)
	mux.HandleFunc("PUT /v1/users/{id}/snapshot", s.handlePutSnapshot)
	mux.HandleFunc("DELETE /v1/users/{id}/snapshot", s.handleDeleteSnapshot)

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", metrics.Handler(gatherer))

	s.handler = middleware.RequestID(s.withRateLimit(middleware.Logging(s.logger)(s.withCORS(mux))))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", opts.Config.Port),
		Handler:      s.handler,
		ReadTimeout:  opts.Config.ReadTimeout,
		WriteTimeout: opts.Config.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the fully wrapped handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", ln.Addr().String()))
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.Close()
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	s.Close()
	if err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// Close stops background work owned by the server. Store and cache belong to the caller.
func (s *Server) Close() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+middleware.RequestIDHeader)
		w.Header().Set("Access-Control-Expose-Headers", middleware.RequestIDHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(extractClientID(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleHealth reports the status of the store and cache when configured.
// A failing store makes the server unhealthy; a failing cache only degrades it.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	code := http.StatusOK
	checks := map[string]string{}

	if s.store != nil {
		if err := s.store.Ping(ctx); err != nil {
			checks["database"] = err.Error()
			status = "unavailable"
			code = http.StatusServiceUnavailable
		} else {
			checks["database"] = "ok"
		}
	}
	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			checks["cache"] = err.Error()
			if code == http.StatusOK {
				status = "degraded"
			}
		} else {
			checks["cache"] = "ok"
		}
	}

	s.jsonResponse(w, code, map[string]any{
		"status":          status,
		"catalog_version": s.engine.Catalog().Version(),
		"checks":          checks,
	})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// handleError maps err to a status, counts it and writes the error body.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	s.metrics.ObserveError(errorKind(err))
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		if status == http.StatusInternalServerError {
			s.errorResponse(w, status, "internal server error")
			return
		}
	}
	s.errorResponse(w, status, err.Error())
}

// extractClientID uses the IP address from RemoteAddr.
// X-Forwarded-For is ignored since it cannot be trusted without a known proxy.
func extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
	}
	if !info.ResetTime.IsZero() {
		response["reset_at"] = info.ResetTime.Format(time.RFC3339)
	}

	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds() + 0.999)
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", fmt.Sprintf("%d", seconds))
	}

	s.logger.Warn("rate limit exceeded",
		zap.String("client", extractClientID(r)),
		zap.String("path", r.URL.Path),
		zap.Int("limit", info.Limit),
	)
	s.metrics.ObserveError("rate_limited")

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
