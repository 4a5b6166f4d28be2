// Package server hosts the RigForge HTTP API: core routes, module routes,
// and the middleware chain in front of them.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/HerbHall/rigforge/internal/auth"
	internalplugin "github.com/HerbHall/rigforge/internal/plugin"
	"github.com/HerbHall/rigforge/internal/version"
	"github.com/HerbHall/rigforge/pkg/plugin"
)

// Option customizes a Server.
type Option func(*Server)

// WithAuthenticator sets the token verifier used by role-guarded routes.
func WithAuthenticator(a auth.Authenticator) Option {
	return func(s *Server) { s.auth = a }
}

// WithRateLimit enables per-client-IP rate limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		if rps > 0 && burst > 0 {
			s.limiter = newIPLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithMetrics registers HTTP metrics on reg and serves it at /metrics.
func WithMetrics(reg *prometheus.Registry) Option {
	return func(s *Server) { s.metricsReg = reg }
}

// Server is the main RigForge server.
type Server struct {
	httpServer *http.Server
	registry   *internalplugin.Registry
	logger     *zap.Logger
	mux        *http.ServeMux
	auth       auth.Authenticator
	limiter    *ipLimiter
	metricsReg *prometheus.Registry
	metrics    *httpMetrics
}

// New creates a new Server instance.
func New(addr string, reg *internalplugin.Registry, logger *zap.Logger, opts ...Option) *Server {
	mux := http.NewServeMux()

	s := &Server{
		registry: reg,
		logger:   logger,
		mux:      mux,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metricsReg == nil {
		s.metricsReg = prometheus.NewRegistry()
	}
	s.metrics = newHTTPMetrics(s.metricsReg)

	s.registerCoreRoutes()
	s.mountPluginRoutes()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the mux wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	if s.limiter != nil {
		h = s.rateLimit(h)
	}
	h = s.instrument(h)
	return s.logRequests(h)
}

// registerCoreRoutes sets up routes that are always available.
func (s *Server) registerCoreRoutes() {
	s.mux.HandleFunc("GET /api/v1/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/v1/modules", s.handleModules)
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.metricsReg, promhttp.HandlerOpts{}))
}

// mountPluginRoutes registers all module routes under /api/v1/{module}.
func (s *Server) mountPluginRoutes() {
	allRoutes := s.registry.AllRoutes()
	names := make([]string, 0, len(allRoutes))
	for name := range allRoutes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, pluginName := range names {
		for _, route := range allRoutes[pluginName] {
			pattern := fmt.Sprintf("%s /api/v1/%s%s", route.Method, pluginName, route.Path)
			var h http.Handler = route.Handler
			if len(route.Roles) > 0 {
				h = s.requireRoles(route.Roles, h)
			}
			s.mux.Handle(pattern, h)
			s.logger.Debug("mounted route",
				zap.String("plugin", pluginName),
				zap.String("pattern", pattern),
				zap.Strings("roles", route.Roles),
			)
		}
	}
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// requireRoles rejects requests without a valid bearer token for one of
// roles. With no authenticator configured every request is rejected.
func (s *Server) requireRoles(roles []string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.auth == nil {
			Unauthorized(w, "authentication is not configured", r.URL.Path)
			return
		}
		token, ok := bearerToken(r)
		if !ok {
			Unauthorized(w, "missing bearer token", r.URL.Path)
			return
		}
		p, err := s.auth.Authenticate(r.Context(), token)
		if err != nil {
			Unauthorized(w, "invalid or expired token", r.URL.Path)
			return
		}
		if !p.HasRole(roles...) {
			Forbidden(w, fmt.Sprintf("role %q may not access this resource", p.Role), r.URL.Path)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// handleHealth reports server health, folding in every module that
// implements plugin.HealthChecker.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	modules := map[string]plugin.HealthStatus{}

	for _, p := range s.registry.All() {
		if !s.registry.Enabled(p.Name()) {
			continue
		}
		hc, ok := p.(plugin.HealthChecker)
		if !ok {
			continue
		}
		h := hc.Health(r.Context())
		modules[p.Name()] = h
		switch h.Status {
		case "unhealthy":
			status = "unhealthy"
			code = http.StatusServiceUnavailable
		case "degraded":
			if status == "ok" {
				status = "degraded"
			}
		}
	}

	w.Header().Set("X-RigForge-Version", version.Short())
	writeJSON(w, code, map[string]any{
		"status":  status,
		"service": "rigforge",
		"version": version.Map(),
		"modules": modules,
	})
}

// handleModules returns the list of registered modules.
func (s *Server) handleModules(w http.ResponseWriter, _ *http.Request) {
	type moduleResponse struct {
		Name    string `json:"name"`
		Version string `json:"version"`
		Enabled bool   `json:"enabled"`
	}
	plugins := s.registry.All()
	info := make([]moduleResponse, 0, len(plugins))
	for _, p := range plugins {
		info = append(info, moduleResponse{
			Name:    p.Name(),
			Version: p.Version(),
			Enabled: s.registry.Enabled(p.Name()),
		})
	}
	w.Header().Set("X-RigForge-Version", version.Short())
	writeJSON(w, http.StatusOK, info)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
