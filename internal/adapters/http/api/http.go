// Package api serves the guild statistics views over HTTP.
package api

import (
	"context"
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"

	"github.com/okian/guildstats/internal/domain/types"
	"github.com/okian/guildstats/pkg/logger"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	Home(ctx context.Context) (types.Home, error)
	Leaderboard(ctx context.Context, sortKey, dir string) (types.Leaderboard, error)
	Achievements(ctx context.Context, category string) (types.Achievements, error)
	Profile(ctx context.Context, characterName string) (types.Profile, error)
}

// Server wires HTTP routes for the API.
type Server struct {
	deps   Dependencies
	stats  StatsProvider
	logger logger.Logger

	corsOrigins      []string
	trustedProxies   []netip.Prefix
	rateLimitEnabled bool
	rateLimitCount   int
	rateLimitWindow  time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for failed requests.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCORSOrigins sets the allowed CORS origins.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.corsOrigins = origins
		}
	}
}

// WithTrustedProxies sets the proxies whose forwarding headers are honoured.
// With none, the client IP is always the connection's peer address.
func WithTrustedProxies(proxies []netip.Prefix) Option {
	return func(s *Server) {
		s.trustedProxies = proxies
	}
}

// WithRateLimit enables per-IP rate limiting of requests per window.
func WithRateLimit(requests int, window time.Duration) Option {
	return func(s *Server) {
		if requests > 0 && window > 0 {
			s.rateLimitEnabled = true
			s.rateLimitCount = requests
			s.rateLimitWindow = window
		}
	}
}

// NewServer creates an API server.
func NewServer(deps Dependencies, stats StatsProvider, opts ...Option) *Server {
	s := &Server{
		deps:        deps,
		stats:       stats,
		corsOrigins: []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the chi router with middleware and every API route.
func (s *Server) Router(ctx context.Context) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(TrustedRealIP(s.trustedProxies))
	r.Use(TimingMiddleware)
	r.Use(middleware.Compress(5))

	c := corslib.New(corslib.Options{
		AllowedOrigins:   s.corsOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Accept-Encoding", "Content-Type"},
		ExposedHeaders:   []string{"X-Process-Time", "X-Request-Id"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	if s.rateLimitEnabled {
		r.Use(RateLimitMiddleware(s.rateLimitCount, s.rateLimitWindow))
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeNotSupported, nil)
	})

	r.Get("/healthz", MetricsMiddleware(HandleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.handleStats, "stats"))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/home", MetricsMiddleware(s.handleHome, "home"))
		r.Get("/leaderboard", MetricsMiddleware(s.handleLeaderboard, "leaderboard"))
		r.Get("/achievements", MetricsMiddleware(s.handleAchievements, "achievements"))
		r.Get("/members/{characterName}", MetricsMiddleware(s.handleMember, "member"))
	})

	if s.logger != nil {
		s.logger.Debug(ctx, "api routes registered")
	}
	return r
}

// fail writes err with the status it maps to and logs server side failures.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError && s.logger != nil {
		s.logger.Error(r.Context(), "request failed",
			logger.String("op", op),
			logger.String("requestId", middleware.GetReqID(r.Context())),
			logger.Int("status", status),
			logger.Error(err),
		)
	}
	writeError(w, status, code, err)
}
