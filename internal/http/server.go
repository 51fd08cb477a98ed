package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
)

// Config carries what the server needs beyond its services.
type Config struct {
	Addr           string
	AuthRateLimit  int
	WriteRateLimit int
}

// Server wires the services to the JSON API routes.
type Server struct {
	http.Server

	authService        *services.AuthService
	transactionService *services.TransactionService
	categoryService    *services.CategoryService
	analyticsService   *services.AnalyticsService
	tokens             *auth.Manager

	authLimiter  *ratelimit.Limiter
	writeLimiter *ratelimit.Limiter
	resolver     *security.Resolver
	logger       *log.Logger

	shutdownOnce sync.Once

	// now is the clock used for analytics reference instants; tests pin it.
	now func() time.Time
}

func NewServer(
	cfg Config,
	authService *services.AuthService,
	transactionService *services.TransactionService,
	categoryService *services.CategoryService,
	analyticsService *services.AnalyticsService,
	tokens *auth.Manager,
	logger *log.Logger,
) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	s := &Server{
		authService:        authService,
		transactionService: transactionService,
		categoryService:    categoryService,
		analyticsService:   analyticsService,
		tokens:             tokens,
		authLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: cfg.AuthRateLimit,
		}),
		writeLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: cfg.WriteRateLimit,
		}),
		resolver: security.NewResolver(),
		logger:   logger.WithComponent(log.ComponentHTTP),
		now:      time.Now,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	limitAuth := s.limit(s.authLimiter)
	limitWrite := s.limit(s.writeLimiter)

	mux.HandleFunc("POST /api/auth/register", limitAuth(s.handleRegister))
	mux.HandleFunc("POST /api/auth/login", limitAuth(s.handleLogin))
	mux.HandleFunc("GET /api/auth/me", s.authenticate(s.handleMe))

	mux.HandleFunc("GET /api/categories", s.authenticate(s.handleListCategories))
	mux.HandleFunc("POST /api/categories", s.authenticate(s.requireAdmin(s.handleCreateCategory)))

	mux.HandleFunc("GET /api/transactions", s.authenticate(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.authenticate(s.requireWrite(limitWrite(s.handleCreateTransaction))))
	mux.HandleFunc("GET /api/transactions/{id}", s.authenticate(s.handleGetTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.authenticate(s.requireWrite(limitWrite(s.handleUpdateTransaction))))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.authenticate(s.requireWrite(limitWrite(s.handleDeleteTransaction))))

	mux.HandleFunc("GET /api/analytics", s.authenticate(s.handleAnalytics))

	mux.HandleFunc("GET /api/admin/users", s.authenticate(s.requireAdmin(s.handleListUsers)))
	mux.HandleFunc("PUT /api/admin/users/{id}/role", s.authenticate(s.requireAdmin(s.handleChangeRole)))

	tracer := trace.NewMiddleware(s.resolver.ClientIP)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	requestLogger := log.Middleware(s.logger)

	s.Server = http.Server{
		Addr:         cfg.Addr,
		Handler:      tracer.Middleware(headers.Middleware(requestLogger(mux))),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) limit(limiter *ratelimit.Limiter) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		wrapped := limiter.Middleware(s.resolver.ClientIP, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
		})(next)
		return wrapped.ServeHTTP
	}
}

// Shutdown stops the limiters and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.authLimiter.Stop()
		s.writeLimiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
