// Package http exposes the budget state as a JSON API.
package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"meinbudget/internal/cache"
	"meinbudget/internal/core"
	"meinbudget/internal/log"
	"meinbudget/internal/middleware/ratelimit"
	"meinbudget/internal/middleware/security"
	"meinbudget/internal/middleware/trace"
	"meinbudget/internal/state"
	"meinbudget/internal/stats"
	"meinbudget/internal/worker"
)

// Pinger reports whether the record store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Syncer runs one outbound sync pass.
type Syncer interface {
	RunOnce(ctx context.Context) (worker.Result, error)
}

type Options struct {
	Logger *log.Logger
	// Pinger is consulted by /readyz when set.
	Pinger Pinger
	// Syncer backs POST /api/sync; nil disables the route.
	Syncer Syncer

	WriteRateLimit  int
	WriteRateWindow time.Duration
	StatsCacheTTL   time.Duration
	TrustedProxies  []string
}

const (
	statsCacheSize       = 16
	cacheCleanupInterval = 5 * time.Minute
	readyTimeout         = 5 * time.Second
)

type Server struct {
	http.Server
	state  *state.Manager
	logger *log.Logger
	pinger Pinger
	syncer Syncer
	now    func() time.Time

	statsCache *cache.Memo[uint64, stats.Summary]
	janitor    *cache.Janitor
	limiter    *ratelimit.Limiter
	detector   *security.Detector
	tracer     *trace.Middleware
	started    time.Time

	shutdownOnce sync.Once
}

func NewServer(addr string, manager *state.Manager, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	ttl := opts.StatsCacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	s := &Server{
		state:      manager,
		logger:     logger,
		pinger:     opts.Pinger,
		syncer:     opts.Syncer,
		now:        time.Now,
		statsCache: cache.NewMemo[uint64, stats.Summary](statsCacheSize, ttl),
		janitor:    cache.NewJanitor(logger),
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			Limit:  opts.WriteRateLimit,
			Window: opts.WriteRateWindow,
		}),
		detector: security.NewDetector(logger),
		started:  time.Now(),
	}
	for _, cidr := range opts.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", "cidr", cidr, log.FieldError, err)
		}
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	s.janitor.Register(s.statsCache)
	s.janitor.Start(cacheCleanupInterval)

	s.Addr = addr
	s.Handler = s.routes()
	s.ReadHeaderTimeout = 5 * time.Second
	s.ReadTimeout = 10 * time.Second
	s.WriteTimeout = 15 * time.Second
	s.IdleTimeout = 60 * time.Second
	return s
}

func (s *Server) routes() http.Handler {
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	r := chi.NewRouter()
	r.Use(
		s.detector.Middleware,
		s.tracer.Middleware,
		log.Middleware(s.logger, trace.GetRequestID),
		headers.Middleware,
		s.limiter.Middleware(s.detector.ExtractClientIP, ratelimit.IsWrite, s.handleRateLimited),
	)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, r, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.requireReady)

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", s.handleListTransactions)
			r.Post("/", s.handleCreateTransaction)
			r.Get("/{id}", s.handleGetTransaction)
			r.Put("/{id}", s.handleUpdateTransaction)
			r.Delete("/{id}", s.handleDeleteTransaction)
		})

		r.Route("/credits", func(r chi.Router) {
			r.Get("/", s.handleListCredits)
			r.Post("/", s.handleCreateCredit)
			r.Post("/quote", s.handleQuoteCredit)
			r.Get("/{id}", s.handleGetCredit)
			r.Put("/{id}", s.handleUpdateCredit)
			r.Delete("/{id}", s.handleDeleteCredit)
			r.Get("/{id}/schedule", s.handleCreditSchedule)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", s.handleListCategories)
			r.Post("/", s.handleCreateCategory)
			r.Get("/{id}", s.handleGetCategory)
			r.Put("/{id}", s.handleUpdateCategory)
			r.Delete("/{id}", s.handleDeleteCategory)
		})

		r.Get("/settings", s.handleGetSettings)
		r.Patch("/settings", s.handlePatchSettings)
		r.Post("/settings/dark-mode", s.handleToggleDarkMode)

		r.Get("/statistics", s.handleStatistics)
		if s.syncer != nil {
			r.Post("/sync", s.handleSync)
		}
	})
	return r
}

// requireReady rejects API calls until the manager has loaded its state.
func (s *Server) requireReady(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.state.Phase() != state.Ready {
			writeError(w, r, core.ErrNotReady)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, r, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
}

// Shutdown drains connections and stops background cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		s.janitor.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// ListenAndServe treats a graceful shutdown as success.
func (s *Server) ListenAndServe() error {
	s.logger.Info("HTTP server listening", "addr", s.Addr)
	if err := s.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) today() core.Date {
	return core.DateOf(s.now())
}
