// ===== internal/web/server.go =====
package web

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"autoauth/internal/scheduler"
	"autoauth/pkg/models"
)

// LogReader exposes the diagnostic trail
type LogReader interface {
	ReadLatest(maxBytes int64, maxLines int) string
	Recent() []models.LogEntry
}

// Deps are the collaborators of the status server
type Deps struct {
	Settings  scheduler.Settings
	Addresses scheduler.Addresses
	Prober    scheduler.Prober
	Logs      LogReader
	PortalURL string
}

// Server is the status sink and serves it over HTTP
type Server struct {
	deps      Deps
	templates *TemplateManager
	limiter   *rate.Limiter
	router    chi.Router
	http      *http.Server

	mu     sync.RWMutex
	status models.Status
}

// NewServer creates a new status server. probeQPS bounds on-demand probes.
func NewServer(listen string, probeQPS float64, deps Deps) *Server {
	limit := rate.Limit(probeQPS)
	if probeQPS <= 0 {
		limit = rate.Inf
	}

	s := &Server{
		deps:      deps,
		templates: NewTemplateManager(),
		limiter:   rate.NewLimiter(limit, 1),
		status:    models.Status{Network: scheduler.LabelUnknown},
	}

	if err := s.templates.LoadTemplates(); err != nil {
		zap.S().Warnf("Failed to load templates: %v", err)
	}
	s.setupRoutes()

	s.http = &http.Server{
		Addr:              listen,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Publish records the latest status event
func (s *Server) Publish(st models.Status) {
	s.mu.Lock()
	s.status = st
	s.mu.Unlock()
}

// Status returns the latest status event
func (s *Server) Status() models.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Handler returns the HTTP handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	zap.S().Infof("Starting HTTP server on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// setupRoutes configures HTTP routes
func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/", s.handleIndex)
	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatusAPI)
		r.Get("/logs", s.handleLogsAPI)
		r.Get("/preview", s.handlePreviewAPI)
		r.Post("/probe", s.handleProbeAPI)
	})

	s.router = r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zap.S().Debugf("Request from %s: %s %s", r.RemoteAddr, r.Method, r.URL.String())
		next.ServeHTTP(w, r)
	})
}
