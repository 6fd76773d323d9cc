// Package server exposes a session over a local HTTP API so a browser
// front-end can drive the same pipeline as the terminal UI.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"linae/model"
	"linae/storage"
)

const (
	maxBodyBytes    = 64 << 20
	shutdownTimeout = 5 * time.Second
)

// Namer reports the active model for health output.
type Namer interface {
	DisplayName() string
}

// Options configures New. Session is required.
type Options struct {
	Session *model.Session
	// Archive enables the /api/archive routes when set.
	Archive *storage.Archive
	Gateway Namer
	Logger  *zap.Logger
	// AllowedOrigins defaults to "*".
	AllowedOrigins []string
}

// Server serves one session.
type Server struct {
	session *model.Session
	archive *storage.Archive
	gateway Namer
	logger  *zap.Logger
	origins []string
	router  chi.Router
}

// New builds the router.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s := &Server{
		session: opts.Session,
		archive: opts.Archive,
		gateway: opts.Gateway,
		logger:  logger,
		origins: origins,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors(s.origins))

	r.Route("/api", func(r chi.Router) {
		r.Get("/healthz", s.health)

		r.Get("/turns", s.listTurns)
		r.Post("/turns", s.submitTurn)
		r.Get("/metrics", s.metrics)
		r.Get("/state", s.state)
		r.Get("/state/stream", s.streamState)

		r.Get("/concepts", s.concepts)
		r.Get("/manifesto", s.manifesto)

		if s.archive != nil {
			r.Route("/archive", func(r chi.Router) {
				r.Get("/sessions", s.archiveSessions)
				r.Get("/sessions/{id}", s.archiveTurns)
				r.Get("/search", s.archiveSearch)
			})
		}
	})

	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
// Open state streams end with ctx.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	// No write timeout: a turn holds its response open for the whole
	// display sequence.
	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}
