// Package server exposes a mock engine over HTTP: per-resource CRUD routes
// derived from the registry, the event hub endpoints, health and a debug
// surface for tests.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/tmfmock/tmfmockd/pkg/engine"
	"github.com/tmfmock/tmfmockd/pkg/logging"
)

// Server serves one engine instance.
type Server struct {
	engine *engine.Engine
	log    *slog.Logger
	delay  time.Duration
	addr   string
	srv    *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(s *Server) { s.addr = addr }
}

// WithDelay adds artificial latency to every response.
func WithDelay(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.delay = d
		}
	}
}

// New creates a server for the given engine.
func New(eng *engine.Engine, opts ...Option) *Server {
	s := &Server{
		engine: eng,
		log:    logging.Nop(),
		addr:   ":4000",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the full route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	for _, name := range s.engine.Registry().Names() {
		rt, err := s.engine.Registry().Lookup(name)
		if err != nil {
			continue
		}
		base := rt.BasePath
		mux.HandleFunc("GET "+base, s.handleList(name))
		mux.HandleFunc("POST "+base, s.handleCreate(name))
		mux.HandleFunc("GET "+base+"/{id}", s.handleGet(name))
		mux.HandleFunc("PUT "+base+"/{id}", s.handleUpdate(name))
		mux.HandleFunc("PATCH "+base+"/{id}", s.handlePatch(name))
		mux.HandleFunc("DELETE "+base+"/{id}", s.handleDelete(name))
	}

	mux.HandleFunc("GET /resources", s.handleListResources)

	mux.HandleFunc("POST /hub", s.handleSubscribe)
	mux.HandleFunc("GET /hub", s.handleListSubscriptions)
	mux.HandleFunc("DELETE /hub/{id}", s.handleUnsubscribe)

	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("GET /__debug/state", s.handleDebugState)
	mux.HandleFunc("POST /__debug/reset", s.handleDebugReset)
	mux.HandleFunc("GET /__debug/errors/{code}", s.handleDebugError)

	var h http.Handler = mux
	if s.delay > 0 {
		h = s.delayMiddleware(h)
	}
	return s.logMiddleware(h)
}

// Start begins serving and blocks until the listener fails or Shutdown is
// called.
func (s *Server) Start() error {
	s.srv = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info("mock server listening", "addr", s.addr)

	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) delayMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(s.delay)
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response code for the request log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug("request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
