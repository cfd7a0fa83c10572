// Package server provides the HTTP API for docqa.
package server

import (
	"context"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/docqa/internal/config"
	"github.com/hyperjump/docqa/internal/rag"
	"go.uber.org/zap"
)

// DirectoryWatcher is the inbox watcher as seen by the watch endpoints.
// *watcher.Watcher implements it.
type DirectoryWatcher interface {
	Directories() []string
	AddDirectory(root string) error
}

// Server is the HTTP server for the docqa API.
type Server struct {
	service    *rag.Service
	config     *config.Config
	logger     *zap.Logger
	server     *http.Server
	watch      DirectoryWatcher
	configPath string
	configMu   sync.Mutex
}

// Option configures a Server.
type Option func(*Server)

// WithWatcher enables the /watch/directories endpoints.
func WithWatcher(w DirectoryWatcher) Option {
	return func(s *Server) { s.watch = w }
}

// WithConfigPath persists watch directories added over the API to the config file at path.
func WithConfigPath(path string) Option {
	return func(s *Server) { s.configPath = path }
}

// NewServer creates a server with the given dependencies.
func NewServer(service *rag.Service, cfg *config.Config, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		service: service,
		config:  cfg,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the router with all API routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	if timeout := s.config.Server.RequestTimeout; timeout > 0 {
		r.Use(middleware.Timeout(timeout))
	}

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Get("/status", s.handleStatus)
	r.Get("/documents", s.handleDocuments)
	r.Post("/upload", s.handleUpload)
	r.Post("/query", s.handleQuery)
	r.Delete("/sessions/{id}", s.handleClearSession)
	r.Get("/watch/directories", s.handleWatchDirectoriesList)
	r.Post("/watch/directories", s.handleWatchDirectoriesAdd)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := s.config.Server.Addr()
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// requestLogger logs each request through zap with the chi request ID.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()))
	})
}
