// Package server exposes a sample document over HTTP.
//
// Routes:
//
//	GET /api/testdata   the document bytes exactly as loaded
//	GET /api/sample     model ?model=N normalized and renumbered
//	GET /api/render     model ?model=N drawn as ?format=svg|dot
//	GET /healthz        liveness
//
// Every response allows any origin. The server is read-only.
package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/layerstack/pkg/io"
)

const shutdownTimeout = 5 * time.Second

// Server serves a single document loaded at startup.
type Server struct {
	logger  *log.Logger
	router  chi.Router
	data    []byte
	doc     *io.Document
	source  string
	started time.Time
}

// New creates a server for the document encoded in data. source names where
// data came from and is reported by /healthz. A nil logger uses
// log.Default(). Data that does not decode fails with INVALID_FORMAT.
func New(data []byte, source string, logger *log.Logger) (*Server, error) {
	doc, err := io.ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		logger:  logger,
		data:    data,
		doc:     doc,
		source:  source,
		started: time.Now(),
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(cors)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/testdata", s.handleTestData)
		r.Get("/sample", s.handleSample)
		r.Get("/render", s.handleRender)
	})
	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", addr, "source", s.source)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
