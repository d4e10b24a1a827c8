// Package server exposes the forest runtime over HTTP.
//
// The event server is what the editor's canvas talks to: it reads tree
// snapshots, posts single events, drops templates and mints aliases. Every
// error is returned as {"error":{"code":...,"message":...,"requestId":...}}.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/danieljhkim/atelier/internal/engine"
	"github.com/danieljhkim/atelier/internal/event"
	"github.com/danieljhkim/atelier/internal/forest"
)

const shutdownTimeout = 10 * time.Second

// Backend is the subset of the engine the server calls.
type Backend interface {
	Drop(ctx context.Context, req *engine.DropRequest) (*engine.DropResult, error)
	PostEvent(ctx context.Context, req *engine.PostEventRequest) error
	Tree(ctx context.Context, req *engine.TreeRequest) (*forest.Tree, error)
	TemplateEvents(ctx context.Context, dir, name string) ([]event.Event, error)
	Templates(dir string) (*engine.TemplateListResult, error)
	NewAlias(ctx context.Context, req *engine.AliasRequest) (string, error)
}

// Server is the HTTP event server.
type Server struct {
	backend Backend
	logger  *slog.Logger
}

// New creates a Server.
func New(backend Backend, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{backend: backend, logger: logger}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(s.loggingMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/forests/{pkg}/{forest}", func(r chi.Router) {
		r.Get("/trees/{tree}", s.getTree)
		r.Post("/events", s.postEvent)
		r.Post("/drops", s.postDrop)
	})
	r.Post("/aliases", s.postAlias)
	r.Get("/templates/{dir}", s.listTemplates)
	r.Get("/templates/{dir}/{name}", s.getTemplate)
	return r
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.logger.Info("event server listening", "addr", addr)

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		s.logger.Error("event server failure", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}
