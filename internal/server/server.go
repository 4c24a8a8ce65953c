// Package server provides the HTTP read and admin surface.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"igfeed/internal/app"
	"igfeed/pkg/logger"
)

const shutdownTimeout = 30 * time.Second

// NextRun reports the next scheduled refresh
type NextRun func() (time.Time, bool)

// Server is the HTTP server
type Server struct {
	app        *app.App
	nextRun    NextRun
	adminToken string
	router     chi.Router
	logger     logger.Logger
}

// New creates a server for a; nextRun may be nil
func New(a *app.App, nextRun NextRun, log logger.Logger) *Server {
	if nextRun == nil {
		nextRun = func() (time.Time, bool) { return time.Time{}, false }
	}
	s := &Server{
		app:        a,
		nextRun:    nextRun,
		adminToken: a.Config.Server.AdminToken,
		logger:     logger.OrDefault(log).WithField("component", "server"),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/feed", s.handleFeed)
	r.Get("/media/{id}", s.handleMedia)

	r.Route("/admin", func(r chi.Router) {
		r.Use(s.requireAdmin)
		r.Post("/refresh", s.handleRefresh)
		r.Get("/settings", s.handleGetSettings)
		r.Post("/settings", s.handleSaveSettings)
		r.Get("/status", s.handleStatus)
	})

	s.router = r
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves on addr until ctx is done, then shuts down gracefully
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.LogComponentStart(s.logger, "http server", map[string]interface{}{"addr": addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
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
	logger.LogComponentStop(s.logger, "http server", "shutdown")
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logger.LogRequest(s.logger.WithField("request_id", middleware.GetReqID(r.Context())),
			r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}
