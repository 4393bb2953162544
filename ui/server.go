package ui

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"gobias/app"
)

// Server exposes the analysis services over a JSON API. Table files
// are read from disk per request; nothing is persisted.
type Server struct {
	router   chi.Router
	analysis *app.AnalysisService
	sweep    *app.SweepService
}

// NewServer wires the routes.
func NewServer() *Server {
	analysis := app.NewAnalysisService()
	s := &Server{
		analysis: analysis,
		sweep:    app.NewSweepService(analysis),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", s.handleHealth)
	r.Post("/api/analyze", s.handleAnalyze)
	r.Post("/api/sweep", s.handleSweep)
	r.Post("/api/report", s.handleReport)

	s.router = r
	return s
}

// Router returns the http handler.
func (s *Server) Router() http.Handler {
	return s.router
}

// ListenAndServe blocks serving the API.
func (s *Server) ListenAndServe(addr string) error {
	log.Printf("[Server] listening on %s", addr)
	return http.ListenAndServe(addr, s.router)
}
