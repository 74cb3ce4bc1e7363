// Package server provides the HTTP server for the Drishti video review system.
package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/psarathy/drishti/internal/app"
	"github.com/psarathy/drishti/internal/server/api"
	"github.com/psarathy/drishti/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	App       *app.App
}

// Server represents the HTTP server for the Drishti application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	// Register session API handlers if Store is configured
	if s.config.Store != nil {
		sessionHandler := api.NewSessionHandler(s.config.Store)
		pauseHandler := api.NewPausePointsHandler(s.config.Store, s.pointsChanged)
		exportsHandler := api.NewExportsHandler(s.config.Store)

		// Use a wrapper to route between the session handler and the
		// nested collections: /api/sessions/{id}/pausepoints and
		// /api/sessions/{id}/exports
		sessionRouter := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, "/pausepoints") {
				pauseHandler.ServeHTTP(w, r)
				return
			}
			if strings.HasSuffix(r.URL.Path, "/exports") {
				exportsHandler.ServeHTTP(w, r)
				return
			}
			sessionHandler.ServeHTTP(w, r)
		})

		s.mux.Handle("/api/sessions", sessionRouter)
		s.mux.Handle("/api/sessions/", sessionRouter)
		s.mux.Handle("/api/pausepoints/", pauseHandler)
		s.mux.Handle("/api/exports", exportsHandler)
		s.mux.Handle("/api/exports/", exportsHandler)
	}

	// Register playback control, frame stream and status push if App is configured
	if s.config.App != nil {
		reviewHandler := NewReviewHandler(s.config.App)
		s.mux.Handle("/api/review", reviewHandler)
		s.mux.Handle("/api/review/", reviewHandler)
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.App))
		s.mux.Handle("/api/ws", NewStatusHandler(s.config.App))
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// pointsChanged refreshes the live playback schedule when the active
// session's pause points are edited through the API.
func (s *Server) pointsChanged(sessionID string) {
	a := s.config.App
	if a == nil {
		return
	}
	sess := a.Session()
	if sess == nil || sess.ID != sessionID {
		return
	}
	if err := a.ReloadPausePoints(); err != nil {
		log.Printf("Failed to reload pause points: %v", err)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status": "ok",
		"uptime": uptime.String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
