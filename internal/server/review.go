package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/psarathy/drishti/internal/app"
	"github.com/psarathy/drishti/internal/export"
	"github.com/psarathy/drishti/internal/overlay"
	"github.com/psarathy/drishti/internal/store"
)

// ReviewHandler exposes playback and overlay control for the active
// review session. All state-changing endpoints respond with the
// resulting review status so clients need no follow-up poll.
type ReviewHandler struct {
	app *app.App
}

// NewReviewHandler creates a new ReviewHandler for the given app.
func NewReviewHandler(a *app.App) *ReviewHandler {
	return &ReviewHandler{app: a}
}

// ServeHTTP implements the http.Handler interface and routes requests
// to the control endpoints under /api/review/.
func (h *ReviewHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/review")
	path = strings.TrimPrefix(path, "/")

	if path == "" || path == "status" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.status(w, r)
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch path {
	case "open":
		h.open(w, r)
	case "close":
		h.close(w, r)
	case "play":
		h.play(w, r)
	case "pause":
		h.pause(w, r)
	case "seek":
		h.seek(w, r)
	case "view":
		h.view(w, r)
	case "pointer":
		h.pointer(w, r)
	case "overlay":
		h.overlay(w, r)
	case "dimming":
		h.dimming(w, r)
	case "export":
		h.export(w, r)
	case "suggest":
		h.suggest(w, r)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

// Request and response types

type openRequest struct {
	SessionID string `json:"session_id"`
}

type seekRequest struct {
	Position float64 `json:"position"`
}

type viewRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type pointerRequest struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Click bool    `json:"click"`
}

type pointerResponse struct {
	Detail *overlay.Detail `json:"detail"`
}

type toggleRequest struct {
	Enabled bool `json:"enabled"`
}

type exportRequest struct {
	Snapshot bool `json:"snapshot"`
}

type suggestResponse struct {
	Points []float64 `json:"points"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// status handles GET /api/review/status.
func (h *ReviewHandler) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.app.Status())
}

// open handles POST /api/review/open and loads a session for review.
func (h *ReviewHandler) open(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	session, err := h.app.Store().Sessions().GetByID(req.SessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}

	if err := h.app.LoadSession(session); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, h.app.Status())
}

// close handles POST /api/review/close.
func (h *ReviewHandler) close(w http.ResponseWriter, r *http.Request) {
	h.app.CloseSession()
	writeJSON(w, http.StatusOK, h.app.Status())
}

// play handles POST /api/review/play.
func (h *ReviewHandler) play(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Play(); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.app.Status())
}

// pause handles POST /api/review/pause.
func (h *ReviewHandler) pause(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Pause(); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.app.Status())
}

// seek handles POST /api/review/seek.
func (h *ReviewHandler) seek(w http.ResponseWriter, r *http.Request) {
	var req seekRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Position < 0 {
		writeError(w, http.StatusBadRequest, "position must be non-negative")
		return
	}

	if err := h.app.Seek(req.Position); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.app.Status())
}

// view handles POST /api/review/view and sets the client display size.
func (h *ReviewHandler) view(w http.ResponseWriter, r *http.Request) {
	var req viewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Width <= 0 || req.Height <= 0 {
		writeError(w, http.StatusBadRequest, "width and height must be positive")
		return
	}

	if err := h.app.SetDisplaySize(req.Width, req.Height); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.app.Status())
}

// pointer handles POST /api/review/pointer: hit-tests a hover or click
// position against the rendered skeleton and returns the joint detail,
// or null when nothing was hit.
func (h *ReviewHandler) pointer(w http.ResponseWriter, r *http.Request) {
	var req pointerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	detail := h.app.HandlePointer(req.X, req.Y, req.Click)
	writeJSON(w, http.StatusOK, pointerResponse{Detail: detail})
}

// overlay handles POST /api/review/overlay.
func (h *ReviewHandler) overlay(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	h.app.SetOverlayEnabled(req.Enabled)
	writeJSON(w, http.StatusOK, h.app.Status())
}

// dimming handles POST /api/review/dimming.
func (h *ReviewHandler) dimming(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	h.app.SetDimmingEnabled(req.Enabled)
	writeJSON(w, http.StatusOK, h.app.Status())
}

// export handles POST /api/review/export and writes a PNG still of the
// current frame with the overlay composited at native resolution.
func (h *ReviewHandler) export(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	result, err := h.app.Export(req.Snapshot)
	if err != nil {
		if errors.Is(err, export.ErrNotReady) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to export frame")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// suggest handles POST /api/review/suggest and scans the session video
// for still moments worth pausing on.
func (h *ReviewHandler) suggest(w http.ResponseWriter, r *http.Request) {
	points, err := h.app.SuggestPausePoints()
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	if points == nil {
		points = []float64{}
	}
	writeJSON(w, http.StatusOK, suggestResponse{Points: points})
}
