package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/psarathy/drishti/internal/store"
)

// PausePointsHandler handles HTTP requests for pause point resources.
// List and create are nested under the owning session; delete addresses
// points directly by ID. onChange, if set, is invoked with the session
// ID after every mutation so the live playback schedule can follow.
type PausePointsHandler struct {
	store    *store.Store
	onChange func(sessionID string)
}

// NewPausePointsHandler creates a new PausePointsHandler with the given store.
func NewPausePointsHandler(s *store.Store, onChange func(sessionID string)) *PausePointsHandler {
	return &PausePointsHandler{store: s, onChange: onChange}
}

// ServeHTTP implements the http.Handler interface.
// Expected paths: /api/sessions/{id}/pausepoints and /api/pausepoints/{id}
func (h *PausePointsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/pausepoints") {
		h.item(w, r)
		return
	}

	// Parse session ID from path: /api/sessions/{id}/pausepoints
	path := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	parts := strings.Split(path, "/")

	if len(parts) != 2 || parts[1] != "pausepoints" {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	sessionID := parts[0]

	switch r.Method {
	case http.MethodGet:
		h.list(w, r, sessionID)
	case http.MethodPost:
		h.create(w, r, sessionID)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Request and response types

type createPausePointRequest struct {
	Seconds float64 `json:"seconds"`
	Label   string  `json:"label"`
}

type pausePointResponse struct {
	ID        int64   `json:"id"`
	SessionID string  `json:"session_id"`
	Seconds   float64 `json:"seconds"`
	Label     string  `json:"label,omitempty"`
	Suggested bool    `json:"suggested"`
	CreatedAt string  `json:"created_at"`
}

type listPausePointsResponse struct {
	PausePoints []pausePointResponse `json:"pause_points"`
}

// toPausePointResponse converts a store.PausePoint to a pausePointResponse.
func toPausePointResponse(p *store.PausePoint) pausePointResponse {
	return pausePointResponse{
		ID:        p.ID,
		SessionID: p.SessionID,
		Seconds:   p.Seconds,
		Label:     p.Label,
		Suggested: p.Suggested,
		CreatedAt: p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// notifyChange tells the listener that a session's points were edited.
func (h *PausePointsHandler) notifyChange(sessionID string) {
	if h.onChange != nil {
		h.onChange(sessionID)
	}
}

// list handles GET /api/sessions/{id}/pausepoints, ordered by time.
func (h *PausePointsHandler) list(w http.ResponseWriter, r *http.Request, sessionID string) {
	points, err := h.store.PausePoints().ListBySession(sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list pause points")
		return
	}

	response := listPausePointsResponse{
		PausePoints: make([]pausePointResponse, 0, len(points)),
	}

	for _, p := range points {
		response.PausePoints = append(response.PausePoints, toPausePointResponse(p))
	}

	writeJSON(w, http.StatusOK, response)
}

// create handles POST /api/sessions/{id}/pausepoints
func (h *PausePointsHandler) create(w http.ResponseWriter, r *http.Request, sessionID string) {
	// Verify session exists
	_, err := h.store.Sessions().GetByID(sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to verify session")
		return
	}

	var req createPausePointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Seconds < 0 {
		writeError(w, http.StatusBadRequest, "seconds must be non-negative")
		return
	}

	point := &store.PausePoint{
		SessionID: sessionID,
		Seconds:   req.Seconds,
		Label:     req.Label,
	}

	if err := h.store.PausePoints().Create(point); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create pause point")
		return
	}

	h.notifyChange(sessionID)
	writeJSON(w, http.StatusCreated, toPausePointResponse(point))
}

// item handles DELETE /api/pausepoints/{id}
func (h *PausePointsHandler) item(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/pausepoints")
	path = strings.TrimPrefix(path, "/")

	id, err := strconv.ParseInt(path, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid pause point ID")
		return
	}

	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Fetch first so the owning session is known for the change notice
	point, err := h.store.PausePoints().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Pause point not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get pause point")
		return
	}

	if err := h.store.PausePoints().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Pause point not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete pause point")
		return
	}

	h.notifyChange(point.SessionID)
	w.WriteHeader(http.StatusNoContent)
}
