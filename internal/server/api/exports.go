package api

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/psarathy/drishti/internal/store"
)

// ExportsHandler serves export history and file downloads. Records are
// created by the review export endpoint, so this handler never writes.
type ExportsHandler struct {
	store *store.Store
}

// NewExportsHandler creates a new ExportsHandler with the given store.
func NewExportsHandler(s *store.Store) *ExportsHandler {
	return &ExportsHandler{store: s}
}

// ServeHTTP implements the http.Handler interface.
// Expected paths: /api/exports, /api/exports/{id}/download and
// /api/sessions/{id}/exports
func (h *ExportsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if strings.HasPrefix(r.URL.Path, "/api/sessions/") {
		// Parse session ID from path: /api/sessions/{id}/exports
		path := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
		parts := strings.Split(path, "/")

		if len(parts) != 2 || parts[1] != "exports" {
			writeError(w, http.StatusNotFound, "Not found")
			return
		}

		h.list(w, r, parts[0])
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/exports")
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		h.list(w, r, "")
		return
	}

	// Item path: {id}/download
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[1] != "download" {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid export ID")
		return
	}
	h.download(w, r, id)
}

// Response types

type exportResponse struct {
	ID        int64    `json:"id"`
	SessionID string   `json:"session_id"`
	Path      string   `json:"path"`
	Position  float64  `json:"position"`
	Width     int      `json:"width"`
	Height    int      `json:"height"`
	Joint     string   `json:"joint,omitempty"`
	Angle     *float64 `json:"angle,omitempty"`
	CreatedAt string   `json:"created_at"`
}

type listExportsResponse struct {
	Exports []exportResponse `json:"exports"`
}

// list returns export history, newest first. An empty sessionID lists
// exports across all sessions.
func (h *ExportsHandler) list(w http.ResponseWriter, r *http.Request, sessionID string) {
	var (
		exports []*store.Export
		err     error
	)
	if sessionID == "" {
		exports, err = h.store.Exports().List()
	} else {
		exports, err = h.store.Exports().ListBySession(sessionID)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list exports")
		return
	}

	response := listExportsResponse{
		Exports: make([]exportResponse, 0, len(exports)),
	}

	for _, e := range exports {
		response.Exports = append(response.Exports, exportResponse{
			ID:        e.ID,
			SessionID: e.SessionID,
			Path:      e.Path,
			Position:  e.Position,
			Width:     e.Width,
			Height:    e.Height,
			Joint:     e.Joint,
			Angle:     e.Angle,
			CreatedAt: e.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	writeJSON(w, http.StatusOK, response)
}

// download streams the exported PNG with an attachment disposition.
func (h *ExportsHandler) download(w http.ResponseWriter, r *http.Request, id int64) {
	export, err := h.store.Exports().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Export not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load export")
		return
	}

	// The file may have been removed from disk since it was recorded
	if _, err := os.Stat(export.Path); err != nil {
		writeError(w, http.StatusNotFound, "Export file missing")
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(export.Path)+`"`)
	http.ServeFile(w, r, export.Path)
}
