package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/psarathy/drishti/internal/store"
)

// seedSession creates a session row the pause point tests can hang off.
func seedSession(t *testing.T, s *store.Store) *store.Session {
	t.Helper()

	session := &store.Session{
		ID:        "test-session-1",
		Title:     "Long jump practice",
		VideoPath: "/library/longjump-0412.mp4",
		Duration:  32.5,
	}
	if err := s.Sessions().Create(session); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	return session
}

func TestPausePointsHandler_CreateAndList(t *testing.T) {
	s := newTestStore(t)
	session := seedSession(t, s)

	var changed []string
	handler := NewPausePointsHandler(s, func(sessionID string) {
		changed = append(changed, sessionID)
	})

	// Create two points out of order
	for _, seconds := range []float64{21.5, 6.0} {
		body, _ := json.Marshal(createPausePointRequest{Seconds: seconds})
		req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+session.ID+"/pausepoints", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("create at %.1fs: expected status %d, got %d: %s", seconds, http.StatusCreated, rec.Code, rec.Body.String())
		}
	}

	if len(changed) != 2 {
		t.Errorf("expected 2 change notices, got %d", len(changed))
	}

	// List must come back ordered by time
	req := httptest.NewRequest(http.MethodGet, "/api/sessions/"+session.ID+"/pausepoints", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var response listPausePointsResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(response.PausePoints) != 2 {
		t.Fatalf("expected 2 pause points, got %d", len(response.PausePoints))
	}

	if response.PausePoints[0].Seconds != 6.0 || response.PausePoints[1].Seconds != 21.5 {
		t.Errorf("pause points not ordered by time: got %.1f, %.1f",
			response.PausePoints[0].Seconds, response.PausePoints[1].Seconds)
	}
}

func TestPausePointsHandler_Create_SessionNotFound(t *testing.T) {
	s := newTestStore(t)
	handler := NewPausePointsHandler(s, nil)

	body, _ := json.Marshal(createPausePointRequest{Seconds: 6.0})
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/non-existent/pausepoints", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestPausePointsHandler_Create_NegativeSeconds(t *testing.T) {
	s := newTestStore(t)
	session := seedSession(t, s)
	handler := NewPausePointsHandler(s, nil)

	body, _ := json.Marshal(createPausePointRequest{Seconds: -1.0})
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+session.ID+"/pausepoints", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestPausePointsHandler_Delete(t *testing.T) {
	s := newTestStore(t)
	session := seedSession(t, s)

	point := &store.PausePoint{SessionID: session.ID, Seconds: 6.0, Label: "takeoff"}
	if err := s.PausePoints().Create(point); err != nil {
		t.Fatalf("failed to create pause point: %v", err)
	}

	var changed []string
	handler := NewPausePointsHandler(s, func(sessionID string) {
		changed = append(changed, sessionID)
	})

	req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/pausepoints/%d", point.ID), nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}

	// The change notice must carry the owning session
	if len(changed) != 1 || changed[0] != session.ID {
		t.Errorf("change notices = %v, want [%s]", changed, session.ID)
	}

	// Verify the point is gone
	if _, err := s.PausePoints().GetByID(point.ID); err != store.ErrNotFound {
		t.Errorf("GetByID after delete error = %v, want ErrNotFound", err)
	}
}

func TestPausePointsHandler_Delete_NotFound(t *testing.T) {
	s := newTestStore(t)
	handler := NewPausePointsHandler(s, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/pausepoints/9999", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestPausePointsHandler_Delete_InvalidID(t *testing.T) {
	s := newTestStore(t)
	handler := NewPausePointsHandler(s, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/pausepoints/not-a-number", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}
