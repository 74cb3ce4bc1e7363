package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/google/uuid"

	"github.com/psarathy/drishti/internal/app"
	"github.com/psarathy/drishti/internal/config"
	"github.com/psarathy/drishti/internal/detector"
	"github.com/psarathy/drishti/internal/store"
	"github.com/psarathy/drishti/internal/video"
)

// newReviewServer builds a server backed by an app with a mock video
// source and mock detector, plus a session row ready to open.
func newReviewServer(t *testing.T) (*Server, *store.Session) {
	t.Helper()

	tmpDir := t.TempDir()
	st, err := store.New(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { st.Close() })

	a := app.New(app.Config{
		Store:     st,
		ExportDir: filepath.Join(tmpDir, "exports"),
		Overlay:   config.Default().Overlay,
	})
	t.Cleanup(a.Stop)

	a.SetDetector(detector.NewMockDetector())
	a.SetSourceFactory(func(path string) video.Source {
		return video.NewMockSource(video.Metadata{
			Width: 1920, Height: 1080, FPS: 30, FrameCount: 900,
		})
	})

	session := &store.Session{
		ID:        uuid.New().String(),
		Title:     "Long jump practice",
		VideoPath: "/library/longjump-0412.mp4",
	}
	if err := st.Sessions().Create(session); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	return New(Config{Store: st, App: a}), session
}

// post sends a JSON body to the server and decodes the response into out.
func post(t *testing.T, s *Server, path, body string, out interface{}) int {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	if out != nil && rec.Code < 300 {
		if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
			t.Fatalf("POST %s: failed to decode response: %v", path, err)
		}
	}
	return rec.Code
}

func TestReview_NoSession(t *testing.T) {
	srv, _ := newReviewServer(t)

	// Status reports idle before any session is opened
	req := httptest.NewRequest(http.MethodGet, "/api/review/status", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("GET status code = %d, want %d", rec.Code, http.StatusOK)
	}

	var status app.Status
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("failed to decode status: %v", err)
	}
	if status.State != "idle" {
		t.Errorf("state = %q, want idle", status.State)
	}

	// Playback control without a session is rejected
	if code := post(t, srv, "/api/review/play", `{}`, nil); code != http.StatusConflict {
		t.Errorf("play code = %d, want %d", code, http.StatusConflict)
	}

	// Export without a session is rejected
	if code := post(t, srv, "/api/review/export", `{}`, nil); code != http.StatusConflict {
		t.Errorf("export code = %d, want %d", code, http.StatusConflict)
	}
}

func TestReview_OpenUnknownSession(t *testing.T) {
	srv, _ := newReviewServer(t)

	code := post(t, srv, "/api/review/open", `{"session_id": "non-existent"}`, nil)
	if code != http.StatusNotFound {
		t.Errorf("open code = %d, want %d", code, http.StatusNotFound)
	}
}

func TestReview_BadRequests(t *testing.T) {
	srv, _ := newReviewServer(t)

	cases := []struct {
		path string
		body string
	}{
		{"/api/review/open", `{"session_id": ""}`},
		{"/api/review/seek", `{"position": -1}`},
		{"/api/review/view", `{"width": 0, "height": 360}`},
		{"/api/review/pointer", `not json`},
	}

	for _, tc := range cases {
		if code := post(t, srv, tc.path, tc.body, nil); code != http.StatusBadRequest {
			t.Errorf("POST %s code = %d, want %d", tc.path, code, http.StatusBadRequest)
		}
	}
}

func TestReview_OpenAndControl(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	srv, session := newReviewServer(t)

	// Open the session
	var status app.Status
	code := post(t, srv, "/api/review/open", `{"session_id": "`+session.ID+`"}`, &status)
	if code != http.StatusOK {
		t.Fatalf("open code = %d, want %d", code, http.StatusOK)
	}
	if status.State != "ready" {
		t.Errorf("state after open = %q, want ready", status.State)
	}
	if status.NativeWidth != 1920 || status.NativeHeight != 1080 {
		t.Errorf("native size = %dx%d, want 1920x1080", status.NativeWidth, status.NativeHeight)
	}

	// Set the client view size
	code = post(t, srv, "/api/review/view", `{"width": 640, "height": 360}`, &status)
	if code != http.StatusOK {
		t.Fatalf("view code = %d, want %d", code, http.StatusOK)
	}
	if status.DisplayWidth != 640 || status.DisplayHeight != 360 {
		t.Errorf("display size = %dx%d, want 640x360", status.DisplayWidth, status.DisplayHeight)
	}

	// Seek, then run through the play/pause cycle
	code = post(t, srv, "/api/review/seek", `{"position": 5.0}`, &status)
	if code != http.StatusOK {
		t.Fatalf("seek code = %d, want %d", code, http.StatusOK)
	}
	if status.Position != 5.0 {
		t.Errorf("position after seek = %f, want 5.0", status.Position)
	}

	code = post(t, srv, "/api/review/play", `{}`, &status)
	if code != http.StatusOK || status.State != "playing" {
		t.Fatalf("play code = %d state = %q, want 200 playing", code, status.State)
	}

	code = post(t, srv, "/api/review/pause", `{}`, &status)
	if code != http.StatusOK || status.State != "paused" {
		t.Fatalf("pause code = %d state = %q, want 200 paused", code, status.State)
	}

	// Toggle the overlay off
	code = post(t, srv, "/api/review/overlay", `{"enabled": false}`, &status)
	if code != http.StatusOK {
		t.Fatalf("overlay code = %d, want %d", code, http.StatusOK)
	}
	if status.Overlay {
		t.Error("overlay still enabled after toggle off")
	}

	// Close returns to idle
	code = post(t, srv, "/api/review/close", `{}`, &status)
	if code != http.StatusOK || status.State != "idle" {
		t.Errorf("close code = %d state = %q, want 200 idle", code, status.State)
	}
}

func TestReview_PointerNoPose(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	srv, session := newReviewServer(t)

	if code := post(t, srv, "/api/review/open", `{"session_id": "`+session.ID+`"}`, nil); code != http.StatusOK {
		t.Fatalf("open code = %d, want %d", code, http.StatusOK)
	}

	// No detection has run, so any pointer position misses
	var resp pointerResponse
	code := post(t, srv, "/api/review/pointer", `{"x": 320, "y": 180, "click": true}`, &resp)
	if code != http.StatusOK {
		t.Fatalf("pointer code = %d, want %d", code, http.StatusOK)
	}
	if resp.Detail != nil {
		t.Errorf("detail = %+v, want nil", resp.Detail)
	}
}

func TestReview_Export(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	srv, session := newReviewServer(t)

	if code := post(t, srv, "/api/review/open", `{"session_id": "`+session.ID+`"}`, nil); code != http.StatusOK {
		t.Fatalf("open code = %d, want %d", code, http.StatusOK)
	}

	var result struct {
		Filename string `json:"filename"`
		Width    int    `json:"width"`
		Height   int    `json:"height"`
	}
	code := post(t, srv, "/api/review/export", `{"snapshot": false}`, &result)
	if code != http.StatusOK {
		t.Fatalf("export code = %d, want %d", code, http.StatusOK)
	}

	if !regexp.MustCompile(`^frame_\d+\.png$`).MatchString(result.Filename) {
		t.Errorf("filename = %q, want frame_<ms>.png", result.Filename)
	}
	if result.Width != 1920 || result.Height != 1080 {
		t.Errorf("export size = %dx%d, want 1920x1080", result.Width, result.Height)
	}
}

func TestReview_PausePointEditRefreshesSchedule(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	srv, session := newReviewServer(t)

	if code := post(t, srv, "/api/review/open", `{"session_id": "`+session.ID+`"}`, nil); code != http.StatusOK {
		t.Fatalf("open code = %d, want %d", code, http.StatusOK)
	}

	// Creating a point through the API while the session is open must
	// not error; the schedule refresh runs through the change notice
	code := post(t, srv, "/api/sessions/"+session.ID+"/pausepoints", `{"seconds": 6.0}`, nil)
	if code != http.StatusCreated {
		t.Fatalf("create pause point code = %d, want %d", code, http.StatusCreated)
	}
}
