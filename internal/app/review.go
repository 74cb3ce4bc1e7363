package app

import (
	"fmt"
	"log"

	"github.com/psarathy/drishti/internal/export"
	"github.com/psarathy/drishti/internal/overlay"
	"github.com/psarathy/drishti/internal/playback"
)

// Status is a snapshot of the review state, broadcast to clients.
type Status struct {
	SessionID     string          `json:"session_id,omitempty"`
	Title         string          `json:"title,omitempty"`
	State         string          `json:"state"`
	Position      float64         `json:"position"`
	Duration      float64         `json:"duration"`
	Overlay       bool            `json:"overlay"`
	Dimming       bool            `json:"dimming"`
	HasPose       bool            `json:"has_pose"`
	Detail        *overlay.Detail `json:"detail,omitempty"`
	NativeWidth   int             `json:"native_width,omitempty"`
	NativeHeight  int             `json:"native_height,omitempty"`
	DisplayWidth  int             `json:"display_width,omitempty"`
	DisplayHeight int             `json:"display_height,omitempty"`
}

func (a *App) controller() (*playback.Controller, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.ctrl == nil {
		return nil, fmt.Errorf("no session loaded")
	}
	return a.ctrl, nil
}

// Play starts or resumes playback of the active session.
func (a *App) Play() error {
	ctrl, err := a.controller()
	if err != nil {
		return err
	}
	return ctrl.Play()
}

// Pause pauses playback. A detection pass follows once the paused
// frame has settled.
func (a *App) Pause() error {
	ctrl, err := a.controller()
	if err != nil {
		return err
	}
	ctrl.Pause()
	return nil
}

// Seek moves the playback position.
func (a *App) Seek(t float64) error {
	ctrl, err := a.controller()
	if err != nil {
		return err
	}
	ctrl.Seek(t)
	return nil
}

// Position returns the current media time, or 0 with no session.
func (a *App) Position() float64 {
	ctrl, err := a.controller()
	if err != nil {
		return 0
	}
	return ctrl.Position()
}

// Status returns a snapshot of the review state.
func (a *App) Status() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()

	st := Status{
		State:   "idle",
		Overlay: a.overlayEnabled,
		Dimming: a.dimEnabled,
	}
	if a.session == nil {
		return st
	}

	st.SessionID = a.session.ID
	st.Title = a.session.Title
	st.State = string(a.ctrl.State())
	st.Position = a.ctrl.Position()
	st.Duration = a.ctrl.Duration()
	st.HasPose = a.lastPose != nil
	if a.detail != nil {
		d := *a.detail
		st.Detail = &d
	}
	st.NativeWidth, st.NativeHeight = a.mapper.NativeSize()
	st.DisplayWidth, st.DisplayHeight = a.mapper.DisplaySize()
	return st
}

// SetDisplaySize updates the display resolution the client renders at.
// The overlay is re-rendered from the last pose at the new scale.
func (a *App) SetDisplaySize(w, h int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.session == nil {
		return fmt.Errorf("no session loaded")
	}
	if w <= 0 || h <= 0 {
		return fmt.Errorf("invalid display size %dx%d", w, h)
	}

	a.mapper.SetDisplaySize(w, h)
	a.surface.Resize(w, h)
	a.redrawLocked()
	a.remapDetailLocked()
	return nil
}

// remapDetailLocked recomputes the detail position after a mapper
// change, keeping the same joint and mode.
func (a *App) remapDetailLocked() {
	if a.detail == nil || a.lastPose == nil {
		return
	}
	kps := a.lastPose.KeypointMap()
	kp, ok := kps[a.detail.Name]
	if !ok {
		a.detail = nil
		return
	}
	d := overlay.NewDetail(kp, kps, a.mapper, a.detail.Mode)
	a.detail = &d
}

// HandlePointer hit-tests a pointer event in display coordinates and
// updates the selected joint detail. Click hits pin the detail until
// cleared; hover hits track the pointer and never displace a pinned
// click detail. A click on empty space clears the pinned detail.
func (a *App) HandlePointer(x, y float64, click bool) *overlay.Detail {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.session == nil || a.lastPose == nil || !a.overlayEnabled {
		a.detail = nil
		return nil
	}

	kp, ok := a.hitter.FindHit(a.lastPose, x, y)
	if !ok {
		if click {
			a.detail = nil
		} else if a.detail != nil && a.detail.Mode == overlay.ModeHover {
			a.detail = nil
		}
	} else {
		mode := overlay.ModeHover
		if click {
			mode = overlay.ModeClick
		}
		if click || a.detail == nil || a.detail.Mode == overlay.ModeHover {
			d := overlay.NewDetail(kp, a.lastPose.KeypointMap(), a.mapper, mode)
			a.detail = &d
		}
	}

	if a.detail == nil {
		return nil
	}
	d := *a.detail
	return &d
}

// OverlayEnabled reports whether the skeleton overlay is shown.
func (a *App) OverlayEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.overlayEnabled
}

// SetOverlayEnabled toggles the skeleton overlay. Re-enabling while
// paused runs a detection pass so the current frame gets an overlay
// without requiring a resume.
func (a *App) SetOverlayEnabled(on bool) {
	a.mu.Lock()
	changed := a.overlayEnabled != on
	a.overlayEnabled = on
	if !on {
		a.detail = nil
	}
	a.redrawLocked()
	ctrl := a.ctrl
	a.mu.Unlock()

	if !changed {
		return
	}
	a.saveToggle(settingOverlayEnabled, on)
	if on && ctrl != nil && ctrl.State() == playback.StatePaused {
		a.handleDetectionDue(ctrl.Position())
	}
}

// DimmingEnabled reports whether the spotlight dimming is applied.
func (a *App) DimmingEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.dimEnabled
}

// SetDimmingEnabled toggles the spotlight dimming layer.
func (a *App) SetDimmingEnabled(on bool) {
	a.mu.Lock()
	changed := a.dimEnabled != on
	a.dimEnabled = on
	a.redrawLocked()
	a.mu.Unlock()

	if changed {
		a.saveToggle(settingDimmingEnabled, on)
	}
}

// ReloadPausePoints re-reads the session's pause points from the store
// into the live schedule. Called after points are added or removed via
// the API.
func (a *App) ReloadPausePoints() error {
	a.mu.RLock()
	session := a.session
	sched := a.sched
	a.mu.RUnlock()

	if session == nil || sched == nil || a.cfg.Store == nil {
		return nil
	}

	seconds, err := a.cfg.Store.PausePoints().SecondsBySession(session.ID)
	if err != nil {
		return fmt.Errorf("failed to reload pause points: %w", err)
	}
	sched.SetPoints(seconds)
	return nil
}

// Export composites the current frame at native resolution with the
// overlay and any active joint detail, writes it as a PNG and returns
// it for download. snapshot selects the simple capture variant.
func (a *App) Export(snapshot bool) (*export.Result, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.session == nil || a.src == nil {
		err := fmt.Errorf("%w: no session loaded", export.ErrNotReady)
		log.Printf("Export skipped: %v", err)
		return nil, err
	}

	pos := a.ctrl.Position()
	frame, err := a.src.ReadFrameAt(pos)
	if err != nil {
		log.Printf("Export skipped: failed to read frame: %v", err)
		return nil, fmt.Errorf("%w: %v", export.ErrNotReady, err)
	}
	defer frame.Close()

	res, err := a.exporter.Export(export.Request{
		Frame:     frame,
		Overlay:   a.surface,
		Detail:    a.detail,
		Mapper:    a.mapper,
		SessionID: a.session.ID,
		Position:  pos,
		Snapshot:  snapshot,
	})
	if err != nil {
		log.Printf("Export failed: %v", err)
		return nil, err
	}

	log.Printf("Exported %s at %.2fs", res.Filename, pos)
	return res, nil
}
