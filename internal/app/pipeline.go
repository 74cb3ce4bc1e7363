package app

import (
	"fmt"
	"image"
	"log"
	"time"

	"gocv.io/x/gocv"

	"github.com/psarathy/drishti/internal/overlay"
	"github.com/psarathy/drishti/internal/playback"
)

// tickInterval is the loop cadence. Detection itself is rate-capped
// separately: at most one pass per DetectionInterval while playing.
const tickInterval = 16 * time.Millisecond

// runLoop is the detection loop. While playback is running it invokes
// the pose detector at the capped rate and redraws the overlay from
// each non-empty result. Post-pause detection requests arrive on
// detectCh and bypass the rate gate, since the settle delay has already
// spaced them out.
//
// Loop logic:
//  1. On every tick while Playing, detect if the gate has reopened.
//  2. On a detectCh signal (pause settled), detect immediately.
//  3. An empty or failed detection keeps the previous overlay, so the
//     skeleton never flickers to blank mid-review.
//  4. Results that resolve after a session teardown are discarded.
func (a *App) runLoop(stopCh chan struct{}) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case pos := <-a.detectCh:
			a.detect(pos)
		case <-ticker.C:
			a.maybeDetect()
		}
	}
}

// maybeDetect runs a detection pass if playback is active and the rate
// gate has reopened.
func (a *App) maybeDetect() {
	a.mu.RLock()
	ctrl := a.ctrl
	enabled := a.overlayEnabled
	last := a.lastDetect
	a.mu.RUnlock()

	if ctrl == nil || !enabled {
		return
	}
	if ctrl.State() != playback.StatePlaying {
		return
	}
	if time.Since(last) < a.cfg.Overlay.DetectionInterval() {
		return
	}

	a.detect(ctrl.Position())
}

// detect reads the frame at pos, runs the pose detector and applies the
// result. The gate timestamp is taken at the attempt, not at success,
// so a failing detector does not spin faster than the cap.
func (a *App) detect(pos float64) {
	a.mu.Lock()
	if a.src == nil || a.det == nil || !a.overlayEnabled {
		a.mu.Unlock()
		return
	}
	src := a.src
	det := a.det
	gen := a.gen
	a.lastDetect = time.Now()
	a.mu.Unlock()

	frame, err := src.ReadFrameAt(pos)
	if err != nil {
		log.Printf("Error reading frame for detection: %v", err)
		return
	}

	poses, err := det.Detect(frame)
	frame.Close()
	if err != nil {
		log.Printf("Error detecting pose: %v", err)
		return
	}
	if len(poses) == 0 {
		log.Printf("No pose detected at %.2fs", pos)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.gen {
		// Session was replaced or closed while the detector ran.
		return
	}
	p := poses[0]
	a.lastPose = &p
	a.redrawLocked()
}

// redrawLocked re-renders the overlay surface from the last pose:
// spotlight dimming first, then the skeleton. The joint detail box is
// drawn at composite time so it always sits on top. Must be called with
// a.mu held.
func (a *App) redrawLocked() {
	if a.surface == nil {
		return
	}
	a.surface.Clear()
	if !a.overlayEnabled || a.lastPose == nil {
		return
	}
	if a.dimEnabled {
		a.dimmer.Apply(a.surface, a.lastPose)
	}
	a.renderer.Draw(a.surface, a.lastPose)
}

// ComposeFrame returns the current frame at display resolution with the
// overlay and any active joint detail composited on top. The caller
// owns the returned Mat.
func (a *App) ComposeFrame() (*gocv.Mat, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.session == nil || a.src == nil {
		return nil, fmt.Errorf("no session loaded")
	}

	pos := a.ctrl.Position()
	frame, err := a.src.ReadFrameAt(pos)
	if err != nil {
		return nil, err
	}

	dw, dh := a.mapper.DisplaySize()
	if frame.Cols() != dw || frame.Rows() != dh {
		scaled := gocv.NewMat()
		gocv.Resize(*frame, &scaled, image.Pt(dw, dh), 0, 0, gocv.InterpolationLinear)
		frame.Close()
		frame = &scaled
	}

	if a.surface != nil && !a.surface.Empty() {
		if err := a.surface.CompositeOnto(frame); err != nil {
			log.Printf("Error compositing overlay: %v", err)
		}
	}

	if a.detail != nil {
		box := overlay.NewSurface(dw, dh)
		overlay.DrawInfoBox(box, a.detail)
		if err := box.CompositeOnto(frame); err != nil {
			log.Printf("Error compositing detail box: %v", err)
		}
		box.Close()
	}

	return frame, nil
}
