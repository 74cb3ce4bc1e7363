// Package app provides the main application logic for the Drishti video
// review system: it owns the active review session and drives the
// playback, detection and overlay pipeline.
package app

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/psarathy/drishti/internal/config"
	"github.com/psarathy/drishti/internal/detector"
	"github.com/psarathy/drishti/internal/export"
	"github.com/psarathy/drishti/internal/overlay"
	"github.com/psarathy/drishti/internal/playback"
	"github.com/psarathy/drishti/internal/pose"
	"github.com/psarathy/drishti/internal/store"
	"github.com/psarathy/drishti/internal/video"
)

// Settings keys persisted across restarts.
const (
	settingOverlayEnabled = "overlay_enabled"
	settingDimmingEnabled = "dimming_enabled"
)

// Config holds configuration options for the application.
type Config struct {
	Store     *store.Store
	ExportDir string
	Overlay   config.OverlayConfig
	Detector  detector.Config
}

// App orchestrates one review session at a time: video playback, pose
// detection, overlay rendering, pointer interaction and frame export.
type App struct {
	cfg      Config
	exporter *export.Exporter

	mu  sync.RWMutex
	det detector.Detector

	srcFactory video.Factory

	// Active session pipeline. All nil when no session is loaded.
	session *store.Session
	src     video.Source
	ctrl    *playback.Controller
	sched   *playback.Schedule
	surface *overlay.Surface

	mapper   *overlay.Mapper
	renderer *overlay.Renderer
	dimmer   *overlay.Dimmer
	hitter   *overlay.HitTester

	lastPose *pose.Pose
	detail   *overlay.Detail

	overlayEnabled bool
	dimEnabled     bool

	// gen increments whenever the session changes so detection results
	// that were in flight during a teardown are discarded.
	gen        int
	lastDetect time.Time
	detectCh   chan float64
	stopCh     chan struct{}
}

// New creates a new App instance with the given configuration.
func New(cfg Config) *App {
	mapper := overlay.NewMapper()

	a := &App{
		cfg:            cfg,
		exporter:       export.New(cfg.ExportDir, cfg.Store),
		srcFactory:     video.NewFileSource,
		mapper:         mapper,
		renderer:       overlay.NewRenderer(mapper, cfg.Overlay.ConfidenceThreshold),
		dimmer:         overlay.NewDimmer(mapper, cfg.Overlay.ConfidenceThreshold, cfg.Overlay.DimPaddingPx),
		hitter:         overlay.NewHitTester(mapper, cfg.Overlay.HitRadiusPx, cfg.Overlay.ConfidenceThreshold),
		overlayEnabled: true,
		dimEnabled:     true,
		detectCh:       make(chan float64, 1),
	}

	// Try the MoveNet sidecar first, fall back to the mock detector.
	detCfg := cfg.Detector
	if detCfg.MaxPoses == 0 {
		detCfg.MaxPoses = 1
	}
	if detCfg.MinConfidence == 0 {
		detCfg.MinConfidence = cfg.Overlay.ConfidenceThreshold
	}
	if mn, err := detector.NewMoveNetDetector(detCfg); err == nil {
		a.det = mn
		log.Println("Using MoveNet pose detection")
	} else {
		log.Printf("MoveNet not available (%v), using mock detector", err)
		a.det = detector.NewMockDetector()
	}

	a.loadToggles()
	return a
}

// loadToggles restores the persisted overlay switches.
func (a *App) loadToggles() {
	if a.cfg.Store == nil {
		return
	}
	settings := a.cfg.Store.Settings()
	if v, err := settings.Get(settingOverlayEnabled); err == nil {
		a.overlayEnabled = v != "false"
	}
	if v, err := settings.Get(settingDimmingEnabled); err == nil {
		a.dimEnabled = v != "false"
	}
}

func (a *App) saveToggle(key string, on bool) {
	if a.cfg.Store == nil {
		return
	}
	value := "true"
	if !on {
		value = "false"
	}
	if err := a.cfg.Store.Settings().Set(key, value); err != nil {
		log.Printf("Failed to persist %s: %v", key, err)
	}
}

// SetDetector sets the pose detector implementation to use.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.det = d
}

// Detector returns the pose detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.det
}

// SetSourceFactory overrides how video sources are created, used by
// tests to substitute mock sources.
func (a *App) SetSourceFactory(f video.Factory) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.srcFactory = f
}

// Start begins the detection loop.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	a.stopCh = make(chan struct{})
	go a.runLoop(a.stopCh)

	log.Println("Detection loop started")
	return nil
}

// Stop halts the detection loop, closes the active session and releases
// the detector.
func (a *App) Stop() {
	a.mu.Lock()
	if a.stopCh != nil {
		close(a.stopCh)
		a.stopCh = nil
	}
	a.mu.Unlock()

	a.CloseSession()

	a.mu.Lock()
	det := a.det
	a.mu.Unlock()
	if det != nil {
		if err := det.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}

	log.Println("Detection loop stopped")
}

// LoadSession opens the session's video and wires up the playback
// pipeline, replacing any previously loaded session.
func (a *App) LoadSession(session *store.Session) error {
	a.CloseSession()

	a.mu.RLock()
	factory := a.srcFactory
	a.mu.RUnlock()

	src := factory(session.VideoPath)

	var seconds []float64
	if a.cfg.Store != nil {
		var err error
		seconds, err = a.cfg.Store.PausePoints().SecondsBySession(session.ID)
		if err != nil {
			log.Printf("Failed to load pause points for %s: %v", session.ID, err)
		}
	}
	sched := playback.NewSchedule(seconds, a.cfg.Overlay.PauseToleranceSec)

	ctrl := playback.NewController(src, sched, a.cfg.Overlay.SettleDelay(), playback.Callbacks{
		Played:       a.handleResume,
		DetectionDue: a.handleDetectionDue,
		Error: func(err error) {
			log.Printf("Playback error: %v", err)
		},
	})

	if err := ctrl.Load(); err != nil {
		return fmt.Errorf("failed to load %s: %w", session.VideoPath, err)
	}

	meta, err := src.Metadata()
	if err != nil {
		ctrl.Close()
		return fmt.Errorf("failed to probe %s: %w", session.VideoPath, err)
	}

	a.mu.Lock()
	a.session = session
	a.src = src
	a.ctrl = ctrl
	a.sched = sched
	a.mapper.SetNativeSize(meta.Width, meta.Height)
	// Display matches native until a client reports its viewport.
	a.mapper.SetDisplaySize(meta.Width, meta.Height)
	if a.surface != nil {
		a.surface.Close()
	}
	a.surface = overlay.NewSurface(meta.Width, meta.Height)
	a.lastPose = nil
	a.detail = nil
	a.gen++
	a.lastDetect = time.Time{}
	a.mu.Unlock()

	a.recordMetadata(session, meta)

	log.Printf("Loaded session %s (%s, %.1fs)", session.ID, session.Title, meta.Duration)
	return nil
}

// recordMetadata persists probed video dimensions on the session row.
func (a *App) recordMetadata(session *store.Session, meta video.Metadata) {
	if a.cfg.Store == nil {
		return
	}
	if session.Width == meta.Width && session.Height == meta.Height && session.Duration == meta.Duration {
		return
	}
	session.Width = meta.Width
	session.Height = meta.Height
	session.Duration = meta.Duration
	if err := a.cfg.Store.Sessions().Update(session); err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Printf("Failed to record session metadata: %v", err)
	}
}

// CloseSession tears down the active session. In-flight detection
// results are discarded rather than applied to the torn-down surface.
func (a *App) CloseSession() {
	a.mu.Lock()
	ctrl := a.ctrl
	hadSession := a.session != nil
	a.session = nil
	a.src = nil
	a.ctrl = nil
	a.sched = nil
	a.lastPose = nil
	a.detail = nil
	a.gen++
	if a.surface != nil {
		a.surface.Close()
		a.surface = nil
	}
	a.mu.Unlock()

	if ctrl != nil {
		ctrl.Close()
	}
	if hadSession {
		log.Println("Session closed")
	}
}

// Session returns the active session, or nil.
func (a *App) Session() *store.Session {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session
}

// Store returns the backing store.
func (a *App) Store() *store.Store {
	return a.cfg.Store
}

// handleResume clears the selected joint detail when playback resumes.
func (a *App) handleResume() {
	a.mu.Lock()
	a.detail = nil
	a.mu.Unlock()
}

// handleDetectionDue queues the post-pause detection pass, bypassing
// the rate gate. The settle delay has already elapsed by the time this
// fires.
func (a *App) handleDetectionDue(pos float64) {
	select {
	case a.detectCh <- pos:
	default:
	}
}
