package playback

import (
	"fmt"
	"sync"
	"time"

	"github.com/psarathy/drishti/internal/video"
)

// State identifies a playback lifecycle phase.
type State string

const (
	StateLoading State = "loading"
	StateReady   State = "ready"
	StatePlaying State = "playing"
	StatePaused  State = "paused"
	StateError   State = "error"
)

// clockInterval is the playback clock resolution: position updates and
// pause-point checks happen at this cadence.
const clockInterval = 33 * time.Millisecond

// Callbacks are the typed subscription points for playback events.
// Nil fields are skipped. Callbacks run outside the controller's lock;
// they must return quickly or dispatch their own work.
type Callbacks struct {
	MetadataReady func(meta video.Metadata)
	TimeUpdate    func(t float64)
	Played        func()
	Paused        func(t float64, auto bool)
	DetectionDue  func(t float64)
	Error         func(err error)
}

// Controller is the playback state machine for one review session. It
// advances a media clock against a source, pauses automatically at
// scheduled points, and signals when a detection pass is due after the
// paused frame has settled.
//
// Lifecycle: Loading -> Ready -> {Playing, Paused}, with Error as a
// terminal state on load failure.
type Controller struct {
	src    video.Source
	sched  *Schedule
	cb     Callbacks
	settle time.Duration

	mu          sync.Mutex
	state       State
	pos         float64
	playPos     float64
	playStart   time.Time
	duration    float64
	stopCh      chan struct{}
	running     bool
	closed      bool
	loadErr     error
	settleTimer *time.Timer
}

// NewController creates a controller in the Loading state. settle is
// the delay between entering Paused and signaling DetectionDue, giving
// the paused frame time to decode and paint.
func NewController(src video.Source, sched *Schedule, settle time.Duration, cb Callbacks) *Controller {
	return &Controller{
		src:    src,
		sched:  sched,
		cb:     cb,
		settle: settle,
		state:  StateLoading,
	}
}

// Load opens the source and probes its metadata, moving the controller
// to Ready. A load failure is terminal: the controller enters Error and
// stays there.
func (c *Controller) Load() error {
	c.mu.Lock()
	if c.closed || c.state != StateLoading {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("load not possible in state %s", state)
	}
	c.mu.Unlock()

	if err := c.src.Open(); err != nil {
		c.fail(err)
		return err
	}

	meta, err := c.src.Metadata()
	if err != nil {
		c.fail(err)
		return err
	}

	c.mu.Lock()
	c.duration = meta.Duration
	c.state = StateReady
	cb := c.cb.MetadataReady
	c.mu.Unlock()

	if cb != nil {
		cb(meta)
	}
	return nil
}

func (c *Controller) fail(err error) {
	c.mu.Lock()
	c.state = StateError
	c.loadErr = err
	cb := c.cb.Error
	c.mu.Unlock()

	if cb != nil {
		cb(err)
	}
}

// Play starts or resumes playback. Playing from the end of the media
// restarts at the beginning with the pause schedule re-armed. Returns
// an error when the media is not in a playable state.
func (c *Controller) Play() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return fmt.Errorf("playback is closed")
	}

	switch c.state {
	case StatePlaying:
		c.mu.Unlock()
		return nil
	case StateReady, StatePaused:
	case StateError:
		err := c.loadErr
		c.mu.Unlock()
		return fmt.Errorf("cannot play after load error: %w", err)
	default:
		c.mu.Unlock()
		return fmt.Errorf("media not ready")
	}

	if c.settleTimer != nil {
		c.settleTimer.Stop()
		c.settleTimer = nil
	}

	if c.duration > 0 && c.pos >= c.duration {
		c.pos = 0
		c.sched.Reset()
	}

	c.playPos = c.pos
	c.playStart = time.Now()
	c.state = StatePlaying

	if !c.running {
		c.stopCh = make(chan struct{})
		c.running = true
		go c.runClock(c.stopCh)
	}

	cb := c.cb.Played
	c.mu.Unlock()

	if cb != nil {
		cb()
	}
	return nil
}

// Pause pauses playback manually. Valid from Ready or Playing; a
// detection pass is signaled once the settle delay elapses, the same as
// for an automatic pause.
func (c *Controller) Pause() {
	c.mu.Lock()
	if c.closed || (c.state != StatePlaying && c.state != StateReady) {
		c.mu.Unlock()
		return
	}

	if c.state == StatePlaying {
		pos := c.playPos + time.Since(c.playStart).Seconds()
		if c.duration > 0 && pos > c.duration {
			pos = c.duration
		}
		c.pos = pos
	}

	c.state = StatePaused
	pos := c.pos
	c.armSettleLocked()
	cb := c.cb.Paused
	c.mu.Unlock()

	if cb != nil {
		cb(pos, false)
	}
}

// Seek moves the playback position, clamped to the media range, and
// re-arms pause points at or ahead of the new position. Playback state
// is unchanged: a playing session keeps playing from the new position.
func (c *Controller) Seek(t float64) {
	c.mu.Lock()
	if c.closed || c.state == StateLoading || c.state == StateError {
		c.mu.Unlock()
		return
	}

	if t < 0 {
		t = 0
	}
	if c.duration > 0 && t > c.duration {
		t = c.duration
	}

	c.pos = t
	if c.state == StatePlaying {
		c.playPos = t
		c.playStart = time.Now()
	}
	c.sched.Rearm(t)
	cb := c.cb.TimeUpdate
	c.mu.Unlock()

	if cb != nil {
		cb(t)
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Position returns the current media time in seconds.
func (c *Controller) Position() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StatePlaying {
		pos := c.playPos + time.Since(c.playStart).Seconds()
		if c.duration > 0 && pos > c.duration {
			pos = c.duration
		}
		return pos
	}
	return c.pos
}

// Duration returns the media duration in seconds.
func (c *Controller) Duration() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.duration
}

// Close tears the controller down: the clock stops, any pending settle
// timer is cancelled so no further DetectionDue fires, and the source
// is closed.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true

	if c.settleTimer != nil {
		c.settleTimer.Stop()
		c.settleTimer = nil
	}
	if c.running {
		close(c.stopCh)
		c.running = false
	}
	c.mu.Unlock()

	c.src.Close()
}

// armSettleLocked schedules the post-pause detection signal. Must be
// called with c.mu held.
func (c *Controller) armSettleLocked() {
	if c.settleTimer != nil {
		c.settleTimer.Stop()
	}
	c.settleTimer = time.AfterFunc(c.settle, c.settleFired)
}

func (c *Controller) settleFired() {
	c.mu.Lock()
	due := c.state == StatePaused && !c.closed
	pos := c.pos
	cb := c.cb.DetectionDue
	c.mu.Unlock()

	if due && cb != nil {
		cb(pos)
	}
}

// runClock advances the media position while Playing. One goroutine
// per controller, stopped by Close.
func (c *Controller) runClock(stopCh chan struct{}) {
	ticker := time.NewTicker(clockInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			c.tick()
		}
	}
}

// tick updates the position, fires due pause points and handles the end
// of the media, which behaves like a pause.
func (c *Controller) tick() {
	c.mu.Lock()
	if c.state != StatePlaying {
		c.mu.Unlock()
		return
	}

	pos := c.playPos + time.Since(c.playStart).Seconds()
	ended := c.duration > 0 && pos >= c.duration
	if ended {
		pos = c.duration
	}
	c.pos = pos

	auto := false
	if !ended {
		if _, hit := c.sched.Due(pos); hit {
			auto = true
		}
	}

	pausing := ended || auto
	if pausing {
		c.state = StatePaused
		c.armSettleLocked()
	}

	cbTime := c.cb.TimeUpdate
	cbPaused := c.cb.Paused
	c.mu.Unlock()

	if cbTime != nil {
		cbTime(pos)
	}
	if pausing && cbPaused != nil {
		cbPaused(pos, auto)
	}
}
