// Package tray provides a macOS system tray interface for the Drishti video review system.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// Tray represents the macOS system tray application.
type Tray struct {
	onToggle func(enabled bool)
	onOpen   func()
	onQuit   func()
	enabled  bool
	mu       sync.RWMutex

	// Menu items stored for later updates
	menuToggle  *systray.MenuItem
	menuSession *systray.MenuItem
	menuJoint   *systray.MenuItem
}

// New creates a new Tray instance. enabled seeds the overlay toggle
// with the persisted state.
func New(enabled bool) *Tray {
	return &Tray{
		enabled: enabled,
	}
}

// OnToggle sets the callback function to be called when the overlay is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnOpen sets the callback function to be called when the review menu item is clicked.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	// Set the tray title and tooltip
	systray.SetTitle("Drishti")
	systray.SetTooltip("Drishti Video Review")

	// Create menu items
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle the pose overlay")
	systray.AddSeparator()

	t.menuSession = systray.AddMenuItem("Session: none", "Active review session")
	t.menuSession.Disable()

	t.menuJoint = systray.AddMenuItem("Joint: none", "Last inspected joint")
	t.menuJoint.Disable()
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open Review...", "Open the review in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Drishti")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
// It performs cleanup tasks.
func (t *Tray) onExit() {
	// Cleanup resources if needed
}

// handleToggle handles the overlay toggle menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled

	// Update menu item text based on new state
	t.menuToggle.SetTitle(toggleTitle(enabled))

	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// handleOpen handles the review menu item click.
func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetSession updates the active session display in the menu.
func (t *Tray) SetSession(title string) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuSession != nil {
		if title == "" {
			t.menuSession.SetTitle("Session: none")
		} else {
			t.menuSession.SetTitle("Session: " + title)
		}
	}
}

// SetJoint updates the last inspected joint display in the menu.
func (t *Tray) SetJoint(label string) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuJoint != nil {
		if label == "" {
			t.menuJoint.SetTitle("Joint: none")
		} else {
			t.menuJoint.SetTitle("Joint: " + label)
		}
	}
}

// SetEnabled updates the overlay toggle to reflect an external change,
// such as the toggle being flipped from the review page.
func (t *Tray) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.enabled = enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
}

// IsEnabled returns the current overlay toggle state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Overlay on"
	}
	return "○ Overlay off"
}
