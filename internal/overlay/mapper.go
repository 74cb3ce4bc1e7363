package overlay

import "sync"

// Mapper converts coordinates between detection space (native video
// pixels, matching the pose estimator's output) and display space (the
// currently rendered view size). Scaling is independent per axis; a
// non-uniform aspect is scaled as-is, not corrected.
//
// Mapper is safe for concurrent use: view resizes arrive from HTTP
// handlers while the detection loop is drawing.
type Mapper struct {
	mu       sync.RWMutex
	nativeW  float64
	nativeH  float64
	displayW float64
	displayH float64
}

// NewMapper creates a Mapper with no dimensions set. Until both the
// native and display sizes are known, mapping is an identity passthrough.
func NewMapper() *Mapper {
	return &Mapper{}
}

// SetNativeSize records the native media dimensions, normally once the
// video metadata becomes available.
func (m *Mapper) SetNativeSize(w, h int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nativeW = float64(w)
	m.nativeH = float64(h)
}

// SetDisplaySize records the rendered view dimensions. Must be called on
// every resize so the scale factors are never stale.
func (m *Mapper) SetDisplaySize(w, h int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.displayW = float64(w)
	m.displayH = float64(h)
}

// NativeSize returns the recorded native dimensions.
func (m *Mapper) NativeSize() (int, int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int(m.nativeW), int(m.nativeH)
}

// DisplaySize returns the recorded display dimensions.
func (m *Mapper) DisplaySize() (int, int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int(m.displayW), int(m.displayH)
}

// ToDisplay maps a detection-space point to display space. If any
// dimension is unset or zero the input is returned unchanged rather
// than dividing by zero.
func (m *Mapper) ToDisplay(x, y float64) (float64, float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.nativeW <= 0 || m.nativeH <= 0 || m.displayW <= 0 || m.displayH <= 0 {
		return x, y
	}

	return x * m.displayW / m.nativeW, y * m.displayH / m.nativeH
}

// ToNative maps a display-space point back to detection space. Degenerate
// dimensions pass the input through unchanged, mirroring ToDisplay.
func (m *Mapper) ToNative(x, y float64) (float64, float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.nativeW <= 0 || m.nativeH <= 0 || m.displayW <= 0 || m.displayH <= 0 {
		return x, y
	}

	return x * m.nativeW / m.displayW, y * m.nativeH / m.displayH
}
