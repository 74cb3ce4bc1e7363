package video

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockSource serves synthetic frames for testing without touching disk.
type MockSource struct {
	meta      Metadata
	mu        sync.Mutex
	open      bool
	openErr   error
	readErr   error
	frameFn   func(seconds float64) gocv.Mat
	lastReadS float64
	reads     int
}

// NewMockSource creates a mock source with the given metadata. A zero
// FPS defaults to 30 and duration is derived when missing.
func NewMockSource(meta Metadata) *MockSource {
	if meta.FPS == 0 {
		meta.FPS = 30
	}
	if meta.Duration == 0 && meta.FrameCount > 0 {
		meta.Duration = float64(meta.FrameCount) / meta.FPS
	}
	return &MockSource{meta: meta}
}

func (m *MockSource) Open() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.openErr != nil {
		return m.openErr
	}
	m.open = true
	return nil
}

func (m *MockSource) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open = false
	return nil
}

// ReadFrameAt returns a mid-gray frame at the metadata resolution. The
// caller is responsible for closing the returned Mat.
func (m *MockSource) ReadFrameAt(seconds float64) (*gocv.Mat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.open {
		return nil, ErrSourceNotOpen
	}
	if m.readErr != nil {
		return nil, m.readErr
	}

	m.lastReadS = seconds
	m.reads++

	if m.frameFn != nil {
		mat := m.frameFn(seconds)
		return &mat, nil
	}
	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(128, 128, 128, 0), m.meta.Height, m.meta.Width, gocv.MatTypeCV8UC3)
	return &mat, nil
}

func (m *MockSource) Metadata() (Metadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.open {
		return Metadata{}, ErrSourceNotOpen
	}
	return m.meta, nil
}

func (m *MockSource) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}

// SetFrameFunc overrides the served frames. The function is called with
// the requested media time and must return a fresh Mat each call.
func (m *MockSource) SetFrameFunc(fn func(seconds float64) gocv.Mat) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frameFn = fn
}

// SetOpenError makes the next Open fail, for load-error paths.
func (m *MockSource) SetOpenError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.openErr = err
}

// SetReadError makes subsequent reads fail, for decode-error paths.
func (m *MockSource) SetReadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readErr = err
}

// LastRead returns the media time of the most recent read.
func (m *MockSource) LastRead() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastReadS
}

// Reads returns how many frames were read.
func (m *MockSource) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}
