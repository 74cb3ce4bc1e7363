package video

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// fileSource reads frames from a video file on disk using GoCV.
type fileSource struct {
	path    string
	capture *gocv.VideoCapture
	meta    Metadata
	mu      sync.Mutex
	open    bool
}

// NewFileSource creates a Source for the given video file path. The
// file is not touched until Open.
func NewFileSource(path string) Source {
	return &fileSource{path: path}
}

// Open opens the video file and probes its metadata. A file that
// decodes to zero dimensions is rejected as unplayable.
func (f *fileSource) Open() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.open {
		return nil
	}

	capture, err := gocv.OpenVideoCapture(f.path)
	if err != nil {
		return fmt.Errorf("failed to open video %s: %w", f.path, err)
	}

	meta := Metadata{
		Width:      int(capture.Get(gocv.VideoCaptureFrameWidth)),
		Height:     int(capture.Get(gocv.VideoCaptureFrameHeight)),
		FPS:        capture.Get(gocv.VideoCaptureFPS),
		FrameCount: int(capture.Get(gocv.VideoCaptureFrameCount)),
	}
	if meta.FPS > 0 && meta.FrameCount > 0 {
		meta.Duration = float64(meta.FrameCount) / meta.FPS
	}

	if meta.Width <= 0 || meta.Height <= 0 {
		capture.Close()
		return fmt.Errorf("video %s has no decodable dimensions", f.path)
	}

	f.capture = capture
	f.meta = meta
	f.open = true

	return nil
}

// Close closes the video file and releases resources.
func (f *fileSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.open || f.capture == nil {
		f.open = false
		return nil
	}

	err := f.capture.Close()
	f.capture = nil
	f.open = false

	return err
}

// ReadFrameAt seeks to the given media time and decodes one frame.
// Times outside the media range are clamped. The caller is responsible
// for closing the returned Mat.
func (f *fileSource) ReadFrameAt(seconds float64) (*gocv.Mat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.open || f.capture == nil {
		return nil, ErrSourceNotOpen
	}

	if seconds < 0 {
		seconds = 0
	}
	if f.meta.Duration > 0 && seconds > f.meta.Duration {
		seconds = f.meta.Duration
	}

	f.capture.Set(gocv.VideoCapturePosMsec, seconds*1000)

	mat := gocv.NewMat()
	if ok := f.capture.Read(&mat); !ok {
		mat.Close()
		return nil, fmt.Errorf("failed to read frame at %.3fs from %s", seconds, f.path)
	}

	if mat.Empty() {
		mat.Close()
		return nil, errors.New("decoded frame is empty")
	}

	return &mat, nil
}

// Metadata returns the probed file metadata.
func (f *fileSource) Metadata() (Metadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.open {
		return Metadata{}, ErrSourceNotOpen
	}
	return f.meta, nil
}

// IsOpen returns true if the source is currently open.
func (f *fileSource) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.open
}

// Probe opens a video file just long enough to read its metadata.
func Probe(path string) (Metadata, error) {
	src := NewFileSource(path)
	if err := src.Open(); err != nil {
		return Metadata{}, err
	}
	defer src.Close()

	return src.Metadata()
}
