// Package video provides seekable file-backed video sources using GoCV
// (OpenCV), with frame-accurate reads for detection, export and motion
// scanning.
package video

import (
	"errors"

	"gocv.io/x/gocv"
)

// ErrSourceNotOpen is returned when reading from a source that is not open.
var ErrSourceNotOpen = errors.New("video source is not open")

// Metadata describes a probed video file.
type Metadata struct {
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	FPS        float64 `json:"fps"`
	FrameCount int     `json:"frameCount"`
	Duration   float64 `json:"duration"` // seconds
}

// Source is the interface for seekable video sources. Reads are
// positioned by media time rather than sequential, because review
// playback jumps freely.
type Source interface {
	Open() error
	Close() error
	// ReadFrameAt decodes the frame at the given media time in seconds.
	// The caller is responsible for closing the returned Mat.
	ReadFrameAt(seconds float64) (*gocv.Mat, error)
	Metadata() (Metadata, error)
	IsOpen() bool
}

// Factory creates a Source for a media file path. The app holds a
// Factory so tests can substitute mock sources.
type Factory func(path string) Source
