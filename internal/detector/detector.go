// Package detector provides body-pose estimation interfaces and
// implementations for video review.
package detector

import (
	"gocv.io/x/gocv"

	"github.com/psarathy/drishti/internal/pose"
)

// Detector defines the interface for pose estimation implementations.
type Detector interface {
	// Detect analyzes a video frame and returns detected poses with
	// keypoints in frame pixel coordinates. Returns an empty slice if
	// no body is detected.
	Detect(frame *gocv.Mat) ([]pose.Pose, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for pose estimation.
type Config struct {
	// MaxPoses is the maximum number of bodies to detect (default: 1).
	MaxPoses int

	// MinConfidence is the minimum keypoint confidence threshold (0.0-1.0).
	MinConfidence float64

	// FlipHorizontal mirrors detection coordinates, for selfie-style
	// sources. Review footage is never mirrored.
	FlipHorizontal bool

	// ScriptPath overrides the estimation service script location.
	ScriptPath string

	// PythonPath overrides the Python interpreter used to run it.
	PythonPath string
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxPoses:       1,
		MinConfidence:  0.3,
		FlipHorizontal: false,
	}
}
