package video

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Motion scan constants
const (
	// scanBlurSize is the kernel size for Gaussian blur noise reduction
	scanBlurSize = 21
	// scanDiffThreshold is the binary threshold for pixel differences
	scanDiffThreshold = 25
)

// MotionScanner measures frame-to-frame change while stepping through a
// video, using frame differencing with Gaussian blur for noise
// reduction. The caller decides what counts as interesting; the scanner
// only reports how much of the image changed.
type MotionScanner struct {
	prevGray gocv.Mat
	primed   bool
	mu       sync.Mutex
}

// NewMotionScanner creates a scanner with no baseline frame.
func NewMotionScanner() *MotionScanner {
	return &MotionScanner{prevGray: gocv.NewMat()}
}

// Step compares a frame against the previous one and returns the
// percentage of pixels that changed. The first frame primes the
// baseline and returns ok=false, as does an empty frame.
func (m *MotionScanner) Step(frame *gocv.Mat) (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return 0, false
	}

	gray := gocv.NewMat()
	defer gray.Close()

	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: scanBlurSize, Y: scanBlurSize}, 0, 0, gocv.BorderDefault)

	if !m.primed {
		blurred.CopyTo(&m.prevGray)
		m.primed = true
		return 0, false
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, m.prevGray, &diff)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(diff, &thresh, scanDiffThreshold, 255, gocv.ThresholdBinary)

	nonZero := gocv.CountNonZero(thresh)
	totalPixels := thresh.Rows() * thresh.Cols()

	blurred.CopyTo(&m.prevGray)

	return float64(nonZero) / float64(totalPixels) * 100.0, true
}

// Reset drops the baseline so the next Step primes a fresh one.
func (m *MotionScanner) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.prevGray.Empty() {
		m.prevGray.Close()
		m.prevGray = gocv.NewMat()
	}
	m.primed = false
}

// Close releases resources held by the scanner.
func (m *MotionScanner) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.prevGray.Empty() {
		m.prevGray.Close()
		m.prevGray = gocv.NewMat()
	}
	m.primed = false
}
