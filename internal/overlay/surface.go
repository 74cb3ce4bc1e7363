// Package overlay renders the pose skeleton, spotlight dimming and joint
// annotations onto a transparent drawing surface composited over video
// frames.
package overlay

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Surface is the overlay drawing layer: a BGRA image at display
// resolution. Drawing happens with full per-pixel alpha so the layer can
// be blended over any frame afterwards.
//
// Surface is not safe for concurrent use; the detection loop serializes
// all drawing and compositing.
type Surface struct {
	mat    gocv.Mat
	width  int
	height int
}

// NewSurface allocates a fully transparent surface of the given size.
func NewSurface(width, height int) *Surface {
	return &Surface{
		mat:    transparentMat(width, height),
		width:  width,
		height: height,
	}
}

func transparentMat(width, height int) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), height, width, gocv.MatTypeCV8UC4)
}

// Clear resets every pixel to fully transparent. Callers clear before
// each redraw so no stale marks accumulate across frames.
func (s *Surface) Clear() {
	if s.Empty() {
		return
	}
	s.mat.SetTo(gocv.NewScalar(0, 0, 0, 0))
}

// Resize reallocates the surface for a new display size, discarding any
// existing content. A resize to the current size just clears.
func (s *Surface) Resize(width, height int) {
	if width == s.width && height == s.height {
		s.Clear()
		return
	}

	if !s.mat.Empty() {
		s.mat.Close()
	}
	s.mat = transparentMat(width, height)
	s.width = width
	s.height = height
}

// Size returns the surface dimensions.
func (s *Surface) Size() (int, int) {
	return s.width, s.height
}

// Empty reports whether the surface has no drawable area.
func (s *Surface) Empty() bool {
	return s.width <= 0 || s.height <= 0 || s.mat.Empty()
}

// Mat exposes the underlying BGRA image for drawing.
func (s *Surface) Mat() *gocv.Mat {
	return &s.mat
}

// Close releases the underlying image.
func (s *Surface) Close() {
	if !s.mat.Empty() {
		s.mat.Close()
	}
	s.width = 0
	s.height = 0
}

// CompositeOnto alpha-blends the surface over a BGR frame of the same
// size, in place.
func (s *Surface) CompositeOnto(frame *gocv.Mat) error {
	if s.Empty() {
		return fmt.Errorf("overlay surface not initialized")
	}
	if frame.Cols() != s.width || frame.Rows() != s.height {
		return fmt.Errorf("surface is %dx%d but frame is %dx%d", s.width, s.height, frame.Cols(), frame.Rows())
	}
	return blendOver(frame, s.mat)
}

// CompositeOntoScaled alpha-blends the surface over a BGR frame of any
// size, scaling the surface content to the frame's resolution first.
// Used when exporting a display-resolution overlay onto a native-
// resolution frame.
func (s *Surface) CompositeOntoScaled(frame *gocv.Mat) error {
	if s.Empty() {
		return fmt.Errorf("overlay surface not initialized")
	}
	if frame.Cols() == s.width && frame.Rows() == s.height {
		return blendOver(frame, s.mat)
	}

	scaled := gocv.NewMat()
	defer scaled.Close()
	gocv.Resize(s.mat, &scaled, image.Pt(frame.Cols(), frame.Rows()), 0, 0, gocv.InterpolationLinear)
	return blendOver(frame, scaled)
}

// blendOver alpha-blends a BGRA overlay onto a BGR frame in place:
// out = overlay*alpha + frame*(1-alpha), per channel, in 32-bit float.
func blendOver(frame *gocv.Mat, over gocv.Mat) error {
	overChans := gocv.Split(over)
	defer closeMats(overChans)
	if len(overChans) != 4 {
		return fmt.Errorf("overlay has %d channels, want 4", len(overChans))
	}

	rows, cols := over.Rows(), over.Cols()

	alpha := gocv.NewMat()
	defer alpha.Close()
	overChans[3].ConvertToWithParams(&alpha, gocv.MatTypeCV32F, 1.0/255.0, 0)

	ones := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(1, 0, 0, 0), rows, cols, gocv.MatTypeCV32F)
	defer ones.Close()
	invAlpha := gocv.NewMat()
	defer invAlpha.Close()
	gocv.Subtract(ones, alpha, &invAlpha)

	frameChans := gocv.Split(*frame)
	defer closeMats(frameChans)

	blended := make([]gocv.Mat, 3)
	for i := 0; i < 3; i++ {
		overF := gocv.NewMat()
		frameF := gocv.NewMat()
		overChans[i].ConvertTo(&overF, gocv.MatTypeCV32F)
		frameChans[i].ConvertTo(&frameF, gocv.MatTypeCV32F)

		top := gocv.NewMat()
		bottom := gocv.NewMat()
		gocv.Multiply(overF, alpha, &top)
		gocv.Multiply(frameF, invAlpha, &bottom)

		sum := gocv.NewMat()
		gocv.Add(top, bottom, &sum)

		out := gocv.NewMat()
		sum.ConvertTo(&out, gocv.MatTypeCV8U)
		blended[i] = out

		overF.Close()
		frameF.Close()
		top.Close()
		bottom.Close()
		sum.Close()
	}
	defer closeMats(blended)

	gocv.Merge(blended, frame)
	return nil
}

func closeMats(mats []gocv.Mat) {
	for i := range mats {
		mats[i].Close()
	}
}
