package overlay

import (
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"

	"github.com/psarathy/drishti/internal/pose"
)

// Drawing constants for the skeleton layer.
const (
	// BoneThickness is the stroke width of skeleton lines in pixels.
	BoneThickness = 2
	// MarkerRadius is the radius of joint markers in pixels.
	MarkerRadius = 6
	// MarkerOutline is the stroke width of the marker outline ring.
	MarkerOutline = 2
)

var (
	boneColor = color.RGBA{R: 255, G: 255, B: 255, A: 179} // translucent white
	ringColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Renderer draws the fixed bone graph and joint markers for a pose onto
// a surface, mapping every point from detection to display space. It
// holds no state beyond its mapper and threshold; drawing is a pure
// function of the pose passed in. It never clears the surface — the
// caller clears before each redraw.
type Renderer struct {
	mapper    *Mapper
	threshold float64
}

// NewRenderer creates a Renderer using the given mapper and confidence
// threshold.
func NewRenderer(mapper *Mapper, threshold float64) *Renderer {
	return &Renderer{mapper: mapper, threshold: threshold}
}

// Draw renders the pose: one line per bone connection where both
// endpoints clear the confidence threshold, then one filled circle per
// qualifying keypoint colored by body region with a white outline ring.
// Bones are drawn strictly before markers so markers sit on top.
func (r *Renderer) Draw(s *Surface, p *pose.Pose) {
	if s == nil || s.Empty() || p == nil {
		return
	}

	kp := p.KeypointMap()

	for _, bone := range pose.Bones {
		a, okA := kp[bone[0]]
		b, okB := kp[bone[1]]
		if !okA || !okB || a.Score <= r.threshold || b.Score <= r.threshold {
			continue
		}

		ax, ay := r.mapper.ToDisplay(a.X, a.Y)
		bx, by := r.mapper.ToDisplay(b.X, b.Y)
		gocv.Line(s.Mat(), displayPt(ax, ay), displayPt(bx, by), boneColor, BoneThickness)
	}

	for _, k := range p.Filtered(r.threshold) {
		x, y := r.mapper.ToDisplay(k.X, k.Y)
		center := displayPt(x, y)
		gocv.Circle(s.Mat(), center, MarkerRadius, pose.RegionColor(k.Name), -1)
		gocv.Circle(s.Mat(), center, MarkerRadius, ringColor, MarkerOutline)
	}
}

// displayPt rounds mapped coordinates to the nearest pixel.
func displayPt(x, y float64) image.Point {
	return image.Pt(int(math.Round(x)), int(math.Round(y)))
}
