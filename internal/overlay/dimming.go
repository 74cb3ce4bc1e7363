package overlay

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/psarathy/drishti/internal/pose"
)

// dimAlpha is the opacity of the full-frame dim layer, 70% black.
const dimAlpha = 179

// Dimmer paints the spotlight effect: the whole surface is dimmed and a
// rectangular hole is cut around the detected body so the reviewer's
// attention lands there.
type Dimmer struct {
	mapper    *Mapper
	threshold float64
	padding   float64
}

// NewDimmer creates a Dimmer. padding is the spotlight margin in
// detection-space pixels, applied to every side of the body's bounding
// box before mapping to display space.
func NewDimmer(mapper *Mapper, threshold, padding float64) *Dimmer {
	return &Dimmer{mapper: mapper, threshold: threshold, padding: padding}
}

// Apply fills the surface with 70%-opaque black and cuts the spotlight
// hole: the pose's confidence-filtered bounding box, padded, mapped to
// display space, written back to full transparency. If no keypoint
// clears the threshold the surface is left untouched.
//
// Apply must run before skeleton lines and markers in the draw order so
// they stay visible inside (and over) the dimmed layer.
func (d *Dimmer) Apply(s *Surface, p *pose.Pose) {
	if s == nil || s.Empty() || p == nil {
		return
	}

	box, ok := p.BoundingBox(d.threshold)
	if !ok {
		return
	}

	s.Mat().SetTo(gocv.NewScalar(0, 0, 0, dimAlpha))
	w, h := s.Size()

	padded := box.Pad(d.padding)
	x0, y0 := d.mapper.ToDisplay(padded.X, padded.Y)
	x1, y1 := d.mapper.ToDisplay(padded.X+padded.Width, padded.Y+padded.Height)

	hole := image.Rectangle{Min: displayPt(x0, y0), Max: displayPt(x1, y1)}
	hole = hole.Intersect(image.Rect(0, 0, w, h))
	if hole.Empty() {
		return
	}

	// Writing fully transparent pixels over the hole is the BGRA
	// equivalent of a destination-out composite.
	gocv.Rectangle(s.Mat(), hole, color.RGBA{}, -1)
}
