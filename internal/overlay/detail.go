package overlay

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"gocv.io/x/gocv"

	"github.com/psarathy/drishti/internal/pose"
)

// Mode distinguishes how a joint detail was selected. Hover details
// track the pointer and disappear when it leaves the hit radius; click
// details stay pinned until cleared.
type Mode string

const (
	ModeHover Mode = "hover"
	ModeClick Mode = "click"
)

// Detail describes the joint currently under pointer focus. Angle is
// nil for joints without a defined angle (everything except elbows and
// knees). X and Y are the marker center in display space.
type Detail struct {
	Name  string   `json:"name"`
	Side  string   `json:"side,omitempty"`
	Angle *float64 `json:"angle"`
	X     float64  `json:"x"`
	Y     float64  `json:"y"`
	Mode  Mode     `json:"mode"`
}

// NewDetail builds the detail record for a hit keypoint. kps is the
// full keypoint map of the pose the hit came from, used for the angle
// computation.
func NewDetail(kp pose.Keypoint, kps map[string]pose.Keypoint, m *Mapper, mode Mode) Detail {
	x, y := m.ToDisplay(kp.X, kp.Y)
	d := Detail{
		Name: kp.Name,
		Side: pose.Side(kp.Name),
		X:    x,
		Y:    y,
		Mode: mode,
	}
	if deg, ok := pose.Angle(kps, kp.Name); ok {
		d.Angle = &deg
	}
	return d
}

const (
	detailFont      = gocv.FontHersheySimplex
	detailFontScale = 0.5
	detailPad       = 6
	detailLineGap   = 4
)

var (
	detailBgColor     = color.RGBA{R: 0, G: 0, B: 0, A: 200}
	detailBorderColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	detailTextColor   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Lines returns the text lines of the info box: the joint name
// uppercased, then the angle line when an angle is defined.
func (d *Detail) Lines() []string {
	lines := []string{strings.ToUpper(strings.ReplaceAll(d.Name, "_", " "))}
	if d.Angle != nil {
		lines = append(lines, fmt.Sprintf("Angle: %.0f deg", *d.Angle))
	}
	return lines
}

// DrawInfoBox renders the labeled detail box onto the surface near the
// joint position. Hover boxes sit below-right of the pointer, click
// boxes above the marker; either way the box is shifted to stay fully
// inside the surface. Drawn last so it is never covered by bones or
// markers.
func DrawInfoBox(s *Surface, d *Detail) {
	if s == nil || s.Empty() || d == nil {
		return
	}

	lines := d.Lines()
	boxW, boxH := 0, detailPad
	lineH := 0
	for _, line := range lines {
		sz := gocv.GetTextSize(line, detailFont, detailFontScale, 1)
		if sz.X > boxW {
			boxW = sz.X
		}
		if sz.Y > lineH {
			lineH = sz.Y
		}
	}
	boxW += 2 * detailPad
	boxH += len(lines)*(lineH+detailLineGap) + detailPad - detailLineGap

	var origin image.Point
	switch d.Mode {
	case ModeClick:
		origin = image.Pt(int(d.X)+10, int(d.Y)-10-boxH)
	default:
		origin = image.Pt(int(d.X)+14, int(d.Y)+14)
	}

	w, h := s.Size()
	if origin.X+boxW > w {
		origin.X = w - boxW
	}
	if origin.Y+boxH > h {
		origin.Y = h - boxH
	}
	if origin.X < 0 {
		origin.X = 0
	}
	if origin.Y < 0 {
		origin.Y = 0
	}

	box := image.Rect(origin.X, origin.Y, origin.X+boxW, origin.Y+boxH)
	gocv.Rectangle(s.Mat(), box, detailBgColor, -1)
	gocv.Rectangle(s.Mat(), box, detailBorderColor, 1)

	ty := origin.Y + detailPad + lineH
	for _, line := range lines {
		gocv.PutText(s.Mat(), line, image.Pt(origin.X+detailPad, ty), detailFont, detailFontScale, detailTextColor, 1)
		ty += lineH + detailLineGap
	}
}
