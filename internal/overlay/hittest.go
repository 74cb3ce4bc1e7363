package overlay

import (
	"math"

	"github.com/psarathy/drishti/internal/pose"
)

// HitTester maps pointer positions in display space onto rendered joint
// markers.
type HitTester struct {
	mapper    *Mapper
	radius    float64
	threshold float64
}

// NewHitTester creates a HitTester. radius is the hit distance in
// display pixels, measured from the marker center.
func NewHitTester(mapper *Mapper, radius, threshold float64) *HitTester {
	return &HitTester{mapper: mapper, radius: radius, threshold: threshold}
}

// FindHit returns the first confidence-filtered keypoint whose
// display-space marker center lies within the hit radius of (x, y).
// Keypoints are tested in the order the detector reported them, so
// overlapping markers resolve to the earliest one. Returns false when
// nothing is within range.
func (h *HitTester) FindHit(p *pose.Pose, x, y float64) (pose.Keypoint, bool) {
	if p == nil {
		return pose.Keypoint{}, false
	}
	for _, kp := range p.Filtered(h.threshold) {
		dx, dy := h.mapper.ToDisplay(kp.X, kp.Y)
		if math.Hypot(dx-x, dy-y) <= h.radius {
			return kp, true
		}
	}
	return pose.Keypoint{}, false
}
