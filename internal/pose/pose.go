// Package pose provides the keypoint data model and pure geometry for
// body-pose overlays: the skeleton graph, confidence filtering, bounding
// boxes and joint-angle calculation.
package pose

// Keypoint is a single named anatomical landmark in detection space
// (native video pixel coordinates), as emitted by the pose estimator.
type Keypoint struct {
	Name  string  `json:"name"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Score float64 `json:"score"`
}

// Pose is the full set of keypoints for one tracked body in one frame,
// plus the estimator's overall confidence.
type Pose struct {
	Keypoints []Keypoint `json:"keypoints"`
	Score     float64    `json:"score"`
}

// Box is an axis-aligned bounding box in detection space.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Pad returns the box expanded by px on every side.
func (b Box) Pad(px float64) Box {
	return Box{
		X:      b.X - px,
		Y:      b.Y - px,
		Width:  b.Width + 2*px,
		Height: b.Height + 2*px,
	}
}

// Contains reports whether the point (x, y) lies inside the box.
func (b Box) Contains(x, y float64) bool {
	return x >= b.X && x <= b.X+b.Width && y >= b.Y && y <= b.Y+b.Height
}

// KeypointMap builds a name-to-keypoint lookup from the pose.
// Keys are unique; if the detector ever repeats a name, the last
// occurrence wins.
func (p *Pose) KeypointMap() map[string]Keypoint {
	if p == nil {
		return nil
	}
	m := make(map[string]Keypoint, len(p.Keypoints))
	for _, kp := range p.Keypoints {
		m[kp.Name] = kp
	}
	return m
}

// Filtered returns the keypoints whose score exceeds threshold, preserving
// the pose's keypoint order. The same filter is applied everywhere a
// keypoint participates in rendering, geometry or hit-testing.
func (p *Pose) Filtered(threshold float64) []Keypoint {
	if p == nil {
		return nil
	}
	var out []Keypoint
	for _, kp := range p.Keypoints {
		if kp.Score > threshold {
			out = append(out, kp)
		}
	}
	return out
}

// BoundingBox computes the bounding box over all keypoints whose score
// exceeds threshold. Returns false when no keypoint qualifies.
func (p *Pose) BoundingBox(threshold float64) (Box, bool) {
	filtered := p.Filtered(threshold)
	if len(filtered) == 0 {
		return Box{}, false
	}

	minX, minY := filtered[0].X, filtered[0].Y
	maxX, maxY := minX, minY
	for _, kp := range filtered[1:] {
		if kp.X < minX {
			minX = kp.X
		}
		if kp.X > maxX {
			maxX = kp.X
		}
		if kp.Y < minY {
			minY = kp.Y
		}
		if kp.Y > maxY {
			maxY = kp.Y
		}
	}

	return Box{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}, true
}
