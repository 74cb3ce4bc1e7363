package pose

import (
	"math"
	"strings"
)

// Angle computes the joint angle in degrees at the named joint.
// Angles are defined only for elbows (shoulder-elbow-wrist) and knees
// (hip-knee-ankle); any other joint returns false, meaning "no angle
// applies" rather than an error. Missing any of the three required
// landmarks in the map also returns false.
//
// The angle is |round(degrees(atan2(c-b) - atan2(a-b)))| where b is the
// joint vertex. Callers are expected to have confidence-filtered the map
// already. The value is non-negative; the raw formula is not clamped.
func Angle(kp map[string]Keypoint, joint string) (float64, bool) {
	side := Side(joint)

	var aName, cName string
	switch {
	case strings.Contains(joint, "elbow"):
		aName = side + "_shoulder"
		cName = side + "_wrist"
	case strings.Contains(joint, "knee"):
		aName = side + "_hip"
		cName = side + "_ankle"
	default:
		return 0, false
	}

	a, okA := kp[aName]
	b, okB := kp[joint]
	c, okC := kp[cName]
	if !okA || !okB || !okC {
		return 0, false
	}

	rad := math.Atan2(c.Y-b.Y, c.X-b.X) - math.Atan2(a.Y-b.Y, a.X-b.X)
	deg := math.Abs(math.Round(rad * 180 / math.Pi))
	return deg, true
}
