package pose

import (
	"image/color"
	"strings"
)

// Joint names following the MoveNet/COCO 17-keypoint convention.
const (
	Nose          = "nose"
	LeftEye       = "left_eye"
	RightEye      = "right_eye"
	LeftEar       = "left_ear"
	RightEar      = "right_ear"
	LeftShoulder  = "left_shoulder"
	RightShoulder = "right_shoulder"
	LeftElbow     = "left_elbow"
	RightElbow    = "right_elbow"
	LeftWrist     = "left_wrist"
	RightWrist    = "right_wrist"
	LeftHip       = "left_hip"
	RightHip      = "right_hip"
	LeftKnee      = "left_knee"
	RightKnee     = "right_knee"
	LeftAnkle     = "left_ankle"
	RightAnkle    = "right_ankle"
	NumKeypoints  = 17
)

// JointNames lists the 17 joints in detector output order.
var JointNames = [NumKeypoints]string{
	Nose, LeftEye, RightEye, LeftEar, RightEar,
	LeftShoulder, RightShoulder, LeftElbow, RightElbow,
	LeftWrist, RightWrist, LeftHip, RightHip,
	LeftKnee, RightKnee, LeftAnkle, RightAnkle,
}

// Bones is the fixed skeleton graph: 15 connections covering the face,
// shoulder line, arms, torso and legs. The order is the draw order.
var Bones = [15][2]string{
	{Nose, LeftEye},
	{Nose, RightEye},
	{LeftEye, LeftEar},
	{RightEye, RightEar},
	{LeftShoulder, RightShoulder},
	{LeftShoulder, LeftElbow},
	{LeftElbow, LeftWrist},
	{RightShoulder, RightElbow},
	{RightElbow, RightWrist},
	{LeftShoulder, LeftHip},
	{RightShoulder, RightHip},
	{LeftHip, LeftKnee},
	{LeftKnee, LeftAnkle},
	{RightHip, RightKnee},
	{RightKnee, RightAnkle},
}

// Marker fill colors by body region.
var (
	headColor  = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	torsoColor = color.RGBA{R: 0, G: 200, B: 0, A: 255}
	armColor   = color.RGBA{R: 0, G: 122, B: 255, A: 255}
	legColor   = color.RGBA{R: 255, G: 165, B: 0, A: 255}
	otherColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// RegionColor returns the marker fill color for a joint, keyed on
// name substrings: head red, torso (shoulder/hip) green, arms
// (elbow/wrist) blue, legs (knee/ankle) orange, anything else white.
func RegionColor(name string) color.RGBA {
	switch {
	case strings.Contains(name, "nose"), strings.Contains(name, "eye"), strings.Contains(name, "ear"):
		return headColor
	case strings.Contains(name, "shoulder"), strings.Contains(name, "hip"):
		return torsoColor
	case strings.Contains(name, "elbow"), strings.Contains(name, "wrist"):
		return armColor
	case strings.Contains(name, "knee"), strings.Contains(name, "ankle"):
		return legColor
	default:
		return otherColor
	}
}

// Side extracts the body side from a joint name by substring match.
// Returns "left", "right", or "" for unsided joints like the nose.
func Side(name string) string {
	switch {
	case strings.Contains(name, "left"):
		return "left"
	case strings.Contains(name, "right"):
		return "right"
	default:
		return ""
	}
}
