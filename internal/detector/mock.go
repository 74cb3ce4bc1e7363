package detector

import (
	"sync"

	"gocv.io/x/gocv"

	"github.com/psarathy/drishti/internal/pose"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu      sync.Mutex
	poses   []pose.Pose
	err     error
	detects int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetPoses sets the poses that will be returned by Detect.
func (m *MockDetector) SetPoses(poses []pose.Pose) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.poses = poses
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect returns the pre-configured poses or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]pose.Pose, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.detects++
	if m.err != nil {
		return nil, m.err
	}
	return m.poses, nil
}

// Detects returns how many times Detect was called.
func (m *MockDetector) Detects() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.detects
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// StandingPose returns a preset pose for an upright figure centered in
// a 1920x1080 frame. The left knee sits at frame center height
// (960, 600) with a deliberately middling score.
func StandingPose() pose.Pose {
	return pose.Pose{
		Score: 0.92,
		Keypoints: []pose.Keypoint{
			{Name: pose.Nose, X: 960, Y: 140, Score: 0.95},
			{Name: pose.LeftEye, X: 945, Y: 125, Score: 0.94},
			{Name: pose.RightEye, X: 975, Y: 125, Score: 0.94},
			{Name: pose.LeftEar, X: 928, Y: 138, Score: 0.88},
			{Name: pose.RightEar, X: 992, Y: 138, Score: 0.87},
			{Name: pose.LeftShoulder, X: 900, Y: 262, Score: 0.93},
			{Name: pose.RightShoulder, X: 1020, Y: 262, Score: 0.93},
			{Name: pose.LeftElbow, X: 868, Y: 398, Score: 0.9},
			{Name: pose.RightElbow, X: 1052, Y: 398, Score: 0.9},
			{Name: pose.LeftWrist, X: 858, Y: 522, Score: 0.85},
			{Name: pose.RightWrist, X: 1062, Y: 522, Score: 0.85},
			{Name: pose.LeftHip, X: 922, Y: 452, Score: 0.91},
			{Name: pose.RightHip, X: 998, Y: 452, Score: 0.91},
			{Name: pose.LeftKnee, X: 960, Y: 600, Score: 0.5},
			{Name: pose.RightKnee, X: 996, Y: 602, Score: 0.89},
			{Name: pose.LeftAnkle, X: 962, Y: 758, Score: 0.86},
			{Name: pose.RightAnkle, X: 994, Y: 760, Score: 0.86},
		},
	}
}

// LungePose returns a preset pose mid-lunge in a 1920x1080 frame. The
// left leg is bent to a right angle (hip above knee, ankle out front),
// for exercising joint-angle display.
func LungePose() pose.Pose {
	return pose.Pose{
		Score: 0.9,
		Keypoints: []pose.Keypoint{
			{Name: pose.Nose, X: 820, Y: 240, Score: 0.94},
			{Name: pose.LeftEye, X: 808, Y: 226, Score: 0.92},
			{Name: pose.RightEye, X: 834, Y: 226, Score: 0.92},
			{Name: pose.LeftEar, X: 795, Y: 238, Score: 0.85},
			{Name: pose.RightEar, X: 848, Y: 238, Score: 0.84},
			{Name: pose.LeftShoulder, X: 772, Y: 352, Score: 0.92},
			{Name: pose.RightShoulder, X: 876, Y: 352, Score: 0.92},
			{Name: pose.LeftElbow, X: 742, Y: 470, Score: 0.88},
			{Name: pose.RightElbow, X: 905, Y: 470, Score: 0.88},
			{Name: pose.LeftWrist, X: 736, Y: 578, Score: 0.82},
			{Name: pose.RightWrist, X: 912, Y: 578, Score: 0.82},
			{Name: pose.LeftHip, X: 800, Y: 500, Score: 0.9},
			{Name: pose.RightHip, X: 862, Y: 500, Score: 0.9},
			{Name: pose.LeftKnee, X: 800, Y: 700, Score: 0.88},
			{Name: pose.RightKnee, X: 955, Y: 705, Score: 0.83},
			{Name: pose.LeftAnkle, X: 1000, Y: 700, Score: 0.84},
			{Name: pose.RightAnkle, X: 965, Y: 860, Score: 0.8},
		},
	}
}
