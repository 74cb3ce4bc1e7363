package overlay

import (
	"testing"

	"github.com/psarathy/drishti/internal/pose"
)

func kneePose(score float64) *pose.Pose {
	return &pose.Pose{
		Keypoints: []pose.Keypoint{
			{Name: pose.LeftKnee, X: 960, Y: 600, Score: score},
		},
		Score: score,
	}
}

func TestDimmer_Spotlight(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	m := NewMapper()
	m.SetNativeSize(1920, 1080)
	m.SetDisplaySize(640, 360)

	s := NewSurface(640, 360)
	defer s.Close()

	d := NewDimmer(m, 0.3, 50)
	d.Apply(s, kneePose(0.5))

	// The knee maps to (320, 200); the padded box around it must be cut
	// back to full transparency.
	holePoints := [][2]int{{320, 200}, {305, 185}, {335, 215}}
	for _, pt := range holePoints {
		px := s.Mat().GetVecbAt(pt[1], pt[0])
		if px[3] != 0 {
			t.Errorf("spotlight pixel (%d, %d) alpha = %d, want 0", pt[0], pt[1], px[3])
		}
	}

	// Everything outside the spotlight is 70% black.
	dimPoints := [][2]int{{10, 10}, {400, 200}, {320, 100}, {630, 350}}
	for _, pt := range dimPoints {
		px := s.Mat().GetVecbAt(pt[1], pt[0])
		if px[0] != 0 || px[1] != 0 || px[2] != 0 {
			t.Errorf("dim pixel (%d, %d) = BGR(%d, %d, %d), want black", pt[0], pt[1], px[0], px[1], px[2])
		}
		if px[3] != dimAlpha {
			t.Errorf("dim pixel (%d, %d) alpha = %d, want %d", pt[0], pt[1], px[3], dimAlpha)
		}
	}
}

func TestDimmer_NoQualifyingKeypoints(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	m := NewMapper()
	m.SetNativeSize(1920, 1080)
	m.SetDisplaySize(640, 360)

	s := NewSurface(640, 360)
	defer s.Close()

	d := NewDimmer(m, 0.3, 50)

	// Below threshold: no box, so no dimming at all.
	d.Apply(s, kneePose(0.2))
	if px := s.Mat().GetVecbAt(10, 10); px[3] != 0 {
		t.Errorf("surface dimmed with no qualifying keypoints, alpha = %d", px[3])
	}

	d.Apply(s, nil)
	if px := s.Mat().GetVecbAt(10, 10); px[3] != 0 {
		t.Errorf("surface dimmed for nil pose, alpha = %d", px[3])
	}
}

func TestDimmer_HoleClampedToSurface(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	m := NewMapper()
	m.SetNativeSize(1920, 1080)
	m.SetDisplaySize(640, 360)

	s := NewSurface(640, 360)
	defer s.Close()

	// Keypoint at the native origin pushes the padded box off-surface;
	// the hole must clip instead of panicking.
	p := &pose.Pose{
		Keypoints: []pose.Keypoint{
			{Name: pose.Nose, X: 0, Y: 0, Score: 0.9},
		},
		Score: 0.9,
	}

	d := NewDimmer(m, 0.3, 50)
	d.Apply(s, p)

	if px := s.Mat().GetVecbAt(5, 5); px[3] != 0 {
		t.Errorf("clipped hole corner alpha = %d, want 0", px[3])
	}
	if px := s.Mat().GetVecbAt(50, 50); px[3] != dimAlpha {
		t.Errorf("outside clipped hole alpha = %d, want %d", px[3], dimAlpha)
	}
}
