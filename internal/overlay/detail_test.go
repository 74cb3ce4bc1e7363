package overlay

import (
	"encoding/json"
	"strings"
	"testing"

	"gocv.io/x/gocv"

	"github.com/psarathy/drishti/internal/pose"
)

func legKeypoints() map[string]pose.Keypoint {
	return map[string]pose.Keypoint{
		pose.LeftHip:   {Name: pose.LeftHip, X: 100, Y: 100, Score: 0.9},
		pose.LeftKnee:  {Name: pose.LeftKnee, X: 100, Y: 200, Score: 0.9},
		pose.LeftAnkle: {Name: pose.LeftAnkle, X: 200, Y: 200, Score: 0.9},
	}
}

func TestNewDetail_WithAngle(t *testing.T) {
	kps := legKeypoints()
	d := NewDetail(kps[pose.LeftKnee], kps, testMapper(640, 360), ModeClick)

	if d.Name != pose.LeftKnee {
		t.Errorf("Name = %q, want %q", d.Name, pose.LeftKnee)
	}
	if d.Side != "left" {
		t.Errorf("Side = %q, want \"left\"", d.Side)
	}
	if d.Mode != ModeClick {
		t.Errorf("Mode = %q, want %q", d.Mode, ModeClick)
	}
	if d.Angle == nil {
		t.Fatal("Angle = nil, want 90")
	}
	if *d.Angle != 90 {
		t.Errorf("Angle = %v, want 90", *d.Angle)
	}
	if d.X != 100 || d.Y != 200 {
		t.Errorf("position = (%v, %v), want (100, 200)", d.X, d.Y)
	}
}

func TestNewDetail_MapsPosition(t *testing.T) {
	m := NewMapper()
	m.SetNativeSize(1920, 1080)
	m.SetDisplaySize(640, 360)

	kp := pose.Keypoint{Name: pose.LeftKnee, X: 960, Y: 600, Score: 0.5}
	d := NewDetail(kp, map[string]pose.Keypoint{pose.LeftKnee: kp}, m, ModeHover)

	if d.X != 320 || d.Y != 200 {
		t.Errorf("position = (%v, %v), want (320, 200)", d.X, d.Y)
	}
	// Hip and ankle are missing, so no angle.
	if d.Angle != nil {
		t.Errorf("Angle = %v, want nil", *d.Angle)
	}
}

func TestNewDetail_NoAngleForUnsidedJoint(t *testing.T) {
	kp := pose.Keypoint{Name: pose.Nose, X: 10, Y: 10, Score: 0.9}
	d := NewDetail(kp, map[string]pose.Keypoint{pose.Nose: kp}, testMapper(640, 360), ModeHover)

	if d.Angle != nil {
		t.Errorf("Angle = %v, want nil for nose", *d.Angle)
	}
	if d.Side != "" {
		t.Errorf("Side = %q, want empty", d.Side)
	}
}

func TestDetail_Lines(t *testing.T) {
	angle := 90.0
	d := &Detail{Name: pose.LeftKnee, Angle: &angle}

	lines := d.Lines()
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0] != "LEFT KNEE" {
		t.Errorf("title = %q, want \"LEFT KNEE\"", lines[0])
	}
	if lines[1] != "Angle: 90 deg" {
		t.Errorf("angle line = %q, want \"Angle: 90 deg\"", lines[1])
	}

	d.Angle = nil
	lines = d.Lines()
	if len(lines) != 1 {
		t.Errorf("got %d lines without angle, want 1", len(lines))
	}
}

func TestDetail_JSONAngleNull(t *testing.T) {
	d := Detail{Name: pose.Nose, Mode: ModeHover}
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(b), `"angle":null`) {
		t.Errorf("expected null angle in %s", b)
	}
}

func TestDrawInfoBox(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	s := NewSurface(200, 200)
	defer s.Close()

	// Nil detail is a no-op.
	DrawInfoBox(s, nil)
	if n := alphaPixels(s); n != 0 {
		t.Fatalf("nil detail drew %d pixels", n)
	}

	// A detail pinned at the far corner must still land fully on the
	// surface; drawing clamps rather than clips.
	angle := 145.0
	d := &Detail{Name: pose.RightElbow, Angle: &angle, X: 190, Y: 190, Mode: ModeClick}
	DrawInfoBox(s, d)

	if n := alphaPixels(s); n == 0 {
		t.Error("info box drew nothing")
	}
}

// alphaPixels counts surface pixels with nonzero alpha.
func alphaPixels(s *Surface) int {
	chans := gocv.Split(*s.Mat())
	defer closeMats(chans)
	return gocv.CountNonZero(chans[3])
}
