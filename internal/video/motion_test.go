package video

import (
	"testing"

	"gocv.io/x/gocv"
)

func TestMotionScanner_FirstFramePrimes(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	s := NewMotionScanner()
	defer s.Close()

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	if _, ok := s.Step(&frame); ok {
		t.Error("first frame should prime the baseline, not report change")
	}
}

func TestMotionScanner_IdenticalFrames(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	s := NewMotionScanner()
	defer s.Close()

	frame1 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame1.Close()
	frame2 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame2.Close()

	s.Step(&frame1)

	percent, ok := s.Step(&frame2)
	if !ok {
		t.Fatal("second frame should report change")
	}
	if percent != 0 {
		t.Errorf("identical frames changed %f%%, want 0", percent)
	}
}

func TestMotionScanner_FullChange(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	s := NewMotionScanner()
	defer s.Close()

	black := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer black.Close()

	white := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer white.Close()
	white.SetTo(gocv.NewScalar(255, 255, 255, 0))

	s.Step(&black)

	percent, ok := s.Step(&white)
	if !ok {
		t.Fatal("expected change report")
	}
	if percent < 50 {
		t.Errorf("black to white changed %f%%, want > 50", percent)
	}
}

func TestMotionScanner_Reset(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	s := NewMotionScanner()
	defer s.Close()

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	s.Step(&frame)
	s.Reset()

	// After a reset the next frame primes again.
	if _, ok := s.Step(&frame); ok {
		t.Error("frame after Reset should prime, not report change")
	}
}

func TestMotionScanner_EmptyFrame(t *testing.T) {
	s := NewMotionScanner()
	defer s.Close()

	if _, ok := s.Step(nil); ok {
		t.Error("nil frame should not report change")
	}
}
