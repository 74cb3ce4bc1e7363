package playback

import "testing"

func TestSchedule_Due(t *testing.T) {
	tests := []struct {
		name      string
		points    []float64
		t         float64
		wantPoint float64
		wantHit   bool
	}{
		{
			name:    "inside tolerance window",
			points:  []float64{6, 10},
			t:       6.05, wantPoint: 6, wantHit: true,
		},
		{
			name:   "well before any point",
			points: []float64{6, 10},
			t:      5.0, wantHit: false,
		},
		{
			name:    "window lower edge",
			points:  []float64{6, 10},
			t:       5.9, wantPoint: 6, wantHit: true,
		},
		{
			name:   "just under lower edge",
			points: []float64{6, 10},
			t:      5.89, wantHit: false,
		},
		{
			name:    "second point",
			points:  []float64{6, 10},
			t:       10.08, wantPoint: 10, wantHit: true,
		},
		{
			name:   "empty schedule",
			points: nil,
			t:      6.0, wantHit: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSchedule(tt.points, 0.1)

			point, hit := s.Due(tt.t)
			if hit != tt.wantHit {
				t.Fatalf("Due(%v) hit = %v, want %v", tt.t, hit, tt.wantHit)
			}
			if hit && point != tt.wantPoint {
				t.Errorf("Due(%v) point = %v, want %v", tt.t, point, tt.wantPoint)
			}
		})
	}
}

func TestSchedule_OneShot(t *testing.T) {
	s := NewSchedule([]float64{6, 10}, 0.1)

	if _, hit := s.Due(6.05); !hit {
		t.Fatal("first pass should fire")
	}

	// Subsequent ticks inside the same window must not re-fire.
	for _, tick := range []float64{6.06, 6.08, 6.1, 5.95} {
		if _, hit := s.Due(tick); hit {
			t.Errorf("Due(%v) re-fired an already fired point", tick)
		}
	}

	// The other point is unaffected.
	if _, hit := s.Due(10.0); !hit {
		t.Error("second point should still fire")
	}
}

func TestSchedule_CloseTogetherPointsFireSeparately(t *testing.T) {
	// Two points inside one tolerance window: a single check fires only
	// the earlier one; the later fires on a later check.
	s := NewSchedule([]float64{6.0, 6.05}, 0.1)

	point, hit := s.Due(6.02)
	if !hit || point != 6.0 {
		t.Fatalf("Due(6.02) = (%v, %v), want (6.0, true)", point, hit)
	}

	point, hit = s.Due(6.03)
	if !hit || point != 6.05 {
		t.Errorf("Due(6.03) = (%v, %v), want (6.05, true)", point, hit)
	}
}

func TestSchedule_RearmAfterSeek(t *testing.T) {
	s := NewSchedule([]float64{6, 10}, 0.1)

	if _, hit := s.Due(6.0); !hit {
		t.Fatal("expected first fire")
	}

	// Seeking back ahead of the point re-arms it.
	s.Rearm(2.0)
	if _, hit := s.Due(6.01); !hit {
		t.Error("point should re-fire after seeking back")
	}

	// Seeking forward past a point leaves it disarmed but re-arms
	// points still ahead.
	s.Rearm(8.0)
	if _, hit := s.Due(6.0); hit {
		t.Error("point behind the seek target should stay disarmed")
	}
	if _, hit := s.Due(10.0); !hit {
		t.Error("point ahead of the seek target should be armed")
	}

	// Seeking exactly onto a fired point re-arms it.
	s.Rearm(10.0)
	if _, hit := s.Due(10.05); !hit {
		t.Error("point at the seek target should be armed")
	}
}

func TestSchedule_Reset(t *testing.T) {
	s := NewSchedule([]float64{6, 10}, 0.1)

	s.Due(6.0)
	s.Due(10.0)
	s.Reset()

	if _, hit := s.Due(6.0); !hit {
		t.Error("reset should re-arm the first point")
	}
	if _, hit := s.Due(10.0); !hit {
		t.Error("reset should re-arm the second point")
	}
}

func TestSchedule_SetPointsSortsAndRearms(t *testing.T) {
	s := NewSchedule([]float64{6}, 0.1)
	s.Due(6.0)

	s.SetPoints([]float64{10, 2, 6})

	points := s.Points()
	want := []float64{2, 6, 10}
	if len(points) != len(want) {
		t.Fatalf("Points() has %d entries, want %d", len(points), len(want))
	}
	for i := range want {
		if points[i] != want[i] {
			t.Errorf("Points()[%d] = %v, want %v", i, points[i], want[i])
		}
	}

	if _, hit := s.Due(6.0); !hit {
		t.Error("SetPoints should re-arm existing points")
	}
}
