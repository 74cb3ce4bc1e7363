// Package playback drives the review clock: a state machine over a
// seekable video source with automatic pausing at scheduled timestamps.
package playback

import (
	"math"
	"sort"
	"sync"
)

// Schedule holds the automatic pause points for a review session. Each
// point is one-shot: once it fires it stays disarmed until a seek moves
// playback back to (or before) it. When two points sit closer together
// than the tolerance window, the earlier one fires first and the later
// one fires on its own window; a single tick never fires both.
type Schedule struct {
	mu        sync.Mutex
	points    []float64
	fired     []bool
	tolerance float64
}

// NewSchedule creates a schedule from pause points in seconds. The
// points are sorted ascending; tolerance is the half-width of the match
// window around each point.
func NewSchedule(points []float64, tolerance float64) *Schedule {
	s := &Schedule{tolerance: tolerance}
	s.SetPoints(points)
	return s
}

// SetPoints replaces the schedule and re-arms every point.
func (s *Schedule) SetPoints(points []float64) {
	sorted := make([]float64, len(points))
	copy(sorted, points)
	sort.Float64s(sorted)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.points = sorted
	s.fired = make([]bool, len(sorted))
}

// Due reports whether playback time t has reached an armed pause point,
// firing and disarming the first match. Points are checked in ascending
// order.
func (s *Schedule) Due(t float64) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, p := range s.points {
		if s.fired[i] {
			continue
		}
		if math.Abs(t-p) <= s.tolerance {
			s.fired[i] = true
			return p, true
		}
	}
	return 0, false
}

// Rearm adjusts arming after a seek to time t: points ahead of the new
// position (or within its tolerance window) are re-armed so they fire
// again on the next pass, points left behind stay disarmed so jumping
// past them does not trigger a burst of stale pauses.
func (s *Schedule) Rearm(t float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, p := range s.points {
		s.fired[i] = p < t-s.tolerance
	}
}

// Reset re-arms every point.
func (s *Schedule) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.fired {
		s.fired[i] = false
	}
}

// Points returns a copy of the scheduled pause points in ascending order.
func (s *Schedule) Points() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]float64, len(s.points))
	copy(out, s.points)
	return out
}
