package app

import (
	"fmt"
	"log"
	"math"

	"github.com/psarathy/drishti/internal/store"
	"github.com/psarathy/drishti/internal/video"
)

// Suggestion scan tuning.
const (
	// scanStepSec is the sampling interval for the motion scan.
	scanStepSec = 0.5
	// burstThreshold is the frame-change percentage that counts as
	// active movement.
	burstThreshold = 12.0
	// stillThreshold is the percentage below which the athlete is
	// considered to be holding a position.
	stillThreshold = 3.0
	// minSuggestionGapSec keeps suggestions from clustering.
	minSuggestionGapSec = 2.0
	// maxSuggestions caps how many points one scan produces.
	maxSuggestions = 10
)

// SuggestPausePoints scans the session's video for moments where a
// burst of movement settles into a held position, which is where a
// reviewer typically wants to stop: the end of a rep, a landing, a
// held pose. Found points replace any earlier suggestions for the
// session; manually placed points are untouched.
//
// The scan opens its own source so playback is unaffected.
func (a *App) SuggestPausePoints() ([]float64, error) {
	a.mu.RLock()
	session := a.session
	factory := a.srcFactory
	a.mu.RUnlock()

	if session == nil {
		return nil, fmt.Errorf("no session loaded")
	}

	src := factory(session.VideoPath)
	if err := src.Open(); err != nil {
		return nil, fmt.Errorf("failed to open %s for scanning: %w", session.VideoPath, err)
	}
	defer src.Close()

	meta, err := src.Metadata()
	if err != nil {
		return nil, err
	}

	points := scanForStillMoments(src, meta.Duration)

	if a.cfg.Store != nil {
		repo := a.cfg.Store.PausePoints()
		if err := repo.DeleteSuggested(session.ID); err != nil {
			log.Printf("Failed to clear old suggestions: %v", err)
		}
		for _, t := range points {
			p := &store.PausePoint{SessionID: session.ID, Seconds: t, Suggested: true}
			if err := repo.Create(p); err != nil {
				log.Printf("Failed to save suggestion at %.1fs: %v", t, err)
			}
		}
	}

	if err := a.ReloadPausePoints(); err != nil {
		log.Printf("Failed to apply suggestions to schedule: %v", err)
	}

	log.Printf("Suggested %d pause points for session %s", len(points), session.ID)
	return points, nil
}

// scanForStillMoments walks the video at scanStepSec intervals and
// records the timestamps where motion drops from a burst to stillness.
func scanForStillMoments(src video.Source, duration float64) []float64 {
	scanner := video.NewMotionScanner()
	defer scanner.Close()

	var points []float64
	inBurst := false
	lastPoint := -minSuggestionGapSec

	for t := 0.0; t < duration; t += scanStepSec {
		frame, err := src.ReadFrameAt(t)
		if err != nil {
			continue
		}
		percent, ok := scanner.Step(frame)
		frame.Close()
		if !ok {
			continue
		}

		if percent >= burstThreshold {
			inBurst = true
			continue
		}
		if inBurst && percent <= stillThreshold && t-lastPoint >= minSuggestionGapSec {
			points = append(points, roundCentis(t))
			lastPoint = t
			inBurst = false
			if len(points) >= maxSuggestions {
				break
			}
		}
	}
	return points
}

func roundCentis(t float64) float64 {
	return math.Round(t*100) / 100
}
