package app

import (
	"log"
	"sync"

	"home-trivia-service/internal/domain"
)

// HighscoreTracker keeps the best team performance by average points per
// round, surviving across games.
type HighscoreTracker struct {
	onChange func(domain.Highscore)

	mu     sync.Mutex
	record domain.Highscore
}

func NewHighscoreTracker(onChange func(domain.Highscore)) *HighscoreTracker {
	return &HighscoreTracker{onChange: onChange}
}

// Update replaces the stored record iff the candidate's average strictly
// exceeds it. Ties keep the earlier record. Reports whether it replaced.
func (h *HighscoreTracker) Update(teamName string, totalPoints, roundsPlayed int) bool {
	if roundsPlayed <= 0 {
		return false
	}
	average := float64(totalPoints) / float64(roundsPlayed)

	h.mu.Lock()
	if average <= h.record.AveragePoints {
		h.mu.Unlock()
		return false
	}
	h.record = domain.Highscore{
		TeamName:      teamName,
		TotalPoints:   totalPoints,
		AveragePoints: average,
		RoundsPlayed:  roundsPlayed,
	}
	record := h.record
	h.mu.Unlock()

	log.Printf("new highscore: %s with %d total, %.1f average", teamName, totalPoints, average)
	if h.onChange != nil {
		h.onChange(record)
	}
	return true
}

// Record returns the current best record.
func (h *HighscoreTracker) Record() domain.Highscore {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.record
}

// Restore repopulates the record from a previously published value.
func (h *HighscoreTracker) Restore(record domain.Highscore) {
	h.mu.Lock()
	h.record = record
	h.mu.Unlock()
	if h.onChange != nil {
		h.onChange(record)
	}
}
