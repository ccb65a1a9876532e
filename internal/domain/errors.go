package domain

import "errors"

var (
	// ErrQuestionsExhausted is returned when every catalog question at the
	// active difficulty has already been played this game.
	ErrQuestionsExhausted = errors.New("no unplayed questions at this difficulty")
	// ErrCatalogUnavailable indicates the question catalog could not be loaded.
	ErrCatalogUnavailable = errors.New("question catalog unavailable")
	// ErrTeamNotFound is returned when a command names a team outside 1..5.
	ErrTeamNotFound = errors.New("team not found")
	// ErrInvalidTeamCount is returned for a team count outside 1..5.
	ErrInvalidTeamCount = errors.New("team count must be between 1 and 5")
	// ErrInvalidDifficulty is returned for an unknown difficulty level.
	ErrInvalidDifficulty = errors.New("unknown difficulty level")
	// ErrInvalidTimerLength is returned for a non-positive countdown length.
	ErrInvalidTimerLength = errors.New("timer length must be positive")
)
