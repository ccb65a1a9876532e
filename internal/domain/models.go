package domain

// GameState is the top-level lifecycle state of the trivia game.
type GameState string

const (
	GameReady   GameState = "ready"
	GamePlaying GameState = "playing"
	GameStopped GameState = "stopped"
)

// Difficulty is a question difficulty band.
type Difficulty string

const (
	DifficultyKids   Difficulty = "Kids"
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// ParseDifficulty validates a difficulty value received from a command.
func ParseDifficulty(raw string) (Difficulty, bool) {
	switch Difficulty(raw) {
	case DifficultyKids, DifficultyEasy, DifficultyMedium, DifficultyHard:
		return Difficulty(raw), true
	}
	return "", false
}

// Question is an immutable catalog record.
type Question struct {
	ID              int        `json:"id"`
	Category        string     `json:"category"`
	Question        string     `json:"question"`
	AnswerA         string     `json:"answer_a"`
	AnswerB         string     `json:"answer_b"`
	AnswerC         string     `json:"answer_c"`
	CorrectAnswer   string     `json:"correct_answer"` // A, B, or C
	FunFact         string     `json:"fun_fact"`
	DifficultyLevel Difficulty `json:"difficulty_level"`
}

// CategoryStat accumulates a team's per-category answer record for one game.
type CategoryStat struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// RoundResult is the display-only outcome of a team's last scored round.
type RoundResult struct {
	Answer  string `json:"answer"`
	Correct bool   `json:"correct"`
	Points  int    `json:"points"`
}

// Highscore is the best team performance (by average points per round) seen
// across games.
type Highscore struct {
	TeamName      string  `json:"team_name"`
	TotalPoints   int     `json:"total_points"`
	AveragePoints float64 `json:"average_points"`
	RoundsPlayed  int     `json:"rounds_played"`
}

// TeamSummary is the per-team slice of the end-of-game summary.
type TeamSummary struct {
	BestCategory string `json:"best_category"`
}

// MVP names the player with the most correct answers; Score is the raw
// correct-answer count.
type MVP struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// GameSummary is computed when the game stops.
type GameSummary struct {
	TeamStats map[string]TeamSummary `json:"team_stats"`
	MVP       MVP                    `json:"mvp"`
}

// EntityState is one observable value as published to the display layer:
// a primary state string plus named attributes. It is also the unit of
// restart persistence.
type EntityState struct {
	State      string         `json:"state"`
	Attributes map[string]any `json:"attributes,omitempty"`
}
