package app

import (
	"fmt"

	"home-trivia-service/internal/domain"
)

// MaxTeams is the fixed number of team slots per deployment.
const MaxTeams = 5

// TeamEntityID returns the board entity id for a team number.
func TeamEntityID(number int) string {
	return fmt.Sprintf("team_%d", number)
}

// Team is one of the five fixed team slots. All mutation happens under the
// game service lock.
type Team struct {
	Number              int
	Name                string
	Points              int
	Participating       bool
	Answer              string // "", "A", "B", or "C"
	Answered            bool
	AnswerTimeRemaining int
	Streak              int
	LastRound           *domain.RoundResult
	UserID              string

	// categoryOrder keeps first-seen order for the best-category tie-break.
	categoryStats map[string]*domain.CategoryStat
	categoryOrder []string
}

func newTeam(number int) *Team {
	return &Team{
		Number:        number,
		Name:          fmt.Sprintf("Team %d", number),
		Participating: true,
		categoryStats: make(map[string]*domain.CategoryStat),
	}
}

// recordCategory accumulates this team's per-category answer record.
func (t *Team) recordCategory(category string, correct bool) {
	if category == "" {
		return
	}
	stat, ok := t.categoryStats[category]
	if !ok {
		stat = &domain.CategoryStat{}
		t.categoryStats[category] = stat
		t.categoryOrder = append(t.categoryOrder, category)
	}
	stat.Total++
	if correct {
		stat.Correct++
	}
}

// bestCategory is the category with the highest correct/total ratio, ties
// broken by first-seen order; "N/A" when nothing has been recorded.
func (t *Team) bestCategory() string {
	best := "N/A"
	bestRate := -1.0
	for _, category := range t.categoryOrder {
		stat := t.categoryStats[category]
		if stat.Total == 0 {
			continue
		}
		rate := float64(stat.Correct) / float64(stat.Total)
		if rate > bestRate {
			bestRate = rate
			best = category
		}
	}
	return best
}

// clearAnswer resets the per-round submission state.
func (t *Team) clearAnswer() {
	t.Answer = ""
	t.Answered = false
	t.AnswerTimeRemaining = 0
}

// resetForNewGame returns the team to its defaults for a fresh game.
func (t *Team) resetForNewGame() {
	t.Name = fmt.Sprintf("Team %d", t.Number)
	t.Points = 0
	t.Streak = 0
	t.LastRound = nil
	t.UserID = ""
	t.categoryStats = make(map[string]*domain.CategoryStat)
	t.categoryOrder = nil
	t.clearAnswer()
}

// resetProgress zeroes game progress but preserves the team's setup (name,
// participation, user assignment) and its category stats.
func (t *Team) resetProgress() {
	t.Points = 0
	t.Streak = 0
	t.LastRound = nil
	t.clearAnswer()
}

// TeamRegistry holds the five fixed team slots.
type TeamRegistry struct {
	teams [MaxTeams]*Team
}

func NewTeamRegistry() *TeamRegistry {
	r := &TeamRegistry{}
	for i := range r.teams {
		r.teams[i] = newTeam(i + 1)
	}
	return r
}

// Get returns the team with the given 1-based number.
func (r *TeamRegistry) Get(number int) (*Team, bool) {
	if number < 1 || number > MaxTeams {
		return nil, false
	}
	return r.teams[number-1], true
}

// All returns every team slot in order.
func (r *TeamRegistry) All() []*Team {
	return r.teams[:]
}
