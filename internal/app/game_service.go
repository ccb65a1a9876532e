package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"home-trivia-service/internal/domain"
)

// QuestionBank supplies one random unplayed question at a difficulty.
// Implementations return domain.ErrQuestionsExhausted when every question at
// the difficulty has been played.
type QuestionBank interface {
	Draw(ctx context.Context, level domain.Difficulty, played map[int]struct{}) (domain.Question, error)
}

// IdentityDirectory resolves an external user id to a display name for the
// end-of-game MVP. Lookups may fail; callers fall back to the raw id.
type IdentityDirectory interface {
	DisplayName(ctx context.Context, userID string) (string, error)
}

// Defaults are the initial game settings, overridden by restored state.
type Defaults struct {
	TeamCount   int
	Difficulty  domain.Difficulty
	TimerLength int
}

// Deps carries the collaborators the game service is constructed with.
type Deps struct {
	Board *Board
	Bank  QuestionBank
	Users IdentityDirectory // optional

	Defaults Defaults
	// TickInterval overrides the countdown tick for tests; zero means 1s.
	TickInterval time.Duration
}

type userTally struct {
	correct  int
	firstSeq int // order of this user's first correct answer, for tie-breaks
}

// GameService is the orchestrator: it owns the lifecycle state machine,
// sequences question rounds, and keeps every observable entity published.
type GameService struct {
	board     *Board
	bank      QuestionBank
	users     IdentityDirectory
	timer     *Countdown
	highscore *HighscoreTracker

	mu          sync.Mutex
	state       domain.GameState
	teamCount   int
	difficulty  domain.Difficulty
	timerLength int
	teams       *TeamRegistry
	rounds      int
	playedIDs   []int
	playedSet   map[int]struct{}
	current     *domain.Question
	userStats   map[string]*userTally
	tallySeq    int
	summary     *domain.GameSummary
}

func NewGameService(deps Deps) *GameService {
	defaults := deps.Defaults
	if defaults.TeamCount < 1 || defaults.TeamCount > MaxTeams {
		defaults.TeamCount = 2
	}
	if _, ok := domain.ParseDifficulty(string(defaults.Difficulty)); !ok {
		defaults.Difficulty = domain.DifficultyEasy
	}
	if defaults.TimerLength <= 0 {
		defaults.TimerLength = 30
	}

	s := &GameService{
		board:       deps.Board,
		bank:        deps.Bank,
		users:       deps.Users,
		state:       domain.GameReady,
		teamCount:   defaults.TeamCount,
		difficulty:  defaults.Difficulty,
		timerLength: defaults.TimerLength,
		teams:       NewTeamRegistry(),
		playedSet:   make(map[int]struct{}),
		userStats:   make(map[string]*userTally),
	}
	s.timer = NewCountdown(deps.TickInterval, s.publishCountdown, s.onTimerExpired)
	s.highscore = NewHighscoreTracker(s.publishHighscore)

	s.mu.Lock()
	s.publishAllLocked()
	s.mu.Unlock()
	return s
}

// Highscore exposes the tracker for restore wiring and tests.
func (s *GameService) Highscore() *HighscoreTracker {
	return s.highscore
}

// Close stops the countdown goroutine.
func (s *GameService) Close() {
	s.timer.Stop()
}

// StartGame begins a new game: all per-game accumulators are cleared, teams
// 1..teamCount participate, and the state becomes playing. Calling it while
// already playing restarts the game from scratch.
func (s *GameService) StartGame(ctx context.Context) {
	log.Printf("starting trivia game")
	s.timer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.rounds = 0
	s.playedIDs = nil
	s.playedSet = make(map[int]struct{})
	s.userStats = make(map[string]*userTally)
	s.tallySeq = 0
	s.summary = nil
	s.current = nil

	for _, t := range s.teams.All() {
		t.resetForNewGame()
		t.Participating = t.Number <= s.teamCount
		s.publishTeamLocked(t)
	}

	s.state = domain.GamePlaying
	s.publishGameStatusLocked()
	s.publishRoundCounterLocked()
	s.publishPlayedLocked()
	s.publishCurrentQuestionLocked()
}

// StopGame stops the timer, computes the end-of-game summary, and moves to
// stopped. Team data is kept so the summary remains observable.
func (s *GameService) StopGame(ctx context.Context) {
	log.Printf("stopping trivia game")
	s.timer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	summary := s.computeSummaryLocked(ctx)
	s.summary = &summary
	s.state = domain.GameStopped
	s.publishGameStatusLocked()
}

// ResetGame returns to ready while preserving team setup (names,
// participation, user assignments): only game progress is zeroed.
func (s *GameService) ResetGame(ctx context.Context) {
	log.Printf("resetting trivia game, preserving team setup")
	s.timer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.rounds = 0
	s.playedIDs = nil
	s.playedSet = make(map[int]struct{})
	s.summary = nil
	s.current = nil

	for _, t := range s.teams.All() {
		t.resetProgress()
		s.publishTeamLocked(t)
	}

	s.state = domain.GameReady
	s.publishGameStatusLocked()
	s.publishRoundCounterLocked()
	s.publishPlayedLocked()
	s.publishCurrentQuestionLocked()
}

// NextQuestion scores the round in play, clears answers, draws an unplayed
// question at the active difficulty, and restarts the countdown. Catalog
// failures clear the current question and leave the game playing.
func (s *GameService) NextQuestion(ctx context.Context) {
	// Token taken before the game lock; a stop or reset that lands between
	// drawing and starting the timer invalidates it.
	gen := s.timer.Gen()

	s.mu.Lock()

	if s.state != domain.GamePlaying {
		s.mu.Unlock()
		log.Printf("ignoring next question while %s", s.state)
		return
	}

	s.scoreRoundLocked()

	for _, t := range s.teams.All() {
		t.clearAnswer()
		s.publishTeamLocked(t)
	}

	question, err := s.bank.Draw(ctx, s.difficulty, s.playedSet)
	if err != nil {
		s.current = nil
		s.publishCurrentQuestionLocked()
		s.mu.Unlock()
		if errors.Is(err, domain.ErrQuestionsExhausted) {
			log.Printf("all %s questions have been played", s.difficulty)
		} else {
			log.Printf("load next question: %v", err)
		}
		return
	}

	s.playedIDs = append(s.playedIDs, question.ID)
	s.playedSet[question.ID] = struct{}{}
	s.current = &question
	length := s.timerLength
	s.publishPlayedLocked()
	s.publishCurrentQuestionLocked()
	s.mu.Unlock()

	log.Printf("selected question %d (%s)", question.ID, question.Category)
	if !s.timer.StartIfGen(length, gen) {
		log.Printf("countdown superseded, leaving timer stopped for question %d", question.ID)
	}
}

// onTimerExpired runs the identical scoring path as NextQuestion step one,
// so a round is scored even when nobody advances manually.
func (s *GameService) onTimerExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scoreRoundLocked()
}

// UpdateTeamName renames a team.
func (s *GameService) UpdateTeamName(teamNumber int, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.teams.Get(teamNumber)
	if !ok {
		return domain.ErrTeamNotFound
	}
	t.Name = name
	s.publishTeamLocked(t)
	return nil
}

// UpdateTeamPoints overwrites a team's points (manual host correction).
func (s *GameService) UpdateTeamPoints(teamNumber, points int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.teams.Get(teamNumber)
	if !ok {
		return domain.ErrTeamNotFound
	}
	if points < 0 {
		return fmt.Errorf("points must not be negative, got %d", points)
	}
	t.Points = points
	s.publishTeamLocked(t)
	return nil
}

// UpdateTeamParticipating toggles a team in or out of scoring.
func (s *GameService) UpdateTeamParticipating(teamNumber int, participating bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.teams.Get(teamNumber)
	if !ok {
		return domain.ErrTeamNotFound
	}
	t.Participating = participating
	s.publishTeamLocked(t)
	return nil
}

// UpdateTeamAnswer records a team's answer and captures the live countdown
// value as its speed-bonus snapshot.
func (s *GameService) UpdateTeamAnswer(teamNumber int, answer string) error {
	remaining := s.timer.Remaining()

	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.teams.Get(teamNumber)
	if !ok {
		return domain.ErrTeamNotFound
	}
	t.Answer = answer
	t.Answered = true
	t.AnswerTimeRemaining = remaining
	s.publishTeamLocked(t)
	log.Printf("team %d answered %s with %d seconds remaining", teamNumber, answer, remaining)
	return nil
}

// UpdateTeamUserID assigns (or clears) the external user behind a team.
func (s *GameService) UpdateTeamUserID(teamNumber int, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.teams.Get(teamNumber)
	if !ok {
		return domain.ErrTeamNotFound
	}
	t.UserID = userID
	s.publishTeamLocked(t)
	return nil
}

// UpdateDifficulty switches the difficulty used for subsequent draws.
func (s *GameService) UpdateDifficulty(raw string) error {
	level, ok := domain.ParseDifficulty(raw)
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrInvalidDifficulty, raw)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.difficulty = level
	s.publishGameStatusLocked()
	return nil
}

// UpdateTeamCount sets how many teams participate on the next start/reset.
func (s *GameService) UpdateTeamCount(count int) error {
	if count < 1 || count > MaxTeams {
		return fmt.Errorf("%w: %d", domain.ErrInvalidTeamCount, count)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teamCount = count
	s.publishGameStatusLocked()
	return nil
}

// UpdateTimerLength sets the countdown length used for subsequent questions.
func (s *GameService) UpdateTimerLength(seconds int) error {
	if seconds <= 0 {
		return fmt.Errorf("%w: %d", domain.ErrInvalidTimerLength, seconds)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timerLength = seconds
	s.publishGameStatusLocked()
	s.publishTimerLengthLocked()
	return nil
}

// State reports the lifecycle state.
func (s *GameService) State() domain.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CurrentQuestion returns the question in play, if any.
func (s *GameService) CurrentQuestion() (domain.Question, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return domain.Question{}, false
	}
	return *s.current, true
}

// Rounds reports how many rounds have been scored this game.
func (s *GameService) Rounds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rounds
}

// Team returns a copy of one team's state.
func (s *GameService) Team(number int) (Team, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.teams.Get(number)
	if !ok {
		return Team{}, false
	}
	return *t, true
}

// computeSummaryLocked builds the end-of-game summary: best category per
// participating team and the MVP by correct-answer count. Identity lookup
// failures fall back to the raw user id.
func (s *GameService) computeSummaryLocked(ctx context.Context) domain.GameSummary {
	teamStats := make(map[string]domain.TeamSummary)
	for _, t := range s.teams.All() {
		if !t.Participating {
			continue
		}
		teamStats[TeamEntityID(t.Number)] = domain.TeamSummary{BestCategory: t.bestCategory()}
	}

	mvp := domain.MVP{Name: "N/A"}
	var mvpID string
	for userID, tally := range s.userStats {
		better := tally.correct > mvp.Score
		// Equal counts go to whoever answered correctly first.
		if tally.correct == mvp.Score && mvpID != "" {
			better = tally.firstSeq < s.userStats[mvpID].firstSeq
		}
		if better || mvpID == "" {
			mvpID = userID
			mvp.Score = tally.correct
		}
	}
	if mvpID != "" {
		mvp.Name = mvpID
		if s.users != nil {
			if name, err := s.users.DisplayName(ctx, mvpID); err != nil {
				log.Printf("resolve MVP name for %s: %v", mvpID, err)
			} else if name != "" {
				mvp.Name = name
			}
		}
	}

	return domain.GameSummary{TeamStats: teamStats, MVP: mvp}
}
