package app

import (
	"strconv"

	"home-trivia-service/internal/domain"
)

// The publish helpers mirror the game state onto the board. Each one builds
// the full entity payload so subscribers and the persister always see a
// self-contained value.

func (s *GameService) publishAllLocked() {
	s.publishGameStatusLocked()
	for _, t := range s.teams.All() {
		s.publishTeamLocked(t)
	}
	s.publishTimerLengthLocked()
	s.publishCurrentQuestionLocked()
	s.publishRoundCounterLocked()
	s.publishPlayedLocked()
	s.publishCountdown(0, 0, false)
	s.publishHighscore(s.highscore.Record())
}

func (s *GameService) publishGameStatusLocked() {
	attrs := map[string]any{
		"team_count":       s.teamCount,
		"difficulty_level": string(s.difficulty),
		"timer_length":     s.timerLength,
	}
	if s.summary != nil {
		attrs["summary"] = *s.summary
	}
	s.board.Publish(EntityGameStatus, domain.EntityState{
		State:      string(s.state),
		Attributes: attrs,
	})
}

func (s *GameService) publishTeamLocked(t *Team) {
	attrs := map[string]any{
		"team_number":   t.Number,
		"points":        t.Points,
		"participating": t.Participating,
		"answer":        t.Answer,
		"answered":      t.Answered,
		"streak":        t.Streak,
		"user_id":       t.UserID,
	}
	if t.LastRound != nil {
		attrs["last_round_answer"] = t.LastRound.Answer
		attrs["last_round_correct"] = t.LastRound.Correct
		attrs["last_round_points"] = t.LastRound.Points
	}
	s.board.Publish(TeamEntityID(t.Number), domain.EntityState{
		State:      t.Name,
		Attributes: attrs,
	})
}

func (s *GameService) publishTimerLengthLocked() {
	s.board.Publish(EntityCountdownTimer, domain.EntityState{
		State:      strconv.Itoa(s.timerLength),
		Attributes: map[string]any{"unit_of_measurement": "seconds"},
	})
}

// publishCountdown is the countdown's change callback. It runs off the
// countdown goroutine with a consistent snapshot, never under the game lock.
func (s *GameService) publishCountdown(current, initial int, running bool) {
	s.board.Publish(EntityCountdownCurrent, domain.EntityState{
		State: strconv.Itoa(current),
		Attributes: map[string]any{
			"is_running":   running,
			"initial_time": initial,
		},
	})
}

func (s *GameService) publishCurrentQuestionLocked() {
	if s.current == nil {
		s.board.Publish(EntityCurrentQuestion, domain.EntityState{State: "No Question"})
		return
	}
	q := s.current
	s.board.Publish(EntityCurrentQuestion, domain.EntityState{
		State: "Question " + strconv.Itoa(q.ID),
		Attributes: map[string]any{
			"question_id":      q.ID,
			"category":         q.Category,
			"question":         q.Question,
			"answer_a":         q.AnswerA,
			"answer_b":         q.AnswerB,
			"answer_c":         q.AnswerC,
			"correct_answer":   q.CorrectAnswer,
			"fun_fact":         q.FunFact,
			"difficulty_level": string(q.DifficultyLevel),
		},
	})
}

func (s *GameService) publishRoundCounterLocked() {
	s.board.Publish(EntityRoundCounter, domain.EntityState{State: strconv.Itoa(s.rounds)})
}

func (s *GameService) publishPlayedLocked() {
	ids := make([]int, len(s.playedIDs))
	copy(ids, s.playedIDs)
	s.board.Publish(EntityPlayedQuestions, domain.EntityState{
		State:      strconv.Itoa(len(ids)),
		Attributes: map[string]any{"played_question_ids": ids},
	})
}

func (s *GameService) publishHighscore(record domain.Highscore) {
	s.board.Publish(EntityHighscore, domain.EntityState{
		State: strconv.Itoa(record.TotalPoints),
		Attributes: map[string]any{
			"team_name":      record.TeamName,
			"total_points":   record.TotalPoints,
			"average_points": record.AveragePoints,
			"total_rounds":   record.RoundsPlayed,
		},
	})
}

