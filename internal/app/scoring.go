package app

import (
	"log"
	"strings"

	"home-trivia-service/internal/domain"
)

// Scoring constants, applied identically whether a round ends by manual
// advance or by countdown expiry.
const (
	basePoints        = 10
	streakBonusPoints = 25
	streakBonusEvery  = 3
)

// scoreRoundLocked settles the round in play: every participating team is
// scored against the current question, stats accumulate, the round counter
// advances, and the highscore is re-evaluated. A no-op when no question (or
// no correct answer) is in play, which is the normal state before the first
// question of a game.
func (s *GameService) scoreRoundLocked() {
	if s.current == nil || s.current.CorrectAnswer == "" {
		return
	}
	question := *s.current
	log.Printf("scoring round for question %d", question.ID)

	for _, t := range s.teams.All() {
		if t.Number > s.teamCount {
			continue
		}
		if !t.Participating {
			continue
		}

		correct := t.Answer != "" && strings.EqualFold(t.Answer, question.CorrectAnswer)
		points := 0
		if correct {
			points = basePoints + t.AnswerTimeRemaining
			t.Streak++
			if t.Streak%streakBonusEvery == 0 {
				points += streakBonusPoints
				log.Printf("team %d hit a %dx streak, awarding %d bonus points", t.Number, t.Streak, streakBonusPoints)
			}
			if t.UserID != "" {
				s.tallyCorrectLocked(t.UserID)
			}
		} else {
			t.Streak = 0
		}

		t.recordCategory(question.Category, correct)
		t.Points += points

		answer := t.Answer
		if answer == "" {
			answer = "No Answer"
		}
		t.LastRound = &domain.RoundResult{Answer: answer, Correct: correct, Points: points}

		t.clearAnswer()
		s.publishTeamLocked(t)
	}

	s.rounds++
	s.publishRoundCounterLocked()

	for _, t := range s.teams.All() {
		if t.Number > s.teamCount || !t.Participating {
			continue
		}
		s.highscore.Update(t.Name, t.Points, s.rounds)
	}
}

func (s *GameService) tallyCorrectLocked(userID string) {
	tally, ok := s.userStats[userID]
	if !ok {
		s.tallySeq++
		tally = &userTally{firstSeq: s.tallySeq}
		s.userStats[userID] = tally
	}
	tally.correct++
}
