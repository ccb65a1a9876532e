package app

import (
	"encoding/json"
	"log"
	"strconv"
	"strings"

	"home-trivia-service/internal/domain"
)

// Restore repopulates the engine from previously published entity states,
// typically loaded from the persister after a restart. Missing or malformed
// fields fall back to the value already in place; nothing here fails.
//
// The live countdown and the current question are deliberately not restored:
// a countdown cannot meaningfully resume across a restart, and a stale
// question would be scored against empty answers.
func (s *GameService) Restore(states map[string]domain.EntityState) {
	s.mu.Lock()

	if st, ok := states[EntityGameStatus]; ok {
		if state, valid := parseGameState(st.State); valid {
			s.state = state
		}
		if count, ok := attrInt(st.Attributes, "team_count"); ok && count >= 1 && count <= MaxTeams {
			s.teamCount = count
		}
		if raw, ok := attrString(st.Attributes, "difficulty_level"); ok {
			if level, valid := domain.ParseDifficulty(raw); valid {
				s.difficulty = level
			}
		}
		if length, ok := attrInt(st.Attributes, "timer_length"); ok && length > 0 {
			s.timerLength = length
		}
		log.Printf("restored game settings: %d teams, %s, %ds timer", s.teamCount, s.difficulty, s.timerLength)
	}

	if st, ok := states[EntityCountdownTimer]; ok {
		if length, err := strconv.Atoi(strings.TrimSpace(st.State)); err == nil && length > 0 {
			s.timerLength = length
		}
	}

	for _, t := range s.teams.All() {
		st, ok := states[TeamEntityID(t.Number)]
		if !ok {
			continue
		}
		if st.State != "" {
			t.Name = st.State
		}
		if points, ok := attrInt(st.Attributes, "points"); ok && points >= 0 {
			t.Points = points
		}
		if participating, ok := attrBool(st.Attributes, "participating"); ok {
			t.Participating = participating
		}
		if answer, ok := attrString(st.Attributes, "answer"); ok {
			t.Answer = answer
		}
		if answered, ok := attrBool(st.Attributes, "answered"); ok {
			t.Answered = answered
		}
		if streak, ok := attrInt(st.Attributes, "streak"); ok && streak >= 0 {
			t.Streak = streak
		}
		if userID, ok := attrString(st.Attributes, "user_id"); ok {
			t.UserID = userID
		}
		if answer, ok := attrString(st.Attributes, "last_round_answer"); ok {
			correct, _ := attrBool(st.Attributes, "last_round_correct")
			points, _ := attrInt(st.Attributes, "last_round_points")
			t.LastRound = &domain.RoundResult{Answer: answer, Correct: correct, Points: points}
		}
	}

	if st, ok := states[EntityRoundCounter]; ok {
		if rounds, err := strconv.Atoi(strings.TrimSpace(st.State)); err == nil && rounds >= 0 {
			s.rounds = rounds
		}
	}

	if st, ok := states[EntityPlayedQuestions]; ok {
		if ids, ok := attrIntSlice(st.Attributes, "played_question_ids"); ok {
			s.playedIDs = nil
			s.playedSet = make(map[int]struct{})
			for _, id := range ids {
				if _, seen := s.playedSet[id]; seen {
					continue
				}
				s.playedIDs = append(s.playedIDs, id)
				s.playedSet[id] = struct{}{}
			}
		}
	}

	s.publishAllLocked()
	s.mu.Unlock()

	if st, ok := states[EntityHighscore]; ok {
		record := domain.Highscore{}
		if name, ok := attrString(st.Attributes, "team_name"); ok {
			record.TeamName = name
		}
		if total, ok := attrInt(st.Attributes, "total_points"); ok {
			record.TotalPoints = total
		}
		if avg, ok := attrFloat(st.Attributes, "average_points"); ok {
			record.AveragePoints = avg
		}
		if rounds, ok := attrInt(st.Attributes, "total_rounds"); ok {
			record.RoundsPlayed = rounds
		}
		if record.RoundsPlayed > 0 || record.TeamName != "" {
			s.highscore.Restore(record)
		}
	}
}

func parseGameState(raw string) (domain.GameState, bool) {
	switch domain.GameState(raw) {
	case domain.GameReady, domain.GamePlaying, domain.GameStopped:
		return domain.GameState(raw), true
	}
	return "", false
}

// Attribute readers tolerate the types a JSON round-trip produces: numbers
// arrive as float64 or json.Number, booleans sometimes as strings.

func attrInt(attrs map[string]any, key string) (int, bool) {
	v, ok := attrs[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func attrFloat(attrs map[string]any, key string) (float64, bool) {
	v, ok := attrs[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f, true
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func attrBool(attrs map[string]any, key string) (bool, bool) {
	v, ok := attrs[key]
	if !ok {
		return false, false
	}
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		if parsed, err := strconv.ParseBool(strings.TrimSpace(b)); err == nil {
			return parsed, true
		}
	}
	return false, false
}

func attrString(attrs map[string]any, key string) (string, bool) {
	v, ok := attrs[key]
	if !ok || v == nil {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	return "", false
}

func attrIntSlice(attrs map[string]any, key string) ([]int, bool) {
	v, ok := attrs[key]
	if !ok {
		return nil, false
	}
	raw, ok := v.([]any)
	if !ok {
		if ints, ok := v.([]int); ok {
			return ints, true
		}
		return nil, false
	}
	ids := make([]int, 0, len(raw))
	for _, item := range raw {
		switch n := item.(type) {
		case int:
			ids = append(ids, n)
		case float64:
			ids = append(ids, int(n))
		case json.Number:
			if i, err := n.Int64(); err == nil {
				ids = append(ids, int(i))
			}
		}
	}
	return ids, true
}
