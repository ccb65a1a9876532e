package app

import (
	"context"
	"log"
	"sync"

	"home-trivia-service/internal/domain"
)

// Entity ids published on the board.
const (
	EntityGameStatus       = "game_status"
	EntityCountdownTimer   = "countdown_timer"
	EntityCountdownCurrent = "countdown_current"
	EntityCurrentQuestion  = "current_question"
	EntityRoundCounter     = "round_counter"
	EntityPlayedQuestions  = "played_questions"
	EntityHighscore        = "highscore"
	// Team entities are "team_1".."team_5", built with TeamEntityID.
)

// Persister stores the last published value of every entity so a restarted
// process can re-derive its observable state.
type Persister interface {
	Save(ctx context.Context, entityID string, state domain.EntityState) error
	Load(ctx context.Context) (map[string]domain.EntityState, error)
}

// StateUpdate is one board change delivered to subscribers.
type StateUpdate struct {
	EntityID string             `json:"entity_id"`
	State    domain.EntityState `json:"state"`
}

// Board holds the observable state surface: the latest value of every
// entity, fanned out to subscribers and written through to an optional
// persister.
type Board struct {
	persister Persister

	mu          sync.RWMutex
	entities    map[string]domain.EntityState
	subscribers map[chan StateUpdate]struct{}
}

func NewBoard(persister Persister) *Board {
	return &Board{
		persister:   persister,
		entities:    make(map[string]domain.EntityState),
		subscribers: make(map[chan StateUpdate]struct{}),
	}
}

// Publish records the latest state of an entity and notifies subscribers.
// Persistence is best effort; a failing persister never blocks the game.
func (b *Board) Publish(entityID string, state domain.EntityState) {
	b.mu.Lock()
	b.entities[entityID] = state
	update := StateUpdate{EntityID: entityID, State: state}
	for ch := range b.subscribers {
		select {
		case ch <- update:
		default:
			// Drop the oldest update so a slow subscriber cannot block the game.
			select {
			case <-ch:
			default:
			}
			ch <- update
		}
	}
	b.mu.Unlock()

	if b.persister != nil {
		if err := b.persister.Save(context.Background(), entityID, state); err != nil {
			log.Printf("persist %s: %v", entityID, err)
		}
	}
}

// Get returns the latest published state of an entity.
func (b *Board) Get(entityID string) (domain.EntityState, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	state, ok := b.entities[entityID]
	return state, ok
}

// Snapshot returns a copy of every published entity state.
func (b *Board) Snapshot() map[string]domain.EntityState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	snapshot := make(map[string]domain.EntityState, len(b.entities))
	for id, state := range b.entities {
		snapshot[id] = state
	}
	return snapshot
}

// Subscribe returns a channel receiving every subsequent publish. The caller
// must invoke the returned cancel function to avoid leaks.
func (b *Board) Subscribe() (<-chan StateUpdate, func()) {
	ch := make(chan StateUpdate, 32)

	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subscribers[ch]; ok {
			delete(b.subscribers, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}
