package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"home-trivia-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

const stateHashKey = "trivia:entities"

// StateStore persists the last published value of every observable entity
// in a Redis hash, so a restarted process can restore its state surface.
type StateStore struct {
	client *redis.Client
}

func NewStateStore(client *redis.Client) *StateStore {
	return &StateStore{client: client}
}

// Save stores one entity state as JSON under its entity id.
func (s *StateStore) Save(ctx context.Context, entityID string, state domain.EntityState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", entityID, err)
	}
	if err := s.client.HSet(ctx, stateHashKey, entityID, data).Err(); err != nil {
		return fmt.Errorf("save %s: %w", entityID, err)
	}
	return nil
}

// Load returns every persisted entity state. Malformed entries are skipped
// with a warning rather than failing the whole restore.
func (s *StateStore) Load(ctx context.Context) (map[string]domain.EntityState, error) {
	raw, err := s.client.HGetAll(ctx, stateHashKey).Result()
	if err != nil {
		return nil, fmt.Errorf("load entity states: %w", err)
	}
	states := make(map[string]domain.EntityState, len(raw))
	for entityID, data := range raw {
		var state domain.EntityState
		if err := json.Unmarshal([]byte(data), &state); err != nil {
			log.Printf("skipping malformed persisted state for %s: %v", entityID, err)
			continue
		}
		states[entityID] = state
	}
	return states, nil
}

// Clear drops all persisted entity states.
func (s *StateStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, stateHashKey).Err()
}
