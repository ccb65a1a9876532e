package redis

import (
	"context"
	"testing"

	"home-trivia-service/internal/domain"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestStateStoreSaveAndLoad(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewStateStore(newClient(mr))
	ctx := context.Background()

	if err := store.Save(ctx, "game_status", domain.EntityState{
		State:      "playing",
		Attributes: map[string]any{"team_count": 3},
	}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Save(ctx, "round_counter", domain.EntityState{State: "4"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	states, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(states) != 2 {
		t.Fatalf("expected 2 entities, got %d", len(states))
	}
	if states["game_status"].State != "playing" {
		t.Fatalf("unexpected game status: %+v", states["game_status"])
	}
	if states["round_counter"].State != "4" {
		t.Fatalf("unexpected round counter: %+v", states["round_counter"])
	}
}

func TestStateStoreLoadSkipsMalformedEntries(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	mr.HSet(stateHashKey, "broken", "{not json")
	mr.HSet(stateHashKey, "round_counter", `{"state":"2"}`)

	store := NewStateStore(newClient(mr))
	states, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(states) != 1 {
		t.Fatalf("expected the broken entry skipped, got %d entities", len(states))
	}
	if states["round_counter"].State != "2" {
		t.Fatalf("unexpected round counter: %+v", states["round_counter"])
	}
}

func TestStateStoreClear(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewStateStore(newClient(mr))
	ctx := context.Background()

	if err := store.Save(ctx, "round_counter", domain.EntityState{State: "1"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}

	states, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(states) != 0 {
		t.Fatalf("expected empty store, got %d entities", len(states))
	}
}
