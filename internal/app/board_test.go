package app_test

import (
	"context"
	"errors"
	"testing"

	"home-trivia-service/internal/app"
	"home-trivia-service/internal/domain"
)

func TestBoardPublishAndSnapshot(t *testing.T) {
	board := app.NewBoard(nil)

	board.Publish("round_counter", domain.EntityState{State: "1"})
	board.Publish("round_counter", domain.EntityState{State: "2"})

	st, ok := board.Get("round_counter")
	if !ok || st.State != "2" {
		t.Fatalf("expected latest value 2, got %+v ok=%v", st, ok)
	}

	snapshot := board.Snapshot()
	if len(snapshot) != 1 || snapshot["round_counter"].State != "2" {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}
}

func TestBoardSubscribeReceivesUpdates(t *testing.T) {
	board := app.NewBoard(nil)
	updates, cancel := board.Subscribe()
	defer cancel()

	board.Publish("game_status", domain.EntityState{State: "playing"})

	update := <-updates
	if update.EntityID != "game_status" || update.State.State != "playing" {
		t.Fatalf("unexpected update: %+v", update)
	}
}

func TestBoardSlowSubscriberDropsOldest(t *testing.T) {
	board := app.NewBoard(nil)
	updates, cancel := board.Subscribe()
	defer cancel()

	// Overflow the buffer without draining; the board must not block.
	for i := 0; i < 100; i++ {
		board.Publish("round_counter", domain.EntityState{State: "x"})
	}
	board.Publish("round_counter", domain.EntityState{State: "latest"})

	var last app.StateUpdate
	for {
		select {
		case update := <-updates:
			last = update
			continue
		default:
		}
		break
	}
	if last.State.State != "latest" {
		t.Fatalf("expected the newest update to survive, got %+v", last)
	}
}

type failingPersister struct{}

func (failingPersister) Save(context.Context, string, domain.EntityState) error {
	return errors.New("store down")
}

func (failingPersister) Load(context.Context) (map[string]domain.EntityState, error) {
	return nil, errors.New("store down")
}

func TestBoardPublishSurvivesPersisterFailure(t *testing.T) {
	board := app.NewBoard(failingPersister{})

	board.Publish("game_status", domain.EntityState{State: "ready"})

	st, ok := board.Get("game_status")
	if !ok || st.State != "ready" {
		t.Fatalf("expected publish to succeed despite persister, got %+v ok=%v", st, ok)
	}
}
