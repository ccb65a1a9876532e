package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"home-trivia-service/internal/app"
	"home-trivia-service/internal/domain"
	"home-trivia-service/internal/infra/file"
	"home-trivia-service/internal/infra/memory"
	"github.com/gorilla/websocket"
)

func newTestServer(t *testing.T) (*httptest.Server, *app.GameService, *app.Board) {
	t.Helper()
	board := app.NewBoard(nil)
	bank := memory.NewQuestionBank(file.NewStaticCatalog([]domain.Question{
		{ID: 1, Category: "Science", Question: "?", CorrectAnswer: "B", DifficultyLevel: domain.DifficultyEasy},
	}), time.Minute)
	game := app.NewGameService(app.Deps{
		Board:        board,
		Bank:         bank,
		Defaults:     app.Defaults{TeamCount: 2, Difficulty: domain.DifficultyEasy, TimerLength: 30},
		TickInterval: time.Hour,
	})
	t.Cleanup(game.Close)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", NewWSHandler(game, board).ServeWS)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, game, board
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readNext(conn *websocket.Conn, t *testing.T) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	return msg.Type, msg.Payload
}

func TestWebSocketSnapshotAndCommandFlow(t *testing.T) {
	server, game, _ := newTestServer(t)
	conn := dial(t, server)

	// First frame is the full board snapshot.
	msgType, payload := readNext(conn, t)
	if msgType != "snapshot" {
		t.Fatalf("expected snapshot first, got %s", msgType)
	}
	if _, ok := payload["game_status"]; !ok {
		t.Fatalf("expected game_status in snapshot, got %v", payload)
	}

	if err := conn.WriteJSON(map[string]any{"type": "start_game"}); err != nil {
		t.Fatalf("write start_game: %v", err)
	}

	// State frames follow until the game status flips to playing.
	deadline := time.Now().Add(5 * time.Second)
	for {
		if time.Now().After(deadline) {
			t.Fatal("never observed the playing state")
		}
		msgType, payload = readNext(conn, t)
		if msgType != "state" {
			continue
		}
		if payload["entity_id"] == "game_status" {
			state, _ := payload["state"].(map[string]any)
			if state != nil && state["state"] == "playing" {
				break
			}
		}
	}

	if game.State() != domain.GamePlaying {
		t.Fatalf("expected the service playing, got %s", game.State())
	}
}

func TestWebSocketTeamCommands(t *testing.T) {
	server, game, _ := newTestServer(t)
	conn := dial(t, server)
	readNext(conn, t) // snapshot

	if err := conn.WriteJSON(map[string]any{
		"type":    "update_team_name",
		"payload": map[string]any{"team_id": "team_1", "name": "The Owls"},
	}); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		if time.Now().After(deadline) {
			t.Fatal("never observed the renamed team")
		}
		team, ok := game.Team(1)
		if ok && team.Name == "The Owls" {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWebSocketRejectsInvalidCommand(t *testing.T) {
	server, game, _ := newTestServer(t)
	conn := dial(t, server)
	readNext(conn, t) // snapshot

	if err := conn.WriteJSON(map[string]any{"type": "explode"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	for {
		msgType, payload := readNext(conn, t)
		if msgType != "error" {
			continue
		}
		if payload["message"] == "" {
			t.Fatalf("expected an error message, got %v", payload)
		}
		break
	}

	// A malformed team id must also be rejected without touching state.
	if err := conn.WriteJSON(map[string]any{
		"type":    "update_team_points",
		"payload": map[string]any{"team_id": "banana", "points": 99},
	}); err != nil {
		t.Fatalf("write: %v", err)
	}
	for {
		msgType, _ := readNext(conn, t)
		if msgType == "error" {
			break
		}
	}
	team, _ := game.Team(1)
	if team.Points != 0 {
		t.Fatalf("expected points untouched, got %d", team.Points)
	}
}

func TestWebSocketSettingsCommands(t *testing.T) {
	server, game, board := newTestServer(t)
	conn := dial(t, server)
	readNext(conn, t) // snapshot

	commands := []map[string]any{
		{"type": "update_difficulty_level", "payload": map[string]any{"difficulty_level": "Hard"}},
		{"type": "update_team_count", "payload": map[string]any{"team_count": 4}},
		{"type": "update_countdown_timer_length", "payload": map[string]any{"timer_length": 45}},
	}
	for _, cmd := range commands {
		if err := conn.WriteJSON(cmd); err != nil {
			t.Fatalf("write %v: %v", cmd["type"], err)
		}
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		if time.Now().After(deadline) {
			t.Fatal("settings never applied")
		}
		st, _ := board.Get(app.EntityGameStatus)
		if st.Attributes["team_count"] == 4 &&
			st.Attributes["difficulty_level"] == "Hard" &&
			st.Attributes["timer_length"] == 45 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	game.StartGame(context.Background())
	team4, _ := game.Team(4)
	team5, _ := game.Team(5)
	if !team4.Participating || team5.Participating {
		t.Fatalf("expected four participating teams, got team4=%v team5=%v", team4.Participating, team5.Participating)
	}
}

func TestEnqueueGivesUpWhenWriterGone(t *testing.T) {
	send := make(chan outboundMessage[any], 1)
	writerDone := make(chan struct{})

	if !enqueue(send, writerDone, outboundMessage[any]{Type: "state"}) {
		t.Fatal("expected enqueue with buffer room to succeed")
	}

	// Buffer full and the writer gone: enqueue must give up, not block.
	close(writerDone)
	done := make(chan bool, 1)
	go func() {
		done <- enqueue(send, writerDone, outboundMessage[any]{Type: "state"})
	}()
	select {
	case ok := <-done:
		if ok {
			t.Fatal("expected enqueue to report the dead writer")
		}
	case <-time.After(time.Second):
		t.Fatal("enqueue blocked on a dead writer")
	}
}
