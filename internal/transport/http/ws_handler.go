package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"home-trivia-service/internal/app"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	game     *app.GameService
	board    *app.Board
	upgrader websocket.Upgrader
}

func NewWSHandler(game *app.GameService, board *app.Board) *WSHandler {
	return &WSHandler{
		game:  game,
		board: board,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type teamPayload struct {
	TeamID        string  `json:"team_id"`
	Name          string  `json:"name"`
	Points        float64 `json:"points"`
	Participating bool    `json:"participating"`
	Answer        string  `json:"answer"`
	UserID        string  `json:"user_id"`
}

type settingsPayload struct {
	DifficultyLevel string `json:"difficulty_level"`
	TeamCount       int    `json:"team_count"`
	TimerLength     int    `json:"timer_length"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the connection, sends a full board snapshot, then streams
// state updates while dispatching game commands from the client.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.board.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: update}:
				case <-writerDone:
					return
				case <-closeSignals:
					return
				}
			case <-writerDone:
				return
			case <-closeSignals:
				return
			}
		}
	}()

	// Every send races against writer death: a dead writer stops draining
	// the channel, and an unconditional send would wedge this goroutine.
	if enqueue(send, writerDone, outboundMessage[any]{Type: "snapshot", Payload: h.board.Snapshot()}) {
		for {
			var inbound inboundMessage
			if err := conn.ReadJSON(&inbound); err != nil {
				break
			}
			if err := h.dispatch(r.Context(), inbound); err != nil {
				log.Printf("ws command %q rejected: %v", inbound.Type, err)
				if !enqueue(send, writerDone, outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}) {
					break
				}
			}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// enqueue queues an outbound message unless the writer goroutine has exited.
func enqueue(send chan<- outboundMessage[any], writerDone <-chan struct{}, msg outboundMessage[any]) bool {
	select {
	case send <- msg:
		return true
	case <-writerDone:
		return false
	}
}

func (h *WSHandler) dispatch(ctx context.Context, msg inboundMessage) error {
	switch msg.Type {
	case "start_game":
		h.game.StartGame(ctx)
		return nil
	case "stop_game":
		h.game.StopGame(ctx)
		return nil
	case "reset_game":
		h.game.ResetGame(ctx)
		return nil
	case "next_question":
		h.game.NextQuestion(ctx)
		return nil
	case "update_team_name":
		payload, team, err := decodeTeamPayload(msg.Payload)
		if err != nil {
			return err
		}
		return h.game.UpdateTeamName(team, payload.Name)
	case "update_team_points":
		payload, team, err := decodeTeamPayload(msg.Payload)
		if err != nil {
			return err
		}
		return h.game.UpdateTeamPoints(team, int(payload.Points))
	case "update_team_participating":
		payload, team, err := decodeTeamPayload(msg.Payload)
		if err != nil {
			return err
		}
		return h.game.UpdateTeamParticipating(team, payload.Participating)
	case "update_team_answer":
		payload, team, err := decodeTeamPayload(msg.Payload)
		if err != nil {
			return err
		}
		return h.game.UpdateTeamAnswer(team, payload.Answer)
	case "update_team_user_id":
		payload, team, err := decodeTeamPayload(msg.Payload)
		if err != nil {
			return err
		}
		return h.game.UpdateTeamUserID(team, payload.UserID)
	case "update_difficulty_level":
		var payload settingsPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return err
		}
		return h.game.UpdateDifficulty(payload.DifficultyLevel)
	case "update_team_count":
		var payload settingsPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return err
		}
		return h.game.UpdateTeamCount(payload.TeamCount)
	case "update_countdown_timer_length":
		var payload settingsPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return err
		}
		return h.game.UpdateTimerLength(payload.TimerLength)
	default:
		return errUnsupportedCommand(msg.Type)
	}
}

func decodeTeamPayload(raw json.RawMessage) (teamPayload, int, error) {
	var payload teamPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return payload, 0, err
	}
	team, err := parseTeamID(payload.TeamID)
	if err != nil {
		return payload, 0, err
	}
	return payload, team, nil
}

// parseTeamID extracts the team number from ids like "team_3".
func parseTeamID(id string) (int, error) {
	idx := strings.LastIndex(id, "_")
	if idx < 0 {
		return 0, &commandError{message: "invalid team id: " + id}
	}
	n, err := strconv.Atoi(id[idx+1:])
	if err != nil {
		return 0, &commandError{message: "invalid team id: " + id}
	}
	return n, nil
}

type commandError struct {
	message string
}

func (e *commandError) Error() string { return e.message }

func errUnsupportedCommand(kind string) error {
	return &commandError{message: "unsupported command type: " + kind}
}
