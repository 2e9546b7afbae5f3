package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
)

const (
	TypeConnect      = "connect"
	TypeMatch        = "match"
	TypeMatched      = "matched"
	TypeMove         = "move"
	TypeGameOver     = "game_over"
	TypeQuit         = "quit"
	TypeOpponentQuit = "opponent_quit"
)

var knownTypes = map[string]struct{}{
	TypeConnect:      {},
	TypeMatch:        {},
	TypeMatched:      {},
	TypeMove:         {},
	TypeGameOver:     {},
	TypeQuit:         {},
	TypeOpponentQuit: {},
}

// Message is one wire object in either direction. Fields unused by a type are omitted.
type Message struct {
	Type         string  `json:"type"`
	PlayerID     string  `json:"player_id,omitempty"`
	RoomID       string  `json:"room_id,omitempty"`
	OpponentID   string  `json:"opponent_id,omitempty"`
	PlayerNumber int     `json:"player_number,omitempty"`
	Col          *int    `json:"col,omitempty"`
	Row          *int    `json:"row,omitempty"`
	Winner       *string `json:"winner,omitempty"`
	WinnerNumber *int    `json:"winner_number,omitempty"`
	Draw         bool    `json:"draw,omitempty"`
}

func Connect(playerID string) Message {
	return Message{Type: TypeConnect, PlayerID: playerID}
}

func Match() Message {
	return Message{Type: TypeMatch}
}

func Matched(roomID string, playerNumber int, opponentID string) Message {
	return Message{Type: TypeMatched, RoomID: roomID, PlayerNumber: playerNumber, OpponentID: opponentID}
}

// MoveRequest is the client's move intent.
func MoveRequest(col, row int) Message {
	return Message{Type: TypeMove, Col: &col, Row: &row}
}

// MoveBroadcast is the accepted move sent to both room members.
func MoveBroadcast(playerID string, col, row, playerNumber int) Message {
	return Message{Type: TypeMove, PlayerID: playerID, Col: &col, Row: &row, PlayerNumber: playerNumber}
}

func GameOver(winner string, winnerNumber int) Message {
	return Message{Type: TypeGameOver, Winner: &winner, WinnerNumber: &winnerNumber}
}

// Draw signals a concluded room without a winner.
func Draw() Message {
	winner, number := "", 0
	return Message{Type: TypeGameOver, Winner: &winner, WinnerNumber: &number, Draw: true}
}

func Quit() Message {
	return Message{Type: TypeQuit}
}

func OpponentQuit() Message {
	return Message{Type: TypeOpponentQuit}
}

// Cell returns the move coordinates. ok is false when either is missing.
func (that Message) Cell() (int, int, bool) {
	if that.Col == nil || that.Row == nil {
		return 0, 0, false
	}
	return *that.Col, *that.Row, true
}

// WinnerNumberOrZero returns the winner number of a game_over message, 0 when absent.
func (that Message) WinnerNumberOrZero() int {
	if that.WinnerNumber == nil {
		return 0
	}
	return *that.WinnerNumber
}

func Encode(msg Message) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}
	return data, nil
}

// Decode parses one wire object. Malformed payloads wrap ErrProtocolViolation,
// unknown discriminators wrap ErrUnknownMessage.
func Decode(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrProtocolViolation, err)
	}

	if msg.Type == "" {
		return nil, fmt.Errorf("%w: missing type", apperror.ErrProtocolViolation)
	}

	if _, ok := knownTypes[msg.Type]; !ok {
		return nil, fmt.Errorf("%w: %q", apperror.ErrUnknownMessage, msg.Type)
	}

	if msg.Type == TypeMove {
		if _, _, ok := msg.Cell(); !ok {
			return nil, fmt.Errorf("%w: move without col and row", apperror.ErrProtocolViolation)
		}
	}

	return &msg, nil
}
