package entity

import (
	"fmt"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
)

const (
	RoomPlaying  = "playing"
	RoomFinished = "finished"
)

// Outcome is the effect of an accepted move on the room.
type Outcome int

const (
	OutcomeContinue Outcome = iota
	OutcomeWin
	OutcomeDraw
)

// Room is one live game between two players. Players[0] holds Black and moves first.
type Room struct {
	ID       string    `json:"id"`
	Players  [2]string `json:"players"`
	Board    *Board    `json:"-"`
	Turn     string    `json:"turn"`
	Status   string    `json:"status"`
	Winner   string    `json:"winner,omitempty"`
	LastMove *Position `json:"last_move,omitempty"`
}

func NewRoom(id, blackID, whiteID string) *Room {
	return &Room{
		ID:      id,
		Players: [2]string{blackID, whiteID},
		Board:   NewBoard(),
		Turn:    blackID,
		Status:  RoomPlaying,
	}
}

func (that *Room) IsPlaying() bool {
	return that.Status == RoomPlaying
}

func (that *Room) IsFinished() bool {
	return that.Status == RoomFinished
}

func (that *Room) HasPlayer(playerID string) bool {
	return that.Players[0] == playerID || that.Players[1] == playerID
}

// MarkOf returns the mark assigned to a member, Empty for strangers.
func (that *Room) MarkOf(playerID string) Mark {
	switch playerID {
	case that.Players[0]:
		return Black
	case that.Players[1]:
		return White
	default:
		return Empty
	}
}

// Opponent returns the other member's id.
func (that *Room) Opponent(playerID string) string {
	if that.Players[0] == playerID {
		return that.Players[1]
	}
	return that.Players[0]
}

// MakeMove validates and applies one move. A rejected move leaves the room untouched.
func (that *Room) MakeMove(playerID string, pos Position) (Outcome, error) {
	if !that.IsPlaying() {
		return OutcomeContinue, apperror.ErrGameFinished
	}

	if !that.HasPlayer(playerID) {
		return OutcomeContinue, fmt.Errorf("%w: %s", apperror.ErrNotRoomMember, playerID)
	}

	if that.Turn != playerID {
		return OutcomeContinue, apperror.ErrNotYourTurn
	}

	mark := that.MarkOf(playerID)
	if err := that.Board.Place(pos, mark); err != nil {
		return OutcomeContinue, err
	}

	that.LastMove = &pos
	that.Turn = that.Opponent(playerID)

	if that.Board.CheckWin(pos, mark) {
		that.Status = RoomFinished
		that.Winner = playerID
		that.Turn = ""
		return OutcomeWin, nil
	}

	if that.Board.IsFull() {
		that.Status = RoomFinished
		that.Turn = ""
		return OutcomeDraw, nil
	}

	return OutcomeContinue, nil
}

// Abandon finishes the room because playerID left; the opponent is recorded as winner.
func (that *Room) Abandon(playerID string) {
	if !that.IsPlaying() {
		return
	}
	that.Status = RoomFinished
	that.Winner = that.Opponent(playerID)
	that.Turn = ""
}
