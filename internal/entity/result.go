package entity

import "time"

const (
	ReasonFive       = "five"
	ReasonDraw       = "draw"
	ReasonQuit       = "quit"
	ReasonDisconnect = "disconnect"
)

// Result is the summary of a concluded room.
type Result struct {
	RoomID     string    `json:"room_id"`
	Black      string    `json:"black"`
	White      string    `json:"white"`
	Winner     string    `json:"winner,omitempty"`
	Reason     string    `json:"reason"`
	Moves      int       `json:"moves"`
	FinishedAt time.Time `json:"finished_at"`
}

func NewResult(room *Room, reason string, finishedAt time.Time) *Result {
	return &Result{
		RoomID:     room.ID,
		Black:      room.Players[0],
		White:      room.Players[1],
		Winner:     room.Winner,
		Reason:     reason,
		Moves:      room.Board.Moves(),
		FinishedAt: finishedAt,
	}
}

func (that *Result) IsDraw() bool {
	return that.Winner == ""
}

// Loser returns the beaten player's id, empty on a draw.
func (that *Result) Loser() string {
	switch that.Winner {
	case that.Black:
		return that.White
	case that.White:
		return that.Black
	default:
		return ""
	}
}

// PlayerStats is the win/loss/draw tally of one player.
type PlayerStats struct {
	PlayerID string `json:"player_id"`
	Wins     int64  `json:"wins"`
	Losses   int64  `json:"losses"`
	Draws    int64  `json:"draws"`
}
