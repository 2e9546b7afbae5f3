package entity

const (
	PlayerIdle    = "idle"
	PlayerWaiting = "waiting"
	PlayerPlaying = "playing"
)

type Player struct {
	ID     string `json:"id"`
	RoomID string `json:"room_id,omitempty"`
	Status string `json:"status"`
	Mark   Mark   `json:"mark,omitempty"`
}

func NewPlayer(id string) *Player {
	return &Player{
		ID:     id,
		Status: PlayerIdle,
	}
}

func (that *Player) IsPlaying() bool {
	return that.Status == PlayerPlaying
}

func (that *Player) IsWaiting() bool {
	return that.Status == PlayerWaiting
}

// Wait marks the player as queued for a match.
func (that *Player) Wait() {
	that.RoomID = ""
	that.Status = PlayerWaiting
}

// Seat binds the player to a room with the given mark.
func (that *Player) Seat(roomID string, mark Mark) {
	that.RoomID = roomID
	that.Mark = mark
	that.Status = PlayerPlaying
}

// Release returns the player to Idle with no room binding.
func (that *Player) Release() {
	that.RoomID = ""
	that.Mark = Empty
	that.Status = PlayerIdle
}
