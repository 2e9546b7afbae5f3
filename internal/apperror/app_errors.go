package apperror

import "errors"

var (
	ErrIllegalMove  = errors.New("illegal move")
	ErrOutOfRange   = errors.New("position is out of range")
	ErrCellOccupied = errors.New("cell is already occupied")

	ErrGameFinished   = errors.New("game is already finished")
	ErrGameNotStarted = errors.New("game is not started")
	ErrNotYourTurn    = errors.New("it's not your turn")
	ErrNotRoomMember  = errors.New("player is not a member of the room")
	ErrAlreadyInRoom  = errors.New("player is already in a room")

	ErrPlayerNotFound = errors.New("player not found")
	ErrRoomNotFound   = errors.New("room not found")
	ErrResultNotFound = errors.New("result not found")

	ErrProtocolViolation = errors.New("protocol violation")
	ErrUnknownMessage    = errors.New("unknown message type")
	ErrConnectionLost    = errors.New("connection lost")
	ErrBindFailure       = errors.New("failed to bind listener")

	ErrNotConnected = errors.New("not connected to server")
	ErrNotMatched   = errors.New("not matched with an opponent")
)
