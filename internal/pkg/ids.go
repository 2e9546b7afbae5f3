package pkg

import (
	"strings"

	"github.com/google/uuid"
)

const roomIDLength = 8

// GenerateNewPlayerID - generates a unique identifier for a connected player.
func GenerateNewPlayerID() string {
	return uuid.NewString()
}

// GenerateRoomID - generates a short identifier for the room.
func GenerateRoomID() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "room_" + id[:roomIDLength]
}
