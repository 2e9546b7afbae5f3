package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/pkg"
	"github.com/rocketscienceinc/gomoku-backend/internal/protocol"
)

// Peer delivers server messages to one connection. Send must not block.
type Peer interface {
	Send(msg protocol.Message)
}

type resultRecorder interface {
	Save(ctx context.Context, result *entity.Result) error
}

type member struct {
	player *entity.Player
	peer   Peer
}

// Stats is a point-in-time count of the manager's tables.
type Stats struct {
	Players int `json:"players"`
	Waiting int `json:"waiting"`
	Rooms   int `json:"rooms"`
}

// GameManager owns the player registry, the matchmaking queue and the room table.
// One mutex guards all three; messages are handed to peers while it is held so
// each connection observes events in the order they happened.
type GameManager struct {
	logger   *slog.Logger
	recorder resultRecorder
	now      func() time.Time

	mu      sync.Mutex
	members map[string]*member
	queue   *Queue
	rooms   map[string]*entity.Room
}

func NewGameManager(logger *slog.Logger, recorder resultRecorder) *GameManager {
	return &GameManager{
		logger:   logger.With("component", "game_manager"),
		recorder: recorder,
		now:      time.Now,

		members: make(map[string]*member),
		queue:   NewQueue(),
		rooms:   make(map[string]*entity.Room),
	}
}

// Connect registers a new connection and confirms its identity before anything else is sent to it.
func (that *GameManager) Connect(peer Peer) string {
	playerID := pkg.GenerateNewPlayerID()

	that.mu.Lock()
	defer that.mu.Unlock()

	that.members[playerID] = &member{
		player: entity.NewPlayer(playerID),
		peer:   peer,
	}
	peer.Send(protocol.Connect(playerID))

	that.logger.Info("player connected", "playerID", playerID)

	return playerID
}

// Match enqueues the player and pairs the two oldest waiters while possible.
func (that *GameManager) Match(_ context.Context, playerID string) error {
	log := that.logger.With("method", "Match", "playerID", playerID)

	that.mu.Lock()
	defer that.mu.Unlock()

	m, ok := that.members[playerID]
	if !ok {
		return fmt.Errorf("%w: %s", apperror.ErrPlayerNotFound, playerID)
	}

	if m.player.IsPlaying() {
		return fmt.Errorf("%w: %s", apperror.ErrAlreadyInRoom, m.player.RoomID)
	}

	if that.queue.Enqueue(playerID) {
		m.player.Wait()
		log.Debug("player queued", "waiting", that.queue.Len())
	}

	for {
		blackID, whiteID, ok := that.queue.PopPair()
		if !ok {
			break
		}
		that.openRoomLocked(blackID, whiteID)
	}

	return nil
}

func (that *GameManager) openRoomLocked(blackID, whiteID string) {
	log := that.logger.With("method", "openRoom")

	black, white := that.members[blackID], that.members[whiteID]

	room := entity.NewRoom(pkg.GenerateRoomID(), blackID, whiteID)
	that.rooms[room.ID] = room

	black.player.Seat(room.ID, entity.Black)
	white.player.Seat(room.ID, entity.White)

	black.peer.Send(protocol.Matched(room.ID, entity.Black.Number(), whiteID))
	white.peer.Send(protocol.Matched(room.ID, entity.White.Number(), blackID))

	log.Info("room opened", "roomID", room.ID, "black", blackID, "white", whiteID)
}

// MakeMove submits a move to the room the player is seated in.
func (that *GameManager) MakeMove(ctx context.Context, playerID string, pos entity.Position) error {
	that.mu.Lock()

	m, ok := that.members[playerID]
	if !ok {
		that.mu.Unlock()
		return fmt.Errorf("%w: %s", apperror.ErrPlayerNotFound, playerID)
	}

	result, err := that.submitLocked(m.player.RoomID, playerID, pos)
	that.mu.Unlock()

	if err != nil {
		return err
	}

	that.record(ctx, result)

	return nil
}

// SubmitMove applies a move to a specific room. The turn check, placement and
// win detection happen under one lock, so of two racing submissions at most one is accepted.
func (that *GameManager) SubmitMove(ctx context.Context, roomID, playerID string, pos entity.Position) error {
	that.mu.Lock()
	result, err := that.submitLocked(roomID, playerID, pos)
	that.mu.Unlock()

	if err != nil {
		return err
	}

	that.record(ctx, result)

	return nil
}

func (that *GameManager) submitLocked(roomID, playerID string, pos entity.Position) (*entity.Result, error) {
	log := that.logger.With("method", "submitMove", "playerID", playerID, "roomID", roomID)

	room, ok := that.rooms[roomID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperror.ErrRoomNotFound, roomID)
	}

	outcome, err := room.MakeMove(playerID, pos)
	if err != nil {
		return nil, fmt.Errorf("move rejected: %w", err)
	}

	mark := room.MarkOf(playerID)
	that.broadcastLocked(room, protocol.MoveBroadcast(playerID, pos.Col, pos.Row, mark.Number()))

	switch outcome {
	case entity.OutcomeWin:
		log.Info("room won", "winner", playerID)
		that.broadcastLocked(room, protocol.GameOver(playerID, mark.Number()))
		return that.closeRoomLocked(room, entity.ReasonFive), nil
	case entity.OutcomeDraw:
		log.Info("room drawn")
		that.broadcastLocked(room, protocol.Draw())
		return that.closeRoomLocked(room, entity.ReasonDraw), nil
	default:
		return nil, nil
	}
}

// Quit cancels a pending match request or forfeits the player's room.
func (that *GameManager) Quit(ctx context.Context, playerID string) error {
	that.mu.Lock()

	m, ok := that.members[playerID]
	if !ok {
		that.mu.Unlock()
		return fmt.Errorf("%w: %s", apperror.ErrPlayerNotFound, playerID)
	}

	result := that.leaveLocked(m, entity.ReasonQuit)
	that.mu.Unlock()

	that.record(ctx, result)

	return nil
}

// Disconnect runs the cleanup for a closed connection. Repeated calls are no-ops.
func (that *GameManager) Disconnect(ctx context.Context, playerID string) {
	that.mu.Lock()

	m, ok := that.members[playerID]
	if !ok {
		that.mu.Unlock()
		return
	}

	result := that.leaveLocked(m, entity.ReasonDisconnect)
	delete(that.members, playerID)
	that.mu.Unlock()

	that.logger.Info("player disconnected", "playerID", playerID)

	that.record(ctx, result)
}

func (that *GameManager) leaveLocked(m *member, reason string) *entity.Result {
	log := that.logger.With("method", "leave", "playerID", m.player.ID)

	if m.player.IsWaiting() {
		that.queue.Remove(m.player.ID)
		m.player.Release()
		log.Debug("match request cancelled")
		return nil
	}

	room, ok := that.rooms[m.player.RoomID]
	if !ok {
		m.player.Release()
		return nil
	}

	room.Abandon(m.player.ID)

	if opponent, ok := that.members[room.Opponent(m.player.ID)]; ok {
		opponent.peer.Send(protocol.OpponentQuit())
	}

	log.Info("room abandoned", "roomID", room.ID, "reason", reason)

	return that.closeRoomLocked(room, reason)
}

// closeRoomLocked releases both members and removes the room.
func (that *GameManager) closeRoomLocked(room *entity.Room, reason string) *entity.Result {
	for _, playerID := range room.Players {
		if m, ok := that.members[playerID]; ok && m.player.RoomID == room.ID {
			m.player.Release()
		}
	}

	delete(that.rooms, room.ID)

	return entity.NewResult(room, reason, that.now())
}

func (that *GameManager) broadcastLocked(room *entity.Room, msg protocol.Message) {
	for _, playerID := range room.Players {
		if m, ok := that.members[playerID]; ok {
			m.peer.Send(msg)
		}
	}
}

func (that *GameManager) record(ctx context.Context, result *entity.Result) {
	if result == nil || that.recorder == nil {
		return
	}

	log := that.logger.With("method", "record", "roomID", result.RoomID)

	if err := that.recorder.Save(ctx, result); err != nil {
		log.Error("failed to save result", "error", err)
		return
	}

	log.Debug("result saved", "winner", result.Winner, "reason", result.Reason)
}

// Player returns a copy of the registered player.
func (that *GameManager) Player(playerID string) (entity.Player, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	m, ok := that.members[playerID]
	if !ok {
		return entity.Player{}, fmt.Errorf("%w: %s", apperror.ErrPlayerNotFound, playerID)
	}

	return *m.player, nil
}

// Room returns a copy of a live room including its board.
func (that *GameManager) Room(roomID string) (entity.Room, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	room, ok := that.rooms[roomID]
	if !ok {
		return entity.Room{}, fmt.Errorf("%w: %q", apperror.ErrRoomNotFound, roomID)
	}

	snapshot := *room
	snapshot.Board = room.Board.Clone()

	return snapshot, nil
}

func (that *GameManager) Snapshot() Stats {
	that.mu.Lock()
	defer that.mu.Unlock()

	return Stats{
		Players: len(that.members),
		Waiting: that.queue.Len(),
		Rooms:   len(that.rooms),
	}
}
