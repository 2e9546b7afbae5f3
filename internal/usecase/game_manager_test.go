package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/protocol"
)

var errRedisDown = errors.New("redis down")

type fakePeer struct {
	mu       sync.Mutex
	messages []protocol.Message
}

func (that *fakePeer) Send(msg protocol.Message) {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.messages = append(that.messages, msg)
}

func (that *fakePeer) OfType(msgType string) []protocol.Message {
	that.mu.Lock()
	defer that.mu.Unlock()

	var out []protocol.Message
	for _, msg := range that.messages {
		if msg.Type == msgType {
			out = append(out, msg)
		}
	}
	return out
}

func (that *fakePeer) Len() int {
	that.mu.Lock()
	defer that.mu.Unlock()
	return len(that.messages)
}

type mockRecorder struct {
	mock.Mock
}

func (that *mockRecorder) Save(ctx context.Context, result *entity.Result) error {
	args := that.Called(ctx, result)
	return args.Error(0)
}

func newTestManager(t *testing.T) (*GameManager, *mockRecorder) {
	t.Helper()
	recorder := &mockRecorder{}
	t.Cleanup(func() { recorder.AssertExpectations(t) })

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	return NewGameManager(logger, recorder), recorder
}

type seat struct {
	id   string
	peer *fakePeer
}

// matchedPair connects two players and pairs them; the first one plays Black.
func matchedPair(t *testing.T, manager *GameManager) (seat, seat, string) {
	t.Helper()
	ctx := context.Background()

	black := seat{peer: &fakePeer{}}
	white := seat{peer: &fakePeer{}}
	black.id = manager.Connect(black.peer)
	white.id = manager.Connect(white.peer)

	require.NoError(t, manager.Match(ctx, black.id))
	require.NoError(t, manager.Match(ctx, white.id))

	matched := black.peer.OfType(protocol.TypeMatched)
	require.Len(t, matched, 1)

	return black, white, matched[0].RoomID
}

func isResult(winner, reason string) interface{} {
	return mock.MatchedBy(func(result *entity.Result) bool {
		return result.Winner == winner && result.Reason == reason
	})
}

func TestGameManager_Connect(t *testing.T) {
	// Given: a manager
	manager, _ := newTestManager(t)
	peer := &fakePeer{}

	// When: a connection is registered
	playerID := manager.Connect(peer)

	// Then: the identity is confirmed first and the player is idle
	require.NotEmpty(t, playerID)
	require.Equal(t, 1, peer.Len())
	assert.Equal(t, protocol.Connect(playerID), peer.messages[0])

	player, err := manager.Player(playerID)
	require.NoError(t, err)
	assert.Equal(t, entity.PlayerIdle, player.Status)
	assert.Equal(t, Stats{Players: 1}, manager.Snapshot())
}

func TestGameManager_Match(t *testing.T) {
	ctx := context.Background()

	t.Run("Two waiting players are paired with complementary numbers", func(t *testing.T) {
		// Given: two connected players
		manager, _ := newTestManager(t)

		// When: both request a match
		black, white, roomID := matchedPair(t, manager)

		// Then: both receive matched with the same room and each other as opponent
		blackMatched := black.peer.OfType(protocol.TypeMatched)[0]
		whiteMatched := white.peer.OfType(protocol.TypeMatched)[0]

		assert.Equal(t, protocol.Matched(roomID, 1, white.id), blackMatched)
		assert.Equal(t, protocol.Matched(roomID, 2, black.id), whiteMatched)

		// And: the first one plays Black and holds the turn
		room, err := manager.Room(roomID)
		require.NoError(t, err)
		assert.Equal(t, black.id, room.Turn)
		assert.Equal(t, entity.Black, room.MarkOf(black.id))

		player, err := manager.Player(white.id)
		require.NoError(t, err)
		assert.Equal(t, entity.PlayerPlaying, player.Status)
		assert.Equal(t, roomID, player.RoomID)
		assert.Equal(t, entity.White, player.Mark)

		assert.Equal(t, Stats{Players: 2, Waiting: 0, Rooms: 1}, manager.Snapshot())
	})

	t.Run("Repeated match request keeps one queue entry", func(t *testing.T) {
		manager, _ := newTestManager(t)
		peer := &fakePeer{}
		playerID := manager.Connect(peer)

		require.NoError(t, manager.Match(ctx, playerID))
		require.NoError(t, manager.Match(ctx, playerID))

		assert.Equal(t, 1, manager.Snapshot().Waiting)
		assert.Empty(t, peer.OfType(protocol.TypeMatched))
	})

	t.Run("Seated player cannot queue", func(t *testing.T) {
		manager, _ := newTestManager(t)
		black, _, _ := matchedPair(t, manager)
		before := black.peer.Len()

		err := manager.Match(ctx, black.id)

		assert.ErrorIs(t, err, apperror.ErrAlreadyInRoom)
		assert.Equal(t, before, black.peer.Len())
		assert.Equal(t, 0, manager.Snapshot().Waiting)
	})

	t.Run("Unknown player", func(t *testing.T) {
		manager, _ := newTestManager(t)

		assert.ErrorIs(t, manager.Match(ctx, "ghost"), apperror.ErrPlayerNotFound)
	})

	t.Run("Third player waits for a fourth", func(t *testing.T) {
		manager, _ := newTestManager(t)
		matchedPair(t, manager)

		third := manager.Connect(&fakePeer{})
		require.NoError(t, manager.Match(ctx, third))

		assert.Equal(t, Stats{Players: 3, Waiting: 1, Rooms: 1}, manager.Snapshot())
	})
}

func TestGameManager_MakeMove(t *testing.T) {
	ctx := context.Background()

	t.Run("Out of turn move changes nothing, the turn holder then succeeds", func(t *testing.T) {
		// Given: a fresh room
		manager, _ := newTestManager(t)
		black, white, roomID := matchedPair(t, manager)

		// When: white moves first
		err := manager.MakeMove(ctx, white.id, entity.Center)

		// Then: the move is rejected with no broadcast and an empty board
		require.ErrorIs(t, err, apperror.ErrNotYourTurn)
		assert.Empty(t, black.peer.OfType(protocol.TypeMove))
		assert.Empty(t, white.peer.OfType(protocol.TypeMove))

		room, err := manager.Room(roomID)
		require.NoError(t, err)
		assert.Equal(t, 0, room.Board.Moves())

		// When: black plays the same cell
		require.NoError(t, manager.MakeMove(ctx, black.id, entity.Center))

		// Then: both members receive the broadcast
		expected := protocol.MoveBroadcast(black.id, 7, 7, 1)
		assert.Equal(t, []protocol.Message{expected}, black.peer.OfType(protocol.TypeMove))
		assert.Equal(t, []protocol.Message{expected}, white.peer.OfType(protocol.TypeMove))

		room, err = manager.Room(roomID)
		require.NoError(t, err)
		assert.Equal(t, entity.Black, room.Board.At(entity.Center))
		assert.Equal(t, white.id, room.Turn)
	})

	t.Run("Occupied and out of range cells are rejected", func(t *testing.T) {
		manager, _ := newTestManager(t)
		black, white, _ := matchedPair(t, manager)
		require.NoError(t, manager.MakeMove(ctx, black.id, entity.Center))

		err := manager.MakeMove(ctx, white.id, entity.Center)
		assert.ErrorIs(t, err, apperror.ErrCellOccupied)

		err = manager.MakeMove(ctx, white.id, entity.Position{Col: 15, Row: 0})
		assert.ErrorIs(t, err, apperror.ErrOutOfRange)

		assert.Len(t, white.peer.OfType(protocol.TypeMove), 1)
	})

	t.Run("Idle player has no room", func(t *testing.T) {
		manager, _ := newTestManager(t)
		playerID := manager.Connect(&fakePeer{})

		assert.ErrorIs(t, manager.MakeMove(ctx, playerID, entity.Center), apperror.ErrRoomNotFound)
	})

	t.Run("Stranger cannot submit to another room", func(t *testing.T) {
		manager, _ := newTestManager(t)
		_, _, roomID := matchedPair(t, manager)
		stranger := manager.Connect(&fakePeer{})

		err := manager.SubmitMove(ctx, roomID, stranger, entity.Center)

		assert.ErrorIs(t, err, apperror.ErrNotRoomMember)
	})

	t.Run("Five in a row ends the room", func(t *testing.T) {
		// Given: black has four on column seven
		manager, recorder := newTestManager(t)
		black, white, roomID := matchedPair(t, manager)
		for row := 7; row < 11; row++ {
			require.NoError(t, manager.MakeMove(ctx, black.id, entity.Position{Col: 7, Row: row}))
			require.NoError(t, manager.MakeMove(ctx, white.id, entity.Position{Col: 0, Row: row - 7}))
		}

		recorder.On("Save", mock.Anything, isResult(black.id, entity.ReasonFive)).Return(nil).Once()

		// When: black completes five
		require.NoError(t, manager.MakeMove(ctx, black.id, entity.Position{Col: 7, Row: 11}))

		// Then: both receive game_over naming black
		expected := protocol.GameOver(black.id, 1)
		assert.Equal(t, []protocol.Message{expected}, black.peer.OfType(protocol.TypeGameOver))
		assert.Equal(t, []protocol.Message{expected}, white.peer.OfType(protocol.TypeGameOver))

		// And: the room is gone and both players are idle
		_, err := manager.Room(roomID)
		assert.ErrorIs(t, err, apperror.ErrRoomNotFound)

		for _, id := range []string{black.id, white.id} {
			player, err := manager.Player(id)
			require.NoError(t, err)
			assert.Equal(t, entity.PlayerIdle, player.Status)
			assert.Empty(t, player.RoomID)
		}

		// And: further moves are rejected
		assert.ErrorIs(t, manager.MakeMove(ctx, white.id, entity.Center), apperror.ErrRoomNotFound)
	})

	t.Run("Full board without five is a draw", func(t *testing.T) {
		// Given: a cell order that never lines up more than two stones
		manager, recorder := newTestManager(t)
		black, white, _ := matchedPair(t, manager)

		var blackCells, whiteCells []entity.Position
		for col := 0; col < entity.BoardSize; col++ {
			for row := 0; row < entity.BoardSize; row++ {
				pos := entity.Position{Col: col, Row: row}
				if (col/2+row)%2 == 0 {
					blackCells = append(blackCells, pos)
				} else {
					whiteCells = append(whiteCells, pos)
				}
			}
		}
		require.Len(t, blackCells, len(whiteCells)+1)

		recorder.On("Save", mock.Anything, isResult("", entity.ReasonDraw)).Return(nil).Once()

		// When: both fill the board alternately
		for i, pos := range blackCells {
			require.NoError(t, manager.MakeMove(ctx, black.id, pos))
			if i < len(whiteCells) {
				require.NoError(t, manager.MakeMove(ctx, white.id, whiteCells[i]))
			}
		}

		// Then: a draw is signalled to both
		assert.Equal(t, []protocol.Message{protocol.Draw()}, black.peer.OfType(protocol.TypeGameOver))
		assert.Equal(t, []protocol.Message{protocol.Draw()}, white.peer.OfType(protocol.TypeGameOver))
		assert.Equal(t, 0, manager.Snapshot().Rooms)
	})

	t.Run("Racing submissions accept exactly one", func(t *testing.T) {
		// Given: black to move
		manager, _ := newTestManager(t)
		black, white, roomID := matchedPair(t, manager)

		// When: many moves from black race on distinct cells
		var (
			wg       sync.WaitGroup
			accepted atomic.Int32
		)
		for row := 0; row < entity.BoardSize; row++ {
			wg.Add(1)
			go func(row int) {
				defer wg.Done()
				if manager.MakeMove(ctx, black.id, entity.Position{Col: 3, Row: row}) == nil {
					accepted.Add(1)
				}
			}(row)
		}
		wg.Wait()

		// Then: exactly one was applied and broadcast
		assert.Equal(t, int32(1), accepted.Load())
		assert.Len(t, white.peer.OfType(protocol.TypeMove), 1)

		room, err := manager.Room(roomID)
		require.NoError(t, err)
		assert.Equal(t, 1, room.Board.Moves())
	})

	t.Run("Recorder failure does not fail the move", func(t *testing.T) {
		manager, recorder := newTestManager(t)
		black, white, _ := matchedPair(t, manager)
		for row := 0; row < 4; row++ {
			require.NoError(t, manager.MakeMove(ctx, black.id, entity.Position{Col: 1, Row: row}))
			require.NoError(t, manager.MakeMove(ctx, white.id, entity.Position{Col: 2, Row: row}))
		}

		recorder.On("Save", mock.Anything, mock.Anything).Return(errRedisDown).Once()

		assert.NoError(t, manager.MakeMove(ctx, black.id, entity.Position{Col: 1, Row: 4}))
	})
}

func TestGameManager_Quit(t *testing.T) {
	ctx := context.Background()

	t.Run("Quit mid-game notifies the opponent and removes the room", func(t *testing.T) {
		// Given: an active room
		manager, recorder := newTestManager(t)
		black, white, roomID := matchedPair(t, manager)
		require.NoError(t, manager.MakeMove(ctx, black.id, entity.Center))

		recorder.On("Save", mock.Anything, isResult(white.id, entity.ReasonQuit)).Return(nil).Once()

		// When: black quits
		require.NoError(t, manager.Quit(ctx, black.id))

		// Then: only white is told, the room is removed and both are idle
		assert.Len(t, white.peer.OfType(protocol.TypeOpponentQuit), 1)
		assert.Empty(t, black.peer.OfType(protocol.TypeOpponentQuit))

		_, err := manager.Room(roomID)
		assert.ErrorIs(t, err, apperror.ErrRoomNotFound)

		player, err := manager.Player(white.id)
		require.NoError(t, err)
		assert.Equal(t, entity.PlayerIdle, player.Status)

		// And: both can queue again
		require.NoError(t, manager.Match(ctx, white.id))
		require.NoError(t, manager.Match(ctx, black.id))
		assert.Len(t, white.peer.OfType(protocol.TypeMatched), 2)

		second := white.peer.OfType(protocol.TypeMatched)[1]
		assert.Equal(t, 1, second.PlayerNumber)
	})

	t.Run("Quit while waiting cancels the match request", func(t *testing.T) {
		manager, _ := newTestManager(t)
		playerID := manager.Connect(&fakePeer{})
		require.NoError(t, manager.Match(ctx, playerID))

		require.NoError(t, manager.Quit(ctx, playerID))

		assert.Equal(t, 0, manager.Snapshot().Waiting)
		player, err := manager.Player(playerID)
		require.NoError(t, err)
		assert.Equal(t, entity.PlayerIdle, player.Status)
	})

	t.Run("Quit while idle is a no-op", func(t *testing.T) {
		manager, _ := newTestManager(t)
		peer := &fakePeer{}
		playerID := manager.Connect(peer)

		require.NoError(t, manager.Quit(ctx, playerID))
		assert.Equal(t, 1, peer.Len())
	})
}

func TestGameManager_Disconnect(t *testing.T) {
	ctx := context.Background()

	t.Run("Disconnect of a seated player runs the quit path once", func(t *testing.T) {
		// Given: an active room
		manager, recorder := newTestManager(t)
		black, white, _ := matchedPair(t, manager)

		recorder.On("Save", mock.Anything, isResult(black.id, entity.ReasonDisconnect)).Return(nil).Once()

		// When: white's connection drops and the cleanup is triggered twice
		manager.Disconnect(ctx, white.id)
		manager.Disconnect(ctx, white.id)

		// Then: black is notified once and white is unregistered
		assert.Len(t, black.peer.OfType(protocol.TypeOpponentQuit), 1)
		assert.Equal(t, Stats{Players: 1, Waiting: 0, Rooms: 0}, manager.Snapshot())

		_, err := manager.Player(white.id)
		assert.ErrorIs(t, err, apperror.ErrPlayerNotFound)
	})

	t.Run("Disconnect of a waiting player leaves the queue", func(t *testing.T) {
		manager, _ := newTestManager(t)
		playerID := manager.Connect(&fakePeer{})
		require.NoError(t, manager.Match(ctx, playerID))

		manager.Disconnect(ctx, playerID)

		assert.Equal(t, Stats{}, manager.Snapshot())
	})

	t.Run("Without a recorder results are dropped", func(t *testing.T) {
		manager := NewGameManager(slog.New(slog.NewJSONHandler(io.Discard, nil)), nil)
		black, white, _ := matchedPair(t, manager)

		manager.Disconnect(ctx, black.id)

		assert.Len(t, white.peer.OfType(protocol.TypeOpponentQuit), 1)
	})
}
