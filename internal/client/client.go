package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/gomoku"
	"github.com/rocketscienceinc/gomoku-backend/internal/protocol"
)

const eventBuffer = 64

// Client is the player's side of the protocol. Server messages are delivered
// on Events; the UI loop applies them with Apply so game state only changes on its goroutine.
type Client struct {
	logger *slog.Logger
	conn   net.Conn
	reader *protocol.LineReader

	writeMu sync.Mutex

	mu           sync.Mutex
	connected    bool
	playerID     string
	roomID       string
	playerNumber int

	events chan protocol.Message
	closed chan struct{}
	once   sync.Once
}

// Dial connects to the server at addr and starts receiving.
func Dial(ctx context.Context, logger *slog.Logger, addr string, maxMessageSize int) (*Client, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrNotConnected, err)
	}

	client := &Client{
		logger:    logger.With("component", "client"),
		conn:      conn,
		reader:    protocol.NewLineReader(conn, maxMessageSize),
		connected: true,
		events:    make(chan protocol.Message, eventBuffer),
		closed:    make(chan struct{}),
	}

	go client.readLoop()

	return client, nil
}

func (that *Client) readLoop() {
	log := that.logger.With("method", "readLoop")

	defer close(that.events)
	defer that.markDisconnected()

	for {
		data, err := that.reader.Read()
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				log.Info("connection lost", "error", err)
			}
			return
		}

		msg, err := protocol.Decode(data)
		if err != nil {
			log.Debug("message dropped", "error", err)
			continue
		}

		that.track(msg)

		select {
		case that.events <- *msg:
		case <-that.closed:
			return
		}
	}
}

// track mirrors the match state the sender checks need.
func (that *Client) track(msg *protocol.Message) {
	that.mu.Lock()
	defer that.mu.Unlock()

	switch msg.Type {
	case protocol.TypeConnect:
		that.playerID = msg.PlayerID
	case protocol.TypeMatched:
		that.roomID = msg.RoomID
		that.playerNumber = msg.PlayerNumber
	case protocol.TypeGameOver, protocol.TypeOpponentQuit:
		that.roomID = ""
		that.playerNumber = 0
	}
}

func (that *Client) markDisconnected() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.connected = false
	that.roomID = ""
	that.playerNumber = 0
}

// Events delivers server messages in arrival order. It is closed when the connection ends.
func (that *Client) Events() <-chan protocol.Message {
	return that.events
}

func (that *Client) PlayerID() string {
	that.mu.Lock()
	defer that.mu.Unlock()
	return that.playerID
}

func (that *Client) RoomID() string {
	that.mu.Lock()
	defer that.mu.Unlock()
	return that.roomID
}

func (that *Client) IsConnected() bool {
	that.mu.Lock()
	defer that.mu.Unlock()
	return that.connected
}

// RequestMatch forgets the previous room and asks for a new opponent.
func (that *Client) RequestMatch() error {
	that.mu.Lock()
	connected := that.connected
	that.roomID = ""
	that.playerNumber = 0
	that.mu.Unlock()

	if !connected {
		return apperror.ErrNotConnected
	}

	return that.send(protocol.Match())
}

// SendMove submits a move. It requires a live connection and a match.
func (that *Client) SendMove(col, row int) error {
	that.mu.Lock()
	connected, matched := that.connected, that.roomID != ""
	that.mu.Unlock()

	if !connected {
		return apperror.ErrNotConnected
	}

	if !matched {
		return apperror.ErrNotMatched
	}

	return that.send(protocol.MoveRequest(col, row))
}

// Quit leaves the current room or cancels a pending match request.
func (that *Client) Quit() error {
	that.mu.Lock()
	connected := that.connected
	that.roomID = ""
	that.playerNumber = 0
	that.mu.Unlock()

	if !connected {
		return apperror.ErrNotConnected
	}

	return that.send(protocol.Quit())
}

// Send writes an arbitrary message; used for protocol tests.
func (that *Client) Send(msg protocol.Message) error {
	return that.send(msg)
}

// SendRaw writes one raw line as is.
func (that *Client) SendRaw(data []byte) error {
	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	if err := protocol.WriteLine(that.conn, data); err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrConnectionLost, err)
	}
	return nil
}

func (that *Client) send(msg protocol.Message) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	return that.SendRaw(data)
}

func (that *Client) Close() error {
	var err error
	that.once.Do(func() {
		close(that.closed)
		err = that.conn.Close()
	})
	if err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	return nil
}

// Apply drains the pending events into game without blocking and returns how many were applied.
func (that *Client) Apply(game *gomoku.LocalGame) int {
	log := that.logger.With("method", "Apply")

	applied := 0
	for {
		select {
		case msg, ok := <-that.events:
			if !ok {
				return applied
			}
			if err := apply(game, that, msg); err != nil {
				log.Warn("failed to apply server message", "type", msg.Type, "error", err)
			}
			applied++
		default:
			return applied
		}
	}
}

func apply(game *gomoku.LocalGame, sender gomoku.MoveSender, msg protocol.Message) error {
	switch msg.Type {
	case protocol.TypeMatched:
		game.SetSender(sender)
		return game.StartOnline(msg.PlayerNumber)
	case protocol.TypeMove:
		col, row, _ := msg.Cell()
		return game.ApplyServerMove(entity.Position{Col: col, Row: row}, msg.PlayerNumber)
	case protocol.TypeGameOver:
		game.FinishOnline(msg.WinnerNumberOrZero(), msg.Draw)
	case protocol.TypeOpponentQuit:
		game.OpponentQuit()
	}
	return nil
}
